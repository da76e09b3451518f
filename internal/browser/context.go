// internal/browser/context.go
package browser

import (
	"context"
)

// CombineContext derives from sessionCtx, which carries the chromedp target,
// and cancels the result as soon as opCtx is done. chromedp only finds its
// connection through context values, so operations must run on a context
// derived from the session while still honoring the caller's deadline.
func CombineContext(sessionCtx, opCtx context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(sessionCtx)
	if deadline, ok := opCtx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		combined, cancelDeadline = context.WithDeadline(combined, deadline)
		inner := cancel
		cancel = func() {
			cancelDeadline()
			inner()
		}
	}

	go func() {
		select {
		case <-opCtx.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}
