// internal/browser/idle.go
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
)

const idleCheckFrequency = 50 * time.Millisecond

// inflightTracker follows CDP network events and counts requests that have
// been sent but have neither finished nor failed.
type inflightTracker struct {
	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	tick     time.Duration
}

func newInflightTracker() *inflightTracker {
	return &inflightTracker{
		inflight: make(map[network.RequestID]struct{}),
		tick:     idleCheckFrequency,
	}
}

// handle is registered with chromedp.ListenTarget. Redirects reuse the
// request ID, so they do not inflate the count.
func (t *inflightTracker) handle(ev interface{}) {
	switch ev := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.mu.Lock()
		t.inflight[ev.RequestID] = struct{}{}
		t.mu.Unlock()
	case *network.EventLoadingFinished:
		t.done(ev.RequestID)
	case *network.EventLoadingFailed:
		t.done(ev.RequestID)
	}
}

func (t *inflightTracker) done(id network.RequestID) {
	t.mu.Lock()
	delete(t.inflight, id)
	t.mu.Unlock()
}

func (t *inflightTracker) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

// waitIdle returns once at most maxInflight requests have been pending for
// an uninterrupted quiet window, or with the context error.
func (t *inflightTracker) waitIdle(ctx context.Context, quiet time.Duration, maxInflight int) error {
	timer := time.NewTimer(quiet)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	defer timer.Stop()

	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	idle := false
	check := func() {
		busy := t.count() > maxInflight
		switch {
		case busy && idle:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			idle = false
		case !busy && !idle:
			timer.Reset(quiet)
			idle = true
		}
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			check()
		case <-timer.C:
			return nil
		}
	}
}
