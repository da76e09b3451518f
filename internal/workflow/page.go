// Package workflow drives one web form from an empty page to a confirmed (or
// refuted) submission: load, validate, fill, submit with retry, wait for the
// network to settle, then decide whether the submission was accepted.
package workflow

import (
	"context"
	"time"
)

// Page is the browser capability the workflow consumes. Locators are CSS
// selectors. Implementations bound every call by ctx; calls that take a
// timeout bound themselves by it as well.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, locator string, timeout time.Duration) error
	// Type enters text into the element after pausing for perCharDelay.
	Type(ctx context.Context, locator, text string, perCharDelay time.Duration) error
	Select(ctx context.Context, locator, optionValue string) error
	Click(ctx context.Context, locator string) error
	CurrentURL(ctx context.Context) (string, error)
	VisibleText(ctx context.Context) (string, error)
	WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error
	Screenshot(ctx context.Context, destinationPath string) error
	Close(ctx context.Context) error
}
