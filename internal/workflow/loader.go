package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const bodyLocator = "body"

// Loader waits until the form is rendered.
type Loader struct {
	BodyTimeout    time.Duration
	ElementTimeout time.Duration
	logger         *zap.Logger
}

// NewLoader creates a Loader with the given waits.
func NewLoader(logger *zap.Logger, bodyTimeout, elementTimeout time.Duration) *Loader {
	return &Loader{
		BodyTimeout:    bodyTimeout,
		ElementTimeout: elementTimeout,
		logger:         logger.Named("loader"),
	}
}

// Load waits for the document body, then for each locator in order. Each wait
// has its own timeout. The first element that does not show up aborts the load.
func (l *Loader) Load(ctx context.Context, page Page, locators []string) error {
	if err := l.wait(ctx, page, bodyLocator, l.BodyTimeout); err != nil {
		return err
	}
	for _, loc := range locators {
		if err := l.wait(ctx, page, loc, l.ElementTimeout); err != nil {
			return err
		}
	}
	l.logger.Info("Form loaded.", zap.Int("elements", len(locators)))
	return nil
}

func (l *Loader) wait(ctx context.Context, page Page, locator string, timeout time.Duration) error {
	l.logger.Debug("Waiting for element", zap.String("locator", locator), zap.Duration("timeout", timeout))
	if err := page.WaitVisible(ctx, locator, timeout); err != nil {
		l.logger.Error("Element did not become visible.", zap.String("locator", locator), zap.Error(err))
		return &ElementTimeoutError{Locator: locator, Timeout: timeout, Err: err}
	}
	return nil
}
