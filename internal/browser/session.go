// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/EdenOved/formpilot/internal/config"
	"github.com/EdenOved/formpilot/internal/workflow"
)

// ErrSessionClosed is returned by every call made after Close.
var ErrSessionClosed = errors.New("browser session is closed")

// Session is a single Chrome tab driven over CDP. It implements workflow.Page.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	fs      afero.Fs
	tracker *inflightTracker
	logger  *zap.Logger

	navigationTimeout time.Duration
	actionTimeout     time.Duration
	idleQuietWindow   time.Duration
	idleMaxInflight   int
	screenshotTimeout time.Duration
	screenshotQuality int
	fullPage          bool

	mu     sync.Mutex
	closed bool
}

var _ workflow.Page = (*Session)(nil)

// Launch starts a browser, opens a tab and enables network tracking. ctx
// bounds the startup only; the browser lives until Close.
func Launch(ctx context.Context, cfg *config.Config, fs afero.Fs, logger *zap.Logger) (*Session, error) {
	logger = logger.Named("browser")
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), AllocatorOptions(cfg.Browser)...)

	ctxOpts := []chromedp.ContextOption{chromedp.WithErrorf(logger.Sugar().Errorf)}
	if cfg.Browser.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(logger.Sugar().Debugf))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	s := &Session{
		ctx:               tabCtx,
		cancel:            tabCancel,
		allocCancel:       allocCancel,
		fs:                fs,
		tracker:           newInflightTracker(),
		logger:            logger,
		navigationTimeout: cfg.Network.NavigationTimeout,
		actionTimeout:     cfg.Timeouts.Element,
		idleQuietWindow:   cfg.Network.IdleQuietWindow,
		idleMaxInflight:   cfg.Network.IdleMaxInflight,
		screenshotTimeout: cfg.Timeouts.Screenshot,
		screenshotQuality: cfg.Artifacts.Quality,
		fullPage:          cfg.Artifacts.FullPage,
	}
	chromedp.ListenTarget(tabCtx, s.tracker.handle)

	// The first Run allocates the browser and the target.
	if err := s.run(ctx, 0, network.Enable()); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	logger.Info("Browser started.", zap.Bool("headless", cfg.Browser.Headless))
	return s, nil
}

// run executes actions on the tab, bounded by ctx and, when positive, timeout.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	opCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(opCtx, actions...)
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating", zap.String("url", url))
	return s.run(ctx, s.navigationTimeout, chromedp.Navigate(url))
}

func (s *Session) WaitVisible(ctx context.Context, locator string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.WaitVisible(locator, chromedp.ByQuery))
}

// Type pauses for perCharDelay, then sends text as key events to the element.
func (s *Session) Type(ctx context.Context, locator, text string, perCharDelay time.Duration) error {
	return s.run(ctx, s.actionTimeout+perCharDelay,
		chromedp.Sleep(perCharDelay),
		chromedp.SendKeys(locator, text, chromedp.ByQuery),
	)
}

// Select sets a select control's value and fires the change event page
// scripts listen for.
func (s *Session) Select(ctx context.Context, locator, optionValue string) error {
	sel, err := jsoniter.MarshalToString(locator)
	if err != nil {
		return fmt.Errorf("failed to encode locator: %w", err)
	}
	script := fmt.Sprintf(`document.querySelector(%s).dispatchEvent(new Event("change", {bubbles: true}))`, sel)
	var ok bool
	return s.run(ctx, s.actionTimeout,
		chromedp.SetValue(locator, optionValue, chromedp.ByQuery),
		chromedp.Evaluate(script, &ok),
	)
}

func (s *Session) Click(ctx context.Context, locator string) error {
	return s.run(ctx, s.actionTimeout, chromedp.Click(locator, chromedp.ByQuery))
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, s.actionTimeout, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// VisibleText returns the rendered text of the document body.
func (s *Session) VisibleText(ctx context.Context) (string, error) {
	var text string
	if err := s.run(ctx, s.actionTimeout, chromedp.Text("body", &text, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return text, nil
}

// WaitForNetworkIdle blocks until no more than the configured number of
// requests stay in flight for the quiet window.
func (s *Session) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	opCtx, cancelOp := CombineContext(s.ctx, waitCtx)
	defer cancelOp()

	err := s.tracker.waitIdle(opCtx, s.idleQuietWindow, s.idleMaxInflight)
	if err != nil {
		s.logger.Warn("Network did not settle.", zap.Int("inflight", s.tracker.count()), zap.Error(err))
		return err
	}
	s.logger.Debug("Network idle.", zap.Int("inflight", s.tracker.count()))
	return nil
}

// Screenshot captures the page as PNG (or JPEG when quality < 100) and writes
// it to destinationPath.
func (s *Session) Screenshot(ctx context.Context, destinationPath string) error {
	var buf []byte
	var action chromedp.Action
	if s.fullPage {
		action = chromedp.FullScreenshot(&buf, s.screenshotQuality)
	} else {
		action = chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, err = page.CaptureScreenshot().Do(ctx)
			return err
		})
	}
	if err := s.run(ctx, s.screenshotTimeout, action); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if err := afero.WriteFile(s.fs, destinationPath, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot '%s': %w", destinationPath, err)
	}
	return nil
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(s.ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("browser did not close in time: %w", ctx.Err())
		s.cancel()
	}
	s.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	s.logger.Debug("Browser closed.")
	return nil
}
