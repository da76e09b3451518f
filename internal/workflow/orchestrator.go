package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/EdenOved/formpilot/internal/artifacts"
	"github.com/EdenOved/formpilot/internal/config"
	"github.com/EdenOved/formpilot/internal/form"
	"github.com/EdenOved/formpilot/internal/humanoid"
	"go.uber.org/zap"
)

const defaultSideEffectTimeout = 10 * time.Second

// Epilogue runs after the workflow finished and before the page is closed.
// The CLI uses it to keep the browser open until the operator is done.
type Epilogue func(ctx context.Context, res *Result)

// Options tunes the submit step and the side effects around it.
type Options struct {
	RunID              string
	MaxAttempts        int
	RetryDelay         time.Duration
	SubmitTimeout      time.Duration
	NetworkIdleTimeout time.Duration
	ScreenshotTimeout  time.Duration
	WriteReport        bool
	Epilogue           Epilogue
}

// Orchestrator owns the page for the duration of a run and moves it through
// the submission state machine.
type Orchestrator struct {
	loader   *Loader
	filler   *Filler
	detector *Detector
	recorder *artifacts.Recorder
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrchestrator wires the workflow steps together. recorder may be nil to
// disable artifacts.
func NewOrchestrator(logger *zap.Logger, loader *Loader, filler *Filler, detector *Detector, recorder *artifacts.Recorder, opts Options) *Orchestrator {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.ScreenshotTimeout <= 0 {
		opts.ScreenshotTimeout = defaultSideEffectTimeout
	}
	return &Orchestrator{
		loader:   loader,
		filler:   filler,
		detector: detector,
		recorder: recorder,
		opts:     opts,
		logger:   logger.Named("orchestrator").With(zap.String("run_id", opts.RunID)),
		now:      time.Now,
	}
}

// FromConfig builds an Orchestrator and its steps from the loaded configuration.
func FromConfig(logger *zap.Logger, cfg *config.Config, recorder *artifacts.Recorder, delay humanoid.DelayFunc, runID string, epilogue Epilogue) *Orchestrator {
	t := cfg.Timeouts
	return NewOrchestrator(logger,
		NewLoader(logger, t.Body, t.Element),
		NewFiller(logger, t.Element, delay),
		NewDetector(logger, cfg.Form.Success.URLFragment, cfg.Form.Success.TextFragments, t.ReadPage, t.Screenshot, recorder),
		recorder,
		Options{
			RunID:              runID,
			MaxAttempts:        cfg.Submit.MaxAttempts,
			RetryDelay:         cfg.Submit.RetryDelay,
			SubmitTimeout:      t.SubmitVisible,
			NetworkIdleTimeout: t.NetworkIdle,
			ScreenshotTimeout:  t.Screenshot,
			WriteReport:        cfg.Artifacts.WriteReport,
			Epilogue:           epilogue,
		},
	)
}

// Run drives one submission of data into the form described by spec. A
// rejected or unconfirmed submission is reported through Result with a nil
// error; every other failure is returned as one of the typed errors. The page
// is closed before Run returns.
func (o *Orchestrator) Run(ctx context.Context, page Page, spec form.Spec, data form.Data) (res *Result, err error) {
	m := newMachine(o.now)
	res = &Result{RunID: o.opts.RunID, URL: spec.URL(), StartedAt: o.now()}
	navigated := false

	defer func() {
		if err != nil {
			if navigated {
				o.captureError(ctx, page)
			}
			m.fail()
			res.Error = err.Error()
		}
		o.finish(ctx, page, m, res)
	}()

	o.logger.Info("Starting form submission.", zap.String("url", spec.URL()))
	if navErr := page.Navigate(ctx, spec.URL()); navErr != nil {
		return res, &NavigationError{URL: spec.URL(), Err: navErr}
	}
	navigated = true

	if err := o.loader.Load(ctx, page, spec.RequiredLocators()); err != nil {
		return res, err
	}
	if err := m.moveTo(StateLoaded); err != nil {
		return res, err
	}

	vr := form.Validate(data, spec)
	res.ValidationMessages = vr.Messages
	if !vr.Valid() {
		for _, msg := range vr.Messages {
			o.logger.Warn("Validation failed", zap.String("reason", msg))
		}
		return res, m.moveTo(StateRejected)
	}
	if err := m.moveTo(StateValidated); err != nil {
		return res, err
	}

	if err := o.filler.Fill(ctx, page, data); err != nil {
		return res, err
	}
	if err := m.moveTo(StateFilled); err != nil {
		return res, err
	}

	if err := m.moveTo(StateSubmitting); err != nil {
		return res, err
	}
	o.capture(ctx, page, artifacts.CategoryBefore)

	attempts, clickErr := o.clickWithRetry(ctx, page, spec.SubmitLocator())
	res.SubmitAttempts = attempts
	if clickErr != nil {
		if attempts == 0 {
			return res, fmt.Errorf("submission cancelled before the first click: %w", clickErr)
		}
		return res, &SubmitError{Locator: spec.SubmitLocator(), Attempts: attempts, Err: clickErr}
	}

	if err := m.moveTo(StateAwaitingNavigation); err != nil {
		return res, err
	}
	if idleErr := page.WaitForNetworkIdle(ctx, o.opts.NetworkIdleTimeout); idleErr != nil {
		return res, &NavigationTimeoutError{Timeout: o.opts.NetworkIdleTimeout, Err: idleErr}
	}

	if err := m.moveTo(StateValidating); err != nil {
		return res, err
	}
	outcome, detectErr := o.detector.Detect(ctx, page)
	res.Outcome = &outcome
	if detectErr != nil {
		return res, detectErr
	}
	if outcome.Success {
		return res, m.moveTo(StateSucceeded)
	}
	return res, m.moveTo(StateFailed)
}

// clickWithRetry re-waits for the submit control before every click. Retries
// are immediate unless a retry delay is configured.
func (o *Orchestrator) clickWithRetry(ctx context.Context, page Page, locator string) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return attempt - 1, ctxErr
		}
		lastErr = page.WaitVisible(ctx, locator, o.opts.SubmitTimeout)
		if lastErr == nil {
			lastErr = page.Click(ctx, locator)
		}
		if lastErr == nil {
			o.logger.Info("Submit clicked.", zap.Int("attempt", attempt))
			return attempt, nil
		}
		o.logger.Warn("Submit attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", o.opts.MaxAttempts),
			zap.Error(lastErr),
		)
		if attempt < o.opts.MaxAttempts && o.opts.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return attempt, ctx.Err()
			case <-time.After(o.opts.RetryDelay):
			}
		}
	}
	return o.opts.MaxAttempts, lastErr
}

// capture takes a best-effort screenshot. It survives cancellation of the
// run context so a Ctrl+C still leaves a trail.
func (o *Orchestrator) capture(ctx context.Context, page Page, category artifacts.Category) {
	if o.recorder == nil {
		return
	}
	shotCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.ScreenshotTimeout)
	defer cancel()
	a, err := o.recorder.Capture(shotCtx, page, category)
	if err != nil {
		o.logger.Warn("Screenshot failed", zap.String("category", string(category)), zap.Error(err))
		return
	}
	o.logger.Info("Screenshot saved", zap.String("category", string(category)), zap.String("path", a.Path))
}

func (o *Orchestrator) captureError(ctx context.Context, page Page) {
	o.capture(ctx, page, artifacts.CategoryError)
}

// finish records the final state, writes the report, runs the epilogue and
// releases the page.
func (o *Orchestrator) finish(ctx context.Context, page Page, m *machine, res *Result) {
	res.State = m.current
	res.History = append([]Transition(nil), m.history...)
	res.FinishedAt = o.now()
	if o.recorder != nil {
		res.Artifacts = o.recorder.Recorded()
		if o.opts.WriteReport {
			if a, err := o.recorder.WriteReport(res); err != nil {
				o.logger.Warn("Failed to write run report.", zap.Error(err))
			} else {
				res.Artifacts = append(res.Artifacts, a)
			}
		}
	}
	o.logger.Info("Form submission finished.",
		zap.String("state", string(res.State)),
		zap.Int("submit_attempts", res.SubmitAttempts),
		zap.Duration("duration", res.Duration()),
	)

	if o.opts.Epilogue != nil {
		o.opts.Epilogue(ctx, res)
	}

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultSideEffectTimeout)
	defer cancel()
	if err := page.Close(closeCtx); err != nil {
		o.logger.Warn("Failed to close page.", zap.Error(err))
	}
}
