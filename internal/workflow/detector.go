package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/EdenOved/formpilot/internal/artifacts"
	"go.uber.org/zap"
)

// Detector decides whether a submission was accepted. The URL stage runs
// first and short-circuits; the text stage requires every fragment.
type Detector struct {
	URLFragment   string
	TextFragments []string
	ReadTimeout   time.Duration
	// ShotTimeout bounds the validation-failed capture.
	ShotTimeout time.Duration

	recorder *artifacts.Recorder
	logger   *zap.Logger
}

// NewDetector creates a Detector. recorder may be nil, in which case no
// validation-failed screenshot is taken.
func NewDetector(logger *zap.Logger, urlFragment string, textFragments []string, readTimeout, shotTimeout time.Duration, recorder *artifacts.Recorder) *Detector {
	return &Detector{
		URLFragment:   urlFragment,
		TextFragments: append([]string(nil), textFragments...),
		ReadTimeout:   readTimeout,
		ShotTimeout:   shotTimeout,
		recorder:      recorder,
		logger:        logger.Named("detector"),
	}
}

// Detect returns the verdict. A page that cannot be read yields a
// ValidationError; a page that reads fine but shows no success signal yields
// an unsuccessful Outcome and a nil error.
func (d *Detector) Detect(ctx context.Context, page Page) (Outcome, error) {
	url, err := d.read(ctx, page.CurrentURL)
	if err != nil {
		return Outcome{Method: MethodNone}, &ValidationError{Step: "current url", Err: err}
	}
	if out, ok := d.matchURL(url); ok {
		d.logger.Info("Submission confirmed by URL.", zap.String("url", url))
		return out, nil
	}

	text, err := d.read(ctx, page.VisibleText)
	if err != nil {
		return Outcome{Method: MethodNone, URL: url}, &ValidationError{Step: "visible text", Err: err}
	}
	out := d.matchText(url, text)
	if out.Success {
		d.logger.Info("Submission confirmed by page text.", zap.Int("fragments", len(d.TextFragments)))
		return out, nil
	}

	d.logger.Warn("Submission not confirmed.",
		zap.String("url", url),
		zap.Strings("missing_fragments", out.MissingFragments),
	)
	d.capture(ctx, page)
	return out, nil
}

// capture records the unconfirmed page. Like the orchestrator's captures it
// outlives cancellation of ctx but never runs past ShotTimeout.
func (d *Detector) capture(ctx context.Context, page Page) {
	if d.recorder == nil {
		return
	}
	shotCtx := context.WithoutCancel(ctx)
	if d.ShotTimeout > 0 {
		var cancel context.CancelFunc
		shotCtx, cancel = context.WithTimeout(shotCtx, d.ShotTimeout)
		defer cancel()
	}
	if _, err := d.recorder.Capture(shotCtx, page, artifacts.CategoryValidationFailed); err != nil {
		d.logger.Warn("Failed to capture validation-failed screenshot.", zap.Error(err))
	}
}

// matchURL is the authoritative stage.
func (d *Detector) matchURL(url string) (Outcome, bool) {
	if d.URLFragment == "" || !strings.Contains(url, d.URLFragment) {
		return Outcome{}, false
	}
	return Outcome{Success: true, Method: MethodURL, URL: url}, true
}

// matchText requires every configured fragment. With no fragments configured
// it never confirms.
func (d *Detector) matchText(url, text string) Outcome {
	out := Outcome{Method: MethodNone, URL: url, TextLength: len(text)}
	if len(d.TextFragments) == 0 {
		return out
	}
	for _, frag := range d.TextFragments {
		if !strings.Contains(text, frag) {
			out.MissingFragments = append(out.MissingFragments, frag)
		}
	}
	if len(out.MissingFragments) == 0 {
		out.Success = true
		out.Method = MethodText
	}
	return out
}

func (d *Detector) read(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	if d.ReadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.ReadTimeout)
		defer cancel()
	}
	return fn(ctx)
}
