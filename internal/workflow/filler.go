package workflow

import (
	"context"
	"time"

	"github.com/EdenOved/formpilot/internal/form"
	"github.com/EdenOved/formpilot/internal/humanoid"
	"go.uber.org/zap"
)

// Filler enters validated values into the page one character at a time.
type Filler struct {
	ElementTimeout time.Duration
	delay          humanoid.DelayFunc
	logger         *zap.Logger
}

// NewFiller creates a Filler. delay decides the pause before every keystroke.
func NewFiller(logger *zap.Logger, elementTimeout time.Duration, delay humanoid.DelayFunc) *Filler {
	return &Filler{
		ElementTimeout: elementTimeout,
		delay:          delay,
		logger:         logger.Named("filler"),
	}
}

// Fill walks the entries in order. Text inputs are typed, select controls are
// set to the option value, and optional entries without a value are skipped.
// The first failure aborts with a FieldFillError.
func (f *Filler) Fill(ctx context.Context, page Page, data form.Data) error {
	for _, entry := range data.Entries() {
		if !entry.Role.Required() && entry.Value == "" {
			f.logger.Debug("Skipping optional field without a value", zap.String("role", string(entry.Role)))
			continue
		}
		if err := f.fillEntry(ctx, page, entry); err != nil {
			f.logger.Error("Failed to fill field.",
				zap.String("role", string(entry.Role)),
				zap.String("locator", entry.Locator),
				zap.Error(err),
			)
			return &FieldFillError{Locator: entry.Locator, Role: string(entry.Role), Err: err}
		}
		f.logger.Debug("Filled field", zap.String("role", string(entry.Role)), zap.Int("chars", len([]rune(entry.Value))))
	}
	f.logger.Info("Form filled.", zap.Int("fields", data.Len()))
	return nil
}

func (f *Filler) fillEntry(ctx context.Context, page Page, entry form.Entry) error {
	if err := page.WaitVisible(ctx, entry.Locator, f.ElementTimeout); err != nil {
		return err
	}
	if entry.Role.Selectable() {
		return page.Select(ctx, entry.Locator, entry.Value)
	}
	runes := []rune(entry.Value)
	for i, r := range runes {
		if err := page.Type(ctx, entry.Locator, string(r), f.delay(runes, i)); err != nil {
			return err
		}
	}
	return nil
}
