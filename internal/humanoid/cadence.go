// internal/humanoid/cadence.go
package humanoid

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/EdenOved/formpilot/internal/config"
)

// DelayFunc yields the pause that precedes text[index].
type DelayFunc func(text []rune, index int) time.Duration

// commonNgrams are typed in a faster rhythm by practiced typists.
var commonNgrams = map[string]bool{
	"th": true, "he": true, "in": true, "er": true, "an": true, "re": true,
	"es": true, "on": true, "st": true, "nt": true,
	"the": true, "and": true, "ing": true, "ion": true, "tio": true,
}

// Cadence draws inter-key delays uniformly from [min, max). It is safe for
// concurrent use.
type Cadence struct {
	mu  sync.Mutex
	rng *rand.Rand

	min    time.Duration
	max    time.Duration
	rhythm bool
}

// NewCadence builds a Cadence from config. A zero seed draws one from the clock.
func NewCadence(cfg config.HumanoidConfig) *Cadence {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Cadence{
		rng:    rand.New(rand.NewSource(seed)),
		min:    cfg.KeyDelayMin,
		max:    cfg.KeyDelayMax,
		rhythm: cfg.Rhythm,
	}
}

// Next returns the next delay.
func (c *Cadence) Next() time.Duration {
	span := c.max - c.min
	if span <= 0 {
		return c.min
	}
	c.mu.Lock()
	n := c.rng.Int63n(int64(span))
	c.mu.Unlock()
	return c.min + time.Duration(n)
}

// Delay adapts the Cadence to a DelayFunc, applying the n-gram rhythm when
// it is enabled.
func (c *Cadence) Delay() DelayFunc {
	if c.rhythm {
		return c.Rhythmic
	}
	return func([]rune, int) time.Duration { return c.Next() }
}

// Rhythmic shortens the delay before characters that complete a common
// digram or trigram. The result never drops below the cadence minimum.
func (c *Cadence) Rhythmic(text []rune, index int) time.Duration {
	d := c.Next()
	factor := ngramFactor(text, index)
	if factor == 1.0 {
		return d
	}
	scaled := time.Duration(float64(d) * factor)
	if scaled < c.min {
		return c.min
	}
	return scaled
}

func ngramFactor(runes []rune, index int) float64 {
	if index <= 0 || index >= len(runes) {
		return 1.0
	}
	if index >= 2 && commonNgrams[strings.ToLower(string(runes[index-2:index+1]))] {
		return 0.55
	}
	if commonNgrams[strings.ToLower(string(runes[index-1:index+1]))] {
		return 0.7
	}
	return 1.0
}

// Fixed returns a DelayFunc that always yields d.
func Fixed(d time.Duration) DelayFunc {
	return func([]rune, int) time.Duration { return d }
}
