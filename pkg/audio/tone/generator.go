// Package tone provides the synthetic signal generator: a background
// goroutine that produces a continuous sine waveform and submits it to an
// [audio.Source] at the fixed 20 ms frame cadence.
package tone

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/MrWong99/tonecast/pkg/audio"
)

// Config holds the waveform parameters.
type Config struct {
	// SampleRate in Hz. Must be a positive multiple of 50 so that frames
	// divide evenly. Default 48000.
	SampleRate int

	// Frequency of the tone in Hz. Default 440 (A4).
	Frequency float64

	// Amplitude scales the waveform relative to full signed 16-bit range,
	// in (0, 1]. Default 0.2.
	Amplitude float64
}

// applyDefaults fills zero fields with the documented defaults.
func (c *Config) applyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = audio.DefaultSampleRate
	}
	if c.Frequency == 0 {
		c.Frequency = 440
	}
	if c.Amplitude == 0 {
		c.Amplitude = 0.2
	}
}

// validate checks the configuration after defaults have been applied.
func (c Config) validate() error {
	if c.SampleRate <= 0 || c.SampleRate%audio.FramesPerSecond != 0 {
		return fmt.Errorf("tone: sample rate %d must be a positive multiple of %d", c.SampleRate, audio.FramesPerSecond)
	}
	if c.Frequency <= 0 {
		return fmt.Errorf("tone: frequency %g must be positive", c.Frequency)
	}
	if c.Amplitude <= 0 || c.Amplitude > 1 {
		return fmt.Errorf("tone: amplitude %g must be in (0, 1]", c.Amplitude)
	}
	return nil
}

// Generator produces sine-wave PCM frames and feeds them into an
// [audio.Source]. Create one with [New] and drive it with [Generator.Run] on
// its own goroutine.
type Generator struct {
	cfg   Config
	src   audio.Source
	phase float64

	// sleep waits out one frame interval; it reports false when ctx was
	// cancelled during the wait. Replaced in tests to simulate time.
	sleep func(ctx context.Context, d time.Duration) bool
}

// New creates a Generator submitting to src. Zero-valued Config fields fall
// back to the defaults documented on [Config].
func New(cfg Config, src audio.Source) (*Generator, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg, src: src, sleep: sleepCtx}, nil
}

// Run produces frames until ctx is cancelled, then returns ctx.Err().
// Cancellation is the expected termination path — callers awaiting Run must
// not treat [context.Canceled] as a failure.
//
// Each iteration checks ctx once at the top, fills one frame of
// SampleRate/50 samples, submits it, and sleeps for the 20 ms frame
// duration. Scheduling is fixed-delay: under load the cadence drifts rather
// than catching up, so a run of one second yields 50 frames minus whatever
// the submit latency ate.
func (g *Generator) Run(ctx context.Context) error {
	frameSize := g.cfg.SampleRate / audio.FramesPerSecond
	step := 2 * math.Pi * g.cfg.Frequency / float64(g.cfg.SampleRate)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		samples := make([]int16, frameSize)
		for i := range samples {
			samples[i] = int16(math.Sin(g.phase) * g.cfg.Amplitude * math.MaxInt16)
			g.phase += step
			// Wrap to keep the accumulated phase from losing float
			// precision over long runs.
			if g.phase >= 2*math.Pi {
				g.phase -= 2 * math.Pi
			}
		}

		g.src.Submit(samples, audio.FrameDuration)

		if !g.sleep(ctx, audio.FrameDuration) {
			return ctx.Err()
		}
	}
}

// sleepCtx blocks for d or until ctx is done, whichever comes first.
// It reports whether the full duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
