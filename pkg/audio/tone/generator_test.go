package tone

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/MrWong99/tonecast/pkg/audio"
	"github.com/MrWong99/tonecast/pkg/audio/mock"
)

// runFrames drives g for exactly n frames by replacing the sleep hook, then
// cancels and waits for Run to return.
func runFrames(t *testing.T, g *Generator, n int) error {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	frames := 0
	g.sleep = func(context.Context, time.Duration) bool {
		frames++
		if frames >= n {
			cancel()
			return false
		}
		return true
	}

	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("generator did not stop")
		return nil
	}
}

func TestGeneratorFrameLength(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate int
		wantLen    int
	}{
		{"48kHz", 48000, 960},
		{"16kHz", 16000, 320},
		{"8kHz", 8000, 160},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &mock.Source{}
			g, err := New(Config{SampleRate: tt.sampleRate}, src)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if err := runFrames(t, g, 10); !errors.Is(err, context.Canceled) {
				t.Fatalf("Run = %v, want context.Canceled", err)
			}

			if len(src.SubmitCalls) == 0 {
				t.Fatal("no frames submitted")
			}
			for i, call := range src.SubmitCalls {
				if len(call.Samples) != tt.wantLen {
					t.Fatalf("frame %d has %d samples, want %d", i, len(call.Samples), tt.wantLen)
				}
				if call.Duration != audio.FrameDuration {
					t.Fatalf("frame %d duration = %v, want %v", i, call.Duration, audio.FrameDuration)
				}
			}
		})
	}
}

func TestGeneratorAmplitudeBound(t *testing.T) {
	const amplitude = 0.2
	src := &mock.Source{}
	g, err := New(Config{Amplitude: amplitude}, src)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = runFrames(t, g, 25)

	bound := int16(math.Ceil(amplitude * math.MaxInt16))
	for _, call := range src.SubmitCalls {
		for i, s := range call.Samples {
			if s > bound || s < -bound {
				t.Fatalf("sample %d = %d exceeds amplitude bound ±%d", i, s, bound)
			}
		}
	}
}

func TestGeneratorPhaseStaysWrapped(t *testing.T) {
	src := &mock.Source{}
	g, err := New(Config{}, src)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Long enough for many full cycles of the 440 Hz tone.
	_ = runFrames(t, g, 200)

	if g.phase < 0 || g.phase >= 2*math.Pi {
		t.Errorf("phase = %g, want within [0, 2π)", g.phase)
	}
}

func TestGeneratorOneSimulatedSecondYields50Frames(t *testing.T) {
	src := &mock.Source{}
	g, err := New(Config{}, src)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// 50 sleep intervals of 20 ms each simulate one second.
	_ = runFrames(t, g, audio.FramesPerSecond)

	if got := len(src.SubmitCalls); got != audio.FramesPerSecond {
		t.Errorf("submitted %d frames in a simulated second, want %d", got, audio.FramesPerSecond)
	}
}

func TestGeneratorStopsOnAlreadyCancelledContext(t *testing.T) {
	src := &mock.Source{}
	g, err := New(Config{}, src)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := g.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if len(src.SubmitCalls) != 0 {
		t.Errorf("submitted %d frames after cancellation, want 0", len(src.SubmitCalls))
	}
}

func TestGeneratorConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative sample rate", Config{SampleRate: -8000}},
		{"rate not multiple of 50", Config{SampleRate: 44100}},
		{"negative frequency", Config{Frequency: -440}},
		{"amplitude above one", Config{Amplitude: 1.5}},
		{"negative amplitude", Config{Amplitude: -0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, &mock.Source{}); err == nil {
				t.Errorf("New(%+v) accepted invalid config", tt.cfg)
			}
		})
	}
}
