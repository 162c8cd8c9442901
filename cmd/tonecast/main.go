// Command tonecast streams a synthetic 440 Hz tone to a single WebRTC peer.
// It performs exactly one session per invocation: offer out, answer in,
// stream until the connection ends or the operator presses Ctrl+C.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrWong99/tonecast/internal/config"
	"github.com/MrWong99/tonecast/internal/observe"
	"github.com/MrWong99/tonecast/internal/session"
	"github.com/MrWong99/tonecast/internal/signaling"
	"github.com/MrWong99/tonecast/pkg/audio"
	"github.com/MrWong99/tonecast/pkg/audio/opus"
	"github.com/MrWong99/tonecast/pkg/audio/tone"
	webrtctransport "github.com/MrWong99/tonecast/pkg/transport/webrtc"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "", "path to the YAML configuration file (optional)")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tonecast: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(cfg.LogLevel))

	slog.Info("tonecast starting",
		"sample_rate", cfg.Tone.SampleRate,
		"frequency", cfg.Tone.Frequency,
		"signaling", cfg.Signaling.Mode,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics (optional) ────────────────────────────────────────────────────
	var metrics *observe.Metrics
	if cfg.MetricsAddr != "" {
		mp, shutdown, err := observe.InitProvider(observe.ProviderConfig{ServiceName: "tonecast"})
		if err != nil {
			slog.Error("failed to initialise metrics provider", "err", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("metrics shutdown error", "err", err)
			}
		}()

		metrics, err = observe.NewMetrics(mp)
		if err != nil {
			slog.Error("failed to create metrics", "err", err)
			return 1
		}
		go observe.ServeMetrics(ctx, cfg.MetricsAddr)
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	var enc audio.Encoder = opus.NewEncoder()
	if metrics != nil {
		enc = &timedEncoder{enc: enc, metrics: metrics}
	}
	src := audio.NewPCMSource(enc)

	gen, err := tone.New(tone.Config{
		SampleRate: cfg.Tone.SampleRate,
		Frequency:  cfg.Tone.Frequency,
		Amplitude:  cfg.Tone.Amplitude,
	}, src)
	if err != nil {
		slog.Error("failed to create generator", "err", err)
		return 1
	}

	transport, err := webrtctransport.New(webrtctransport.Config{
		STUNServers: cfg.WebRTC.STUNServers,
	})
	if err != nil {
		slog.Error("failed to create transport", "err", err)
		return 1
	}

	var exchanger signaling.Exchanger
	switch cfg.Signaling.Mode {
	case config.SignalingHTTP:
		exchanger = &signaling.HTTPServer{Addr: cfg.Signaling.ListenAddr}
	default:
		exchanger = &signaling.Console{In: os.Stdin, Out: os.Stdout}
	}

	ctrl := session.New(session.Config{
		Transport: transport,
		Source:    src,
		Exchanger: exchanger,
		Producer:  gen,
		Metrics:   metrics,
	})

	// ── Run the session ───────────────────────────────────────────────────────
	if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("session error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// timedEncoder wraps an encoder and records per-frame encode latency.
type timedEncoder struct {
	enc     audio.Encoder
	metrics *observe.Metrics
}

func (t *timedEncoder) Encode(samples []int16, format audio.Format) ([]byte, error) {
	start := time.Now()
	data, err := t.enc.Encode(samples, format)
	if err == nil {
		t.metrics.EncodeDuration.Record(context.Background(), time.Since(start).Seconds())
	}
	return data, err
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
