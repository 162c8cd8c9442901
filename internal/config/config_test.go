package config

import (
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
	if cfg.LogLevel != LogInfo {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, LogInfo)
	}
	if cfg.Tone.SampleRate != 48000 || cfg.Tone.Frequency != 440 || cfg.Tone.Amplitude != 0.2 {
		t.Errorf("tone defaults = %+v, want 48000 Hz / 440 Hz / 0.2", cfg.Tone)
	}
	if cfg.Signaling.Mode != SignalingConsole {
		t.Errorf("signaling mode = %q, want %q", cfg.Signaling.Mode, SignalingConsole)
	}
	if len(cfg.WebRTC.STUNServers) == 0 {
		t.Error("no default STUN server configured")
	}
}

func TestLoadFromReader(t *testing.T) {
	const doc = `
log_level: debug
metrics_addr: "127.0.0.1:9100"
tone:
  sample_rate: 16000
  frequency: 261.63
  amplitude: 0.5
webrtc:
  stun_servers:
    - stun:stun.example.org:3478
signaling:
  mode: http
  listen_addr: "127.0.0.1:8080"
`
	cfg, err := LoadFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.LogLevel != LogDebug {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.MetricsAddr != "127.0.0.1:9100" {
		t.Errorf("MetricsAddr = %q", cfg.MetricsAddr)
	}
	if cfg.Tone.SampleRate != 16000 || cfg.Tone.Frequency != 261.63 || cfg.Tone.Amplitude != 0.5 {
		t.Errorf("tone = %+v", cfg.Tone)
	}
	if len(cfg.WebRTC.STUNServers) != 1 || cfg.WebRTC.STUNServers[0] != "stun:stun.example.org:3478" {
		t.Errorf("stun servers = %v", cfg.WebRTC.STUNServers)
	}
	if cfg.Signaling.Mode != SignalingHTTP || cfg.Signaling.ListenAddr != "127.0.0.1:8080" {
		t.Errorf("signaling = %+v", cfg.Signaling)
	}
}

func TestLoadFromReaderAppliesDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(`tone: {frequency: 880}`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Tone.Frequency != 880 {
		t.Errorf("frequency = %g, want 880", cfg.Tone.Frequency)
	}
	if cfg.Tone.SampleRate != 48000 || cfg.Tone.Amplitude != 0.2 {
		t.Errorf("tone defaults not applied: %+v", cfg.Tone)
	}
	if cfg.LogLevel != LogInfo || cfg.Signaling.Mode != SignalingConsole {
		t.Errorf("ambient defaults not applied: level=%q mode=%q", cfg.LogLevel, cfg.Signaling.Mode)
	}
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader(`tonne: {frequency: 880}`)); err == nil {
		t.Error("unknown top-level field was accepted")
	}
}

func TestValidateReportsAllFailures(t *testing.T) {
	cfg := &Config{
		LogLevel: "verbose",
		Tone: ToneConfig{
			SampleRate: 44100, // not a multiple of the frame rate
			Frequency:  -1,
			Amplitude:  1.5,
		},
		WebRTC:    WebRTCConfig{STUNServers: []string{"turn:turn.example.org"}},
		Signaling: SignalingConfig{Mode: SignalingHTTP}, // missing listen_addr
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate accepted an invalid config")
	}
	for _, want := range []string{
		"log_level",
		"tone.sample_rate",
		"tone.frequency",
		"tone.amplitude",
		"webrtc.stun_servers[0]",
		"signaling.listen_addr",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error is missing %q: %v", want, err)
		}
	}
}

func TestValidateSampleRateMultiples(t *testing.T) {
	tests := []struct {
		rate int
		ok   bool
	}{
		{48000, true},
		{16000, true},
		{8000, true},
		{44100, false},
		{0, false},
		{-8000, false},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.Tone.SampleRate = tt.rate
		err := Validate(cfg)
		if tt.ok && err != nil {
			t.Errorf("rate %d rejected: %v", tt.rate, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("rate %d accepted, want error", tt.rate)
		}
	}
}
