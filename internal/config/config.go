// Package config provides the configuration schema and loader for tonecast.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/tonecast/pkg/audio"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SignalingMode selects how the offer/answer exchange reaches the operator.
type SignalingMode string

const (
	// SignalingConsole prints the offer and line-reads the answer.
	SignalingConsole SignalingMode = "console"

	// SignalingHTTP serves the offer at GET /offer and accepts the answer
	// at POST /answer.
	SignalingHTTP SignalingMode = "http"
)

// IsValid reports whether m is a recognised signaling mode.
func (m SignalingMode) IsValid() bool {
	return m == SignalingConsole || m == SignalingHTTP
}

// Config is the root configuration for a tonecast session. It is typically
// loaded from a YAML file using [Load]; [Default] provides a runnable
// configuration without a file.
type Config struct {
	// LogLevel controls verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr is the address serving Prometheus metrics at /metrics.
	// Empty disables the metrics endpoint.
	MetricsAddr string `yaml:"metrics_addr"`

	Tone      ToneConfig      `yaml:"tone"`
	WebRTC    WebRTCConfig    `yaml:"webrtc"`
	Signaling SignalingConfig `yaml:"signaling"`
}

// ToneConfig holds the synthetic waveform parameters.
type ToneConfig struct {
	// SampleRate in Hz; must be a positive multiple of 50. Default: 48000.
	SampleRate int `yaml:"sample_rate"`

	// Frequency of the tone in Hz. Default: 440.
	Frequency float64 `yaml:"frequency"`

	// Amplitude relative to full signed range, in (0, 1]. Default: 0.2.
	Amplitude float64 `yaml:"amplitude"`
}

// WebRTCConfig holds transport settings.
type WebRTCConfig struct {
	// STUNServers used during ICE gathering.
	STUNServers []string `yaml:"stun_servers"`
}

// SignalingConfig selects the offer/answer exchange path.
type SignalingConfig struct {
	// Mode is "console" or "http". Default: console.
	Mode SignalingMode `yaml:"mode"`

	// ListenAddr is the HTTP exchanger's listen address. Required when
	// Mode is "http".
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the configuration used when no config file is given:
// a 440 Hz tone at 48 kHz, console signaling, info logging.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills zero fields with the documented defaults.
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = LogInfo
	}
	if c.Tone.SampleRate == 0 {
		c.Tone.SampleRate = audio.DefaultSampleRate
	}
	if c.Tone.Frequency == 0 {
		c.Tone.Frequency = 440
	}
	if c.Tone.Amplitude == 0 {
		c.Tone.Amplitude = 0.2
	}
	if len(c.WebRTC.STUNServers) == 0 {
		c.WebRTC.STUNServers = []string{"stun:stun.l.google.com:19302"}
	}
	if c.Signaling.Mode == "" {
		c.Signaling.Mode = SignalingConsole
	}
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	if cfg.Tone.SampleRate <= 0 || cfg.Tone.SampleRate%audio.FramesPerSecond != 0 {
		errs = append(errs, fmt.Errorf("tone.sample_rate %d must be a positive multiple of %d", cfg.Tone.SampleRate, audio.FramesPerSecond))
	}
	if cfg.Tone.Frequency <= 0 {
		errs = append(errs, fmt.Errorf("tone.frequency %g must be positive", cfg.Tone.Frequency))
	}
	if cfg.Tone.Amplitude <= 0 || cfg.Tone.Amplitude > 1 {
		errs = append(errs, fmt.Errorf("tone.amplitude %g is out of range (0, 1]", cfg.Tone.Amplitude))
	}

	for i, s := range cfg.WebRTC.STUNServers {
		if !strings.HasPrefix(s, "stun:") && !strings.HasPrefix(s, "stuns:") {
			errs = append(errs, fmt.Errorf("webrtc.stun_servers[%d] %q must start with stun: or stuns:", i, s))
		}
	}

	if !cfg.Signaling.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("signaling.mode %q is invalid; valid values: console, http", cfg.Signaling.Mode))
	}
	if cfg.Signaling.Mode == SignalingHTTP && cfg.Signaling.ListenAddr == "" {
		errs = append(errs, errors.New("signaling.listen_addr is required when signaling.mode is http"))
	}

	return errors.Join(errs...)
}
