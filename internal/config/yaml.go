// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"ptt/internal/analysis"
	"ptt/internal/log"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug    bool          `yaml:"debug"`     // Enable debug logging.
	LogLevel string        `yaml:"log_level"` // Logging level ("debug", "info", "warn", "error").
	Audio    AudioConfig   `yaml:"audio"`     // Device settings.
	Player   PlayerConfig  `yaml:"player"`    // Playback settings.
	Sinks    SinksConfig   `yaml:"sinks"`     // Consumers of the encoded stream.
	Metrics  MetricsConfig `yaml:"metrics"`   // Prometheus endpoint.
}

// AudioConfig holds settings related to audio input/output.
type AudioConfig struct {
	InputDevice     int  `yaml:"input_device"`      // PortAudio device index for capture (-1 for default).
	OutputDevice    int  `yaml:"output_device"`     // PortAudio device index for playback (-1 for default).
	FramesPerBuffer int  `yaml:"frames_per_buffer"` // Host buffer size in frames (0 lets the host choose).
	LowLatency      bool `yaml:"low_latency"`       // Request low latency settings from PortAudio.
	OutputChannels  int  `yaml:"output_channels"`   // Playback channels; mono audio is duplicated across them.
}

// PlayerConfig holds playback settings.
type PlayerConfig struct {
	Enabled            bool   `yaml:"enabled"`              // Open a playback stream.
	Mode               string `yaml:"mode"`                 // "burst", "live" or "off".
	MaxBufferedSamples int    `yaml:"max_buffered_samples"` // Jitter buffer cap in samples (0 for unbounded).
}

// SinksConfig holds settings for the recorder's consumers.
type SinksConfig struct {
	QueueSize  int              `yaml:"queue_size"` // Depth of each asynchronous sink queue.
	Recording  string           `yaml:"recording"`  // WAV output path (empty disables recording).
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Relay      RelayConfig      `yaml:"relay"`
}

// TranscribeConfig holds speech recognition settings.
type TranscribeConfig struct {
	Model         string        `yaml:"model"`           // Whisper model path (empty disables transcription).
	Language      string        `yaml:"language"`        // Spoken language code.
	Threads       int           `yaml:"threads"`         // Recognition threads (0 lets the model decide).
	FlushEvery    int           `yaml:"flush_every"`     // Packets between interim results.
	IdleTimeout   time.Duration `yaml:"idle_timeout"`    // Flush when no packet arrives for this long.
	Window        string        `yaml:"window"`          // Window function for the speech detector.
	MinRMS        float64       `yaml:"min_rms"`         // Below this level a segment is silence.
	MinVoiceRatio float64       `yaml:"min_voice_ratio"` // Minimum share of power in the voice band.
}

// RelayConfig holds websocket relay settings.
type RelayConfig struct {
	Listen    string `yaml:"listen"`    // Address to serve bursts on (empty disables).
	Subscribe string `yaml:"subscribe"` // Websocket URL to play bursts from (empty disables).
}

// MetricsConfig holds the metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			OutputDevice:    DefaultDeviceID,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			OutputChannels:  DefaultOutputChannels,
		},
		Player: PlayerConfig{
			Enabled:            true,
			Mode:               DefaultMode,
			MaxBufferedSamples: DefaultMaxBufferedSamples,
		},
		Sinks: SinksConfig{
			QueueSize: DefaultQueueSize,
			Transcribe: TranscribeConfig{
				Language:      DefaultLanguage,
				FlushEvery:    DefaultFlushEvery,
				IdleTimeout:   DefaultIdleTimeout,
				Window:        DefaultWindow,
				MinRMS:        DefaultMinRMS,
				MinVoiceRatio: DefaultMinVoiceRatio,
			},
		},
		Metrics: MetricsConfig{
			Address: DefaultMetricsAddress,
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("ptt.yaml", "config.yaml"). If no file is found, it uses
// built-in defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range []string{"ptt.yaml", "config.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// PlaybackMode returns the effective mode, folding a disabled player into ModeOff.
func (c *Config) PlaybackMode() string {
	if !c.Player.Enabled {
		return ModeOff
	}
	return c.Player.Mode
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level %q unknown", c.LogLevel)
	}

	if c.Audio.InputDevice < MinDeviceID {
		return fmt.Errorf("audio.input_device %d out of range", c.Audio.InputDevice)
	}
	if c.Audio.OutputDevice < MinDeviceID {
		return fmt.Errorf("audio.output_device %d out of range", c.Audio.OutputDevice)
	}
	if c.Audio.FramesPerBuffer < 0 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer must be between 0 and %d", MaxBufferFrames)
	}
	if c.Audio.OutputChannels < 1 || c.Audio.OutputChannels > MaxChannels {
		return fmt.Errorf("audio.output_channels must be between 1 and %d", MaxChannels)
	}

	switch c.Player.Mode {
	case ModeBurst, ModeLive, ModeOff:
	default:
		return fmt.Errorf("player.mode %q: want %s, %s or %s", c.Player.Mode, ModeBurst, ModeLive, ModeOff)
	}
	if c.Player.MaxBufferedSamples < 0 {
		return errors.New("player.max_buffered_samples must not be negative")
	}

	if c.Sinks.QueueSize < 1 {
		return errors.New("sinks.queue_size must be positive")
	}
	t := c.Sinks.Transcribe
	if t.FlushEvery < 1 {
		return errors.New("sinks.transcribe.flush_every must be positive")
	}
	if t.IdleTimeout <= 0 {
		return errors.New("sinks.transcribe.idle_timeout must be positive")
	}
	if t.Threads < 0 {
		return errors.New("sinks.transcribe.threads must not be negative")
	}
	if _, err := analysis.ParseWindowFunc(t.Window); err != nil {
		return fmt.Errorf("sinks.transcribe.window: %w", err)
	}
	if t.MinVoiceRatio < 0 || t.MinVoiceRatio > 1 {
		return errors.New("sinks.transcribe.min_voice_ratio must be between 0 and 1")
	}

	if a := c.Sinks.Relay.Listen; a != "" {
		if _, _, err := net.SplitHostPort(a); err != nil {
			return fmt.Errorf("sinks.relay.listen %q: %w", a, err)
		}
	}
	if u := c.Sinks.Relay.Subscribe; u != "" {
		parsed, err := url.Parse(u)
		if err != nil {
			return fmt.Errorf("sinks.relay.subscribe: %w", err)
		}
		if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
			return fmt.Errorf("sinks.relay.subscribe %q: want a ws:// or wss:// URL", u)
		}
		if c.PlaybackMode() == ModeOff {
			return errors.New("sinks.relay.subscribe needs playback enabled")
		}
	}
	if c.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(c.Metrics.Address); err != nil {
			return fmt.Errorf("metrics.address %q: %w", c.Metrics.Address, err)
		}
	}
	return nil
}

// applyEnvOverrides replaces file values with ENV_* variables when set and
// parseable. Unparseable values are ignored.
func (cfg *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			log.Debugf("configuration: overriding debug from env: %v", bVal)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
	}

	// ENV_PLAYER_{...}

	// ENV_PLAYER_MODE
	if val, ok := os.LookupEnv("ENV_PLAYER_MODE"); ok {
		cfg.Player.Mode = val
		log.Debugf("configuration: overriding player.mode from env: %s", val)
	}

	// ENV_SINKS_{...}

	// ENV_SINKS_RECORDING
	if val, ok := os.LookupEnv("ENV_SINKS_RECORDING"); ok {
		cfg.Sinks.Recording = val
	}
	// ENV_SINKS_TRANSCRIBE_MODEL
	if val, ok := os.LookupEnv("ENV_SINKS_TRANSCRIBE_MODEL"); ok {
		cfg.Sinks.Transcribe.Model = val
	}
	// ENV_SINKS_RELAY_LISTEN
	if val, ok := os.LookupEnv("ENV_SINKS_RELAY_LISTEN"); ok {
		cfg.Sinks.Relay.Listen = val
	}
	// ENV_SINKS_RELAY_SUBSCRIBE
	if val, ok := os.LookupEnv("ENV_SINKS_RELAY_SUBSCRIBE"); ok {
		cfg.Sinks.Relay.Subscribe = val
	}

	// ENV_METRICS_{...}

	// ENV_METRICS_ENABLED
	if val, ok := os.LookupEnv("ENV_METRICS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = bVal
		}
	}
	// ENV_METRICS_ADDRESS
	if val, ok := os.LookupEnv("ENV_METRICS_ADDRESS"); ok {
		cfg.Metrics.Address = val
	}
}
