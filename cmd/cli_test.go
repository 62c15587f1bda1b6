// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"ptt/internal/config"
)

func parseFlags(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	var f flags
	fs := pflag.NewFlagSet("ptt", pflag.ContinueOnError)
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return f.apply(fs)
}

func TestFlagsKeepConfigWhenUnset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ptt.yaml")
	content := "audio:\n  input_device: 4\nplayer:\n  mode: live\nsinks:\n  recording: from-file.wav\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := parseFlags(t, "--config", path)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Audio.InputDevice != 4 || cfg.Player.Mode != config.ModeLive || cfg.Sinks.Recording != "from-file.wav" {
		t.Errorf("file values overridden by flag defaults: %+v", cfg)
	}

	cfg, err = parseFlags(t, "--config", path, "-d", "2", "--record", "flag.wav")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Audio.InputDevice != 2 || cfg.Sinks.Recording != "flag.wav" {
		t.Errorf("flags not applied: audio=%+v recording=%q", cfg.Audio, cfg.Sinks.Recording)
	}
}

func TestFlagsOverlay(t *testing.T) {
	tests := []struct {
		desc  string
		args  []string
		check func(*config.Config) bool
	}{
		{"Mode off disables player", []string{"--mode", "off"}, func(c *config.Config) bool {
			return c.PlaybackMode() == config.ModeOff
		}},
		{"Live mode", []string{"-m", "live"}, func(c *config.Config) bool {
			return c.PlaybackMode() == config.ModeLive
		}},
		{"Output device", []string{"-D", "7"}, func(c *config.Config) bool {
			return c.Audio.OutputDevice == 7
		}},
		{"Transcription", []string{"--transcribe-model", "model.bin"}, func(c *config.Config) bool {
			return c.Sinks.Transcribe.Model == "model.bin"
		}},
		{"Relay", []string{"--relay-listen", ":8080", "--subscribe", "ws://peer:8080/ws"}, func(c *config.Config) bool {
			return c.Sinks.Relay.Listen == ":8080" && c.Sinks.Relay.Subscribe == "ws://peer:8080/ws"
		}},
		{"Metrics", []string{"--metrics", "127.0.0.1:9100"}, func(c *config.Config) bool {
			return c.Metrics.Enabled && c.Metrics.Address == "127.0.0.1:9100"
		}},
		{"Verbose", []string{"-v"}, func(c *config.Config) bool { return c.Debug }},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			cfg, err := parseFlags(t, tt.args...)
			if err != nil {
				t.Fatalf("apply(%v): %v", tt.args, err)
			}
			if !tt.check(cfg) {
				t.Errorf("apply(%v) = %+v", tt.args, cfg)
			}
		})
	}
}

func TestFlagsValidated(t *testing.T) {
	tests := []struct {
		args    []string
		wantErr string
	}{
		{[]string{"--mode", "echo"}, "player.mode"},
		{[]string{"--device", "-5"}, "audio.input_device"},
		{[]string{"--subscribe", "ws://peer/ws", "--mode", "off"}, "needs playback"},
		{[]string{"--relay-listen", "nope"}, "sinks.relay.listen"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, err := parseFlags(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("apply(%v) = %v, want error containing %q", tt.args, err, tt.wantErr)
			}
		})
	}
}

func TestExecuteRejectsInvalidFlags(t *testing.T) {
	err := Execute(context.Background(), []string{"--mode", "echo"})
	if err == nil || !strings.Contains(err.Error(), "player.mode") {
		t.Errorf("Execute() = %v, want player.mode error", err)
	}

	if err := Execute(context.Background(), []string{"unexpected"}); err == nil {
		t.Error("Execute() accepted a positional argument")
	}
}

func TestRootCommandHasDevices(t *testing.T) {
	root := NewRootCommand()
	for _, name := range []string{"devices", "list"} {
		c, _, err := root.Find([]string{name})
		if err != nil || c.Name() != "devices" {
			t.Errorf("Find(%q) = %v, %v", name, c, err)
		}
	}
}
