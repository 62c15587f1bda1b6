// SPDX-License-Identifier: MIT

// Package cmd implements the ptt command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ptt/internal/audio"
	"ptt/internal/config"
	"ptt/internal/tui"
	"ptt/pkg/build"
)

// flags are the command line overrides for the loaded configuration.
type flags struct {
	configPath      string
	device          int
	outputDevice    int
	mode            string
	record          string
	transcribeModel string
	relayListen     string
	subscribe       string
	metricsAddress  string
	logFile         string
	verbose         bool
}

func (f *flags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "",
		"Path to a YAML configuration file (default ptt.yaml or config.yaml if present)")
	fs.IntVarP(&f.device, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use the 'devices' command to see available devices.")
	fs.IntVarP(&f.outputDevice, "output-device", "D", config.DefaultDeviceID,
		"Output device ID")
	fs.StringVarP(&f.mode, "mode", "m", config.DefaultMode,
		"Playback mode: burst (after release), live (while talking) or off")
	fs.StringVarP(&f.record, "record", "r", "",
		"Record every burst to this WAV file")
	fs.StringVar(&f.transcribeModel, "transcribe-model", "",
		"Whisper model file; enables live transcription")
	fs.StringVar(&f.relayListen, "relay-listen", "",
		"Serve finished bursts to websocket clients on this address (host:port)")
	fs.StringVar(&f.subscribe, "subscribe", "",
		"Play bursts from a relay at this websocket URL instead of your own voice")
	fs.StringVar(&f.metricsAddress, "metrics", "",
		"Serve Prometheus metrics on this address (host:port)")
	fs.StringVar(&f.logFile, "log-file", "ptt.log",
		"Log destination while the terminal UI is running")
	fs.BoolVarP(&f.verbose, "verbose", "v", false,
		"Show verbose output")
}

// apply loads the configuration file and overlays the flags the user set.
func (f *flags) apply(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	if fs.Changed("device") {
		cfg.Audio.InputDevice = f.device
	}
	if fs.Changed("output-device") {
		cfg.Audio.OutputDevice = f.outputDevice
	}
	if fs.Changed("mode") {
		cfg.Player.Enabled = f.mode != config.ModeOff
		cfg.Player.Mode = f.mode
	}
	if fs.Changed("record") {
		cfg.Sinks.Recording = f.record
	}
	if fs.Changed("transcribe-model") {
		cfg.Sinks.Transcribe.Model = f.transcribeModel
	}
	if fs.Changed("relay-listen") {
		cfg.Sinks.Relay.Listen = f.relayListen
	}
	if fs.Changed("subscribe") {
		cfg.Sinks.Relay.Subscribe = f.subscribe
	}
	if fs.Changed("metrics") {
		cfg.Metrics.Enabled = f.metricsAddress != ""
		cfg.Metrics.Address = f.metricsAddress
	}
	if f.verbose {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// NewRootCommand builds the ptt command tree.
func NewRootCommand() *cobra.Command {
	buildInfo := build.Get()
	var opts flags

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.apply(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts.logFile)
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	opts.register(rootCmd.Flags())
	rootCmd.AddCommand(newDevicesCommand(os.Stdout))
	return rootCmd
}

func newDevicesCommand(out io.Writer) *cobra.Command {
	var plain bool

	devicesCmd := &cobra.Command{
		Use:     "devices",
		Aliases: []string{"list"},
		Short:   "List available audio devices",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()

			if plain || !isTerminal(out) {
				return audio.ListDevices(out)
			}

			sel, ok, err := tui.RunDevicePicker(audio.HostDevices)
			if err != nil || !ok {
				return err
			}
			fmt.Fprintf(out, "%s %s\n", buildName(), sel.Flags())
			return nil
		},
	}
	devicesCmd.Flags().BoolVar(&plain, "plain", false, "Print the list instead of opening the picker")
	return devicesCmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func buildName() string {
	return build.Get().Name
}

// Execute runs the command line with args until ctx is cancelled or the
// user quits.
func Execute(ctx context.Context, args []string) error {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
