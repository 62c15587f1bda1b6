// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"ptt/cmd"
	"ptt/internal/log"
	"ptt/pkg/build"
)

// main is the entry point for the push-to-talk application.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and load configuration
//   - Initialize PortAudio and open the capture/playback streams
//
// 2. Concurrent Phase (Hot Path):
//   - Capture callback assembles, encodes and fans out frames
//   - Playback callback decodes and renders queued packets
//   - UI, metrics server and relay subscriber run alongside
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals or UI exit
//   - Stop the streams, then flush and close the sinks
func main() {
	// Resolve version, commit hash and build time from ldflags or the
	// module stamps the toolchain embeds.
	if err := build.Initialize(); errors.Is(err, build.ErrNoBuildInfo) {
		log.Debugf("build info: %v", err)
	} else if err != nil {
		log.Warnf("build info: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		stop()
		log.Fatal(err)
	}
}
