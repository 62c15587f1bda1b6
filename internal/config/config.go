// SPDX-License-Identifier: MIT
package config

import "time"

// Playback modes.
const (
	ModeBurst = "burst" // play each completed burst after release
	ModeLive  = "live"  // play packets as they are encoded
	ModeOff   = "off"   // no playback stream
)

// Defaults for a configuration with no file and no overrides.
const (
	DefaultLogLevel           = "info"
	DefaultDeviceID           = -1 // system default device
	DefaultFramesPerBuffer    = 0  // let the host choose
	DefaultLowLatency         = true
	DefaultOutputChannels     = 2
	DefaultMode               = ModeBurst
	DefaultMaxBufferedSamples = 480000 // 10s at 48kHz
	DefaultQueueSize          = 512
	DefaultLanguage           = "en"
	DefaultFlushEvery         = 25
	DefaultIdleTimeout        = 5 * time.Second
	DefaultWindow             = "Hann"
	DefaultMinRMS             = 0.01
	DefaultMinVoiceRatio      = 0.5
	DefaultMetricsAddress     = "127.0.0.1:9464"

	// Hardware limits
	MinDeviceID     = -1
	MaxBufferFrames = 8192
	MaxChannels     = 8
)
