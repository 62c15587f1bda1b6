// SPDX-License-Identifier: MIT
/*
Package audio implements the real-time push-to-talk voice pipeline:
- Exact 20ms frame assembly from device chunks
- Opus encode/decode at a fixed 48kHz mono operating point
- Gate/burst state machine running inside the capture callback
- Jitter-smoothed playback running inside the playback callback

Thread Safety:
- The gate is the only cross-thread state and uses an atomic
- Recorder and Player state is owned by their callbacks
- Buffers are pre-allocated and reused in the hot path
*/
package audio

import (
	"runtime"
	"time"

	"github.com/gordonklaus/portaudio"
)

// PortAudioConfig selects devices and latency for the PortAudio backend.
type PortAudioConfig struct {
	InputDevice     int  // -1 for the system default
	OutputDevice    int  // -1 for the system default
	FramesPerBuffer int  // 0 lets the host choose
	LowLatency      bool // use the device's low latency defaults
}

// PortAudioBackend opens streams through PortAudio. Initialize must have
// been called.
type PortAudioBackend struct {
	cfg PortAudioConfig
}

// NewPortAudioBackend returns a backend for cfg.
func NewPortAudioBackend(cfg PortAudioConfig) *PortAudioBackend {
	return &PortAudioBackend{cfg: cfg}
}

func (b *PortAudioBackend) latency(d *portaudio.DeviceInfo, input bool) time.Duration {
	switch {
	case input && b.cfg.LowLatency:
		return d.DefaultLowInputLatency
	case input:
		return d.DefaultHighInputLatency
	case b.cfg.LowLatency:
		return d.DefaultLowOutputLatency
	default:
		return d.DefaultHighOutputLatency
	}
}

// OpenInput opens a mono 48kHz capture stream delivering chunks to process.
func (b *PortAudioBackend) OpenInput(process func(in []float32)) (Stream, error) {
	dev, err := InputDevice(b.cfg.InputDevice)
	if err != nil {
		return nil, &DeviceError{Op: "select input", Err: err}
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: CaptureChannels,
			Latency:  b.latency(dev, true),
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: b.cfg.FramesPerBuffer,
		SampleRate:      SampleRate,
	}

	// The callback runs on a PortAudio thread; keep it pinned while inside.
	stream, err := portaudio.OpenStream(params, func(in []float32) {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		process(in)
	})
	if err != nil {
		return nil, &DeviceError{Op: "open input " + dev.Name, Err: err}
	}
	return &paStream{stream: stream, name: dev.Name}, nil
}

// OpenOutput opens a 48kHz playback stream with the given channel count.
func (b *PortAudioBackend) OpenOutput(channels int, fill func(out []float32)) (Stream, error) {
	dev, err := OutputDevice(b.cfg.OutputDevice)
	if err != nil {
		return nil, &DeviceError{Op: "select output", Err: err}
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 0, // No input device
			Device:   nil,
		},
		Output: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: channels,
			Latency:  b.latency(dev, false),
		},
		FramesPerBuffer: b.cfg.FramesPerBuffer,
		SampleRate:      SampleRate,
	}

	stream, err := portaudio.OpenStream(params, func(out []float32) {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		fill(out)
	})
	if err != nil {
		return nil, &DeviceError{Op: "open output " + dev.Name, Err: err}
	}
	return &paStream{stream: stream, name: dev.Name}, nil
}

// paStream adapts *portaudio.Stream to Stream.
type paStream struct {
	stream *portaudio.Stream
	name   string
}

func (s *paStream) Start() error {
	if err := s.stream.Start(); err != nil {
		return &DeviceError{Op: "start " + s.name, Err: err}
	}
	return nil
}

func (s *paStream) Close() error {
	if s.stream == nil {
		return nil
	}
	if err := s.stream.Stop(); err != nil {
		return err
	}
	if err := s.stream.Close(); err != nil {
		return err
	}
	s.stream = nil
	return nil
}

var _ Backend = (*PortAudioBackend)(nil)
