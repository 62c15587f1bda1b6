// SPDX-License-Identifier: MIT
package audio

// Stream is a running hardware stream. Closing it stops further callback
// invocations.
type Stream interface {
	Start() error
	Close() error
}

// Backend opens the capture and playback streams. The capture callback
// receives mono float32 chunks of device-chosen length; the playback callback
// must fill an interleaved buffer of device-chosen length.
type Backend interface {
	OpenInput(process func(in []float32)) (Stream, error)
	OpenOutput(channels int, fill func(out []float32)) (Stream, error)
}
