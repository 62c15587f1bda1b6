// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
)

// ErrChannelSaturated is reported (never returned to the producer) when a
// sink's bounded queue is full and the newest item was dropped.
var ErrChannelSaturated = errors.New("audio: channel saturated")

// DeviceError reports a failure to open, configure or start an audio device.
// It is fatal at startup; the pipeline does not start.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device: %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// EncodeError signals a fixed-size frame invariant violation or a codec
// misconfiguration. It must not occur in correct operation and is never
// retried.
type EncodeError struct {
	Samples int
	Err     error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("opus encode (%d samples): %v", e.Samples, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError is returned for a malformed or undecodable packet. Callers skip
// the packet and continue; the decoder remains usable.
type DecodeError struct {
	Size int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("opus decode (%d bytes): %v", e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
