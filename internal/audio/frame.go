// SPDX-License-Identifier: MIT
package audio

import "time"

// Fixed codec operating point. Capture, codec, playback and the WAV container
// all run at SampleRate; a Frame is one 20ms codec time unit.
const (
	SampleRate      = 48000
	FrameDuration   = 20 * time.Millisecond
	FrameSize       = SampleRate / 1000 * 20 // 960 samples
	MaxPacketBytes  = 400
	CaptureChannels = 1
)

// maxSample is the int16 full-scale value used for float <-> PCM conversion.
const maxSample = 32767

// Frame is exactly FrameSize mono 16-bit samples.
type Frame []int16

// Packet is one encoded Frame. Packets are shared by reference between every
// sink they are delivered to and must never be modified after Encode returns.
type Packet []byte

// FloatToPCM converts a float sample in [-1, 1] to int16 by scaling and
// truncating. Out-of-range input clamps to +-32767, NaN maps to 0.
func FloatToPCM(s float32) int16 {
	v := s * maxSample
	switch {
	case v != v:
		return 0
	case v >= maxSample:
		return maxSample
	case v <= -maxSample:
		return -maxSample
	}
	return int16(v)
}

// PCMToFloat converts an int16 sample back to [-1, 1].
func PCMToFloat(s int16) float32 {
	return float32(s) / maxSample
}
