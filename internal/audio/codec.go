// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"

	"layeh.com/gopus"
)

var (
	errFrameSize   = errors.New("frame is not FrameSize samples")
	errEmptyPacket = errors.New("empty packet")
)

// FrameEncoder is the capture-side half of the codec.
type FrameEncoder interface {
	Encode(frame Frame) (Packet, error)
}

// PacketDecoder is the playback-side half of the codec.
type PacketDecoder interface {
	Decode(packet Packet) ([]int16, error)
}

// Encoder compresses 48kHz mono frames with Opus in VoIP mode. It carries
// codec state between frames and is owned by a single goroutine.
type Encoder struct {
	enc *gopus.Encoder
}

// NewEncoder creates an Opus encoder at the fixed operating point.
func NewEncoder() (*Encoder, error) {
	enc, err := gopus.NewEncoder(SampleRate, CaptureChannels, gopus.Voip)
	if err != nil {
		return nil, fmt.Errorf("create opus encoder: %w", err)
	}
	return &Encoder{enc: enc}, nil
}

// Encode compresses one full frame. Anything other than FrameSize samples is
// rejected with an EncodeError.
func (e *Encoder) Encode(frame Frame) (Packet, error) {
	if len(frame) != FrameSize {
		return nil, &EncodeError{Samples: len(frame), Err: errFrameSize}
	}
	data, err := e.enc.Encode(frame, FrameSize, MaxPacketBytes)
	if err != nil {
		return nil, &EncodeError{Samples: len(frame), Err: err}
	}
	return Packet(data), nil
}

// Decoder expands Opus packets back to 48kHz mono PCM.
type Decoder struct {
	dec *gopus.Decoder
}

// NewDecoder creates an Opus decoder at the fixed operating point.
func NewDecoder() (*Decoder, error) {
	dec, err := gopus.NewDecoder(SampleRate, CaptureChannels)
	if err != nil {
		return nil, fmt.Errorf("create opus decoder: %w", err)
	}
	return &Decoder{dec: dec}, nil
}

// Decode returns at most FrameSize samples. A malformed packet yields a
// DecodeError and leaves the decoder usable for the next packet.
func (d *Decoder) Decode(packet Packet) ([]int16, error) {
	if len(packet) == 0 {
		return nil, &DecodeError{Size: 0, Err: errEmptyPacket}
	}
	pcm, err := d.dec.Decode(packet, FrameSize, false)
	if err != nil {
		return nil, &DecodeError{Size: len(packet), Err: err}
	}
	return pcm, nil
}

var (
	_ FrameEncoder  = (*Encoder)(nil)
	_ PacketDecoder = (*Decoder)(nil)
)
