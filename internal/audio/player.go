// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"

	"ptt/internal/metrics"
)

// Player decodes packets pulled from a Source into a JitterBuffer and renders
// them into the device's interleaved output buffer. Decode runs inside the
// playback callback, which avoids a second synchronisation point at the cost
// of codec work on the real-time thread.
type Player struct {
	src      Source
	dec      PacketDecoder
	jitter   *JitterBuffer
	channels int
	mono     []float32

	buffered atomic.Int64 // jitter length after the last Fill, for other goroutines

	met         *metrics.Metrics
	decodeAttrs []metric.AddOption
	maxSamples  int
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithDecoder replaces the Opus decoder.
func WithDecoder(dec PacketDecoder) PlayerOption {
	return func(p *Player) { p.dec = dec }
}

// WithMaxBufferedSamples bounds the jitter buffer; 0 leaves it unbounded.
func WithMaxBufferedSamples(n int) PlayerOption {
	return func(p *Player) { p.maxSamples = n }
}

// WithPlayerMetrics sets the instruments the player reports to.
func WithPlayerMetrics(m *metrics.Metrics) PlayerOption {
	return func(p *Player) { p.met = m }
}

// NewPlayer returns a player rendering src to an output with the given
// channel count.
func NewPlayer(src Source, channels int, opts ...PlayerOption) (*Player, error) {
	if src == nil {
		return nil, errors.New("player: source is nil")
	}
	if channels < 1 {
		return nil, fmt.Errorf("player: invalid channel count %d", channels)
	}

	p := &Player{
		src:      src,
		channels: channels,
		mono:     make([]float32, FrameSize),
	}
	for _, o := range opts {
		o(p)
	}
	if p.met == nil {
		p.met = metrics.Default()
	}
	if p.dec == nil {
		dec, err := NewDecoder()
		if err != nil {
			return nil, err
		}
		p.dec = dec
	}
	p.jitter = NewJitterBuffer(p.maxSamples)
	p.decodeAttrs = metrics.Component("player")
	return p, nil
}

// Channels returns the output channel count.
func (p *Player) Channels() int { return p.channels }

// Buffered returns the number of decoded mono samples that were waiting for
// output after the last Fill. It may be called from any goroutine.
func (p *Player) Buffered() int { return int(p.buffered.Load()) }

// Fill writes exactly len(out) interleaved samples. It decodes queued packets
// until enough audio is buffered or the source is empty, then duplicates each
// mono sample across all channels. Missing audio is rendered as silence.
func (p *Player) Fill(out []float32) {
	frames := len(out) / p.channels

	for p.jitter.Len() < frames {
		pkt, ok := p.src.TryRecv()
		if !ok {
			break
		}
		pcm, err := p.dec.Decode(pkt)
		if err != nil {
			metrics.Inc(p.met.DecodeErrors, p.decodeAttrs...)
			continue
		}
		p.jitter.PushPCM(pcm)
	}

	if cap(p.mono) < frames {
		p.mono = make([]float32, frames)
	}
	mono := p.mono[:frames]
	if n := p.jitter.Drain(mono); n < frames {
		metrics.Add(p.met.SilenceSamples, int64(frames-n))
	}
	p.buffered.Store(int64(p.jitter.Len()))

	i := 0
	for _, s := range mono {
		for c := 0; c < p.channels; c++ {
			out[i] = s
			i++
		}
	}
	clear(out[i:])
}
