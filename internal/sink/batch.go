// SPDX-License-Identifier: MIT
package sink

import (
	"sync"

	"go.opentelemetry.io/otel/metric"

	"ptt/internal/audio"
	"ptt/internal/metrics"
)

// BatchSink holds packets back while the gate is pressed and releases the
// whole burst, in order, once it closes. Consumers hear a message only
// after the speaker lets go.
type BatchSink struct {
	mu      sync.Mutex // guards the slice header swap only
	pending []audio.Packet
	spare   []audio.Packet

	out   chan<- audio.Packet
	drops metric.Int64Counter
	attrs []metric.AddOption
}

// NewBatchSink returns a sink releasing bursts to out.
func NewBatchSink(out chan<- audio.Packet, opts ...Option) *BatchSink {
	o := newOptions("batch", opts)
	return &BatchSink{
		out:   out,
		drops: o.met.SinkDrops,
		attrs: metrics.Sink("batch"),
	}
}

func (s *BatchSink) Name() string { return "batch" }

// Pending returns the number of packets held for the open burst.
func (s *BatchSink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *BatchSink) OnPacket(p audio.Packet) {
	s.mu.Lock()
	s.pending = append(s.pending, p)
	s.mu.Unlock()
}

// OnBurst releases the held packets. The burst itself is not inspected: the
// held packets are exactly the ones OnPacket saw since the last release.
func (s *BatchSink) OnBurst(audio.Burst) {
	s.mu.Lock()
	local := s.pending
	s.pending = s.spare[:0]
	s.mu.Unlock()

	for i, p := range local {
		select {
		case s.out <- p:
		default:
			metrics.Inc(s.drops, s.attrs...)
		}
		local[i] = nil
	}
	s.spare = local[:0]
}
