// SPDX-License-Identifier: MIT
package sink

import (
	"go.opentelemetry.io/otel/metric"

	"ptt/internal/audio"
	"ptt/internal/metrics"
)

// LiveSink forwards every packet to a bounded channel as it is produced.
// When the consumer falls behind the newest packet is dropped.
type LiveSink struct {
	audio.NopSink

	out   chan<- audio.Packet
	drops metric.Int64Counter
	attrs []metric.AddOption
}

// NewLiveSink returns a sink feeding out. The channel's capacity is the
// queue bound.
func NewLiveSink(out chan<- audio.Packet, opts ...Option) *LiveSink {
	o := newOptions("live", opts)
	return &LiveSink{
		out:   out,
		drops: o.met.SinkDrops,
		attrs: metrics.Sink("live"),
	}
}

func (s *LiveSink) Name() string { return "live" }

func (s *LiveSink) OnPacket(p audio.Packet) {
	select {
	case s.out <- p:
	default:
		metrics.Inc(s.drops, s.attrs...)
	}
}
