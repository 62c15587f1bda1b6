// SPDX-License-Identifier: MIT

// Package sink provides the consumers of recorder output: the fanout that
// delivers to several sinks at once, and the live, batched, WAV, recognition,
// relay and counting sinks.
//
// Every sink's accept path runs on the capture callback. It never blocks: work
// that may block is handed to a bounded queue and performed by a worker
// goroutine, and a full queue drops the newest item.
package sink

import (
	"go.uber.org/zap"

	"ptt/internal/audio"
	"ptt/internal/log"
	"ptt/internal/metrics"
)

// DefaultQueueSize is the depth of every bounded sink queue.
const DefaultQueueSize = 512

type options struct {
	queueSize int
	met       *metrics.Metrics
	logger    *zap.Logger
	decoder   audio.PacketDecoder
}

// Option configures a sink.
type Option func(*options)

// WithQueueSize sets the bounded queue depth. Non-positive values keep the
// default.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithMetrics sets the instruments drops and failures are counted on.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.met = m }
}

// WithLogger sets the logger used by worker goroutines.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDecoder replaces the Opus decoder of decoding sinks.
func WithDecoder(d audio.PacketDecoder) Option {
	return func(o *options) { o.decoder = d }
}

func newOptions(name string, opts []Option) options {
	o := options{queueSize: DefaultQueueSize}
	for _, fn := range opts {
		fn(&o)
	}
	if o.met == nil {
		o.met = metrics.Default()
	}
	if o.logger == nil {
		o.logger = log.Named(name)
	}
	return o
}

// decoderOrNew returns the configured decoder or a fresh Opus decoder.
func (o *options) decoderOrNew() (audio.PacketDecoder, error) {
	if o.decoder != nil {
		return o.decoder, nil
	}
	return audio.NewDecoder()
}
