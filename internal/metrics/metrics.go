// SPDX-License-Identifier: MIT
//
// Package metrics holds the OpenTelemetry instruments of the voice pipeline.
//
// Instruments are recorded from inside the audio callbacks, so callers
// precompute their attribute options with Attrs once and pass the returned
// slice on every Add; recording then does not allocate.
package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "ptt"

// Metrics groups every pipeline instrument. The OTel types synchronise
// internally and are safe for concurrent use.
type Metrics struct {
	// PacketsEncoded counts frames encoded by the recorder.
	PacketsEncoded metric.Int64Counter

	// BurstsDelivered counts non-empty bursts handed to the sinks.
	BurstsDelivered metric.Int64Counter

	// SamplesDiscarded counts partial-frame samples dropped on gate release.
	SamplesDiscarded metric.Int64Counter

	// SinkDrops counts items dropped by a saturated sink queue. Use with
	// attribute.String("sink", ...).
	SinkDrops metric.Int64Counter

	// SinkPanics counts failures recovered by the fanout. Use with
	// attribute.String("sink", ...).
	SinkPanics metric.Int64Counter

	// DecodeErrors counts skipped packets. Use with
	// attribute.String("component", ...).
	DecodeErrors metric.Int64Counter

	// SilenceSamples counts samples the player filled with silence.
	SilenceSamples metric.Int64Counter

	// Transcripts counts recognition results. Use with
	// attribute.Bool("final", ...).
	Transcripts metric.Int64Counter
}

// New creates the instruments from mp.
func New(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.PacketsEncoded, err = m.Int64Counter("ptt.recorder.packets",
		metric.WithDescription("Frames encoded while the gate was pressed."),
	); err != nil {
		return nil, err
	}
	if met.BurstsDelivered, err = m.Int64Counter("ptt.recorder.bursts",
		metric.WithDescription("Non-empty bursts delivered on gate release."),
	); err != nil {
		return nil, err
	}
	if met.SamplesDiscarded, err = m.Int64Counter("ptt.recorder.discarded_samples",
		metric.WithDescription("Partial-frame samples dropped on gate release."),
		metric.WithUnit("{sample}"),
	); err != nil {
		return nil, err
	}
	if met.SinkDrops, err = m.Int64Counter("ptt.sink.drops",
		metric.WithDescription("Items dropped because a sink queue was full."),
	); err != nil {
		return nil, err
	}
	if met.SinkPanics, err = m.Int64Counter("ptt.sink.panics",
		metric.WithDescription("Sink failures contained by the fanout."),
	); err != nil {
		return nil, err
	}
	if met.DecodeErrors, err = m.Int64Counter("ptt.decode.errors",
		metric.WithDescription("Packets skipped because they failed to decode."),
	); err != nil {
		return nil, err
	}
	if met.SilenceSamples, err = m.Int64Counter("ptt.player.silence_samples",
		metric.WithDescription("Output samples filled with silence on underrun."),
		metric.WithUnit("{sample}"),
	); err != nil {
		return nil, err
	}
	if met.Transcripts, err = m.Int64Counter("ptt.transcripts",
		metric.WithDescription("Recognition results emitted."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the package-level Metrics bound to the global provider.
// Instruments created before Init delegate to the provider Init installs.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = New(otel.GetMeterProvider())
		if err != nil {
			panic("metrics: failed to create default instruments: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attrs precomputes the option slice for a fixed attribute set.
func Attrs(kv ...attribute.KeyValue) []metric.AddOption {
	return []metric.AddOption{metric.WithAttributeSet(attribute.NewSet(kv...))}
}

// Sink returns the precomputed options for a named sink.
func Sink(name string) []metric.AddOption {
	return Attrs(attribute.String("sink", name))
}

// Component returns the precomputed options for a named component.
func Component(name string) []metric.AddOption {
	return Attrs(attribute.String("component", name))
}

// bg is reused for every hot-path Add.
var bg = context.Background()

// Inc adds one to c.
func Inc(c metric.Int64Counter, opts ...metric.AddOption) {
	c.Add(bg, 1, opts...)
}

// Add adds n to c.
func Add(c metric.Int64Counter, n int64, opts ...metric.AddOption) {
	c.Add(bg, n, opts...)
}
