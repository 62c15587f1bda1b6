// SPDX-License-Identifier: MIT

// Package metricstest provides an in-memory metrics reader for tests.
package metricstest

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"ptt/internal/metrics"
)

// Reader collects the instruments of one Metrics on demand.
type Reader struct {
	t      testing.TB
	reader *sdkmetric.ManualReader
}

// New returns Metrics backed by a private provider and a Reader over it.
func New(t testing.TB) (*metrics.Metrics, *Reader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	met, err := metrics.New(mp)
	if err != nil {
		t.Fatalf("metrics.New: %v", err)
	}
	return met, &Reader{t: t, reader: reader}
}

// Sum returns the total of the named counter across all attribute sets.
func (r *Reader) Sum(name string) int64 {
	r.t.Helper()
	var rm metricdata.ResourceMetrics
	if err := r.reader.Collect(context.Background(), &rm); err != nil {
		r.t.Fatalf("collect metrics: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}
