// SPDX-License-Identifier: MIT
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Init installs an sdk MeterProvider backed by the Prometheus exporter as
// the global provider and returns the /metrics handler together with a
// shutdown function to defer from main.
func Init() (http.Handler, func(context.Context) error, error) {
	exp, err := promexporter.New()
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))
	otel.SetMeterProvider(mp)

	return promhttp.Handler(), mp.Shutdown, nil
}
