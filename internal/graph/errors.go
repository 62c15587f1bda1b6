// SPDX-License-Identifier: MIT
package graph

import "errors"

var (
	// ErrNoGate is reported by Run when Record was never called.
	ErrNoGate = errors.New("no gate configured")

	// ErrNoSink is reported by Run when nothing consumes the recorder output.
	ErrNoSink = errors.New("no sink configured")
)

// ConfigurationError is returned by Run for an incomplete graph.
type ConfigurationError struct {
	Reason error
}

func (e *ConfigurationError) Error() string {
	return "graph configuration: " + e.Reason.Error()
}

func (e *ConfigurationError) Unwrap() error { return e.Reason }
