// SPDX-License-Identifier: MIT

// Package transport delivers serialised pipeline output to the outside
// world. Implementations must be safe for concurrent use and must not block
// the caller for long: Send runs on a sink worker, never on an audio callback.
package transport

// Transport defines a generic interface for sending data or events.
type Transport interface {
	Send(data any) error
	Close() error
}

// Summarizer is implemented by payloads that can describe themselves in one
// log line.
type Summarizer interface {
	Summary() string
}
