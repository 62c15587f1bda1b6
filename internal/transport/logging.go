// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"

	"go.uber.org/zap"

	"ptt/internal/log"
)

// LoggingTransport implements the Transport interface by logging a summary
// of each payload. It is the relay fallback when no listener is configured.
type LoggingTransport struct {
	log *zap.Logger
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	l := log.Named("transport.log")
	l.Info("using logging transport")
	return &LoggingTransport{log: l}
}

// Send logs the received data.
func (lt *LoggingTransport) Send(data any) error {
	summary := fmt.Sprintf("%T", data)
	if s, ok := data.(Summarizer); ok {
		summary = s.Summary()
	}
	lt.log.Info("send", zap.String("payload", summary))
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	lt.log.Debug("close")
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
