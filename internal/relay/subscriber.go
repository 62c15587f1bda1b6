// SPDX-License-Identifier: MIT
package relay

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"ptt/internal/audio"
	"ptt/internal/log"
	"ptt/internal/metrics"
)

// DefaultRetryDelay is the pause between reconnection attempts.
const DefaultRetryDelay = 2 * time.Second

// Wire size bounds: a packet is at most audio.MaxPacketBytes, base64 grows it
// by 4/3 and JSON adds quotes and a comma. The envelope covers id and
// started_at.
const (
	maxEncodedPacket = (audio.MaxPacketBytes*4+2)/3 + 3
	envelopeBytes    = 256
)

// readLimit bounds one payload to what fits the packet queue.
func readLimit(queueSize int) int64 {
	return int64(max(queueSize, 1))*maxEncodedPacket + envelopeBytes
}

// Subscriber connects to a relay WebSocket endpoint and feeds the packets of
// every received payload, in order, into a bounded channel. Packets that do
// not fit are dropped; the player will underrun at worst.
type Subscriber struct {
	url       string
	dialer    *websocket.Dialer
	out       chan audio.Packet
	retry     time.Duration
	readLimit int64

	log      *zap.Logger
	met      *metrics.Metrics
	dropOpts []metric.AddOption
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

// WithRetryDelay sets the pause between reconnection attempts. Zero
// disables reconnection: Run returns after the first disconnect.
func WithRetryDelay(d time.Duration) SubscriberOption {
	return func(s *Subscriber) { s.retry = d }
}

// WithSubscriberMetrics sets the instruments drops are counted on.
func WithSubscriberMetrics(m *metrics.Metrics) SubscriberOption {
	return func(s *Subscriber) { s.met = m }
}

// NewSubscriber returns a subscriber for url (ws:// or wss://) buffering up to
// queueSize packets.
func NewSubscriber(url string, queueSize int, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		url:       url,
		dialer:    websocket.DefaultDialer,
		out:       make(chan audio.Packet, max(queueSize, 1)),
		retry:     DefaultRetryDelay,
		readLimit: readLimit(queueSize),
		log:       log.Named("relay").With(zap.String("url", url)),
		dropOpts:  metrics.Sink("relay.subscriber"),
	}
	for _, o := range opts {
		o(s)
	}
	if s.met == nil {
		s.met = metrics.Default()
	}
	return s
}

// Source returns the packet source to hand to a Player.
func (s *Subscriber) Source() audio.Source {
	return audio.ChanSource(s.out)
}

// Run receives payloads until ctx is done, reconnecting after failures.
// It returns nil when ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		err := s.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if s.retry <= 0 {
			return err
		}
		s.log.Warn("disconnected; retrying", zap.Error(err), zap.Duration("delay", s.retry))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.retry):
		}
	}
}

func (s *Subscriber) session(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	conn.SetReadLimit(s.readLimit)
	s.log.Info("subscribed")

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var p Payload
		if err := conn.ReadJSON(&p); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return nil
			}
			return err
		}
		s.deliver(p)
	}
}

func (s *Subscriber) deliver(p Payload) {
	b, err := p.Burst()
	if err != nil {
		s.log.Warn("bad payload", zap.Error(err))
		return
	}
	s.log.Debug("payload", zap.String("summary", p.Summary()))

	for _, pkt := range b.Packets {
		select {
		case s.out <- pkt:
		default:
			metrics.Inc(s.met.SinkDrops, s.dropOpts...)
		}
	}
}
