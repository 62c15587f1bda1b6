// SPDX-License-Identifier: MIT
package sink

import (
	"errors"

	"go.uber.org/zap"

	"ptt/internal/audio"
	"ptt/internal/relay"
	"ptt/internal/transport"
)

// RelaySink sends every finished burst through a Transport as a
// relay.Payload. Nothing is sent while the gate is pressed.
type RelaySink struct {
	audio.NopSink

	tr  transport.Transport
	q   *queue[audio.Burst]
	log *zap.Logger
}

// NewRelaySink starts the sender worker. The sink does not own tr.
func NewRelaySink(tr transport.Transport, opts ...Option) (*RelaySink, error) {
	if tr == nil {
		return nil, errors.New("relay: transport is nil")
	}
	o := newOptions("relay", opts)
	s := &RelaySink{
		tr:  tr,
		q:   newQueue[audio.Burst]("relay", o),
		log: o.logger,
	}
	s.q.start(s.run)
	return s, nil
}

func (s *RelaySink) Name() string { return "relay" }

// OnBurst queues b for sending.
func (s *RelaySink) OnBurst(b audio.Burst) {
	_ = s.q.offer(b)
}

func (s *RelaySink) run() {
	for {
		select {
		case b := <-s.q.ch:
			s.send(b)
		case <-s.q.done:
			s.q.drain(s.send)
			return
		}
	}
}

func (s *RelaySink) send(b audio.Burst) {
	p := relay.FromBurst(b)
	if err := s.tr.Send(p); err != nil {
		s.log.Warn("send failed", zap.String("id", p.ID), zap.Error(err))
	}
}

// Close sends what is already queued and stops the worker.
func (s *RelaySink) Close() error {
	s.q.stop()
	return nil
}
