// SPDX-License-Identifier: MIT
package sink

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"ptt/internal/audio"
	"ptt/internal/log"
	"ptt/internal/metrics"
)

// Named is implemented by sinks that report a stable name for metrics and
// logs. Other sinks are named after their type.
type Named interface {
	Name() string
}

// Fanout delivers every packet and burst to each registered sink in
// registration order. A panicking sink is contained: the failure is counted,
// logged once for that sink, and delivery continues with the next one.
//
// The sink list is copy-on-write, so Register never blocks the capture
// callback.
type Fanout struct {
	sinks atomic.Pointer[[]*member]
	mu    sync.Mutex // serialises Register

	met    *metrics.Metrics
	logger *zap.Logger
}

type member struct {
	sink   audio.Sink
	name   string
	attrs  []metric.AddOption
	logged atomic.Bool
}

// NewFanout returns a fanout over sinks reporting to the default metrics.
func NewFanout(sinks ...audio.Sink) *Fanout {
	return NewFanoutWith(metrics.Default(), sinks...)
}

// NewFanoutWith returns a fanout over sinks reporting to met.
func NewFanoutWith(met *metrics.Metrics, sinks ...audio.Sink) *Fanout {
	f := &Fanout{met: met, logger: log.Named("fanout")}
	members := make([]*member, 0, len(sinks))
	for _, s := range sinks {
		members = append(members, newMember(s))
	}
	f.sinks.Store(&members)
	return f
}

func newMember(s audio.Sink) *member {
	name := fmt.Sprintf("%T", s)
	if n, ok := s.(Named); ok {
		name = n.Name()
	}
	return &member{sink: s, name: name, attrs: metrics.Sink(name)}
}

// Register adds s after the existing sinks. Deliveries already in progress
// keep using the previous list.
func (f *Fanout) Register(s audio.Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()

	old := *f.sinks.Load()
	next := make([]*member, len(old), len(old)+1)
	copy(next, old)
	next = append(next, newMember(s))
	f.sinks.Store(&next)
}

// Len returns the number of registered sinks.
func (f *Fanout) Len() int {
	return len(*f.sinks.Load())
}

func (f *Fanout) OnPacket(p audio.Packet) {
	for _, m := range *f.sinks.Load() {
		f.deliverPacket(m, p)
	}
}

func (f *Fanout) OnBurst(b audio.Burst) {
	for _, m := range *f.sinks.Load() {
		f.deliverBurst(m, b)
	}
}

func (f *Fanout) deliverPacket(m *member, p audio.Packet) {
	defer f.contain(m, "packet")
	m.sink.OnPacket(p)
}

func (f *Fanout) deliverBurst(m *member, b audio.Burst) {
	defer f.contain(m, "burst")
	m.sink.OnBurst(b)
}

// contain recovers a sink panic. It must be deferred directly.
func (f *Fanout) contain(m *member, event string) {
	r := recover()
	if r == nil {
		return
	}
	metrics.Inc(f.met.SinkPanics, m.attrs...)
	if m.logged.CompareAndSwap(false, true) {
		f.logger.Error("sink failed; further failures are counted only",
			zap.String("sink", m.name),
			zap.String("event", event),
			zap.Any("panic", r),
		)
	}
}

var _ audio.Sink = (*Fanout)(nil)
