// SPDX-License-Identifier: MIT
package sink

import (
	"sync"

	"go.opentelemetry.io/otel/metric"

	"ptt/internal/audio"
	"ptt/internal/metrics"
)

// queue is the bounded hand-off between the capture callback and a worker
// goroutine. The channel is never closed: stop signals the worker through
// done, which drains what is already queued before exiting.
type queue[T any] struct {
	ch   chan T
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	drops metric.Int64Counter
	attrs []metric.AddOption
}

func newQueue[T any](name string, o options) *queue[T] {
	return &queue[T]{
		ch:    make(chan T, o.queueSize),
		done:  make(chan struct{}),
		drops: o.met.SinkDrops,
		attrs: metrics.Sink(name),
	}
}

// offer enqueues v without blocking. A full queue drops v, counts it and
// reports audio.ErrChannelSaturated.
func (q *queue[T]) offer(v T) error {
	select {
	case q.ch <- v:
		return nil
	default:
		metrics.Inc(q.drops, q.attrs...)
		return audio.ErrChannelSaturated
	}
}

// start runs loop on a new goroutine.
func (q *queue[T]) start(loop func()) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		loop()
	}()
}

// stop signals the worker and waits for it to exit. Safe to call repeatedly.
func (q *queue[T]) stop() {
	q.once.Do(func() { close(q.done) })
	q.wg.Wait()
}

// drain hands every already-queued item to fn without blocking.
func (q *queue[T]) drain(fn func(T)) {
	for {
		select {
		case v := <-q.ch:
			fn(v)
		default:
			return
		}
	}
}
