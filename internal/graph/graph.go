// SPDX-License-Identifier: MIT

// Package graph wires a gate, a recorder, its sinks and an optional player
// onto an audio backend and returns a handle that owns everything started.
//
//	h, err := graph.New(backend).
//		Record(gate).
//		Sink(wav).
//		Play().
//		Run()
//	if err != nil { ... }
//	defer h.Close()
package graph

import (
	"io"

	"ptt/internal/audio"
	"ptt/internal/metrics"
	"ptt/internal/sink"
)

// Graph is a builder. It is not safe for concurrent use and is consumed by
// Run.
type Graph struct {
	backend audio.Backend
	gate    *audio.Gate
	sinks   []audio.Sink
	src     audio.Source
	workers []io.Closer

	loopback  bool
	channels  int
	queueSize int
	met       *metrics.Metrics
	recOpts   []audio.RecorderOption
	playOpts  []audio.PlayerOption
}

// Option configures a Graph.
type Option func(*Graph)

// WithMetrics sets the instruments every component reports to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Graph) { g.met = m }
}

// WithQueueSize sets the loopback channel depth.
func WithQueueSize(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.queueSize = n
		}
	}
}

// WithPlaybackChannels sets the output channel count. The mono stream is
// duplicated across all of them.
func WithPlaybackChannels(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.channels = n
		}
	}
}

// WithRecorderOptions passes options to the recorder.
func WithRecorderOptions(opts ...audio.RecorderOption) Option {
	return func(g *Graph) { g.recOpts = append(g.recOpts, opts...) }
}

// WithPlayerOptions passes options to the player.
func WithPlayerOptions(opts ...audio.PlayerOption) Option {
	return func(g *Graph) { g.playOpts = append(g.playOpts, opts...) }
}

// New returns an empty graph over backend.
func New(backend audio.Backend, opts ...Option) *Graph {
	g := &Graph{
		backend:   backend,
		channels:  2,
		queueSize: sink.DefaultQueueSize,
	}
	for _, o := range opts {
		o(g)
	}
	if g.met == nil {
		g.met = metrics.Default()
	}
	return g
}

// Record captures from the input device while gate is pressed.
func (g *Graph) Record(gate *audio.Gate) *Graph {
	g.gate = gate
	return g
}

// Sink adds a consumer of the recorder output.
func (g *Graph) Sink(s audio.Sink) *Graph {
	g.sinks = append(g.sinks, s)
	return g
}

// SinkChannel forwards every packet to ch as it is produced, dropping when
// ch is full.
func (g *Graph) SinkChannel(ch chan<- audio.Packet) *Graph {
	return g.Sink(sink.NewLiveSink(ch, sink.WithMetrics(g.met)))
}

// Play plays the recorder's own output back live.
func (g *Graph) Play() *Graph {
	g.loopback = true
	return g
}

// PlayFrom plays packets pulled from src.
func (g *Graph) PlayFrom(src audio.Source) *Graph {
	g.src = src
	g.loopback = false
	return g
}

// Worker hands c to the graph: the handle closes it after the streams stop.
func (g *Graph) Worker(c io.Closer) *Graph {
	g.workers = append(g.workers, c)
	return g
}

// Run validates the graph, opens and starts the streams and returns the
// handle owning them. On error everything already started is torn down and
// the workers stay with the caller.
func (g *Graph) Run() (*Handle, error) {
	if g.gate == nil {
		return nil, &ConfigurationError{Reason: ErrNoGate}
	}

	src := g.src
	if g.loopback {
		ch := make(chan audio.Packet, g.queueSize)
		g.SinkChannel(ch)
		src = audio.ChanSource(ch)
	}
	if len(g.sinks) == 0 {
		return nil, &ConfigurationError{Reason: ErrNoSink}
	}

	var out audio.Sink
	if len(g.sinks) == 1 {
		out = g.sinks[0]
	} else {
		out = sink.NewFanoutWith(g.met, g.sinks...)
	}

	recOpts := append([]audio.RecorderOption{audio.WithRecorderMetrics(g.met)}, g.recOpts...)
	rec, err := audio.NewRecorder(g.gate, out, recOpts...)
	if err != nil {
		return nil, err
	}

	st := newState(rec)
	if err := st.startRecorder(g.backend); err != nil {
		return nil, closeOnError(st, err)
	}

	if src != nil {
		playOpts := append([]audio.PlayerOption{audio.WithPlayerMetrics(g.met)}, g.playOpts...)
		player, err := audio.NewPlayer(src, g.channels, playOpts...)
		if err != nil {
			return nil, closeOnError(st, err)
		}
		if err := st.startPlayer(g.backend, player); err != nil {
			return nil, closeOnError(st, err)
		}
	}

	for _, w := range g.workers {
		st.add(holderWorker{closer: w})
	}

	return newHandle(st), nil
}

func closeOnError(st *state, err error) error {
	_ = st.close()
	return err
}
