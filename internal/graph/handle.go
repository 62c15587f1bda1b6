// SPDX-License-Identifier: MIT
package graph

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"ptt/internal/audio"
	"ptt/internal/log"
)

// holder is one thing a Handle keeps alive. The set is closed: a stream
// driving the recorder, a stream driving the player, or a worker.
type holder interface {
	release() error
	describe() string
}

type holderRecorder struct {
	stream audio.Stream
	rec    *audio.Recorder
}

func (h holderRecorder) release() error   { return h.stream.Close() }
func (h holderRecorder) describe() string { return "recorder" }

type holderPlayer struct {
	stream audio.Stream
	player *audio.Player
}

func (h holderPlayer) release() error   { return h.stream.Close() }
func (h holderPlayer) describe() string { return "player" }

type holderWorker struct {
	closer io.Closer
}

func (h holderWorker) release() error   { return h.closer.Close() }
func (h holderWorker) describe() string { return fmt.Sprintf("worker %T", h.closer) }

// state is everything the callbacks and the cleanup touch. It never points
// back at the Handle, so an unreachable Handle can be collected.
type state struct {
	rec     *audio.Recorder
	player  *audio.Player
	holders []holder

	failed   atomic.Pointer[error]
	failedCh chan struct{}
	failOnce sync.Once

	closeOnce sync.Once
	closeErr  error
	log       *zap.Logger
}

func newState(rec *audio.Recorder) *state {
	return &state{
		rec:      rec,
		failedCh: make(chan struct{}),
		log:      log.Named("graph"),
	}
}

func (st *state) add(h holder) {
	st.holders = append(st.holders, h)
}

func (st *state) startRecorder(b audio.Backend) error {
	stream, err := b.OpenInput(st.capture)
	if err != nil {
		return err
	}
	st.add(holderRecorder{stream: stream, rec: st.rec})
	return stream.Start()
}

func (st *state) startPlayer(b audio.Backend, p *audio.Player) error {
	stream, err := b.OpenOutput(p.Channels(), p.Fill)
	if err != nil {
		return err
	}
	st.player = p
	st.add(holderPlayer{stream: stream, player: p})
	return stream.Start()
}

// capture is the input callback.
func (st *state) capture(in []float32) {
	if err := st.rec.Process(in); err != nil {
		st.fail(err)
	}
}

func (st *state) fail(err error) {
	st.failOnce.Do(func() {
		st.failed.Store(&err)
		close(st.failedCh)
		st.log.Error("recorder stopped", zap.Error(err))
	})
}

// close releases holders in the order they were added: capture first, so no
// new packets reach sinks that workers are about to flush.
func (st *state) close() error {
	st.closeOnce.Do(func() {
		var result *multierror.Error
		for _, h := range st.holders {
			if err := h.release(); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", h.describe(), err))
			}
		}
		st.closeErr = result.ErrorOrNil()
	})
	return st.closeErr
}

// Handle owns a running graph. Close stops it; a Handle that becomes
// unreachable without Close is stopped by the garbage collector.
type Handle struct {
	st      *state
	cleanup runtime.Cleanup
}

func newHandle(st *state) *Handle {
	h := &Handle{st: st}
	h.cleanup = runtime.AddCleanup(h, func(st *state) {
		if err := st.close(); err != nil {
			st.log.Warn("teardown of abandoned graph failed", zap.Error(err))
		}
	}, st)
	return h
}

// Close stops the streams and closes the workers. Errors from every holder
// are aggregated. Safe to call more than once.
func (h *Handle) Close() error {
	h.cleanup.Stop()
	return h.st.close()
}

// Err returns the fatal error that stopped the recorder, if any.
func (h *Handle) Err() error {
	if e := h.st.failed.Load(); e != nil {
		return *e
	}
	return nil
}

// Failed is closed when the recorder hits a fatal error.
func (h *Handle) Failed() <-chan struct{} { return h.st.failedCh }

// Recording reports whether the recorder is inside a gate-open interval.
func (h *Handle) Recording() bool { return h.st.rec.Recording() }

// Buffered returns the player's queued mono samples, 0 without a player.
func (h *Handle) Buffered() int {
	if h.st.player == nil {
		return 0
	}
	return h.st.player.Buffered()
}
