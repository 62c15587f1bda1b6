// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"sync/atomic"
	"time"

	"ptt/internal/metrics"
)

var errNilSink = errors.New("recorder: sink is nil")

// Recorder runs the gate/burst state machine inside the capture callback:
//
//	Idle      --gate pressed-->  Recording   (burst opened, no emission)
//	Recording --frame ready-->   Recording   (encode, OnPacket, append)
//	Recording --gate released--> Idle        (OnBurst if non-empty, drop partial frame)
//
// The assembler, encoder and burst are touched only by Process. Process is
// not reentrant and must not be called concurrently for one Recorder.
type Recorder struct {
	gate  *Gate
	sink  Sink
	enc   FrameEncoder
	asm   *FrameAssembler
	burst BurstAccumulator
	now   func() time.Time

	recording atomic.Bool
	failed    atomic.Pointer[EncodeError]

	met *metrics.Metrics

	emitFrame func(Frame) error // bound once so Process does not allocate
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithEncoder replaces the Opus encoder.
func WithEncoder(enc FrameEncoder) RecorderOption {
	return func(r *Recorder) { r.enc = enc }
}

// WithClock sets the time source used to stamp bursts.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

// WithRecorderMetrics sets the instruments the recorder reports to.
func WithRecorderMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) { r.met = m }
}

// NewRecorder builds a recorder feeding sink while gate is pressed.
func NewRecorder(gate *Gate, sink Sink, opts ...RecorderOption) (*Recorder, error) {
	if gate == nil {
		return nil, errors.New("recorder: gate is nil")
	}
	if sink == nil {
		return nil, errNilSink
	}

	r := &Recorder{
		gate: gate,
		sink: sink,
		asm:  NewFrameAssembler(FrameSize),
		now:  time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	if r.met == nil {
		r.met = metrics.Default()
	}
	if r.enc == nil {
		enc, err := NewEncoder()
		if err != nil {
			return nil, err
		}
		r.enc = enc
	}
	r.emitFrame = r.encodeFrame
	return r, nil
}

// Recording reports whether the last Process call saw the gate pressed. It
// may be called from any goroutine.
func (r *Recorder) Recording() bool { return r.recording.Load() }

// Err returns the fatal encode error that stopped the recorder, if any.
func (r *Recorder) Err() error {
	if e := r.failed.Load(); e != nil {
		return e
	}
	return nil
}

// Process consumes one capture chunk. It returns an EncodeError when the
// codec fails; from then on every call returns that error and does nothing.
func (r *Recorder) Process(in []float32) error {
	if e := r.failed.Load(); e != nil {
		return e
	}

	if !r.gate.Pressed() {
		if r.recording.Load() {
			r.recording.Store(false)
			if !r.burst.Empty() {
				r.sink.OnBurst(r.burst.Take())
				metrics.Inc(r.met.BurstsDelivered)
			}
			if dropped := r.asm.Discard(); dropped > 0 {
				metrics.Add(r.met.SamplesDiscarded, int64(dropped))
			}
		}
		return nil
	}

	if !r.recording.Load() {
		r.recording.Store(true)
		r.burst.Start(r.now())
	}

	if err := r.asm.Push(in, r.emitFrame); err != nil {
		var encErr *EncodeError
		if !errors.As(err, &encErr) {
			encErr = &EncodeError{Samples: r.asm.Size(), Err: err}
		}
		r.failed.Store(encErr)
		return encErr
	}
	return nil
}

func (r *Recorder) encodeFrame(f Frame) error {
	pkt, err := r.enc.Encode(f)
	if err != nil {
		return err
	}
	r.sink.OnPacket(pkt)
	r.burst.Push(pkt)
	metrics.Inc(r.met.PacketsEncoded)
	return nil
}
