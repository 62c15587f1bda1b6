// SPDX-License-Identifier: MIT
package sink

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"ptt/internal/analysis"
	"ptt/internal/audio"
	"ptt/internal/metrics"
)

// Recognizer turns 48kHz mono PCM into text segments. It is called from a
// single worker goroutine and always receives the whole utterance so far.
type Recognizer interface {
	Recognize(ctx context.Context, pcm []float32) ([]string, error)
}

// Transcript is one recognition result. Interim results carry only the
// segments that are new since the previous result of the same utterance.
type Transcript struct {
	Text  string
	Final bool
	At    time.Time
}

// TranscribeConfig tunes when recognition runs.
type TranscribeConfig struct {
	// FlushEvery runs interim recognition after this many packets.
	FlushEvery int

	// IdleTimeout ends the utterance when no packet arrives for this long.
	IdleTimeout time.Duration

	// Detector, when set, skips recognition of audio that is not speech.
	Detector *analysis.SpeechDetector
}

// Defaults for TranscribeConfig.
const (
	DefaultFlushEvery  = 25
	DefaultIdleTimeout = 5 * time.Second

	transcriptQueue = 16
)

// TranscribeSink decodes packets on a worker goroutine, accumulates PCM and
// publishes interim and final transcripts.
type TranscribeSink struct {
	audio.NopSink

	cfg    TranscribeConfig
	rec    Recognizer
	dec    audio.PacketDecoder
	q      *queue[audio.Packet]
	out    chan Transcript
	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time

	log        *zap.Logger
	met        *metrics.Metrics
	decodeOpts []metric.AddOption
	dropOpts   []metric.AddOption
	interim    []metric.AddOption
	final      []metric.AddOption

	// worker state
	pcm     []float32
	pending int // packets since the last flush
	emitted int // segments already published for this utterance
}

// NewTranscribeSink starts the recognition worker.
func NewTranscribeSink(rec Recognizer, cfg TranscribeConfig, opts ...Option) (*TranscribeSink, error) {
	if rec == nil {
		return nil, errors.New("transcribe: recognizer is nil")
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = DefaultFlushEvery
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}

	o := newOptions("transcribe", opts)
	dec, err := o.decoderOrNew()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &TranscribeSink{
		cfg:        cfg,
		rec:        rec,
		dec:        dec,
		q:          newQueue[audio.Packet]("transcribe", o),
		out:        make(chan Transcript, transcriptQueue),
		ctx:        ctx,
		cancel:     cancel,
		now:        time.Now,
		log:        o.logger,
		met:        o.met,
		decodeOpts: metrics.Component("transcribe"),
		dropOpts:   metrics.Sink("transcribe.results"),
		interim:    metrics.Attrs(attribute.Bool("final", false)),
		final:      metrics.Attrs(attribute.Bool("final", true)),
	}
	s.q.start(s.run)
	return s, nil
}

func (s *TranscribeSink) Name() string { return "transcribe" }

// Transcripts returns the result channel. Results are dropped when it is
// not drained.
func (s *TranscribeSink) Transcripts() <-chan Transcript { return s.out }

// OnPacket queues p for recognition.
func (s *TranscribeSink) OnPacket(p audio.Packet) {
	_ = s.q.offer(p)
}

func (s *TranscribeSink) run() {
	idle := time.NewTimer(s.cfg.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case p := <-s.q.ch:
			s.accept(p)
			idle.Reset(s.cfg.IdleTimeout)
		case <-idle.C:
			s.finish()
			idle.Reset(s.cfg.IdleTimeout)
		case <-s.q.done:
			s.q.drain(s.accept)
			s.finish()
			return
		}
	}
}

func (s *TranscribeSink) accept(p audio.Packet) {
	pcm, err := s.dec.Decode(p)
	if err != nil {
		metrics.Inc(s.met.DecodeErrors, s.decodeOpts...)
		return
	}
	for _, v := range pcm {
		s.pcm = append(s.pcm, audio.PCMToFloat(v))
	}

	s.pending++
	if s.pending >= s.cfg.FlushEvery {
		s.pending = 0
		segs, ok := s.recognize()
		if !ok || len(segs) <= s.emitted {
			return
		}
		text := joinSegments(segs[s.emitted:])
		s.emitted = len(segs)
		if text != "" {
			s.publish(Transcript{Text: text, At: s.now()}, s.interim)
		}
	}
}

// finish publishes the final transcript of the pending utterance and resets.
func (s *TranscribeSink) finish() {
	if len(s.pcm) == 0 {
		return
	}
	segs, ok := s.recognize()
	if ok {
		if text := joinSegments(segs); text != "" {
			s.publish(Transcript{Text: text, Final: true, At: s.now()}, s.final)
		}
	}
	s.pcm = s.pcm[:0]
	s.pending = 0
	s.emitted = 0
}

func (s *TranscribeSink) recognize() ([]string, bool) {
	if d := s.cfg.Detector; d != nil && !d.IsSpeech(s.pcm) {
		s.log.Debug("skipped non-speech",
			zap.Float64("dbfs", analysis.DBFS(d.Level(s.pcm))),
			zap.Int("samples", len(s.pcm)),
		)
		return nil, false
	}
	segs, err := s.rec.Recognize(s.ctx, s.pcm)
	if err != nil {
		s.log.Warn("recognition failed", zap.Error(err), zap.Int("samples", len(s.pcm)))
		return nil, false
	}
	return segs, true
}

func (s *TranscribeSink) publish(t Transcript, opts []metric.AddOption) {
	select {
	case s.out <- t:
		metrics.Inc(s.met.Transcripts, opts...)
	default:
		metrics.Inc(s.met.SinkDrops, s.dropOpts...)
	}
	if t.Final {
		s.log.Info("transcript", zap.String("text", t.Text))
	} else {
		s.log.Debug("interim transcript", zap.String("text", t.Text))
	}
}

// Close recognizes whatever is still queued, publishes a final transcript
// and stops the worker. The transcript channel stays open.
func (s *TranscribeSink) Close() error {
	s.q.stop()
	s.cancel()
	return nil
}

func joinSegments(segs []string) string {
	parts := make([]string, 0, len(segs))
	for _, seg := range segs {
		if seg = strings.TrimSpace(seg); seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, " ")
}
