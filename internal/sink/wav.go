// SPDX-License-Identifier: MIT
package sink

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"ptt/internal/audio"
	"ptt/internal/metrics"
)

const wavBitDepth = 16

// WavSink persists every captured packet to a 16-bit mono WAV file at the
// codec sample rate. Decoding and file writes happen on a worker goroutine;
// Close finalizes the container.
type WavSink struct {
	audio.NopSink

	path  string
	q     *queue[audio.Packet]
	dec   audio.PacketDecoder
	file  *os.File
	enc   *wav.Encoder
	buf   *goaudio.IntBuffer
	err   error // first write error, owned by the worker until stop returns
	log   *zap.Logger
	met   *metrics.Metrics
	attrs []metric.AddOption

	written int64
}

// NewWavSink creates path and starts the writer.
func NewWavSink(path string, opts ...Option) (*WavSink, error) {
	o := newOptions("wav", opts)
	dec, err := o.decoderOrNew()
	if err != nil {
		return nil, err
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav file: %w", err)
	}

	s := &WavSink{
		path: path,
		q:    newQueue[audio.Packet]("wav", o),
		dec:  dec,
		file: file,
		enc:  wav.NewEncoder(file, audio.SampleRate, wavBitDepth, audio.CaptureChannels, 1),
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: audio.CaptureChannels,
				SampleRate:  audio.SampleRate,
			},
			Data:           make([]int, audio.FrameSize),
			SourceBitDepth: wavBitDepth,
		},
		log:   o.logger.With(zap.String("path", path)),
		met:   o.met,
		attrs: metrics.Component("wav"),
	}
	s.q.start(s.run)
	return s, nil
}

func (s *WavSink) Name() string { return "wav" }

// OnPacket queues p for writing.
func (s *WavSink) OnPacket(p audio.Packet) {
	_ = s.q.offer(p)
}

func (s *WavSink) run() {
	for {
		select {
		case p := <-s.q.ch:
			s.write(p)
		case <-s.q.done:
			s.q.drain(s.write)
			return
		}
	}
}

func (s *WavSink) write(p audio.Packet) {
	if s.err != nil {
		return
	}
	pcm, err := s.dec.Decode(p)
	if err != nil {
		metrics.Inc(s.met.DecodeErrors, s.attrs...)
		return
	}

	s.buf.Data = s.buf.Data[:0]
	for _, v := range pcm {
		s.buf.Data = append(s.buf.Data, int(v))
	}
	if err := s.enc.Write(s.buf); err != nil {
		s.err = fmt.Errorf("write wav: %w", err)
		s.log.Error("write failed; further audio is discarded", zap.Error(err))
		return
	}
	s.written += int64(len(pcm))
}

// Close stops the worker after it has written everything already queued,
// then finalizes the WAV header and closes the file.
func (s *WavSink) Close() error {
	s.q.stop()

	var result *multierror.Error
	if s.err != nil {
		result = multierror.Append(result, s.err)
	}
	if s.enc != nil {
		if err := s.enc.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("finalize wav: %w", err))
		}
		s.enc = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		s.file = nil
		s.log.Info("recording saved", zap.Int64("samples", s.written))
	}
	return result.ErrorOrNil()
}

// Written returns the number of samples written. Valid after Close.
func (s *WavSink) Written() int64 { return s.written }
