// SPDX-License-Identifier: MIT

// Package transcribe runs speech recognition with whisper.cpp.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"go.uber.org/zap"

	"ptt/internal/analysis"
	"ptt/internal/audio"
	"ptt/internal/log"
)

// whisper.cpp expects 16kHz mono float32.
const (
	modelSampleRate = 16000
	decimation      = audio.SampleRate / modelSampleRate
)

// DefaultLanguage is used when none is configured.
const DefaultLanguage = "en"

// Whisper recognizes speech with a whisper.cpp model. The model is loaded
// once; each Recognize call gets a fresh context, so calls may come from any
// goroutine but a Whisper must not be closed while one is running.
type Whisper struct {
	model    whisperlib.Model
	language string
	threads  uint
	log      *zap.Logger

	scratch []float32
}

// Option configures a Whisper.
type Option func(*Whisper)

// WithLanguage sets the spoken language ("auto" detects it).
func WithLanguage(lang string) Option {
	return func(w *Whisper) {
		if lang != "" {
			w.language = lang
		}
	}
}

// WithThreads sets the number of inference threads; 0 keeps the library default.
func WithThreads(n uint) Option {
	return func(w *Whisper) { w.threads = n }
}

// NewWhisper loads the model at path.
func NewWhisper(path string, opts ...Option) (*Whisper, error) {
	if path == "" {
		return nil, errors.New("whisper: model path must not be empty")
	}
	model, err := whisperlib.New(path)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", path, err)
	}

	w := &Whisper{
		model:    model,
		language: DefaultLanguage,
		log:      log.Named("whisper"),
	}
	for _, o := range opts {
		o(w)
	}
	w.log.Info("model loaded", zap.String("path", path), zap.String("language", w.language))
	return w, nil
}

// Recognize transcribes 48kHz mono PCM and returns its text segments. It is
// not safe to call concurrently on one Whisper: the resampling buffer is
// shared.
func (w *Whisper) Recognize(ctx context.Context, pcm []float32) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.scratch = analysis.Decimate(w.scratch, pcm, decimation)

	wctx, err := w.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(w.language); err != nil {
		w.log.Warn("unsupported language, using model default", zap.String("language", w.language), zap.Error(err))
	}
	if w.threads > 0 {
		wctx.SetThreads(w.threads)
	}

	if err := wctx.Process(w.scratch, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper: process audio: %w", err)
	}

	var segs []string
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(seg.Text); text != "" {
			segs = append(segs, text)
		}
	}
	return segs, nil
}

// Close releases the model.
func (w *Whisper) Close() error {
	if w.model == nil {
		return nil
	}
	err := w.model.Close()
	w.model = nil
	return err
}
