// SPDX-License-Identifier: MIT
package sink

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ptt/internal/analysis"
	"ptt/internal/audio"
	"ptt/internal/metrics/metricstest"
)

const wordSamples = 5 * audio.FrameSize

// wordRecognizer hears one word per started five frames of audio.
type wordRecognizer struct {
	calls atomic.Int32
	err   error
}

func (r *wordRecognizer) Recognize(_ context.Context, pcm []float32) ([]string, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	n := (len(pcm) + wordSamples - 1) / wordSamples
	segs := make([]string, n)
	for i := range segs {
		segs[i] = fmt.Sprintf(" w%d ", i+1)
	}
	return segs, nil
}

func recvTranscript(t *testing.T, s *TranscribeSink) Transcript {
	t.Helper()
	select {
	case tr := <-s.Transcripts():
		return tr
	case <-time.After(2 * time.Second):
		t.Fatal("no transcript")
		return Transcript{}
	}
}

func newTestTranscribeSink(t *testing.T, rec Recognizer, cfg TranscribeConfig, opts ...Option) (*TranscribeSink, *metricstest.Reader) {
	t.Helper()
	met, reader := metricstest.New(t)
	opts = append([]Option{WithDecoder(constDecoder{}), WithMetrics(met)}, opts...)
	s, err := NewTranscribeSink(rec, cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, reader
}

func TestTranscribeInterimAndFinal(t *testing.T) {
	rec := &wordRecognizer{}
	s, reader := newTestTranscribeSink(t, rec, TranscribeConfig{
		FlushEvery:  5,
		IdleTimeout: 100 * time.Millisecond,
	})

	for range 10 {
		s.OnPacket(audio.Packet{1})
	}

	first := recvTranscript(t, s)
	assert.Equal(t, Transcript{Text: "w1", At: first.At}, first)
	second := recvTranscript(t, s)
	assert.Equal(t, "w2", second.Text, "interim results carry only new segments")
	assert.False(t, second.Final)

	final := recvTranscript(t, s)
	assert.True(t, final.Final)
	assert.Equal(t, "w1 w2", final.Text)
	assert.Equal(t, int64(3), reader.Sum("ptt.transcripts"))

	// The next utterance starts from scratch.
	for range 5 {
		s.OnPacket(audio.Packet{1})
	}
	assert.Equal(t, "w1", recvTranscript(t, s).Text)
	next := recvTranscript(t, s)
	assert.True(t, next.Final)
	assert.Equal(t, "w1", next.Text)
}

func TestTranscribeCloseFlushesFinal(t *testing.T) {
	rec := &wordRecognizer{}
	s, _ := newTestTranscribeSink(t, rec, TranscribeConfig{IdleTimeout: time.Hour})

	for range 3 {
		s.OnPacket(audio.Packet{2})
	}
	require.NoError(t, s.Close())

	tr := recvTranscript(t, s)
	assert.True(t, tr.Final)
	assert.Equal(t, "w1", tr.Text)
}

func TestTranscribeSkipsSilence(t *testing.T) {
	det, err := analysis.NewSpeechDetector(audio.FrameSize, audio.SampleRate, analysis.Hann, 0.001, 0)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	rec := &wordRecognizer{}
	s, _ := newTestTranscribeSink(t, rec, TranscribeConfig{
		FlushEvery:  2,
		IdleTimeout: time.Hour,
		Detector:    det,
	}, WithLogger(zap.New(core)))

	for range 4 {
		s.OnPacket(audio.Packet{0}) // decodes to digital silence
	}
	require.NoError(t, s.Close())

	assert.Zero(t, rec.calls.Load())
	assert.Empty(t, s.Transcripts())

	skipped := logs.FilterMessage("skipped non-speech").All()
	require.NotEmpty(t, skipped)
	dbfs, ok := skipped[0].ContextMap()["dbfs"].(float64)
	require.True(t, ok)
	assert.True(t, math.IsInf(dbfs, -1), "silence is reported as -Inf dBFS, got %v", dbfs)
}

func TestTranscribeRecognizerError(t *testing.T) {
	rec := &wordRecognizer{err: errors.New("model not loaded")}
	s, reader := newTestTranscribeSink(t, rec, TranscribeConfig{FlushEvery: 1, IdleTimeout: time.Hour})

	s.OnPacket(audio.Packet{1})
	s.OnPacket(audio.Packet{0xff}) // undecodable
	require.NoError(t, s.Close())

	assert.Empty(t, s.Transcripts())
	assert.Equal(t, int64(1), reader.Sum("ptt.decode.errors"))
	assert.GreaterOrEqual(t, rec.calls.Load(), int32(1))
}

func TestNewTranscribeSinkDefaults(t *testing.T) {
	s, _ := newTestTranscribeSink(t, &wordRecognizer{}, TranscribeConfig{})
	assert.Equal(t, DefaultFlushEvery, s.cfg.FlushEvery)
	assert.Equal(t, DefaultIdleTimeout, s.cfg.IdleTimeout)

	_, err := NewTranscribeSink(nil, TranscribeConfig{})
	assert.Error(t, err)
}

func TestJoinSegments(t *testing.T) {
	assert.Equal(t, "a b", joinSegments([]string{" a", "", "  ", "b "}))
	assert.Equal(t, "", joinSegments(nil))
}
