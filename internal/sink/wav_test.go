// SPDX-License-Identifier: MIT
package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptt/internal/audio"
	"ptt/internal/metrics/metricstest"
)

func TestWavSinkWritesDecodedAudio(t *testing.T) {
	met, reader := metricstest.New(t)
	path := filepath.Join(t.TempDir(), "note.wav")

	s, err := NewWavSink(path, WithDecoder(constDecoder{}), WithMetrics(met))
	require.NoError(t, err)

	s.OnPacket(audio.Packet{1})
	s.OnPacket(audio.Packet{0xff}) // undecodable, skipped
	s.OnPacket(audio.Packet{2})
	s.OnBurst(burstOf(audio.Packet{1}, audio.Packet{2}))
	require.NoError(t, s.Close())
	assert.Equal(t, int64(2*audio.FrameSize), s.Written())
	assert.Equal(t, int64(1), reader.Sum("ptt.decode.errors"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, audio.SampleRate, buf.Format.SampleRate)
	assert.Equal(t, 1, buf.Format.NumChannels)
	assert.Equal(t, 16, int(dec.BitDepth))
	require.Len(t, buf.Data, 2*audio.FrameSize)
	assert.Equal(t, 100, buf.Data[0])
	assert.Equal(t, 200, buf.Data[audio.FrameSize])
}

func TestWavSinkCloseIdempotent(t *testing.T) {
	s, err := NewWavSink(filepath.Join(t.TempDir(), "empty.wav"), WithDecoder(constDecoder{}))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestWavSinkCreateError(t *testing.T) {
	_, err := NewWavSink(filepath.Join(t.TempDir(), "missing", "x.wav"), WithDecoder(constDecoder{}))
	assert.Error(t, err)
}
