// SPDX-License-Identifier: MIT
package sink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptt/internal/audio"
	"ptt/internal/metrics/metricstest"
)

func TestFanoutDeliversToAll(t *testing.T) {
	a, b := &collectSink{}, &collectSink{}
	f := NewFanout(a, b)
	require.Equal(t, 2, f.Len())

	f.OnPacket(audio.Packet{1})
	f.OnPacket(audio.Packet{2})
	f.OnBurst(burstOf(audio.Packet{1}, audio.Packet{2}))

	for _, s := range []*collectSink{a, b} {
		packets, bursts := s.count()
		assert.Equal(t, 2, packets)
		assert.Equal(t, 1, bursts)
	}
}

func TestFanoutContainsPanics(t *testing.T) {
	met, reader := metricstest.New(t)
	before, after := &collectSink{}, &collectSink{}
	f := NewFanoutWith(met, before, panicSink{}, after)

	require.NotPanics(t, func() {
		f.OnPacket(audio.Packet{1})
		f.OnPacket(audio.Packet{2})
		f.OnBurst(burstOf(audio.Packet{1}, audio.Packet{2}))
	})

	for _, s := range []*collectSink{before, after} {
		packets, bursts := s.count()
		assert.Equal(t, 2, packets)
		assert.Equal(t, 1, bursts)
	}
	assert.Equal(t, int64(3), reader.Sum("ptt.sink.panics"))
}

func TestFanoutRegister(t *testing.T) {
	f := NewFanout()
	assert.Equal(t, 0, f.Len())
	f.OnPacket(audio.Packet{1}) // no sinks, no effect

	c := &collectSink{}
	f.Register(c)
	f.OnPacket(audio.Packet{2})

	packets, _ := c.count()
	assert.Equal(t, 1, packets)
	assert.Equal(t, 1, f.Len())
}

func TestFanoutRegisterDuringDelivery(t *testing.T) {
	f := NewFanout(&collectSink{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		for range 1000 {
			f.OnPacket(audio.Packet{1})
		}
	}()
	for range 10 {
		f.Register(&collectSink{})
	}
	<-done
	assert.Equal(t, 11, f.Len())
}

func TestFullSinkDoesNotBlockOthers(t *testing.T) {
	met, reader := metricstest.New(t)

	// Nobody reads from full; it saturates after one packet.
	full := make(chan audio.Packet, 1)
	live := NewLiveSink(full, WithMetrics(met))
	c := &collectSink{}
	f := NewFanoutWith(met, live, c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 100 {
			f.OnPacket(audio.Packet{byte(i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("delivery blocked on a saturated sink")
	}

	packets, _ := c.count()
	assert.Equal(t, 100, packets)
	assert.Equal(t, int64(99), reader.Sum("ptt.sink.drops"))
}

func TestFanoutNamesSinks(t *testing.T) {
	assert.Equal(t, "live", newMember(NewLiveSink(make(chan audio.Packet))).name)
	assert.Equal(t, "*sink.collectSink", newMember(&collectSink{}).name)
}

func BenchmarkFanoutOnPacketHotPath(b *testing.B) {
	out := make(chan audio.Packet, 1)
	f := NewFanout(NewLiveSink(out), NewCounterSink(), audio.NopSink{})
	p := audio.Packet{1, 2, 3}

	b.ReportAllocs()
	b.ResetTimer()

	for b.Loop() {
		f.OnPacket(p)
	}
}
