// SPDX-License-Identifier: MIT
package sink

import (
	"errors"
	"sync"

	"ptt/internal/audio"
)

// constDecoder expands a packet into audio.FrameSize samples equal to the
// packet's first byte times 100. Packets starting with 0xff fail.
type constDecoder struct{}

func (constDecoder) Decode(p audio.Packet) ([]int16, error) {
	if len(p) == 0 || p[0] == 0xff {
		return nil, &audio.DecodeError{Size: len(p), Err: errors.New("bad packet")}
	}
	pcm := make([]int16, audio.FrameSize)
	for i := range pcm {
		pcm[i] = int16(p[0]) * 100
	}
	return pcm, nil
}

// collectSink records deliveries.
type collectSink struct {
	mu      sync.Mutex
	packets []audio.Packet
	bursts  []audio.Burst
}

func (c *collectSink) OnPacket(p audio.Packet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packets = append(c.packets, p)
}

func (c *collectSink) OnBurst(b audio.Burst) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bursts = append(c.bursts, b)
}

func (c *collectSink) count() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.packets), len(c.bursts)
}

// panicSink fails on every delivery.
type panicSink struct{}

func (panicSink) OnPacket(audio.Packet) { panic("packet boom") }
func (panicSink) OnBurst(audio.Burst)   { panic("burst boom") }

// mockTransport records payloads.
type mockTransport struct {
	mu   sync.Mutex
	sent []any
	err  error
}

func (m *mockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, data)
	return m.err
}

func (m *mockTransport) Close() error { return nil }

func (m *mockTransport) payloads() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]any(nil), m.sent...)
}

func burstOf(packets ...audio.Packet) audio.Burst {
	return audio.Burst{Packets: packets}
}
