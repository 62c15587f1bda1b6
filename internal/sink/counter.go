// SPDX-License-Identifier: MIT
package sink

import (
	"sync/atomic"

	"ptt/internal/audio"
)

// CounterSink counts what passes through it. It is read by the UI.
type CounterSink struct {
	packets atomic.Int64
	bursts  atomic.Int64
	frames  atomic.Int64 // packets carried by delivered bursts
}

func NewCounterSink() *CounterSink { return &CounterSink{} }

func (c *CounterSink) Name() string { return "counter" }

func (c *CounterSink) OnPacket(audio.Packet) { c.packets.Add(1) }

func (c *CounterSink) OnBurst(b audio.Burst) {
	c.bursts.Add(1)
	c.frames.Add(int64(b.Len()))
}

// Packets returns the number of packets seen.
func (c *CounterSink) Packets() int64 { return c.packets.Load() }

// Bursts returns the number of bursts seen.
func (c *CounterSink) Bursts() int64 { return c.bursts.Load() }

// BurstPackets returns the total packet count across delivered bursts.
func (c *CounterSink) BurstPackets() int64 { return c.frames.Load() }
