// SPDX-License-Identifier: MIT
package audio

import "time"

// Burst is every packet captured during one contiguous gate-open interval, in
// production order. Bursts are only ever delivered non-empty.
type Burst struct {
	StartedAt time.Time
	Packets   []Packet
}

// Len returns the number of packets in the burst.
func (b Burst) Len() int { return len(b.Packets) }

// Duration is the audio length carried by the burst.
func (b Burst) Duration() time.Duration {
	return time.Duration(len(b.Packets)) * FrameDuration
}

// BurstAccumulator collects the packets of the currently open interval.
type BurstAccumulator struct {
	burst Burst
}

// Start opens a new, empty burst stamped with the capture start time.
func (a *BurstAccumulator) Start(at time.Time) {
	a.burst = Burst{StartedAt: at}
}

func (a *BurstAccumulator) Push(p Packet) {
	a.burst.Packets = append(a.burst.Packets, p)
}

func (a *BurstAccumulator) Empty() bool {
	return len(a.burst.Packets) == 0
}

// Take returns the accumulated burst and resets the accumulator. The packet
// slice is handed over, not copied, so a fresh one is allocated next time.
func (a *BurstAccumulator) Take() Burst {
	b := a.burst
	a.burst = Burst{}
	return b
}
