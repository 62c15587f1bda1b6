// SPDX-License-Identifier: MIT
package audio

// Sink receives the recorder's output. OnPacket is called for every encoded
// frame while the gate is pressed; OnBurst once per released interval that
// produced packets. Both run on the capture callback and must not block.
type Sink interface {
	OnPacket(p Packet)
	OnBurst(b Burst)
}

// NopSink provides no-op defaults. Embed it to subscribe to one event only.
type NopSink struct{}

func (NopSink) OnPacket(Packet) {}
func (NopSink) OnBurst(Burst)   {}

// Source is the pull side feeding a Player. TryRecv never blocks.
type Source interface {
	TryRecv() (Packet, bool)
}

// ChanSource adapts a packet channel to Source.
type ChanSource <-chan Packet

func (c ChanSource) TryRecv() (Packet, bool) {
	select {
	case p, ok := <-c:
		return p, ok
	default:
		return nil, false
	}
}

var (
	_ Sink   = NopSink{}
	_ Source = ChanSource(nil)
)
