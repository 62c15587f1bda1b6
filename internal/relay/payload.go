// SPDX-License-Identifier: MIT

// Package relay carries finished bursts between peers: Payload is the JSON
// wire form of a burst and Subscriber turns a stream of payloads back into
// packets for a Player.
package relay

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ptt/internal/audio"
)

// Payload is one burst on the wire. StartedAt is in unix seconds and each
// packet is standard base64 without padding.
type Payload struct {
	ID        string   `json:"id"`
	StartedAt int64    `json:"started_at"`
	Packets   []string `json:"packets"`
}

var b64 = base64.RawStdEncoding

// FromBurst encodes b under a fresh ID.
func FromBurst(b audio.Burst) Payload {
	p := Payload{
		ID:        uuid.NewString(),
		StartedAt: b.StartedAt.Unix(),
		Packets:   make([]string, len(b.Packets)),
	}
	for i, pkt := range b.Packets {
		p.Packets[i] = b64.EncodeToString(pkt)
	}
	return p
}

// Burst decodes the payload back into a burst.
func (p Payload) Burst() (audio.Burst, error) {
	b := audio.Burst{
		StartedAt: time.Unix(p.StartedAt, 0),
		Packets:   make([]audio.Packet, 0, len(p.Packets)),
	}
	for i, s := range p.Packets {
		pkt, err := b64.DecodeString(s)
		if err != nil {
			return audio.Burst{}, fmt.Errorf("relay payload %s: packet %d: %w", p.ID, i, err)
		}
		b.Packets = append(b.Packets, pkt)
	}
	return b, nil
}

// Duration is the audio length carried by the payload.
func (p Payload) Duration() time.Duration {
	return time.Duration(len(p.Packets)) * audio.FrameDuration
}

// Summary describes the payload in one line.
func (p Payload) Summary() string {
	return fmt.Sprintf("burst %s: %d packets (%s) started %s",
		p.ID, len(p.Packets), p.Duration(), time.Unix(p.StartedAt, 0).UTC().Format(time.RFC3339))
}
