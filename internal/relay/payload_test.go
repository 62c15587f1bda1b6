// SPDX-License-Identifier: MIT
package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptt/internal/audio"
)

func testBurst() audio.Burst {
	return audio.Burst{
		StartedAt: time.Unix(1700000000, 0),
		Packets:   []audio.Packet{{0xfc, 0x01}, {0xfc, 0x02, 0x03}, {0xff}},
	}
}

func TestPayloadWireFormat(t *testing.T) {
	p := FromBurst(testBurst())

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, float64(1700000000), wire["started_at"])
	assert.NotEmpty(t, wire["id"])

	packets, ok := wire["packets"].([]any)
	require.True(t, ok)
	require.Len(t, packets, 3)
	assert.Equal(t, "/AE", packets[0], "standard alphabet, no padding")
	assert.Equal(t, "/w", packets[2])
}

func TestPayloadBurstRoundTrip(t *testing.T) {
	in := testBurst()
	out, err := FromBurst(in).Burst()
	require.NoError(t, err)

	assert.True(t, in.StartedAt.Equal(out.StartedAt))
	require.Len(t, out.Packets, len(in.Packets))
	for i := range in.Packets {
		assert.Equal(t, in.Packets[i], out.Packets[i])
	}
}

func TestPayloadUniqueIDs(t *testing.T) {
	a, b := FromBurst(testBurst()), FromBurst(testBurst())
	assert.NotEqual(t, a.ID, b.ID)
}

func TestPayloadBadPacket(t *testing.T) {
	p := Payload{ID: "x", Packets: []string{"AQ", "!!!"}}
	_, err := p.Burst()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "packet 1")
}

func TestPayloadSummary(t *testing.T) {
	p := FromBurst(testBurst())
	assert.Contains(t, p.Summary(), "3 packets")
	assert.Equal(t, 60*time.Millisecond, p.Duration())
}
