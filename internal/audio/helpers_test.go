// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"strconv"
	"sync"
	"time"
)

func formatInt(n int) string {
	return strconv.Itoa(n)
}

// sineFrame returns one frame of a 440Hz tone at the given amplitude.
func sineFrame(amplitude float64) Frame {
	f := make(Frame, FrameSize)
	for i := range f {
		f[i] = int16(amplitude * maxSample * math.Sin(2*math.Pi*440*float64(i)/SampleRate))
	}
	return f
}

// fakeEncoder returns a distinct packet per frame: a sequence number
// followed by the frame's first sample.
type fakeEncoder struct {
	seq  int
	fail error
}

func (e *fakeEncoder) Encode(f Frame) (Packet, error) {
	if e.fail != nil {
		return nil, e.fail
	}
	e.seq++
	return Packet{byte(e.seq), byte(f[0]), byte(f[0] >> 8)}, nil
}

// fakeDecoder expands a packet into FrameSize samples of the packet's first
// byte; packets whose first byte is 0xff are rejected.
type fakeDecoder struct{}

func (fakeDecoder) Decode(p Packet) ([]int16, error) {
	if len(p) == 0 || p[0] == 0xff {
		return nil, &DecodeError{Size: len(p), Err: errEmptyPacket}
	}
	pcm := make([]int16, FrameSize)
	for i := range pcm {
		pcm[i] = int16(p[0]) * 100
	}
	return pcm, nil
}

// recordingSink captures everything the recorder delivers.
type recordingSink struct {
	mu      sync.Mutex
	packets []Packet
	bursts  []Burst
}

func (s *recordingSink) OnPacket(p Packet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packets = append(s.packets, p)
}

func (s *recordingSink) OnBurst(b Burst) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bursts = append(s.bursts, b)
}

// sliceSource serves packets from a slice.
type sliceSource struct {
	packets []Packet
}

func (s *sliceSource) TryRecv() (Packet, bool) {
	if len(s.packets) == 0 {
		return nil, false
	}
	p := s.packets[0]
	s.packets = s.packets[1:]
	return p, true
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
