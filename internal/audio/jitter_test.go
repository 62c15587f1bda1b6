// SPDX-License-Identifier: MIT
package audio

import "testing"

func TestJitterBufferFIFO(t *testing.T) {
	j := NewJitterBuffer(0)

	var next float32
	var want float32
	pushes := []int{960, 100, 0, 2000}
	drains := []int{500, 500, 1000, 3000}

	for i := range pushes {
		in := make([]float32, pushes[i])
		for k := range in {
			next++
			in[k] = next
		}
		j.Push(in)

		before := j.Len()
		out := make([]float32, drains[i])
		n := j.Drain(out)
		if n != min(before, drains[i]) {
			t.Fatalf("Drain returned %d, want %d", n, min(before, drains[i]))
		}
		for k := 0; k < n; k++ {
			want++
			if out[k] != want {
				t.Fatalf("sample %v out of order, want %v", out[k], want)
			}
		}
		for k := n; k < len(out); k++ {
			if out[k] != 0 {
				t.Fatalf("shortfall sample %d = %v, want silence", k, out[k])
			}
		}
	}
	if j.Len() != 0 {
		t.Errorf("Len() = %d after draining everything", j.Len())
	}
}

func TestJitterBufferNeverBlocksEmpty(t *testing.T) {
	j := NewJitterBuffer(0)
	out := []float32{1, 2, 3}
	if n := j.Drain(out); n != 0 {
		t.Errorf("Drain on empty buffer = %d", n)
	}
	for i, s := range out {
		if s != 0 {
			t.Errorf("out[%d] = %v, want 0", i, s)
		}
	}
}

func TestJitterBufferBounded(t *testing.T) {
	j := NewJitterBuffer(1000)

	in := make([]float32, 1500)
	for i := range in {
		in[i] = float32(i)
	}
	j.Push(in)

	if j.Len() != 1000 {
		t.Fatalf("Len() = %d, want 1000", j.Len())
	}
	out := make([]float32, 1)
	j.Drain(out)
	if out[0] != 500 {
		t.Errorf("oldest kept sample = %v, want 500", out[0])
	}
}

func TestJitterBufferPushPCM(t *testing.T) {
	j := NewJitterBuffer(0)
	j.PushPCM([]int16{0, maxSample, -maxSample})

	out := make([]float32, 3)
	j.Drain(out)
	if out[0] != 0 || out[1] != 1 || out[2] != -1 {
		t.Errorf("PushPCM samples = %v", out)
	}
}

func TestJitterBufferSteadyStateAllocations(t *testing.T) {
	j := NewJitterBuffer(0)
	pcm := make([]int16, FrameSize)
	out := make([]float32, 512)

	// Warm up so the backing array reaches its steady size.
	for range 10 {
		j.PushPCM(pcm)
		for j.Len() >= len(out) {
			j.Drain(out)
		}
	}

	allocs := testing.AllocsPerRun(100, func() {
		j.PushPCM(pcm)
		for j.Len() >= len(out) {
			j.Drain(out)
		}
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in steady state, got %.1f", allocs)
	}
}
