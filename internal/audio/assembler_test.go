// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"slices"
	"testing"
)

// ramp returns n samples whose PCM values count up from start.
func ramp(start, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32((start+i)%maxSample) / maxSample
	}
	return out
}

func TestFrameAssemblerChunking(t *testing.T) {
	tests := []struct {
		desc   string
		chunks []int
	}{
		{"Exact frame", []int{960}},
		{"Device sized chunks", []int{256, 256, 256, 256, 256}},
		{"Large chunk spans frames", []int{2500}},
		{"Single sample chunks", slices.Repeat([]int{1}, 1921)},
		{"Mixed", []int{10, 950, 1, 959, 3000, 7}},
		{"Empty chunks", []int{0, 960, 0, 0, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			asm := NewFrameAssembler(FrameSize)

			var got []int16
			frames := 0
			total := 0
			for _, n := range tt.chunks {
				err := asm.Push(ramp(total, n), func(f Frame) error {
					if len(f) != FrameSize {
						t.Fatalf("emitted frame of %d samples", len(f))
					}
					frames++
					got = append(got, f...)
					return nil
				})
				if err != nil {
					t.Fatalf("Push error: %v", err)
				}
				total += n
			}

			if want := total / FrameSize; frames != want {
				t.Errorf("frames = %d, want %d", frames, want)
			}
			if want := total % FrameSize; asm.Buffered() != want {
				t.Errorf("Buffered() = %d, want %d", asm.Buffered(), want)
			}
			for i, s := range got {
				if want := FloatToPCM(float32(i%maxSample) / maxSample); s != want {
					t.Fatalf("sample %d = %d, want %d (order not preserved)", i, s, want)
				}
			}
		})
	}
}

func TestFrameAssemblerDiscard(t *testing.T) {
	asm := NewFrameAssembler(FrameSize)
	emit := func(Frame) error { return nil }

	if err := asm.Push(ramp(0, 1000), emit); err != nil {
		t.Fatal(err)
	}
	if got := asm.Discard(); got != 40 {
		t.Errorf("Discard() = %d, want 40", got)
	}
	if asm.Buffered() != 0 {
		t.Errorf("Buffered() = %d after discard", asm.Buffered())
	}
	if got := asm.Discard(); got != 0 {
		t.Errorf("second Discard() = %d, want 0", got)
	}
}

func TestFrameAssemblerEmitError(t *testing.T) {
	asm := NewFrameAssembler(FrameSize)
	boom := errors.New("boom")

	calls := 0
	err := asm.Push(ramp(0, 3*FrameSize), func(Frame) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Push error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("emit called %d times, want 1", calls)
	}
}

func TestFrameAssemblerDefaultSize(t *testing.T) {
	if got := NewFrameAssembler(0).Size(); got != FrameSize {
		t.Errorf("Size() = %d, want %d", got, FrameSize)
	}
}

func TestFrameAssemblerPushAllocations(t *testing.T) {
	asm := NewFrameAssembler(FrameSize)
	chunk := ramp(0, 512)
	emit := func(Frame) error { return nil }

	allocs := testing.AllocsPerRun(100, func() {
		_ = asm.Push(chunk, emit)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Push, got %.1f", allocs)
	}
}

func BenchmarkFrameAssemblerPushHotPath(b *testing.B) {
	for _, size := range []int{64, 256, 960, 4096} {
		b.Run(formatInt(size), func(b *testing.B) {
			asm := NewFrameAssembler(FrameSize)
			chunk := ramp(0, size)
			emit := func(Frame) error { return nil }

			b.ReportAllocs()
			b.ResetTimer()

			for b.Loop() {
				_ = asm.Push(chunk, emit)
			}
		})
	}
}
