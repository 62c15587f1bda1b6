// SPDX-License-Identifier: MIT
package audio

import (
	"sync"
	"testing"
)

func TestGatePressRelease(t *testing.T) {
	gate := NewGate()

	if gate.Pressed() {
		t.Error("Gate should be released initially")
	}

	gate.Press()
	if !gate.Pressed() {
		t.Error("Gate should be pressed after Press()")
	}

	gate.Release()
	if gate.Pressed() {
		t.Error("Gate should be released after Release()")
	}

	gate.Press()
	gate.Press() // Multiple calls should be idempotent
	if !gate.Pressed() {
		t.Error("Gate should remain pressed after multiple Press()")
	}

	gate.Release()
	gate.Release() // Multiple calls should be idempotent
	if gate.Pressed() {
		t.Error("Gate should remain released after multiple Release()")
	}
}

func TestGateToggle(t *testing.T) {
	gate := NewGate()

	tests := []struct {
		desc string
		want bool
	}{
		{"First toggle presses", true},
		{"Second toggle releases", false},
		{"Third toggle presses", true},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := gate.Toggle(); got != tt.want {
				t.Errorf("Toggle() = %v, want %v", got, tt.want)
			}
			if gate.Pressed() != tt.want {
				t.Errorf("Pressed() = %v after toggle, want %v", gate.Pressed(), tt.want)
			}
		})
	}
}

func TestGateConcurrentToggle(t *testing.T) {
	gate := NewGate()

	const n = 1000 // even, so the gate ends where it started
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gate.Toggle()
		}()
	}
	wg.Wait()

	if gate.Pressed() {
		t.Error("Gate should be released after an even number of toggles")
	}
}

func BenchmarkGatePressedHotPath(b *testing.B) {
	gate := NewGate()
	gate.Press()

	b.ReportAllocs()
	b.ResetTimer()

	for b.Loop() {
		_ = gate.Pressed()
	}
}
