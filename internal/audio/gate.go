// SPDX-License-Identifier: MIT
package audio

import "sync/atomic"

// Gate is the push-to-talk signal. It is written by the UI goroutine and read
// once per capture callback; only eventual visibility is required.
type Gate struct {
	pressed atomic.Bool
}

// NewGate returns a released gate.
func NewGate() *Gate {
	return &Gate{}
}

func (g *Gate) Press() {
	g.pressed.Store(true)
}

func (g *Gate) Release() {
	g.pressed.Store(false)
}

// Toggle flips the gate and returns the new state.
func (g *Gate) Toggle() bool {
	for {
		was := g.pressed.Load()
		if g.pressed.CompareAndSwap(was, !was) {
			return !was
		}
	}
}

// Pressed reports whether capture is requested.
func (g *Gate) Pressed() bool {
	return g.pressed.Load()
}
