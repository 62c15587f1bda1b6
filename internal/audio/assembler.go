// SPDX-License-Identifier: MIT
package audio

// FrameAssembler turns arbitrarily sized float chunks from the capture device
// into exact Frames. It is owned by the capture callback and not safe for
// concurrent use.
type FrameAssembler struct {
	frame  Frame // staging buffer, reused for every emitted frame
	filled int
}

// NewFrameAssembler returns an assembler emitting frames of n samples.
func NewFrameAssembler(n int) *FrameAssembler {
	if n <= 0 {
		n = FrameSize
	}
	return &FrameAssembler{frame: make(Frame, n)}
}

// Size returns the frame length in samples.
func (a *FrameAssembler) Size() int { return len(a.frame) }

// Buffered returns the number of samples carried towards the next frame.
func (a *FrameAssembler) Buffered() int { return a.filled }

// Push converts samples to PCM and calls emit for every frame completed by
// this chunk, in order. The remainder is kept for the next call.
//
// The Frame handed to emit aliases internal storage and is only valid until
// emit returns. If emit fails, the rest of the chunk is not consumed and the
// error is returned.
func (a *FrameAssembler) Push(samples []float32, emit func(Frame) error) error {
	n := len(a.frame)
	for len(samples) > 0 {
		take := min(n-a.filled, len(samples))
		dst := a.frame[a.filled : a.filled+take]
		for i, s := range samples[:take] {
			dst[i] = FloatToPCM(s)
		}
		a.filled += take
		samples = samples[take:]

		if a.filled == n {
			a.filled = 0
			if err := emit(a.frame); err != nil {
				return err
			}
		}
	}
	return nil
}

// Discard drops any partial frame and returns how many samples were lost.
// A partial frame is never zero-padded and encoded.
func (a *FrameAssembler) Discard() int {
	dropped := a.filled
	a.filled = 0
	return dropped
}
