// SPDX-License-Identifier: MIT
package audio

// JitterBuffer is a FIFO of decoded mono samples that absorbs the difference
// between packet arrival and device pull cadence. It is owned by the playback
// callback: written by the decode step, drained by the output step.
type JitterBuffer struct {
	buf  []float32
	head int
	max  int
}

// NewJitterBuffer returns an empty buffer. maxSamples > 0 caps the buffered
// audio; on overflow the oldest samples are dropped. 0 means unbounded.
func NewJitterBuffer(maxSamples int) *JitterBuffer {
	return &JitterBuffer{
		buf: make([]float32, 0, FrameSize*4),
		max: max(maxSamples, 0),
	}
}

// Len returns the number of buffered samples.
func (j *JitterBuffer) Len() int { return len(j.buf) - j.head }

// Push appends samples to the tail.
func (j *JitterBuffer) Push(samples []float32) {
	j.compact()
	j.buf = append(j.buf, samples...)
	if j.max > 0 && j.Len() > j.max {
		j.head += j.Len() - j.max
	}
}

// PushPCM appends int16 samples converted to float.
func (j *JitterBuffer) PushPCM(pcm []int16) {
	j.compact()
	for _, s := range pcm {
		j.buf = append(j.buf, PCMToFloat(s))
	}
	if j.max > 0 && j.Len() > j.max {
		j.head += j.Len() - j.max
	}
}

// Drain writes exactly len(dst) samples into dst. It never blocks: when fewer
// samples are buffered the shortfall is written as silence. It returns the
// number of real samples written.
func (j *JitterBuffer) Drain(dst []float32) int {
	n := copy(dst, j.buf[j.head:])
	j.head += n
	clear(dst[n:])
	if j.head == len(j.buf) {
		j.buf = j.buf[:0]
		j.head = 0
	}
	return n
}

// compact moves live samples to the front once the consumed prefix dominates,
// so steady-state operation reuses the same backing array.
func (j *JitterBuffer) compact() {
	if j.head == 0 || j.head < len(j.buf)/2 {
		return
	}
	n := copy(j.buf, j.buf[j.head:])
	j.buf = j.buf[:n]
	j.head = 0
}
