// SPDX-License-Identifier: MIT
package analysis

// Decimate downsamples src by an integer factor, averaging each group of
// factor samples into one. The trailing partial group is averaged over the
// samples it has. The result is appended to dst[:0].
func Decimate(dst, src []float32, factor int) []float32 {
	dst = dst[:0]
	if factor <= 1 {
		return append(dst, src...)
	}
	for off := 0; off < len(src); off += factor {
		group := src[off:min(off+factor, len(src))]
		var sum float32
		for _, s := range group {
			sum += s
		}
		dst = append(dst, sum/float32(len(group)))
	}
	return dst
}
