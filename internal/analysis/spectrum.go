// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math/bits"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

// WindowFunc defines the type for selecting an FFT window function.
type WindowFunc int

// Enum for available window functions.
const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

// Speech band edges used by VoiceRatio.
const (
	VoiceLowHz  = 300.0
	VoiceHighHz = 3400.0
)

// Spectrum computes windowed power spectra of fixed-size blocks. It keeps
// its buffers between calls and is not safe for concurrent use.
type Spectrum struct {
	fft        *fourier.FFT
	size       int
	sampleRate float64

	input  []float64
	coeffs []complex128
	power  []float64
	window []float64
}

// NewSpectrum returns a Spectrum over blocks of at least minSize samples;
// the transform size is rounded up to a power of two.
func NewSpectrum(minSize int, sampleRate float64, windowType WindowFunc) (*Spectrum, error) {
	if minSize <= 0 {
		return nil, fmt.Errorf("fft size must be positive, got %d", minSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	size := nextPowerOfTwo(minSize)

	coeffs := make([]float64, size)
	applyWindow(coeffs, windowType)

	// FFT output size for real input is N/2 + 1 complex values.
	bins := size/2 + 1
	return &Spectrum{
		fft:        fourier.NewFFT(size),
		size:       size,
		sampleRate: sampleRate,
		input:      make([]float64, size),
		coeffs:     make([]complex128, bins),
		power:      make([]float64, bins),
		window:     coeffs,
	}, nil
}

// Size returns the transform size.
func (s *Spectrum) Size() int { return s.size }

// FrequencyForBin returns the center frequency (Hz) of a bin.
func (s *Spectrum) FrequencyForBin(bin int) float64 {
	if bin < 0 || bin >= len(s.power) {
		return 0
	}
	return float64(bin) * s.sampleRate / float64(s.size)
}

// Power windows block (zero-padded or truncated to Size), transforms it and
// returns the per-bin power. The slice is reused by the next call.
func (s *Spectrum) Power(block []float32) []float64 {
	for i := range s.size {
		if i < len(block) {
			s.input[i] = float64(block[i]) * s.window[i]
		} else {
			s.input[i] = 0
		}
	}
	s.fft.Coefficients(s.coeffs, s.input)
	for i, c := range s.coeffs {
		s.power[i] = real(c)*real(c) + imag(c)*imag(c)
	}
	return s.power
}

// VoiceRatio returns the share of block's energy between VoiceLowHz and
// VoiceHighHz, in [0, 1]. A silent block yields 0.
func (s *Spectrum) VoiceRatio(block []float32) float64 {
	p := s.Power(block)
	total := floats.Sum(p)
	if total == 0 {
		return 0
	}
	res := s.sampleRate / float64(s.size)
	lo := int(VoiceLowHz / res)
	hi := min(int(VoiceHighHz/res)+1, len(p))
	return floats.Sum(p[lo:hi]) / total
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc
// enum, returns a known default (Hann) and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning", "":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window. Unknown types use Hann.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	// The gonum window functions scale in place.
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		window.Hann(coeffs)
	}
}

// nextPowerOfTwo returns the smallest power of two >= n, for n > 0.
func nextPowerOfTwo(n int) int {
	return 1 << bits.Len(uint(n-1))
}
