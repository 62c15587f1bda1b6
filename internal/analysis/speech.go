// SPDX-License-Identifier: MIT
package analysis

// SpeechDetector decides whether accumulated PCM is worth sending to a
// recognizer: it must be loud enough and carry most of its energy in the
// speech band.
type SpeechDetector struct {
	MinRMS        float64 // linear, full scale = 1
	MinVoiceRatio float64 // share of energy in the speech band

	spectrum *Spectrum
	scratch  []float64
}

// NewSpeechDetector returns a detector working on blocks of blockSize samples
// at sampleRate.
func NewSpeechDetector(blockSize int, sampleRate float64, w WindowFunc, minRMS, minVoiceRatio float64) (*SpeechDetector, error) {
	spectrum, err := NewSpectrum(blockSize, sampleRate, w)
	if err != nil {
		return nil, err
	}
	return &SpeechDetector{
		MinRMS:        minRMS,
		MinVoiceRatio: minVoiceRatio,
		spectrum:      spectrum,
	}, nil
}

// Level returns the RMS of pcm.
func (d *SpeechDetector) Level(pcm []float32) float64 {
	d.scratch = Widen(d.scratch, pcm)
	return RMS(d.scratch)
}

// IsSpeech reports whether pcm passes both thresholds. The voice ratio is
// averaged over the blocks whose own level passes MinRMS.
func (d *SpeechDetector) IsSpeech(pcm []float32) bool {
	if len(pcm) == 0 || d.Level(pcm) < d.MinRMS {
		return false
	}
	if d.MinVoiceRatio <= 0 {
		return true
	}

	n := d.spectrum.Size()
	var sum float64
	var blocks int
	for off := 0; off < len(pcm); off += n {
		block := pcm[off:min(off+n, len(pcm))]
		if d.Level(block) < d.MinRMS {
			continue
		}
		sum += d.spectrum.VoiceRatio(block)
		blocks++
	}
	return blocks > 0 && sum/float64(blocks) >= d.MinVoiceRatio
}
