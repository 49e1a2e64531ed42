package waveform

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Spectrum converts sample windows into per-column magnitude bars for
// the frequency view.
type Spectrum struct {
	minFrequency  float64 // Lowest frequency shown (Hz)
	maxFrequency  float64 // Highest frequency shown (Hz)
	noiseFloor    float64 // Magnitude below which the view stays empty
	peakThreshold float64 // Minimum peak height as fraction of the highest peak
}

// NewSpectrum creates an analyser tuned for voice and music.
func NewSpectrum() *Spectrum {
	return &Spectrum{
		minFrequency:  40.0,
		maxFrequency:  4000.0,
		noiseFloor:    0.01,
		peakThreshold: 0.2,
	}
}

// Bars returns one normalized magnitude per column, in the range 0 to 1.
func (s *Spectrum) Bars(samples []float32, sampleRate, columns int) []float64 {
	bars := make([]float64, columns)
	if len(samples) < 2 || sampleRate <= 0 || columns <= 0 {
		return bars
	}

	// Apply a Hann window before the FFT to reduce spectral leakage.
	windowed := applyHannWindow(samples)
	complexSamples := make([]complex128, len(windowed))
	for i, sample := range windowed {
		complexSamples[i] = complex(float64(sample), 0)
	}
	spectrum := fft.FFT(complexSamples)

	// Only the first half of the spectrum is meaningful (Nyquist).
	spectrumHalf := spectrum[:len(spectrum)/2]
	binSizeHz := float64(sampleRate) / float64(len(spectrum))

	minBin := int(s.minFrequency / binSizeHz)
	if minBin < 1 {
		minBin = 1 // Avoid DC component
	}
	maxBin := int(s.maxFrequency / binSizeHz)
	if maxBin >= len(spectrumHalf) {
		maxBin = len(spectrumHalf) - 1
	}
	if maxBin <= minBin {
		return bars
	}

	// Group bins into columns, keeping the loudest bin per column.
	binsPerColumn := float64(maxBin-minBin+1) / float64(columns)
	maxMagnitude := 0.0
	for col := 0; col < columns; col++ {
		lo := minBin + int(float64(col)*binsPerColumn)
		hi := minBin + int(float64(col+1)*binsPerColumn)
		if hi > maxBin {
			hi = maxBin
		}
		for bin := lo; bin <= hi; bin++ {
			magnitude := cmplx.Abs(spectrumHalf[bin])
			if magnitude > bars[col] {
				bars[col] = magnitude
			}
		}
		if bars[col] > maxMagnitude {
			maxMagnitude = bars[col]
		}
	}

	if maxMagnitude < s.noiseFloor {
		for col := range bars {
			bars[col] = 0
		}
		return bars
	}
	for col := range bars {
		bars[col] /= maxMagnitude
	}
	return bars
}

// Peak estimates the dominant frequency in a sample window, in Hz. It
// returns 0 when the window has no clear peak.
func (s *Spectrum) Peak(samples []float32, sampleRate int) float64 {
	if len(samples) < 2 || sampleRate <= 0 {
		return 0
	}

	windowed := applyHannWindow(samples)
	complexSamples := make([]complex128, len(windowed))
	for i, sample := range windowed {
		complexSamples[i] = complex(float64(sample), 0)
	}
	spectrum := fft.FFT(complexSamples)

	spectrumHalf := spectrum[:len(spectrum)/2]
	binSizeHz := float64(sampleRate) / float64(len(spectrum))

	minBin := int(s.minFrequency / binSizeHz)
	if minBin < 1 {
		minBin = 1 // Avoid DC component
	}
	maxBin := int(s.maxFrequency / binSizeHz)
	if maxBin >= len(spectrumHalf) {
		maxBin = len(spectrumHalf) - 1
	}
	if maxBin <= minBin {
		return 0
	}

	maxMagnitude := 0.0
	for i := minBin; i <= maxBin; i++ {
		if magnitude := cmplx.Abs(spectrumHalf[i]); magnitude > maxMagnitude {
			maxMagnitude = magnitude
		}
	}
	if maxMagnitude < s.noiseFloor {
		return 0
	}

	best := 0.0
	bestMagnitude := 0.0
	for i := minBin + 1; i < maxBin; i++ {
		magnitude := cmplx.Abs(spectrumHalf[i])
		if magnitude <= cmplx.Abs(spectrumHalf[i-1]) ||
			magnitude <= cmplx.Abs(spectrumHalf[i+1]) ||
			magnitude < maxMagnitude*s.peakThreshold ||
			magnitude <= bestMagnitude {
			continue
		}

		// Quadratic interpolation sharpens the peak location between
		// bins.
		prev := cmplx.Abs(spectrumHalf[i-1])
		next := cmplx.Abs(spectrumHalf[i+1])
		freq := float64(i) * binSizeHz
		if denom := prev - 2*magnitude + next; denom != 0 {
			delta := 0.5 * (prev - next) / denom
			freq = (float64(i) + delta) * binSizeHz
		}
		best = freq
		bestMagnitude = magnitude
	}
	return best
}

// applyHannWindow applies a Hann window to the audio samples.
func applyHannWindow(samples []float32) []float32 {
	windowed := make([]float32, len(samples))
	for i, sample := range samples {
		coeff := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(len(samples)-1)))
		windowed[i] = sample * float32(coeff)
	}
	return windowed
}

// Level measures the loudness of a sample window. It returns the RMS
// amplitude and the approximate level in dBFS.
func Level(samples []float32) (rms float64, db float64) {
	if len(samples) == 0 {
		return 0, -100.0
	}
	sumSquares := 0.0
	for _, sample := range samples {
		v := float64(sample)
		sumSquares += v * v
	}
	rms = math.Sqrt(sumSquares / float64(len(samples)))

	db = -100.0          // Default very low value
	if rms > 0.0000001 { // Avoid log(0)
		db = 20 * math.Log10(rms)
	}
	return rms, db
}
