package effect

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"pipelined.dev/audiograph"
)

// Lowpass is a second order low pass filter.
type Lowpass struct {
	// Cutoff frequency in Hz.
	Cutoff float64
	// Q is the resonance. Butterworth response is 1/sqrt(2).
	Q float64
}

// NewLowpass returns Butterworth low pass with provided cutoff.
func NewLowpass(cutoff float64) *Lowpass {
	return &Lowpass{
		Cutoff: cutoff,
		Q:      1 / math.Sqrt2,
	}
}

// NewProcessor implements audiograph.Effect.
func (l *Lowpass) NewProcessor() audiograph.EffectProcessor {
	return &biquad{filter: l}
}

type coefficients struct {
	b0, b1, b2, a1, a2 float64
}

func lowpassCoefficients(cutoff, q float64, sampleRate int) coefficients {
	nyquist := float64(sampleRate) / 2
	cutoff = clamp(cutoff, 1, nyquist*0.999)
	if q <= 0 {
		q = 1 / math.Sqrt2
	}
	w0 := 2 * math.Pi * cutoff / float64(sampleRate)
	cos, alpha := math.Cos(w0), math.Sin(w0)/(2*q)
	a0 := 1 + alpha
	return coefficients{
		b0: (1 - cos) / 2 / a0,
		b1: (1 - cos) / a0,
		b2: (1 - cos) / 2 / a0,
		a1: -2 * cos / a0,
		a2: (1 - alpha) / a0,
	}
}

// biquad is transposed direct form II with state per channel.
type biquad struct {
	filter     *Lowpass
	cutoff, q  float64
	sampleRate int
	c          coefficients
	z1, z2     []float64
}

func (f *biquad) Process(in, out *audiograph.Buffer, pc audiograph.ProcessContext) error {
	if err := in.CopyTo(out); err != nil {
		return err
	}
	if f.cutoff != f.filter.Cutoff || f.q != f.filter.Q || f.sampleRate != in.SampleRate() {
		f.cutoff, f.q, f.sampleRate = f.filter.Cutoff, f.filter.Q, in.SampleRate()
		f.c = lowpassCoefficients(f.cutoff, f.q, f.sampleRate)
	}
	if len(f.z1) != in.Channels() {
		f.z1 = make([]float64, in.Channels())
		f.z2 = make([]float64, in.Channels())
	}
	data, _ := out.Data()
	for ch, samples := range data {
		z1, z2 := f.z1[ch], f.z2[ch]
		for i, x := range samples {
			y := f.c.b0*x + z1
			z1 = f.c.b1*x - f.c.a1*y + z2
			z2 = f.c.b2*x - f.c.a2*y
			samples[i] = y
		}
		f.z1[ch], f.z2[ch] = dspcore.FlushDenormals(z1), dspcore.FlushDenormals(z2)
	}
	return nil
}

func (f *biquad) Reset() {
	clear(f.z1)
	clear(f.z2)
}
