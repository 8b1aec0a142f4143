package effect

import (
	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/dsp"
)

// Limiter compresses magnitudes above Threshold by Ratio.
type Limiter struct {
	Threshold float64
	Ratio     float64
}

// NewProcessor implements audiograph.Effect.
func (l *Limiter) NewProcessor() audiograph.EffectProcessor {
	return stateless(func(c []float64) { dsp.ApplyLimiter(c, l.Threshold, l.Ratio) })
}

// SoftClipper saturates magnitudes above Threshold.
type SoftClipper struct {
	Threshold float64
}

// NewProcessor implements audiograph.Effect.
func (s *SoftClipper) NewProcessor() audiograph.EffectProcessor {
	return stateless(func(c []float64) { dsp.ApplySoftClipper(c, s.Threshold) })
}

// stateless applies fn to every channel.
type stateless func([]float64)

func (fn stateless) Process(in, out *audiograph.Buffer, pc audiograph.ProcessContext) error {
	if err := in.CopyTo(out); err != nil {
		return err
	}
	data, _ := out.Data()
	for _, c := range data {
		fn(c)
	}
	return nil
}

func (fn stateless) Reset() {}
