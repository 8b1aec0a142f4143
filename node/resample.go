package node

import (
	"fmt"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"

	"pipelined.dev/audiograph"
)

// Resample requests its input at the source sample rate and converts it to
// the sample rate of the pass.
type Resample struct {
	audiograph.Base
	sourceRate int
}

// NewResample returns resample node for input rendered at sourceRate.
func NewResample(sourceRate int) *Resample {
	return &Resample{
		Base:       audiograph.NewBase(KindResample),
		sourceRate: sourceRate,
	}
}

// SourceRate returns sample rate requested from input.
func (n *Resample) SourceRate() int {
	return n.sourceRate
}

// Key implements Keyed.
func (n *Resample) Key() Key {
	return Key{Kind: KindResample, Rate: n.sourceRate}
}

// Process implements audiograph.Node.
func (n *Resample) Process(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	return n.Evaluate(pc, n.resample)
}

func (n *Resample) resample(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	if n.sourceRate <= 0 {
		return nil, fmt.Errorf("%w: source rate %d", audiograph.ErrInvalidArgument, n.sourceRate)
	}
	in, err := firstInput(&n.Base, pc.WithSampleRate(n.sourceRate))
	if err != nil {
		return nil, err
	}
	if n.sourceRate == pc.SampleRate() {
		return in.Retain(), nil
	}
	out, err := audiograph.NewBuffer(pc.SampleRate(), in.Channels(), pc.SampleCount())
	if err != nil {
		return nil, err
	}
	if err := Convert(in, out); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// Convert resamples every channel of in into out. Result is truncated or
// padded with silence to the length of out.
func Convert(in, out *audiograph.Buffer) error {
	if in.Channels() != out.Channels() {
		return fmt.Errorf("%w: resample %d channels into %d", audiograph.ErrInvalidArgument, in.Channels(), out.Channels())
	}
	src, err := in.Data()
	if err != nil {
		return err
	}
	dst, err := out.Data()
	if err != nil {
		return err
	}
	for c := range src {
		n, err := resampleChannel(src[c], dst[c], float64(in.SampleRate()), float64(out.SampleRate()))
		if err != nil {
			return err
		}
		clear(dst[c][n:])
	}
	return nil
}

// resampleChannel converts src sampled at inRate into dst at outRate and
// returns number of samples written.
func resampleChannel(src, dst []float64, inRate, outRate float64) (int, error) {
	r, err := dspresample.NewForRates(inRate, outRate, dspresample.WithQuality(dspresample.QualityBest))
	if err != nil {
		return 0, err
	}
	return copy(dst, r.Process(src)), nil
}
