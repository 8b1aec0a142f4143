package node

import (
	"fmt"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/dsp"
	"pipelined.dev/audiograph/pooling"
)

// Gain scales its input. The factor is either static or sampled for every
// output sample from an animated parameter of a target.
type Gain struct {
	audiograph.Base
	gain   float64
	target any
	param  audiograph.Parameter
}

// NewGain returns gain node with static factor g.
func NewGain(g float64) *Gain {
	return &Gain{
		Base: audiograph.NewBase(KindGain),
		gain: g,
	}
}

// NewAnimatedGain returns gain node which samples param of target.
func NewAnimatedGain(target any, param audiograph.Parameter) *Gain {
	return &Gain{
		Base:   audiograph.NewBase(KindGain),
		gain:   1,
		target: target,
		param:  param,
	}
}

// Gain returns static factor.
func (n *Gain) Gain() float64 {
	return n.gain
}

// SetGain sets static factor.
func (n *Gain) SetGain(g float64) {
	n.gain = g
}

// Animated reports if gain is sampled from a parameter.
func (n *Gain) Animated() bool {
	return n.target != nil
}

// Key implements Keyed.
func (n *Gain) Key() Key {
	if n.target == nil {
		return Key{Kind: KindGain}
	}
	return Key{Kind: KindGain, Ref: n.target, Param: n.param}
}

// Process implements audiograph.Node.
func (n *Gain) Process(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	return n.Evaluate(pc, n.apply)
}

func (n *Gain) apply(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	in, err := firstInput(&n.Base, pc)
	if err != nil {
		return nil, err
	}
	out, err := in.Clone()
	if err != nil {
		return nil, err
	}
	data, _ := out.Data()
	if !n.Animated() {
		for _, c := range data {
			dsp.ApplyGain(c, n.gain)
		}
		return out, nil
	}

	sampler := pc.Sampler()
	if sampler == nil {
		out.Release()
		return nil, fmt.Errorf("%w: animated gain requires sampler", audiograph.ErrInvalidOperation)
	}
	p := pooling.Get(1, out.Samples())
	gains := p.Get()
	defer p.Put(gains)
	sampler.SampleBuffer(n.target, n.param, pc.TimeRange(), gains)
	for _, c := range data {
		if err := dsp.MultiplyBuffers(c, gains, c); err != nil {
			out.Release()
			return nil, err
		}
	}
	return out, nil
}
