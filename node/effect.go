package node

import (
	"fmt"
	"time"

	"pipelined.dev/audiograph"
)

// Effect applies an effect to its input. The processor is created on the
// first pass and reset when the requested window doesn't continue the
// previous one or the sample rate changes.
type Effect struct {
	audiograph.Base
	effect     audiograph.Effect
	processor  audiograph.EffectProcessor
	next       time.Duration
	sampleRate int
}

// NewEffect returns effect node.
func NewEffect(e audiograph.Effect) *Effect {
	return &Effect{
		Base:   audiograph.NewBase(KindEffect),
		effect: e,
	}
}

// Effect returns the applied effect.
func (n *Effect) Effect() audiograph.Effect {
	return n.effect
}

// Key implements Keyed.
func (n *Effect) Key() Key {
	return Key{Kind: KindEffect, Ref: n.effect}
}

// Reset drops processor state.
func (n *Effect) Reset() {
	if n.processor != nil {
		n.processor.Reset()
	}
}

// Process implements audiograph.Node.
func (n *Effect) Process(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	return n.Evaluate(pc, n.apply)
}

func (n *Effect) apply(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	if n.effect == nil {
		return nil, fmt.Errorf("%w: effect is not set", audiograph.ErrInvalidOperation)
	}
	in, err := firstInput(&n.Base, pc)
	if err != nil {
		return nil, err
	}
	window := pc.TimeRange()
	switch {
	case n.processor == nil:
		n.processor = n.effect.NewProcessor()
	case window.Start != n.next || pc.SampleRate() != n.sampleRate:
		n.processor.Reset()
	}
	out, err := audiograph.NewBuffer(in.SampleRate(), in.Channels(), in.Samples())
	if err != nil {
		return nil, err
	}
	if err := n.processor.Process(in, out, pc); err != nil {
		out.Release()
		n.processor.Reset()
		return nil, err
	}
	n.next = window.End()
	n.sampleRate = pc.SampleRate()
	return out, nil
}

// Release implements audiograph.Node.
func (n *Effect) Release() error {
	n.processor = nil
	return n.Base.Release()
}
