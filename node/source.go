package node

import (
	"fmt"

	"pipelined.dev/audiograph"
)

// Source produces samples of a sound source. Inputs are ignored.
type Source struct {
	audiograph.Base
	source audiograph.SoundSource
}

// NewSource returns source node for s.
func NewSource(s audiograph.SoundSource) *Source {
	return &Source{
		Base:   audiograph.NewBase(KindSource),
		source: s,
	}
}

// SoundSource returns the wrapped source.
func (n *Source) SoundSource() audiograph.SoundSource {
	return n.source
}

// Key implements Keyed.
func (n *Source) Key() Key {
	return Key{Kind: KindSource, Ref: n.source}
}

// Process implements audiograph.Node.
func (n *Source) Process(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	return n.Evaluate(pc, n.read)
}

func (n *Source) read(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	if n.source == nil {
		return nil, fmt.Errorf("%w: source is not set", audiograph.ErrInvalidOperation)
	}
	out, err := audiograph.NewBuffer(pc.SampleRate(), n.source.Channels(), pc.SampleCount())
	if err != nil {
		return nil, err
	}
	if err := n.source.Read(pc.TimeRange(), out); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}
