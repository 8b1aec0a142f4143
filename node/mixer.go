package node

import (
	"fmt"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/dsp"
)

// Mixer sums all inputs sample for sample. Inputs with fewer channels are
// wrapped around, so a mono input is spread over all channels. Mixer
// without inputs produces silence.
type Mixer struct {
	audiograph.Base
	channels int
}

// NewMixer returns mixer with provided number of output channels.
func NewMixer(channels int) *Mixer {
	return &Mixer{
		Base:     audiograph.NewBase(KindMixer),
		channels: channels,
	}
}

// Channels returns number of output channels.
func (n *Mixer) Channels() int {
	return n.channels
}

// Key implements Keyed.
func (n *Mixer) Key() Key {
	return Key{Kind: KindMixer, Rate: n.channels}
}

// Process implements audiograph.Node.
func (n *Mixer) Process(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	return n.Evaluate(pc, n.mix)
}

func (n *Mixer) mix(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	out, err := audiograph.NewBuffer(pc.SampleRate(), n.channels, pc.SampleCount())
	if err != nil {
		return nil, err
	}
	dst, _ := out.Data()
	for i := 0; i < n.NumInputs(); i++ {
		in, err := n.ProcessInput(pc, i)
		if err != nil {
			out.Release()
			return nil, err
		}
		if in.Samples() != out.Samples() {
			out.Release()
			return nil, fmt.Errorf("%w: mixer input %d has %d samples, expected %d", audiograph.ErrInvalidArgument, i, in.Samples(), out.Samples())
		}
		src, _ := in.Data()
		for c := range dst {
			if err := dsp.AddWithGain(src[c%len(src)], dst[c], 1); err != nil {
				out.Release()
				return nil, err
			}
		}
	}
	return out, nil
}
