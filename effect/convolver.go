package effect

import (
	"fmt"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"

	"pipelined.dev/audiograph"
)

// DefaultPartition is the partition size of overlap-add convolution.
const DefaultPartition = 256

// Convolver convolves every channel with an impulse response. If there are
// fewer responses than channels, they are reused in order.
type Convolver struct {
	responses [][]float64
	partition int
}

// NewConvolver returns convolver for provided impulse responses.
func NewConvolver(responses ...[]float64) (*Convolver, error) {
	if len(responses) == 0 {
		return nil, fmt.Errorf("%w: no impulse response", audiograph.ErrInvalidArgument)
	}
	for i, ir := range responses {
		if len(ir) == 0 {
			return nil, fmt.Errorf("%w: impulse response %d is empty", audiograph.ErrInvalidArgument, i)
		}
	}
	return &Convolver{
		responses: responses,
		partition: DefaultPartition,
	}, nil
}

// NewProcessor implements audiograph.Effect.
func (c *Convolver) NewProcessor() audiograph.EffectProcessor {
	return &convolution{convolver: c}
}

type convolution struct {
	convolver *Convolver
	ola       []*dspconv.OverlapAdd
	tails     [][]float64
}

func (p *convolution) Process(in, out *audiograph.Buffer, pc audiograph.ProcessContext) error {
	if err := p.prepare(in.Channels()); err != nil {
		return err
	}
	src, err := in.Data()
	if err != nil {
		return err
	}
	dst, err := out.Data()
	if err != nil {
		return err
	}
	if len(src) != len(dst) || in.Samples() != out.Samples() {
		return fmt.Errorf("%w: convolution shape", audiograph.ErrInvalidArgument)
	}
	for c := range src {
		if len(src[c]) == 0 {
			continue
		}
		full, err := p.ola[c].Process(src[c])
		if err != nil {
			return err
		}
		p.tails[c] = overlapAdd(full, p.tails[c], dst[c])
	}
	return nil
}

func (p *convolution) prepare(channels int) error {
	if len(p.ola) == channels {
		return nil
	}
	p.ola = make([]*dspconv.OverlapAdd, channels)
	p.tails = make([][]float64, channels)
	for c := range p.ola {
		ir := p.convolver.responses[c%len(p.convolver.responses)]
		ola, err := dspconv.NewOverlapAdd(ir, p.convolver.partition)
		if err != nil {
			p.ola = nil
			return err
		}
		p.ola[c] = ola
	}
	return nil
}

// overlapAdd writes the first len(out) samples of block convolution plus
// the carried tail into out and returns the new tail.
func overlapAdd(full, tail, out []float64) []float64 {
	clear(out)
	copy(out, full)
	n := min(len(tail), len(out))
	for i := 0; i < n; i++ {
		out[i] += tail[i]
	}

	rest := max(len(full)-len(out), len(tail)-len(out), 0)
	next := make([]float64, rest)
	if len(full) > len(out) {
		copy(next, full[len(out):])
	}
	for i := len(out); i < len(tail); i++ {
		next[i-len(out)] += tail[i]
	}
	return next
}

func (p *convolution) Reset() {
	for c := range p.ola {
		p.ola[c].Reset()
		p.tails[c] = nil
	}
}
