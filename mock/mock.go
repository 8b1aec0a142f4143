// Package mock provides mocks for graph components and allows to execute
// integration tests.
package mock

import (
	"time"

	"pipelined.dev/audiograph"
)

// counter counts calls and samples.
type counter struct {
	calls   int
	samples int
}

// advance counter's metrics.
func (c *counter) advance(size int) {
	c.calls++
	c.samples = c.samples + size
}

// Count returns calls and samples metrics.
func (c *counter) Count() (int, int) {
	return c.calls, c.samples
}

// Source mocks audiograph.SoundSource. Every sample of every channel is
// set to Value.
type Source struct {
	counter
	NumChannels int
	Value       float64
	ErrorOnCall error

	// Ranges keeps requested windows.
	Ranges []audiograph.TimeRange
}

// Channels returns number of channels.
func (m *Source) Channels() int {
	if m.NumChannels == 0 {
		return 1
	}
	return m.NumChannels
}

// Read fills out with Value.
func (m *Source) Read(r audiograph.TimeRange, out *audiograph.Buffer) error {
	if m.ErrorOnCall != nil {
		return m.ErrorOnCall
	}
	m.Ranges = append(m.Ranges, r)
	data, err := out.Data()
	if err != nil {
		return err
	}
	for _, c := range data {
		for i := range c {
			c[i] = m.Value
		}
	}
	m.advance(out.Samples())
	return nil
}

// Node mocks audiograph.Node. Output is the sum of inputs plus Value.
type Node struct {
	audiograph.Base
	counter
	NumChannels int
	Value       float64
	ErrorOnCall error

	// Hook is called before each computation.
	Hook func(audiograph.ProcessContext)

	// ErrorOnRelease is returned by Release.
	ErrorOnRelease error
	Releases       int
}

// NewNode returns mock node.
func NewNode(value float64) *Node {
	return &Node{
		Base:  audiograph.NewBase("mock"),
		Value: value,
	}
}

// Process implements audiograph.Node.
func (m *Node) Process(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	return m.Evaluate(pc, m.compute)
}

func (m *Node) compute(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	if m.Hook != nil {
		m.Hook(pc)
	}
	if m.ErrorOnCall != nil {
		return nil, m.ErrorOnCall
	}
	channels := m.NumChannels
	if channels == 0 {
		channels = 1
	}
	out, err := audiograph.NewBuffer(pc.SampleRate(), channels, pc.SampleCount())
	if err != nil {
		return nil, err
	}
	data, _ := out.Data()
	for _, c := range data {
		for i := range c {
			c[i] = m.Value
		}
	}
	for i := 0; i < m.NumInputs(); i++ {
		in, err := m.ProcessInput(pc, i)
		if err != nil {
			out.Release()
			return nil, err
		}
		for c := range data {
			src, err := in.Channel(c % in.Channels())
			if err != nil {
				out.Release()
				return nil, err
			}
			for j := range data[c] {
				data[c][j] += src[j]
			}
		}
	}
	m.advance(out.Samples())
	return out, nil
}

// Release implements audiograph.Node.
func (m *Node) Release() error {
	m.Releases++
	m.Base.Release()
	return m.ErrorOnRelease
}

// Sampler mocks audiograph.AnimationSampler. Value is computed by Func if
// it's set, otherwise Value is returned.
type Sampler struct {
	counter
	Value float64
	Func  func(target any, param audiograph.Parameter, t time.Duration) float64
}

// Sample implements audiograph.AnimationSampler.
func (m *Sampler) Sample(target any, param audiograph.Parameter, t time.Duration) float64 {
	m.advance(1)
	if m.Func != nil {
		return m.Func(target, param, t)
	}
	return m.Value
}

// SampleBuffer implements audiograph.AnimationSampler.
func (m *Sampler) SampleBuffer(target any, param audiograph.Parameter, r audiograph.TimeRange, out []float64) {
	audiograph.SampleEvenly(m, target, param, r, out)
}

// Effect mocks audiograph.Effect. Its processors multiply samples by Gain.
type Effect struct {
	counter
	Gain        float64
	ErrorOnCall error
	Processors  int
	Resets      int
}

// NewProcessor implements audiograph.Effect.
func (m *Effect) NewProcessor() audiograph.EffectProcessor {
	m.Processors++
	return &processor{m}
}

type processor struct {
	*Effect
}

func (p *processor) Process(in, out *audiograph.Buffer, pc audiograph.ProcessContext) error {
	if p.ErrorOnCall != nil {
		return p.ErrorOnCall
	}
	src, err := in.Data()
	if err != nil {
		return err
	}
	dst, err := out.Data()
	if err != nil {
		return err
	}
	for c := range dst {
		for i := range dst[c] {
			dst[c][i] = src[c][i] * p.Gain
		}
	}
	p.advance(in.Samples())
	return nil
}

func (p *processor) Reset() {
	p.Resets++
}
