package effect

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"pipelined.dev/audiograph"
)

// Delay parameter limits and defaults.
const (
	MaxDelayTime     = 5000.0
	DefaultDelayTime = 200.0
	DefaultFeedback  = 50.0
	DefaultDryMix    = 60.0
	DefaultWetMix    = 40.0
)

// Delay is a feedback delay. Time is in milliseconds, feedback and mixes
// are in percents.
type Delay struct {
	delayTime float64
	feedback  float64
	dryMix    float64
	wetMix    float64
}

// NewDelay returns delay with default parameters.
func NewDelay() *Delay {
	return &Delay{
		delayTime: DefaultDelayTime,
		feedback:  DefaultFeedback,
		dryMix:    DefaultDryMix,
		wetMix:    DefaultWetMix,
	}
}

// DelayTime in milliseconds.
func (d *Delay) DelayTime() float64 { return d.delayTime }

// SetDelayTime sets delay time clamped to [0, 5000] ms.
func (d *Delay) SetDelayTime(ms float64) { d.delayTime = clamp(ms, 0, MaxDelayTime) }

// Feedback in percents.
func (d *Delay) Feedback() float64 { return d.feedback }

// SetFeedback sets feedback clamped to [0, 100] %.
func (d *Delay) SetFeedback(p float64) { d.feedback = clamp(p, 0, 100) }

// DryMix in percents.
func (d *Delay) DryMix() float64 { return d.dryMix }

// SetDryMix sets dry level clamped to [0, 100] %.
func (d *Delay) SetDryMix(p float64) { d.dryMix = clamp(p, 0, 100) }

// WetMix in percents.
func (d *Delay) WetMix() float64 { return d.wetMix }

// SetWetMix sets wet level clamped to [0, 100] %.
func (d *Delay) SetWetMix(p float64) { d.wetMix = clamp(p, 0, 100) }

// NewProcessor implements audiograph.Effect.
func (d *Delay) NewProcessor() audiograph.EffectProcessor {
	return &delayProcessor{delay: d}
}

type delayProcessor struct {
	delay      *Delay
	sampleRate int
	lines      [][]float64
	pos        int
}

func (p *delayProcessor) Process(in, out *audiograph.Buffer, pc audiograph.ProcessContext) error {
	if err := in.CopyTo(out); err != nil {
		return err
	}
	size := int(math.Round(p.delay.delayTime * float64(in.SampleRate()) / 1000))
	if size == 0 {
		return nil
	}
	p.prepare(in.SampleRate(), in.Channels(), size)

	var (
		feedback = p.delay.feedback / 100
		dry      = p.delay.dryMix / 100
		wet      = p.delay.wetMix / 100
		pos      int
	)
	data, _ := out.Data()
	for c, samples := range data {
		line := p.lines[c]
		pos = p.pos
		for i, x := range samples {
			delayed := line[pos]
			line[pos] = dspcore.FlushDenormals(x + delayed*feedback)
			samples[i] = x*dry + delayed*wet
			if pos++; pos == len(line) {
				pos = 0
			}
		}
	}
	p.pos = pos
	return nil
}

// prepare allocates delay lines if shape changed.
func (p *delayProcessor) prepare(sampleRate, channels, size int) {
	if p.sampleRate == sampleRate && len(p.lines) == channels && len(p.lines[0]) == size {
		return
	}
	p.sampleRate = sampleRate
	p.lines = make([][]float64, channels)
	for c := range p.lines {
		p.lines[c] = make([]float64, size)
	}
	p.pos = 0
}

func (p *delayProcessor) Reset() {
	for _, line := range p.lines {
		clear(line)
	}
	p.pos = 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
