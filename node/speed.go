package node

import (
	"fmt"
	"math"
	"time"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/pooling"
)

// integrationStep is the resolution used to integrate animated speed from
// the timeline start when a window doesn't continue the previous one.
const integrationStep = time.Millisecond

// Speed changes playback speed of its input. Factor 1 is normal speed, 2
// plays twice as fast. The factor is either static or sampled for every
// output sample from an animated parameter of a target.
type Speed struct {
	audiograph.Base
	speed  float64
	target any
	param  audiograph.Parameter

	// position of the animated source after the previous window
	next       time.Duration
	sourceNext time.Duration
	sampleRate int
}

// NewSpeed returns speed node with static factor.
func NewSpeed(speed float64) *Speed {
	return &Speed{
		Base:  audiograph.NewBase(KindSpeed),
		speed: speed,
	}
}

// NewAnimatedSpeed returns speed node which samples param of target.
func NewAnimatedSpeed(target any, param audiograph.Parameter) *Speed {
	return &Speed{
		Base:   audiograph.NewBase(KindSpeed),
		speed:  1,
		target: target,
		param:  param,
	}
}

// Speed returns static factor.
func (n *Speed) Speed() float64 {
	return n.speed
}

// Animated reports if speed is sampled from a parameter.
func (n *Speed) Animated() bool {
	return n.target != nil
}

// Key implements Keyed.
func (n *Speed) Key() Key {
	if n.target == nil {
		return Key{Kind: KindSpeed, Ref: n.speed}
	}
	return Key{Kind: KindSpeed, Ref: n.target, Param: n.param}
}

// Process implements audiograph.Node.
func (n *Speed) Process(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	if n.Animated() {
		return n.Evaluate(pc, n.animated)
	}
	return n.Evaluate(pc, n.static)
}

func (n *Speed) static(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	if n.speed <= 0 || math.IsNaN(n.speed) || math.IsInf(n.speed, 0) {
		return nil, fmt.Errorf("%w: speed %v", audiograph.ErrInvalidArgument, n.speed)
	}
	if n.speed == 1 {
		in, err := firstInput(&n.Base, pc)
		if err != nil {
			return nil, err
		}
		return in.Retain(), nil
	}
	r := pc.TimeRange()
	source := audiograph.Range(scale(r.Start, n.speed), scale(r.Duration, n.speed))
	in, err := firstInput(&n.Base, pc.WithTimeRange(source))
	if err != nil {
		return nil, err
	}
	out, err := audiograph.NewBuffer(pc.SampleRate(), in.Channels(), pc.SampleCount())
	if err != nil {
		return nil, err
	}
	if in.Samples() == 0 || out.Samples() == 0 {
		return out, nil
	}
	src, _ := in.Data()
	dst, _ := out.Data()
	for c := range dst {
		written, err := resampleChannel(src[c], dst[c], float64(in.Samples()), float64(out.Samples()))
		if err != nil {
			out.Release()
			return nil, err
		}
		hold(dst[c], written)
	}
	return out, nil
}

func (n *Speed) animated(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	sampler := pc.Sampler()
	if sampler == nil {
		return nil, fmt.Errorf("%w: animated speed requires sampler", audiograph.ErrInvalidOperation)
	}
	r := pc.TimeRange()
	rate := pc.SampleRate()
	count := pc.SampleCount()

	start := n.sourceNext
	if r.Start != n.next || rate != n.sampleRate {
		start = n.integrate(sampler, r.Start)
	}
	// positions[i] is the source offset of output sample i in samples
	p := pooling.Get(1, count+1)
	positions := p.Get()
	defer p.Put(positions)
	speeds := positions[1:]
	sampler.SampleBuffer(n.target, n.param, r, speeds)
	var sum float64
	for i, v := range speeds {
		positions[i] = sum
		sum += max(v, 0)
	}
	duration := time.Duration(sum / float64(rate) * float64(time.Second))

	in, err := firstInput(&n.Base, pc.WithTimeRange(audiograph.Range(start, duration)))
	if err != nil {
		return nil, err
	}
	out, err := audiograph.NewBuffer(rate, in.Channels(), count)
	if err != nil {
		return nil, err
	}
	src, _ := in.Data()
	dst, _ := out.Data()
	for c := range dst {
		for i := range dst[c] {
			dst[c][i] = interpolate(src[c], positions[i])
		}
	}
	n.next = r.End()
	n.sourceNext = start + duration
	n.sampleRate = rate
	return out, nil
}

// integrate returns source position reached at t when playing from zero.
func (n *Speed) integrate(sampler audiograph.AnimationSampler, t time.Duration) time.Duration {
	var pos float64
	for at := time.Duration(0); at < t; at += integrationStep {
		step := min(integrationStep, t-at)
		pos += max(sampler.Sample(n.target, n.param, at+step/2), 0) * float64(step)
	}
	return time.Duration(pos)
}

// Release implements audiograph.Node.
func (n *Speed) Release() error {
	n.next, n.sourceNext, n.sampleRate = 0, 0, 0
	return n.Base.Release()
}

func scale(d time.Duration, f float64) time.Duration {
	return time.Duration(float64(d) * f)
}

// hold fills samples after the first written ones with the last written
// value.
func hold(buf []float64, written int) {
	var tail float64
	if written > 0 {
		tail = buf[written-1]
	}
	for i := written; i < len(buf); i++ {
		buf[i] = tail
	}
}

// interpolate returns linearly interpolated value at fractional position.
// Positions outside of buf are silent.
func interpolate(buf []float64, pos float64) float64 {
	i := int(pos)
	if i < 0 || i >= len(buf) {
		return 0
	}
	if i+1 >= len(buf) {
		return buf[i]
	}
	frac := pos - float64(i)
	return buf[i] + (buf[i+1]-buf[i])*frac
}
