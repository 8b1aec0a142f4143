package audiograph

import (
	"time"
)

// Parameter identifies an animatable property of a target object.
type Parameter string

// AnimationSampler provides values of animated parameters. Keyframes and
// easing are implemented by the owner of the sampler.
type AnimationSampler interface {
	// Sample returns value of param of target at time t.
	Sample(target any, param Parameter, t time.Duration) float64
	// SampleBuffer fills out with values spaced evenly over r, one
	// value per sample.
	SampleBuffer(target any, param Parameter, r TimeRange, out []float64)
}

// SamplerFunc adapts a function to AnimationSampler.
type SamplerFunc func(target any, param Parameter, t time.Duration) float64

// Sample calls fn.
func (fn SamplerFunc) Sample(target any, param Parameter, t time.Duration) float64 {
	return fn(target, param, t)
}

// SampleBuffer calls fn once per value.
func (fn SamplerFunc) SampleBuffer(target any, param Parameter, r TimeRange, out []float64) {
	SampleEvenly(fn, target, param, r, out)
}

// SampleEvenly fills out with sample values of s spaced evenly over r.
func SampleEvenly(s AnimationSampler, target any, param Parameter, r TimeRange, out []float64) {
	if len(out) == 0 {
		return
	}
	step := float64(r.Duration) / float64(len(out))
	for i := range out {
		out[i] = s.Sample(target, param, r.Start+time.Duration(float64(i)*step))
	}
}
