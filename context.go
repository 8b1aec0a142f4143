package audiograph

import (
	"context"
)

// ProcessContext describes the window being rendered. It's an immutable
// value: derived contexts are returned by With methods.
type ProcessContext struct {
	ctx        context.Context
	timeRange  TimeRange
	original   TimeRange
	sampleRate int
	sampler    AnimationSampler
}

// NewProcessContext returns context for rendering r at sampleRate. Sampler
// can be nil if graph has no animated parameters.
func NewProcessContext(ctx context.Context, r TimeRange, sampleRate int, sampler AnimationSampler) ProcessContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return ProcessContext{
		ctx:        ctx,
		timeRange:  r,
		original:   r,
		sampleRate: sampleRate,
		sampler:    sampler,
	}
}

// TimeRange returns the window requested from the node.
func (pc ProcessContext) TimeRange() TimeRange {
	return pc.timeRange
}

// OriginalTimeRange returns the window requested from the graph, before
// any node derived a narrowed or shifted one.
func (pc ProcessContext) OriginalTimeRange() TimeRange {
	return pc.original
}

// SampleRate of the render pass.
func (pc ProcessContext) SampleRate() int {
	return pc.sampleRate
}

// Sampler returns animation sampler, nil if none was provided.
func (pc ProcessContext) Sampler() AnimationSampler {
	return pc.sampler
}

// SampleCount returns number of samples in the window.
func (pc ProcessContext) SampleCount() int {
	return SamplesOf(pc.timeRange.Duration, pc.sampleRate)
}

// Context returns the cancellation context of the pass.
func (pc ProcessContext) Context() context.Context {
	if pc.ctx == nil {
		return context.Background()
	}
	return pc.ctx
}

// Err returns non-nil error if pass was canceled.
func (pc ProcessContext) Err() error {
	if pc.ctx == nil {
		return nil
	}
	return pc.ctx.Err()
}

// WithTimeRange returns context for a different window. Original window
// is kept.
func (pc ProcessContext) WithTimeRange(r TimeRange) ProcessContext {
	pc.timeRange = r
	return pc
}

// WithSampleRate returns context with different sample rate.
func (pc ProcessContext) WithSampleRate(sampleRate int) ProcessContext {
	pc.sampleRate = sampleRate
	return pc
}
