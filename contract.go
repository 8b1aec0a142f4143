package audiograph

// SoundSource supplies raw samples for a time window. Decoding and I/O
// are implemented by the source.
type SoundSource interface {
	// Channels returns number of channels the source produces.
	Channels() int
	// Read fills out with samples of window r. Out has the source's
	// channel count and sample rate of the render pass.
	Read(r TimeRange, out *Buffer) error
}

// Effect is a factory of stateful effect processors.
type Effect interface {
	NewProcessor() EffectProcessor
}

// EffectProcessor transforms one buffer into another. In and out have the
// same shape.
type EffectProcessor interface {
	Process(in, out *Buffer, pc ProcessContext) error
	// Reset drops the processor state, e.g. delay lines.
	Reset()
}
