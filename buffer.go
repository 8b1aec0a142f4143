package audiograph

import (
	"fmt"
	"time"

	"github.com/go-audio/audio"
	"pipelined.dev/signal"

	"pipelined.dev/audiograph/pooling"
)

// Buffer is a pooled block of samples, split into channels of equal
// length. Buffer is reference counted: it's created with one reference,
// Retain adds one and Release drops one. When the last reference is
// dropped the block returns to the pool and any further use fails with
// ErrDisposed.
type Buffer struct {
	sampleRate int
	channels   int
	samples    int
	pool       *pooling.Pool
	data       []float64
	refs       int
}

// NewBuffer allocates a zeroed buffer from the shared pool.
func NewBuffer(sampleRate, channels, samples int) (*Buffer, error) {
	if sampleRate <= 0 || channels <= 0 || samples < 0 {
		return nil, fmt.Errorf("%w: buffer shape rate=%d channels=%d samples=%d", ErrInvalidArgument, sampleRate, channels, samples)
	}
	p := pooling.Get(channels, samples)
	return &Buffer{
		sampleRate: sampleRate,
		channels:   channels,
		samples:    samples,
		pool:       p,
		data:       p.Get(),
		refs:       1,
	}, nil
}

// SampleRate of the buffer.
func (b *Buffer) SampleRate() int {
	return b.sampleRate
}

// Channels returns number of channels.
func (b *Buffer) Channels() int {
	return b.channels
}

// Samples returns number of samples per channel.
func (b *Buffer) Samples() int {
	return b.samples
}

// Duration returns buffer duration.
func (b *Buffer) Duration() time.Duration {
	return DurationOf(b.samples, b.sampleRate)
}

// Released reports if the block was returned to the pool.
func (b *Buffer) Released() bool {
	return b.refs == 0
}

// Channel returns view of channel c samples. The view is valid until the
// buffer is released.
func (b *Buffer) Channel(c int) ([]float64, error) {
	if b.Released() {
		return nil, ErrDisposed
	}
	if c < 0 || c >= b.channels {
		return nil, fmt.Errorf("%w: channel %d of %d", ErrOutOfRange, c, b.channels)
	}
	return b.channel(c), nil
}

func (b *Buffer) channel(c int) []float64 {
	return b.data[c*b.samples : (c+1)*b.samples : (c+1)*b.samples]
}

// Data returns views of all channels.
func (b *Buffer) Data() ([][]float64, error) {
	if b.Released() {
		return nil, ErrDisposed
	}
	data := make([][]float64, b.channels)
	for c := range data {
		data[c] = b.channel(c)
	}
	return data, nil
}

// Clear zero-fills the buffer.
func (b *Buffer) Clear() error {
	if b.Released() {
		return ErrDisposed
	}
	clear(b.data)
	return nil
}

// SameShape reports if both buffers have equal sample rate, channels and
// samples.
func (b *Buffer) SameShape(o *Buffer) bool {
	return b.sampleRate == o.sampleRate && b.channels == o.channels && b.samples == o.samples
}

// CopyTo copies samples into dst. Buffers must have the same shape.
func (b *Buffer) CopyTo(dst *Buffer) error {
	if b.Released() || dst.Released() {
		return ErrDisposed
	}
	if !b.SameShape(dst) {
		return fmt.Errorf("%w: copy %s to %s", ErrInvalidArgument, b.shape(), dst.shape())
	}
	copy(dst.data, b.data)
	return nil
}

// Clone returns a new buffer with copy of samples.
func (b *Buffer) Clone() (*Buffer, error) {
	if b.Released() {
		return nil, ErrDisposed
	}
	c, err := NewBuffer(b.sampleRate, b.channels, b.samples)
	if err != nil {
		return nil, err
	}
	copy(c.data, b.data)
	return c, nil
}

// Retain adds a reference and returns the same buffer.
func (b *Buffer) Retain() *Buffer {
	if !b.Released() {
		b.refs++
	}
	return b
}

// Release drops a reference. Releasing a released buffer is a no-op.
func (b *Buffer) Release() {
	if b.Released() {
		return
	}
	b.refs--
	if b.refs == 0 {
		b.pool.Put(b.data)
		b.data = nil
	}
}

// AsFloatBuffer returns interleaved copy of samples.
func (b *Buffer) AsFloatBuffer() (*audio.FloatBuffer, error) {
	if b.Released() {
		return nil, ErrDisposed
	}
	fb := &audio.FloatBuffer{
		Format: &audio.Format{
			NumChannels: b.channels,
			SampleRate:  b.sampleRate,
		},
		Data: make([]float64, b.channels*b.samples),
	}
	for c := 0; c < b.channels; c++ {
		for i, v := range b.channel(c) {
			fb.Data[i*b.channels+c] = v
		}
	}
	return fb, nil
}

// WriteFloating copies samples into pipelined signal buffer. Number of
// samples per channel written is returned.
func (b *Buffer) WriteFloating(dst signal.Floating) (int, error) {
	data, err := b.Data()
	if err != nil {
		return 0, err
	}
	return signal.WriteStripedFloat64(data, dst), nil
}

func (b *Buffer) shape() string {
	return fmt.Sprintf("(rate=%d channels=%d samples=%d)", b.sampleRate, b.channels, b.samples)
}
