package source

import (
	"fmt"
	"io"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/go-audio/audio"
	"pipelined.dev/signal"

	"pipelined.dev/audiograph"
)

// PCM is an in-memory clip which starts at zero time. Windows outside of
// the clip are silent. If pass sample rate differs from the clip's, the
// clip is resampled once per rate and cached.
type PCM struct {
	sampleRate int
	data       [][]float64
	resampled  map[int][][]float64
}

// NewPCM returns clip of planar samples at sampleRate.
func NewPCM(sampleRate int, data [][]float64) (*PCM, error) {
	if sampleRate <= 0 || len(data) == 0 {
		return nil, fmt.Errorf("%w: pcm rate=%d channels=%d", audiograph.ErrInvalidArgument, sampleRate, len(data))
	}
	for c := range data[1:] {
		if len(data[c+1]) != len(data[0]) {
			return nil, fmt.Errorf("%w: channel %d length differs", audiograph.ErrInvalidArgument, c+1)
		}
	}
	return &PCM{
		sampleRate: sampleRate,
		data:       data,
		resampled:  make(map[int][][]float64),
	}, nil
}

// FromFloatBuffer returns clip of interleaved go-audio samples.
func FromFloatBuffer(b *audio.FloatBuffer) (*PCM, error) {
	if b == nil || b.Format == nil || b.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("%w: buffer without format", audiograph.ErrInvalidArgument)
	}
	channels := b.Format.NumChannels
	data := deinterleave(channels, len(b.Data)/channels, func(i int) float64 { return b.Data[i] })
	return NewPCM(b.Format.SampleRate, data)
}

// FromIntBuffer returns clip of interleaved go-audio integer samples.
// Values are scaled by the source bit depth, 16 bits if it's not set.
func FromIntBuffer(b *audio.IntBuffer) (*PCM, error) {
	if b == nil || b.Format == nil || b.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("%w: buffer without format", audiograph.ErrInvalidArgument)
	}
	bitDepth := b.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))
	channels := b.Format.NumChannels
	data := deinterleave(channels, len(b.Data)/channels, func(i int) float64 { return float64(b.Data[i]) / scale })
	return NewPCM(b.Format.SampleRate, data)
}

// FromSignal drains pipelined source function into a clip. Function is
// called with buffers of bufferSize samples until it returns io.EOF.
func FromSignal(fn func(signal.Floating) (int, error), sampleRate, channels, bufferSize int) (*PCM, error) {
	if channels <= 0 || bufferSize <= 0 {
		return nil, fmt.Errorf("%w: signal channels=%d buffer=%d", audiograph.ErrInvalidArgument, channels, bufferSize)
	}
	alloc := signal.GetPoolAllocator(channels, bufferSize, bufferSize)
	buf := alloc.Float64()
	defer buf.Free(alloc)

	data := make([][]float64, channels)
	for {
		read, err := fn(buf)
		if read > 0 {
			for c := range data {
				for i := 0; i < read; i++ {
					data[c] = append(data[c], buf.Sample(i*channels+c))
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return NewPCM(sampleRate, data)
}

func deinterleave(channels, length int, sample func(int) float64) [][]float64 {
	data := make([][]float64, channels)
	for c := range data {
		data[c] = make([]float64, length)
		for i := range data[c] {
			data[c][i] = sample(i*channels + c)
		}
	}
	return data
}

// SampleRate of the clip.
func (p *PCM) SampleRate() int {
	return p.sampleRate
}

// Length returns number of samples per channel.
func (p *PCM) Length() int {
	return len(p.data[0])
}

// Channels implements audiograph.SoundSource.
func (p *PCM) Channels() int {
	return len(p.data)
}

// Read implements audiograph.SoundSource.
func (p *PCM) Read(r audiograph.TimeRange, out *audiograph.Buffer) error {
	data, err := p.at(out.SampleRate())
	if err != nil {
		return err
	}
	dst, err := out.Data()
	if err != nil {
		return err
	}
	offset := audiograph.SamplesOf(r.Start, out.SampleRate())
	if r.Start < 0 {
		offset = -audiograph.SamplesOf(-r.Start, out.SampleRate())
	}
	for c := range dst {
		src := data[c%len(data)]
		for i := range dst[c] {
			if pos := offset + i; pos >= 0 && pos < len(src) {
				dst[c][i] = src[pos]
			} else {
				dst[c][i] = 0
			}
		}
	}
	return nil
}

func (p *PCM) at(sampleRate int) ([][]float64, error) {
	if sampleRate == p.sampleRate {
		return p.data, nil
	}
	if data, ok := p.resampled[sampleRate]; ok {
		return data, nil
	}
	data := make([][]float64, len(p.data))
	for c := range p.data {
		r, err := dspresample.NewForRates(
			float64(p.sampleRate),
			float64(sampleRate),
			dspresample.WithQuality(dspresample.QualityBest),
		)
		if err != nil {
			return nil, err
		}
		data[c] = r.Process(p.data[c])
	}
	p.resampled[sampleRate] = data
	return data, nil
}
