// Package wav encodes rendered buffers to wav files and decodes wav files
// into sound sources.
package wav

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/source"
)

const pcmFormat = 1

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("only 16, 24 and 32 bit depth is supported")

// Sink encodes buffers into wav stream. All written buffers must have
// sample rate and channels of the sink.
type Sink struct {
	sampleRate int
	channels   int
	bitDepth   int
	encoder    *wav.Encoder
	closer     io.Closer
	ib         *audio.IntBuffer
}

// NewSink returns sink which writes to w.
func NewSink(w io.WriteSeeker, sampleRate, channels, bitDepth int) (*Sink, error) {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, ErrUnsupportedBitDepth
	}
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: wav rate=%d channels=%d", audiograph.ErrInvalidArgument, sampleRate, channels)
	}
	return &Sink{
		sampleRate: sampleRate,
		channels:   channels,
		bitDepth:   bitDepth,
		encoder:    wav.NewEncoder(w, sampleRate, bitDepth, channels, pcmFormat),
		ib: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Create creates file at path and returns sink which writes to it. The
// file is closed with the sink.
func Create(path string, sampleRate, channels, bitDepth int) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s, err := NewSink(f, sampleRate, channels, bitDepth)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// Write encodes b.
func (s *Sink) Write(b *audiograph.Buffer) error {
	if b.SampleRate() != s.sampleRate || b.Channels() != s.channels {
		return fmt.Errorf("%w: buffer rate=%d channels=%d, sink rate=%d channels=%d", audiograph.ErrInvalidArgument, b.SampleRate(), b.Channels(), s.sampleRate, s.channels)
	}
	fb, err := b.AsFloatBuffer()
	if err != nil {
		return err
	}
	return s.write(fb.Data)
}

// WriteFloat encodes interleaved buffer, for example composer output.
func (s *Sink) WriteFloat(fb *audio.FloatBuffer) error {
	if fb == nil || fb.Format == nil || fb.Format.NumChannels != s.channels {
		return fmt.Errorf("%w: float buffer doesn't match sink channels %d", audiograph.ErrInvalidArgument, s.channels)
	}
	return s.write(fb.Data)
}

func (s *Sink) write(data []float64) error {
	max := float64(int64(1)<<(s.bitDepth-1) - 1)
	if cap(s.ib.Data) < len(data) {
		s.ib.Data = make([]int, len(data))
	}
	s.ib.Data = s.ib.Data[:len(data)]
	for i, v := range data {
		s.ib.Data[i] = int(math.Max(-1, math.Min(1, v)) * max)
	}
	return s.encoder.Write(s.ib)
}

// Close finalizes wav headers.
func (s *Sink) Close() error {
	err := s.encoder.Close()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Decode reads whole wav stream into PCM source.
func Decode(r io.ReadSeeker) (*source.PCM, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid wav stream", audiograph.ErrInvalidArgument)
	}
	switch d.BitDepth {
	case 16, 24, 32:
	default:
		return nil, ErrUnsupportedBitDepth
	}
	ib, err := d.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	ib.SourceBitDepth = int(d.BitDepth)
	return source.FromIntBuffer(ib)
}

// Open reads wav file at path into PCM source.
func Open(path string) (*source.PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
