// Package source provides sound sources for source nodes.
package source

import (
	"math"

	"pipelined.dev/audiograph"
)

// Constant produces a constant value on every channel.
type Constant struct {
	Value       float64
	NumChannels int
}

// Channels implements audiograph.SoundSource.
func (s *Constant) Channels() int {
	return max(s.NumChannels, 1)
}

// Read implements audiograph.SoundSource.
func (s *Constant) Read(r audiograph.TimeRange, out *audiograph.Buffer) error {
	data, err := out.Data()
	if err != nil {
		return err
	}
	for _, c := range data {
		for i := range c {
			c[i] = s.Value
		}
	}
	return nil
}

// Sine produces a sine tone. Phase is derived from absolute time, so
// consecutive windows are continuous.
type Sine struct {
	Frequency   float64
	Amplitude   float64
	NumChannels int
}

// Channels implements audiograph.SoundSource.
func (s *Sine) Channels() int {
	return max(s.NumChannels, 1)
}

// Read implements audiograph.SoundSource.
func (s *Sine) Read(r audiograph.TimeRange, out *audiograph.Buffer) error {
	data, err := out.Data()
	if err != nil {
		return err
	}
	if len(data) == 0 || len(data[0]) == 0 {
		return nil
	}
	rate := float64(out.SampleRate())
	start := r.Start.Seconds()
	first := data[0]
	for i := range first {
		t := start + float64(i)/rate
		first[i] = s.Amplitude * math.Sin(2*math.Pi*s.Frequency*t)
	}
	for _, c := range data[1:] {
		copy(c, first)
	}
	return nil
}
