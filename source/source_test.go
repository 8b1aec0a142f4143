package source_test

import (
	"io"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"pipelined.dev/signal"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/source"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func read(t *testing.T, s audiograph.SoundSource, sampleRate int, r audiograph.TimeRange) [][]float64 {
	t.Helper()
	out, err := audiograph.NewBuffer(sampleRate, s.Channels(), audiograph.SamplesOf(r.Duration, sampleRate))
	require.NoError(t, err)
	require.NoError(t, s.Read(r, out))
	data, err := out.Data()
	require.NoError(t, err)
	return data
}

func TestConstant(t *testing.T) {
	s := &source.Constant{Value: 0.3, NumChannels: 2}
	data := read(t, s, 8, audiograph.Range(0, time.Second))
	assert.Len(t, data, 2)
	assert.InDeltaSlice(t, []float64{.3, .3, .3, .3, .3, .3, .3, .3}, data[1], 1e-12)
	assert.Equal(t, 1, (&source.Constant{}).Channels())
}

func TestSine(t *testing.T) {
	s := &source.Sine{Frequency: 1, Amplitude: 1, NumChannels: 2}
	data := read(t, s, 4, audiograph.Range(0, time.Second))
	assert.InDeltaSlice(t, []float64{0, 1, 0, -1}, data[0], 1e-9)
	assert.Equal(t, data[0], data[1])

	// continuous across windows
	data = read(t, s, 4, audiograph.Range(250*time.Millisecond, time.Second))
	assert.InDeltaSlice(t, []float64{1, 0, -1, 0}, data[0], 1e-9)
}

func TestPCM(t *testing.T) {
	p, err := source.NewPCM(4, [][]float64{{1, 2, 3, 4, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 6, p.Length())
	assert.Equal(t, 4, p.SampleRate())

	data := read(t, p, 4, audiograph.Range(500*time.Millisecond, time.Second))
	assert.Equal(t, []float64{3, 4, 5, 6}, data[0])

	data = read(t, p, 4, audiograph.Range(-500*time.Millisecond, time.Second))
	assert.Equal(t, []float64{0, 0, 1, 2}, data[0])

	data = read(t, p, 4, audiograph.Range(time.Second, time.Second))
	assert.Equal(t, []float64{5, 6, 0, 0}, data[0])

	_, err = source.NewPCM(0, [][]float64{{1}})
	assert.ErrorIs(t, err, audiograph.ErrInvalidArgument)
	_, err = source.NewPCM(4, [][]float64{{1}, {1, 2}})
	assert.ErrorIs(t, err, audiograph.ErrInvalidArgument)
}

func TestPCMResample(t *testing.T) {
	samples := make([]float64, 4800)
	for i := range samples {
		samples[i] = 0.5
	}
	p, err := source.NewPCM(24000, [][]float64{samples})
	require.NoError(t, err)
	data := read(t, p, 48000, audiograph.Range(50*time.Millisecond, 10*time.Millisecond))
	assert.Len(t, data[0], 480)
	for _, v := range data[0] {
		assert.InDelta(t, 0.5, v, 0.05)
	}
}

func TestFromGoAudio(t *testing.T) {
	format := &audio.Format{NumChannels: 2, SampleRate: 4}
	p, err := source.FromFloatBuffer(&audio.FloatBuffer{Format: format, Data: []float64{1, -1, 2, -2}})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Channels())
	data := read(t, p, 4, audiograph.Range(0, 500*time.Millisecond))
	assert.Equal(t, []float64{1, 2}, data[0])
	assert.Equal(t, []float64{-1, -2}, data[1])

	p, err = source.FromIntBuffer(&audio.IntBuffer{Format: format, Data: []int{0x4000, -0x8000}, SourceBitDepth: 16})
	require.NoError(t, err)
	data = read(t, p, 4, audiograph.Range(0, 250*time.Millisecond))
	assert.Equal(t, []float64{0.5}, data[0])
	assert.Equal(t, []float64{-1}, data[1])

	_, err = source.FromFloatBuffer(&audio.FloatBuffer{})
	assert.ErrorIs(t, err, audiograph.ErrInvalidArgument)
}

func TestFromSignal(t *testing.T) {
	var calls int
	fn := func(out signal.Floating) (int, error) {
		calls++
		if calls > 2 {
			return 0, io.EOF
		}
		return signal.WriteStripedFloat64(
			[][]float64{
				{1, 2, 3},
				{11, 12, 13},
			},
			out,
		), nil
	}
	p, err := source.FromSignal(fn, 4, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, p.Length())
	data := read(t, p, 4, audiograph.Range(0, 1500*time.Millisecond))
	assert.Equal(t, []float64{1, 2, 3, 1, 2, 3}, data[0])
	assert.Equal(t, []float64{11, 12, 13, 11, 12, 13}, data[1])

	_, err = source.FromSignal(func(signal.Floating) (int, error) { return 0, assert.AnError }, 4, 2, 4)
	assert.ErrorIs(t, err, assert.AnError)
}
