package effect_test

import (
	"context"
	"math"
	"testing"
	"time"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/dsp"
	"pipelined.dev/audiograph/effect"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func buffers(t *testing.T, sampleRate, channels int, samples []float64) (*audiograph.Buffer, *audiograph.Buffer) {
	t.Helper()
	in, err := audiograph.NewBuffer(sampleRate, channels, len(samples))
	require.NoError(t, err)
	out, err := audiograph.NewBuffer(sampleRate, channels, len(samples))
	require.NoError(t, err)
	data, _ := in.Data()
	for _, c := range data {
		copy(c, samples)
	}
	return in, out
}

func constant(v float64, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func context100ms(sampleRate int) audiograph.ProcessContext {
	return audiograph.NewProcessContext(context.Background(), audiograph.Range(0, 100*time.Millisecond), sampleRate, nil)
}

func TestDelayParameters(t *testing.T) {
	d := effect.NewDelay()
	assert.Equal(t, 200.0, d.DelayTime())
	assert.Equal(t, 50.0, d.Feedback())
	assert.Equal(t, 60.0, d.DryMix())
	assert.Equal(t, 40.0, d.WetMix())

	d.SetDelayTime(-100)
	assert.Equal(t, 0.0, d.DelayTime())
	d.SetDelayTime(10000)
	assert.Equal(t, 5000.0, d.DelayTime())
	d.SetDelayTime(500)
	assert.Equal(t, 500.0, d.DelayTime())

	d.SetFeedback(-10)
	assert.Equal(t, 0.0, d.Feedback())
	d.SetFeedback(150)
	assert.Equal(t, 100.0, d.Feedback())
	d.SetDryMix(101)
	assert.Equal(t, 100.0, d.DryMix())
	d.SetWetMix(-1)
	assert.Equal(t, 0.0, d.WetMix())
}

func TestDelay(t *testing.T) {
	d := effect.NewDelay()
	d.SetDelayTime(10)
	d.SetFeedback(0)
	d.SetDryMix(50)
	d.SetWetMix(50)
	p := d.NewProcessor()

	in, out := buffers(t, 1000, 2, constant(1, 100))
	require.NoError(t, p.Process(in, out, context100ms(1000)))
	for c := 0; c < 2; c++ {
		samples, _ := out.Channel(c)
		assert.InDeltaSlice(t, constant(0.5, 10), samples[:10], 1e-9)
		assert.InDeltaSlice(t, constant(1, 90), samples[10:], 1e-9)
	}

	// delay line carries over to the next block
	require.NoError(t, p.Process(in, out, context100ms(1000)))
	samples, _ := out.Channel(0)
	assert.InDeltaSlice(t, constant(1, 100), samples, 1e-9)

	p.Reset()
	require.NoError(t, p.Process(in, out, context100ms(1000)))
	samples, _ = out.Channel(0)
	assert.InDelta(t, 0.5, samples[0], 1e-9)
}

func TestDelayFeedback(t *testing.T) {
	d := effect.NewDelay()
	d.SetDelayTime(2)
	d.SetFeedback(50)
	d.SetDryMix(0)
	d.SetWetMix(100)
	p := d.NewProcessor()

	impulse := make([]float64, 8)
	impulse[0] = 1
	in, out := buffers(t, 1000, 1, impulse)
	require.NoError(t, p.Process(in, out, context100ms(1000)))
	samples, _ := out.Channel(0)
	assert.InDeltaSlice(t, []float64{0, 0, 1, 0, 0.5, 0, 0.25, 0}, samples, 1e-9)
}

func TestLowpass(t *testing.T) {
	const sampleRate = 48000
	lp := effect.NewLowpass(1000)
	p := lp.NewProcessor()

	// dc passes
	in, out := buffers(t, sampleRate, 1, constant(1, 4800))
	require.NoError(t, p.Process(in, out, context100ms(sampleRate)))
	samples, _ := out.Channel(0)
	assert.InDelta(t, 1, samples[len(samples)-1], 1e-6)

	// nyquist is attenuated
	p.Reset()
	alternating := make([]float64, 4800)
	for i := range alternating {
		alternating[i] = math.Pow(-1, float64(i))
	}
	in, out = buffers(t, sampleRate, 1, alternating)
	require.NoError(t, p.Process(in, out, context100ms(sampleRate)))
	samples, _ = out.Channel(0)
	assert.Less(t, dsp.Peak(samples[100:]), 0.01)
}

func directConvolve(a, b []float32) []float32 {
	out := make([]float32, len(a)+len(b)-1)
	for i := range a {
		for j := range b {
			out[i+j] += a[i] * b[j]
		}
	}
	return out
}

func TestConvolver(t *testing.T) {
	ir := []float64{0.5, -0.25, 0.125, 0.0625}
	c, err := effect.NewConvolver(ir)
	require.NoError(t, err)
	p := c.NewProcessor()

	signal := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	var got []float64
	for _, block := range [][]float64{signal[:5], signal[5:]} {
		in, out := buffers(t, 1000, 1, block)
		require.NoError(t, p.Process(in, out, context100ms(1000)))
		samples, _ := out.Channel(0)
		got = append(got, samples...)
	}

	a := make([]float32, len(signal))
	for i, v := range signal {
		a[i] = float32(v)
	}
	b := make([]float32, len(ir))
	for i, v := range ir {
		b[i] = float32(v)
	}
	want := make([]float32, len(a)+len(b)-1)
	require.NoError(t, algofft.ConvolveReal(want, a, b))
	direct := directConvolve(a, b)
	for i := range got {
		assert.InDelta(t, float64(direct[i]), float64(want[i]), 1e-4)
		assert.InDelta(t, float64(want[i]), got[i], 1e-4, "sample %d", i)
	}

	_, err = effect.NewConvolver()
	assert.ErrorIs(t, err, audiograph.ErrInvalidArgument)
	_, err = effect.NewConvolver([]float64{})
	assert.ErrorIs(t, err, audiograph.ErrInvalidArgument)
}

func TestDynamics(t *testing.T) {
	l := &effect.Limiter{Threshold: 1, Ratio: 10}
	in, out := buffers(t, 1000, 1, []float64{1.5, -1.5, 0.5})
	require.NoError(t, l.NewProcessor().Process(in, out, context100ms(1000)))
	samples, _ := out.Channel(0)
	assert.InDeltaSlice(t, []float64{1.05, -1.05, 0.5}, samples, 1e-9)
	// input is untouched
	samples, _ = in.Channel(0)
	assert.Equal(t, []float64{1.5, -1.5, 0.5}, samples)

	s := &effect.SoftClipper{Threshold: 0.5}
	in, out = buffers(t, 1000, 1, []float64{3, 0.25})
	p := s.NewProcessor()
	require.NoError(t, p.Process(in, out, context100ms(1000)))
	p.Reset()
	samples, _ = out.Channel(0)
	assert.Less(t, samples[0], 1.0)
	assert.Equal(t, 0.25, samples[1])
}
