package audiograph_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/metric"
	"pipelined.dev/audiograph/mock"
	"pipelined.dev/audiograph/node"
	"pipelined.dev/audiograph/source"
)

func processContext(start, duration time.Duration, sampleRate int) audiograph.ProcessContext {
	return audiograph.NewProcessContext(context.Background(), audiograph.Range(start, duration), sampleRate, nil)
}

func build(t *testing.T, output audiograph.Node, edges ...[2]audiograph.Node) *audiograph.Graph {
	t.Helper()
	var nodes []audiograph.Node
	seen := map[audiograph.Node]bool{}
	add := func(n audiograph.Node) {
		if !seen[n] {
			seen[n] = true
			nodes = append(nodes, n)
		}
	}
	for _, e := range edges {
		add(e[0])
		add(e[1])
	}
	add(output)
	b := newBuilder(t, nodes...)
	for _, e := range edges {
		require.NoError(t, b.Connect(e[0], e[1]))
	}
	require.NoError(t, b.SetOutput(output))
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestGainScenario(t *testing.T) {
	src := node.NewSource(&source.Constant{Value: 1, NumChannels: 2})
	gain := node.NewGain(0.5)
	g := build(t, gain, [2]audiograph.Node{src, gain})

	out, err := g.Process(processContext(0, time.Second, 48000))
	require.NoError(t, err)
	assert.Equal(t, 2, out.Channels())
	assert.Equal(t, 48000, out.Samples())
	for c := 0; c < 2; c++ {
		samples, _ := out.Channel(c)
		for i, v := range samples {
			if v != 0.5 {
				t.Fatalf("channel %d sample %d: %v", c, i, v)
			}
		}
	}
	out.Release()
	require.NoError(t, g.Release())
}

func TestPassCacheReset(t *testing.T) {
	src := node.NewSource(&source.Sine{Frequency: 0.25, Amplitude: 1})
	g := build(t, src)

	first, err := g.Process(processContext(0, time.Second, 8))
	require.NoError(t, err)
	second, err := g.Process(processContext(time.Second, time.Second, 8))
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	a, _ := first.Channel(0)
	b, _ := second.Channel(0)
	assert.NotEqual(t, a, b)
	// first result stays valid for the caller
	assert.False(t, first.Released())
	first.Release()
	second.Release()
	require.NoError(t, g.Release())
}

func TestDiamond(t *testing.T) {
	shared := mock.NewNode(1)
	left := node.NewGain(0.5)
	right := node.NewGain(0.25)
	mixer := node.NewMixer(1)
	g := build(t, mixer,
		[2]audiograph.Node{shared, left},
		[2]audiograph.Node{shared, right},
		[2]audiograph.Node{left, mixer},
		[2]audiograph.Node{right, mixer},
	)
	before := metric.Get("mock")

	for pass := 1; pass <= 3; pass++ {
		out, err := g.Process(processContext(0, 10*time.Millisecond, 48000))
		require.NoError(t, err)
		samples, _ := out.Channel(0)
		assert.InDelta(t, 0.75, samples[0], 1e-12)
		calls, _ := shared.Count()
		assert.Equal(t, pass, calls)
		out.Release()
	}
	assert.NotEqual(t, before[metric.HitCounter], metric.Get("mock")[metric.HitCounter])
	require.NoError(t, g.Release())
}

func TestProcessingError(t *testing.T) {
	upstream := mock.NewNode(1)
	failing := mock.NewNode(1)
	failing.ErrorOnCall = assert.AnError
	mixer := node.NewMixer(1)
	g := build(t, mixer,
		[2]audiograph.Node{upstream, mixer},
		[2]audiograph.Node{failing, mixer},
	)

	out, err := g.Process(processContext(0, time.Second, 48000))
	assert.Nil(t, out)
	assert.ErrorIs(t, err, audiograph.ErrGraphProcessing)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, audiograph.ErrCanceled)
	var pe *audiograph.ProcessingError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, failing.ID(), pe.NodeID)
	assert.Equal(t, "mock", pe.Kind)
	// no stale caches
	for _, n := range g.Nodes() {
		assert.False(t, n.(interface{ Cached() bool }).Cached())
	}

	failing.ErrorOnCall = nil
	out, err = g.Process(processContext(0, time.Second, 48000))
	require.NoError(t, err)
	out.Release()
	require.NoError(t, g.Release())
}

func TestCancel(t *testing.T) {
	t.Run("before", func(t *testing.T) {
		n := mock.NewNode(1)
		g := build(t, n)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := g.Process(audiograph.NewProcessContext(ctx, audiograph.Range(0, time.Second), 48000, nil))
		assert.ErrorIs(t, err, audiograph.ErrCanceled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, audiograph.ErrGraphProcessing)
		calls, _ := n.Count()
		assert.Equal(t, 0, calls)
		require.NoError(t, g.Release())
	})
	t.Run("during", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		first := mock.NewNode(1)
		first.Hook = func(audiograph.ProcessContext) { cancel() }
		second := mock.NewNode(1)
		mixer := node.NewMixer(1)
		g := build(t, mixer,
			[2]audiograph.Node{first, mixer},
			[2]audiograph.Node{second, mixer},
		)
		_, err := g.Process(audiograph.NewProcessContext(ctx, audiograph.Range(0, time.Second), 48000, nil))
		assert.ErrorIs(t, err, audiograph.ErrCanceled)
		assert.NotErrorIs(t, err, audiograph.ErrGraphProcessing)
		calls, _ := second.Count()
		assert.Equal(t, 0, calls)
		assert.False(t, first.Cached())
		require.NoError(t, g.Release())
	})
}

func TestGraphRelease(t *testing.T) {
	a := mock.NewNode(1)
	a.ErrorOnRelease = assert.AnError
	b := mock.NewNode(1)
	g := build(t, b, [2]audiograph.Node{a, b})
	out, err := g.Process(processContext(0, time.Second, 48000))
	require.NoError(t, err)

	err = g.Release()
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, a.Releases)
	assert.Equal(t, 1, b.Releases)
	// caller's reference outlives the graph
	assert.False(t, out.Released())
	out.Release()
	assert.True(t, out.Released())

	assert.NoError(t, g.Release())
	assert.Equal(t, 1, b.Releases)
	_, err = g.Process(processContext(0, time.Second, 48000))
	assert.ErrorIs(t, err, audiograph.ErrDisposed)
}

func TestGraphInvalidContext(t *testing.T) {
	g := build(t, mock.NewNode(0))
	_, err := g.Process(processContext(0, time.Second, 0))
	assert.ErrorIs(t, err, audiograph.ErrInvalidArgument)
	require.NoError(t, g.Release())
}

func TestBase(t *testing.T) {
	a, b := mock.NewNode(0), mock.NewNode(0)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.ErrorIs(t, a.AddInput(nil), audiograph.ErrInvalidArgument)
	assert.ErrorIs(t, a.AddInput(a), audiograph.ErrInvalidArgument)
	require.NoError(t, a.AddInput(b))
	assert.ErrorIs(t, a.AddInput(b), audiograph.ErrInvalidOperation)

	inputs := a.Inputs()
	inputs[0] = nil
	assert.Same(t, b, a.Input(0))
	assert.Nil(t, a.Input(1))
	assert.Equal(t, 1, a.NumInputs())

	require.NoError(t, a.Release())
	assert.True(t, a.Released())
	assert.Empty(t, a.Inputs())
	_, err := a.Process(processContext(0, time.Second, 48000))
	assert.ErrorIs(t, err, audiograph.ErrDisposed)
}
