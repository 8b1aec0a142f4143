package composer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/composer"
	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/node"
	"pipelined.dev/audiograph/session"
	"pipelined.dev/audiograph/source"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const sampleRate = 100

// tone is a constant sound with a gain.
type tone struct {
	value, gain float64
	calls       int
	source      *node.Source
	out         *node.Gain
	src         *source.Constant
	onCompose   func()
}

func newTone(value, gain float64) *tone {
	return &tone{
		value: value,
		gain:  gain,
		src:   &source.Constant{Value: value, NumChannels: 1},
	}
}

func (t *tone) Compose(s *session.Session) (audiograph.Node, error) {
	t.calls++
	if t.onCompose != nil {
		t.onCompose()
	}
	src, err := s.CreateSourceNode(t.src)
	if err != nil {
		return nil, err
	}
	g, err := s.CreateGainNode(t.gain)
	if err != nil {
		return nil, err
	}
	if err := s.Connect(src, g); err != nil {
		return nil, err
	}
	t.source, t.out = src, g
	return g, nil
}

func newComposer(t *testing.T, options ...composer.Option) *composer.Composer {
	t.Helper()
	c, err := composer.New(sampleRate, append([]composer.Option{composer.WithLogger(log.Discard())}, options...)...)
	require.NoError(t, err)
	return c
}

func TestCompose(t *testing.T) {
	c := newComposer(t)
	defer c.Release()
	a := newTone(1, 0.25)

	fb, err := c.Compose(context.Background(), 0, a)
	require.NoError(t, err)
	assert.Equal(t, 2, fb.Format.NumChannels)
	assert.Equal(t, sampleRate, fb.Format.SampleRate)
	require.Len(t, fb.Data, 2*sampleRate)
	for _, v := range fb.Data {
		assert.InDelta(t, 0.25, v, 1e-12)
	}

	silence, err := c.Compose(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Len(t, silence.Data, 2*sampleRate)
	for _, v := range silence.Data {
		assert.Zero(t, v)
	}
}

func TestComposeLimiter(t *testing.T) {
	c := newComposer(t, composer.WithWindow(100*time.Millisecond))
	defer c.Release()

	fb, err := c.Compose(context.Background(), 0, newTone(0.8, 1), newTone(0.8, 1))
	require.NoError(t, err)
	require.Len(t, fb.Data, 2*sampleRate/10)
	for _, v := range fb.Data {
		assert.InDelta(t, 1.06, v, 1e-9)
	}
}

func TestComposeCache(t *testing.T) {
	c := newComposer(t)
	defer c.Release()
	a := newTone(1, 0.5)

	for i := 0; i < 3; i++ {
		_, err := c.Compose(context.Background(), time.Duration(i)*time.Second, a)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, a.calls)

	src, gain := a.source, a.out
	a.gain = 0.1
	c.Invalidate(a)
	fb, err := c.Compose(context.Background(), 0, a)
	require.NoError(t, err)
	assert.Equal(t, 2, a.calls)
	assert.Same(t, src, a.source)
	assert.Same(t, gain, a.out)
	assert.InDelta(t, 0.1, fb.Data[0], 1e-12)

	require.NoError(t, c.Forget(a))
	assert.True(t, src.Released())
	_, err = c.Compose(context.Background(), 0, a)
	require.NoError(t, err)
	assert.Equal(t, 3, a.calls)
	assert.NotSame(t, src, a.source)
}

func TestComposeNested(t *testing.T) {
	c := newComposer(t)
	defer c.Release()
	a := newTone(1, 1)
	var nested error
	a.onCompose = func() {
		assert.True(t, c.Rendering())
		_, nested = c.Compose(context.Background(), 0)
	}

	_, err := c.Compose(context.Background(), 0, a)
	require.NoError(t, err)
	assert.ErrorIs(t, nested, audiograph.ErrInvalidOperation)
	assert.False(t, c.Rendering())
}

func TestComposeErrors(t *testing.T) {
	_, err := composer.New(sampleRate, composer.WithChannels(0))
	assert.ErrorIs(t, err, audiograph.ErrInvalidArgument)
	_, err = composer.New(sampleRate, composer.WithWindow(0))
	assert.ErrorIs(t, err, audiograph.ErrInvalidArgument)

	c := newComposer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Compose(ctx, 0, newTone(1, 1))
	assert.ErrorIs(t, err, audiograph.ErrCanceled)

	require.NoError(t, c.Release())
	require.NoError(t, c.Release())
	_, err = c.Compose(context.Background(), 0)
	assert.ErrorIs(t, err, audiograph.ErrDisposed)
}

func TestDefaults(t *testing.T) {
	c, err := composer.New(0)
	require.NoError(t, err)
	assert.Equal(t, composer.DefaultSampleRate, c.SampleRate())
	assert.Equal(t, composer.DefaultWindow, c.Window())
	require.NoError(t, c.Release())
}
