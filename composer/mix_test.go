package composer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/session"
)

type boxed struct {
	value any
}

func (boxed) Compose(*session.Session) (audiograph.Node, error) { return nil, nil }

func TestMix(t *testing.T) {
	master, err := audiograph.NewBuffer(100, 2, 4)
	require.NoError(t, err)
	defer master.Release()
	in, err := audiograph.NewBuffer(100, 1, 2)
	require.NoError(t, err)
	data, _ := in.Data()
	data[0][0], data[0][1] = 1, 2

	require.NoError(t, mix(in, master))
	left, _ := master.Channel(0)
	right, _ := master.Channel(1)
	assert.Equal(t, []float64{1, 2, 0, 0}, left)
	assert.Equal(t, []float64{1, 2, 0, 0}, right)

	in.Release()
	assert.ErrorIs(t, mix(in, master), audiograph.ErrDisposed)
}

func TestCacheable(t *testing.T) {
	assert.True(t, cacheable(&boxed{value: []int{1}}))
	assert.True(t, cacheable(boxed{value: 1}))
	assert.False(t, cacheable(boxed{value: []int{1}}))
	assert.False(t, cacheable(nil))
}
