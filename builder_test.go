package audiograph_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/mock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newBuilder(t *testing.T, nodes ...audiograph.Node) *audiograph.Builder {
	t.Helper()
	b := audiograph.NewBuilder(audiograph.WithLogger(log.Discard()))
	for _, n := range nodes {
		require.NoError(t, b.AddNode(n))
	}
	return b
}

func TestBuilderAddNode(t *testing.T) {
	n := mock.NewNode(0)
	b := newBuilder(t, n)
	assert.ErrorIs(t, b.AddNode(n), audiograph.ErrInvalidOperation)
	assert.ErrorIs(t, b.AddNode(nil), audiograph.ErrInvalidArgument)
}

func TestBuilderConnect(t *testing.T) {
	a, b, c := mock.NewNode(0), mock.NewNode(0), mock.NewNode(0)
	builder := newBuilder(t, a, b)

	assert.ErrorIs(t, builder.Connect(a, c), audiograph.ErrInvalidOperation)
	assert.ErrorIs(t, builder.Connect(c, a), audiograph.ErrInvalidOperation)
	assert.ErrorIs(t, builder.Connect(a, a), audiograph.ErrInvalidArgument)
	require.NoError(t, builder.Connect(a, b))
	assert.ErrorIs(t, builder.Connect(a, b), audiograph.ErrInvalidOperation)
	assert.Equal(t, []audiograph.Node{a}, b.Inputs())
}

func TestBuilderCycleRollback(t *testing.T) {
	a, b, c, d := mock.NewNode(0), mock.NewNode(0), mock.NewNode(0), mock.NewNode(0)
	builder := newBuilder(t, a, b, c, d)
	require.NoError(t, builder.Connect(a, b))
	require.NoError(t, builder.Connect(b, c))
	require.NoError(t, builder.Connect(d, c))

	err := builder.Connect(c, a)
	assert.ErrorIs(t, err, audiograph.ErrCycleDetected)
	assert.Empty(t, a.Inputs())
	assert.Equal(t, []audiograph.Node{a}, b.Inputs())
	assert.Equal(t, []audiograph.Node{b, d}, c.Inputs())

	// the same cycle-free edges can't be added twice, new ones can
	assert.ErrorIs(t, builder.Connect(a, b), audiograph.ErrInvalidOperation)
	require.NoError(t, builder.Connect(a, c))
	assert.ErrorIs(t, builder.Connect(a, c), audiograph.ErrInvalidOperation)
	assert.Equal(t, []audiograph.Node{b, d, a}, c.Inputs())

	require.NoError(t, builder.SetOutput(c))
	g, err := builder.Build()
	require.NoError(t, err)
	assert.Len(t, g.Nodes(), 4)
}

func TestBuilderBuild(t *testing.T) {
	a, b := mock.NewNode(0), mock.NewNode(0)
	builder := newBuilder(t, a)

	_, err := builder.Build()
	assert.ErrorIs(t, err, audiograph.ErrInvalidOperation)
	assert.ErrorIs(t, builder.SetOutput(b), audiograph.ErrInvalidOperation)

	// inputs must be added to the builder
	require.NoError(t, a.AddInput(b))
	require.NoError(t, builder.SetOutput(a))
	_, err = builder.Build()
	assert.ErrorIs(t, err, audiograph.ErrInvalidOperation)
	a.RemoveInput(b)

	g, err := builder.Build()
	require.NoError(t, err)
	assert.Same(t, a, g.Output())

	_, err = builder.Build()
	assert.ErrorIs(t, err, audiograph.ErrInvalidOperation)
	assert.ErrorIs(t, builder.AddNode(b), audiograph.ErrInvalidOperation)
	assert.ErrorIs(t, builder.Connect(a, a), audiograph.ErrInvalidOperation)
	assert.ErrorIs(t, builder.SetOutput(a), audiograph.ErrInvalidOperation)
}

// Random DAGs: any sequence of cycle-free connections builds into an order
// where every node follows its inputs.
func TestBuilderTopologicalOrder(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for run := 0; run < 50; run++ {
		size := 2 + r.Intn(20)
		nodes := make([]audiograph.Node, size)
		for i := range nodes {
			nodes[i] = mock.NewNode(0)
		}
		// add in shuffled order, connect only along the original order
		added := append([]audiograph.Node(nil), nodes...)
		r.Shuffle(len(added), func(i, j int) { added[i], added[j] = added[j], added[i] })
		builder := newBuilder(t, added...)
		for i := 0; i < size*2; i++ {
			from, to := r.Intn(size), r.Intn(size)
			if from == to {
				continue
			}
			if from > to {
				from, to = to, from
			}
			err := builder.Connect(nodes[from], nodes[to])
			if err != nil {
				assert.ErrorIs(t, err, audiograph.ErrInvalidOperation)
			}
			// reversed edges always close a cycle if the forward one exists
			assert.ErrorIs(t, builder.Connect(nodes[to], nodes[from]), audiograph.ErrCycleDetected)
		}
		require.NoError(t, builder.SetOutput(nodes[size-1]))
		g, err := builder.Build()
		require.NoError(t, err)

		order := g.Nodes()
		require.Len(t, order, size)
		index := make(map[audiograph.Node]int)
		for i, n := range order {
			index[n] = i
		}
		for _, n := range order {
			for _, in := range n.Inputs() {
				assert.Less(t, index[in], index[n])
			}
		}
	}
}
