package audiograph

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"pipelined.dev/audiograph/metric"
)

// Node is a graph vertex. It produces one buffer per render pass from the
// buffers of its inputs.
//
// Process must return the memoized output if the node was already
// evaluated in the current pass. The returned buffer is owned by the node
// until ClearCache or Release is called: consumers must not release it,
// but may Retain it to keep it longer.
type Node interface {
	ID() string
	Kind() string
	Inputs() []Node
	AddInput(Node) error
	RemoveInput(Node)
	ClearInputs()
	Process(ProcessContext) (*Buffer, error)
	ClearCache()
	Release() error
}

// ComputeFunc computes node output for a pass. The returned buffer ref is
// assigned to the node cache.
type ComputeFunc func(ProcessContext) (*Buffer, error)

// Base implements the common part of Node: identity, inputs, pass cache and
// metrics. Concrete nodes embed it and implement Process with Evaluate.
type Base struct {
	id       string
	kind     string
	inputs   []Node
	cache    *Buffer
	released bool
	meter    metric.Meter
}

// NewBase returns base of a node of provided kind.
func NewBase(kind string) Base {
	return Base{
		id:    newUID(),
		kind:  kind,
		meter: metric.NewMeter(kind),
	}
}

// newUID returns new unique id value.
func newUID() string {
	return xid.New().String()
}

// ID returns unique node id.
func (b *Base) ID() string {
	return b.id
}

// Kind returns node kind.
func (b *Base) Kind() string {
	return b.kind
}

// Inputs returns copy of the ordered input list.
func (b *Base) Inputs() []Node {
	return append([]Node(nil), b.inputs...)
}

// Input returns input at position i or nil.
func (b *Base) Input(i int) Node {
	if i < 0 || i >= len(b.inputs) {
		return nil
	}
	return b.inputs[i]
}

// NumInputs returns number of inputs.
func (b *Base) NumInputs() int {
	return len(b.inputs)
}

// AddInput appends n to inputs. Duplicates and self-loops are rejected.
func (b *Base) AddInput(n Node) error {
	if n == nil {
		return fmt.Errorf("%w: nil input", ErrInvalidArgument)
	}
	if n.ID() == b.id {
		return fmt.Errorf("%w: %s node %s can't be its own input", ErrInvalidArgument, b.kind, b.id)
	}
	if b.hasInput(n) {
		return fmt.Errorf("%w: %s node %s is already input of %s", ErrInvalidOperation, n.Kind(), n.ID(), b.id)
	}
	b.inputs = append(b.inputs, n)
	return nil
}

// RemoveInput removes n from inputs, keeping order of the rest.
func (b *Base) RemoveInput(n Node) {
	for i := range b.inputs {
		if b.inputs[i] == n {
			b.inputs = append(b.inputs[:i], b.inputs[i+1:]...)
			return
		}
	}
}

// ClearInputs removes all inputs.
func (b *Base) ClearInputs() {
	b.inputs = nil
}

func (b *Base) hasInput(n Node) bool {
	for _, in := range b.inputs {
		if in == n {
			return true
		}
	}
	return false
}

// Cached reports if node holds output of the current pass.
func (b *Base) Cached() bool {
	return b.cache != nil
}

// ClearCache drops the pass output.
func (b *Base) ClearCache() {
	if b.cache != nil {
		b.cache.Release()
		b.cache = nil
	}
}

// Release drops cache and inputs. Released node can't be processed.
func (b *Base) Release() error {
	b.ClearCache()
	b.ClearInputs()
	b.released = true
	return nil
}

// Released reports if node was released.
func (b *Base) Released() bool {
	return b.released
}

// Evaluate returns the pass output, computing it with fn only if the node
// wasn't evaluated in the current pass. Cancellation is checked before
// computation. Failures of fn are attributed to this node unless they
// already carry the originating node.
func (b *Base) Evaluate(pc ProcessContext, fn ComputeFunc) (*Buffer, error) {
	if b.released {
		return nil, b.fail(ErrDisposed)
	}
	if b.cache != nil {
		b.meter.Hit()
		return b.cache, nil
	}
	if err := pc.Err(); err != nil {
		return nil, canceled(err)
	}
	start := time.Now()
	out, err := fn(pc)
	if err != nil {
		return nil, b.fail(err)
	}
	b.cache = out
	b.meter.Computed(out.Samples(), out.SampleRate(), time.Since(start))
	return out, nil
}

// ProcessInput evaluates input at position i.
func (b *Base) ProcessInput(pc ProcessContext, i int) (*Buffer, error) {
	in := b.Input(i)
	if in == nil {
		return nil, fmt.Errorf("%w: %s node %s has no input %d", ErrInvalidOperation, b.kind, b.id, i)
	}
	return in.Process(pc)
}

func (b *Base) fail(err error) error {
	if isAttributed(err) {
		return err
	}
	return &ProcessingError{NodeID: b.id, Kind: b.kind, Err: err}
}

func isAttributed(err error) bool {
	var pe *ProcessingError
	return errors.As(err, &pe) || errors.Is(err, ErrCanceled)
}
