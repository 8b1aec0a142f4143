package audiograph

import (
	"errors"
	"fmt"

	"pipelined.dev/audiograph/log"
)

// Graph is a frozen DAG of nodes built by Builder.
type Graph struct {
	logger   log.Logger
	output   Node
	nodes    []Node
	released bool
}

// Output returns output node.
func (g *Graph) Output() Node {
	return g.output
}

// Nodes returns nodes in topological order: every node follows its inputs.
func (g *Graph) Nodes() []Node {
	return append([]Node(nil), g.nodes...)
}

// Process renders the window described by pc. Caches of all nodes are
// cleared before the pass and after a failed one. The caller owns the
// returned buffer and must release it.
func (g *Graph) Process(pc ProcessContext) (*Buffer, error) {
	if g.released {
		return nil, ErrDisposed
	}
	if pc.SampleRate() <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidArgument, pc.SampleRate())
	}
	g.ClearCaches()
	out, err := g.output.Process(pc)
	if err != nil {
		g.ClearCaches()
		if errors.Is(err, ErrCanceled) {
			g.logger.Debug(fmt.Sprintf("render of %v canceled", pc.TimeRange()))
			return nil, err
		}
		var pe *ProcessingError
		if !errors.As(err, &pe) {
			err = &ProcessingError{NodeID: g.output.ID(), Kind: g.output.Kind(), Err: err}
		}
		g.logger.Info(fmt.Sprintf("render of %v failed: %v", pc.TimeRange(), err))
		return nil, err
	}
	return out.Retain(), nil
}

// ClearCaches drops pass outputs of all nodes.
func (g *Graph) ClearCaches() {
	for _, n := range g.nodes {
		n.ClearCache()
	}
}

// Release releases all nodes. Failure to release one node doesn't prevent
// release of the rest.
func (g *Graph) Release() error {
	if g.released {
		return nil
	}
	g.released = true
	var errs ReleaseErrors
	for _, n := range g.nodes {
		if err := n.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs.Ret()
}
