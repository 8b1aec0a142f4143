package audiograph

import (
	"fmt"

	"pipelined.dev/audiograph/log"
)

// Builder validates nodes and edges and freezes them into a Graph.
// Builder can be used for one graph only.
type Builder struct {
	logger log.Logger
	nodes  []Node
	added  map[Node]struct{}
	output Node
	built  bool
}

// NewBuilder returns empty builder.
func NewBuilder(options ...Option) *Builder {
	b := &Builder{
		logger: log.For("builder"),
		added:  make(map[Node]struct{}),
	}
	for _, option := range options {
		option(b)
	}
	return b
}

// AddNode registers n in the builder.
func (b *Builder) AddNode(n Node) error {
	if err := b.checkFrozen(); err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("%w: nil node", ErrInvalidArgument)
	}
	if b.has(n) {
		return fmt.Errorf("%w: %s node %s already added", ErrInvalidOperation, n.Kind(), n.ID())
	}
	b.added[n] = struct{}{}
	b.nodes = append(b.nodes, n)
	b.logger.Debug(fmt.Sprintf("added %s node %s", n.Kind(), n.ID()))
	return nil
}

// Connect makes from an input of to. If the edge would close a cycle, it's
// rolled back and ErrCycleDetected is returned.
func (b *Builder) Connect(from, to Node) error {
	if err := b.checkFrozen(); err != nil {
		return err
	}
	if !b.has(from) || !b.has(to) {
		return fmt.Errorf("%w: connect unregistered node", ErrInvalidOperation)
	}
	if from == to {
		return fmt.Errorf("%w: %s node %s connected to itself", ErrInvalidArgument, from.Kind(), from.ID())
	}
	if err := to.AddInput(from); err != nil {
		return err
	}
	// the new edge closes a cycle only if from depends on to
	if dependsOn(from, to) {
		to.RemoveInput(from)
		b.logger.Debug(fmt.Sprintf("rejected edge %s -> %s", from.ID(), to.ID()))
		return fmt.Errorf("%w: %s node %s -> %s node %s", ErrCycleDetected, from.Kind(), from.ID(), to.Kind(), to.ID())
	}
	return nil
}

// SetOutput designates the node which output is returned by the graph.
func (b *Builder) SetOutput(n Node) error {
	if err := b.checkFrozen(); err != nil {
		return err
	}
	if !b.has(n) {
		return fmt.Errorf("%w: output node is not added", ErrInvalidOperation)
	}
	b.output = n
	return nil
}

// Build sorts added nodes so that every node follows its inputs and
// returns frozen graph.
func (b *Builder) Build() (*Graph, error) {
	if err := b.checkFrozen(); err != nil {
		return nil, err
	}
	if b.output == nil {
		return nil, fmt.Errorf("%w: output is not set", ErrInvalidOperation)
	}
	order, err := b.sort()
	if err != nil {
		return nil, err
	}
	b.built = true
	b.logger.Debug(fmt.Sprintf("built graph of %d nodes with %s output %s", len(order), b.output.Kind(), b.output.ID()))
	return &Graph{
		logger: b.logger,
		output: b.output,
		nodes:  order,
	}, nil
}

func (b *Builder) has(n Node) bool {
	if n == nil {
		return false
	}
	_, ok := b.added[n]
	return ok
}

func (b *Builder) checkFrozen() error {
	if b.built {
		return fmt.Errorf("%w: builder is frozen", ErrInvalidOperation)
	}
	return nil
}

type mark uint8

const (
	unvisited mark = iota
	visiting
	visited
)

// sort does depth-first post-order traversal over inputs.
func (b *Builder) sort() ([]Node, error) {
	marks := make(map[Node]mark, len(b.nodes))
	order := make([]Node, 0, len(b.nodes))
	var visit func(n Node) error
	visit = func(n Node) error {
		switch marks[n] {
		case visited:
			return nil
		case visiting:
			return fmt.Errorf("%w: involving %s node %s", ErrCycleDetected, n.Kind(), n.ID())
		}
		marks[n] = visiting
		for _, in := range n.Inputs() {
			if !b.has(in) {
				return fmt.Errorf("%w: %s node %s has input %s which is not added", ErrInvalidOperation, n.Kind(), n.ID(), in.ID())
			}
			if err := visit(in); err != nil {
				return err
			}
		}
		marks[n] = visited
		order = append(order, n)
		return nil
	}
	for _, n := range b.nodes {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// dependsOn reports if target is reachable from n through inputs.
func dependsOn(n, target Node) bool {
	seen := make(map[Node]struct{})
	stack := []Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			return true
		}
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}
		stack = append(stack, cur.Inputs()...)
	}
	return false
}
