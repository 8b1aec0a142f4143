/*
Package session provides incremental construction of audio graphs.

Session tracks nodes and edges of the graph being assembled. Between
renders the nodes of the previous graph are handed back to BeginUpdate:
Create methods then reuse nodes with the same semantic identity instead
of allocating new ones, and EndUpdate releases the nodes nobody asked for.

	s.BeginUpdate(previous.Nodes()...)
	src, _ := s.CreateSourceNode(track)
	gain, _ := s.CreateGainNode(0.8)
	s.Connect(src, gain)
	s.MarkOutput(gain)
	g, err := s.BuildGraph()
	s.EndUpdate()
*/
package session

import (
	"context"
	"fmt"
	"time"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/node"
)

// Option provides a way to set up the session.
type Option func(*Session)

// WithLogger sets logger to session and the builders it creates.
func WithLogger(logger log.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

type edge struct {
	from, to audiograph.Node
}

// Session assembles graphs and reuses nodes between them.
type Session struct {
	logger     log.Logger
	sampleRate int
	channels   int

	nodes   []audiograph.Node
	edges   []edge
	outputs []audiograph.Node
	current audiograph.Node
	mixer   *node.Mixer

	previous *pool
	released bool
}

// New returns empty session for provided sample rate and channel count.
func New(sampleRate, channels int, options ...Option) (*Session, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: session rate=%d channels=%d", audiograph.ErrInvalidArgument, sampleRate, channels)
	}
	s := &Session{
		logger:     log.For("session"),
		sampleRate: sampleRate,
		channels:   channels,
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// SampleRate of the session.
func (s *Session) SampleRate() int {
	return s.sampleRate
}

// Channels of the session.
func (s *Session) Channels() int {
	return s.channels
}

// ProcessContext returns context for rendering r at session sample rate.
func (s *Session) ProcessContext(ctx context.Context, r audiograph.TimeRange, sampler audiograph.AnimationSampler) audiograph.ProcessContext {
	return audiograph.NewProcessContext(ctx, r, s.sampleRate, sampler)
}

func (s *Session) check() error {
	if s.released {
		return fmt.Errorf("%w: session is released", audiograph.ErrDisposed)
	}
	return nil
}

// Nodes returns tracked nodes in order of addition.
func (s *Session) Nodes() []audiograph.Node {
	return append([]audiograph.Node(nil), s.nodes...)
}

// Outputs returns nodes marked as outputs.
func (s *Session) Outputs() []audiograph.Node {
	return append([]audiograph.Node(nil), s.outputs...)
}

// Current returns the node which ConnectTo chains from.
func (s *Session) Current() audiograph.Node {
	return s.current
}

// Reusable returns number of nodes available for reuse.
func (s *Session) Reusable() int {
	if s.previous == nil {
		return 0
	}
	return s.previous.len()
}

func (s *Session) tracked(n audiograph.Node) bool {
	return indexOf(s.nodes, n) >= 0
}

// AddNode tracks n and makes it current. Adding a tracked node only makes
// it current. A node from the previous render is reclaimed.
func (s *Session) AddNode(n audiograph.Node) error {
	if err := s.check(); err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("%w: nil node", audiograph.ErrInvalidArgument)
	}
	if !s.tracked(n) {
		if s.previous != nil {
			s.previous.remove(n)
		}
		s.nodes = append(s.nodes, n)
	}
	s.current = n
	return nil
}

// reuse takes node with key k from the previous render or creates one.
func reuse[T node.Keyed](s *Session, k node.Key, create func() T) (T, error) {
	var zero T
	if err := s.check(); err != nil {
		return zero, err
	}
	if s.previous != nil {
		if n, ok := s.previous.take(k); ok {
			if t, ok := n.(T); ok {
				t.ClearInputs()
				s.logger.Debug(fmt.Sprintf("reused %s node %s", t.Kind(), t.ID()))
				return t, s.AddNode(t)
			}
			s.previous.put(n)
		}
	}
	t := create()
	return t, s.AddNode(t)
}

// CreateSourceNode returns node reading src.
func (s *Session) CreateSourceNode(src audiograph.SoundSource) (*node.Source, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", audiograph.ErrInvalidArgument)
	}
	return reuse(s, node.Key{Kind: node.KindSource, Ref: src}, func() *node.Source {
		return node.NewSource(src)
	})
}

// CreateGainNode returns node with static gain g. Any static gain node of
// the previous render is reused with updated gain.
func (s *Session) CreateGainNode(g float64) (*node.Gain, error) {
	n, err := reuse(s, node.Key{Kind: node.KindGain}, func() *node.Gain {
		return node.NewGain(g)
	})
	if err != nil {
		return nil, err
	}
	n.SetGain(g)
	return n, nil
}

// CreateAnimatedGainNode returns node with gain sampled from param of
// target.
func (s *Session) CreateAnimatedGainNode(target any, param audiograph.Parameter) (*node.Gain, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: nil gain target", audiograph.ErrInvalidArgument)
	}
	return reuse(s, node.Key{Kind: node.KindGain, Ref: target, Param: param}, func() *node.Gain {
		return node.NewAnimatedGain(target, param)
	})
}

// CreateShiftNode returns node delaying its input by shift.
func (s *Session) CreateShiftNode(shift time.Duration) (*node.Shift, error) {
	return reuse(s, node.Key{Kind: node.KindShift, Start: shift}, func() *node.Shift {
		return node.NewShift(shift)
	})
}

// CreateClipNode returns node keeping [start, start+duration) of its
// input.
func (s *Session) CreateClipNode(start, duration time.Duration) (*node.Clip, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: clip duration %v", audiograph.ErrInvalidArgument, duration)
	}
	return reuse(s, node.Key{Kind: node.KindClip, Start: start, Duration: duration}, func() *node.Clip {
		return node.NewClip(start, duration)
	})
}

// CreateMixerNode returns mixer with session channel count.
func (s *Session) CreateMixerNode() (*node.Mixer, error) {
	return reuse(s, node.Key{Kind: node.KindMixer, Rate: s.channels}, func() *node.Mixer {
		return node.NewMixer(s.channels)
	})
}

// CreateEffectNode returns node applying e.
func (s *Session) CreateEffectNode(e audiograph.Effect) (*node.Effect, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil effect", audiograph.ErrInvalidArgument)
	}
	return reuse(s, node.Key{Kind: node.KindEffect, Ref: e}, func() *node.Effect {
		return node.NewEffect(e)
	})
}

// CreateResampleNode returns node converting input rendered at
// sourceRate.
func (s *Session) CreateResampleNode(sourceRate int) (*node.Resample, error) {
	if sourceRate <= 0 {
		return nil, fmt.Errorf("%w: source rate %d", audiograph.ErrInvalidArgument, sourceRate)
	}
	return reuse(s, node.Key{Kind: node.KindResample, Rate: sourceRate}, func() *node.Resample {
		return node.NewResample(sourceRate)
	})
}

// CreateSpeedNode returns node playing its input at static speed factor.
func (s *Session) CreateSpeedNode(speed float64) (*node.Speed, error) {
	if speed <= 0 {
		return nil, fmt.Errorf("%w: speed %v", audiograph.ErrInvalidArgument, speed)
	}
	return reuse(s, node.Key{Kind: node.KindSpeed, Ref: speed}, func() *node.Speed {
		return node.NewSpeed(speed)
	})
}

// CreateAnimatedSpeedNode returns node with speed sampled from param of
// target.
func (s *Session) CreateAnimatedSpeedNode(target any, param audiograph.Parameter) (*node.Speed, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: nil speed target", audiograph.ErrInvalidArgument)
	}
	return reuse(s, node.Key{Kind: node.KindSpeed, Ref: target, Param: param}, func() *node.Speed {
		return node.NewAnimatedSpeed(target, param)
	})
}

// Connect records from as an input of to. Untracked nodes are added. The
// edge is applied to nodes by BuildGraph. From is no longer an output.
func (s *Session) Connect(from, to audiograph.Node) error {
	if err := s.check(); err != nil {
		return err
	}
	if from == nil || to == nil {
		return fmt.Errorf("%w: nil node", audiograph.ErrInvalidArgument)
	}
	if from == to {
		return fmt.Errorf("%w: %s node %s connected to itself", audiograph.ErrInvalidArgument, from.Kind(), from.ID())
	}
	for _, e := range s.edges {
		if e.from == from && e.to == to {
			return fmt.Errorf("%w: %s node %s is already input of %s", audiograph.ErrInvalidOperation, from.Kind(), from.ID(), to.ID())
		}
	}
	if s.dependsOn(from, to) {
		return fmt.Errorf("%w: %s node %s -> %s node %s", audiograph.ErrCycleDetected, from.Kind(), from.ID(), to.Kind(), to.ID())
	}
	if err := s.AddNode(from); err != nil {
		return err
	}
	if err := s.AddNode(to); err != nil {
		return err
	}
	s.edges = append(s.edges, edge{from: from, to: to})
	s.outputs = without(s.outputs, from)
	return nil
}

// ConnectTo connects current node to dest and makes dest current.
func (s *Session) ConnectTo(dest audiograph.Node) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.current == nil {
		return fmt.Errorf("%w: no current node", audiograph.ErrInvalidOperation)
	}
	if err := s.Connect(s.current, dest); err != nil {
		return err
	}
	s.current = dest
	return nil
}

// SetCurrent makes tracked node n current.
func (s *Session) SetCurrent(n audiograph.Node) error {
	if err := s.check(); err != nil {
		return err
	}
	if !s.tracked(n) {
		return fmt.Errorf("%w: node is not tracked", audiograph.ErrInvalidOperation)
	}
	s.current = n
	return nil
}

// MarkOutput marks n as output. Untracked node is added.
func (s *Session) MarkOutput(n audiograph.Node) error {
	if err := s.AddNode(n); err != nil {
		return err
	}
	if indexOf(s.outputs, n) < 0 {
		s.outputs = append(s.outputs, n)
	}
	return nil
}

// dependsOn reports if target is reachable from n through recorded edges.
func (s *Session) dependsOn(n, target audiograph.Node) bool {
	seen := make(map[audiograph.Node]struct{})
	stack := []audiograph.Node{n}
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
		for _, e := range s.edges {
			if e.to == cur {
				stack = append(stack, e.from)
			}
		}
	}
	return false
}

// BuildGraph applies recorded edges and freezes the graph. Multiple
// outputs are summed by a mixer node.
func (s *Session) BuildGraph() (*audiograph.Graph, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if len(s.outputs) == 0 {
		return nil, fmt.Errorf("%w: no output marked", audiograph.ErrInvalidOperation)
	}
	edges := s.edges
	output := s.outputs[0]
	if len(s.outputs) > 1 {
		if s.mixer == nil || !s.tracked(s.mixer) {
			current := s.current
			m, err := s.CreateMixerNode()
			if err != nil {
				return nil, err
			}
			s.mixer, s.current = m, current
		}
		edges = append([]edge(nil), s.edges...)
		for _, o := range s.outputs {
			edges = append(edges, edge{from: o, to: s.mixer})
		}
		output = s.mixer
	}

	b := audiograph.NewBuilder(audiograph.WithLogger(s.logger))
	for _, n := range s.nodes {
		n.ClearInputs()
		if err := b.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, e := range edges {
		if err := b.Connect(e.from, e.to); err != nil {
			return nil, err
		}
	}
	if err := b.SetOutput(output); err != nil {
		return nil, err
	}
	return b.Build()
}

// BeginUpdate starts differential rebuild. Previous nodes and nodes the
// session still tracks become available for reuse, assembly starts over.
func (s *Session) BeginUpdate(previous ...audiograph.Node) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.previous != nil {
		return fmt.Errorf("%w: update is in progress", audiograph.ErrInvalidOperation)
	}
	s.previous = newPool()
	for _, n := range previous {
		s.previous.put(n)
	}
	for _, n := range s.nodes {
		s.previous.put(n)
	}
	s.reset()
	return nil
}

// EndUpdate releases every previous node which wasn't reused. Each node is
// released once, failures are aggregated.
func (s *Session) EndUpdate() error {
	if err := s.check(); err != nil {
		return err
	}
	if s.previous == nil {
		return fmt.Errorf("%w: no update in progress", audiograph.ErrInvalidOperation)
	}
	leftovers := s.previous.nodes
	s.previous = nil
	for _, n := range s.nodes {
		for _, l := range leftovers {
			n.RemoveInput(l)
		}
	}
	s.logger.Debug(fmt.Sprintf("reused %d nodes, releasing %d", len(s.nodes), len(leftovers)))
	return release(leftovers)
}

// RemoveNode stops tracking n, drops its edges and releases it.
func (s *Session) RemoveNode(n audiograph.Node) error {
	if err := s.check(); err != nil {
		return err
	}
	i := indexOf(s.nodes, n)
	if i < 0 {
		return nil
	}
	s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
	edges := s.edges[:0]
	for _, e := range s.edges {
		if e.from != n && e.to != n {
			edges = append(edges, e)
		}
	}
	s.edges = edges
	s.outputs = without(s.outputs, n)
	if s.current == n {
		s.current = nil
	}
	for _, other := range s.nodes {
		other.RemoveInput(n)
	}
	return n.Release()
}

// ClearConnections drops edges, outputs and inputs of tracked nodes.
func (s *Session) ClearConnections() error {
	if err := s.check(); err != nil {
		return err
	}
	for _, n := range s.nodes {
		n.ClearInputs()
	}
	s.edges = nil
	s.outputs = nil
	s.current = nil
	return nil
}

// Clear releases all tracked nodes and starts over.
func (s *Session) Clear() error {
	if err := s.check(); err != nil {
		return err
	}
	nodes := s.nodes
	s.reset()
	return release(nodes)
}

// Release releases tracked nodes and nodes waiting for reuse. Released
// session can't be used.
func (s *Session) Release() error {
	if s.released {
		return nil
	}
	nodes := s.nodes
	if s.previous != nil {
		nodes = append(nodes, s.previous.nodes...)
		s.previous = nil
	}
	s.reset()
	s.released = true
	return release(nodes)
}

func (s *Session) reset() {
	s.nodes = nil
	s.edges = nil
	s.outputs = nil
	s.current = nil
	s.mixer = nil
}

func release(nodes []audiograph.Node) error {
	var errs audiograph.ReleaseErrors
	for _, n := range nodes {
		if err := n.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs.Ret()
}

func indexOf(nodes []audiograph.Node, n audiograph.Node) int {
	for i := range nodes {
		if nodes[i] == n {
			return i
		}
	}
	return -1
}
