/*
Package composer renders sounds window by window.

Every sound composes its graph into a session of its own. The graph is
kept between windows and rebuilt only after the sound is invalidated:
the rebuild hands previous nodes back to the session, so unchanged parts
keep their state. Outputs of all sounds are summed, passed through the
master limiter and converted to interleaved stereo.
*/
package composer

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/dsp"
	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/session"
)

const (
	// DefaultSampleRate is used when composer is created with zero rate.
	DefaultSampleRate = 44100
	// DefaultWindow is the duration rendered by a single Compose call.
	DefaultWindow = time.Second
	// DefaultChannels is the number of master channels.
	DefaultChannels = 2

	limiterThreshold = 1.0
	limiterRatio     = 10.0
)

// Sound builds its graph in a session and returns the output node.
// Returned node is marked as session output unless Compose marked
// outputs itself.
type Sound interface {
	Compose(*session.Session) (audiograph.Node, error)
}

// Option provides a way to set up the composer.
type Option func(*Composer)

// WithLogger sets logger to composer and sessions it creates.
func WithLogger(logger log.Logger) Option {
	return func(c *Composer) {
		c.logger = logger
	}
}

// WithWindow sets duration rendered by a single Compose call.
func WithWindow(d time.Duration) Option {
	return func(c *Composer) {
		c.window = d
	}
}

// WithChannels sets number of master channels.
func WithChannels(n int) Option {
	return func(c *Composer) {
		c.channels = n
	}
}

// WithSampler sets animation sampler passed to every render pass.
func WithSampler(sampler audiograph.AnimationSampler) Option {
	return func(c *Composer) {
		c.sampler = sampler
	}
}

type entry struct {
	session *session.Session
	graph   *audiograph.Graph
	nodes   []audiograph.Node
	dirty   bool
}

// Composer renders sounds. It's not safe for concurrent use. Nested
// Compose calls, for example from Sound.Compose, are rejected.
type Composer struct {
	logger     log.Logger
	sampleRate int
	channels   int
	window     time.Duration
	sampler    audiograph.AnimationSampler

	entries   map[Sound]*entry
	rendering atomic.Bool
	released  bool
}

// New returns composer which renders at sampleRate.
func New(sampleRate int, options ...Option) (*Composer, error) {
	if sampleRate == 0 {
		sampleRate = DefaultSampleRate
	}
	c := &Composer{
		logger:     log.For("composer"),
		sampleRate: sampleRate,
		channels:   DefaultChannels,
		window:     DefaultWindow,
		entries:    make(map[Sound]*entry),
	}
	for _, option := range options {
		option(c)
	}
	if c.sampleRate < 0 || c.channels <= 0 || c.window <= 0 {
		return nil, fmt.Errorf("%w: composer rate=%d channels=%d window=%v", audiograph.ErrInvalidArgument, c.sampleRate, c.channels, c.window)
	}
	return c, nil
}

// SampleRate of rendered audio.
func (c *Composer) SampleRate() int {
	return c.sampleRate
}

// Window returns duration rendered by a single Compose call.
func (c *Composer) Window() time.Duration {
	return c.window
}

// Rendering reports if Compose is in progress.
func (c *Composer) Rendering() bool {
	return c.rendering.Load()
}

// Compose renders window starting at provided time. Sounds which weren't
// composed before or were invalidated get their graphs rebuilt.
func (c *Composer) Compose(ctx context.Context, at time.Duration, sounds ...Sound) (*audio.FloatBuffer, error) {
	if c.released {
		return nil, fmt.Errorf("%w: composer is released", audiograph.ErrDisposed)
	}
	if !c.rendering.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: composer is rendering", audiograph.ErrInvalidOperation)
	}
	defer c.rendering.Store(false)

	master, err := audiograph.NewBuffer(c.sampleRate, c.channels, audiograph.SamplesOf(c.window, c.sampleRate))
	if err != nil {
		return nil, err
	}
	defer master.Release()

	pc := audiograph.NewProcessContext(ctx, audiograph.Range(at, c.window), c.sampleRate, c.sampler)
	for _, s := range sounds {
		e, err := c.compose(s)
		if err != nil {
			return nil, err
		}
		out, err := e.graph.Process(pc)
		if err != nil {
			return nil, err
		}
		err = mix(out, master)
		out.Release()
		if err != nil {
			return nil, err
		}
	}

	data, _ := master.Data()
	for _, ch := range data {
		dsp.ApplyLimiter(ch, limiterThreshold, limiterRatio)
	}
	return stereo(master), nil
}

// compose returns entry of s with up to date graph.
func (c *Composer) compose(s Sound) (*entry, error) {
	if !cacheable(s) {
		return nil, fmt.Errorf("%w: sound %T can't be cached", audiograph.ErrInvalidArgument, s)
	}
	e, ok := c.entries[s]
	if !ok {
		ss, err := session.New(c.sampleRate, c.channels, session.WithLogger(c.logger))
		if err != nil {
			return nil, err
		}
		e = &entry{session: ss, dirty: true}
		c.entries[s] = e
	}
	if !e.dirty {
		return e, nil
	}
	if err := c.rebuild(s, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (c *Composer) rebuild(s Sound, e *entry) error {
	if err := e.session.BeginUpdate(e.nodes...); err != nil {
		return err
	}
	out, err := s.Compose(e.session)
	if err == nil && out != nil && len(e.session.Outputs()) == 0 {
		err = e.session.MarkOutput(out)
	}
	if endErr := e.session.EndUpdate(); err == nil {
		err = endErr
	}
	e.nodes = e.session.Nodes()
	if err != nil {
		e.graph = nil
		return fmt.Errorf("compose %T: %w", s, err)
	}
	g, err := e.session.BuildGraph()
	if err != nil {
		e.graph = nil
		return fmt.Errorf("compose %T: %w", s, err)
	}
	e.graph = g
	e.dirty = false
	c.logger.Debug(fmt.Sprintf("composed %T into %d nodes", s, len(e.nodes)))
	return nil
}

// Invalidate marks graph of s to be rebuilt on next Compose.
func (c *Composer) Invalidate(s Sound) {
	if e, ok := c.entries[s]; ok {
		e.dirty = true
	}
}

// Forget drops cached graphs of sounds and releases their nodes.
func (c *Composer) Forget(sounds ...Sound) error {
	var errs audiograph.ReleaseErrors
	for _, s := range sounds {
		e, ok := c.entries[s]
		if !ok {
			continue
		}
		delete(c.entries, s)
		if err := e.session.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs.Ret()
}

// InvalidateCache drops all cached graphs.
func (c *Composer) InvalidateCache() error {
	sounds := make([]Sound, 0, len(c.entries))
	for s := range c.entries {
		sounds = append(sounds, s)
	}
	return c.Forget(sounds...)
}

// Release drops all cached graphs. Released composer can't be used.
func (c *Composer) Release() error {
	if c.released {
		return nil
	}
	c.released = true
	return c.InvalidateCache()
}

// cacheable reports if s can be used as a map key.
func cacheable(s Sound) (ok bool) {
	if s == nil || !reflect.TypeOf(s).Comparable() {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = map[Sound]struct{}{s: {}}
	return true
}

// mix adds in to master. Inputs with fewer channels are wrapped around.
func mix(in, master *audiograph.Buffer) error {
	src, err := in.Data()
	if err != nil {
		return err
	}
	dst, err := master.Data()
	if err != nil {
		return err
	}
	if len(src) == 0 {
		return nil
	}
	n := min(in.Samples(), master.Samples())
	for c := range dst {
		if err := dsp.AddWithGain(src[c%len(src)][:n], dst[c][:n], 1); err != nil {
			return err
		}
	}
	return nil
}

// stereo interleaves first two channels of b. Mono is duplicated.
func stereo(b *audiograph.Buffer) *audio.FloatBuffer {
	left, _ := b.Channel(0)
	right := left
	if b.Channels() > 1 {
		right, _ = b.Channel(1)
	}
	fb := &audio.FloatBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  b.SampleRate(),
		},
		Data: make([]float64, 2*b.Samples()),
	}
	for i := range left {
		fb.Data[2*i] = left[i]
		fb.Data[2*i+1] = right[i]
	}
	return fb
}
