package node

import (
	"time"

	"pipelined.dev/audiograph"
)

// Clip passes its input within [start, start+duration) and silences the
// rest of the window.
type Clip struct {
	audiograph.Base
	start    time.Duration
	duration time.Duration
}

// NewClip returns clip node.
func NewClip(start, duration time.Duration) *Clip {
	return &Clip{
		Base:     audiograph.NewBase(KindClip),
		start:    start,
		duration: duration,
	}
}

// Range returns the kept time range.
func (n *Clip) Range() audiograph.TimeRange {
	return audiograph.Range(n.start, n.duration)
}

// Key implements Keyed.
func (n *Clip) Key() Key {
	return Key{Kind: KindClip, Start: n.start, Duration: n.duration}
}

// Process implements audiograph.Node.
func (n *Clip) Process(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	return n.Evaluate(pc, n.clip)
}

func (n *Clip) clip(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	in, err := firstInput(&n.Base, pc)
	if err != nil {
		return nil, err
	}
	out, err := in.Clone()
	if err != nil {
		return nil, err
	}
	window := pc.TimeRange()
	keep := window.Intersect(n.Range())
	from, to := 0, 0
	if !keep.IsEmpty() {
		from = min(audiograph.SamplesOf(keep.Start-window.Start, pc.SampleRate()), out.Samples())
		to = min(from+audiograph.SamplesOf(keep.Duration, pc.SampleRate()), out.Samples())
	}
	data, _ := out.Data()
	for _, c := range data {
		clear(c[:from])
		clear(c[to:])
	}
	return out, nil
}
