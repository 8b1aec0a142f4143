package node

import (
	"time"

	"pipelined.dev/audiograph"
)

// Shift moves its input later in time: output window [t, t+d) is the input
// window [t-shift, t-shift+d). Samples are passed unmodified.
type Shift struct {
	audiograph.Base
	shift time.Duration
}

// NewShift returns shift node.
func NewShift(shift time.Duration) *Shift {
	return &Shift{
		Base:  audiograph.NewBase(KindShift),
		shift: shift,
	}
}

// Shift returns time offset.
func (n *Shift) Shift() time.Duration {
	return n.shift
}

// Key implements Keyed.
func (n *Shift) Key() Key {
	return Key{Kind: KindShift, Start: n.shift}
}

// Process implements audiograph.Node.
func (n *Shift) Process(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	return n.Evaluate(pc, n.shifted)
}

func (n *Shift) shifted(pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	in, err := firstInput(&n.Base, pc.WithTimeRange(pc.TimeRange().Shift(-n.shift)))
	if err != nil {
		return nil, err
	}
	// input keeps its own reference
	return in.Retain(), nil
}
