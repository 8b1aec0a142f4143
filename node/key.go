package node

import (
	"time"

	"pipelined.dev/audiograph"
)

// Node kinds.
const (
	KindSource   = "source"
	KindGain     = "gain"
	KindShift    = "shift"
	KindClip     = "clip"
	KindMixer    = "mixer"
	KindEffect   = "effect"
	KindResample = "resample"
	KindSpeed    = "speed"
)

// Key is a semantic identity of a node. Nodes with equal keys are
// interchangeable after their mutable fields are refreshed.
type Key struct {
	Kind     string
	Ref      any
	Param    audiograph.Parameter
	Start    time.Duration
	Duration time.Duration
	Rate     int
}

// Keyed is implemented by nodes which can be reused.
type Keyed interface {
	audiograph.Node
	Key() Key
}

func firstInput(b *audiograph.Base, pc audiograph.ProcessContext) (*audiograph.Buffer, error) {
	return b.ProcessInput(pc, 0)
}
