/*
Package metric exposes expvar counters of node evaluations.

Counters are aggregated per node kind and published under
"audiograph.nodes.<kind>.<counter>".
*/
package metric

import (
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const nodesLabel = "audiograph.nodes"

const (
	// NodeCounter counts number of created nodes.
	NodeCounter = "Nodes"
	// ProcessCounter counts number of computed outputs.
	ProcessCounter = "Processes"
	// HitCounter counts number of outputs served from the pass cache.
	HitCounter = "CacheHits"
	// SampleCounter counts number of computed samples per channel.
	SampleCounter = "Samples"
	// DurationCounter counts audio duration of computed outputs.
	DurationCounter = "Duration"
	// LatencyCounter measures wall time of the latest computation.
	LatencyCounter = "Latency"
)

var (
	kinds = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		NodeCounter,
		ProcessCounter,
		HitCounter,
		SampleCounter,
		DurationCounter,
		LatencyCounter,
	}
)

// Get metrics values for provided node kind.
func Get(kind string) map[string]string {
	return getCounters(kind)
}

// GetAll returns counters for all measured node kinds.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	kinds.Lock()
	defer kinds.Unlock()
	for kind := range kinds.m {
		m[kind] = getCounters(kind)
	}
	return m
}

func getCounters(kind string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(kind, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// Meter captures counters of a single node.
type Meter struct {
	metric metric
}

// NewMeter registers a node of provided kind.
func NewMeter(kind string) Meter {
	m := kinds.get(kind)
	m.nodes.Add(1)
	return Meter{metric: m}
}

// Hit records output served from cache.
func (m Meter) Hit() {
	if m.metric.hits == nil {
		return
	}
	m.metric.hits.Add(1)
}

// Computed records computed output of n samples at sampleRate which took
// elapsed wall time.
func (m Meter) Computed(n, sampleRate int, elapsed time.Duration) {
	if m.metric.processes == nil {
		return
	}
	m.metric.processes.Add(1)
	m.metric.samples.Add(int64(n))
	if sampleRate > 0 {
		m.metric.duration.add(time.Duration(int64(n) * int64(time.Second) / int64(sampleRate)))
	}
	m.metric.latency.set(elapsed)
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(kind string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[kind]; ok {
		return metric
	}
	metric := newMetric(kind)
	m.m[kind] = metric
	return metric
}

type metric struct {
	nodes     *expvar.Int
	processes *expvar.Int
	hits      *expvar.Int
	samples   *expvar.Int
	latency   *duration
	duration  *duration
}

func newMetric(kind string) metric {
	m := metric{
		nodes:     expvar.NewInt(key(kind, NodeCounter)),
		processes: expvar.NewInt(key(kind, ProcessCounter)),
		hits:      expvar.NewInt(key(kind, HitCounter)),
		samples:   expvar.NewInt(key(kind, SampleCounter)),
		latency:   &duration{},
		duration:  &duration{},
	}
	expvar.Publish(key(kind, LatencyCounter), m.latency)
	expvar.Publish(key(kind, DurationCounter), m.duration)
	return m
}

func key(kind, counter string) string {
	return fmt.Sprintf("%s.%s.%s", nodesLabel, kind, counter)
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)))
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
