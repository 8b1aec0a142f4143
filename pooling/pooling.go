/*
Package pooling provides cache for sample memory pools.

Buffers with the same shape share one pool, so repeated render passes
over the same window recycle their memory instead of allocating it.
*/
package pooling

import (
	"sync"
)

type key struct {
	channels int
	samples  int
}

var m = struct {
	sync.Mutex
	pools map[key]*Pool
}{
	pools: map[key]*Pool{},
}

// Pool hands out zeroed sample blocks of a fixed shape.
type Pool struct {
	channels int
	samples  int
	pool     sync.Pool
}

// Get returns pool for provided shape. Pools are cached internally, so
// multiple calls for same shape will return the same pool instance.
func Get(channels, samples int) *Pool {
	m.Lock()
	defer m.Unlock()
	k := key{channels: channels, samples: samples}
	if p, ok := m.pools[k]; ok {
		return p
	}

	p := &Pool{
		channels: channels,
		samples:  samples,
	}
	size := channels * samples
	p.pool.New = func() interface{} {
		b := make([]float64, size)
		return &b
	}
	m.pools[k] = p
	return p
}

// Wipe drops all cached pools.
func Wipe() {
	m.Lock()
	defer m.Unlock()
	m.pools = map[key]*Pool{}
}

// Channels of blocks served by the pool.
func (p *Pool) Channels() int {
	return p.channels
}

// Samples per channel of blocks served by the pool.
func (p *Pool) Samples() int {
	return p.samples
}

// Get returns a zeroed block of channels*samples values.
func (p *Pool) Get() []float64 {
	b := *(p.pool.Get().(*[]float64))
	clear(b)
	return b
}

// Put returns block to the pool. Blocks of foreign size are dropped.
func (p *Pool) Put(b []float64) {
	if cap(b) != p.channels*p.samples {
		return
	}
	b = b[:cap(b)]
	p.pool.Put(&b)
}
