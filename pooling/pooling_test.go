package pooling_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/audiograph/pooling"
)

func TestPool(t *testing.T) {
	p1 := pooling.Get(2, 512)
	p2 := pooling.Get(2, 512)
	if p1 != p2 {
		t.Fatal("p1 must be equal to p2")
	}

	pooling.Wipe()
	p3 := pooling.Get(2, 512)
	if p1 == p3 {
		t.Fatal("p1 must not be equal to p3")
	}
}

func TestBlocks(t *testing.T) {
	p := pooling.Get(3, 16)
	assert.Equal(t, 3, p.Channels())
	assert.Equal(t, 16, p.Samples())

	b := p.Get()
	assert.Len(t, b, 48)
	for i := range b {
		b[i] = 1
	}
	p.Put(b)

	b = p.Get()
	for i := range b {
		if b[i] != 0 {
			t.Fatalf("block is not zeroed at %d", i)
		}
	}
	// foreign blocks are ignored
	p.Put(make([]float64, 7))
	assert.Len(t, p.Get(), 48)
}
