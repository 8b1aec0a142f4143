package session

import (
	"reflect"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/node"
)

// pool keeps nodes of the previous render available for reuse. Nodes
// are indexed by their keys, nodes without usable key can only be
// reclaimed by identity.
type pool struct {
	nodes []audiograph.Node
	byKey map[node.Key][]audiograph.Node
}

func newPool() *pool {
	return &pool{
		byKey: make(map[node.Key][]audiograph.Node),
	}
}

func (p *pool) contains(n audiograph.Node) bool {
	for _, pn := range p.nodes {
		if pn == n {
			return true
		}
	}
	return false
}

// put adds n to the pool, duplicates are ignored.
func (p *pool) put(n audiograph.Node) {
	if n == nil || p.contains(n) {
		return
	}
	p.nodes = append(p.nodes, n)
	if k, ok := keyOf(n); ok {
		p.byKey[k] = append(p.byKey[k], n)
	}
}

// take removes and returns the oldest node with key k.
func (p *pool) take(k node.Key) (audiograph.Node, bool) {
	if !hashable(k) {
		return nil, false
	}
	candidates := p.byKey[k]
	if len(candidates) == 0 {
		return nil, false
	}
	n := candidates[0]
	p.remove(n)
	return n, true
}

// remove drops n from the pool.
func (p *pool) remove(n audiograph.Node) bool {
	for i := range p.nodes {
		if p.nodes[i] != n {
			continue
		}
		p.nodes = append(p.nodes[:i], p.nodes[i+1:]...)
		if k, ok := keyOf(n); ok {
			p.byKey[k] = without(p.byKey[k], n)
			if len(p.byKey[k]) == 0 {
				delete(p.byKey, k)
			}
		}
		return true
	}
	return false
}

func (p *pool) len() int {
	return len(p.nodes)
}

func keyOf(n audiograph.Node) (node.Key, bool) {
	keyed, ok := n.(node.Keyed)
	if !ok {
		return node.Key{}, false
	}
	k := keyed.Key()
	return k, hashable(k)
}

// hashable reports if key can be used in a map. Keys referencing
// uncomparable values can't, even when the static type is comparable but
// holds an uncomparable dynamic value.
func hashable(k node.Key) (ok bool) {
	if k.Ref == nil {
		return true
	}
	if !reflect.TypeOf(k.Ref).Comparable() {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = map[any]struct{}{k.Ref: {}}
	return true
}

func without(nodes []audiograph.Node, n audiograph.Node) []audiograph.Node {
	for i := range nodes {
		if nodes[i] == n {
			return append(nodes[:i:i], nodes[i+1:]...)
		}
	}
	return nodes
}
