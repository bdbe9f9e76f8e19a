// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package bels

import (
	"sort"

	"github.com/pkg/errors"
)

// NodeKind is the kind of a node in a site's routing graph.
//
type NodeKind int

// Node kinds.
const (
	SitePin NodeKind = iota
	BelPin
	SitePip
)

func (k NodeKind) String() string {
	switch k {
	case SitePin:
		return "site_pin"
	case BelPin:
		return "bel_pin"
	case SitePip:
		return "site_pip"
	}
	return "unknown"
}

// Dir is the direction of a pin.
//
type Dir int

// Pin directions.
const (
	DirUnknown Dir = iota
	Input
	Output
)

// NodeKey identifies a node in a site's routing graph.
//
type NodeKey struct {
	Kind NodeKind
	Bel  string // bel name, BelPin only
	Name string
}

// SitePinKey returns the key of the site pin (site wire) name.
func SitePinKey(name string) NodeKey { return NodeKey{Kind: SitePin, Name: name} }

// BelPinKey returns the key of pin on bel.
func BelPinKey(bel, pin string) NodeKey { return NodeKey{Kind: BelPin, Bel: bel, Name: pin} }

// PipKey returns the key of the site pip mux.
func PipKey(mux string) NodeKey { return NodeKey{Kind: SitePip, Name: mux} }

func (k NodeKey) String() string {
	if k.Kind == BelPin {
		return k.Kind.String() + ":" + k.Bel + "." + k.Name
	}
	return k.Kind.String() + ":" + k.Name
}

// Handle addresses a node in a routing arena.
//
type Handle int

const noHandle Handle = -1

type node struct {
	key   NodeKey
	dir   Dir
	state string   // asserted pip input, SitePip only
	org   Handle   // node driving this node
	outs  []Handle // nodes driven by this node
	live  bool
}

// routing is an arena of routing nodes. Nodes are only referenced by
// Handle; released handles are recycled.
//
type routing struct {
	nodes []node
	index map[NodeKey]Handle
	free  []Handle
}

func newRouting() *routing {
	return &routing{index: make(map[NodeKey]Handle)}
}

func (r *routing) lookup(k NodeKey) (Handle, bool) {
	h, ok := r.index[k]
	return h, ok
}

// node returns the handle of the node k, allocating it if needed.
//
func (r *routing) node(k NodeKey, dir Dir) Handle {
	if h, ok := r.index[k]; ok {
		if n := &r.nodes[h]; n.dir == DirUnknown {
			n.dir = dir
		}
		return h
	}
	n := node{key: k, dir: dir, org: noHandle, live: true}
	var h Handle
	if l := len(r.free); l > 0 {
		h = r.free[l-1]
		r.free = r.free[:l-1]
		r.nodes[h] = n
	} else {
		h = Handle(len(r.nodes))
		r.nodes = append(r.nodes, n)
	}
	r.index[k] = h
	return h
}

// connect adds an edge from -> to. A node has at most one driver.
//
func (r *routing) connect(from, to Handle) error {
	if from == to {
		return errors.New(r.nodes[from].key.String() + " connected to itself")
	}
	t := &r.nodes[to]
	switch t.org {
	case from:
		return nil
	case noHandle:
	default:
		return errors.New(t.key.String() + " already driven by " + r.nodes[t.org].key.String())
	}
	t.org = from
	r.nodes[from].outs = append(r.nodes[from].outs, to)
	return nil
}

// disconnect removes the edge from -> to, if any.
//
func (r *routing) disconnect(from, to Handle) {
	if r.nodes[to].org != from {
		return
	}
	r.nodes[to].org = noHandle
	f := &r.nodes[from]
	for i, o := range f.outs {
		if o == to {
			f.outs = append(f.outs[:i], f.outs[i+1:]...)
			break
		}
	}
}

// retract removes every edge incident to h.
//
func (r *routing) retract(h Handle) {
	if org := r.nodes[h].org; org != noHandle {
		r.disconnect(org, h)
	}
	for _, o := range r.nodes[h].outs {
		r.nodes[o].org = noHandle
	}
	r.nodes[h].outs = nil
}

// release retracts the edges of h and frees it. h must not be used
// afterwards.
//
func (r *routing) release(h Handle) {
	r.retract(h)
	delete(r.index, r.nodes[h].key)
	r.nodes[h] = node{org: noHandle}
	r.free = append(r.free, h)
}

// prune retracts h from the graph together with the pips it feeds.
//
func (r *routing) prune(h Handle) {
	outs := append([]Handle(nil), r.nodes[h].outs...)
	r.retract(h)
	for _, o := range outs {
		if r.nodes[o].key.Kind == SitePip {
			r.prune(o)
			r.release(o)
		}
	}
}

// root follows drivers up from h and returns the node with no driver.
//
func (r *routing) root(h Handle) Handle {
	for seen := 0; r.nodes[h].org != noHandle; seen++ {
		if seen > len(r.nodes) {
			// loops cannot be built with connect, but stay safe.
			break
		}
		h = r.nodes[h].org
	}
	return h
}

// Edge is a directed connection in a site's routing graph.
//
type Edge struct {
	From, To NodeKey
}

func (e Edge) String() string { return e.From.String() + " -> " + e.To.String() }

// edges returns all edges, sorted.
//
func (r *routing) edges() []Edge {
	var es []Edge
	for _, n := range r.nodes {
		if !n.live {
			continue
		}
		for _, o := range n.outs {
			es = append(es, Edge{n.key, r.nodes[o].key})
		}
	}
	sort.Slice(es, func(i, j int) bool { return es[i].String() < es[j].String() })
	return es
}

// liveBelNodes returns the handles of the live nodes of bel.
//
func (r *routing) liveBelNodes(bel string) []Handle {
	var hs []Handle
	for h, n := range r.nodes {
		if n.live && n.key.Kind == BelPin && n.key.Bel == bel {
			hs = append(hs, Handle(h))
		}
	}
	return hs
}
