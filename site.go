// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package bels

import (
	"sort"

	"github.com/pkg/errors"
)

// A Pip is a site pip mux on a routing path. Input is the mux input asserted
// by the configuration.
//
type Pip struct {
	Mux   string
	Input string
}

// MakeInverterPath returns the pip path realizing the optional inversion of
// pin: the <pin>INV mux, selecting <pin>_B when inverted and <pin> otherwise.
// The path is the same for both polarities.
//
func MakeInverterPath(pin string, inverted bool) []Pip {
	in := pin
	if inverted {
		in = pin + "_B"
	}
	return []Pip{{Mux: pin + "INV", Input: in}}
}

// PortRef is a reference to a bel port.
//
type PortRef struct {
	Bel  *Bel
	Port string
}

// A CleanupFn is a post-placement pass run on a site by Netlist.Cleanup.
//
type CleanupFn func(top *Netlist, s *Site) error

// A Site is a physical placement slot. It owns its bels and its routing
// graph.
//
type Site struct {
	Name     string // physical site name
	Tile     string
	Features []Feature

	bels    []*Bel
	sinks   map[string][]PortRef // site wire -> bel inputs
	sources map[string][]PortRef // site wire -> bel outputs
	r       *routing
	cleanup CleanupFn
	top     *Netlist // set once registered
}

// NewSite returns an empty site.
//
func NewSite(tile, name string, features []Feature) *Site {
	return &Site{
		Name:     name,
		Tile:     tile,
		Features: features,
		sinks:    make(map[string][]PortRef),
		sources:  make(map[string][]PortRef),
		r:        newRouting(),
	}
}

func (s *Site) errorf(format string, args ...interface{}) error {
	return errors.Wrap(errors.Errorf(format, args...), "site "+s.Name)
}

// AddSink connects the site wire to the input port of b, through pips.
//
func (s *Site) AddSink(b *Bel, port, wire string, pips ...Pip) error {
	if _, ok := b.conns[port]; ok {
		return s.errorf("port %s.%s already connected", b.Name, port)
	}
	if h, ok := s.r.lookup(SitePinKey(wire)); ok && s.r.nodes[h].dir == Output {
		return s.errorf("site wire %s is an output", wire)
	}
	for _, p := range pips {
		if _, ok := s.r.lookup(PipKey(p.Mux)); ok {
			return s.errorf("pip %s already in use", p.Mux)
		}
	}
	if h, ok := s.r.lookup(BelPinKey(b.Name, port)); ok && s.r.nodes[h].org != noHandle {
		return s.errorf("port %s.%s already driven", b.Name, port)
	}

	prev := s.r.node(SitePinKey(wire), Input)
	for _, p := range pips {
		h := s.r.node(PipKey(p.Mux), DirUnknown)
		s.r.nodes[h].state = p.Input
		if err := s.r.connect(prev, h); err != nil {
			return errors.Wrap(err, "site "+s.Name)
		}
		prev = h
	}
	if err := s.r.connect(prev, s.r.node(BelPinKey(b.Name, port), Input)); err != nil {
		return errors.Wrap(err, "site "+s.Name)
	}
	b.conns[port] = wire
	s.sinks[wire] = append(s.sinks[wire], PortRef{b, port})
	return nil
}

// AddSource connects the output port of b to the site wire.
//
func (s *Site) AddSource(b *Bel, port, wire string) error {
	if _, ok := b.conns[port]; ok {
		return s.errorf("port %s.%s already connected", b.Name, port)
	}
	if h, ok := s.r.lookup(SitePinKey(wire)); ok {
		n := &s.r.nodes[h]
		if n.dir == Input {
			return s.errorf("site wire %s is an input", wire)
		}
		if n.org != noHandle {
			return s.errorf("site wire %s already driven by %s", wire, s.r.nodes[n.org].key)
		}
	}
	bp := s.r.node(BelPinKey(b.Name, port), Output)
	if err := s.r.connect(bp, s.r.node(SitePinKey(wire), Output)); err != nil {
		return errors.Wrap(err, "site "+s.Name)
	}
	b.conns[port] = wire
	s.sources[wire] = append(s.sources[wire], PortRef{b, port})
	return nil
}

// AddBel places b in the site. If the site is already registered in a
// netlist, b is registered as well.
//
func (s *Site) AddBel(b *Bel) error {
	if b.site != nil {
		return s.errorf("bel %s already placed in site %s", b.Name, b.site.Name)
	}
	if s.Bel(b.Name) != nil {
		return s.errorf("duplicate bel %s", b.Name)
	}
	b.site = s
	s.bels = append(s.bels, b)
	if s.top != nil {
		s.top.mu.Lock()
		s.top.bels[b] = s
		s.top.mu.Unlock()
	}
	return nil
}

// Bel returns the bel with the given name, or nil.
//
func (s *Site) Bel(name string) *Bel {
	for _, b := range s.bels {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Bels returns the bels of the site in placement order.
//
func (s *Site) Bels() []*Bel {
	return append([]*Bel(nil), s.bels...)
}

// Link connects the given routing nodes in sequence. All nodes must exist.
//
func (s *Site) Link(keys ...NodeKey) error {
	hs := make([]Handle, len(keys))
	for i, k := range keys {
		h, ok := s.r.lookup(k)
		if !ok {
			return s.errorf("unknown routing node %s", k)
		}
		hs[i] = h
	}
	for i := 1; i < len(hs); i++ {
		if err := s.r.connect(hs[i-1], hs[i]); err != nil {
			return errors.Wrap(err, "site "+s.Name)
		}
	}
	return nil
}

// Prune removes every edge incident to the node k, and the pips it feeds.
// Unknown nodes are ignored.
//
func (s *Site) Prune(k NodeKey) {
	if h, ok := s.r.lookup(k); ok {
		s.r.prune(h)
	}
}

// DetachBel retracts b from every route of the site and releases its routing
// nodes. Its ports are disconnected from the site wires, but b stays placed;
// see Netlist.RemoveBel.
//
func (s *Site) DetachBel(b *Bel) error {
	if b.site != s {
		return s.errorf("bel %s not placed in this site", b.Name)
	}
	for _, h := range s.r.liveBelNodes(b.Name) {
		s.r.release(h)
	}
	detach := func(m map[string][]PortRef) {
		for w, refs := range m {
			keep := refs[:0]
			for _, r := range refs {
				if r.Bel != b {
					keep = append(keep, r)
				}
			}
			if len(keep) == 0 {
				delete(m, w)
			} else {
				m[w] = keep
			}
		}
	}
	detach(s.sinks)
	detach(s.sources)
	b.conns = make(map[string]string)
	return nil
}

// checkDetached returns an error if b is still part of the site's routing.
//
func (s *Site) checkDetached(b *Bel) error {
	if b.Connected() {
		return s.errorf("bel %s still has connected ports %v", b.Name, b.Ports())
	}
	if hs := s.r.liveBelNodes(b.Name); len(hs) > 0 {
		return s.errorf("bel %s still has routing node %s", b.Name, s.r.nodes[hs[0]].key)
	}
	for _, m := range []map[string][]PortRef{s.sinks, s.sources} {
		for w, refs := range m {
			for _, r := range refs {
				if r.Bel == b {
					return s.errorf("bel %s still attached to site wire %s", b.Name, w)
				}
			}
		}
	}
	return nil
}

func (s *Site) removeBel(b *Bel) {
	for i, sb := range s.bels {
		if sb == b {
			s.bels = append(s.bels[:i], s.bels[i+1:]...)
			break
		}
	}
	b.site = nil
}

// Driver returns the node at the root of the route reaching k. ok is false
// if k does not exist.
//
func (s *Site) Driver(k NodeKey) (root NodeKey, ok bool) {
	h, ok := s.r.lookup(k)
	if !ok {
		return NodeKey{}, false
	}
	return s.r.nodes[s.r.root(h)].key, true
}

// PipState returns the asserted input of the pip mux.
//
func (s *Site) PipState(mux string) (string, bool) {
	h, ok := s.r.lookup(PipKey(mux))
	if !ok {
		return "", false
	}
	return s.r.nodes[h].state, true
}

// Edges returns the edges of the routing graph, sorted.
//
func (s *Site) Edges() []Edge {
	return s.r.edges()
}

// Sinks returns the sorted names of the site wires feeding bel inputs.
// Wires whose bels have all been detached are not listed, even if they are
// still routed, see Edges.
//
func (s *Site) Sinks() []string { return sortedKeys(s.sinks) }

// Sources returns the sorted names of the site wires driven by bel outputs.
// As with Sinks, wires of detached bels are not listed.
//
func (s *Site) Sources() []string { return sortedKeys(s.sources) }

// SinkRefs returns the bel ports fed by the site wire.
//
func (s *Site) SinkRefs(wire string) []PortRef {
	return append([]PortRef(nil), s.sinks[wire]...)
}

// SetCleanup attaches a post-placement pass to the site.
//
func (s *Site) SetCleanup(fn CleanupFn) { s.cleanup = fn }

func sortedKeys(m map[string][]PortRef) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}
