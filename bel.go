// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package bels

import (
	"sort"
	"strconv"
)

// A Bel is a functional element placed in a site.
//
type Bel struct {
	// Kind is the primitive type, BUFGCTRL, BUFHCE, ...
	Kind string
	// Name is the bel name within its site. It defaults to Kind.
	Name string
	// Params maps parameter names to their decoded value.
	Params map[string]Value

	conns map[string]string // port -> site wire
	site  *Site
}

// NewBel returns a new bel of the given kind.
//
func NewBel(kind string) *Bel {
	return &Bel{
		Kind:   kind,
		Name:   kind,
		Params: make(map[string]Value),
		conns:  make(map[string]string),
	}
}

// Flag returns the value of an Int parameter as a boolean. Missing or
// non-Int parameters are false.
//
func (b *Bel) Flag(name string) bool {
	v, ok := b.Params[name].(Int)
	return ok && v != 0
}

// Wire returns the site wire connected to port.
//
func (b *Bel) Wire(port string) (string, bool) {
	w, ok := b.conns[port]
	return w, ok
}

// Ports returns the sorted names of the connected ports.
//
func (b *Bel) Ports() []string {
	ps := make([]string, 0, len(b.conns))
	for p := range b.conns {
		ps = append(ps, p)
	}
	sort.Strings(ps)
	return ps
}

// Connected reports whether any port of b is still connected.
//
func (b *Bel) Connected() bool { return len(b.conns) > 0 }

// Site returns the site b is placed in, or nil.
//
func (b *Bel) Site() *Site { return b.site }

// BusPinName returns the name of the pin at index i of bus: bus[i].
//
func BusPinName(bus string, i int) string {
	return bus + "[" + strconv.Itoa(i) + "]"
}

// BusWireName returns the site wire name of the pin at index i of bus: bus<i>.
//
func BusWireName(bus string, i int) string {
	return bus + strconv.Itoa(i)
}
