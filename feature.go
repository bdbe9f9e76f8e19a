// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package bels

import (
	"io"
	"sort"
	"strings"

	"github.com/db47h/bels/internal/fasm"
)

// InUse is the option that marks a configured primitive instance. Instances
// without it are not instantiated.
//
const InUse = "IN_USE"

// path token positions for instance families: TILE.FAMILY.INSTANCE.OPTION...
const (
	tileToken     = 0
	familyToken   = 1
	instanceToken = 2
)

// A Feature is a configuration bit: a dotted path and its value.
//
type Feature struct {
	Path  []string
	Value int
}

// ParseFeature splits a dotted feature name into a Feature with the given value.
//
func ParseFeature(name string, value int) Feature {
	return Feature{Path: strings.Split(name, "."), Value: value}
}

func (f Feature) String() string {
	return strings.Join(f.Path, ".")
}

// Tile returns the name of the tile the feature belongs to.
//
func (f Feature) Tile() string {
	if len(f.Path) == 0 {
		return ""
	}
	return f.Path[tileToken]
}

// ParseFeatures reads FASM lines from r and returns them as canonical
// one-bit features.
//
func ParseFeatures(r io.Reader) ([]Feature, error) {
	bits, err := fasm.Parse(r)
	if err != nil {
		return nil, err
	}
	fs := make([]Feature, len(bits))
	for i, b := range bits {
		fs[i] = ParseFeature(b.Feature, b.Value)
	}
	return fs, nil
}

// TileFeatures holds the features of a single tile.
//
type TileFeatures struct {
	Tile     string
	Features []Feature
}

// SplitTiles groups features by tile, in order of first appearance.
//
func SplitTiles(features []Feature) []TileFeatures {
	var out []TileFeatures
	idx := make(map[string]int)
	for _, f := range features {
		t := f.Tile()
		i, ok := idx[t]
		if !ok {
			i = len(out)
			idx[t] = i
			out = append(out, TileFeatures{Tile: t})
		}
		out[i].Features = append(out[i].Features, f)
	}
	return out
}

// An OptionSet is the set of asserted option names of a primitive instance.
//
type OptionSet map[string]struct{}

// NewOptionSet returns a set holding the given options.
//
func NewOptionSet(options ...string) OptionSet {
	s := make(OptionSet, len(options))
	for _, o := range options {
		s.Add(o)
	}
	return s
}

// Add adds an option to the set.
func (s OptionSet) Add(option string) { s[option] = struct{}{} }

// Has reports whether option is asserted.
func (s OptionSet) Has(option string) bool {
	_, ok := s[option]
	return ok
}

// Names returns the sorted option names.
func (s OptionSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Options builds the option set of features after dropping skip leading
// path tokens. Only features with a non-zero value are asserted.
//
func Options(features []Feature, skip int) OptionSet {
	s := make(OptionSet)
	for _, f := range features {
		if f.Value == 0 || len(f.Path) <= skip {
			continue
		}
		s.Add(strings.Join(f.Path[skip:], "."))
	}
	return s
}

// A Group holds the features of one primitive instance.
//
type Group struct {
	Instance string
	Features []Feature
	Options  OptionSet
}

// InUse reports whether the instance is configured.
//
func (g *Group) InUse() bool {
	return g.Options.Has(InUse)
}

// GroupFeatures partitions the features of the given primitive family by
// instance. Features are expected to follow the TILE.FAMILY.INSTANCE.OPTION
// layout; features of other families are ignored. Groups are returned in
// order of first appearance.
//
func GroupFeatures(features []Feature, family string) []Group {
	var groups []Group
	idx := make(map[string]int)
	for _, f := range features {
		if len(f.Path) <= instanceToken || f.Path[familyToken] != family {
			continue
		}
		inst := f.Path[instanceToken]
		i, ok := idx[inst]
		if !ok {
			i = len(groups)
			idx[inst] = i
			groups = append(groups, Group{Instance: inst})
		}
		groups[i].Features = append(groups[i].Features, f)
	}
	for i := range groups {
		groups[i].Options = Options(groups[i].Features, instanceToken+1)
	}
	return groups
}
