// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package bels

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Logic is the resolved logic value of a signal.
//
type Logic int8

// Logic values.
const (
	LogicX Logic = iota - 1 // unresolved
	Logic0
	Logic1
)

func (l Logic) String() string {
	switch l {
	case Logic0:
		return "0"
	case Logic1:
		return "1"
	}
	return "X"
}

// A Driver drives a site wire from outside the site.
//
type Driver interface {
	driver()
}

// Const is a constant driver.
//
type Const Logic

func (Const) driver() {}

// SiteSource is a driver from an output wire of another site. Its logic
// value is unresolved: ResolveDriver does not follow the driving site's own
// inputs, even when they are tied to a constant.
//
type SiteSource struct {
	Site string
	Pin  string
}

func (SiteSource) driver() {}

type wireRef struct {
	site string
	wire string
}

// A ProcessFn lowers the features of a tile. Sites it builds must be handed
// to TileContext.AddSite.
//
type ProcessFn func(tc *TileContext, features []Feature) error

// TileContext is the context of a tile being processed.
//
type TileContext struct {
	DB   Database
	Tile string
	Type string
	Log  logrus.FieldLogger

	staged []*Site
}

// AddSite stages s for registration. Staged sites are registered in the
// netlist only once the whole tile has been processed without error.
//
func (tc *TileContext) AddSite(s *Site) {
	tc.staged = append(tc.staged, s)
}

// Netlist is the top-level container of placed sites.
//
// Building a netlist runs in two phases: Build processes all tiles, then
// Cleanup runs the post-placement passes attached to sites. Cleanup must
// only be called once Build has returned and external drivers have been
// declared with Drive.
//
type Netlist struct {
	DB  Database
	Log logrus.FieldLogger

	procs map[string][]ProcessFn // by tile type

	mu      sync.RWMutex
	sites   map[string]*Site
	bels    map[*Bel]*Site
	nets    map[wireRef]Driver
	cleaned bool
}

// New returns a new empty netlist. If log is nil, the logrus standard logger
// is used.
//
func New(db Database, log logrus.FieldLogger) *Netlist {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Netlist{
		DB:    db,
		Log:   log,
		procs: make(map[string][]ProcessFn),
		sites: make(map[string]*Site),
		bels:  make(map[*Bel]*Site),
		nets:  make(map[wireRef]Driver),
	}
}

// Register registers process functions for the given tile type.
//
func (n *Netlist) Register(tileType string, fns ...ProcessFn) {
	n.procs[tileType] = append(n.procs[tileType], fns...)
}

// AddSite registers a fully built site.
//
func (n *Netlist) AddSite(s *Site) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.addSites(s)
}

func (n *Netlist) addSites(ss ...*Site) error {
	for i, s := range ss {
		if s.top != nil {
			return errors.Errorf("site %s already registered", s.Name)
		}
		if _, ok := n.sites[s.Name]; ok {
			return errors.Errorf("site %s already placed", s.Name)
		}
		for _, p := range ss[:i] {
			if p.Name == s.Name {
				return errors.Errorf("site %s placed twice", s.Name)
			}
		}
	}
	for _, s := range ss {
		n.sites[s.Name] = s
		s.top = n
		for _, b := range s.bels {
			n.bels[b] = s
		}
	}
	return nil
}

// Site returns the named site, or nil.
//
func (n *Netlist) Site(name string) *Site {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.sites[name]
}

// Sites returns all sites sorted by name.
//
func (n *Netlist) Sites() []*Site {
	n.mu.RLock()
	ss := make([]*Site, 0, len(n.sites))
	for _, s := range n.sites {
		ss = append(ss, s)
	}
	n.mu.RUnlock()
	sort.Slice(ss, func(i, j int) bool { return ss[i].Name < ss[j].Name })
	return ss
}

// BelCount returns the number of bels in the netlist.
//
func (n *Netlist) BelCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.bels)
}

// RemoveBel removes b from site s and forgets it. b must have been detached
// from all routes first (see Site.DetachBel): removing a bel that still
// appears in the routing graph is an error and leaves everything unchanged.
//
func (n *Netlist) RemoveBel(s *Site, b *Bel) error {
	if s.top != n {
		return errors.Errorf("site %s not in netlist", s.Name)
	}
	if b.site != s {
		return errors.Errorf("bel %s not placed in site %s", b.Name, s.Name)
	}
	if err := s.checkDetached(b); err != nil {
		return errors.Wrap(err, "cannot remove bel")
	}
	n.mu.Lock()
	delete(n.bels, b)
	n.mu.Unlock()
	s.removeBel(b)
	return nil
}

// DetachAndRemove detaches b from the routing of s, then removes it.
//
func (n *Netlist) DetachAndRemove(s *Site, b *Bel) error {
	if err := s.DetachBel(b); err != nil {
		return err
	}
	return n.RemoveBel(s, b)
}

// Drive declares the external driver of a site wire.
//
func (n *Netlist) Drive(site, wire string, d Driver) {
	n.mu.Lock()
	n.nets[wireRef{site, wire}] = d
	n.mu.Unlock()
}

// ResolveDriver returns the logic value driving the given input wire of s.
// Wires that are not driven, or driven by other sites, are unresolved.
//
func (n *Netlist) ResolveDriver(s *Site, wire string) Logic {
	if _, ok := s.r.lookup(SitePinKey(wire)); !ok {
		return LogicX
	}
	n.mu.RLock()
	d := n.nets[wireRef{s.Name, wire}]
	n.mu.RUnlock()
	if c, ok := d.(Const); ok {
		switch Logic(c) {
		case Logic0, Logic1:
			return Logic(c)
		}
	}
	return LogicX
}

func workerCount(workers int) int {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers <= 0 {
		workers = 1
	}
	return workers
}

// Build processes tiles concurrently, using at most workers goroutines (the
// value of GOMAXPROCS if workers <= 0). Each tile is processed by the
// functions registered for its tile type. A failing tile registers none of
// its sites; the first error is returned once all tiles are done.
//
func (n *Netlist) Build(ctx context.Context, tiles []TileFeatures, workers int) error {
	n.mu.RLock()
	cleaned := n.cleaned
	n.mu.RUnlock()
	if cleaned {
		return errors.New("netlist already cleaned up")
	}

	var g errgroup.Group
	g.SetLimit(workerCount(workers))
	for _, t := range tiles {
		t := t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := n.buildTile(t)
			if err != nil {
				n.Log.WithField("tile", t.Tile).WithError(err).Error("tile aborted")
			}
			return err
		})
	}
	return g.Wait()
}

func (n *Netlist) buildTile(t TileFeatures) error {
	tt, err := n.DB.TileType(t.Tile)
	if err != nil {
		return errors.Wrapf(err, "tile %s", t.Tile)
	}
	fns := n.procs[tt.Name()]
	log := n.Log.WithFields(logrus.Fields{"tile": t.Tile, "type": tt.Name()})
	if len(fns) == 0 {
		log.Debug("no processor for tile type")
		return nil
	}
	tc := &TileContext{DB: n.DB, Tile: t.Tile, Type: tt.Name(), Log: log}
	for _, fn := range fns {
		if err := fn(tc, t.Features); err != nil {
			return errors.Wrapf(err, "tile %s", t.Tile)
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.addSites(tc.staged...); err != nil {
		return errors.Wrapf(err, "tile %s", t.Tile)
	}
	log.WithField("sites", len(tc.staged)).Debug("tile done")
	return nil
}

// Cleanup runs the post-placement passes of all sites, using at most
// workers goroutines. Each pass only touches its own site. Cleanup is
// idempotent.
//
func (n *Netlist) Cleanup(workers int) error {
	n.mu.Lock()
	n.cleaned = true
	n.mu.Unlock()

	var ss []*Site
	for _, s := range n.Sites() {
		if s.cleanup != nil {
			ss = append(ss, s)
		}
	}
	workers = workerCount(workers)
	size := len(ss) / workers
	if size*workers < len(ss) {
		size++
	}

	var g errgroup.Group
	for len(ss) > 0 {
		if size > len(ss) {
			size = len(ss)
		}
		chunk := ss[:size]
		g.Go(func() error {
			for _, s := range chunk {
				if err := s.cleanup(n, s); err != nil {
					return errors.Wrapf(err, "cleanup of site %s", s.Name)
				}
			}
			return nil
		})
		ss = ss[size:]
	}
	return g.Wait()
}
