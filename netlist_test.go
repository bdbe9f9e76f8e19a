package bels_test

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/db47h/bels"
	"github.com/db47h/bels/beltest"
	"github.com/db47h/bels/devdb"
	"github.com/pkg/errors"
)

// bufProc builds one BUF site per in-use BUF instance, named after the
// instance. Instances with a FAIL option make the tile fail.
//
func bufProc(tc *bels.TileContext, features []bels.Feature) error {
	for _, g := range bels.GroupFeatures(features, "BUF") {
		if !g.InUse() {
			continue
		}
		s := bels.NewSite(tc.Tile, g.Instance, g.Features)
		b := bels.NewBel("BUF")
		if err := s.AddSink(b, "I", "I"); err != nil {
			return err
		}
		if err := s.AddSource(b, "O", "O"); err != nil {
			return err
		}
		if err := s.AddBel(b); err != nil {
			return err
		}
		tc.AddSite(s)
		if g.Options.Has("FAIL") {
			return errors.New("failed on request")
		}
	}
	return nil
}

func testDB() *devdb.DB {
	db := devdb.New()
	db.AddTile("A", "T")
	db.AddTile("B", "T")
	db.AddTile("C", "T")
	db.AddTile("N", "NOPROC")
	return db
}

func tiles(lines ...string) []bels.TileFeatures {
	fs, err := bels.ParseFeatures(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		panic(err)
	}
	return bels.SplitTiles(fs)
}

func siteNames(n *bels.Netlist) []string {
	var names []string
	for _, s := range n.Sites() {
		names = append(names, s.Name)
	}
	return names
}

func TestNetlist_Build(t *testing.T) {
	n, _ := beltest.Netlist(testDB())
	n.Register("T", bufProc)
	err := n.Build(context.Background(), tiles(
		"A.BUF.S1.IN_USE",
		"A.BUF.S2.IN_USE",
		"A.BUF.S3.INIT_OUT",
		"N.BUF.S4.IN_USE",
		"B.BUF.S5.IN_USE",
	), 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(siteNames(n), ","); got != "S1,S2,S5" {
		t.Errorf("got sites %s, expected S1,S2,S5", got)
	}
	if n.BelCount() != 3 {
		t.Errorf("got %d bels, expected 3", n.BelCount())
	}
	if s := n.Site("S2"); s == nil || s.Tile != "A" {
		t.Errorf("got site %v", s)
	}
}

func TestNetlist_Build_atomic(t *testing.T) {
	n, hook := beltest.Netlist(testDB())
	n.Register("T", bufProc)
	err := n.Build(context.Background(), tiles(
		"A.BUF.S1.IN_USE",
		"B.BUF.S2.IN_USE",
		"B.BUF.S3.IN_USE",
		"B.BUF.S3.FAIL",
		"C.BUF.S4.IN_USE",
	), 0)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.HasPrefix(err.Error(), "tile B: ") {
		t.Errorf("Got error %q, expected a tile B error", err)
	}
	// none of the sites of B, including those built before the failure
	if got := strings.Join(siteNames(n), ","); got != "S1,S4" {
		t.Errorf("got sites %s, expected S1,S4", got)
	}
	aborted := 0
	for _, e := range hook.AllEntries() {
		if e.Message == "tile aborted" {
			aborted++
			if e.Data["tile"] != "B" {
				t.Errorf("got aborted tile %v, expected B", e.Data["tile"])
			}
		}
	}
	if aborted != 1 {
		t.Errorf("got %d aborted tiles, expected 1", aborted)
	}
}

func TestNetlist_Build_duplicate(t *testing.T) {
	n, _ := beltest.Netlist(testDB())
	n.Register("T", bufProc)
	err := n.Build(context.Background(), tiles(
		"A.BUF.S1.IN_USE",
		"B.BUF.S1.IN_USE",
	), 1)
	if err == nil || !strings.Contains(err.Error(), "site S1 already placed") {
		t.Errorf("Got error %v, expected a duplicate site error", err)
	}
	if len(n.Sites()) != 1 {
		t.Errorf("got %d sites, expected 1", len(n.Sites()))
	}
}

func TestNetlist_Build_errors(t *testing.T) {
	n, _ := beltest.Netlist(testDB())
	n.Register("T", bufProc)
	err := n.Build(context.Background(), tiles("Z.BUF.S1.IN_USE"), 1)
	if err == nil || err.Error() != "tile Z: unknown tile Z" {
		t.Errorf("Got error %v, expected unknown tile error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err = n.Build(ctx, tiles("A.BUF.S1.IN_USE"), 1); errors.Cause(err) != context.Canceled {
		t.Errorf("Got error %v, expected %v", err, context.Canceled)
	}

	if err = n.Cleanup(1); err != nil {
		t.Fatal(err)
	}
	if err = n.Build(context.Background(), tiles("A.BUF.S1.IN_USE"), 1); err == nil {
		t.Error("expected an error building after cleanup")
	}
}

func TestNetlist_RemoveBel(t *testing.T) {
	n, _ := beltest.Netlist(testDB())
	s, b := newBufSite(t, false)
	if err := n.AddSite(s); err != nil {
		t.Fatal(err)
	}
	if err := n.AddSite(s); err == nil {
		t.Error("expected an error adding a site twice")
	}
	err := n.RemoveBel(s, b)
	want := "cannot remove bel: site BUF_X0Y0: bel BUF still has connected ports [CE I O]"
	if err == nil || err.Error() != want {
		t.Errorf("Got error %v, expected %q", err, want)
	}
	if s.Bel("BUF") == nil || n.BelCount() != 1 {
		t.Fatal("failed removal changed the netlist")
	}
	if err = n.DetachAndRemove(s, b); err != nil {
		t.Fatal(err)
	}
	if s.Bel("BUF") != nil || n.BelCount() != 0 || b.Site() != nil {
		t.Error("bel not removed")
	}
	if err = n.RemoveBel(s, b); err == nil {
		t.Error("expected an error removing a removed bel")
	}

	// bels placed after registration are part of the netlist
	late := bels.NewBel("LATE")
	if err = s.AddBel(late); err != nil {
		t.Fatal(err)
	}
	if n.BelCount() != 1 {
		t.Errorf("got %d bels, expected 1", n.BelCount())
	}
	if err = n.DetachAndRemove(s, late); err != nil {
		t.Fatal(err)
	}
	if n.BelCount() != 0 {
		t.Errorf("got %d bels, expected 0", n.BelCount())
	}

	other, ob := newBufSite(t, false)
	if err = other.DetachBel(ob); err != nil {
		t.Fatal(err)
	}
	err = n.RemoveBel(other, ob)
	if want := "site BUF_X0Y0 not in netlist"; err == nil || err.Error() != want {
		t.Errorf("Got error %v, expected %q", err, want)
	}
	if other.Bel("BUF") != ob {
		t.Error("bel removed from a site outside the netlist")
	}
	m, _ := beltest.Netlist(testDB())
	if err = m.AddSite(s); err == nil || err.Error() != "site BUF_X0Y0 already registered" {
		t.Errorf("Got error %v, expected a registered site error", err)
	}
}

func TestNetlist_ResolveDriver(t *testing.T) {
	n, _ := beltest.Netlist(testDB())
	s, _ := newBufSite(t, false)
	if err := n.AddSite(s); err != nil {
		t.Fatal(err)
	}
	// drivers of the driving site are not followed
	n.Drive("SRC_X0Y0", "O", bels.Const(bels.Logic1))
	n.Drive("SRC_X0Y0", "I", bels.Const(bels.Logic1))
	data := []struct {
		name string
		wire string
		drv  bels.Driver
		want bels.Logic
	}{
		{"undriven", "CE", nil, bels.LogicX},
		{"one", "CE", bels.Const(bels.Logic1), bels.Logic1},
		{"zero", "CE", bels.Const(bels.Logic0), bels.Logic0},
		{"const_x", "CE", bels.Const(bels.LogicX), bels.LogicX},
		{"site", "CE", bels.SiteSource{Site: "BUFG_X0Y0", Pin: "O"}, bels.LogicX},
		{"site_chain", "CE", bels.SiteSource{Site: "SRC_X0Y0", Pin: "O"}, bels.LogicX},
		{"no_pin", "NOPE", bels.Const(bels.Logic1), bels.LogicX},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			if d.drv != nil {
				n.Drive(s.Name, d.wire, d.drv)
			}
			if got := n.ResolveDriver(s, d.wire); got != d.want {
				t.Errorf("got %v, expected %v", got, d.want)
			}
		})
	}
}

func TestNetlist_Cleanup(t *testing.T) {
	const count = 50
	n, _ := beltest.Netlist(testDB())
	var calls int32
	for i := 0; i < count; i++ {
		s := bels.NewSite("A", "S"+strconv.Itoa(i), nil)
		s.SetCleanup(func(top *bels.Netlist, s *bels.Site) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
		if err := n.AddSite(s); err != nil {
			t.Fatal(err)
		}
	}
	// a site without cleanup pass
	if err := n.AddSite(bels.NewSite("A", "X", nil)); err != nil {
		t.Fatal(err)
	}
	for _, w := range []int{0, 1, 3, 7, count * 2} {
		atomic.StoreInt32(&calls, 0)
		if err := n.Cleanup(w); err != nil {
			t.Fatal(err)
		}
		if c := atomic.LoadInt32(&calls); c != count {
			t.Errorf("workers %d: got %d calls, expected %d", w, c, count)
		}
	}
}

func TestNetlist_Cleanup_error(t *testing.T) {
	n, _ := beltest.Netlist(testDB())
	s := bels.NewSite("A", "S", nil)
	s.SetCleanup(func(top *bels.Netlist, s *bels.Site) error {
		return errors.New("boom")
	})
	if err := n.AddSite(s); err != nil {
		t.Fatal(err)
	}
	if err := n.Cleanup(2); err == nil || err.Error() != "cleanup of site S: boom" {
		t.Errorf("Got error %v, expected cleanup error", err)
	}
}
