package bellib_test

import (
	"context"
	"strings"
	"testing"

	"github.com/db47h/bels"
	"github.com/db47h/bels/bellib"
	"github.com/db47h/bels/beltest"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newNetlist(t *testing.T) (*bels.Netlist, *test.Hook) {
	t.Helper()
	n, hook := beltest.Netlist(beltest.DB(t))
	if err := bellib.Register(n, bellib.DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	return n, hook
}

func build(t *testing.T, n *bels.Netlist, features ...[]bels.Feature) error {
	t.Helper()
	var fs []bels.Feature
	for _, f := range features {
		fs = append(fs, f...)
	}
	return n.Build(context.Background(), bels.SplitTiles(fs), 4)
}

func TestBUFG(t *testing.T) {
	n, _ := newNetlist(t)
	top := beltest.BufgTopTile + ".BUFGCTRL."
	err := build(t, n,
		beltest.Features(top+"BUFGCTRL_X0Y3",
			"IN_USE", "ZINV_CE0", "ZINV_S0", "IS_IGNORE1_INVERTED", "ZPRESELECT_I0", "INIT_OUT"),
		beltest.Features(top+"BUFGCTRL_X0Y4", "ZINV_CE0"),
		beltest.Features(beltest.BufgBotTile+".BUFGCTRL.BUFGCTRL_X0Y3", "IN_USE", "PRESELECT_I1"),
	)
	if err != nil {
		beltest.Trace(t, err)
		t.Fatal(err)
	}
	if got := len(n.Sites()); got != 2 {
		t.Fatalf("got %d sites, expected 2", got)
	}

	s := n.Site("BUFGCTRL_X0Y19")
	if s == nil {
		t.Fatal("site BUFGCTRL_X0Y19 not placed")
	}
	b := s.Bel(bellib.BUFGCTRL)
	want := map[string]string{
		"IS_IGNORE0_INVERTED": "1",
		"IS_IGNORE1_INVERTED": "0",
		"IS_CE0_INVERTED":     "0",
		"IS_CE1_INVERTED":     "1",
		"IS_S0_INVERTED":      "0",
		"IS_S1_INVERTED":      "1",
		"PRESELECT_I0":        `"FALSE"`,
		"PRESELECT_I1":        `"FALSE"`,
		"INIT_OUT":            "1",
	}
	if diff := cmp.Diff(want, beltest.Params(b)); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
	pips := map[string]string{
		"CE0INV":     "CE0",
		"CE1INV":     "CE1_B",
		"S0INV":      "S0",
		"S1INV":      "S1_B",
		"IGNORE0INV": "IGNORE0_B",
		"IGNORE1INV": "IGNORE1",
	}
	for mux, in := range pips {
		if st, ok := s.PipState(mux); !ok || st != in {
			t.Errorf("pip %s: got %q, expected %q", mux, st, in)
		}
	}
	if es := s.Edges(); len(es) != 15 {
		t.Errorf("got %d edges, expected 15", len(es))
	}
	if root, _ := s.Driver(bels.BelPinKey(bellib.BUFGCTRL, "S1")); root != bels.SitePinKey("S1") {
		t.Errorf("got S1 driver %s", root)
	}
	if _, ok := s.PipState("I0INV"); ok {
		t.Error("data pins have no inverter")
	}

	s = n.Site("BUFGCTRL_X0Y3")
	if s == nil {
		t.Fatal("site BUFGCTRL_X0Y3 not placed")
	}
	ps := beltest.Params(s.Bel(bellib.BUFGCTRL))
	if ps["PRESELECT_I0"] != `"TRUE"` || ps["PRESELECT_I1"] != `"TRUE"` {
		t.Errorf("got PRESELECT_I0=%s PRESELECT_I1=%s", ps["PRESELECT_I0"], ps["PRESELECT_I1"])
	}
}

func TestBUFG_notFound(t *testing.T) {
	n, _ := newNetlist(t)
	err := build(t, n,
		beltest.Features(beltest.BufgTopTile+".BUFGCTRL.BUFGCTRL_X0Y16", "IN_USE"))
	if _, ok := errors.Cause(err).(*bels.SiteNotFoundError); !ok {
		t.Errorf("Got error %v, expected a *SiteNotFoundError", err)
	}
	if len(n.Sites()) != 0 {
		t.Errorf("got sites %v", n.Sites())
	}
}

func TestHROW(t *testing.T) {
	n, _ := newNetlist(t)
	hrow := beltest.HrowTile + ".BUFHCE."
	err := build(t, n,
		beltest.Features(hrow+"BUFHCE_X0Y1", "IN_USE", "CE_TYPE.ASYNC", "INIT_OUT"),
		beltest.Features(hrow+"BUFHCE_X1Y11", "IN_USE", "ZINV_CE"),
		beltest.Features(hrow+"BUFHCE_X0Y2", "ZINV_CE"),
	)
	if err != nil {
		t.Fatal(err)
	}
	data := []struct {
		site   string
		params map[string]string
		pip    string
	}{
		{"BUFHCE_X0Y25", map[string]string{"CE_TYPE": `"ASYNC"`, "IS_CE_INVERTED": "1", "INIT_OUT": "1"}, "CE_B"},
		{"BUFHCE_X1Y35", map[string]string{"CE_TYPE": `"SYNC"`, "IS_CE_INVERTED": "0", "INIT_OUT": "0"}, "CE"},
	}
	if got := len(n.Sites()); got != len(data) {
		t.Fatalf("got %d sites, expected %d", got, len(data))
	}
	for _, d := range data {
		s := n.Site(d.site)
		if s == nil {
			t.Fatalf("site %s not placed", d.site)
		}
		if diff := cmp.Diff(d.params, beltest.Params(s.Bel(bellib.BUFHCE))); diff != "" {
			t.Errorf("%s: params mismatch (-want +got):\n%s", d.site, diff)
		}
		beltest.CheckEdges(t, s,
			"site_pin:I -> bel_pin:BUFHCE.I",
			"site_pin:CE -> site_pip:CEINV",
			"site_pip:CEINV -> bel_pin:BUFHCE.CE",
			"bel_pin:BUFHCE.O -> site_pin:O",
		)
		if st, _ := s.PipState("CEINV"); st != d.pip {
			t.Errorf("%s: got pip state %s, expected %s", d.site, st, d.pip)
		}
	}
}

func TestCleanupHROW(t *testing.T) {
	const site = "BUFHCE_X0Y25"
	data := []struct {
		name     string
		inverted bool
		drv      bels.Driver
		removed  bool
	}{
		{"one", false, bels.Const(bels.Logic1), true},
		{"zero_inverted", true, bels.Const(bels.Logic0), true},
		{"one_inverted", true, bels.Const(bels.Logic1), false},
		{"zero", false, bels.Const(bels.Logic0), false},
		{"undriven", false, nil, false},
		{"site_source", false, bels.SiteSource{Site: "BUFGCTRL_X0Y0", Pin: "O"}, false},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			n, hook := newNetlist(t)
			opts := append([]string{"IN_USE"}, beltest.InversionOptions("CE", d.inverted)...)
			if err := build(t, n, beltest.Features(beltest.HrowTile+".BUFHCE.BUFHCE_X0Y1", opts...)); err != nil {
				t.Fatal(err)
			}
			if d.drv != nil {
				n.Drive(site, "CE", d.drv)
			}
			// the pass must be idempotent
			for i := 0; i < 2; i++ {
				if err := n.Cleanup(2); err != nil {
					t.Fatal(err)
				}
			}
			s := n.Site(site)
			if s == nil {
				t.Fatal("site removed")
			}
			if !d.removed {
				if n.BelCount() != 1 || s.Bel(bellib.BUFHCE) == nil {
					t.Fatal("BUFHCE removed")
				}
				if len(s.Edges()) != 4 {
					t.Errorf("got edges %v", beltest.EdgeStrings(s))
				}
				if diff := cmp.Diff([]string{"CE", "I"}, s.Sinks()); diff != "" {
					t.Errorf("sinks mismatch (-want +got):\n%s", diff)
				}
				return
			}
			if n.BelCount() != 0 || len(s.Bels()) != 0 {
				t.Fatalf("got %d bels, expected 0", n.BelCount())
			}
			beltest.CheckEdges(t, s, "site_pin:I -> site_pin:O")
			// the site pins are routed but no longer attached to any bel
			if len(s.Sinks()) != 0 || len(s.Sources()) != 0 {
				t.Errorf("got sinks %v, sources %v", s.Sinks(), s.Sources())
			}
			if root, _ := s.Driver(bels.SitePinKey("O")); root != bels.SitePinKey("I") {
				t.Errorf("got O driver %s, expected site_pin:I", root)
			}
			infos := 0
			for _, e := range hook.AllEntries() {
				if e.Level == logrus.InfoLevel && strings.Contains(e.Message, "pass-through") {
					infos++
				}
			}
			if infos != 1 {
				t.Errorf("got %d removal log entries, expected 1", infos)
			}
		})
	}
}
