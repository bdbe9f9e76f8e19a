// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package beltest provides utility functions for testing feature lowering.
//
package beltest

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/db47h/bels"
	"github.com/db47h/bels/devdb"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// Fixture tile names.
const (
	BufgBotTile = "CLK_BUFG_BOT_R_X60Y48"
	BufgTopTile = "CLK_BUFG_TOP_R_X60Y53"
	HrowTile    = "CLK_HROW_TOP_R_X60Y130"
	PcieTile    = "PCIE_BOT_X98Y115"
	IntTile     = "INT_L_X0Y0"
)

// PcieAttrs is the PCIE attribute table of the fixture database.
const PcieAttrs = `{
  "AER_CAP_ID": {"type": "BIN", "digits": 16},
  "AER_CAP_ON": {"type": "BOOL", "digits": 1},
  "LINK_CAP_MAX_LINK_WIDTH": {"type": "BIN", "digits": "6"}
}`

// PciePorts is the PCIE port table of the fixture database.
const PciePorts = `{
  "USERCLK": {"width": "1", "direction": "input"},
  "PIPERX0DATA": {"width": "2", "direction": "input"},
  "CFGAERECRCCHECKEN": {"width": 1, "direction": "output"}
}`

func siteRange(prefix string, x, y0, y1 int) []string {
	var s []string
	for y := y0; y <= y1; y++ {
		s = append(s, prefix+"_X"+strconv.Itoa(x)+"Y"+strconv.Itoa(y))
	}
	return s
}

func yamlList(s []string) string {
	return "[" + strings.Join(s, ", ") + "]"
}

func indent(s, prefix string) string {
	return prefix + strings.Replace(s, "\n", "\n"+prefix, -1)
}

// DatabaseYAML returns the YAML source of the fixture database.
//
// It has a bottom and a top BUFG tile (rows 0-15 and 16-31), an HROW tile
// with two columns of BUFHCE sites numbered 24 to 35, a PCIE tile and an
// interconnect tile without sites.
//
func DatabaseYAML() string {
	hrow := append(siteRange("BUFHCE", 0, 24, 35), siteRange("BUFHCE", 1, 24, 35)...)
	hrow = append(hrow, "GCLK_TEST_BUF_X0Y20")
	return fmt.Sprintf(`tiles:
  %s:
    type: CLK_BUFG_BOT_R
    sites: %s
  %s:
    type: CLK_BUFG_TOP_R
    sites: %s
  %s:
    type: CLK_HROW_TOP_R
    sites: %s
  %s:
    type: PCIE_BOT
    sites: [PCIE_2_1_X0Y0]
  %s:
    type: INT_L
cells:
  pcie_2_1_attrs.json: |
%s
  pcie_2_1_ports.json: |
%s
`,
		BufgBotTile, yamlList(siteRange("BUFGCTRL", 0, 0, 15)),
		BufgTopTile, yamlList(siteRange("BUFGCTRL", 0, 16, 31)),
		HrowTile, yamlList(hrow),
		PcieTile,
		IntTile,
		indent(PcieAttrs, "    "),
		indent(PciePorts, "    "))
}

// DB returns the fixture database.
//
func DB(t testing.TB) *devdb.DB {
	t.Helper()
	db, err := devdb.Load([]byte(DatabaseYAML()))
	if err != nil {
		t.Fatal(err)
	}
	return db
}

// Netlist returns a new netlist on db, logging to a null logger. The returned
// hook records log entries.
//
func Netlist(db bels.Database) (*bels.Netlist, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return bels.New(db, log), hook
}

// Features returns the features prefix.OPTION for each option. An option of
// the form NAME=0 gives a feature of value 0.
//
func Features(prefix string, options ...string) []bels.Feature {
	fs := make([]bels.Feature, 0, len(options))
	for _, o := range options {
		v := 1
		if strings.HasSuffix(o, "=0") {
			o, v = strings.TrimSuffix(o, "=0"), 0
		}
		fs = append(fs, bels.ParseFeature(prefix+"."+o, v))
	}
	return fs
}

// InversionOptions returns the options encoding the inversion of pin.
//
func InversionOptions(pin string, inverted bool) []string {
	if inverted {
		return nil
	}
	return []string{"ZINV_" + pin}
}

// MultiBitOptions returns the options encoding v as the multi-bit field base.
//
func MultiBitOptions(base string, v uint64) []string {
	return bels.MultiBitOptions(base, new(big.Int).SetUint64(v))
}

// EdgeStrings returns the edges of the routing graph of s as strings.
//
func EdgeStrings(s *bels.Site) []string {
	es := s.Edges()
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.String()
	}
	return out
}

// CheckEdges checks that the routing graph of s has exactly the given edges.
// Order does not matter.
//
func CheckEdges(t testing.TB, s *bels.Site, want ...string) {
	t.Helper()
	got := EdgeStrings(s)
	want = append([]string(nil), want...)
	sort.Strings(want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("site %s edges mismatch (-want +got):\n%s", s.Name, diff)
	}
}

// Params returns the parameters of b as netlist literals.
//
func Params(b *bels.Bel) map[string]string {
	m := make(map[string]string, len(b.Params))
	for k, v := range b.Params {
		m[k] = v.String()
	}
	return m
}

// Trace logs the stack trace of err, if any.
//
func Trace(t testing.TB, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

