package beltest_test

import (
	"testing"

	"github.com/db47h/bels/beltest"
	"github.com/google/go-cmp/cmp"
)

func TestDB(t *testing.T) {
	db := beltest.DB(t)
	data := []struct {
		tile  string
		typ   string
		sites int
	}{
		{beltest.BufgBotTile, "CLK_BUFG_BOT_R", 16},
		{beltest.BufgTopTile, "CLK_BUFG_TOP_R", 16},
		{beltest.HrowTile, "CLK_HROW_TOP_R", 25},
		{beltest.PcieTile, "PCIE_BOT", 1},
		{beltest.IntTile, "INT_L", 0},
	}
	for _, d := range data {
		tt, err := db.TileType(d.tile)
		if err != nil {
			t.Fatal(err)
		}
		if tt.Name() != d.typ {
			t.Errorf("%s: got type %s, expected %s", d.tile, tt.Name(), d.typ)
		}
		if n := len(tt.InstanceSites(d.tile)); n != d.sites {
			t.Errorf("%s: got %d sites, expected %d", d.tile, n, d.sites)
		}
	}
	for _, c := range []string{"pcie_2_1_attrs.json", "pcie_2_1_ports.json"} {
		if _, err := db.CellData(c); err != nil {
			t.Error(err)
		}
	}
}

func TestFeatures(t *testing.T) {
	fs := beltest.Features("T.BUFHCE.BUFHCE_X0Y1", "IN_USE", "ZINV_CE=0")
	var got []string
	for _, f := range fs {
		got = append(got, f.String())
	}
	if diff := cmp.Diff([]string{"T.BUFHCE.BUFHCE_X0Y1.IN_USE", "T.BUFHCE.BUFHCE_X0Y1.ZINV_CE"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if fs[0].Value != 1 || fs[1].Value != 0 {
		t.Errorf("got values %d, %d, expected 1, 0", fs[0].Value, fs[1].Value)
	}
}

func TestMultiBitOptions(t *testing.T) {
	got := beltest.MultiBitOptions("AER_CAP_ID", 0x9)
	if diff := cmp.Diff([]string{"AER_CAP_ID[0]", "AER_CAP_ID[3]"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
