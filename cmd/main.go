package main

import (
	"context"
	"strings"

	"github.com/db47h/bels"
	"github.com/db47h/bels/bellib"
	"github.com/db47h/bels/devdb"
	"github.com/sirupsen/logrus"
)

const database = `
tiles:
  CLK_BUFG_BOT_R_X60Y48:
    type: CLK_BUFG_BOT_R
    sites: [BUFGCTRL_X0Y0, BUFGCTRL_X0Y1, BUFGCTRL_X0Y2, BUFGCTRL_X0Y3]
  CLK_BUFG_TOP_R_X60Y53:
    type: CLK_BUFG_TOP_R
    sites: [BUFGCTRL_X0Y16, BUFGCTRL_X0Y17, BUFGCTRL_X0Y18, BUFGCTRL_X0Y19]
  CLK_HROW_TOP_R_X60Y130:
    type: CLK_HROW_TOP_R
    sites: [BUFHCE_X0Y24, BUFHCE_X0Y25, BUFHCE_X1Y24, BUFHCE_X1Y25]
  PCIE_BOT_X98Y115:
    type: PCIE_BOT
    sites: [PCIE_2_1_X0Y0]
cells:
  pcie_2_1_attrs.json: |
    {"AER_CAP_ID": {"type": "BIN", "digits": 16}, "AER_CAP_ON": {"type": "BOOL", "digits": 1}}
  pcie_2_1_ports.json: |
    {"USERCLK": {"width": 1, "direction": "input"}, "TRNRD": {"width": 4, "direction": "output"}}
`

const features = `
# global clocks
CLK_BUFG_BOT_R_X60Y48.BUFGCTRL.BUFGCTRL_X0Y1.IN_USE
CLK_BUFG_BOT_R_X60Y48.BUFGCTRL.BUFGCTRL_X0Y1.ZINV_CE0
CLK_BUFG_BOT_R_X60Y48.BUFGCTRL.BUFGCTRL_X0Y1.ZINV_S0
CLK_BUFG_TOP_R_X60Y53.BUFGCTRL.BUFGCTRL_X0Y3.IN_USE
CLK_BUFG_TOP_R_X60Y53.BUFGCTRL.BUFGCTRL_X0Y3.ZPRESELECT_I0

# gated clocks
CLK_HROW_TOP_R_X60Y130.BUFHCE.BUFHCE_X0Y0.IN_USE
CLK_HROW_TOP_R_X60Y130.BUFHCE.BUFHCE_X0Y0.ZINV_CE
CLK_HROW_TOP_R_X60Y130.BUFHCE.BUFHCE_X1Y1.IN_USE
CLK_HROW_TOP_R_X60Y130.BUFHCE.BUFHCE_X1Y1.CE_TYPE.ASYNC

PCIE_BOT_X98Y115.PCIE.AER_CAP_ON
PCIE_BOT_X98Y115.PCIE.AER_CAP_ID[15:0] = 16'h0001
`

func main() {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)

	db, err := devdb.Load([]byte(database))
	if err != nil {
		log.Fatal(err)
	}
	top := bels.New(db, log)
	if err = bellib.Register(top, bellib.DefaultOptions()); err != nil {
		log.Fatal(err)
	}

	fs, err := bels.ParseFeatures(strings.NewReader(features))
	if err != nil {
		log.Fatal(err)
	}
	if err = top.Build(context.Background(), bels.SplitTiles(fs), 0); err != nil {
		log.Fatalf("%+v", err)
	}

	// BUFHCE_X0Y24 is permanently enabled, BUFHCE_X1Y25 is gated by a global buffer.
	top.Drive("BUFHCE_X0Y24", "CE", bels.Const(bels.Logic1))
	top.Drive("BUFHCE_X1Y25", "CE", bels.SiteSource{Site: "BUFGCTRL_X0Y1", Pin: "O"})
	if err = top.Cleanup(0); err != nil {
		log.Fatalf("%+v", err)
	}

	for _, s := range top.Sites() {
		l := log.WithFields(logrus.Fields{"tile": s.Tile, "site": s.Name})
		for _, b := range s.Bels() {
			params := make(logrus.Fields, len(b.Params))
			for k, v := range b.Params {
				params[k] = v.String()
			}
			l.WithFields(params).Info(b.Kind)
		}
		if len(s.Bels()) == 0 {
			l.WithField("edges", len(s.Edges())).Info("routed through")
		}
	}
	log.WithFields(logrus.Fields{"sites": len(top.Sites()), "bels": top.BelCount()}).Info("netlist done")
}
