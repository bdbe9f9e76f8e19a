// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package bellib

import (
	"github.com/db47h/bels"
	"github.com/sirupsen/logrus"
)

// Bel kinds.
const (
	BUFGCTRL = "BUFGCTRL"
	BUFHCE   = "BUFHCE"
)

// common pin names
const (
	pI  = "I"
	pO  = "O"
	pCE = "CE"
)

var (
	bufgControl = []string{"S0", "S1", "CE0", "CE1", "IGNORE0", "IGNORE1"}
	bufgData    = []string{"I0", "I1"}

	// The IGNORE inversion flags are set when their own option is absent,
	// unlike the ZINV_ encoded CE and S flags. PRESELECT_I0 and
	// PRESELECT_I1 have opposite polarities as well.
	bufgParams = []bels.ParamSpec{
		bels.FlagIfClear("IS_IGNORE0_INVERTED", "IS_IGNORE0_INVERTED"),
		bels.FlagIfClear("IS_IGNORE1_INVERTED", "IS_IGNORE1_INVERTED"),
		bels.Inversion("CE0"),
		bels.Inversion("CE1"),
		bels.Inversion("S0"),
		bels.Inversion("S1"),
		bels.BoolIfClear("PRESELECT_I0", "ZPRESELECT_I0"),
		bels.Bool("PRESELECT_I1"),
		bels.Flag("INIT_OUT"),
	}

	bufhceParams = []bels.ParamSpec{
		bels.Choice("CE_TYPE", "CE_TYPE.ASYNC", "ASYNC", "SYNC"),
		bels.Inversion(pCE),
		bels.Flag("INIT_OUT"),
	}
)

// BUFG returns the process function of BUFGCTRL tiles.
//
// Features are of the form TILE.BUFGCTRL.BUFGCTRL_X0Y<n>.OPTION. Instance
// rows of tiles in the upper half of the device are offset by
// opts.BufgRowOffset.
//
func BUFG(opts Options) bels.ProcessFn {
	loc := &bels.GlobalBufferAddressing{
		Prefix:      BUFGCTRL,
		UpperMarker: opts.BufgUpperMarker,
		RowOffset:   opts.BufgRowOffset,
		Column:      0,
	}
	return func(tc *bels.TileContext, features []bels.Feature) error {
		return forEachInstance(tc, features, BUFGCTRL, loc, func(g *bels.Group, name string) error {
			params, err := bels.DecodeParams(g.Options, bufgParams)
			if err != nil {
				return err
			}
			site := bels.NewSite(tc.Tile, name, g.Features)
			bel := bels.NewBel(BUFGCTRL)
			bel.Params = params

			for _, pin := range bufgControl {
				pips := bels.MakeInverterPath(pin, bel.Flag(bels.InversionParam(pin)))
				if err = site.AddSink(bel, pin, pin, pips...); err != nil {
					return err
				}
			}
			for _, pin := range bufgData {
				if err = site.AddSink(bel, pin, pin); err != nil {
					return err
				}
			}
			if err = site.AddSource(bel, pO, pO); err != nil {
				return err
			}
			if err = site.AddBel(bel); err != nil {
				return err
			}
			tc.AddSite(site)
			return nil
		})
	}
}

// HROW returns the process function of HROW tiles (BUFHCE instances).
//
// Features are of the form TILE.BUFHCE.BUFHCE_X<x>Y<y>.OPTION. Sites built
// carry the CleanupHROW post-placement pass.
//
func HROW(opts Options) bels.ProcessFn {
	loc := &bels.GatedBufferAddressing{Prefix: BUFHCE, Rows: opts.BufhceRows}
	return func(tc *bels.TileContext, features []bels.Feature) error {
		return forEachInstance(tc, features, BUFHCE, loc, func(g *bels.Group, name string) error {
			params, err := bels.DecodeParams(g.Options, bufhceParams)
			if err != nil {
				return err
			}
			site := bels.NewSite(tc.Tile, name, g.Features)
			bel := bels.NewBel(BUFHCE)
			bel.Params = params

			if err = site.AddSink(bel, pI, pI); err != nil {
				return err
			}
			pips := bels.MakeInverterPath(pCE, bel.Flag(bels.InversionParam(pCE)))
			if err = site.AddSink(bel, pCE, pCE, pips...); err != nil {
				return err
			}
			if err = site.AddSource(bel, pO, pO); err != nil {
				return err
			}
			if err = site.AddBel(bel); err != nil {
				return err
			}
			site.SetCleanup(CleanupHROW)
			tc.AddSite(site)
			return nil
		})
	}
}

// CleanupHROW removes the BUFHCE of site s if it is permanently enabled,
// linking the site input directly to its output. It is a no-op if the site
// has no BUFHCE or if its CE value cannot be resolved to a constant.
//
func CleanupHROW(top *bels.Netlist, s *bels.Site) error {
	bel := s.Bel(BUFHCE)
	if bel == nil {
		return nil
	}
	ce, ok := bel.Wire(pCE)
	if !ok {
		return nil
	}
	log := top.Log.WithFields(logrus.Fields{"tile": s.Tile, "site": s.Name})

	drv := top.ResolveDriver(s, ce)
	inv := bels.Logic0
	if bel.Flag(bels.InversionParam(pCE)) {
		inv = bels.Logic1
	}
	if drv == bels.LogicX || drv^inv != bels.Logic1 {
		log.WithField("ce", drv).Debug("BUFHCE kept")
		return nil
	}

	in, _ := bel.Wire(pI)
	out, _ := bel.Wire(pO)
	s.Prune(bels.SitePinKey(in))
	s.Prune(bels.SitePinKey(ce))
	s.Prune(bels.BelPinKey(bel.Name, pO))
	if err := top.DetachAndRemove(s, bel); err != nil {
		return err
	}
	if err := s.Link(bels.SitePinKey(in), bels.SitePinKey(out)); err != nil {
		return err
	}
	log.WithField("ce", drv).Info("removed pass-through BUFHCE")
	return nil
}
