// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package bellib provides the primitive families lowered by bels: global
// clock buffers (BUFGCTRL), gated horizontal clock buffers (BUFHCE) and the
// PCIE_2_1 block.
//
// Copyright 2018 Denis Bernard <db047h@gmail.com>
//
// This package is licensed under the MIT license. See license text in the LICENSE file.
//
package bellib

import (
	"github.com/db47h/bels"
	"github.com/pkg/errors"
)

// Options holds the addressing constants of the clock families.
//
type Options struct {
	// Tiles whose name contains BufgUpperMarker hold BUFGCTRL rows offset
	// by BufgRowOffset.
	BufgUpperMarker string
	BufgRowOffset   int
	// Number of logical BUFHCE rows per HROW tile.
	BufhceRows int
}

// DefaultOptions returns the 7-series addressing constants.
//
func DefaultOptions() Options {
	return Options{
		BufgUpperMarker: "_TOP_",
		BufgRowOffset:   16,
		BufhceRows:      12,
	}
}

// Tile types handled by each family.
var (
	BufgTileTypes = []string{"CLK_BUFG_BOT_R", "CLK_BUFG_TOP_R"}
	HrowTileTypes = []string{"CLK_HROW_BOT_R", "CLK_HROW_TOP_R"}
	PcieTileTypes = []string{"PCIE_BOT"}
)

// Register registers all families in top with the given options.
//
// The clock families are always registered. The PCIE family needs its cell
// tables: if they cannot be loaded, it is not registered and the error is
// returned.
//
func Register(top *bels.Netlist, opts Options) error {
	bufg := BUFG(opts)
	for _, tt := range BufgTileTypes {
		top.Register(tt, bufg)
	}
	hrow := HROW(opts)
	for _, tt := range HrowTileTypes {
		top.Register(tt, hrow)
	}
	pcie, err := NewPCIE(top.DB)
	if err != nil {
		top.Log.WithError(err).Error("PCIE family disabled")
		return err
	}
	for _, tt := range PcieTileTypes {
		top.Register(tt, pcie)
	}
	return nil
}

// forEachInstance groups the features of family by instance, skips unused
// instances, locates the others and calls build for each of them.
//
func forEachInstance(tc *bels.TileContext, features []bels.Feature, family string, loc bels.Locator,
	build func(g *bels.Group, site string) error) error {
	groups := bels.GroupFeatures(features, family)
	for i := range groups {
		g := &groups[i]
		log := tc.Log.WithField("instance", g.Instance)
		if !g.InUse() {
			log.Debug("instance not in use")
			continue
		}
		site, err := loc.Locate(tc.DB, tc.Tile, g.Instance)
		if err != nil {
			return errors.Wrapf(err, "%s instance %s", family, g.Instance)
		}
		if err = build(g, site); err != nil {
			return errors.Wrapf(err, "%s instance %s", family, g.Instance)
		}
		log.WithField("site", site).Debug("site placed")
	}
	return nil
}
