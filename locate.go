// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package bels

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Locator maps an abstract primitive instance of a tile to the name of a
// physical site of that tile.
//
type Locator interface {
	Locate(db Database, tile, instance string) (string, error)
}

func instanceSites(db Database, tile string) ([]string, error) {
	tt, err := db.TileType(tile)
	if err != nil {
		return nil, errors.Wrapf(err, "tile %s", tile)
	}
	return tt.InstanceSites(tile), nil
}

// SiteXY parses a site name of the form PREFIX_X<x>Y<y>.
//
func SiteXY(prefix, name string) (x, y int, err error) {
	s := strings.TrimPrefix(name, prefix+"_X")
	if len(s) == len(name) {
		return 0, 0, errors.Errorf("site %q: expected %s_X<x>Y<y>", name, prefix)
	}
	i := strings.IndexByte(s, 'Y')
	if i < 0 {
		return 0, 0, errors.Errorf("site %q: missing Y coordinate", name)
	}
	if x, err = strconv.Atoi(s[:i]); err != nil || x < 0 {
		return 0, 0, errors.Errorf("site %q: invalid X coordinate", name)
	}
	if y, err = strconv.Atoi(s[i+1:]); err != nil || y < 0 {
		return 0, 0, errors.Errorf("site %q: invalid Y coordinate", name)
	}
	return x, y, nil
}

// GlobalBufferAddressing locates global clock buffers. The instance Y
// coordinate is a row number in the tile; tiles whose name contains
// UpperMarker hold rows offset by RowOffset. The physical site is
// Prefix_X<Column>Y<row>.
//
type GlobalBufferAddressing struct {
	Prefix      string
	UpperMarker string
	RowOffset   int
	Column      int
}

// SiteName returns the physical site name for instance in tile.
//
func (a *GlobalBufferAddressing) SiteName(tile, instance string) (string, error) {
	_, y, err := SiteXY(a.Prefix, instance)
	if err != nil {
		return "", err
	}
	if a.UpperMarker != "" && strings.Contains(tile, a.UpperMarker) {
		y += a.RowOffset
	}
	return a.Prefix + "_X" + strconv.Itoa(a.Column) + "Y" + strconv.Itoa(y), nil
}

// Locate implements Locator.
//
func (a *GlobalBufferAddressing) Locate(db Database, tile, instance string) (string, error) {
	name, err := a.SiteName(tile, instance)
	if err != nil {
		return "", err
	}
	sites, err := instanceSites(db, tile)
	if err != nil {
		return "", err
	}
	for _, s := range sites {
		if s == name {
			return s, nil
		}
	}
	return "", errors.WithStack(&SiteNotFoundError{Tile: tile, Instance: instance})
}

// GatedBufferAddressing locates gated clock buffers. A tile multiplexes Rows
// logical rows over a larger physical range: the site Prefix_X<x>Y<y>
// matches the instance Prefix_X<ix>Y<iy> if x == ix and y % Rows == iy.
//
type GatedBufferAddressing struct {
	Prefix string
	Rows   int
}

// Locate implements Locator. More than one matching site is an error.
//
func (a *GatedBufferAddressing) Locate(db Database, tile, instance string) (string, error) {
	if a.Rows <= 0 {
		return "", errors.Errorf("%s addressing: invalid row count %d", a.Prefix, a.Rows)
	}
	x, y, err := SiteXY(a.Prefix, instance)
	if err != nil {
		return "", err
	}
	sites, err := instanceSites(db, tile)
	if err != nil {
		return "", err
	}
	var found []string
	for _, s := range sites {
		sx, sy, err := SiteXY(a.Prefix, s)
		if err != nil {
			// other site types in the same tile
			continue
		}
		if sx == x && sy%a.Rows == y {
			found = append(found, s)
		}
	}
	switch len(found) {
	case 0:
		return "", errors.WithStack(&SiteNotFoundError{Tile: tile, Instance: instance})
	case 1:
		return found[0], nil
	}
	return "", errors.WithStack(&AmbiguousSiteError{Tile: tile, Instance: instance, Sites: found})
}

// NamedSiteAddressing locates single-instance blocks: the first site of the
// tile whose name contains Name.
//
type NamedSiteAddressing struct {
	Name string
}

// Locate implements Locator.
//
func (a *NamedSiteAddressing) Locate(db Database, tile, instance string) (string, error) {
	sites, err := instanceSites(db, tile)
	if err != nil {
		return "", err
	}
	for _, s := range sites {
		if strings.Contains(s, a.Name) {
			return s, nil
		}
	}
	return "", errors.WithStack(&SiteNotFoundError{Tile: tile, Instance: instance})
}
