// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package devdb provides an in-memory device database.
//
// A database can be built programmatically or loaded from a YAML document:
//
//	tiles:
//	  CLK_HROW_TOP_R_X60Y130:
//	    type: CLK_HROW_TOP_R
//	    sites: [BUFHCE_X0Y12, BUFHCE_X0Y13]
//	cells:
//	  pcie_2_1_attrs: |
//	    {"AER_CAP_ID": {"type": "BIN", "digits": 16}}
//
package devdb

import (
	"sort"

	"github.com/db47h/bels"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type tileEntry struct {
	typ   *tileType
	sites []string
}

type tileType struct {
	name string
	db   *DB
}

func (t *tileType) Name() string { return t.name }

func (t *tileType) InstanceSites(tile string) []string {
	e, ok := t.db.tiles[tile]
	if !ok || e.typ != t {
		return nil
	}
	return append([]string(nil), e.sites...)
}

// DB is an in-memory device database. It implements bels.Database.
//
// A DB must not be modified once in use; concurrent reads are safe.
//
type DB struct {
	tiles map[string]*tileEntry
	types map[string]*tileType
	cells map[string][]byte
}

// New returns an empty database.
//
func New() *DB {
	return &DB{
		tiles: make(map[string]*tileEntry),
		types: make(map[string]*tileType),
		cells: make(map[string][]byte),
	}
}

// AddTile adds a tile of type typ with the given instance sites.
//
func (db *DB) AddTile(name, typ string, sites ...string) {
	tt := db.types[typ]
	if tt == nil {
		tt = &tileType{name: typ, db: db}
		db.types[typ] = tt
	}
	db.tiles[name] = &tileEntry{typ: tt, sites: append([]string(nil), sites...)}
}

// SetCellData sets the named cell table.
//
func (db *DB) SetCellData(name string, data []byte) {
	db.cells[name] = data
}

// Tiles returns the sorted tile names.
//
func (db *DB) Tiles() []string {
	ts := make([]string, 0, len(db.tiles))
	for t := range db.tiles {
		ts = append(ts, t)
	}
	sort.Strings(ts)
	return ts
}

// TileType implements bels.Database.
//
func (db *DB) TileType(tile string) (bels.TileType, error) {
	e, ok := db.tiles[tile]
	if !ok {
		return nil, errors.Errorf("unknown tile %s", tile)
	}
	return e.typ, nil
}

// CellData implements bels.Database.
//
func (db *DB) CellData(name string) ([]byte, error) {
	d, ok := db.cells[name]
	if !ok {
		return nil, errors.Errorf("no cell data %s", name)
	}
	return d, nil
}

type document struct {
	Tiles map[string]struct {
		Type  string   `yaml:"type"`
		Sites []string `yaml:"sites"`
	} `yaml:"tiles"`
	Cells map[string]string `yaml:"cells"`
}

// Load loads a database from a YAML document.
//
func Load(data []byte) (*DB, error) {
	var doc document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, errors.Wrap(err, "device database")
	}
	db := New()
	for name, t := range doc.Tiles {
		if t.Type == "" {
			return nil, errors.Errorf("device database: tile %s has no type", name)
		}
		db.AddTile(name, t.Type, t.Sites...)
	}
	for name, c := range doc.Cells {
		db.SetCellData(name, []byte(c))
	}
	return db, nil
}
