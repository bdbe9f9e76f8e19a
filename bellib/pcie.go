// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package bellib

import (
	"strconv"

	"github.com/db47h/bels"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// PCIE_2_1 is the bel kind of the PCIE block.
const PCIE_2_1 = "PCIE_2_1"

// Cell tables read from the device database by NewPCIE. They are JSON
// documents, decoded as YAML.
const (
	PcieAttrsTable = "pcie_2_1_attrs.json"
	PciePortsTable = "pcie_2_1_ports.json"
)

// number accepts both 12 and "12".
type number int

func (n *number) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return errors.Errorf("invalid number %q", s)
	}
	*n = number(i)
	return nil
}

type attrInfo struct {
	Type   string `yaml:"type"`
	Digits number `yaml:"digits"`
}

type portInfo struct {
	Width     number `yaml:"width"`
	Direction string `yaml:"direction"`
}

// A Port is a bel port description. Ports wider than one bit are expanded
// into bus pins.
//
type Port struct {
	Name  string
	Width int
	Dir   bels.Dir
}

// orderedKeys returns the keys of a YAML mapping in document order.
//
func orderedKeys(data []byte) ([]string, error) {
	var ms yaml.MapSlice
	if err := yaml.Unmarshal(data, &ms); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(ms))
	for _, it := range ms {
		k, ok := it.Key.(string)
		if !ok {
			return nil, errors.Errorf("invalid key %v", it.Key)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// ParseAttrs parses an attribute table: parameter name -> {type, digits}.
// BIN attributes decode as binary fields of digits bits, BOOL attributes as
// "TRUE"/"FALSE" strings.
//
func ParseAttrs(data []byte) ([]bels.ParamSpec, error) {
	keys, err := orderedKeys(data)
	if err != nil {
		return nil, errors.Wrap(err, "attribute table")
	}
	var attrs map[string]attrInfo
	if err = yaml.Unmarshal(data, &attrs); err != nil {
		return nil, errors.Wrap(err, "attribute table")
	}
	specs := make([]bels.ParamSpec, 0, len(keys))
	for _, name := range keys {
		a := attrs[name]
		switch a.Type {
		case "BIN":
			if a.Digits <= 0 {
				return nil, errors.Errorf("attribute %s: invalid digits %d", name, a.Digits)
			}
			specs = append(specs, bels.Binary(name, int(a.Digits)))
		case "BOOL":
			specs = append(specs, bels.Bool(name))
		default:
			return nil, errors.Errorf("attribute %s: unsupported type %q", name, a.Type)
		}
	}
	return specs, nil
}

// ParsePorts parses a port table: port name -> {width, direction}.
//
func ParsePorts(data []byte) ([]Port, error) {
	keys, err := orderedKeys(data)
	if err != nil {
		return nil, errors.Wrap(err, "port table")
	}
	var ports map[string]portInfo
	if err = yaml.Unmarshal(data, &ports); err != nil {
		return nil, errors.Wrap(err, "port table")
	}
	out := make([]Port, 0, len(keys))
	for _, name := range keys {
		p := ports[name]
		if p.Width <= 0 {
			return nil, errors.Errorf("port %s: invalid width %d", name, p.Width)
		}
		var dir bels.Dir
		switch p.Direction {
		case "input":
			dir = bels.Input
		case "output":
			dir = bels.Output
		default:
			return nil, errors.Errorf("port %s: invalid direction %q", name, p.Direction)
		}
		out = append(out, Port{Name: name, Width: int(p.Width), Dir: dir})
	}
	return out, nil
}

func loadTable(db bels.Database, name string) ([]byte, error) {
	data, err := db.CellData(name)
	if err != nil {
		return nil, errors.WithStack(&bels.MissingTableError{Family: PCIE_2_1, Table: name, Err: err})
	}
	return data, nil
}

// NewPCIE returns the process function of PCIE tiles. The attribute and
// port tables are loaded from db before anything else; a missing table is
// a *bels.MissingTableError.
//
func NewPCIE(db bels.Database) (bels.ProcessFn, error) {
	attrs, err := loadTable(db, PcieAttrsTable)
	if err != nil {
		return nil, err
	}
	ports, err := loadTable(db, PciePortsTable)
	if err != nil {
		return nil, err
	}
	params, err := ParseAttrs(attrs)
	if err != nil {
		return nil, errors.Wrap(err, PcieAttrsTable)
	}
	pts, err := ParsePorts(ports)
	if err != nil {
		return nil, errors.Wrap(err, PciePortsTable)
	}
	return PCIE(params, pts), nil
}

// PCIE returns the process function of PCIE tiles for the given parameter
// and port descriptions.
//
// Features are of the form TILE.PCIE.OPTION; no site is built for a tile
// without any. The block is placed in the first PCIE_2_1 site of the tile.
//
func PCIE(params []bels.ParamSpec, ports []Port) bels.ProcessFn {
	loc := &bels.NamedSiteAddressing{Name: PCIE_2_1}
	return func(tc *bels.TileContext, features []bels.Feature) error {
		var fs []bels.Feature
		for _, f := range features {
			if len(f.Path) > 2 && f.Path[1] == "PCIE" {
				fs = append(fs, f)
			}
		}
		if len(fs) == 0 {
			return nil
		}
		name, err := loc.Locate(tc.DB, tc.Tile, PCIE_2_1)
		if err != nil {
			return err
		}
		vs, err := bels.DecodeParams(bels.Options(fs, 2), params)
		if err != nil {
			return errors.Wrap(err, PCIE_2_1)
		}

		site := bels.NewSite(tc.Tile, name, fs)
		bel := bels.NewBel(PCIE_2_1)
		bel.Params = vs
		for _, p := range ports {
			for i := 0; i < p.Width; i++ {
				port, wire := p.Name, p.Name
				if p.Width > 1 {
					port, wire = bels.BusPinName(p.Name, i), bels.BusWireName(p.Name, i)
				}
				if p.Dir == bels.Input {
					err = site.AddSink(bel, port, wire)
				} else {
					err = site.AddSource(bel, port, wire)
				}
				if err != nil {
					return err
				}
			}
		}
		if err = site.AddBel(bel); err != nil {
			return err
		}
		tc.AddSite(site)
		tc.Log.WithFields(logrus.Fields{"site": name, "params": len(vs)}).Debug("site placed")
		return nil
	}
}
