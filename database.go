// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package bels

// Database is the device database queried while building sites.
// Implementations must be safe for concurrent use by multiple goroutines.
//
type Database interface {
	// TileType returns the type of the named tile.
	TileType(tile string) (TileType, error)
	// CellData returns the named cell description table (pcie_2_1_attrs,
	// pcie_2_1_ports, ...).
	CellData(name string) ([]byte, error)
}

// TileType describes a tile type of the device.
//
type TileType interface {
	Name() string
	// InstanceSites returns the physical site names of the given tile
	// instance, in database order.
	InstanceSites(tile string) []string
}
