// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package bels

import (
	"strings"
)

// SiteNotFoundError is returned when no physical site of a tile matches a
// primitive instance. The device database and the feature stream disagree,
// so the tile cannot be lowered.
//
// Use errors.Cause from github.com/pkg/errors to get to the underlying
// *SiteNotFoundError of a wrapped error.
//
type SiteNotFoundError struct {
	Tile     string
	Instance string
}

func (e *SiteNotFoundError) Error() string {
	return "no site for " + e.Instance + " in tile " + e.Tile
}

// AmbiguousSiteError is returned when more than one physical site of a tile
// matches a primitive instance.
//
type AmbiguousSiteError struct {
	Tile     string
	Instance string
	Sites    []string
}

func (e *AmbiguousSiteError) Error() string {
	return "instance " + e.Instance + " in tile " + e.Tile + " matches sites " + strings.Join(e.Sites, ", ")
}

// MissingTableError is returned when a cell description table required by a
// primitive family is missing from the device database.
//
type MissingTableError struct {
	Family string
	Table  string
	Err    error // lookup error reported by the database, may be nil
}

func (e *MissingTableError) Error() string {
	msg := e.Family + ": missing cell table " + e.Table
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}
