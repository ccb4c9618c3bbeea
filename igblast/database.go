// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package igblast

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Chain is an immunoglobulin chain type.
type Chain string

const (
	Heavy  Chain = "hv"
	Kappa  Chain = "kv"
	Lambda Chain = "lv"
)

// ParseChain returns the chain named by s.
func ParseChain(s string) (Chain, error) {
	switch c := Chain(strings.ToLower(s)); c {
	case Heavy, Kappa, Lambda:
		return c, nil
	}
	return "", fmt.Errorf("igblast: unknown chain %q", s)
}

func (c Chain) locus() string {
	switch c {
	case Kappa:
		return "igk"
	case Lambda:
		return "igl"
	}
	return "igh"
}

// Database is a directory of IgBLAST germline databases named
// <organism>_<locus>_<segment>, for example human_igh_V.
type Database struct {
	Dir      string
	Organism string
	Chain    Chain
}

// V returns the V gene database path.
func (db Database) V() string { return db.path(db.Chain.locus(), "V") }

// D returns the D gene database path. Light chains have no D genes; the
// heavy chain D database is used since igblastn always requires one.
func (db Database) D() string { return db.path("igh", "D") }

// J returns the J gene database path.
func (db Database) J() string { return db.path(db.Chain.locus(), "J") }

func (db Database) path(locus, segment string) string {
	return filepath.Join(db.Dir, db.Organism+"_"+locus+"_"+segment)
}
