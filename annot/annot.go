// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package annot provides the per-sequence annotation records produced by
// germline alignment and the keyed table that aggregates them.
package annot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/biogo/store/llrb"
)

// Region identifies a framework or complementarity determining region.
type Region int

const (
	FR1 Region = iota
	CDR1
	FR2
	CDR2
	FR3
	CDR3
	FR4

	NumRegions int = iota
)

var regionNames = [NumRegions]string{"fr1", "cdr1", "fr2", "cdr2", "fr3", "cdr3", "fr4"}

func (r Region) String() string {
	if r < 0 || int(r) >= NumRegions {
		return fmt.Sprintf("Region(%d)", int(r))
	}
	return regionNames[r]
}

// ParseRegion returns the Region with the given case-insensitive name.
func ParseRegion(name string) (Region, error) {
	for i, n := range regionNames {
		if strings.EqualFold(n, name) {
			return Region(i), nil
		}
	}
	return -1, fmt.Errorf("annot: unknown region %q", name)
}

// Span is the nucleotide sequence of a region and its 1-based inclusive
// query coordinates. A zero Span means the region was not identified.
type Span struct {
	Seq        string
	Start, End int
}

// Len returns the length of the span's sequence.
func (s Span) Len() int { return len(s.Seq) }

// Record is the annotation of a single query sequence.
type Record struct {
	ID    string
	Locus string

	VCall, DCall, JCall string

	VScore    float64 // Bit score of the top V hit.
	VIdentity float64
	VSupport  float64 // E-value of the top V hit.
	DScore    float64
	JScore    float64

	// Query and germline coordinates of the V alignment.
	VStart, VEnd                 int
	VGermlineStart, VGermlineEnd int

	Productive bool
	StopCodon  bool
	VJInFrame  bool

	Regions    [NumRegions]Span
	CDR3AA     string
	JunctionAA string
}

// VLength returns the length of the V alignment on the query.
func (r *Record) VLength() int {
	if r.VStart < 1 || r.VEnd < r.VStart {
		return 0
	}
	return r.VEnd - r.VStart + 1
}

// ErrDuplicateID is returned when a table would hold two records with
// the same identifier.
var ErrDuplicateID = errors.New("annot: duplicate sequence identifier")

type key struct {
	id  string
	row int
}

func (k key) Compare(b llrb.Comparable) int { return strings.Compare(k.id, b.(key).id) }

// Table is a collection of Records keyed by sequence identifier. Rows
// are held in insertion order; keys are additionally indexed in sorted
// order.
type Table struct {
	rows  []Record
	index llrb.Tree
}

// NewTable returns an empty Table with capacity for n rows.
func NewTable(n int) *Table {
	return &Table{rows: make([]Record, 0, n)}
}

// Add inserts r into the table. It returns an error wrapping
// ErrDuplicateID if a record with the same ID is already present.
func (t *Table) Add(r Record) error {
	k := key{id: r.ID, row: len(t.rows)}
	if t.index.Get(k) != nil {
		return fmt.Errorf("%w: %q", ErrDuplicateID, r.ID)
	}
	t.index.Insert(k)
	t.rows = append(t.rows, r)
	return nil
}

// Len returns the number of records in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Get returns the record with the given identifier.
func (t *Table) Get(id string) (Record, bool) {
	if t == nil {
		return Record{}, false
	}
	k := t.index.Get(key{id: id})
	if k == nil {
		return Record{}, false
	}
	return t.rows[k.(key).row], true
}

// Has returns whether the table holds a record with the given identifier.
func (t *Table) Has(id string) bool {
	_, ok := t.Get(id)
	return ok
}

// Rows returns the records in insertion order. The returned slice must
// not be modified.
func (t *Table) Rows() []Record {
	if t == nil {
		return nil
	}
	return t.rows
}

// Do calls fn for each record in identifier order until fn returns true.
func (t *Table) Do(fn func(Record) (done bool)) {
	if t == nil {
		return
	}
	t.index.Do(func(c llrb.Comparable) bool {
		return fn(t.rows[c.(key).row])
	})
}

// Keys returns the record identifiers in sorted order.
func (t *Table) Keys() []string {
	keys := make([]string, 0, t.Len())
	t.Do(func(r Record) bool {
		keys = append(keys, r.ID)
		return false
	})
	return keys
}

// Concat returns a new table holding the records of all the provided
// tables in order. Nil tables are skipped. The result is allocated once.
func Concat(tables ...*Table) (*Table, error) {
	var n int
	for _, t := range tables {
		n += t.Len()
	}
	c := NewTable(n)
	for _, t := range tables {
		for _, r := range t.Rows() {
			if err := c.Add(r); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}
