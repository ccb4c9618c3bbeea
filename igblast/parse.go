// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package igblast

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/biogo/igqc/annot"
)

// Range is an inclusive interval of values. The zero Range places no
// bound.
type Range struct {
	Min, Max float64
}

// Unbounded returns the range [lo, +Inf].
func Unbounded(lo float64) Range { return Range{Min: lo, Max: math.Inf(1)} }

// ParseRange parses a range written as "min-max" or "min", the latter
// having no upper bound. Either bound may be "inf".
func ParseRange(s string) (Range, error) {
	a, b, ok := strings.Cut(strings.TrimSpace(s), "-")
	lo, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return Range{}, fmt.Errorf("igblast: invalid range %q", s)
	}
	if !ok {
		return Unbounded(lo), nil
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil || lo >= hi {
		return Range{}, fmt.Errorf("igblast: invalid range %q", s)
	}
	return Range{Min: lo, Max: hi}, nil
}

// Contains returns whether v lies within r.
func (r Range) Contains(v float64) bool {
	return r == Range{} || (r.Min <= v && v <= r.Max)
}

func (r Range) String() string {
	return strconv.FormatFloat(r.Min, 'g', -1, 64) + "-" + strconv.FormatFloat(r.Max, 'g', -1, 64)
}

// Thresholds are the requirements for a query to be annotated. Queries
// without a V gene call are always filtered.
type Thresholds struct {
	VScore        Range // V alignment bit score.
	GermlineStart Range // Start of the V alignment on the germline gene.
	QueryStart    Range // Start of the V alignment on the query.
	VLength       Range // V alignment length on the query.
}

// DefaultThresholds require alignments to start at or after the first
// position of both the query and the germline gene, and place no other
// bound.
var DefaultThresholds = Thresholds{
	VScore:        Unbounded(0),
	GermlineStart: Unbounded(1),
	QueryStart:    Unbounded(1),
	VLength:       Unbounded(0),
}

// FormatError is returned when aligner output does not follow the AIRR
// rearrangement layout.
type FormatError struct {
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Line == 0 {
		return "igblast: malformed output: " + e.Msg
	}
	return fmt.Sprintf("igblast: malformed output at line %d: %s", e.Line, e.Msg)
}

// required lists the AIRR columns that must be present in the header.
var required = []string{
	"sequence_id",
	"v_call",
	"v_score",
	"v_sequence_start",
	"v_sequence_end",
}

// regionColumns are the AIRR column stems of each annot.Region.
var regionColumns = [annot.NumRegions]string{"fwr1", "cdr1", "fwr2", "cdr2", "fwr3", "cdr3", "fwr4"}

var regionStarts, regionEnds [annot.NumRegions]string

func init() {
	for i, stem := range regionColumns {
		regionStarts[i] = stem + "_start"
		regionEnds[i] = stem + "_end"
	}
}

// maxLine bounds the length of a single AIRR line.
const maxLine = 16 << 20

// Parse reads AIRR rearrangement TSV from r. Each data line yields
// either one record in the returned table or, when the line has no V
// call or fails th, its sequence identifier in the returned filtered
// list. A missing required column or a line whose field count differs
// from the header's is reported as a *FormatError.
func Parse(r io.Reader, th Thresholds) (*annot.Table, []string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)

	var (
		cols     *columns
		line     int
		table    = annot.NewTable(0)
		filtered []string
	)
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if cols == nil {
			var err error
			cols, err = header(fields, line)
			if err != nil {
				return nil, nil, err
			}
			continue
		}
		if len(fields) != cols.n {
			return nil, nil, &FormatError{Line: line, Msg: fmt.Sprintf("got %d fields, header has %d", len(fields), cols.n)}
		}
		rec, err := row{cols: cols, fields: fields}.record()
		if err != nil {
			return nil, nil, &FormatError{Line: line, Msg: err.Error()}
		}
		if rec.ID == "" {
			return nil, nil, &FormatError{Line: line, Msg: "empty sequence_id"}
		}
		if !th.accept(&rec) {
			filtered = append(filtered, rec.ID)
			continue
		}
		if err := table.Add(rec); err != nil {
			return nil, nil, &FormatError{Line: line, Msg: err.Error()}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, &FormatError{Line: line, Msg: err.Error()}
	}
	if cols == nil {
		return nil, nil, &FormatError{Msg: "missing header"}
	}
	return table, filtered, nil
}

func (th Thresholds) accept(r *annot.Record) bool {
	return r.VCall != "" &&
		th.VScore.Contains(r.VScore) &&
		th.GermlineStart.Contains(float64(r.VGermlineStart)) &&
		th.QueryStart.Contains(float64(r.VStart)) &&
		th.VLength.Contains(float64(r.VLength()))
}

// columns holds the position of each named header column.
type columns struct {
	n     int
	index map[string]int
}

func header(fields []string, line int) (*columns, error) {
	c := &columns{n: len(fields), index: make(map[string]int, len(fields))}
	for i, f := range fields {
		c.index[f] = i
	}
	for _, name := range required {
		if _, ok := c.index[name]; !ok {
			return nil, &FormatError{Line: line, Msg: fmt.Sprintf("missing column %q", name)}
		}
	}
	return c, nil
}

// row is a data line split into fields laid out as cols.
type row struct {
	cols   *columns
	fields []string
}

// get returns the named field, or "" when the column is absent.
func (r row) get(name string) string {
	i, ok := r.cols.index[name]
	if !ok {
		return ""
	}
	return r.fields[i]
}

func (r row) record() (annot.Record, error) {
	rec := annot.Record{
		ID:         r.get("sequence_id"),
		Locus:      r.get("locus"),
		VCall:      r.get("v_call"),
		DCall:      r.get("d_call"),
		JCall:      r.get("j_call"),
		Productive: r.boolean("productive"),
		StopCodon:  r.boolean("stop_codon"),
		VJInFrame:  r.boolean("vj_in_frame"),
		CDR3AA:     r.get("cdr3_aa"),
		JunctionAA: r.get("junction_aa"),
	}
	var err error
	floats := []struct {
		dst  *float64
		name string
	}{
		{&rec.VScore, "v_score"},
		{&rec.VIdentity, "v_identity"},
		{&rec.VSupport, "v_support"},
		{&rec.DScore, "d_score"},
		{&rec.JScore, "j_score"},
	}
	for _, f := range floats {
		if *f.dst, err = r.float(f.name); err != nil {
			return rec, err
		}
	}
	ints := []struct {
		dst  *int
		name string
	}{
		{&rec.VStart, "v_sequence_start"},
		{&rec.VEnd, "v_sequence_end"},
		{&rec.VGermlineStart, "v_germline_start"},
		{&rec.VGermlineEnd, "v_germline_end"},
	}
	for _, f := range ints {
		if *f.dst, err = r.integer(f.name); err != nil {
			return rec, err
		}
	}
	for i, stem := range regionColumns {
		s := &rec.Regions[i]
		s.Seq = r.get(stem)
		if s.Start, err = r.integer(regionStarts[i]); err != nil {
			return rec, err
		}
		if s.End, err = r.integer(regionEnds[i]); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

func (r row) boolean(name string) bool {
	switch strings.ToUpper(r.get(name)) {
	case "T", "TRUE":
		return true
	}
	return false
}

func (r row) float(name string) (float64, error) {
	v := r.get(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %v", name, err)
	}
	return f, nil
}

func (r row) integer(name string) (int, error) {
	v := r.get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("column %s: %v", name, err)
	}
	return n, nil
}
