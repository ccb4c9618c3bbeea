// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report summarises annotation tables as spectratypes and
// clonotype counts.
package report

import (
	"bufio"
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/biogo/igqc/annot"
)

// Seq returns the sequence of region r in rec. CDR3 is reported as its
// amino acid translation when the aligner provided one, all other
// regions as nucleotides.
func Seq(rec annot.Record, r annot.Region) string {
	if r == annot.CDR3 && rec.CDR3AA != "" {
		return rec.CDR3AA
	}
	return rec.Regions[r].Seq
}

// Spectratype returns the number of records in t for each length of
// region r. Records without the region are not counted.
func Spectratype(t *annot.Table, r annot.Region) map[int]int {
	dist := make(map[int]int)
	t.Do(func(rec annot.Record) bool {
		if n := len(Seq(rec, r)); n != 0 {
			dist[n]++
		}
		return false
	})
	return dist
}

// Stats is a summary of a length distribution.
type Stats struct {
	N      int
	Mean   float64
	StdDev float64
	Median float64
}

// Summary returns the summary statistics of the length distribution
// dist.
func Summary(dist map[int]int) Stats {
	x, w := lengths(dist)
	if len(x) == 0 {
		return Stats{}
	}
	var s Stats
	for _, v := range w {
		s.N += int(v)
	}
	s.Mean, s.StdDev = stat.MeanStdDev(x, w)
	if s.N < 2 {
		s.StdDev = 0
	}
	s.Median = stat.Quantile(0.5, stat.Empirical, x, w)
	return s
}

// lengths returns the lengths in dist in ascending order and their
// counts.
func lengths(dist map[int]int) (x, w []float64) {
	keys := make([]int, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	x = make([]float64, len(keys))
	w = make([]float64, len(keys))
	for i, k := range keys {
		x[i] = float64(k)
		w[i] = float64(dist[k])
	}
	return x, w
}

// Clonotype is a distinct region sequence and the number of records
// carrying it.
type Clonotype struct {
	Seq   string
	Count int
}

// Clonotypes returns the distinct sequences of region r in t ordered by
// descending count, ties broken by sequence.
func Clonotypes(t *annot.Table, r annot.Region) []Clonotype {
	return count(t, func(rec annot.Record) string { return Seq(rec, r) })
}

// count returns the distinct non-empty keys of the records in t and
// their counts, ordered by descending count and then key.
func count(t *annot.Table, key func(annot.Record) string) []Clonotype {
	counts := make(map[string]int)
	t.Do(func(rec annot.Record) bool {
		if s := key(rec); s != "" {
			counts[s]++
		}
		return false
	})
	cs := make([]Clonotype, 0, len(counts))
	for s, n := range counts {
		cs = append(cs, Clonotype{Seq: s, Count: n})
	}
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Count != cs[j].Count {
			return cs[i].Count > cs[j].Count
		}
		return cs[i].Seq < cs[j].Seq
	})
	return cs
}

// Ascending returns a copy of cs ordered by ascending count, ties broken
// by sequence.
func Ascending(cs []Clonotype) []Clonotype {
	a := append([]Clonotype(nil), cs...)
	sort.SliceStable(a, func(i, j int) bool {
		if a[i].Count != a[j].Count {
			return a[i].Count < a[j].Count
		}
		return a[i].Seq < a[j].Seq
	})
	return a
}

// WriteClonotypes writes the first top clonotypes of cs to w as CSV with
// their percentage of all records in cs. If top is not positive all
// clonotypes are written.
func WriteClonotypes(w io.Writer, cs []Clonotype, top int) error {
	var total int
	for _, c := range cs {
		total += c.Count
	}
	if top <= 0 || top > len(cs) {
		top = len(cs)
	}
	cw := csv.NewWriter(w)
	cw.Write([]string{"Clonotype", "Count", "Percentage (%)"})
	for _, c := range cs[:top] {
		cw.Write([]string{
			c.Seq,
			strconv.Itoa(c.Count),
			strconv.FormatFloat(100*float64(c.Count)/float64(total), 'f', 3, 64),
		})
	}
	cw.Flush()
	return cw.Error()
}

var tableHeader = []string{
	"sequence_id", "locus", "v_call", "d_call", "j_call",
	"v_score", "v_identity", "v_support",
	"v_sequence_start", "v_sequence_end", "v_germline_start", "v_germline_end",
	"d_score", "j_score",
	"productive", "stop_codon", "vj_in_frame",
	"fwr1", "cdr1", "fwr2", "cdr2", "fwr3", "cdr3", "fwr4",
	"cdr3_aa", "junction_aa",
}

// WriteTable writes the records of t to w as tab-separated values in
// identifier order.
func WriteTable(w io.Writer, t *annot.Table) error {
	tw := csv.NewWriter(w)
	tw.Comma = '\t'
	tw.Write(tableHeader)
	row := make([]string, 0, len(tableHeader))
	t.Do(func(r annot.Record) bool {
		row = append(row[:0],
			r.ID, r.Locus, r.VCall, r.DCall, r.JCall,
			float(r.VScore), float(r.VIdentity), float(r.VSupport),
			strconv.Itoa(r.VStart), strconv.Itoa(r.VEnd),
			strconv.Itoa(r.VGermlineStart), strconv.Itoa(r.VGermlineEnd),
			float(r.DScore), float(r.JScore),
			flag(r.Productive), flag(r.StopCodon), flag(r.VJInFrame),
		)
		for _, s := range r.Regions {
			row = append(row, s.Seq)
		}
		row = append(row, r.CDR3AA, r.JunctionAA)
		tw.Write(row)
		return tw.Error() != nil
	})
	tw.Flush()
	return tw.Error()
}

func float(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func flag(b bool) string {
	if b {
		return "T"
	}
	return "F"
}

// WriteFiltered writes ids to w, one per line.
func WriteFiltered(w io.Writer, ids []string) error {
	bw := bufio.NewWriter(w)
	for _, id := range ids {
		bw.WriteString(id)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
