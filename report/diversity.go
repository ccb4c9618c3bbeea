// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"compress/gzip"
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot/plotter"

	"github.com/biogo/igqc/annot"
)

// RemoveOutliers returns the lengths of dist that lie within Tukey's
// fences, 1.5 interquartile ranges below the first and above the third
// quartile.
func RemoveOutliers(dist map[int]int) map[int]int {
	x, w := lengths(dist)
	kept := make(map[int]int, len(dist))
	if len(x) == 0 {
		return kept
	}
	q1 := stat.Quantile(0.25, stat.Empirical, x, w)
	q3 := stat.Quantile(0.75, stat.Empirical, x, w)
	lo, hi := q1-1.5*(q3-q1), q3+1.5*(q3-q1)
	for l, n := range dist {
		if f := float64(l); lo <= f && f <= hi {
			kept[l] = n
		}
	}
	return kept
}

// VDomainClonotypes returns the distinct V domain nucleotide sequences
// in t, each the concatenation of its framework and complementarity
// determining regions, ordered as Clonotypes orders them.
func VDomainClonotypes(t *annot.Table) []Clonotype {
	var b strings.Builder
	return count(t, func(rec annot.Record) string {
		b.Reset()
		for _, s := range rec.Regions {
			b.WriteString(s.Seq)
		}
		return b.String()
	})
}

// Duplication returns the proportion of clonotypes in cs at each clone
// size, in ascending order of size.
func Duplication(cs []Clonotype) plotter.XYs {
	sizes := make(map[int]int)
	for _, c := range cs {
		sizes[c.Count]++
	}
	x, w := lengths(sizes)
	xys := make(plotter.XYs, len(x))
	for i := range x {
		xys[i].X = x[i]
		xys[i].Y = w[i] / float64(len(cs))
	}
	return xys
}

// Rarefaction returns the expected number of distinct clonotypes in a
// subsample drawn without replacement from the records counted by cs.
// The curve is evaluated at zero and at up to points evenly spaced
// subsample sizes ending at the total number of records.
func Rarefaction(cs []Clonotype, points int) plotter.XYs {
	n := total(cs)
	ms := subsamples(n, points)
	xys := make(plotter.XYs, len(ms))
	for i, m := range ms {
		xys[i].X = float64(m)
		if m == 0 {
			continue
		}
		// Each clonotype is missed with probability C(n-k, m)/C(n, m).
		all := lchoose(n, m)
		var s float64
		for _, c := range cs {
			if n-c.Count < m {
				s++
				continue
			}
			s += 1 - math.Exp(lchoose(n-c.Count, m)-all)
		}
		xys[i].Y = s
	}
	return xys
}

// Recapture returns the expected percentage of records in a subsample
// whose clonotype was also drawn in an independent earlier subsample of
// the same size. Both subsamples are drawn with replacement from the
// records counted by cs, at the sizes Rarefaction uses.
func Recapture(cs []Clonotype, points int) plotter.XYs {
	n := total(cs)
	ms := subsamples(n, points)
	xys := make(plotter.XYs, len(ms))
	for i, m := range ms {
		xys[i].X = float64(m)
		var s float64
		for _, c := range cs {
			p := float64(c.Count) / float64(n)
			s += p * (1 - math.Pow(1-p, float64(m)))
		}
		xys[i].Y = 100 * s
	}
	return xys
}

func total(cs []Clonotype) int {
	var n int
	for _, c := range cs {
		n += c.Count
	}
	return n
}

// subsamples returns 0 followed by at most points strictly increasing
// sizes, the last being n.
func subsamples(n, points int) []int {
	if points < 1 || points > n {
		points = n
	}
	ms := make([]int, 0, points+1)
	ms = append(ms, 0)
	for k := 1; k <= points; k++ {
		ms = append(ms, k*n/points)
	}
	return ms
}

// lchoose returns the natural logarithm of the binomial coefficient
// C(n, k) for 0 <= k <= n.
func lchoose(n, k int) float64 {
	a, _ := math.Lgamma(float64(n + 1))
	b, _ := math.Lgamma(float64(k + 1))
	c, _ := math.Lgamma(float64(n - k + 1))
	return a - b - c
}

// diversityRegions are the regions whose variety is counted within each
// CDR3 clonotype.
var diversityRegions = [...]annot.Region{annot.CDR1, annot.CDR2, annot.FR1, annot.FR2, annot.FR3, annot.FR4}

// RegionDiversity holds the number of records sharing a CDR3 clonotype
// and the number of distinct sequences each other region takes among
// them, in the order CDR1, CDR2, FR1, FR2, FR3, FR4.
type RegionDiversity struct {
	CDR3     string
	Count    int
	Distinct [len(diversityRegions)]int
}

// RegionAnalysis returns the region diversity of every CDR3 clonotype
// in t, ordered by descending count, ties broken by CDR3 sequence.
func RegionAnalysis(t *annot.Table) []RegionDiversity {
	type group struct {
		count int
		seen  [len(diversityRegions)]map[string]struct{}
	}
	groups := make(map[string]*group)
	t.Do(func(rec annot.Record) bool {
		cdr3 := Seq(rec, annot.CDR3)
		if cdr3 == "" {
			return false
		}
		g, ok := groups[cdr3]
		if !ok {
			g = &group{}
			for i := range g.seen {
				g.seen[i] = make(map[string]struct{})
			}
			groups[cdr3] = g
		}
		g.count++
		for i, r := range diversityRegions {
			if s := Seq(rec, r); s != "" {
				g.seen[i][s] = struct{}{}
			}
		}
		return false
	})

	rs := make([]RegionDiversity, 0, len(groups))
	for cdr3, g := range groups {
		d := RegionDiversity{CDR3: cdr3, Count: g.count}
		for i, s := range g.seen {
			d.Distinct[i] = len(s)
		}
		rs = append(rs, d)
	}
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Count != rs[j].Count {
			return rs[i].Count > rs[j].Count
		}
		return rs[i].CDR3 < rs[j].CDR3
	})
	return rs
}

// WriteRegionAnalysis writes rs to w as gzip compressed CSV.
func WriteRegionAnalysis(w io.Writer, rs []RegionDiversity) error {
	gz := gzip.NewWriter(w)
	cw := csv.NewWriter(gz)
	header := []string{"cdr3", "count"}
	for _, r := range diversityRegions {
		header = append(header, r.String())
	}
	cw.Write(header)
	row := make([]string, 0, len(header))
	for _, d := range rs {
		row = append(row[:0], d.CDR3, strconv.Itoa(d.Count))
		for _, n := range d.Distinct {
			row = append(row, strconv.Itoa(n))
		}
		cw.Write(row)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return gz.Close()
}
