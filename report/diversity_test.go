// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"bytes"
	"compress/gzip"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot/plotter"
	"gopkg.in/check.v1"

	"github.com/biogo/igqc/annot"
)

func (s *S) TestRemoveOutliers(c *check.C) {
	for i, t := range []struct {
		dist, want map[int]int
	}{
		{
			dist: map[int]int{10: 1, 14: 40, 15: 50, 16: 40, 30: 1},
			want: map[int]int{14: 40, 15: 50, 16: 40},
		},
		{
			dist: map[int]int{12: 5, 13: 5, 14: 5},
			want: map[int]int{12: 5, 13: 5, 14: 5},
		},
		{
			dist: map[int]int{9: 1},
			want: map[int]int{9: 1},
		},
		{
			dist: nil,
			want: map[int]int{},
		},
	} {
		c.Check(RemoveOutliers(t.dist), check.DeepEquals, t.want, check.Commentf("Test %d", i))
	}
}

func (s *S) TestVDomainClonotypes(c *check.C) {
	cs := VDomainClonotypes(sample(c))
	c.Assert(cs, check.HasLen, 6)
	for _, cl := range cs {
		c.Check(cl.Count, check.Equals, 1)
	}
	c.Check(cs[0].Seq, check.Equals, "CAGGTG")
	c.Check(cs[5].Seq, check.Equals, strings.Repeat("N", 12))

	c.Check(VDomainClonotypes(annot.NewTable(0)), check.HasLen, 0)
}

func (s *S) TestDuplication(c *check.C) {
	cs := []Clonotype{{"A", 3}, {"B", 2}, {"C", 2}, {"D", 1}}
	c.Check(Duplication(cs), check.DeepEquals, plotter.XYs{{X: 1, Y: 0.25}, {X: 2, Y: 0.5}, {X: 3, Y: 0.25}})
	c.Check(Duplication(nil), check.HasLen, 0)
}

func closeXYs(c *check.C, got, want plotter.XYs) {
	c.Assert(got, check.HasLen, len(want))
	for i := range want {
		c.Check(got[i].X, check.Equals, want[i].X, check.Commentf("point %d", i))
		c.Check(math.Abs(got[i].Y-want[i].Y) < 1e-9, check.Equals, true, check.Commentf("point %d: got %v want %v", i, got[i].Y, want[i].Y))
	}
}

func (s *S) TestRarefaction(c *check.C) {
	cs := []Clonotype{{"A", 2}, {"B", 1}}
	closeXYs(c, Rarefaction(cs, 10), plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 5.0 / 3}, {X: 3, Y: 2}})

	// The curve ends at the number of clonotypes whatever the spacing.
	cs = []Clonotype{{"A", 50}, {"B", 30}, {"C", 15}, {"D", 4}, {"E", 1}}
	got := Rarefaction(cs, 7)
	c.Assert(got, check.HasLen, 8)
	c.Check(got[len(got)-1], check.Equals, plotter.XY{X: 100, Y: 5})
	for i := 1; i < len(got); i++ {
		c.Check(got[i].X > got[i-1].X, check.Equals, true)
		c.Check(got[i].Y >= got[i-1].Y, check.Equals, true)
	}

	c.Check(Rarefaction(nil, 10), check.DeepEquals, plotter.XYs{{}})
}

func (s *S) TestRecapture(c *check.C) {
	cs := []Clonotype{{"A", 1}, {"B", 1}}
	closeXYs(c, Recapture(cs, 0), plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 50}, {X: 2, Y: 75}})

	closeXYs(c, Recapture([]Clonotype{{"A", 4}}, 2), plotter.XYs{{X: 0, Y: 0}, {X: 2, Y: 100}, {X: 4, Y: 100}})
}

func (s *S) TestRegionAnalysis(c *check.C) {
	rs := RegionAnalysis(sample(c))
	c.Check(rs, check.DeepEquals, []RegionDiversity{
		{CDR3: "ARDY", Count: 3, Distinct: [6]int{0, 0, 2, 0, 0, 0}},
		{CDR3: "AKW", Count: 1, Distinct: [6]int{0, 0, 1, 0, 0, 0}},
		{CDR3: "ARGGY", Count: 1, Distinct: [6]int{0, 0, 1, 0, 0, 0}},
	})

	var buf bytes.Buffer
	c.Assert(WriteRegionAnalysis(&buf, rs), check.IsNil)
	gz, err := gzip.NewReader(&buf)
	c.Assert(err, check.IsNil)
	b, err := io.ReadAll(gz)
	c.Assert(err, check.IsNil)
	c.Check(string(b), check.Equals, "cdr3,count,cdr1,cdr2,fr1,fr2,fr3,fr4\n"+
		"ARDY,3,0,0,2,0,0,0\n"+
		"AKW,1,0,0,1,0,0,0\n"+
		"ARGGY,1,0,0,1,0,0,0\n")
}

func (s *S) TestPlotCurves(c *check.C) {
	dir := c.MkDir()
	cs := []Clonotype{{"A", 5}, {"B", 3}, {"C", 1}}
	path := filepath.Join(dir, "rarefaction.png")
	err := PlotCurves([]Series{
		{Name: "CDR1", XYs: Rarefaction(cs, 5)},
		{Name: "CDR3", XYs: Rarefaction(cs[1:], 5)},
	}, "Rarefaction of CDR Sequences", "Sample size", "Distinct clonotypes", path)
	c.Assert(err, check.IsNil)
	fi, err := os.Stat(path)
	c.Assert(err, check.IsNil)
	c.Check(fi.Size() > 0, check.Equals, true)

	c.Check(PlotCurves(nil, "", "", "", filepath.Join(dir, "none.png")), check.ErrorMatches, "report: no curves to plot")
}
