// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"errors"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotSpectratype saves a bar chart of the proportion of records at each
// length in dist to path. The image format is taken from the extension
// of path.
func PlotSpectratype(dist map[int]int, title, path string) error {
	x, w := lengths(dist)
	if len(x) == 0 {
		return errors.New("report: empty spectratype")
	}
	var total float64
	for _, v := range w {
		total += v
	}

	// Include absent lengths so bars sit at their true positions.
	lo, hi := int(x[0]), int(x[len(x)-1])
	vals := make(plotter.Values, hi-lo+1)
	labels := make([]string, hi-lo+1)
	for i := range vals {
		vals[i] = float64(dist[lo+i]) / total
		labels[i] = strconv.Itoa(lo + i)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Length"
	p.Y.Label.Text = "Proportion"

	bars, err := plotter.NewBarChart(vals, vg.Points(10))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)

	return p.Save(vg.Length(len(vals))*vg.Points(14)+2*vg.Inch, 4*vg.Inch, path)
}

// Series is a named curve.
type Series struct {
	Name string
	XYs  plotter.XYs
}

// PlotCurves saves a line plot of each of series to path, with a legend
// naming them. The image format is taken from the extension of path.
func PlotCurves(series []Series, title, xLabel, yLabel, path string) error {
	if len(series) == 0 {
		return errors.New("report: no curves to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true

	vs := make([]interface{}, 0, 2*len(series))
	for _, s := range series {
		vs = append(vs, s.Name, s.XYs)
	}
	if err := plotutil.AddLinePoints(p, vs...); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
