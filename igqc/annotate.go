// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/plotter"

	"github.com/biogo/igqc/annot"
	"github.com/biogo/igqc/annotate"
	"github.com/biogo/igqc/report"
)

func annotateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Annotate reads with igblastn and report clonotypes",
		Long: `Annotate reads with igblastn and report clonotypes

Outputs are written to <outdir>/<name>:
  <name>_igblast.tsv                            annotation table
  <name>_filtered.txt                           identifiers of unannotated reads
  clonotypes/<name>_<region>_clonotypes_<n>_over.csv
  clonotypes/<name>_<region>_clonotypes_<n>_under.csv
  spectratypes/<name>_<region>_spectratype.png
  spectratypes/<name>_cdr3_spectratype_no_outliers.png
  diversity/<name>_<group>_{duplication,rarefaction,recapture}.png
  diversity/<name>_clonotype_diversity_region_analysis.csv.gz

where <group> is cdr, fr or cdr_v.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}
			o, err := loadOptions(v)
			if err != nil {
				return err
			}
			logger := logrus.New()
			logger.SetOutput(cmd.ErrOrStderr())
			logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			logger.SetLevel(o.LogLevel)
			log := logger.WithField("run", uuid.New().String())
			return run(cmd.Context(), o, log, cmd.ErrOrStderr())
		},
	}
	addFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, o options, log *logrus.Entry, stderr io.Writer) error {
	work := filepath.Join(o.Outdir, o.Name)
	if err := os.MkdirAll(work, 0o755); err != nil {
		return fmt.Errorf("igqc: %w", err)
	}
	log = log.WithField("sample", o.Name)
	log.Infof("Annotating %s against %s %v germlines in %s", o.File1, o.Organism, o.Chain, o.Database)

	cfg := annotate.Config{
		WorkDir:     work,
		SeqsPerFile: o.SeqsPerFile,
		Workers:     o.Threads,
		Primer:      o.Primer,
		Aligner:     o.aligner(),
		Logger:      log,
	}
	var bar *progressBar
	if o.Progress {
		bar = newProgressBar(stderr)
		cfg.Progress = bar
	}
	d, err := annotate.New(cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	t, filtered, err := d.Annotate(ctx, o.File1)
	if bar != nil {
		bar.Wait()
	}
	if err != nil {
		return err
	}
	log.Infof("Annotated %s sequences in %v, %s filtered",
		humanize.Comma(int64(t.Len())), time.Since(start).Round(time.Millisecond), humanize.Comma(int64(len(filtered))))

	return writeReports(work, o, t, filtered, log)
}

func writeReports(dir string, o options, t *annot.Table, filtered []string, log logrus.FieldLogger) error {
	err := writeFile(filepath.Join(dir, o.Name+"_igblast.tsv"), func(w io.Writer) error {
		return report.WriteTable(w, t)
	})
	if err != nil {
		return err
	}
	err = writeFile(filepath.Join(dir, o.Name+"_filtered.txt"), func(w io.Writer) error {
		return report.WriteFiltered(w, filtered)
	})
	if err != nil {
		return err
	}

	cloneDir := filepath.Join(dir, "clonotypes")
	specDir := filepath.Join(dir, "spectratypes")
	for _, d := range []string{cloneDir, specDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("igqc: %w", err)
		}
	}
	var clones [annot.NumRegions][]report.Clonotype
	for r := annot.FR1; int(r) < annot.NumRegions; r++ {
		cs := report.Clonotypes(t, r)
		clones[r] = cs
		if len(cs) == 0 {
			log.Warnf("No %v sequences to report", r)
			continue
		}
		top := topLabel(o.Top, len(cs))
		for _, c := range []struct {
			suffix string
			cs     []report.Clonotype
		}{
			{suffix: "over", cs: cs},
			{suffix: "under", cs: report.Ascending(cs)},
		} {
			path := filepath.Join(cloneDir, fmt.Sprintf("%s_%v_clonotypes_%s_%s.csv", o.Name, r, top, c.suffix))
			err := writeFile(path, func(w io.Writer) error {
				return report.WriteClonotypes(w, c.cs, o.Top)
			})
			if err != nil {
				return err
			}
		}

		dist := report.Spectratype(t, r)
		s := report.Summary(dist)
		log.Infof("%v length: mean %.2f, sd %.2f, median %.0f over %s sequences; %s clonotypes",
			r, s.Mean, s.StdDev, s.Median, humanize.Comma(int64(s.N)), humanize.Comma(int64(len(cs))))
		path := filepath.Join(specDir, fmt.Sprintf("%s_%v_spectratype.png", o.Name, r))
		if err := report.PlotSpectratype(dist, fmt.Sprintf("%s %s spectratype", o.Name, strings.ToUpper(r.String())), path); err != nil {
			return fmt.Errorf("igqc: plotting %v spectratype: %w", r, err)
		}
		if r == annot.CDR3 {
			path := filepath.Join(specDir, fmt.Sprintf("%s_%v_spectratype_no_outliers.png", o.Name, r))
			if err := report.PlotSpectratype(report.RemoveOutliers(dist), fmt.Sprintf("%s %s spectratype", o.Name, strings.ToUpper(r.String())), path); err != nil {
				return fmt.Errorf("igqc: plotting %v spectratype: %w", r, err)
			}
		}
	}
	if err := writeDiversity(filepath.Join(dir, "diversity"), o, t, &clones, log); err != nil {
		return err
	}
	log.Infof("Reports written to %s", dir)
	return nil
}

// curvePoints is the number of subsample sizes at which rarefaction
// and recapture curves are evaluated.
const curvePoints = 50

var diversityGroups = []struct {
	name, title string
	regions     []annot.Region
	vDomain     bool
}{
	{name: "cdr", title: "CDR Sequences", regions: []annot.Region{annot.CDR1, annot.CDR2, annot.CDR3}},
	{name: "fr", title: "FR Sequences", regions: []annot.Region{annot.FR1, annot.FR2, annot.FR3, annot.FR4}},
	{name: "cdr_v", title: "CDRs and V Domains", regions: []annot.Region{annot.CDR1, annot.CDR2, annot.CDR3}, vDomain: true},
}

var diversityCurves = []struct {
	kind, title, x, y string
	curve             func([]report.Clonotype) plotter.XYs
}{
	{
		kind: "duplication", title: "Duplication of %s", x: "Clone size", y: "Proportion of clonotypes",
		curve: report.Duplication,
	},
	{
		kind: "rarefaction", title: "Rarefaction of %s", x: "Sample size", y: "Distinct clonotypes",
		curve: func(cs []report.Clonotype) plotter.XYs { return report.Rarefaction(cs, curvePoints) },
	},
	{
		kind: "recapture", title: "Percent Recapture of %s", x: "Sample size", y: "Recapture (%)",
		curve: func(cs []report.Clonotype) plotter.XYs { return report.Recapture(cs, curvePoints) },
	},
}

// writeDiversity writes the duplication, rarefaction and recapture
// plots of each region group and the per CDR3 region analysis to dir.
func writeDiversity(dir string, o options, t *annot.Table, clones *[annot.NumRegions][]report.Clonotype, log logrus.FieldLogger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("igqc: %w", err)
	}
	vdom := report.VDomainClonotypes(t)
	for _, g := range diversityGroups {
		type set struct {
			name string
			cs   []report.Clonotype
		}
		var sets []set
		for _, r := range g.regions {
			if len(clones[r]) != 0 {
				sets = append(sets, set{name: strings.ToUpper(r.String()), cs: clones[r]})
			}
		}
		if g.vDomain && len(vdom) != 0 {
			sets = append(sets, set{name: "V", cs: vdom})
		}
		if len(sets) == 0 {
			log.Warnf("No %s sequences for diversity curves", strings.ToUpper(g.name))
			continue
		}
		for _, c := range diversityCurves {
			series := make([]report.Series, len(sets))
			for i, s := range sets {
				series[i] = report.Series{Name: s.name, XYs: c.curve(s.cs)}
			}
			path := filepath.Join(dir, fmt.Sprintf("%s_%s_%s.png", o.Name, g.name, c.kind))
			if err := report.PlotCurves(series, fmt.Sprintf(c.title, g.title), c.x, c.y, path); err != nil {
				return fmt.Errorf("igqc: plotting %s %s: %w", g.name, c.kind, err)
			}
		}
	}

	rs := report.RegionAnalysis(t)
	if len(rs) == 0 {
		return nil
	}
	return writeFile(filepath.Join(dir, o.Name+"_clonotype_diversity_region_analysis.csv.gz"), func(w io.Writer) error {
		return report.WriteRegionAnalysis(w, rs)
	})
}

// topLabel returns the label naming how many clonotypes a file holds.
func topLabel(top, n int) string {
	switch {
	case top <= 0:
		return "all"
	case n < top:
		return strconv.Itoa(n)
	}
	return strconv.Itoa(top)
}

// writeFile creates path and writes to it with fn, reporting the first
// of any write, flush or close error.
func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("igqc: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("igqc: %w", cerr)
		}
	}()
	w := bufio.NewWriter(f)
	if err = fn(w); err != nil {
		return fmt.Errorf("igqc: writing %s: %w", path, err)
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("igqc: %w", err)
	}
	return nil
}
