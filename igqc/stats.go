// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/biogo/igqc/report"
	"github.com/biogo/igqc/seqfile"
)

func statsCommand() *cobra.Command {
	var plot string
	cmd := &cobra.Command{
		Use:   "stats <file>...",
		Short: "Print read length statistics",
		Long: `Print read length statistics

For each FASTA or FASTQ file the number of reads, the total number of
bases and the minimum, maximum, mean and N50 read lengths are printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				st, err := seqfile.ReadStats(path)
				if err != nil {
					return err
				}
				printStats(cmd.OutOrStdout(), path, st)
				if plot == "" || st.Records == 0 {
					continue
				}
				name := sampleName(path)
				out := filepath.Join(plot, name+"_length_distribution.png")
				if err := report.PlotSpectratype(st.Lengths, name+" read lengths", out); err != nil {
					return fmt.Errorf("igqc: plotting %s: %w", path, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&plot, "plot", "", "directory to write read length distribution plots to")
	return cmd
}

func printStats(w io.Writer, path string, st seqfile.Stats) {
	fmt.Fprintf(w, "%s\n", path)
	fmt.Fprintf(w, "\treads:\t%s\n", humanize.Comma(int64(st.Records)))
	fmt.Fprintf(w, "\tbases:\t%s\n", humanize.Comma(int64(st.Bases)))
	fmt.Fprintf(w, "\tmin:\t%d\n", st.Min)
	fmt.Fprintf(w, "\tmax:\t%d\n", st.Max)
	fmt.Fprintf(w, "\tmean:\t%.1f\n", st.Mean)
	fmt.Fprintf(w, "\tN50:\t%d\n", st.N50)
}
