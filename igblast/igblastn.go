// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package igblast runs the IgBLAST germline aligner over FASTA query
// files and parses its AIRR rearrangement output into annotation tables.
package igblast

import (
	"context"
	"errors"
	"os/exec"

	"github.com/biogo/external"
)

// AIRR is the igblastn -outfmt value selecting the AIRR rearrangement
// TSV layout.
const AIRR = 19

// IgBlastn is a command builder for igblastn.
//
// Usage: igblastn -query <in> -out <out> -germline_db_V <db> ...
type IgBlastn struct {
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}igblastn{{end}}"` // igblastn

	// Input and output.
	Query  string `buildarg:"{{if .}}-query{{split}}{{.}}{{end}}"`  // -query <file>
	Out    string `buildarg:"{{if .}}-out{{split}}{{.}}{{end}}"`    // -out <file>
	OutFmt int    `buildarg:"{{if .}}-outfmt{{split}}{{.}}{{end}}"` // -outfmt <n>

	// Germline databases.
	GermlineV string `buildarg:"{{if .}}-germline_db_V{{split}}{{.}}{{end}}"` // -germline_db_V <db>
	GermlineD string `buildarg:"{{if .}}-germline_db_D{{split}}{{.}}{{end}}"` // -germline_db_D <db>
	GermlineJ string `buildarg:"{{if .}}-germline_db_J{{split}}{{.}}{{end}}"` // -germline_db_J <db>

	Organism     string `buildarg:"{{if .}}-organism{{split}}{{.}}{{end}}"`       // -organism <name>
	SeqType      string `buildarg:"{{if .}}-ig_seqtype{{split}}{{.}}{{end}}"`     // -ig_seqtype Ig|TCR
	DomainSystem string `buildarg:"{{if .}}-domain_system{{split}}{{.}}{{end}}"`  // -domain_system imgt|kabat
	AuxData      string `buildarg:"{{if .}}-auxiliary_data{{split}}{{.}}{{end}}"` // -auxiliary_data <file>

	NumAlignmentsV int `buildarg:"{{if .}}-num_alignments_V{{split}}{{.}}{{end}}"` // -num_alignments_V <n>
	NumAlignmentsD int `buildarg:"{{if .}}-num_alignments_D{{split}}{{.}}{{end}}"` // -num_alignments_D <n>
	NumAlignmentsJ int `buildarg:"{{if .}}-num_alignments_J{{split}}{{.}}{{end}}"` // -num_alignments_J <n>

	Threads int `buildarg:"{{if .}}-num_threads{{split}}{{.}}{{end}}"` // -num_threads <n>
}

// BuildCommand returns an exec.Cmd built from the parameters in ib.
func (ib IgBlastn) BuildCommand() (*exec.Cmd, error) {
	cl, err := ib.args()
	if err != nil {
		return nil, err
	}
	return exec.Command(cl[0], cl[1:]...), nil
}

// BuildCommandContext returns an exec.Cmd built from the parameters in ib
// that is killed when ctx is done.
func (ib IgBlastn) BuildCommandContext(ctx context.Context) (*exec.Cmd, error) {
	cl, err := ib.args()
	if err != nil {
		return nil, err
	}
	return exec.CommandContext(ctx, cl[0], cl[1:]...), nil
}

func (ib IgBlastn) args() ([]string, error) {
	if ib.Query == "" {
		return nil, errors.New("igblast: missing query")
	}
	if ib.GermlineV == "" || ib.GermlineD == "" || ib.GermlineJ == "" {
		return nil, errors.New("igblast: missing germline database")
	}
	return external.Build(ib)
}
