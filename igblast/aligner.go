// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package igblast

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/biogo/igqc/annot"
	"github.com/biogo/igqc/seqfile"
)

// OutputExt is appended to a query file name to give the name of the
// aligner output written next to it.
const OutputExt = ".airr.tsv"

// waitDelay bounds how long a killed aligner may hold its stderr open.
const waitDelay = 5 * time.Second

// AlignmentError is returned when the aligner fails on a query file or
// its output cannot be parsed.
type AlignmentError struct {
	Chunk  string // Query file.
	Stderr string // Aligner diagnostics, if any.
	Err    error
}

func (e *AlignmentError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("igblast: alignment of %q failed: %v", e.Chunk, e.Err)
	}
	return fmt.Sprintf("igblast: alignment of %q failed: %v: %s", e.Chunk, e.Err, e.Stderr)
}

func (e *AlignmentError) Unwrap() error { return e.Err }

// Aligner annotates FASTA query files with igblastn. An Aligner holds no
// mutable state and may be used concurrently.
type Aligner struct {
	Cmd        string // igblastn executable; "igblastn" if empty.
	DB         Database
	Domain     string // imgt or kabat.
	AuxData    string // Optional J gene auxiliary data file.
	Thresholds Thresholds
}

// Command returns the igblastn invocation for a query file.
func (a *Aligner) Command(query string, threads int) IgBlastn {
	return IgBlastn{
		Cmd:            a.Cmd,
		Query:          query,
		Out:            query + OutputExt,
		OutFmt:         AIRR,
		GermlineV:      a.DB.V(),
		GermlineD:      a.DB.D(),
		GermlineJ:      a.DB.J(),
		Organism:       a.DB.Organism,
		SeqType:        "Ig",
		DomainSystem:   a.Domain,
		AuxData:        a.AuxData,
		NumAlignmentsV: 1,
		NumAlignmentsD: 1,
		NumAlignmentsJ: 1,
		Threads:        threads,
	}
}

// Align runs igblastn over the query file chunk using the given number
// of aligner threads and returns the annotated records and the
// identifiers of queries that were not annotated. Every query in chunk
// appears in exactly one of the two results.
func (a *Aligner) Align(ctx context.Context, chunk string, threads int) (*annot.Table, []string, error) {
	ids, err := seqfile.IDs(chunk)
	if err != nil {
		return nil, nil, &AlignmentError{Chunk: chunk, Err: err}
	}

	ib := a.Command(chunk, threads)
	cmd, err := ib.BuildCommandContext(ctx)
	if err != nil {
		return nil, nil, &AlignmentError{Chunk: chunk, Err: err}
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, nil, &AlignmentError{Chunk: chunk, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}

	f, err := os.Open(ib.Out)
	if err != nil {
		return nil, nil, &AlignmentError{Chunk: chunk, Err: err}
	}
	defer f.Close()
	t, filtered, err := Parse(f, a.Thresholds)
	if err != nil {
		return nil, nil, &AlignmentError{Chunk: chunk, Err: err}
	}

	reported := make(map[string]bool, len(filtered))
	for _, id := range filtered {
		reported[id] = true
	}
	for _, id := range ids {
		if !reported[id] && !t.Has(id) {
			filtered = append(filtered, id)
		}
	}
	return t, filtered, nil
}

// Outputs returns the files written by Align for the query file chunk.
func (a *Aligner) Outputs(chunk string) []string {
	return []string{chunk + OutputExt}
}
