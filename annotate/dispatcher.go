// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package annotate distributes the alignment of a sequence file over a
// pool of workers and merges their annotation tables.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/biogo/igqc/annot"
	"github.com/biogo/igqc/seqfile"
)

// Aligner annotates the queries of a FASTA file. Align must be safe for
// concurrent use and must return promptly once ctx is done.
type Aligner interface {
	Align(ctx context.Context, chunk string, threads int) (*annot.Table, []string, error)
}

// Outputer is implemented by aligners that leave files next to the
// chunks they align.
type Outputer interface {
	Outputs(chunk string) []string
}

// Progress is told how many alignment calls a run will make and is
// notified as each one completes.
type Progress interface {
	Start(total int)
	ChunkDone(elapsed time.Duration)
}

// DefaultSeqsPerFile is the default chunk size hint.
const DefaultSeqsPerFile = 100000

// QueryName is the name of the query file prepared under the work
// directory's tmp directory.
const QueryName = "seqs.fasta"

// Config holds the parameters of a Dispatcher.
type Config struct {
	WorkDir     string // Intermediate files are written to WorkDir/tmp.
	SeqsPerFile int    // Chunk size hint; DefaultSeqsPerFile if zero.
	Workers     int    // Number of workers; 1 if zero.
	Primer      int    // Truncate queries to this length if positive.

	Aligner  Aligner
	Logger   logrus.FieldLogger // logrus.StandardLogger() if nil.
	Progress Progress           // Optional.
}

// Dispatcher runs annotations of sequence files.
type Dispatcher struct {
	cfg Config
	log logrus.FieldLogger
}

// New returns a Dispatcher for cfg.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Aligner == nil {
		return nil, errors.New("annotate: no aligner")
	}
	if cfg.WorkDir == "" {
		return nil, errors.New("annotate: no work directory")
	}
	if cfg.SeqsPerFile == 0 {
		cfg.SeqsPerFile = DefaultSeqsPerFile
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.SeqsPerFile < 0 || cfg.Workers < 0 {
		return nil, fmt.Errorf("annotate: invalid configuration: %d workers, %d sequences per file", cfg.Workers, cfg.SeqsPerFile)
	}
	d := &Dispatcher{cfg: cfg, log: cfg.Logger}
	if d.log == nil {
		d.log = logrus.StandardLogger()
	}
	return d, nil
}

// Schedule describes how a file will be annotated.
type Schedule struct {
	Records    int
	Sequential bool // Align the whole file in one call.
	Chunks     int  // Number of chunk files.
	PerChunk   int  // Maximum records per chunk file.
	Threads    int  // Aligner threads per call.
}

// Plan returns the schedule for annotating n records with the given
// number of workers and chunk size hint. When there would be fewer
// chunks than workers the chunk size is shrunk to n/workers, but no
// lower than one record.
func Plan(n, workers, perFile int) Schedule {
	if workers < 1 {
		workers = 1
	}
	if perFile < 1 {
		perFile = 1
	}
	s := Schedule{
		Records:    n,
		Sequential: workers == 1 || n <= perFile,
		PerChunk:   perFile,
	}
	s.Chunks = ceilDiv(n, s.PerChunk)
	if s.Chunks < workers {
		s.PerChunk = n / workers
		if s.PerChunk < 1 {
			s.PerChunk = 1
		}
		s.Chunks = ceilDiv(n, s.PerChunk)
	}
	if s.Sequential || s.Chunks == 0 {
		s.Threads = workers
	} else {
		s.Threads = ceilDiv(workers, s.Chunks)
	}
	return s
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

// Annotate aligns every record of the FASTA or FASTQ file input and
// returns the merged annotation table and the identifiers of records
// that were not annotated. The row order of the returned table is not
// stable between runs; use Keys or Do for a sorted traversal.
//
// If any chunk fails to align, all workers are stopped, their aligner
// processes killed, and no table is returned.
func (d *Dispatcher) Annotate(ctx context.Context, input string) (*annot.Table, []string, error) {
	log := d.log.WithField("input", input)
	tmp := filepath.Join(d.cfg.WorkDir, "tmp")
	query := filepath.Join(tmp, QueryName)

	n, err := seqfile.WriteQuery(input, query, d.cfg.Primer)
	if err != nil {
		return nil, nil, err
	}
	s := Plan(n, d.cfg.Workers, d.cfg.SeqsPerFile)
	log.Infof("Total number of sequences: %s", humanize.Comma(int64(n)))
	if n == 0 {
		d.cleanup(log, []string{query}, false)
		return annot.NewTable(0), nil, nil
	}

	if s.Sequential {
		log.Infof("Annotating %s sequences in a single call with %d aligner threads", humanize.Comma(int64(n)), s.Threads)
		if d.cfg.Progress != nil {
			d.cfg.Progress.Start(1)
		}
		start := time.Now()
		table, filtered, err := d.cfg.Aligner.Align(ctx, query, s.Threads)
		if err != nil {
			log.WithError(err).Error("Annotation failed")
			return nil, nil, err
		}
		if d.cfg.Progress != nil {
			d.cfg.Progress.ChunkDone(time.Since(start))
		}
		if table == nil {
			table = annot.NewTable(0)
		}
		d.cleanup(log, []string{query}, true)
		return table, filtered, nil
	}

	log.Infof("Splitting %s sequences into %d files of at most %s sequences", humanize.Comma(int64(n)), s.Chunks, humanize.Comma(int64(s.PerChunk)))
	chunks, err := seqfile.Split(query, seqfile.SplitOptions{
		Dir:      tmp,
		Prefix:   seqfile.ChunkPrefix(input),
		Ext:      ".fasta",
		Chunks:   s.Chunks,
		PerChunk: s.PerChunk,
	})
	if err != nil {
		d.cleanup(log, append(chunks, query), false)
		return nil, nil, err
	}
	table, filtered, err := d.dispatch(ctx, log, chunks, s)
	if err != nil {
		return nil, nil, err
	}
	d.cleanup(log, append(chunks, query), true)
	return table, filtered, nil
}

// dispatch aligns chunks on a pool of workers.
func (d *Dispatcher) dispatch(ctx context.Context, log logrus.FieldLogger, chunks []string, s Schedule) (*annot.Table, []string, error) {
	workers := d.cfg.Workers
	tasks := make(chan Task, len(chunks)+workers+ExtraStops)
	results := make(chan Outcome, len(chunks))
	exits := make(chan ExitSignal, workers)

	log.Infof("Annotating %d files with %d workers, %d aligner threads each", len(chunks), workers, s.Threads)
	if d.cfg.Progress != nil {
		d.cfg.Progress.Start(len(chunks))
	}
	p := newPool(ctx)
	for i := 0; i < workers; i++ {
		p.spawn(&worker{
			id:       i + 1,
			threads:  s.Threads,
			aligner:  d.cfg.Aligner,
			progress: d.cfg.Progress,
			log:      log.WithField("worker", i+1),
			tasks:    tasks,
			results:  results,
			exits:    exits,
		})
	}
	for _, c := range chunks {
		tasks <- Task{Kind: Chunk, Path: c}
	}
	for i := 0; i < workers+ExtraStops; i++ {
		tasks <- Task{Kind: Stop}
	}

	abort := func(op string, err error) (*annot.Table, []string, error) {
		log.WithError(err).Errorf("Annotation failed, terminating %d workers", workers)
		p.TerminateAll()
		return nil, nil, &DispatchError{Op: op, Err: err}
	}

	for exited := 0; exited < workers; {
		select {
		case <-ctx.Done():
			return abort("wait for workers", ctx.Err())
		case sig := <-exits:
			if sig.Err != nil {
				return abort(fmt.Sprintf("worker %d", sig.Worker), sig.Err)
			}
			exited++
		}
	}
	p.Wait()

	tables, filtered, err := collect(ctx, results, len(chunks))
	if err != nil {
		return abort("collect results", err)
	}
	table, err := annot.Concat(tables...)
	if err != nil {
		return abort("merge results", err)
	}
	log.Infof("Annotated %s sequences, %s filtered", humanize.Comma(int64(table.Len())), humanize.Comma(int64(len(filtered))))
	return table, filtered, nil
}

// collect receives exactly n outcomes from results, keeping the non-nil
// tables and concatenating the filtered lists.
func collect(ctx context.Context, results <-chan Outcome, n int) ([]*annot.Table, []string, error) {
	var (
		tables   = make([]*annot.Table, 0, n)
		filtered []string
	)
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case o := <-results:
			if o.Table != nil {
				tables = append(tables, o.Table)
			}
			filtered = append(filtered, o.Filtered...)
		}
	}
	return tables, filtered, nil
}

// cleanup removes intermediate files, and the aligner's outputs for them
// when aligned is true. Failures are logged and otherwise ignored.
func (d *Dispatcher) cleanup(log logrus.FieldLogger, files []string, aligned bool) {
	out, _ := d.cfg.Aligner.(Outputer)
	for _, f := range files {
		paths := []string{f}
		if aligned && out != nil {
			paths = append(paths, out.Outputs(f)...)
		}
		for _, p := range paths {
			err := os.Remove(p)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				log.WithError(err).Warnf("Could not remove %s", p)
			}
		}
	}
	// Only succeeds if nothing else was left behind.
	os.Remove(filepath.Join(d.cfg.WorkDir, "tmp"))
}
