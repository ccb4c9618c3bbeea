// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package seqfile provides the sequence file handling used by the
// annotation pipeline: format detection, record scanning and counting,
// primer truncation and partitioning of large inputs into chunk files.
package seqfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/io/seqio/fastq"
	"github.com/biogo/biogo/seq"
	"github.com/biogo/biogo/seq/linear"
	"github.com/biogo/biogo/seq/sequtils"
)

// Format is a sequence file format.
type Format int

const (
	Unknown Format = iota
	FASTA
	FASTQ
)

func (f Format) String() string {
	switch f {
	case FASTA:
		return "fasta"
	case FASTQ:
		return "fastq"
	}
	return "unknown"
}

// Width is the line width used for FASTA output.
const Width = 60

// ErrEmpty is returned by Detect for a file holding no data.
var ErrEmpty = errors.New("empty file")

// Error is returned when a sequence file cannot be read or written.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("seqfile: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Detect returns the format of the named file based on its first
// non-blank byte.
func Detect(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown, &Error{Op: "open", Path: path, Err: err}
	}
	defer f.Close()
	r := bufio.NewReader(f)
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return Unknown, &Error{Op: "detect", Path: path, Err: ErrEmpty}
			}
			return Unknown, &Error{Op: "detect", Path: path, Err: err}
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '>':
			return FASTA, nil
		case '@':
			return FASTQ, nil
		}
		return Unknown, &Error{Op: "detect", Path: path, Err: fmt.Errorf("unexpected leading byte %q", b)}
	}
}

// NewScanner returns a scanner over the records in r.
func NewScanner(r io.Reader, f Format) (*seqio.Scanner, error) {
	switch f {
	case FASTA:
		return seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNA))), nil
	case FASTQ:
		return seqio.NewScanner(fastq.NewReader(r, linear.NewQSeq("", nil, alphabet.DNA, alphabet.Sanger))), nil
	}
	return nil, fmt.Errorf("seqfile: cannot scan %v format", f)
}

// Each calls fn for each record in the named file. Iteration stops at
// the first error returned by fn. An empty file holds no records.
func Each(path string, fn func(seq.Sequence) error) error {
	format, err := Detect(path)
	if err != nil {
		if errors.Is(err, ErrEmpty) {
			return nil
		}
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return &Error{Op: "open", Path: path, Err: err}
	}
	defer f.Close()
	sc, err := NewScanner(f, format)
	if err != nil {
		return &Error{Op: "read", Path: path, Err: err}
	}
	for sc.Next() {
		if err := fn(sc.Seq()); err != nil {
			return err
		}
	}
	if err := sc.Error(); err != nil {
		return &Error{Op: "read", Path: path, Err: err}
	}
	return nil
}

// Count returns the number of records in the named file.
func Count(path string) (int, error) {
	var n int
	err := Each(path, func(seq.Sequence) error {
		n++
		return nil
	})
	return n, err
}

// IDs returns the record identifiers of the named file in file order.
func IDs(path string) ([]string, error) {
	var ids []string
	err := Each(path, func(s seq.Sequence) error {
		ids = append(ids, s.Name())
		return nil
	})
	return ids, err
}

// Truncate returns a copy of s holding at most its first n letters, with
// the description removed. If n is negative or not less than the length
// of s, the copy holds the whole sequence.
func Truncate(s seq.Sequence, n int) (seq.Sequence, error) {
	t := s.Clone()
	if n >= 0 && n < s.Len() {
		err := sequtils.Truncate(t, s, s.Start(), s.Start()+n)
		if err != nil {
			return nil, fmt.Errorf("seqfile: truncate %q: %w", s.Name(), err)
		}
	}
	switch t := t.(type) {
	case *linear.Seq:
		t.Desc = ""
	case *linear.QSeq:
		t.Desc = ""
	}
	return t, nil
}

// WriteQuery writes the records of src to dst as FASTA, truncating each
// to primer letters when primer is positive. It returns the number of
// records written. dst is only created once it has been completely
// written.
func WriteQuery(src, dst string, primer int) (int, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, &Error{Op: "mkdir", Path: filepath.Dir(dst), Err: err}
	}
	out, err := create(dst)
	if err != nil {
		return 0, err
	}
	var n int
	err = Each(src, func(s seq.Sequence) error {
		if primer > 0 {
			var err error
			s, err = Truncate(s, primer)
			if err != nil {
				return err
			}
		}
		n++
		return out.write(s)
	})
	if err != nil {
		out.abort()
		return 0, err
	}
	return n, out.commit()
}

// atomicFile is a FASTA file written under a temporary name and renamed
// into place on commit.
type atomicFile struct {
	path string
	f    *os.File
	buf  *bufio.Writer
	w    *fasta.Writer
}

func create(path string) (*atomicFile, error) {
	f, err := os.Create(path + ".partial")
	if err != nil {
		return nil, &Error{Op: "create", Path: path, Err: err}
	}
	buf := bufio.NewWriter(f)
	return &atomicFile{path: path, f: f, buf: buf, w: fasta.NewWriter(buf, Width)}, nil
}

func (a *atomicFile) write(s seq.Sequence) error {
	_, err := a.w.Write(s)
	if err != nil {
		return &Error{Op: "write", Path: a.path, Err: err}
	}
	return nil
}

func (a *atomicFile) commit() error {
	if err := a.buf.Flush(); err != nil {
		a.abort()
		return &Error{Op: "write", Path: a.path, Err: err}
	}
	if err := a.f.Close(); err != nil {
		os.Remove(a.f.Name())
		return &Error{Op: "close", Path: a.path, Err: err}
	}
	if err := os.Rename(a.f.Name(), a.path); err != nil {
		os.Remove(a.f.Name())
		return &Error{Op: "rename", Path: a.path, Err: err}
	}
	return nil
}

func (a *atomicFile) abort() {
	a.f.Close()
	os.Remove(a.f.Name())
}
