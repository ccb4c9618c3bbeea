// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seqfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/biogo/biogo/seq"
)

// SplitOptions configures Split.
type SplitOptions struct {
	Dir      string // Output directory, created if missing.
	Prefix   string // Chunk name prefix.
	Ext      string // Chunk name extension, including the dot.
	Chunks   int    // Maximum number of chunk files.
	PerChunk int    // Maximum number of records per chunk file.
}

// ChunkName returns the path of the i'th chunk, counting from zero.
func (o SplitOptions) ChunkName(i int) string {
	return filepath.Join(o.Dir, o.Prefix+"part"+strconv.Itoa(i+1)+o.Ext)
}

// ChunkPrefix returns the chunk name prefix for an input file: the two
// characters following the first "_" of a "_R" in its base name, and an
// underscore. Read files named like sample_R1.fastq give "R1_", names
// ending in "_R" give "R_" and names without "_R" give "".
func ChunkPrefix(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	i := strings.Index(base, "_R")
	if i < 0 {
		return ""
	}
	end := i + 3
	if end > len(base) {
		end = len(base)
	}
	return base[i+1:end] + "_"
}

// Split partitions the records of src into contiguous chunk files of at
// most o.PerChunk records, writing at most o.Chunks files, and returns
// the paths of the files written in order. Each chunk is written as
// FASTA under a temporary name and only appears under its final name
// once complete.
func Split(src string, o SplitOptions) (chunks []string, err error) {
	if o.Chunks < 1 || o.PerChunk < 1 {
		return nil, fmt.Errorf("seqfile: invalid split of %d chunks of %d records", o.Chunks, o.PerChunk)
	}
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return nil, &Error{Op: "mkdir", Path: o.Dir, Err: err}
	}

	var (
		cur *atomicFile
		n   int
	)
	defer func() {
		if err != nil && cur != nil {
			cur.abort()
		}
	}()
	err = Each(src, func(s seq.Sequence) error {
		if cur == nil || n == o.PerChunk {
			if cur != nil {
				if err := cur.commit(); err != nil {
					cur = nil
					return err
				}
				chunks = append(chunks, cur.path)
			}
			if len(chunks) == o.Chunks {
				cur = nil
				return &Error{Op: "split", Path: src, Err: fmt.Errorf("more than %d records", o.Chunks*o.PerChunk)}
			}
			var err error
			cur, err = create(o.ChunkName(len(chunks)))
			if err != nil {
				return err
			}
			n = 0
		}
		n++
		return cur.write(s)
	})
	if err != nil {
		return chunks, err
	}
	if cur != nil {
		if err = cur.commit(); err != nil {
			cur = nil
			return chunks, err
		}
		chunks = append(chunks, cur.path)
	}
	return chunks, nil
}
