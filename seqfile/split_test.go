// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seqfile

import (
	"os"
	"path/filepath"

	"github.com/biogo/biogo/seq"
	"gopkg.in/check.v1"
)

func (s *S) TestSplitCoverage(c *check.C) {
	for i, t := range []struct {
		records  int
		chunks   int
		perChunk int
		sizes    []int
	}{
		{records: 10, chunks: 4, perChunk: 3, sizes: []int{3, 3, 3, 1}},
		{records: 9, chunks: 3, perChunk: 3, sizes: []int{3, 3, 3}},
		{records: 50, chunks: 5, perChunk: 12, sizes: []int{12, 12, 12, 12, 2}},
		{records: 1, chunks: 4, perChunk: 100, sizes: []int{1}},
	} {
		dir := c.MkDir()
		src := writeFasta(c, dir, t.records)
		want, err := IDs(src)
		c.Assert(err, check.IsNil)

		o := SplitOptions{Dir: filepath.Join(dir, "tmp"), Ext: ".fasta", Chunks: t.chunks, PerChunk: t.perChunk}
		chunks, err := Split(src, o)
		c.Assert(err, check.IsNil, check.Commentf("Test %d", i))
		c.Assert(chunks, check.HasLen, len(t.sizes), check.Commentf("Test %d", i))

		var got []string
		seen := make(map[string]bool)
		for j, chunk := range chunks {
			c.Check(chunk, check.Equals, o.ChunkName(j))
			ids, err := IDs(chunk)
			c.Assert(err, check.IsNil)
			c.Check(ids, check.HasLen, t.sizes[j], check.Commentf("Test %d chunk %d", i, j))
			for _, id := range ids {
				c.Check(seen[id], check.Equals, false, check.Commentf("Test %d: duplicate %s", i, id))
				seen[id] = true
			}
			got = append(got, ids...)
		}
		c.Check(got, check.DeepEquals, want, check.Commentf("Test %d", i))
	}
}

func (s *S) TestSplitPreservesRecords(c *check.C) {
	dir := c.MkDir()
	src := writeFasta(c, dir, 4)
	chunks, err := Split(src, SplitOptions{Dir: filepath.Join(dir, "tmp"), Prefix: "R1_", Ext: ".fasta", Chunks: 2, PerChunk: 2})
	c.Assert(err, check.IsNil)
	c.Check(filepath.Base(chunks[0]), check.Equals, "R1_part1.fasta")
	c.Assert(Each(chunks[1], func(s seq.Sequence) error {
		c.Check(letters(s), check.Equals, "ACGTACGTACGGTTAA")
		c.Check(s.Description(), check.Equals, "sample read")
		return nil
	}), check.IsNil)
}

func (s *S) TestSplitOverflow(c *check.C) {
	dir := c.MkDir()
	src := writeFasta(c, dir, 5)
	chunks, err := Split(src, SplitOptions{Dir: filepath.Join(dir, "tmp"), Ext: ".fasta", Chunks: 2, PerChunk: 2})
	c.Check(err, check.NotNil)
	c.Check(chunks, check.HasLen, 2)
}

// malformedFastq holds two good records followed by one whose quality
// line is shorter than its sequence.
const malformedFastq = "@a\nACGT\n+\nIIII\n@b\nACGT\n+\nIIII\n@c\nACGT\n+\nII\n@d\nACGT\n+\nIIII\n"

func (s *S) TestSplitMalformed(c *check.C) {
	for i, t := range []struct {
		perChunk int
		ids      []string
	}{
		{perChunk: 1, ids: []string{"a"}},
		{perChunk: 2, ids: nil},
		{perChunk: 3, ids: nil},
	} {
		dir := c.MkDir()
		src := filepath.Join(dir, "reads_R1.fastq")
		c.Assert(os.WriteFile(src, []byte(malformedFastq), 0o644), check.IsNil)
		tmp := filepath.Join(dir, "tmp")

		chunks, err := Split(src, SplitOptions{Dir: tmp, Prefix: "R1_", Ext: ".fasta", Chunks: 4, PerChunk: t.perChunk})
		c.Check(err, check.ErrorMatches, ".*sequence/quality length mismatch", check.Commentf("Test %d", i))

		partial, err := filepath.Glob(filepath.Join(tmp, "*.partial"))
		c.Assert(err, check.IsNil)
		c.Check(partial, check.HasLen, 0, check.Commentf("Test %d", i))

		// Only committed chunks remain, and each holds complete records.
		names, err := filepath.Glob(filepath.Join(tmp, "*"))
		c.Assert(err, check.IsNil)
		c.Check(names, check.DeepEquals, chunks, check.Commentf("Test %d", i))
		var got []string
		for _, chunk := range chunks {
			c.Assert(Each(chunk, func(s seq.Sequence) error {
				c.Check(letters(s), check.Equals, "ACGT", check.Commentf("Test %d", i))
				got = append(got, s.Name())
				return nil
			}), check.IsNil, check.Commentf("Test %d", i))
		}
		c.Check(got, check.DeepEquals, t.ids, check.Commentf("Test %d", i))
	}
}

func (s *S) TestSplitInvalid(c *check.C) {
	_, err := Split("unused", SplitOptions{Dir: c.MkDir(), Chunks: 0, PerChunk: 1})
	c.Check(err, check.ErrorMatches, "seqfile: invalid split .*")
}

func (s *S) TestChunkPrefix(c *check.C) {
	for i, t := range []struct {
		path string
		want string
	}{
		{path: "/data/sample_R1_001.fastq", want: "R1_"},
		{path: "sample_R2.fasta", want: "R2_"},
		{path: "sample.fasta", want: ""},
		{path: "x_R.fasta", want: "R_"},
		{path: "lib_Run2_R1.fq", want: "Ru_"},
		{path: "_R1.fasta", want: "R1_"},
	} {
		c.Check(ChunkPrefix(t.path), check.Equals, t.want, check.Commentf("Test %d", i))
	}
}
