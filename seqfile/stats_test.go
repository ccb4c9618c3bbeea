// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seqfile

import (
	"os"
	"path/filepath"

	"gopkg.in/check.v1"
)

func (s *S) TestReadStats(c *check.C) {
	dir := c.MkDir()
	for i, t := range []struct {
		data string
		want Stats
	}{
		{
			data: ">a\nACGTACGT\n>b\nACGTA\n>c\nACG\n>d\nACGTA\n>e\nACGTACGTAC\n",
			want: Stats{
				Records: 5, Bases: 31, Min: 3, Max: 10, Mean: 6.2, N50: 8,
				Lengths: map[int]int{3: 1, 5: 2, 8: 1, 10: 1},
			},
		},
		{
			data: "@a\nACGTAC\n+\nIIIIII\n",
			want: Stats{
				Records: 1, Bases: 6, Min: 6, Max: 6, Mean: 6, N50: 6,
				Lengths: map[int]int{6: 1},
			},
		},
		{
			data: "",
			want: Stats{Lengths: map[int]int{}},
		},
	} {
		path := filepath.Join(dir, "reads")
		c.Assert(os.WriteFile(path, []byte(t.data), 0o644), check.IsNil)
		st, err := ReadStats(path)
		c.Check(err, check.IsNil, check.Commentf("Test %d", i))
		c.Check(st, check.DeepEquals, t.want, check.Commentf("Test %d", i))
	}

	_, err := ReadStats(filepath.Join(dir, "missing"))
	c.Check(err, check.NotNil)
}
