// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seqfile

import (
	"sort"

	"github.com/biogo/biogo/seq"
)

// Stats holds the length statistics of the records in a sequence file.
// Lengths are in letters.
type Stats struct {
	Records int
	Bases   int
	Min     int
	Max     int
	Mean    float64
	N50     int

	Lengths map[int]int // Number of records of each length.
}

// ReadStats returns the length statistics of the named file.
func ReadStats(path string) (Stats, error) {
	st := Stats{Lengths: make(map[int]int)}
	err := Each(path, func(s seq.Sequence) error {
		n := s.Len()
		if st.Records == 0 || n < st.Min {
			st.Min = n
		}
		if n > st.Max {
			st.Max = n
		}
		st.Records++
		st.Bases += n
		st.Lengths[n]++
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	if st.Records == 0 {
		return st, nil
	}
	st.Mean = float64(st.Bases) / float64(st.Records)

	// N50 is the length at which the longest records first cover half
	// of all bases.
	lens := make([]int, 0, len(st.Lengths))
	for l := range st.Lengths {
		lens = append(lens, l)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(lens)))
	var csum int
	for _, l := range lens {
		csum += l * st.Lengths[l]
		if 2*csum >= st.Bases {
			st.N50 = l
			break
		}
	}
	return st, nil
}
