// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/check.v1"

	"github.com/biogo/igqc/igblast"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

func parse(c *check.C, args ...string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("igqc", pflag.ContinueOnError)
	addFlags(fs)
	c.Assert(fs.Parse(args), check.IsNil)
	return fs
}

func (s *S) TestLoadOptions(c *check.C) {
	dir := c.MkDir()
	conf := filepath.Join(dir, "igqc.yaml")
	c.Assert(os.WriteFile(conf, []byte(`
database: /germlines
chain: kv
seqsperfile: 500
primer: 120
top: 20
bitscore: 150.5-400
`), 0o644), check.IsNil)

	os.Setenv("IGQC_TOP", "50")
	os.Setenv("IGQC_ALIGNLEN", "90")
	defer os.Unsetenv("IGQC_TOP")
	defer os.Unsetenv("IGQC_ALIGNLEN")

	v, err := newViper(parse(c, "-f", "reads/sample_R1.fastq", "-y", conf, "--seqsperfile", "1000", "-t", "3"))
	c.Assert(err, check.IsNil)
	o, err := loadOptions(v)
	c.Assert(err, check.IsNil)
	c.Check(o, check.DeepEquals, options{
		File1:       "reads/sample_R1.fastq",
		Outdir:      ".",
		Name:        "sample",
		Threads:     3,
		SeqsPerFile: 1000,
		Primer:      120,
		Top:         50,
		Chain:       igblast.Kappa,
		Domain:      "imgt",
		Database:    "/germlines",
		Organism:    "human",
		IgBlastn:    "igblastn",
		Thresholds: igblast.Thresholds{
			VScore:        igblast.Range{Min: 150.5, Max: 400},
			GermlineStart: igblast.Unbounded(1),
			QueryStart:    igblast.Unbounded(1),
			VLength:       igblast.Unbounded(90),
		},
		LogLevel:    logrus.InfoLevel,
	})
}

func (s *S) TestLoadOptionsErrors(c *check.C) {
	for i, t := range []struct {
		args []string
		want string
	}{
		{args: nil, want: "igqc: no input file"},
		{args: []string{"-f", "r.fa"}, want: "igqc: no germline database directory"},
		{args: []string{"-f", "r.fa", "--database", "db", "-t", "0"}, want: "igqc: invalid number of threads: 0"},
		{args: []string{"-f", "r.fa", "--database", "db", "--seqsperfile", "0"}, want: "igqc: invalid number of sequences per file: 0"},
		{args: []string{"-f", "r.fa", "--database", "db", "--domain", "eu"}, want: `igqc: unknown domain system "eu"`},
		{args: []string{"-f", "r.fa", "--database", "db", "--chain", "tv"}, want: `igblast: unknown chain "tv"`},
		{args: []string{"-f", "r.fa", "--database", "db", "--sstart", "5-2"}, want: `igqc: sstart: igblast: invalid range "5-2"`},
		{args: []string{"-f", "r.fa", "--database", "db", "-b", "high"}, want: `igqc: bitscore: igblast: invalid range "high"`},
		{args: []string{"-f", "r.fa", "--database", "db", "--log-level", "loud"}, want: `igqc: not a valid logrus Level: "loud"`},
	} {
		v, err := newViper(parse(c, t.args...))
		c.Assert(err, check.IsNil, check.Commentf("Test %d", i))
		_, err = loadOptions(v)
		c.Check(err, check.ErrorMatches, t.want, check.Commentf("Test %d", i))
	}

	_, err := newViper(parse(c, "-y", filepath.Join(c.MkDir(), "missing.yaml")))
	c.Check(err, check.ErrorMatches, "igqc: reading configuration: .*")
}

func (s *S) TestSampleName(c *check.C) {
	for i, t := range []struct {
		path, want string
	}{
		{path: "/data/sample_R1.fastq", want: "sample"},
		{path: "PBMC_Run3_R2.fasta", want: "PBMC_Run3"},
		{path: "reads.fa", want: "reads"},
		{path: "_R1.fq", want: "_R1"},
	} {
		c.Check(sampleName(t.path), check.Equals, t.want, check.Commentf("Test %d", i))
	}
}

func (s *S) TestTopLabel(c *check.C) {
	c.Check(topLabel(0, 10), check.Equals, "all")
	c.Check(topLabel(100, 10), check.Equals, "10")
	c.Check(topLabel(5, 10), check.Equals, "5")
}

// fakeIgBlastn writes an AIRR table assigning ARDY to even numbered
// reads and ARGGY to odd numbered reads, leaving bad* reads unassigned.
const fakeIgBlastn = `#!/bin/sh
while [ $# -gt 0 ]; do
	case "$1" in
	-query) q="$2"; shift ;;
	-out) o="$2"; shift ;;
	esac
	shift
done
printf 'sequence_id\tlocus\tv_call\tv_score\tv_sequence_start\tv_sequence_end\tv_germline_start\tcdr3\tcdr3_aa\n' > "$o"
grep '^>' "$q" | sed -e 's/^>//' -e 's/ .*//' | while read id; do
	case "$id" in
	bad*) printf '%s\t\t\t\t\t\t\t\t\n' "$id" ;;
	*[02468]) printf '%s\tIGH\tIGHV1-2*02\t250\t1\t296\t1\tGCGAGAGATTAC\tARDY\n' "$id" ;;
	*) printf '%s\tIGH\tIGHV3-23*01\t240\t1\t290\t1\tGCGAGAGGCGGCTAC\tARGGY\n' "$id" ;;
	esac
done >> "$o"
`

func (s *S) TestAnnotateCommand(c *check.C) {
	dir := c.MkDir()
	script := filepath.Join(dir, "igblastn")
	c.Assert(os.WriteFile(script, []byte(fakeIgBlastn), 0o755), check.IsNil)

	var b strings.Builder
	for _, id := range []string{"seq0", "seq1", "seq2", "seq3", "seq4", "bad5"} {
		fmt.Fprintf(&b, ">%s\nGAGGTGCAGCTGGTGGAGTCTGGG\n", id)
	}
	input := filepath.Join(dir, "donor_R1.fasta")
	c.Assert(os.WriteFile(input, []byte(b.String()), 0o644), check.IsNil)
	out := c.MkDir()

	var stderr bytes.Buffer
	root := rootCommand()
	root.SetErr(&stderr)
	root.SetOut(&stderr)
	root.SetArgs([]string{
		"annotate",
		"-f", input,
		"-o", out,
		"-t", "2",
		"--seqsperfile", "2",
		"--database", dir,
		"--igblastn", script,
	})
	c.Assert(root.Execute(), check.IsNil, check.Commentf("%s", stderr.String()))
	c.Check(stderr.String(), check.Matches, `(?s).*run=[0-9a-f-]{36}.*`)

	work := filepath.Join(out, "donor")
	table, err := os.ReadFile(filepath.Join(work, "donor_igblast.tsv"))
	c.Assert(err, check.IsNil)
	lines := strings.Split(strings.TrimSpace(string(table)), "\n")
	c.Check(lines, check.HasLen, 6)
	c.Check(strings.HasPrefix(lines[1], "seq0\tIGH\tIGHV1-2*02\t"), check.Equals, true)

	filtered, err := os.ReadFile(filepath.Join(work, "donor_filtered.txt"))
	c.Assert(err, check.IsNil)
	c.Check(string(filtered), check.Equals, "bad5\n")

	over, err := os.ReadFile(filepath.Join(work, "clonotypes", "donor_cdr3_clonotypes_2_over.csv"))
	c.Assert(err, check.IsNil)
	c.Check(string(over), check.Equals, "Clonotype,Count,Percentage (%)\nARDY,3,60.000\nARGGY,2,40.000\n")
	under, err := os.ReadFile(filepath.Join(work, "clonotypes", "donor_cdr3_clonotypes_2_under.csv"))
	c.Assert(err, check.IsNil)
	c.Check(string(under), check.Equals, "Clonotype,Count,Percentage (%)\nARGGY,2,40.000\nARDY,3,60.000\n")

	for _, name := range []string{
		"spectratypes/donor_cdr3_spectratype.png",
		"spectratypes/donor_cdr3_spectratype_no_outliers.png",
		"diversity/donor_cdr_duplication.png",
		"diversity/donor_cdr_rarefaction.png",
		"diversity/donor_cdr_recapture.png",
		"diversity/donor_cdr_v_duplication.png",
		"diversity/donor_cdr_v_rarefaction.png",
		"diversity/donor_cdr_v_recapture.png",
	} {
		_, err = os.Stat(filepath.Join(work, filepath.FromSlash(name)))
		c.Check(err, check.IsNil, check.Commentf("%s", name))
	}
	_, err = os.Stat(filepath.Join(work, "diversity", "donor_fr_rarefaction.png"))
	c.Check(os.IsNotExist(err), check.Equals, true)

	f, err := os.Open(filepath.Join(work, "diversity", "donor_clonotype_diversity_region_analysis.csv.gz"))
	c.Assert(err, check.IsNil)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	c.Assert(err, check.IsNil)
	regions, err := io.ReadAll(gz)
	c.Assert(err, check.IsNil)
	c.Check(string(regions), check.Equals, "cdr3,count,cdr1,cdr2,fr1,fr2,fr3,fr4\nARDY,3,0,0,0,0,0,0\nARGGY,2,0,0,0,0,0,0\n")
	_, err = os.Stat(filepath.Join(work, "tmp"))
	c.Check(os.IsNotExist(err), check.Equals, true)
}

func (s *S) TestAnnotateCommandThresholds(c *check.C) {
	dir := c.MkDir()
	script := filepath.Join(dir, "igblastn")
	c.Assert(os.WriteFile(script, []byte(fakeIgBlastn), 0o755), check.IsNil)

	var b strings.Builder
	for _, id := range []string{"seq0", "seq1", "seq2", "seq3"} {
		fmt.Fprintf(&b, ">%s\nGAGGTGCAGCTGGTGGAGTCTGGG\n", id)
	}
	input := filepath.Join(dir, "donor_R1.fasta")
	c.Assert(os.WriteFile(input, []byte(b.String()), 0o644), check.IsNil)
	out := c.MkDir()

	var stderr bytes.Buffer
	root := rootCommand()
	root.SetErr(&stderr)
	root.SetOut(&stderr)
	root.SetArgs([]string{
		"annotate",
		"-f", input,
		"-o", out,
		"-t", "2",
		"--seqsperfile", "2",
		"--database", dir,
		"--igblastn", script,
		"--bitscore", "245-300",
	})
	c.Assert(root.Execute(), check.IsNil, check.Commentf("%s", stderr.String()))

	work := filepath.Join(out, "donor")
	filtered, err := os.ReadFile(filepath.Join(work, "donor_filtered.txt"))
	c.Assert(err, check.IsNil)
	ids := strings.Fields(string(filtered))
	sort.Strings(ids)
	c.Check(ids, check.DeepEquals, []string{"seq1", "seq3"})
	over, err := os.ReadFile(filepath.Join(work, "clonotypes", "donor_cdr3_clonotypes_1_over.csv"))
	c.Assert(err, check.IsNil)
	c.Check(string(over), check.Equals, "Clonotype,Count,Percentage (%)\nARDY,2,100.000\n")
}

func (s *S) TestAnnotateCommandFailure(c *check.C) {
	dir := c.MkDir()
	script := filepath.Join(dir, "igblastn")
	c.Assert(os.WriteFile(script, []byte("#!/bin/sh\necho 'germline database not found' >&2\nexit 1\n"), 0o755), check.IsNil)
	input := filepath.Join(dir, "reads.fasta")
	c.Assert(os.WriteFile(input, []byte(">r1\nACGT\n>r2\nACGT\n>r3\nACGT\n"), 0o644), check.IsNil)

	var stderr bytes.Buffer
	root := rootCommand()
	root.SetErr(&stderr)
	root.SetOut(&stderr)
	root.SetArgs([]string{"annotate", "-f", input, "-o", c.MkDir(), "-t", "3", "--seqsperfile", "1", "--database", dir, "--igblastn", script})
	err := root.Execute()
	c.Assert(err, check.NotNil)
	c.Check(err, check.ErrorMatches, `annotate: worker \d: igblast: alignment of ".*part\d\.fasta" failed: exit status 1: germline database not found`)
}

func (s *S) TestStatsCommand(c *check.C) {
	dir := c.MkDir()
	input := filepath.Join(dir, "lib_R1.fasta")
	c.Assert(os.WriteFile(input, []byte(">a\nACGTACGT\n>b\nACGTA\n>c\nACG\n>d\nACGTA\n>e\nACGTACGTAC\n"), 0o644), check.IsNil)

	var out bytes.Buffer
	root := rootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"stats", "--plot", dir, input})
	c.Assert(root.Execute(), check.IsNil, check.Commentf("%s", out.String()))
	c.Check(out.String(), check.Equals, input+"\n"+
		"\treads:\t5\n"+
		"\tbases:\t31\n"+
		"\tmin:\t3\n"+
		"\tmax:\t10\n"+
		"\tmean:\t6.2\n"+
		"\tN50:\t8\n")
	_, err := os.Stat(filepath.Join(dir, "lib_length_distribution.png"))
	c.Check(err, check.IsNil)
}

func (s *S) TestVersion(c *check.C) {
	var out bytes.Buffer
	root := rootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	c.Assert(root.Execute(), check.IsNil)
	c.Check(strings.HasPrefix(out.String(), "igqc version "+version+"\n"), check.Equals, true)
}
