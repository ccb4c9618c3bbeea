// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/biogo/igqc/annotate"
	"github.com/biogo/igqc/igblast"
)

// options are the settings of an annotate run. Each field is read from
// the flag of the same name, an IGQC_ environment variable or the YAML
// file given by --yaml, in that order of precedence.
type options struct {
	File1  string
	Outdir string
	Name   string

	Threads     int
	SeqsPerFile int
	Primer      int
	Top         int

	Chain     igblast.Chain
	Domain    string
	Database  string
	Organism  string
	Auxiliary string
	IgBlastn  string

	Thresholds igblast.Thresholds

	LogLevel logrus.Level
	Progress bool
}

func addFlags(fs *pflag.FlagSet) {
	fs.StringP("file1", "f", "", "input FASTA or FASTQ file")
	fs.StringP("outdir", "o", ".", "output directory")
	fs.StringP("name", "n", "", "sample name (default: derived from --file1)")
	fs.IntP("threads", "t", runtime.NumCPU(), "number of parallel workers")
	fs.Int("seqsperfile", annotate.DefaultSeqsPerFile, "maximum number of sequences per chunk file")
	fs.Int("primer", -1, "truncate sequences to this length before alignment (-1: off)")
	fs.Int("top", 100, "number of clonotypes to report (0: all)")
	fs.String("chain", string(igblast.Heavy), "chain type: hv, kv or lv")
	fs.String("domain", "imgt", "domain system: imgt or kabat")
	fs.String("database", "", "germline database directory")
	fs.String("organism", "human", "germline organism")
	fs.String("auxiliary", "", "igblastn auxiliary data file")
	fs.String("igblastn", "igblastn", "igblastn executable")
	fs.StringP("bitscore", "b", "0-inf", "inclusive V gene bit score range (min-max)")
	fs.String("sstart", "1-inf", "inclusive V gene germline start range (min-max)")
	fs.String("qstart", "1-inf", "inclusive V gene query start range (min-max)")
	fs.String("alignlen", "0-inf", "inclusive V gene alignment length range (min-max)")
	fs.String("log-level", "info", "log level")
	fs.Bool("progress", false, "show a progress bar")
	fs.StringP("yaml", "y", "", "YAML configuration file")
}

// newViper returns a viper instance bound to the flags in fs.
func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("igqc")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	if path := v.GetString("yaml"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("igqc: reading configuration: %w", err)
		}
	}
	return v, nil
}

func loadOptions(v *viper.Viper) (options, error) {
	o := options{
		File1:       v.GetString("file1"),
		Outdir:      v.GetString("outdir"),
		Name:        v.GetString("name"),
		Threads:     v.GetInt("threads"),
		SeqsPerFile: v.GetInt("seqsperfile"),
		Primer:      v.GetInt("primer"),
		Top:         v.GetInt("top"),
		Domain:      strings.ToLower(v.GetString("domain")),
		Database:    v.GetString("database"),
		Organism:    v.GetString("organism"),
		Auxiliary:   v.GetString("auxiliary"),
		IgBlastn:    v.GetString("igblastn"),
		Progress:    v.GetBool("progress"),
	}

	var err error
	if o.File1 == "" {
		return o, errors.New("igqc: no input file")
	}
	if o.Database == "" {
		return o, errors.New("igqc: no germline database directory")
	}
	if o.Threads < 1 {
		return o, fmt.Errorf("igqc: invalid number of threads: %d", o.Threads)
	}
	if o.SeqsPerFile < 1 {
		return o, fmt.Errorf("igqc: invalid number of sequences per file: %d", o.SeqsPerFile)
	}
	if o.Domain != "imgt" && o.Domain != "kabat" {
		return o, fmt.Errorf("igqc: unknown domain system %q", o.Domain)
	}
	if o.Chain, err = igblast.ParseChain(v.GetString("chain")); err != nil {
		return o, err
	}
	for _, r := range []struct {
		dst  *igblast.Range
		name string
	}{
		{&o.Thresholds.VScore, "bitscore"},
		{&o.Thresholds.GermlineStart, "sstart"},
		{&o.Thresholds.QueryStart, "qstart"},
		{&o.Thresholds.VLength, "alignlen"},
	} {
		if *r.dst, err = igblast.ParseRange(v.GetString(r.name)); err != nil {
			return o, fmt.Errorf("igqc: %s: %w", r.name, err)
		}
	}
	if o.LogLevel, err = logrus.ParseLevel(v.GetString("log-level")); err != nil {
		return o, fmt.Errorf("igqc: %w", err)
	}
	if o.Name == "" {
		o.Name = sampleName(o.File1)
	}
	return o, nil
}

// sampleName returns the sample name implied by a read file name,
// sample_R1.fastq giving sample.
func sampleName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.LastIndex(base, "_R"); i > 0 {
		base = base[:i]
	}
	return base
}

func (o options) aligner() *igblast.Aligner {
	return &igblast.Aligner{
		Cmd: o.IgBlastn,
		DB: igblast.Database{
			Dir:      o.Database,
			Organism: o.Organism,
			Chain:    o.Chain,
		},
		Domain:  o.Domain,
		AuxData: o.Auxiliary,
		Thresholds: o.Thresholds,
	}
}
