// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// progressBar shows the number of aligned chunks and an estimate of the
// remaining time.
type progressBar struct {
	pbs *mpb.Progress
	bar *mpb.Bar

	durations chan time.Duration
	done      chan struct{}
}

func newProgressBar(w io.Writer) *progressBar {
	return &progressBar{pbs: mpb.New(mpb.WithWidth(40), mpb.WithOutput(w))}
}

// Start adds a bar of total chunks. It must be called at most once and
// before any call to ChunkDone.
func (p *progressBar) Start(total int) {
	p.bar = p.pbs.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("aligned chunks: ", decor.WC{W: len("aligned chunks: "), C: decor.DindentRight}),
			decor.Name("", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
			decor.EwmaETA(decor.ET_STYLE_GO, 10),
			decor.OnComplete(decor.Name(""), ". done"),
		),
	)
	p.durations = make(chan time.Duration, total)
	p.done = make(chan struct{})
	go func() {
		for t := range p.durations {
			p.bar.EwmaIncrBy(1, t)
		}
		close(p.done)
	}()
}

func (p *progressBar) ChunkDone(t time.Duration) { p.durations <- t }

// Wait stops the bar, abandoning it if the run did not complete, and
// waits for it to be rendered.
func (p *progressBar) Wait() {
	if p.bar != nil {
		close(p.durations)
		<-p.done
		if !p.bar.Completed() {
			p.bar.Abort(false)
		}
	}
	p.pbs.Wait()
}
