// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package annotate

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// State is the position of a worker in its task loop.
type State int

const (
	Idle State = iota
	Fetching
	Processing
	Exiting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Processing:
		return "processing"
	case Exiting:
		return "exiting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type worker struct {
	id      int
	threads int

	aligner  Aligner
	progress Progress
	log      logrus.FieldLogger

	tasks   <-chan Task
	results chan<- Outcome
	exits   chan<- ExitSignal

	state State
}

func (w *worker) setState(s State) {
	w.log.WithField("state", s).Debugf("worker %d %v -> %v", w.id, w.state, s)
	w.state = s
}

// run takes tasks until it receives a Stop, fails to align a chunk or
// ctx is cancelled. Only the first two send an ExitSignal.
func (w *worker) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.exit(ctx, fmt.Errorf("annotate: worker %d panic: %v", w.id, r))
		}
	}()

	for {
		w.setState(Fetching)
		var t Task
		select {
		case <-ctx.Done():
			return
		case t = <-w.tasks:
		}
		if t.Kind == Stop {
			w.exit(ctx, nil)
			return
		}

		w.setState(Processing)
		start := time.Now()
		table, filtered, err := w.aligner.Align(ctx, t.Path, w.threads)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.exit(ctx, err)
			return
		}
		if table.Len() == 0 {
			table = nil
		}
		select {
		case <-ctx.Done():
			return
		case w.results <- Outcome{Chunk: t.Path, Table: table, Filtered: filtered}:
		}
		if w.progress != nil {
			w.progress.ChunkDone(time.Since(start))
		}
	}
}

func (w *worker) exit(ctx context.Context, err error) {
	w.setState(Exiting)
	select {
	case <-ctx.Done():
	case w.exits <- ExitSignal{Worker: w.id, Err: err}:
	}
}
