// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package annotate

import (
	"fmt"

	"github.com/biogo/igqc/annot"
)

// TaskKind distinguishes work from shutdown requests on the task queue.
type TaskKind int

const (
	Chunk TaskKind = iota // Align the chunk file at Path.
	Stop                  // Exit after signalling the dispatcher.
)

func (k TaskKind) String() string {
	switch k {
	case Chunk:
		return "chunk"
	case Stop:
		return "stop"
	}
	return fmt.Sprintf("TaskKind(%d)", int(k))
}

// Task is a unit of work taken by a worker.
type Task struct {
	Kind TaskKind
	Path string
}

// Outcome is the result of aligning one chunk. Table is nil when the
// chunk gave no annotated records; Filtered still lists its queries.
type Outcome struct {
	Chunk    string
	Table    *annot.Table
	Filtered []string
}

// ExitSignal is sent once by each worker as it stops. A non-nil Err
// reports that the worker stopped because a chunk could not be aligned.
type ExitSignal struct {
	Worker int
	Err    error
}

// ExtraStops is the number of Stop tasks queued beyond one per worker.
const ExtraStops = 10
