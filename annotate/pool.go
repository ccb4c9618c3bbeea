// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package annotate

import (
	"context"
	"sync"
)

// pool runs a fixed set of workers sharing one cancellable context.
type pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newPool(ctx context.Context) *pool {
	p := &pool{}
	p.ctx, p.cancel = context.WithCancel(ctx)
	return p
}

func (p *pool) spawn(w *worker) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		w.run(p.ctx)
	}()
}

// Wait blocks until every worker has returned and releases the pool
// context.
func (p *pool) Wait() {
	p.wg.Wait()
	p.cancel()
}

// TerminateAll cancels every worker, killing any aligner subprocess
// started with the pool context, and waits for them to return.
func (p *pool) TerminateAll() {
	p.cancel()
	p.wg.Wait()
}
