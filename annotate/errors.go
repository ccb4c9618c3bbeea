// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package annotate

import "fmt"

// DispatchError is returned when a parallel run is abandoned. Err is the
// failure that caused it, typically an *igblast.AlignmentError.
type DispatchError struct {
	Op  string
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("annotate: %s: %v", e.Op, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
