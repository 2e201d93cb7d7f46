// Copyright 2024 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"fmt"
)

// MissingTerminatorError is returned when an instruction range falls
// into a branch target, or runs off its end, without an intervening
// terminator. It is also returned, with the offset of the branching
// block, when a range ends in a conditional branch and so has no block
// to fall through to.
type MissingTerminatorError uint16

func (e MissingTerminatorError) Error() string {
	return fmt.Sprintf("parse: basic block at offset %d does not end in a terminator", uint16(e))
}

// UnknownBranchTargetError is returned when a branch references an
// offset that does not start a basic block of the same scope.
type UnknownBranchTargetError struct {
	Target uint16
	From   uint16
}

func (e UnknownBranchTargetError) Error() string {
	return fmt.Sprintf("parse: branch from block %d targets unknown offset %d", e.From, e.Target)
}

// BlockBoundsError is returned when a pushBlock carries an end offset
// outside the enclosing instruction range.
type BlockBoundsError struct {
	Start uint16
	Stop  uint16
}

func (e BlockBoundsError) Error() string {
	return fmt.Sprintf("parse: nested block [%d, %d) escapes its enclosing range", e.Start, e.Stop)
}
