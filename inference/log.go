// Copyright 2025 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inference

import (
	"io"
	"log"
	"os"
)

var logger = log.New(io.Discard, "", log.Lshortfile)

// SetDebugMode enables analyzer diagnostics on stderr.
func SetDebugMode(dbg bool) {
	w := io.Discard
	if dbg {
		w = os.Stderr
	}
	logger = log.New(w, "", log.Lshortfile)
}
