package main

import (
	"fmt"
	"io"
	"strings"
)

// writerTracer renders engine trace lines with one tab per tree depth. The
// engine hands over the depth explicitly; there is no shared indentation
// state, so traced nets stay readable even if workers are added later.
type writerTracer struct {
	w io.Writer
}

func (t writerTracer) Enabled() bool { return true }

func (t writerTracer) Tracef(depth int, format string, args ...any) {
	fmt.Fprintf(t.w, "%s%s\n", strings.Repeat("\t", depth), fmt.Sprintf(format, args...))
}
