// Package sta is the timing engine: the netlist patcher that repairs a net's
// route tree against the placement data, and the Elmore delay propagator that
// walks every source-to-sink path of the repaired tree.
package sta

import "fmt"

// TopologyError reports a malformed route tree: an unknown segment kind, an
// invalid tree root, a terminal that cannot end a path, or a site pin with a
// direction outside input/output. It aborts analysis of the offending net
// only; other nets are unaffected.
type TopologyError struct {
	Net string
	msg string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("net %s: %s", e.Net, e.msg)
}

func topoErrf(net, format string, args ...any) *TopologyError {
	return &TopologyError{Net: net, msg: fmt.Sprintf(format, args...)}
}
