package sta

// Tracer receives the verbose walk narration of the patcher and the
// propagator. Depth is the tree depth of the traced vertex; formatting and
// indentation belong to the implementation, not the engine.
type Tracer interface {
	Enabled() bool
	Tracef(depth int, format string, args ...any)
}

type nopTracer struct{}

func (nopTracer) Enabled() bool              { return false }
func (nopTracer) Tracef(int, string, ...any) {}

// Nop discards all trace output.
var Nop Tracer = nopTracer{}
