package engine

import "fmt"

// UnknownNodeError is emitted as the node's error event (not returned to the
// scheduler) when a graph names a step with no registered handler —
// spec.md §4.5's "unknown node name emits error{...}".
type UnknownNodeError struct {
	Step string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node: %s", e.Step)
}
