package journal

import "fmt"

// WriteError is returned when a durable journal append fails after the
// in-memory append already succeeded. The engine treats this as fatal for
// the run: the in-memory and durable views of history must never diverge.
type WriteError struct {
	RunID string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("journal: durable write failed for run %s: %v", e.RunID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
