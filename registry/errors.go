package registry

import "fmt"

// ValidationError covers registration-time failures: an unknown graph, a
// cycle in a graph's DAG, an edge endpoint missing from agents, or a
// malformed struct caught by tag validation. It is surfaced to the HTTP
// layer as a 4xx and is never recovered internally.
type ValidationError struct {
	Subject string // e.g. "graph", "policy", "context profile", "provider pool"
	Name    string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Subject, e.Name, e.Reason)
}
