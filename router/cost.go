package router

import (
	"sync"
	"time"
)

// pricing holds input/output token cost for a model, in USD per 1M tokens.
type pricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// defaultPricing covers the models named in the default provider pool plus
// a few other common provider model names; a model absent from this table
// (including the anthropic adapter's default model) still records with
// zero cost rather than failing the call.
var defaultPricing = map[string]pricing{
	"small-fast": {InputPer1M: 0.15, OutputPer1M: 0.60},
	"gpt-4.1":    {InputPer1M: 15.00, OutputPer1M: 60.00},

	"gpt-4o":      {InputPer1M: 2.50, OutputPer1M: 10.00},
	"gpt-4o-mini": {InputPer1M: 0.15, OutputPer1M: 0.60},

	"claude-3-5-sonnet-20241022": {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-haiku-20240307":    {InputPer1M: 0.25, OutputPer1M: 1.25},

	"gemini-1.5-pro":   {InputPer1M: 1.25, OutputPer1M: 5.00},
	"gemini-1.5-flash": {InputPer1M: 0.075, OutputPer1M: 0.30},
}

// Call is one recorded LLM invocation.
type Call struct {
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	NodeID       string
	TS           time.Time
}

// CostTracker accumulates LLM spend for one run, attributed per model and
// per node; ExceedsBudget compares the total against a cap such as a
// policy's MaxCostUSD.
type CostTracker struct {
	mu      sync.Mutex
	pricing map[string]pricing
	calls   []Call
	total   float64
	now     func() time.Time
}

// NewCostTracker creates a tracker seeded with the default pricing table.
func NewCostTracker() *CostTracker {
	return &CostTracker{pricing: defaultPricing, now: time.Now}
}

// RecordCall records one LLM invocation and returns the incremental cost.
func (ct *CostTracker) RecordCall(modelName string, inputTokens, outputTokens int, nodeID string) float64 {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	p := ct.pricing[modelName]
	cost := (float64(inputTokens)/1_000_000.0)*p.InputPer1M + (float64(outputTokens)/1_000_000.0)*p.OutputPer1M

	ct.calls = append(ct.calls, Call{
		Model:        modelName,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      cost,
		NodeID:       nodeID,
		TS:           ct.now(),
	})
	ct.total += cost
	return cost
}

// TotalCost returns cumulative spend recorded so far.
func (ct *CostTracker) TotalCost() float64 {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.total
}

// ExceedsBudget reports whether total spend has passed maxCostUSD. A
// non-positive maxCostUSD means no budget is enforced.
func (ct *CostTracker) ExceedsBudget(maxCostUSD float64) bool {
	if maxCostUSD <= 0 {
		return false
	}
	return ct.TotalCost() > maxCostUSD
}

// Calls returns a copy of every recorded call, in order.
func (ct *CostTracker) Calls() []Call {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	out := make([]Call, len(ct.calls))
	copy(out, ct.calls)
	return out
}
