// Package router chooses a model for a node dispatch and exposes the
// provider pool those choices are dialed against.
package router

import "github.com/overseerhq/overseer/registry"

// largeModel is dispatched for high token needs or steps that warrant the
// strongest model regardless of size.
const largeModel = "gpt-4.1"
const smallModel = "small-fast"

// criticalSteps always route to the large model, independent of tokens_needed.
var criticalSteps = map[string]bool{
	"aggregator": true,
	"react":      true,
}

// Decision is the outcome of a routing choice, recorded verbatim under
// "model" in the context_compiled event data.
type Decision struct {
	Model   string  `json:"model"`
	Tokens  int     `json:"tokens"`
	CostUSD float64 `json:"cost_usd"`
	Step    string  `json:"step"`
}

// ChooseModel is a pure function of (tokensNeeded, step, pool): pool.Routing
// rules are consulted first in order, the first matching rule's UseModel wins;
// absent a match, the default rule applies large model above 60,000 tokens
// or for a critical step, small model otherwise.
func ChooseModel(tokensNeeded int, step string, pool registry.ProviderPool) Decision {
	model := chooseModelName(tokensNeeded, step, pool)
	return Decision{
		Model:   model,
		Tokens:  tokensNeeded,
		CostUSD: costFor(model, pool),
		Step:    step,
	}
}

func chooseModelName(tokensNeeded int, step string, pool registry.ProviderPool) string {
	for _, rule := range pool.Routing {
		if rule.WhenStep != "" && rule.WhenStep != step {
			continue
		}
		if rule.WhenMinTokens > 0 && tokensNeeded < rule.WhenMinTokens {
			continue
		}
		return rule.UseModel
	}

	if tokensNeeded > 60000 || criticalSteps[step] {
		return largeModel
	}
	return smallModel
}

func costFor(modelName string, pool registry.ProviderPool) float64 {
	for _, m := range pool.Models {
		if m.Name == modelName {
			return m.Cost
		}
	}
	return 0
}
