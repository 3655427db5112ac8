package router

import (
	"fmt"
	"sync"

	"github.com/overseerhq/overseer/registry"
	"github.com/overseerhq/overseer/router/model"
)

// Pool binds a registry.ProviderPool's model catalog to live model.ChatModel
// adapters, so that a node handler that needs to actually call an LLM can
// dial the model ChooseModel picked by name. Binding is optional: a pool
// with no adapters registered still routes, it just can't be dialed.
type Pool struct {
	spec registry.ProviderPool

	mu       sync.RWMutex
	adapters map[string]model.ChatModel
}

// NewPool wraps a registry.ProviderPool for dialing. No adapters are bound
// until Bind is called for each model name the deployment wants to back
// with a real provider.
func NewPool(spec registry.ProviderPool) *Pool {
	return &Pool{spec: spec, adapters: make(map[string]model.ChatModel)}
}

// Spec returns the underlying registry.ProviderPool.
func (p *Pool) Spec() registry.ProviderPool {
	return p.spec
}

// Bind associates a model name in the pool's catalog with a live adapter.
// Bind does not validate modelName against the catalog: pools are expected
// to be extended with models that exist only as dial targets for testing.
func (p *Pool) Bind(modelName string, adapter model.ChatModel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.adapters[modelName] = adapter
}

// Dial returns the bound adapter for modelName, or an error if nothing has
// been bound to that name yet.
func (p *Pool) Dial(modelName string) (model.ChatModel, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	adapter, ok := p.adapters[modelName]
	if !ok {
		return nil, fmt.Errorf("router: no adapter bound for model %q", modelName)
	}
	return adapter, nil
}

// Choose runs ChooseModel against this pool's spec.
func (p *Pool) Choose(tokensNeeded int, step string) Decision {
	return ChooseModel(tokensNeeded, step, p.spec)
}
