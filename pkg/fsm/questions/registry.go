package questions

import (
	"fmt"
	"strings"
	"sync"
)

// Registry maps survey states to the strategy that serves them.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]QuestionStrategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]QuestionStrategy)}
}

// MustRegister binds strategy to state, panicking on nil or duplicate registration.
func (r *Registry) MustRegister(state string, strategy QuestionStrategy) {
	if strategy == nil {
		panic("cannot register nil strategy")
	}

	key := normalize(state)
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[key]; exists {
		panic(fmt.Sprintf("question strategy for state '%s' already registered", state))
	}
	r.strategies[key] = strategy
}

// Get returns the strategy for state, or nil when absent.
func (r *Registry) Get(state string) QuestionStrategy {
	key := normalize(state)
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.strategies[key]
}

func normalize(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}
