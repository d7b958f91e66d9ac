package llm

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNoProvider is returned when no configured provider can serve a request
var ErrNoProvider = errors.New("no language model provider configured")

// Router manages LLM providers and routing
type Router struct {
	providers       map[string]Provider
	defaultProvider string
	mu              sync.RWMutex
}

// NewRouter creates a new LLM router
func NewRouter(defaultProvider string) *Router {
	return &Router{
		providers:       make(map[string]Provider),
		defaultProvider: defaultProvider,
	}
}

// RegisterProvider registers an LLM provider
func (r *Router) RegisterProvider(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// GetProvider returns a provider by name. An empty name selects the default provider,
// or the first configured one when no default is set.
func (r *Router) GetProvider(name string) (Provider, error) {
	if name == "" {
		name = r.defaultProvider
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		for _, n := range r.sortedNames() {
			if p := r.providers[n]; p.IsConfigured() {
				return p, nil
			}
		}
		return nil, ErrNoProvider
	}

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s: %w", name, ErrNoProvider)
	}

	if !p.IsConfigured() {
		return nil, fmt.Errorf("provider not configured: %s: %w", name, ErrNoProvider)
	}

	return p, nil
}

// ListProviders returns the names of configured providers
func (r *Router) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := []string{}
	for _, name := range r.sortedNames() {
		if r.providers[name].IsConfigured() {
			providers = append(providers, name)
		}
	}
	return providers
}

// DefaultProvider returns the default provider name
func (r *Router) DefaultProvider() string {
	return r.defaultProvider
}

func (r *Router) sortedNames() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
