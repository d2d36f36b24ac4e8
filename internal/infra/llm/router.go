// Package llm: provider router.
// Router selects a ChatProvider at request time and is itself a ChatProvider,
// so the chat client can hold a Router without knowing which vendor answers.
package llm

import (
	"context"
	"fmt"
	"sort"
)

// Router selects a ChatProvider for each request. It is immutable after
// NewRouter and safe for concurrent use.
type Router struct {
	providers       map[string]ChatProvider
	defaultProvider string
}

// NewRouter creates a Router with an initial set of providers and a default key.
func NewRouter(providers map[string]ChatProvider, defaultProvider string) *Router {
	// copy so the caller cannot mutate the internal map.
	ps := make(map[string]ChatProvider, len(providers))
	for k, v := range providers {
		ps[k] = v
	}
	return &Router{providers: ps, defaultProvider: defaultProvider}
}

// Route returns the provider for the current request: always the default one.
// Returns an error if the default provider is not registered.
func (r *Router) Route(_ context.Context) (ChatProvider, error) {
	p, ok := r.providers[r.defaultProvider]
	if !ok {
		return nil, fmt.Errorf("llm router: provider %q not registered (available: %v)", r.defaultProvider, r.keys())
	}
	return p, nil
}

// ChatCompletion delegates to the routed provider.
func (r *Router) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	p, err := r.Route(ctx)
	if err != nil {
		return nil, err
	}
	return p.ChatCompletion(ctx, req)
}

// ModelInfo reports the default provider's model, or an empty ModelMeta.
func (r *Router) ModelInfo() ModelMeta {
	p, err := r.Route(context.Background())
	if err != nil {
		return ModelMeta{}
	}
	return p.ModelInfo()
}

// HealthCheck checks the default provider.
func (r *Router) HealthCheck(ctx context.Context) error {
	p, err := r.Route(ctx)
	if err != nil {
		return err
	}
	return p.HealthCheck(ctx)
}

// keys returns the registered provider names, sorted, for error messages.
func (r *Router) keys() []string {
	out := make([]string, 0, len(r.providers))
	for k := range r.providers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
