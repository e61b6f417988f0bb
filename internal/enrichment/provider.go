package enrichment

import (
	"context"
	"fmt"
	"sync"
)

// Stable provider identities. The router holds identities plus a lookup
// table, never concrete types, so adding a backend is a registration
// change only.
const (
	ProviderClaude     = "claude"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderGroq       = "groq"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderBedrock    = "bedrock"
)

// Provider is the contract every backend implements.
//
// GenerateEnrichment performs at most one outbound call and returns every
// expected failure mode as a *ProviderError rather than panicking or
// retrying internally. Available is a pure query of local credential and
// config state and never touches the network. An unavailable provider is
// still safe to call: GenerateEnrichment returns a configuration error.
type Provider interface {
	GenerateEnrichment(ctx context.Context, ec Context) (Result, error)
	Available() bool
}

// completer is the low-level single-call path concrete providers share in
// this package. The service uses it for daily insights and follow-ups,
// where the prompt is built by the caller instead of from a Context.
type completer interface {
	complete(ctx context.Context, system, userPrompt string, completedFields int) (string, error)
}

// Registry maps provider identities to implementations.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds or replaces a provider under its identity.
func (r *Registry) Register(id string, p Provider) {
	if p == nil {
		panic("enrichment: nil provider for " + id)
	}
	r.mu.Lock()
	r.providers[id] = p
	r.mu.Unlock()
}

// Get returns the provider for an identity.
func (r *Registry) Get(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// IDs returns the registered identities in unspecified order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}

func configurationError(provider, what string) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Kind:     KindConfiguration,
		Err:      fmt.Errorf("%s not configured", what),
	}
}

func emptyResponseError(provider string) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Kind:     KindEmptyResponse,
		Err:      fmt.Errorf("provider returned no usable content"),
	}
}

func transportError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindTransport, Err: err}
}
