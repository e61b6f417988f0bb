package enrichment

import (
	"context"
	"fmt"

	"github.com/isndotbiz/spiritatlas/internal/usage"
	"github.com/isndotbiz/spiritatlas/pkg/logging"
)

// Mode says which backend branch the router may use.
type Mode string

const (
	ModeAuto       Mode = "auto"
	ModeClaude     Mode = "claude"
	ModeOpenAI     Mode = "openai"
	ModeGemini     Mode = "gemini"
	ModeGroq       Mode = "groq"
	ModeOpenRouter Mode = "openrouter"
	ModeBedrock    Mode = "bedrock"
	ModeLocal      Mode = "local"
)

// ParseMode normalizes a config string into a Mode, defaulting to auto.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeClaude, ModeOpenAI, ModeGemini, ModeGroq, ModeOpenRouter, ModeBedrock, ModeLocal:
		return Mode(s)
	default:
		return ModeAuto
	}
}

// autoChain is the fallback priority in auto mode: free-tier cloud first,
// paid cloud next, self-hosted last.
var autoChain = []string{
	ProviderGemini,
	ProviderGroq,
	ProviderOpenAI,
	ProviderClaude,
	ProviderBedrock,
	ProviderOpenRouter,
	ProviderOllama,
}

// pinned maps single-provider modes to their identity.
var pinned = map[Mode]string{
	ModeClaude:     ProviderClaude,
	ModeOpenAI:     ProviderOpenAI,
	ModeGemini:     ProviderGemini,
	ModeGroq:       ProviderGroq,
	ModeOpenRouter: ProviderOpenRouter,
	ModeBedrock:    ProviderBedrock,
	ModeLocal:      ProviderOllama,
}

// Router selects one provider per request from the registry, respecting
// availability and quota state. It never reinterprets a provider's error
// and never retries across providers within a single request.
type Router struct {
	registry *Registry
	tracker  *usage.Tracker
	mode     Mode
	logger   *logging.Logger
}

func NewRouter(registry *Registry, tracker *usage.Tracker, mode Mode, logger *logging.Logger) *Router {
	if registry == nil {
		panic("enrichment: registry is required")
	}
	if tracker == nil {
		tracker = usage.NewTracker()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Router{registry: registry, tracker: tracker, mode: mode, logger: logger}
}

// Mode returns the configured routing mode.
func (r *Router) Mode() Mode { return r.mode }

// Pick chooses the provider for the next request. Deterministic: the same
// registry and tracker state always yields the same choice.
func (r *Router) Pick() (Provider, string, error) {
	if id, ok := pinned[r.mode]; ok {
		return r.pickPinned(id)
	}
	return r.pickAuto()
}

func (r *Router) pickPinned(id string) (Provider, string, error) {
	p, ok := r.registry.Get(id)
	if !ok || !p.Available() {
		return nil, "", &ProviderError{
			Provider: id,
			Kind:     KindConfiguration,
			Err:      fmt.Errorf("provider %s is not available", id),
		}
	}
	if !r.tracker.Allow(id) {
		r.tracker.RecordThrottled(id)
		return nil, "", &ProviderError{
			Provider:   id,
			Kind:       KindRateLimited,
			RetryAfter: r.tracker.WaitTime(id),
			Err:        fmt.Errorf("quota exhausted, %s", usage.FormatWait(r.tracker.WaitTime(id))),
		}
	}
	return p, id, nil
}

func (r *Router) pickAuto() (Provider, string, error) {
	// First pass skips throttled providers; a second pass accepts them as
	// last resort so a long wait beats an outright failure.
	var throttled []string
	for _, id := range autoChain {
		p, ok := r.registry.Get(id)
		if !ok || !p.Available() {
			continue
		}
		if !r.tracker.Allow(id) {
			throttled = append(throttled, id)
			continue
		}
		return p, id, nil
	}
	for _, id := range throttled {
		p, ok := r.registry.Get(id)
		if !ok {
			continue
		}
		r.logger.Warn("all providers throttled, using rate-limited fallback",
			"provider", id, "wait", usage.FormatWait(r.tracker.WaitTime(id)))
		return p, id, nil
	}
	return nil, "", &ProviderError{
		Provider: "router",
		Kind:     KindConfiguration,
		Err:      fmt.Errorf("no AI provider available"),
	}
}

// Generate routes one enrichment request. On success the call is recorded
// against the chosen provider's quota; the provider's error is otherwise
// propagated unchanged.
func (r *Router) Generate(ctx context.Context, ec Context) (Result, string, error) {
	p, id, err := r.Pick()
	if err != nil {
		return Result{}, "", err
	}
	res, err := p.GenerateEnrichment(ctx, ec)
	if err != nil {
		return Result{}, id, err
	}
	r.tracker.Record(id)
	return res, id, nil
}

// complete routes an arbitrary prompt through the selected provider. Used
// by the service for daily insights and follow-up questions.
func (r *Router) complete(ctx context.Context, system, userPrompt string, completedFields int) (string, string, error) {
	p, id, err := r.Pick()
	if err != nil {
		return "", "", err
	}
	c, ok := p.(completer)
	if !ok {
		return "", id, &ProviderError{
			Provider: id,
			Kind:     KindConfiguration,
			Err:      fmt.Errorf("provider %s does not support raw completion", id),
		}
	}
	text, err := c.complete(ctx, system, userPrompt, completedFields)
	if err != nil {
		return "", id, err
	}
	r.tracker.Record(id)
	return text, id, nil
}
