package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/isndotbiz/spiritatlas/internal/credentials"
	"github.com/isndotbiz/spiritatlas/pkg/logging"
)

const (
	groqBaseURL       = "https://api.groq.com/openai/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
)

// openAICompatProvider serves every backend speaking the OpenAI chat
// completions wire format. Identity, model tiering, and confidence differ
// per backend; the transport is shared.
type openAICompatProvider struct {
	id         string
	baseURL    string
	confidence float64
	maxTokens  int
	modelFor   func(completedFields int) string
	creds      credentials.Store
	logger     *logging.Logger
}

// NewOpenAIProvider talks to api.openai.com.
func NewOpenAIProvider(creds credentials.Store, logger *logging.Logger) Provider {
	return newOpenAICompat(ProviderOpenAI, "", 0.93, 3000, func(completedFields int) string {
		switch {
		case completedFields >= 24:
			return openai.GPT4o
		case completedFields >= 10:
			return openai.GPT4oMini
		default:
			return openai.GPT3Dot5Turbo
		}
	}, creds, logger)
}

// NewGroqProvider talks to Groq's OpenAI-compatible endpoint.
func NewGroqProvider(creds credentials.Store, logger *logging.Logger) Provider {
	return newOpenAICompat(ProviderGroq, groqBaseURL, 0.88, 2000, func(completedFields int) string {
		if completedFields >= 20 {
			return "llama-3.3-70b-versatile"
		}
		return "llama-3.1-8b-instant"
	}, creds, logger)
}

// NewOpenRouterProvider talks to OpenRouter's OpenAI-compatible endpoint.
func NewOpenRouterProvider(creds credentials.Store, logger *logging.Logger) Provider {
	return newOpenAICompat(ProviderOpenRouter, openRouterBaseURL, 0.80, 2000, func(int) string {
		return "openai/gpt-3.5-turbo"
	}, creds, logger)
}

func newOpenAICompat(id, baseURL string, confidence float64, maxTokens int, modelFor func(int) string, creds credentials.Store, logger *logging.Logger) *openAICompatProvider {
	if creds == nil {
		panic("enrichment: credential store is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &openAICompatProvider{
		id:         id,
		baseURL:    baseURL,
		confidence: confidence,
		maxTokens:  maxTokens,
		modelFor:   modelFor,
		creds:      creds,
		logger:     logger,
	}
}

func (p *openAICompatProvider) Available() bool {
	cred, ok := p.creds.Get(p.id)
	return ok && cred.Valid()
}

func (p *openAICompatProvider) GenerateEnrichment(ctx context.Context, ec Context) (Result, error) {
	text, err := p.complete(ctx, SystemPrompt(), EnrichmentPrompt(ec), ec.CompletedFields)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text, Confidence: p.confidence}, nil
}

func (p *openAICompatProvider) complete(ctx context.Context, system, userPrompt string, completedFields int) (string, error) {
	cred, ok := p.creds.Get(p.id)
	if !ok || !cred.Valid() {
		return "", configurationError(p.id, "api key")
	}

	cfg := openai.DefaultConfig(cred.APIKey)
	if p.baseURL != "" {
		cfg.BaseURL = p.baseURL
	}
	client := openai.NewClientWithConfig(cfg)

	model := p.modelFor(completedFields)
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   p.maxTokens,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", p.mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", emptyResponseError(p.id)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", emptyResponseError(p.id)
	}
	p.logger.Debug("chat completion", "provider", p.id, "model", model,
		"prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens)
	return text, nil
}

// mapError folds go-openai error types into the shared taxonomy.
func (p *openAICompatProvider) mapError(err error) *ProviderError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return errorFromStatus(p.id, apiErr.HTTPStatusCode, fmt.Sprint(apiErr.Message), "")
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return errorFromStatus(p.id, reqErr.HTTPStatusCode, reqErr.Error(), "")
	}
	return transportError(p.id, err)
}
