package enrichment

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/isndotbiz/spiritatlas/internal/credentials"
	"github.com/isndotbiz/spiritatlas/pkg/logging"
)

const (
	geminiModel      = "gemini-2.0-flash-exp"
	geminiConfidence = 0.92
	geminiMaxOutput  = 4000
	geminiTopP       = 0.95
)

// GeminiProvider wraps Google's Gemini API. The experimental flash model
// keeps requests inside the free-tier quota the usage tracker enforces.
type GeminiProvider struct {
	creds  credentials.Store
	logger *logging.Logger
}

func NewGeminiProvider(creds credentials.Store, logger *logging.Logger) *GeminiProvider {
	if creds == nil {
		panic("enrichment: credential store is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &GeminiProvider{creds: creds, logger: logger}
}

func (p *GeminiProvider) Available() bool {
	cred, ok := p.creds.Get(ProviderGemini)
	return ok && cred.Valid()
}

func (p *GeminiProvider) GenerateEnrichment(ctx context.Context, ec Context) (Result, error) {
	text, err := p.complete(ctx, SystemPrompt(), EnrichmentPrompt(ec), ec.CompletedFields)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text, Confidence: geminiConfidence}, nil
}

func (p *GeminiProvider) complete(ctx context.Context, system, userPrompt string, _ int) (string, error) {
	cred, ok := p.creds.Get(ProviderGemini)
	if !ok || !cred.Valid() {
		return "", configurationError(ProviderGemini, "gemini api key")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cred.APIKey))
	if err != nil {
		return "", transportError(ProviderGemini, err)
	}
	defer client.Close()

	model := client.GenerativeModel(geminiModel)
	model.SetTemperature(0.7)
	model.SetTopP(geminiTopP)
	model.SetMaxOutputTokens(geminiMaxOutput)
	if strings.TrimSpace(system) != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", p.mapError(err)
	}
	if len(resp.Candidates) == 0 {
		return "", emptyResponseError(ProviderGemini)
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", emptyResponseError(ProviderGemini)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", emptyResponseError(ProviderGemini)
	}
	p.logger.Debug("gemini completion", "model", geminiModel, "finish_reason", candidate.FinishReason)
	return out, nil
}

func (p *GeminiProvider) mapError(err error) *ProviderError {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return errorFromStatus(ProviderGemini, apiErr.Code, apiErr.Message, "")
	}
	return transportError(ProviderGemini, err)
}
