package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/isndotbiz/spiritatlas/pkg/logging"
)

const ollamaConfidence = 0.60

// OllamaProvider talks to a self-hosted Ollama instance. No credential is
// involved; availability means an endpoint is configured.
type OllamaProvider struct {
	httpClient *http.Client
	baseURL    string
	model      string
	logger     *logging.Logger
}

func NewOllamaProvider(baseURL, model string, logger *logging.Logger) *OllamaProvider {
	if model == "" {
		model = "llama3"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &OllamaProvider{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		logger:     logger,
	}
}

func (p *OllamaProvider) Available() bool {
	return p.baseURL != ""
}

func (p *OllamaProvider) GenerateEnrichment(ctx context.Context, ec Context) (Result, error) {
	text, err := p.complete(ctx, SystemPrompt(), EnrichmentPrompt(ec), ec.CompletedFields)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text, Confidence: ollamaConfidence}, nil
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (p *OllamaProvider) complete(ctx context.Context, system, userPrompt string, _ int) (string, error) {
	if p.baseURL == "" {
		return "", configurationError(ProviderOllama, "ollama endpoint")
	}

	body, err := json.Marshal(ollamaRequest{Model: p.model, Prompt: userPrompt, System: system})
	if err != nil {
		return "", transportError(ProviderOllama, fmt.Errorf("encode request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", transportError(ProviderOllama, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", transportError(ProviderOllama, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", transportError(ProviderOllama, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return "", errorFromStatus(ProviderOllama, resp.StatusCode, string(raw), resp.Header.Get("Retry-After"))
	}

	var decoded ollamaResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", &ProviderError{Provider: ProviderOllama, Kind: KindTransientServer, Err: fmt.Errorf("decode response: %w", err)}
	}
	text := strings.TrimSpace(decoded.Response)
	if text == "" {
		return "", emptyResponseError(ProviderOllama)
	}
	p.logger.Debug("ollama completion", "model", p.model)
	return text, nil
}
