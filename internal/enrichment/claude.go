package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/isndotbiz/spiritatlas/internal/credentials"
	"github.com/isndotbiz/spiritatlas/pkg/logging"
)

const (
	anthropicVersion = "2023-06-01"

	claudeConfidence = 0.95
	claudeMaxTokens  = 4000
	claudeTemp       = 0.7

	// OAuth token refresh is plumbed but not yet live; refresh attempts
	// return an error until the auth service ships.
	oauthRefreshAvailable = false
)

// ClaudeProvider talks to the Anthropic Messages API directly. It supports
// both API-key and OAuth bearer credentials; a 401 under OAuth clears the
// stored tokens so the caller is pushed back through login.
type ClaudeProvider struct {
	creds      credentials.Store
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
}

func NewClaudeProvider(creds credentials.Store, baseURL string, logger *logging.Logger) *ClaudeProvider {
	if creds == nil {
		panic("enrichment: credential store is required")
	}
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ClaudeProvider{
		creds:      creds,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		baseURL:    baseURL,
		logger:     logger,
	}
}

func (p *ClaudeProvider) Available() bool {
	cred, ok := p.creds.Get(ProviderClaude)
	return ok && cred.Valid()
}

// claudeModelFor steps through capability tiers as profiles get richer.
func claudeModelFor(completedFields int) string {
	switch {
	case completedFields >= 24:
		return "claude-opus-4-5"
	case completedFields >= 10:
		return "claude-sonnet-4-5"
	default:
		return "claude-haiku-4"
	}
}

func (p *ClaudeProvider) GenerateEnrichment(ctx context.Context, ec Context) (Result, error) {
	text, err := p.complete(ctx, SystemPrompt(), EnrichmentPrompt(ec), ec.CompletedFields)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text, Confidence: claudeConfidence}, nil
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (p *ClaudeProvider) complete(ctx context.Context, system, userPrompt string, completedFields int) (string, error) {
	cred, ok := p.creds.Get(ProviderClaude)
	if !ok || !cred.Valid() {
		return "", configurationError(ProviderClaude, "anthropic credential")
	}

	model := claudeModelFor(completedFields)
	body, err := json.Marshal(claudeRequest{
		Model:       model,
		MaxTokens:   claudeMaxTokens,
		Temperature: claudeTemp,
		System:      system,
		Messages:    []claudeMessage{{Role: "user", Content: userPrompt}},
	})
	if err != nil {
		return "", transportError(ProviderClaude, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", transportError(ProviderClaude, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("anthropic-version", anthropicVersion)
	switch cred.Mode {
	case credentials.ModeOAuth:
		req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	default:
		req.Header.Set("x-api-key", cred.APIKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", transportError(ProviderClaude, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", transportError(ProviderClaude, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized && cred.Mode == credentials.ModeOAuth {
			p.logger.Warn("clearing rejected oauth credential", "provider", ProviderClaude)
			p.creds.Clear(ProviderClaude)
		}
		return "", errorFromStatus(ProviderClaude, resp.StatusCode, string(raw), resp.Header.Get("Retry-After"))
	}

	var decoded claudeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", &ProviderError{Provider: ProviderClaude, Kind: KindTransientServer, Err: fmt.Errorf("decode response: %w", err)}
	}
	for _, block := range decoded.Content {
		if block.Type == "text" && block.Text != "" {
			p.logger.Debug("claude completion", "model", model, "stop_reason", decoded.StopReason)
			return block.Text, nil
		}
	}
	return "", emptyResponseError(ProviderClaude)
}

// RefreshOAuth exchanges the stored refresh token for new access tokens.
// Not yet wired to the auth service.
func (p *ClaudeProvider) RefreshOAuth(ctx context.Context) error {
	if !oauthRefreshAvailable {
		return errors.New("enrichment: oauth refresh not yet available")
	}
	return nil
}
