package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/isndotbiz/spiritatlas/pkg/logging"
)

const bedrockConfidence = 0.90

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockProvider runs Claude models through AWS Bedrock's Converse API.
// Used by deployments that keep all AI traffic inside their AWS account.
// Auth comes from the ambient AWS credential chain, so Available reflects
// client presence, not key presence. modelID, when set, pins one model for
// every request; left empty, the model steps with profile completeness.
type BedrockProvider struct {
	client  bedrockConverseAPI
	modelID string
	logger  *logging.Logger
}

func NewBedrockProvider(client bedrockConverseAPI, modelID string, logger *logging.Logger) *BedrockProvider {
	if logger == nil {
		logger = logging.Default()
	}
	return &BedrockProvider{client: client, modelID: modelID, logger: logger}
}

func (p *BedrockProvider) Available() bool {
	return p.client != nil
}

// bedrockModelFor upgrades to the sonnet-class model once a profile has
// enough data to justify the cost. A configured modelID overrides tiering.
func (p *BedrockProvider) bedrockModelFor(completedFields int) string {
	if strings.TrimSpace(p.modelID) != "" {
		return p.modelID
	}
	if completedFields >= 10 {
		return "anthropic.claude-3-5-sonnet-20241022-v2:0"
	}
	return "anthropic.claude-3-haiku-20240307-v1:0"
}

func (p *BedrockProvider) GenerateEnrichment(ctx context.Context, ec Context) (Result, error) {
	text, err := p.complete(ctx, SystemPrompt(), EnrichmentPrompt(ec), ec.CompletedFields)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text, Confidence: bedrockConfidence}, nil
}

func (p *BedrockProvider) complete(ctx context.Context, system, userPrompt string, completedFields int) (string, error) {
	if !p.Available() {
		return "", configurationError(ProviderBedrock, "bedrock client")
	}

	var systemBlocks []brtypes.SystemContentBlock
	if strings.TrimSpace(system) != "" {
		systemBlocks = append(systemBlocks, &brtypes.SystemContentBlockMemberText{Value: system})
	}

	out, err := p.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(p.bedrockModelFor(completedFields)),
		System:  systemBlocks,
		Messages: []brtypes.Message{{
			Role:    brtypes.ConversationRoleUser,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: userPrompt}},
		}},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(claudeMaxTokens),
			Temperature: aws.Float32(claudeTemp),
		},
	})
	if err != nil {
		return "", p.mapError(err)
	}

	text, err := bedrockOutputText(out)
	if err != nil {
		return "", err
	}
	p.logger.Debug("bedrock completion", "stop_reason", string(out.StopReason))
	return text, nil
}

func bedrockOutputText(out *bedrockruntime.ConverseOutput) (string, error) {
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok || len(msg.Value.Content) == 0 {
		return "", emptyResponseError(ProviderBedrock)
	}
	var text strings.Builder
	for _, block := range msg.Value.Content {
		if t, ok := block.(*brtypes.ContentBlockMemberText); ok {
			text.WriteString(t.Value)
		}
	}
	result := strings.TrimSpace(text.String())
	if result == "" {
		return "", emptyResponseError(ProviderBedrock)
	}
	return result, nil
}

func (p *BedrockProvider) mapError(err error) *ProviderError {
	var throttled *brtypes.ThrottlingException
	if errors.As(err, &throttled) {
		return &ProviderError{Provider: ProviderBedrock, Kind: KindRateLimited, Err: err}
	}
	var denied *brtypes.AccessDeniedException
	if errors.As(err, &denied) {
		return &ProviderError{Provider: ProviderBedrock, Kind: KindAuthentication, Err: err}
	}
	var internal *brtypes.InternalServerException
	if errors.As(err, &internal) {
		return &ProviderError{Provider: ProviderBedrock, Kind: KindTransientServer, Err: err}
	}
	var timeout *brtypes.ModelTimeoutException
	if errors.As(err, &timeout) {
		return &ProviderError{Provider: ProviderBedrock, Kind: KindTransport, Err: err}
	}
	var notFound *brtypes.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return &ProviderError{Provider: ProviderBedrock, Kind: KindConfiguration, Err: fmt.Errorf("model not found: %w", err)}
	}
	return transportError(ProviderBedrock, err)
}
