package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// stubConverse captures the last input and returns a canned reply.
type stubConverse struct {
	lastInput *bedrockruntime.ConverseInput
	reply     string
	err       error
}

func (s *stubConverse) Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	s.lastInput = params
	if s.err != nil {
		return nil, s.err
	}
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Role:    brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: s.reply}},
			},
		},
	}, nil
}

func TestBedrockAvailability(t *testing.T) {
	if NewBedrockProvider(nil, "", nil).Available() {
		t.Fatal("nil client must not be available")
	}
	if !NewBedrockProvider(&stubConverse{}, "", nil).Available() {
		t.Fatal("client without a pinned model must be available")
	}
}

func TestBedrockModelTiering(t *testing.T) {
	p := NewBedrockProvider(&stubConverse{}, "", nil)
	cases := []struct {
		fields int
		want   string
	}{
		{0, "anthropic.claude-3-haiku-20240307-v1:0"},
		{9, "anthropic.claude-3-haiku-20240307-v1:0"},
		{10, "anthropic.claude-3-5-sonnet-20241022-v2:0"},
		{24, "anthropic.claude-3-5-sonnet-20241022-v2:0"},
	}
	for _, tc := range cases {
		if got := p.bedrockModelFor(tc.fields); got != tc.want {
			t.Errorf("bedrockModelFor(%d) = %s, want %s", tc.fields, got, tc.want)
		}
	}

	pinned := NewBedrockProvider(&stubConverse{}, "anthropic.claude-custom:0", nil)
	if got := pinned.bedrockModelFor(24); got != "anthropic.claude-custom:0" {
		t.Fatalf("pinned model overridden: %s", got)
	}
}

func TestBedrockGenerateEnrichment(t *testing.T) {
	stub := &stubConverse{reply: "Your seven walks a quiet road."}
	p := NewBedrockProvider(stub, "", nil)

	res, err := p.GenerateEnrichment(context.Background(), NewContext(5, 24,
		map[string]string{"lifePath": "7"}, nil, nil, nil))
	if err != nil {
		t.Fatalf("GenerateEnrichment error: %v", err)
	}
	if res.Text != "Your seven walks a quiet road." || res.Confidence != 0.90 {
		t.Fatalf("result = %+v", res)
	}
	if stub.lastInput == nil || *stub.lastInput.ModelId != "anthropic.claude-3-haiku-20240307-v1:0" {
		t.Fatalf("model id = %v, want haiku tier at 5 fields", stub.lastInput.ModelId)
	}
	if len(stub.lastInput.System) == 0 {
		t.Fatal("system prompt not sent")
	}
}

func TestBedrockEmptyOutput(t *testing.T) {
	stub := &stubConverse{reply: "   "}
	p := NewBedrockProvider(stub, "", nil)
	_, err := p.GenerateEnrichment(context.Background(), NewContext(5, 24, nil, nil, nil, nil))
	if KindOf(err) != KindEmptyResponse {
		t.Fatalf("kind = %s, want empty_response", KindOf(err))
	}
}

func TestBedrockErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"throttled", &brtypes.ThrottlingException{}, KindRateLimited},
		{"access denied", &brtypes.AccessDeniedException{}, KindAuthentication},
		{"internal", &brtypes.InternalServerException{}, KindTransientServer},
		{"model timeout", &brtypes.ModelTimeoutException{}, KindTransport},
		{"model missing", &brtypes.ResourceNotFoundException{}, KindConfiguration},
		{"plain error", errors.New("dial tcp: connection refused"), KindTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewBedrockProvider(&stubConverse{err: tc.err}, "", nil)
			_, err := p.GenerateEnrichment(context.Background(), NewContext(5, 24, nil, nil, nil, nil))
			if KindOf(err) != tc.want {
				t.Fatalf("kind = %s, want %s", KindOf(err), tc.want)
			}
		})
	}
}
