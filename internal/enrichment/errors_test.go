package enrichment

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorFromStatus(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorKind
	}{
		{401, KindAuthentication},
		{403, KindForbidden},
		{404, KindNotFound},
		{429, KindRateLimited},
		{500, KindTransientServer},
		{503, KindTransientServer},
		{418, KindTransientServer},
	}
	for _, tc := range cases {
		pe := errorFromStatus("claude", tc.status, "body", "")
		if pe.Kind != tc.want {
			t.Errorf("status %d: kind = %s, want %s", tc.status, pe.Kind, tc.want)
		}
		if pe.Provider != "claude" {
			t.Errorf("status %d: provider = %s", tc.status, pe.Provider)
		}
	}
}

func TestErrorFromStatusRetryAfter(t *testing.T) {
	pe := errorFromStatus("gemini", 429, "quota exceeded", "30")
	if pe.RetryAfter != 30*time.Second {
		t.Fatalf("RetryAfter = %v, want 30s", pe.RetryAfter)
	}

	pe = errorFromStatus("gemini", 429, "quota exceeded", "not-a-number")
	if pe.RetryAfter != 0 {
		t.Fatalf("RetryAfter = %v, want 0 for unparseable header", pe.RetryAfter)
	}
}

func TestProviderErrorWrapping(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	var err error = newError("ollama", KindTransport, inner)

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatal("errors.As failed to extract ProviderError")
	}
	if pe.Kind != KindTransport {
		t.Fatalf("kind = %s, want %s", pe.Kind, KindTransport)
	}
	if !errors.Is(err, inner) {
		t.Fatal("expected wrapped error to match errors.Is")
	}
	if KindOf(err) != KindTransport {
		t.Fatalf("KindOf = %s", KindOf(err))
	}
}

func TestIsRateLimited(t *testing.T) {
	if !IsRateLimited(errorFromStatus("groq", 429, "", "")) {
		t.Fatal("expected 429 error to be rate limited")
	}
	if IsRateLimited(errorFromStatus("groq", 500, "", "")) {
		t.Fatal("500 should not be rate limited")
	}
	if IsRateLimited(errors.New("plain")) {
		t.Fatal("plain error should not be rate limited")
	}
}

func TestErrorFromStatusTruncatesBody(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	pe := errorFromStatus("openai", 500, string(long), "")
	if len(pe.Err.Error()) > 250 {
		t.Fatalf("body not truncated: %d chars", len(pe.Err.Error()))
	}
}
