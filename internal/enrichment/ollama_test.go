package enrichment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaGenerateEnrichment(t *testing.T) {
	var gotReq ollamaRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(ollamaResponse{Response: "Your life path points toward service.", Done: true})
	}))
	defer ts.Close()

	p := NewOllamaProvider(ts.URL, "llama3", nil)
	if !p.Available() {
		t.Fatal("provider with endpoint should be available")
	}

	res, err := p.GenerateEnrichment(context.Background(), NewContext(5, 24, map[string]string{"lifePath": "7"}, nil, nil, nil))
	if err != nil {
		t.Fatalf("GenerateEnrichment error: %v", err)
	}
	if res.Text != "Your life path points toward service." {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Confidence != ollamaConfidence {
		t.Fatalf("confidence = %v", res.Confidence)
	}
	if gotReq.Model != "llama3" || gotReq.Stream {
		t.Fatalf("request = %+v", gotReq)
	}
	if gotReq.System == "" {
		t.Fatal("system prompt not sent")
	}
}

func TestOllamaNoEndpoint(t *testing.T) {
	p := NewOllamaProvider("", "", nil)
	if p.Available() {
		t.Fatal("provider without endpoint must be unavailable")
	}
	_, err := p.GenerateEnrichment(context.Background(), NewContext(5, 24, nil, nil, nil, nil))
	if KindOf(err) != KindConfiguration {
		t.Fatalf("kind = %s, want configuration", KindOf(err))
	}
}

func TestOllamaEmptyResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaResponse{Response: "   ", Done: true})
	}))
	defer ts.Close()

	p := NewOllamaProvider(ts.URL, "llama3", nil)
	_, err := p.GenerateEnrichment(context.Background(), NewContext(5, 24, nil, nil, nil, nil))
	if KindOf(err) != KindEmptyResponse {
		t.Fatalf("kind = %s, want empty_response", KindOf(err))
	}
}

func TestOllamaServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer ts.Close()

	p := NewOllamaProvider(ts.URL, "llama3", nil)
	_, err := p.GenerateEnrichment(context.Background(), NewContext(5, 24, nil, nil, nil, nil))
	if KindOf(err) != KindTransientServer {
		t.Fatalf("kind = %s, want transient_server", KindOf(err))
	}
}

func TestOllamaConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	p := NewOllamaProvider(ts.URL, "llama3", nil)
	_, err := p.GenerateEnrichment(context.Background(), NewContext(5, 24, nil, nil, nil, nil))
	if KindOf(err) != KindTransport {
		t.Fatalf("kind = %s, want transport", KindOf(err))
	}
}
