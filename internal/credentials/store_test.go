package credentials

import (
	"testing"
	"time"
)

func TestCredentialValid(t *testing.T) {
	cases := []struct {
		name string
		cred Credential
		want bool
	}{
		{"api key present", Credential{Mode: ModeAPIKey, APIKey: "sk-123"}, true},
		{"api key empty", Credential{Mode: ModeAPIKey}, false},
		{"oauth no expiry", Credential{Mode: ModeOAuth, AccessToken: "tok"}, true},
		{"oauth empty token", Credential{Mode: ModeOAuth}, false},
		{"oauth future expiry", Credential{Mode: ModeOAuth, AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}, true},
		{"oauth expired", Credential{Mode: ModeOAuth, AccessToken: "tok", ExpiresAt: time.Now().Add(-time.Hour)}, false},
		{"oauth expiring inside buffer", Credential{Mode: ModeOAuth, AccessToken: "tok", ExpiresAt: time.Now().Add(2 * time.Minute)}, false},
		{"no mode", Credential{APIKey: "sk-123"}, false},
	}
	for _, tc := range cases {
		if got := tc.cred.Valid(); got != tc.want {
			t.Errorf("%s: Valid() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestMemoryStoreSeed(t *testing.T) {
	store := NewMemoryStore().Seed(map[string]string{
		"claude": "sk-ant",
		"gemini": "",
	})

	cred, ok := store.Get("claude")
	if !ok || cred.Mode != ModeAPIKey || cred.APIKey != "sk-ant" {
		t.Fatalf("claude cred = %+v, %v", cred, ok)
	}
	if _, ok := store.Get("gemini"); ok {
		t.Fatal("empty key must not be seeded")
	}
}

func TestMemoryStoreSetClear(t *testing.T) {
	store := NewMemoryStore()
	store.Set("claude", Credential{Mode: ModeOAuth, AccessToken: "tok", RefreshToken: "ref"})

	cred, ok := store.Get("claude")
	if !ok || cred.AccessToken != "tok" {
		t.Fatalf("cred = %+v, %v", cred, ok)
	}

	store.Clear("claude")
	if _, ok := store.Get("claude"); ok {
		t.Fatal("cleared credential still present")
	}
}
