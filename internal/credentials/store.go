// Package credentials holds per-provider authentication material behind a
// small key-value contract. The backing medium is pluggable; the in-memory
// store here is seeded from configuration at startup.
package credentials

import (
	"sync"
	"time"
)

// Mode says which authentication scheme a credential carries.
type Mode string

const (
	ModeAPIKey Mode = "api_key"
	ModeOAuth  Mode = "oauth"
)

// expiryBuffer treats tokens expiring within five minutes as already
// expired so a call never races token expiry mid-flight.
const expiryBuffer = 5 * time.Minute

// Credential is either an opaque API key or an OAuth token triple.
// Exactly one mode is active per provider at a time.
type Credential struct {
	Mode         Mode
	APIKey       string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Valid reports whether the credential can authenticate a call right now.
func (c Credential) Valid() bool {
	switch c.Mode {
	case ModeAPIKey:
		return c.APIKey != ""
	case ModeOAuth:
		if c.AccessToken == "" {
			return false
		}
		if c.ExpiresAt.IsZero() {
			return true
		}
		return time.Now().Add(expiryBuffer).Before(c.ExpiresAt)
	default:
		return false
	}
}

// Store is the contract providers consume. Get returns ok=false on a miss.
type Store interface {
	Get(providerID string) (Credential, bool)
	Set(providerID string, cred Credential)
	Clear(providerID string)
}

// MemoryStore is a mutex-guarded in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[string]Credential)}
}

// Seed sets an API-key credential for every non-empty key in keys.
func (s *MemoryStore) Seed(keys map[string]string) *MemoryStore {
	for provider, key := range keys {
		if key != "" {
			s.Set(provider, Credential{Mode: ModeAPIKey, APIKey: key})
		}
	}
	return s
}

func (s *MemoryStore) Get(providerID string) (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creds[providerID]
	return c, ok
}

func (s *MemoryStore) Set(providerID string, cred Credential) {
	s.mu.Lock()
	s.creds[providerID] = cred
	s.mu.Unlock()
}

func (s *MemoryStore) Clear(providerID string) {
	s.mu.Lock()
	delete(s.creds, providerID)
	s.mu.Unlock()
}
