package sdk

import "time"

// Credentials represents the authenticated session's bearer credential.
type Credentials struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (c *Credentials) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// CredentialStore persists a single credential across process restarts.
// Implementations are only ever called through the Session's single-writer
// API, never directly by application code.
type CredentialStore interface {
	SaveCredentials(credentials *Credentials) error
	// LoadCredentials returns (nil, nil) when no credential is stored.
	LoadCredentials() (*Credentials, error)
	DeleteCredentials() error
}

// MemoryStore is an in-process CredentialStore. It backs tests and
// short-lived tooling that has no use for on-disk persistence.
type MemoryStore struct {
	credentials *Credentials
}

var _ CredentialStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveCredentials(credentials *Credentials) error {
	copied := *credentials
	s.credentials = &copied
	return nil
}

func (s *MemoryStore) LoadCredentials() (*Credentials, error) {
	if s.credentials == nil {
		return nil, nil
	}
	copied := *s.credentials
	return &copied, nil
}

func (s *MemoryStore) DeleteCredentials() error {
	s.credentials = nil
	return nil
}
