package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only and only ever holds the default profile.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve gets the bearer token from the environment. X_BEARER_TOKEN is
// checked first to match the official client libraries, then the app's own
// XARCHIVE_BEARER_TOKEN.
func (e *EnvironmentStore) Retrieve(profile string) (*Credential, error) {
	token := os.Getenv("X_BEARER_TOKEN")
	if token == "" {
		token = os.Getenv("XARCHIVE_BEARER_TOKEN")
	}
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	if profile == "" {
		profile = DefaultProfile
	}
	return &Credential{
		Profile:      profile,
		BearerToken:  token,
		LastModified: time.Now(),
	}, nil
}

// List returns the environment credential if one is set
func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve("")
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(profile string) error {
	return ErrStoreUnavailable
}

// Exists checks whether an environment token is set
func (e *EnvironmentStore) Exists(profile string) bool {
	return os.Getenv("X_BEARER_TOKEN") != "" || os.Getenv("XARCHIVE_BEARER_TOKEN") != ""
}
