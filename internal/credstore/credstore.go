// Package credstore holds the GitHub OAuth token and the signed-in username.
package credstore

import (
	"context"
	"path/filepath"

	"github.com/joshuadavidthomas/copilotstatus/internal/config"
	"github.com/joshuadavidthomas/copilotstatus/internal/keychain"
)

// Credential names used by every backend.
const (
	keyToken    = "token"
	keyUsername = "username"
)

// TokenStore is the credential contract. Get and GetUsername return an empty
// string when nothing is stored. Clear succeeds when either key is absent.
type TokenStore interface {
	Store(ctx context.Context, token string) error
	Get(ctx context.Context) (string, error)
	StoreUsername(ctx context.Context, username string) error
	GetUsername(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// IsAuthenticated reports whether a token is stored.
func IsAuthenticated(ctx context.Context, s TokenStore) (bool, error) {
	token, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

// New returns the backend selected by cfg. The Keychain is used only when
// requested and available; otherwise credentials live in files under the
// config directory.
func New(cfg config.Config) TokenStore {
	if cfg.Credentials.UseKeyring && keychain.Available() {
		return NewKeychainStore(keychainService)
	}
	return NewFileStore(filepath.Join(config.CredentialsDir(), "github"))
}
