package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/joshuadavidthomas/copilotstatus/internal/keychain"
)

const keychainService = "copilotstatus"

// KeychainStore keeps credentials as generic passwords in the macOS Keychain.
type KeychainStore struct {
	Service string
}

func NewKeychainStore(service string) *KeychainStore {
	return &KeychainStore{Service: service}
}

func (s *KeychainStore) Store(ctx context.Context, token string) error {
	return s.write(ctx, keyToken, token)
}

func (s *KeychainStore) Get(ctx context.Context) (string, error) {
	return s.read(ctx, keyToken)
}

func (s *KeychainStore) StoreUsername(ctx context.Context, username string) error {
	return s.write(ctx, keyUsername, username)
}

func (s *KeychainStore) GetUsername(ctx context.Context) (string, error) {
	return s.read(ctx, keyUsername)
}

func (s *KeychainStore) Clear(ctx context.Context) error {
	for _, key := range []string{keyToken, keyUsername} {
		if err := keychain.DeleteGenericPassword(ctx, s.Service, key); err != nil {
			return fmt.Errorf("clearing %s from keychain: %w", key, err)
		}
	}
	return nil
}

func (s *KeychainStore) write(ctx context.Context, key, value string) error {
	if err := keychain.WriteGenericPassword(ctx, s.Service, key, value); err != nil {
		return fmt.Errorf("writing %s to keychain: %w", key, err)
	}
	return nil
}

func (s *KeychainStore) read(ctx context.Context, key string) (string, error) {
	v, err := keychain.ReadGenericPassword(ctx, s.Service, key)
	if errors.Is(err, keychain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s from keychain: %w", key, err)
	}
	return v, nil
}
