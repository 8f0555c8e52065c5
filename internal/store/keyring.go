package store

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/wixenmail/wixen/internal/oauth"
)

// KeyringStore persists TokenSets in the OS credential manager. This is the
// default backend.
type KeyringStore struct{}

// NewKeyring returns the OS-credential-manager backend.
func NewKeyring() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Put(provider, accountID string, ts *oauth.TokenSet) error {
	blob, err := encode(ts)
	if err != nil {
		return err
	}
	if err := keyring.Set(ServiceFor(provider), accountID, string(blob)); err != nil {
		return fmt.Errorf("%w: credential manager set failed: %v", oauth.ErrStorage, err)
	}
	return nil
}

func (s *KeyringStore) Get(provider, accountID string) (*oauth.TokenSet, error) {
	blob, err := keyring.Get(ServiceFor(provider), accountID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: credential manager get failed: %v", oauth.ErrStorage, err)
	}
	return decode([]byte(blob))
}

func (s *KeyringStore) Delete(provider, accountID string) error {
	err := keyring.Delete(ServiceFor(provider), accountID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: credential manager delete failed: %v", oauth.ErrStorage, err)
	}
	return nil
}
