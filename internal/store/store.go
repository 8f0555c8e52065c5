// Package store persists TokenSets keyed by (provider, account). The
// primary backend is the OS credential manager (Keychain / Credential
// Manager / Secret Service); a file-backed fallback exists for headless
// setups and always logs a warning when selected.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/wixenmail/wixen/internal/oauth"
)

// ServicePrefix is the keychain service namespace. Stored entries use
// service "wixen-mail-<provider>" with username = account id; changing
// either breaks every user's stored tokens.
const ServicePrefix = "wixen-mail-"

// TokenStore is the single durable owner of TokenSets. All operations are
// synchronous and atomic per key.
type TokenStore interface {
	// Put serializes and stores the set, overwriting any prior value.
	Put(provider, accountID string, ts *oauth.TokenSet) error

	// Get returns the stored set, or (nil, nil) when nothing is stored.
	// A blob that exists but does not deserialize yields ErrCorruptStore.
	Get(provider, accountID string) (*oauth.TokenSet, error)

	// Delete removes the stored set; deleting an absent key is not an
	// error.
	Delete(provider, accountID string) error
}

// ServiceFor returns the keychain service string for a provider.
func ServiceFor(provider string) string {
	return ServicePrefix + provider
}

func encode(ts *oauth.TokenSet) ([]byte, error) {
	if ts == nil || ts.AccessToken == "" {
		return nil, fmt.Errorf("%w: refusing to store an empty access token", oauth.ErrStorage)
	}
	b, err := json.Marshal(ts)
	if err != nil {
		return nil, fmt.Errorf("%w: encode token set: %v", oauth.ErrStorage, err)
	}
	return b, nil
}

func decode(blob []byte) (*oauth.TokenSet, error) {
	var ts oauth.TokenSet
	if err := json.Unmarshal(blob, &ts); err != nil {
		return nil, fmt.Errorf("%w: stored blob does not deserialize", oauth.ErrCorruptStore)
	}
	if ts.AccessToken == "" {
		return nil, fmt.Errorf("%w: stored blob has no access token", oauth.ErrCorruptStore)
	}
	return &ts, nil
}
