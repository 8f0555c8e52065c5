// Package oauth contains the shared types of the Wixen Mail authorization
// core: the persisted TokenSet, the stable error taxonomy, and the
// authorization URL builder. Provider-specific data lives in the provider
// subpackage; the moving parts (loopback capture, token exchange, browser
// launch) live in their own subpackages.
package oauth

import (
	"strings"
	"time"
)

// TokenSet is the set of credentials returned by a provider's token endpoint.
// It is the unit the token store persists, keyed by (provider, account).
type TokenSet struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	TokenType    string     `json:"token_type"`
	Scope        string     `json:"scope,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`

	// IDToken es efímero: viaja junto al exchange inicial para extraer la
	// identidad (email) y nunca se persiste.
	IDToken string `json:"-"`
}

// Valid reports whether the access token is usable at now, with the given
// proactive skew. A token without expiry is trusted (opaque token).
func (t *TokenSet) Valid(now time.Time, skew time.Duration) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	if t.ExpiresAt == nil {
		return true
	}
	return now.Add(skew).Before(*t.ExpiresAt)
}

// ExpiresIn returns the remaining lifetime at now. ok is false when the
// token carries no expiry.
func (t *TokenSet) ExpiresIn(now time.Time) (time.Duration, bool) {
	if t == nil || t.ExpiresAt == nil {
		return 0, false
	}
	return t.ExpiresAt.Sub(now), true
}

// Scopes splits the space-separated scope string.
func (t *TokenSet) Scopes() []string {
	if t == nil || t.Scope == "" {
		return nil
	}
	return strings.Fields(t.Scope)
}
