// Package pkce generates the per-attempt secrets of the authorization code
// flow: the PKCE verifier/challenge pair and the CSRF state token. All three
// are single-use and must never be persisted or logged.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	// Method is the only challenge method ever sent. Plain is not supported.
	Method = "S256"

	// verifierBytes = 48 → 64 base64url chars, dentro del rango 43–128 de
	// la RFC 7636 y con 384 bits de entropía.
	verifierBytes = 48

	// stateBytes = 32 → state de 43 chars, single-use.
	stateBytes = 32
)

// Material is the PKCE pair for one authorization attempt.
type Material struct {
	Verifier  string
	Challenge string
	Method    string
}

// NewAttempt returns fresh PKCE material and a CSRF state token. The only
// failure mode is the system RNG failing, which is fatal for the caller.
func NewAttempt() (Material, string, error) {
	verifier, err := randomToken(verifierBytes)
	if err != nil {
		return Material{}, "", fmt.Errorf("pkce verifier: %w", err)
	}
	state, err := randomToken(stateBytes)
	if err != nil {
		return Material{}, "", fmt.Errorf("csrf state: %w", err)
	}
	return Material{
		Verifier:  verifier,
		Challenge: Challenge(verifier),
		Method:    Method,
	}, state, nil
}

// Challenge devuelve base64url(sha256(verifier)) sin padding.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// randomToken genera un token opaco aleatorio (base64url sin padding); el
// alfabeto resultante [A-Za-z0-9-_] es un subconjunto de los caracteres
// unreserved de RFC 3986.
func randomToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
