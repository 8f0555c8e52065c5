package oauth

import (
	"fmt"
	"net/url"
	"strings"
)

// Param is an ordered key/value pair appended to the authorization URL.
// A slice keeps provider-specific params in a stable order (a map would
// randomize them between runs).
type Param struct {
	Key   string
	Value string
}

// BuildAuthURL composes the authorization URL for the code+PKCE flow.
//
// Parameter order is part of the wire surface we keep stable:
// response_type, client_id, redirect_uri, scope, state, code_challenge,
// code_challenge_method, then the provider's extra params. url.Values.Encode
// sorts alphabetically, so the query string is assembled by hand.
func BuildAuthURL(endpoint, clientID, redirectURI string, scopes []string, state, challenge string, extra []Param) (string, error) {
	if strings.TrimSpace(clientID) == "" {
		return "", fmt.Errorf("%w: client_id is empty", ErrInvalidConfig)
	}
	base, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: bad authorization endpoint: %v", ErrInvalidConfig, err)
	}

	pairs := []Param{
		{"response_type", "code"},
		{"client_id", clientID},
		{"redirect_uri", redirectURI},
		{"scope", strings.Join(scopes, " ")},
		{"state", state},
		{"code_challenge", challenge},
		{"code_challenge_method", "S256"},
	}
	pairs = append(pairs, extra...)

	var q strings.Builder
	for i, p := range pairs {
		if i > 0 {
			q.WriteByte('&')
		}
		q.WriteString(queryEscape(p.Key))
		q.WriteByte('=')
		q.WriteString(queryEscape(p.Value))
	}
	base.RawQuery = q.String()
	return base.String(), nil
}

// queryEscape percent-encodes per RFC 3986: like url.QueryEscape but spaces
// become %20, never '+'.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
