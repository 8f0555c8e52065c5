// Package exchange talks to provider token endpoints: the one-time
// authorization-code exchange and refresh-token grants. Both are form POSTs
// with exact parameter names; they are wire contract with the provider.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wixenmail/wixen/internal/oauth"
)

const (
	// requestTimeout acota connect + request total contra el token endpoint.
	requestTimeout = 30 * time.Second

	// maxErrorBody bounds how much of a non-JSON error body is surfaced.
	maxErrorBody = 512
)

// Client performs token endpoint requests. The HTTP transport and the clock
// are injectable so tests can stub responses and pin expiry math.
type Client struct {
	http *http.Client
	now  func() time.Time
}

// New builds a Client. A nil httpClient gets a default with the 30 s
// timeout; a nil now gets time.Now.
func New(httpClient *http.Client, now func() time.Time) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	if now == nil {
		now = time.Now
	}
	return &Client{http: httpClient, now: now}
}

// ExchangeCode trades an authorization code (plus the PKCE verifier it is
// bound to) for a TokenSet.
func (c *Client) ExchangeCode(ctx context.Context, tokenURL, code, clientID, clientSecret, redirectURI, verifier string) (*oauth.TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("redirect_uri", redirectURI)
	form.Set("code_verifier", verifier)
	return c.post(ctx, tokenURL, form)
}

// Refresh trades a refresh token for a fresh TokenSet. Carrying a previous
// refresh_token forward when the provider omits one is the caller's job, not
// this client's.
func (c *Client) Refresh(ctx context.Context, tokenURL, refreshToken, clientID, clientSecret string) (*oauth.TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	return c.post(ctx, tokenURL, form)
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int64  `json:"expires_in"`
	IDToken      string `json:"id_token"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *Client) post(ctx context.Context, tokenURL string, form url.Values) (*oauth.TokenSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: bad token endpoint: %v", oauth.ErrInvalidConfig, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: token endpoint request failed: %v", oauth.ErrNetwork, sanitizeURLError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading token response: %v", oauth.ErrNetwork, err)
	}

	if resp.StatusCode/100 != 2 {
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Error != "" {
			desc := er.ErrorDescription
			if desc == "" {
				desc = fmt.Sprintf("HTTP %d", resp.StatusCode)
			}
			return nil, &oauth.ProviderError{Code: er.Error, Description: desc}
		}
		return nil, &oauth.ProviderError{
			Code:        fmt.Sprintf("http_%d", resp.StatusCode),
			Description: truncate(string(body), maxErrorBody),
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("%w: 2xx body is not token JSON", oauth.ErrMalformedResponse)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: access_token missing", oauth.ErrMalformedResponse)
	}

	ts := &oauth.TokenSet{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		Scope:        tr.Scope,
		IDToken:      tr.IDToken,
	}
	if ts.TokenType == "" {
		ts.TokenType = "Bearer"
	}
	if tr.ExpiresIn > 0 {
		exp := c.now().UTC().Add(time.Duration(tr.ExpiresIn) * time.Second)
		ts.ExpiresAt = &exp
	}
	return ts, nil
}

// sanitizeURLError drops the *url.Error layer, whose string repeats the
// full request URL on every transport failure.
func sanitizeURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
