package oauth

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestBuildAuthURL_RoundTrip(t *testing.T) {
	scopes := []string{"https://mail.google.com/", "email"}
	extra := []Param{{"access_type", "offline"}, {"prompt", "consent"}}

	raw, err := BuildAuthURL(
		"https://accounts.google.com/o/oauth2/v2/auth",
		"client-123",
		"http://127.0.0.1:49317/oauth/callback",
		scopes,
		"state-abc",
		"challenge-xyz",
		extra,
	)
	if err != nil {
		t.Fatalf("BuildAuthURL err: %v", err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("built URL does not parse: %v", err)
	}
	q := u.Query()

	checks := map[string]string{
		"response_type":         "code",
		"client_id":             "client-123",
		"redirect_uri":          "http://127.0.0.1:49317/oauth/callback",
		"scope":                 "https://mail.google.com/ email",
		"state":                 "state-abc",
		"code_challenge":        "challenge-xyz",
		"code_challenge_method": "S256",
		"access_type":           "offline",
		"prompt":                "consent",
	}
	for k, want := range checks {
		if got := q.Get(k); got != want {
			t.Fatalf("param %s: got %q want %q", k, got, want)
		}
	}
}

func TestBuildAuthURL_ParamOrder(t *testing.T) {
	raw, err := BuildAuthURL("https://idp.example/auth", "cid", "http://127.0.0.1:49317/oauth/callback",
		[]string{"mail"}, "st", "ch", []Param{{"zz_first", "1"}, {"aa_second", "2"}})
	if err != nil {
		t.Fatalf("BuildAuthURL err: %v", err)
	}
	query := raw[strings.IndexByte(raw, '?')+1:]
	keys := make([]string, 0, 9)
	for _, kv := range strings.Split(query, "&") {
		keys = append(keys, strings.SplitN(kv, "=", 2)[0])
	}
	want := []string{"response_type", "client_id", "redirect_uri", "scope", "state", "code_challenge", "code_challenge_method", "zz_first", "aa_second"}
	if len(keys) != len(want) {
		t.Fatalf("param count: got %d want %d (%v)", len(keys), len(want), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("param %d: got %s want %s", i, keys[i], want[i])
		}
	}
}

func TestBuildAuthURL_SpacesPercentEncoded(t *testing.T) {
	raw, err := BuildAuthURL("https://idp.example/auth", "cid", "http://127.0.0.1:49317/oauth/callback",
		[]string{"scope one", "scope-two"}, "st", "ch", nil)
	if err != nil {
		t.Fatalf("BuildAuthURL err: %v", err)
	}
	if strings.Contains(raw, "+") {
		t.Fatalf("query uses '+' for spaces, want %%20: %s", raw)
	}
	if !strings.Contains(raw, "scope=scope%20one%20scope-two") {
		t.Fatalf("scope not %%20-joined: %s", raw)
	}
}

func TestBuildAuthURL_EmptyClientID(t *testing.T) {
	_, err := BuildAuthURL("https://idp.example/auth", "  ", "http://127.0.0.1:49317/oauth/callback", nil, "st", "ch", nil)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}
}

func TestTokenSet_Valid(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	skew := 5 * time.Minute

	opaque := &TokenSet{AccessToken: "at"}
	if !opaque.Valid(now, skew) {
		t.Fatal("opaque token should be trusted")
	}

	soon := now.Add(4 * time.Minute)
	expiring := &TokenSet{AccessToken: "at", ExpiresAt: &soon}
	if expiring.Valid(now, skew) {
		t.Fatal("token expiring inside the skew window should not be valid")
	}

	later := now.Add(6 * time.Minute)
	fresh := &TokenSet{AccessToken: "at", ExpiresAt: &later}
	if !fresh.Valid(now, skew) {
		t.Fatal("token expiring outside the skew window should be valid")
	}

	var nilSet *TokenSet
	if nilSet.Valid(now, skew) {
		t.Fatal("nil TokenSet must not be valid")
	}
}

func TestProviderError_ReauthRequired(t *testing.T) {
	for _, code := range []string{"invalid_grant", "invalid_token"} {
		pe := &ProviderError{Code: code}
		if !pe.ReauthRequired() {
			t.Fatalf("%s should require reauthorization", code)
		}
	}
	pe := &ProviderError{Code: "temporarily_unavailable"}
	if pe.ReauthRequired() {
		t.Fatal("transient provider error must not force reauthorization")
	}
}
