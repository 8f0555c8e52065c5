package pkce

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"
)

const unreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

func TestNewAttempt_ChallengeMatchesVerifier(t *testing.T) {
	for i := 0; i < 100; i++ {
		m, _, err := NewAttempt()
		if err != nil {
			t.Fatalf("NewAttempt err: %v", err)
		}
		sum := sha256.Sum256([]byte(m.Verifier))
		want := base64.RawURLEncoding.EncodeToString(sum[:])
		if m.Challenge != want {
			t.Fatalf("challenge mismatch: got %q want %q", m.Challenge, want)
		}
		if m.Method != "S256" {
			t.Fatalf("method: got %q", m.Method)
		}
	}
}

func TestNewAttempt_VerifierShape(t *testing.T) {
	m, state, err := NewAttempt()
	if err != nil {
		t.Fatalf("NewAttempt err: %v", err)
	}
	if l := len(m.Verifier); l < 43 || l > 128 {
		t.Fatalf("verifier length %d outside [43,128]", l)
	}
	for _, r := range m.Verifier {
		if !strings.ContainsRune(unreserved, r) {
			t.Fatalf("verifier contains reserved char %q", r)
		}
	}
	for _, r := range state {
		if !strings.ContainsRune(unreserved, r) {
			t.Fatalf("state contains reserved char %q", r)
		}
	}
	// state debe tener al menos 128 bits (22 chars base64url)
	if len(state) < 22 {
		t.Fatalf("state too short: %d chars", len(state))
	}
	if strings.Contains(m.Challenge, "=") {
		t.Fatal("challenge must not carry base64 padding")
	}
}

func TestNewAttempt_StateUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		_, state, err := NewAttempt()
		if err != nil {
			t.Fatalf("NewAttempt err: %v", err)
		}
		if _, dup := seen[state]; dup {
			t.Fatalf("duplicate state after %d attempts", i)
		}
		seen[state] = struct{}{}
	}
}

func TestChallenge_KnownVector(t *testing.T) {
	// RFC 7636 appendix B
	got := Challenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk")
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	if got != want {
		t.Fatalf("challenge: got %q want %q", got, want)
	}
}
