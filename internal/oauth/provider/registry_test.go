package provider

import (
	"errors"
	"testing"

	"github.com/wixenmail/wixen/internal/oauth"
)

func TestLookup_CaseInsensitive(t *testing.T) {
	for _, name := range []string{"gmail", "GMAIL", " Gmail "} {
		d, ok := Lookup(name)
		if !ok {
			t.Fatalf("Lookup(%q) not found", name)
		}
		if d.Name != "gmail" {
			t.Fatalf("Lookup(%q): got descriptor %q", name, d.Name)
		}
	}
	if _, ok := Lookup("fastmail"); ok {
		t.Fatal("unknown provider must not resolve")
	}
}

func TestGmailDescriptor_RefreshTokenQuirks(t *testing.T) {
	d, _ := Lookup("gmail")
	got := map[string]string{}
	for _, p := range d.ExtraAuthParams {
		got[p.Key] = p.Value
	}
	if got["access_type"] != "offline" || got["prompt"] != "consent" {
		t.Fatalf("gmail extra params missing offline/consent: %v", got)
	}
}

func TestDetectFromEmail(t *testing.T) {
	cases := map[string]string{
		"ana@gmail.com":        "gmail",
		"ana@GoogleMail.com":   "gmail",
		"bob@outlook.com":      "outlook",
		"bob@Hotmail.com":      "outlook",
		"carol@live.com":       "outlook",
		"dave@msn.com":         "outlook",
		"ana@x.internal.co.jp": "",
		"not-an-email":         "",
		"trailing@":            "",
	}
	for email, want := range cases {
		got, ok := DetectFromEmail(email)
		if want == "" {
			if ok {
				t.Fatalf("DetectFromEmail(%q): unexpected match %q", email, got)
			}
			continue
		}
		if !ok || got != want {
			t.Fatalf("DetectFromEmail(%q): got %q/%v want %q", email, got, ok, want)
		}
	}
}

func TestRegister_RejectsInsecureEndpoints(t *testing.T) {
	err := Register(Descriptor{
		Name:          "evil",
		AuthURL:       "http://idp.example/auth",
		TokenURL:      "https://idp.example/token",
		DefaultScopes: []string{"mail"},
	})
	if !errors.Is(err, oauth.ErrInvalidConfig) {
		t.Fatalf("http auth_url: want ErrInvalidConfig, got %v", err)
	}

	err = Register(Descriptor{
		Name:          "broken",
		AuthURL:       "https://idp.example/auth",
		TokenURL:      "://not-a-url",
		DefaultScopes: []string{"mail"},
	})
	if !errors.Is(err, oauth.ErrInvalidConfig) {
		t.Fatalf("unparseable token_url: want ErrInvalidConfig, got %v", err)
	}

	err = Register(Descriptor{
		Name:     "noscopes",
		AuthURL:  "https://idp.example/auth",
		TokenURL: "https://idp.example/token",
	})
	if !errors.Is(err, oauth.ErrInvalidConfig) {
		t.Fatalf("empty scopes: want ErrInvalidConfig, got %v", err)
	}
}

func TestRegister_CustomProvider(t *testing.T) {
	err := Register(Descriptor{
		Name:          "yahoo",
		AuthURL:       "https://api.login.yahoo.com/oauth2/request_auth",
		TokenURL:      "https://api.login.yahoo.com/oauth2/get_token",
		DefaultScopes: []string{"mail-w"},
	}, "yahoo.com")
	if err != nil {
		t.Fatalf("Register err: %v", err)
	}
	if _, ok := Lookup("yahoo"); !ok {
		t.Fatal("registered provider not found")
	}
	if name, ok := DetectFromEmail("z@yahoo.com"); !ok || name != "yahoo" {
		t.Fatalf("domain mapping not registered: %q %v", name, ok)
	}
}
