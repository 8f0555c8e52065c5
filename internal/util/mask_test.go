package util

import (
	"strings"
	"testing"
)

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"ana.garcia@gmail.com": "a…@g….com",
		"Bob@Outlook.com":      "b…@o….com",
		"x@y.z":                "x@y.z",
		"":                     "",
		"abc":                  "***",
		"longlocal":            "l…l",
	}
	for in, want := range cases {
		if got := MaskEmail(in); got != want {
			t.Fatalf("MaskEmail(%q): got %q want %q", in, got, want)
		}
	}
}

func TestMaskToken_NeverLeaksContent(t *testing.T) {
	tok := "ya29.super-secret-access-token-value"
	got := MaskToken(tok)
	if strings.Contains(got, "ya29") || strings.Contains(got, "secret") {
		t.Fatalf("masked token leaks content: %q", got)
	}
	if got != "tok[36]" {
		t.Fatalf("MaskToken: got %q", got)
	}
	if MaskToken("") != "" {
		t.Fatal("empty token should mask to empty")
	}
}
