// Package provider holds the static registry of OAuth identity providers
// Wixen Mail can talk to. Each descriptor pins the provider's endpoints,
// default scopes and authorization quirks (e.g. Google only hands out a
// refresh token with access_type=offline + prompt=consent).
package provider

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/wixenmail/wixen/internal/oauth"
)

// Descriptor describes one identity provider. Immutable once registered.
type Descriptor struct {
	Name     string `validate:"required,lowercase"`
	AuthURL  string `validate:"required,secure_url"`
	TokenURL string `validate:"required,secure_url"`

	// RevokeURL is optional; when present, Revoke() attempts best-effort
	// provider-side revocation against it.
	RevokeURL string `validate:"omitempty,secure_url"`

	DefaultScopes []string `validate:"required,min=1,dive,required"`

	// ExtraAuthParams se appendean siempre a la URL de autorización, en
	// orden.
	ExtraAuthParams []oauth.Param
}

var (
	mu        sync.RWMutex
	registry  = map[string]Descriptor{}
	domains   = map[string]string{}
	validate  = validator.New()
	validOnce sync.Once
)

func init() {
	validOnce.Do(func() {
		// secure_url: URL absoluta https, parseable. Los endpoints de un
		// IdP nunca pueden ser http.
		_ = validate.RegisterValidation("secure_url", func(fl validator.FieldLevel) bool {
			u, err := url.Parse(fl.Field().String())
			return err == nil && u.Scheme == "https" && u.Host != ""
		})
	})

	mustRegister(Descriptor{
		Name:     "gmail",
		AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL: "https://oauth2.googleapis.com/token",
		// https://developers.google.com/identity/protocols/oauth2/web-server#offline
		RevokeURL:     "https://oauth2.googleapis.com/revoke",
		DefaultScopes: []string{"https://mail.google.com/"},
		ExtraAuthParams: []oauth.Param{
			{Key: "access_type", Value: "offline"},
			{Key: "prompt", Value: "consent"},
		},
	}, "gmail.com", "googlemail.com")

	mustRegister(Descriptor{
		Name:     "outlook",
		AuthURL:  "https://login.microsoftonline.com/common/oauth2/v2.0/authorize",
		TokenURL: "https://login.microsoftonline.com/common/oauth2/v2.0/token",
		DefaultScopes: []string{
			"https://outlook.office.com/IMAP.AccessAsUser.All",
			"https://outlook.office.com/SMTP.Send",
			"offline_access",
		},
	}, "outlook.com", "hotmail.com", "live.com", "msn.com")
}

func mustRegister(d Descriptor, emailDomains ...string) {
	if err := Register(d, emailDomains...); err != nil {
		panic(fmt.Sprintf("provider: built-in descriptor %q: %v", d.Name, err))
	}
}

// Register adds a descriptor (and its email domains) to the registry.
// Descriptors are validated up-front: both endpoints must be absolute HTTPS
// URLs that parse.
func Register(d Descriptor, emailDomains ...string) error {
	d.Name = strings.ToLower(strings.TrimSpace(d.Name))
	// El nombre termina en el service string del keychain y en paths del
	// fallback a archivo; nada de separadores.
	if strings.ContainsAny(d.Name, " /\\") {
		return fmt.Errorf("%w: provider name %q contains separators", oauth.ErrInvalidConfig, d.Name)
	}
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: provider descriptor %q: %v", oauth.ErrInvalidConfig, d.Name, err)
	}
	mu.Lock()
	defer mu.Unlock()
	registry[d.Name] = d
	for _, dom := range emailDomains {
		domains[strings.ToLower(dom)] = d.Name
	}
	return nil
}

// Lookup returns the descriptor for a provider name. Case-insensitive.
func Lookup(name string) (Descriptor, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// DetectFromEmail maps an email address to a provider name by domain.
// Unknown domains return ok=false; the caller surfaces an error instead of
// guessing.
func DetectFromEmail(email string) (string, bool) {
	at := strings.LastIndexByte(email, '@')
	if at < 0 || at == len(email)-1 {
		return "", false
	}
	mu.RLock()
	defer mu.RUnlock()
	name, ok := domains[strings.ToLower(strings.TrimSpace(email[at+1:]))]
	return name, ok
}

// Names returns the registered provider names, for CLI listing.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}
