package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wixenmail/wixen/internal/oauth"
)

// ClientCredentials es el par (client_id, client_secret) a nivel
// aplicación. Nunca es por cuenta y el core nunca lo persiste.
type ClientCredentials struct {
	ID     string
	Secret string
}

// credentialsFileEnv permite redirigir el archivo TOML (tests, setups
// portables).
const credentialsFileEnv = "WIXEN_CREDENTIALS_FILE"

// compileTimeCredentials se puebla vía -ldflags en builds distribuidos:
//
//	-X .../config.defaultGmailID=... -X .../config.defaultGmailSecret=...
var (
	defaultGmailID       string
	defaultGmailSecret   string
	defaultOutlookID     string
	defaultOutlookSecret string
)

func compileTimeCredentials(provider string) ClientCredentials {
	switch provider {
	case "gmail":
		return ClientCredentials{ID: defaultGmailID, Secret: defaultGmailSecret}
	case "outlook":
		return ClientCredentials{ID: defaultOutlookID, Secret: defaultOutlookSecret}
	default:
		return ClientCredentials{}
	}
}

type tomlCredentials struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// ResolveCredentials busca las credenciales de un provider en orden:
// environment → archivo TOML → defaults de compilación. Gana el primer par
// completo; si ninguna fuente completa el par, el error nombra el campo
// faltante.
func ResolveCredentials(provider string) (ClientCredentials, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	sources := []ClientCredentials{
		envCredentials(provider),
		fileCredentials(provider),
		compileTimeCredentials(provider),
	}

	sawID := false
	for _, c := range sources {
		if c.ID != "" && c.Secret != "" {
			return c, nil
		}
		if c.ID != "" {
			sawID = true
		}
	}
	missing := "client_id"
	if sawID {
		missing = "client_secret"
	}
	return ClientCredentials{}, fmt.Errorf("%w: no %s configured for provider %q (set %s or %s)",
		oauth.ErrInvalidConfig, missing, provider, envVar(provider, "CLIENT_ID"), CredentialsPath())
}

func envVar(provider, suffix string) string {
	return "WIXEN_OAUTH_" + strings.ToUpper(provider) + "_" + suffix
}

func envCredentials(provider string) ClientCredentials {
	return ClientCredentials{
		ID:     strings.TrimSpace(os.Getenv(envVar(provider, "CLIENT_ID"))),
		Secret: strings.TrimSpace(os.Getenv(envVar(provider, "CLIENT_SECRET"))),
	}
}

func fileCredentials(provider string) ClientCredentials {
	path := CredentialsPath()
	if path == "" {
		return ClientCredentials{}
	}
	var parsed map[string]tomlCredentials
	if _, err := toml.DecodeFile(path, &parsed); err != nil {
		// archivo ausente o roto: las otras fuentes siguen valiendo
		return ClientCredentials{}
	}
	c := parsed[provider]
	return ClientCredentials{ID: strings.TrimSpace(c.ClientID), Secret: strings.TrimSpace(c.ClientSecret)}
}

// CredentialsPath es la ruta del TOML de credenciales:
// $WIXEN_CREDENTIALS_FILE o <UserConfigDir>/wixen-mail/credentials.toml.
func CredentialsPath() string {
	if p := os.Getenv(credentialsFileEnv); p != "" {
		return p
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "wixen-mail", "credentials.toml")
}
