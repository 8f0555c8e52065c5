package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/wixenmail/wixen/internal/auth"
	"github.com/wixenmail/wixen/internal/config"
	"github.com/wixenmail/wixen/internal/mailauth"
	"github.com/wixenmail/wixen/internal/oauth"
	"github.com/wixenmail/wixen/internal/oauth/provider"
	"github.com/wixenmail/wixen/internal/observability/logger"
	"github.com/wixenmail/wixen/internal/store"
)

var version = "dev" // ldflags

func main() {
	_ = godotenv.Load()

	var (
		cfgPath      = envOr("WIXEN_CONFIG", config.DefaultPath())
		providerName string
		out          = envOr("WIXEN_OUT", "text")
	)

	var cfg *config.Config
	var tokens store.TokenStore

	root := &cobra.Command{
		Use:     "wixen-auth",
		Short:   "Autorización OAuth de cuentas de correo de Wixen Mail",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgPath)
			if err != nil {
				return err
			}
			logger.Init(logger.Config{
				Env:     cfg.App.Env,
				Level:   cfg.App.LogLevel,
				AppName: "wixen-auth",
				Version: version,
			})
			tokens, err = buildStore(cfg)
			return err
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", cfgPath, "Ruta del archivo de configuración (env WIXEN_CONFIG)")
	root.PersistentFlags().StringVar(&providerName, "provider", "", "Provider OAuth (gmail|outlook); por defecto se detecta del dominio del email")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	// login <email>
	var loginTimeout time.Duration
	loginCmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Autorizar una cuenta vía browser (PKCE + loopback)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildManager(cfg, tokens, providerName, args[0], auth.WithRedirectTimeout(loginTimeout))
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintln(os.Stderr, "Abriendo el navegador; completá la autorización ahí...")
			ts, err := m.Authorize(ctx)
			if err != nil {
				return err
			}
			if ts.IDToken != "" {
				if id, ierr := mailauth.FromIDToken(ts.IDToken); ierr == nil && id.Email != "" {
					fmt.Fprintf(os.Stderr, "Cuenta verificada por el provider: %s\n", id.Email)
				}
			}
			if out == "json" {
				return printJSON(map[string]any{
					"provider":   m.Provider(),
					"account":    m.AccountID(),
					"scope":      ts.Scope,
					"expires_at": ts.ExpiresAt,
				})
			}
			fmt.Printf("ok: %s autorizada (%s)\n", m.AccountID(), m.Provider())
			return nil
		},
	}
	loginCmd.Flags().DurationVar(&loginTimeout, "timeout", 2*time.Minute, "Cuánto esperar el redirect del browser")

	// token <email>: imprime un access token vigente (para debug / scripts)
	tokenCmd := &cobra.Command{
		Use:   "token <email>",
		Short: "Imprimir un access token vigente (refresca si hace falta)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildManager(cfg, tokens, providerName, args[0])
			if err != nil {
				return err
			}
			tok, err := m.GetValidToken(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}

	// status <email>
	statusCmd := &cobra.Command{
		Use:   "status <email>",
		Short: "Estado de autorización de una cuenta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prov, err := resolveProvider(providerName, args[0])
			if err != nil {
				return err
			}
			ts, err := tokens.Get(prov.Name, args[0])
			st := map[string]any{"provider": prov.Name, "account": args[0]}
			switch {
			case errors.Is(err, oauth.ErrCorruptStore):
				st["state"] = "corrupt"
			case err != nil:
				return err
			case ts == nil:
				st["state"] = "not_authorized"
			case ts.Valid(time.Now(), auth.RefreshSkew):
				st["state"] = "authorized"
				if left, ok := ts.ExpiresIn(time.Now()); ok {
					st["expires_in"] = left.Round(time.Second).String()
				}
			case ts.RefreshToken != "":
				st["state"] = "needs_refresh"
			default:
				st["state"] = "reauthorization_required"
			}
			if out == "json" {
				return printJSON(st)
			}
			fmt.Printf("%s (%s): %s\n", args[0], prov.Name, st["state"])
			return nil
		},
	}

	// revoke <email>
	revokeCmd := &cobra.Command{
		Use:   "revoke <email>",
		Short: "Revocar y borrar los tokens de una cuenta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildManager(cfg, tokens, providerName, args[0])
			if err != nil {
				return err
			}
			if err := m.Revoke(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("ok: %s revocada\n", m.AccountID())
			return nil
		},
	}

	// providers
	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "Listar providers soportados",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "json" {
				return printJSON(provider.Names())
			}
			for _, name := range provider.Names() {
				fmt.Println(name)
			}
			return nil
		},
	}

	root.AddCommand(loginCmd, tokenCmd, statusCmd, revokeCmd, providersCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, friendly(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func buildStore(cfg *config.Config) (store.TokenStore, error) {
	switch cfg.Store.Backend {
	case "file":
		return store.NewFile(afero.NewOsFs(), cfg.TokenDir())
	default:
		return store.NewKeyring(), nil
	}
}

func resolveProvider(flag, email string) (provider.Descriptor, error) {
	if flag != "" {
		d, ok := provider.Lookup(flag)
		if !ok {
			return provider.Descriptor{}, fmt.Errorf("%w: %q (ver `wixen-auth providers`)", oauth.ErrUnknownProvider, flag)
		}
		return d, nil
	}
	name, ok := provider.DetectFromEmail(email)
	if !ok {
		return provider.Descriptor{}, fmt.Errorf("%w: no se pudo detectar el provider para %q; usá --provider", oauth.ErrUnknownProvider, email)
	}
	d, _ := provider.Lookup(name)
	return d, nil
}

func buildManager(cfg *config.Config, tokens store.TokenStore, flag, email string, opts ...auth.Option) (*auth.Manager, error) {
	d, err := resolveProvider(flag, email)
	if err != nil {
		return nil, err
	}
	creds, err := config.ResolveCredentials(d.Name)
	if err != nil {
		return nil, err
	}
	return auth.NewManager(d.Name, strings.ToLower(email), creds, tokens, opts...), nil
}

// friendly traduce los sentinels a mensajes accionables para la terminal.
func friendly(err error) string {
	switch {
	case errors.Is(err, oauth.ErrNotAuthorized):
		return "la cuenta no está autorizada; corré `wixen-auth login <email>`"
	case errors.Is(err, oauth.ErrReauthorizationRequired):
		return "la autorización expiró o fue revocada; corré `wixen-auth login <email>` de nuevo"
	case errors.Is(err, oauth.ErrServerBindFailed):
		return err.Error()
	case errors.Is(err, oauth.ErrTimeout):
		return "se agotó el tiempo esperando la autorización en el browser"
	default:
		return err.Error()
	}
}

func printJSON(v any) error {
	p, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(p))
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
