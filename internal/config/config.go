// Package config carga la configuración de la app (YAML) y resuelve las
// credenciales OAuth de aplicación (el "credential provider seam"):
// variables de entorno → archivo TOML → defaults de compilación.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config es la configuración de la aplicación. Todo es opcional: los
// defaults cubren una instalación sin archivo de config.
type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"env"`
		// debug | info | warn | error
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Store struct {
		// keychain (default) | file
		Backend string `yaml:"backend" validate:"omitempty,oneof=keychain file"`
		// Dir solo aplica al backend file. Default:
		// <UserConfigDir>/wixen-mail/tokens
		Dir string `yaml:"dir"`
	} `yaml:"store"`

	Auth struct {
		// RedirectTimeout acota la espera del redirect del browser.
		// Default: 120s
		RedirectTimeout time.Duration `yaml:"redirect_timeout"`
	} `yaml:"auth"`
}

var validate = validator.New()

// Default returns the zero-config defaults.
func Default() *Config {
	var c Config
	c.App.Env = "dev"
	c.App.LogLevel = "info"
	c.Store.Backend = "keychain"
	c.Auth.RedirectTimeout = 120 * time.Second
	return &c
}

// Load lee el YAML de path. Un path vacío o inexistente devuelve defaults:
// la app funciona sin archivo de config.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Auth.RedirectTimeout <= 0 {
		cfg.Auth.RedirectTimeout = 120 * time.Second
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath es <UserConfigDir>/wixen-mail/config.yaml.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "wixen-mail", "config.yaml")
}

// TokenDir resuelve el directorio del backend file.
func (c *Config) TokenDir() string {
	if c.Store.Dir != "" {
		return c.Store.Dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "wixen-mail-tokens"
	}
	return filepath.Join(base, "wixen-mail", "tokens")
}
