// Package config loads the inventory configuration from INVENTORY_ prefixed
// environment variables. Command line flags override individual fields.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/uhppoted/sheets-inventory/table"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Config struct {
	OAuth    OAuth    `envPrefix:"OAUTH_"`
	Sheets   Sheets   `envPrefix:"SHEETS_"`
	Settings Settings `envPrefix:"SETTINGS_"`
	Panel    string   `env:"PANEL" envDefault:"localhost:8416"`
	World    string   `env:"WORLD"`
	Debug    bool     `env:"DEBUG"`
}

// OAuth holds the implicit grant parameters. The defaults are those of the
// registered desktop client.
type OAuth struct {
	ClientID    string `env:"CLIENT_ID" envDefault:"172641056593-nemn2u9qbfe0ttvn92k1nd9eafiae3te.apps.googleusercontent.com"`
	RedirectURI string `env:"REDIRECT_URI" envDefault:"http://localhost:8415"`
	Scope       string `env:"SCOPE" envDefault:"https://www.googleapis.com/auth/spreadsheets"`
	Prompt      string `env:"PROMPT" envDefault:"none"`
	AuthURL     string `env:"AUTH_URL" envDefault:"https://accounts.google.com/o/oauth2/v2/auth"`
}

type Sheets struct {
	Endpoint string `env:"ENDPOINT" envDefault:"https://sheets.googleapis.com/"`
	Title    string `env:"TITLE" envDefault:"Hifi Entity Inventory"`
	Range    string `env:"RANGE" envDefault:"A1:F"`
}

type Settings struct {
	Path    string `env:"PATH"`
	Backend string `env:"BACKEND" envDefault:"file"`
}

// Load parses the environment into a Config. It does not validate - call
// Validate once the command line flags have been applied.
func Load() (*Config, error) {
	cfg := Config{}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "INVENTORY_"}); err != nil {
		return nil, fmt.Errorf("error parsing environment (%w)", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.OAuth.ClientID) == "" {
		return fmt.Errorf("missing OAuth client ID")
	}

	if u, err := url.Parse(c.OAuth.RedirectURI); err != nil {
		return fmt.Errorf("invalid redirect URI '%s' (%w)", c.OAuth.RedirectURI, err)
	} else if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("invalid redirect URI '%s' - expected something like 'http://localhost:8415'", c.OAuth.RedirectURI)
	}

	if _, err := table.ParseRange(c.Sheets.Range); err != nil {
		return fmt.Errorf("%w - expected something like 'A1:F' or 'Inventory!A1:F'", err)
	}

	switch c.Settings.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown settings backend '%s'", c.Settings.Backend)
	}

	return nil
}
