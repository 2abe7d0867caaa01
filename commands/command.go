package commands

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"

	"github.com/uhppoted/sheets-inventory/auth"
	"github.com/uhppoted/sheets-inventory/config"
	"github.com/uhppoted/sheets-inventory/logger"
	"github.com/uhppoted/sheets-inventory/settings"
	"github.com/uhppoted/sheets-inventory/table"
)

const APP = "sheets-inventory"

type Options struct {
	Debug  bool
	Config *config.Config
}

var log = logger.New(APP, false)

// command holds the options shared by every command that talks to the
// spreadsheet.
type command struct {
	workdir  string
	settings string
	backend  string
	debug    bool
}

func (c *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&c.workdir, "workdir", c.workdir, "Directory for working files (settings, etc)")
	flagset.StringVar(&c.settings, "settings", c.settings, "Settings file. Defaults to <workdir>/sheets-inventory.json (or .db for the sqlite backend)")
	flagset.StringVar(&c.backend, "backend", c.backend, "Settings backend ('file' or 'sqlite')")

	return flagset
}

// configure applies the command line overrides to the configuration loaded
// from the environment.
func (c *command) configure(args []any) (*config.Config, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing command options")
	}

	options, ok := args[0].(*Options)
	if !ok || options.Config == nil {
		return nil, fmt.Errorf("invalid command options")
	}

	cfg := *options.Config

	c.debug = options.Debug || cfg.Debug
	log = logger.New(APP, c.debug)

	if strings.TrimSpace(c.backend) != "" {
		cfg.Settings.Backend = c.backend
	}

	if strings.TrimSpace(c.settings) != "" {
		cfg.Settings.Path = c.settings
	}

	if cfg.Settings.Path == "" {
		switch cfg.Settings.Backend {
		case config.BackendSQLite:
			cfg.Settings.Path = filepath.Join(c.workdir, "sheets-inventory.db")
		default:
			cfg.Settings.Path = filepath.Join(c.workdir, "sheets-inventory.json")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func openSettings(cfg *config.Config) (settings.Store, func(), error) {
	switch cfg.Settings.Backend {
	case config.BackendSQLite:
		db, err := settings.OpenSQLite(cfg.Settings.Path)
		if err != nil {
			return nil, nil, err
		}

		return db, func() { db.Close() }, nil

	default:
		return settings.NewFile(cfg.Settings.Path), func() {}, nil
	}
}

func newFlow(cfg *config.Config) (*auth.Flow, error) {
	surface, err := auth.NewLoopback(cfg.OAuth.RedirectURI, log)
	if err != nil {
		return nil, err
	}

	return auth.NewFlow(auth.Config{
		ClientID:    cfg.OAuth.ClientID,
		RedirectURI: cfg.OAuth.RedirectURI,
		Scope:       cfg.OAuth.Scope,
		Prompt:      cfg.OAuth.Prompt,
		AuthURL:     cfg.OAuth.AuthURL,
	}, surface, log), nil
}

// authorise runs the interactive auth flow and returns the token together
// with the spreadsheet ID, provisioning a new spreadsheet if none has been
// saved yet.
func authorise(ctx context.Context, cfg *config.Config, client *table.Client, store settings.Store) (*oauth2.Token, string, error) {
	flow, err := newFlow(cfg)
	if err != nil {
		return nil, "", err
	}

	token, err := flow.Authenticate(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("authentication/authorization error (%w)", err)
	}

	spreadsheet, err := settings.Lookup(store, settings.SpreadsheetID)
	if err != nil {
		return nil, "", err
	}

	if spreadsheet == "" {
		infof("Creating new Google spreadsheet '%v'", cfg.Sheets.Title)

		if spreadsheet, err = client.Create(ctx, token, cfg.Sheets.Title); err != nil {
			return nil, "", err
		}

		if err := store.Set(settings.SpreadsheetID, spreadsheet); err != nil {
			return nil, "", fmt.Errorf("error saving spreadsheet ID (%w)", err)
		}
	}

	return token, spreadsheet, nil
}

func helpOptions(flagset *flag.FlagSet) {
	count := 0
	flag.VisitAll(func(f *flag.Flag) {
		count++
	})

	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
	})

	if count > 0 {
		fmt.Println()
		fmt.Println("  Options:")
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
		})
	}
}

func normalise(v string) string {
	return strings.ToLower(strings.ReplaceAll(v, " ", ""))
}

func debugf(format string, args ...any) {
	log.Debug().Msgf(format, args...)
}

func infof(format string, args ...any) {
	log.Info().Msgf(format, args...)
}

func warnf(format string, args ...any) {
	log.Warn().Msgf(format, args...)
}
