package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/uhppoted/sheets-inventory/table"
)

var GetCmd = Get{
	command: command{
		workdir: DEFAULT_WORKDIR,
	},

	file: time.Now().Format("inventory-2006-01-02T150405.tsv"),
}

type Get struct {
	command
	file string
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Retrieves the entity inventory from Google Sheets and stores it to a local TSV file"
}

func (cmd *Get) Usage() string {
	return "[--workdir <dir>] --file <file>"
}

func (cmd *Get) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] get [options] --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads the inventory spreadsheet to a TSV file")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s --debug get --file \"inventory.tsv\"\n", APP)
	fmt.Println()
}

func (cmd *Get) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("get")

	flagset.StringVar(&cmd.file, "file", cmd.file, "TSV file name. Defaults to 'inventory-<yyyy-mm-ddTHHmmss>.tsv'")

	return flagset
}

func (cmd *Get) Execute(args ...any) error {
	cfg, err := cmd.configure(args)
	if err != nil {
		return err
	}

	area, err := table.ParseRange(cfg.Sheets.Range)
	if err != nil {
		return err
	}

	store, closeStore, err := openSettings(cfg)
	if err != nil {
		return err
	}

	defer closeStore()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	client := table.NewClient(cfg.Sheets.Endpoint, log)

	token, spreadsheet, err := authorise(ctx, cfg, client, store)
	if err != nil {
		return err
	}

	debugf("Spreadsheet - ID:%s  range:%s", spreadsheet, area)

	rows, err := client.Fetch(ctx, token, spreadsheet, area)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(os.TempDir(), "inventory")
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := rowsToTSV(tmp, rows); err != nil {
		return fmt.Errorf("error creating TSV file (%v)", err)
	}

	tmp.Close()

	dir := filepath.Dir(cmd.file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), cmd.file); err != nil {
		return err
	}

	infof("Retrieved %v inventory entries to file %s", len(rows), cmd.file)

	return nil
}
