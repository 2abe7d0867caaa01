package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/uhppoted/sheets-inventory/table"
)

var PutCmd = Put{
	command: command{
		workdir: DEFAULT_WORKDIR,
	},
	file: "",
}

type Put struct {
	command
	file string
}

func (c *Put) FlagSet() *flag.FlagSet {
	flagset := c.flagset("put")

	flagset.StringVar(&c.file, "file", c.file, "TSV file")

	return flagset
}

func (c *Put) Execute(args ...any) error {
	cfg, err := c.configure(args)
	if err != nil {
		return err
	}

	if strings.TrimSpace(c.file) == "" {
		return fmt.Errorf("--file is a required option")
	}

	area, err := table.ParseRange(cfg.Sheets.Range)
	if err != nil {
		return err
	}

	f, err := os.Open(c.file)
	if err != nil {
		return err
	}

	defer f.Close()

	rows, err := tsvToRows(f)
	if err != nil {
		return fmt.Errorf("invalid TSV file (%w)", err)
	} else if len(rows) == 0 {
		warnf("TSV file %v has no entries", c.file)
		return nil
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

	existing, err := client.Fetch(ctx, token, spreadsheet, area)
	if err != nil {
		return err
	}

	next := area.Next(len(existing))

	debugf("Spreadsheet - ID:%s  range:%s", spreadsheet, next)

	if err := client.Append(ctx, token, spreadsheet, next, rows); err != nil {
		return err
	}

	infof("Uploaded %v entries from TSV file %v to Google Sheets %v", len(rows), c.file, next)

	return nil
}

func (c *Put) Name() string {
	return "put"
}

func (c *Put) Description() string {
	return "Appends the entries in a TSV file to the Google Sheets inventory"
}

func (c *Put) Usage() string {
	return "[--workdir <dir>] --file <file>"
}

func (c *Put) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [options] put --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Appends the entries in a TSV file (as created by 'get') to the inventory spreadsheet.")
	fmt.Println("  Entries with a checksum that does not match the JSON are rejected.")
	fmt.Println()

	helpOptions(c.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println()
	fmt.Printf("    %s --debug put --file \"inventory.tsv\"\n", APP)
	fmt.Println()
}
