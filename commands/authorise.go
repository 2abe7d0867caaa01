package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/uhppoted/sheets-inventory/table"
)

var AuthoriseCmd = Authorise{
	command: command{
		workdir: DEFAULT_WORKDIR,
	},
}

type Authorise struct {
	command
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Authorises sheets-inventory to access Google Sheets and provisions the inventory spreadsheet"
}

func (cmd *Authorise) Usage() string {
	return "[--workdir <dir>] [--settings <file>]"
}

func (cmd *Authorise) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] authorise [options]\n", APP)
	fmt.Println()
	fmt.Println("  Opens the Google sign-in page in a browser and, if this is the first time,")
	fmt.Println("  creates the inventory spreadsheet and saves its ID to the settings file")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s authorise --workdir ./.inventory\n", APP)
	fmt.Println()
}

func (cmd *Authorise) FlagSet() *flag.FlagSet {
	return cmd.flagset("authorise")
}

func (cmd *Authorise) Execute(args ...any) error {
	cfg, err := cmd.configure(args)
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

	_, spreadsheet, err := authorise(ctx, cfg, client, store)
	if err != nil {
		return err
	}

	infof("Authorised access to spreadsheet %v", spreadsheet)
	fmt.Printf("https://docs.google.com/spreadsheets/d/%s\n", spreadsheet)

	return nil
}
