package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/uhppoted/sheets-inventory/panel"
	"github.com/uhppoted/sheets-inventory/table"
	"github.com/uhppoted/sheets-inventory/world"
)

var RunCmd = Run{
	command: command{
		workdir: DEFAULT_WORKDIR,
	},
}

type Run struct {
	command
	panel string
	world string
}

func (cmd *Run) Name() string {
	return "run"
}

func (cmd *Run) Description() string {
	return "Runs the inventory panel"
}

func (cmd *Run) Usage() string {
	return "[--panel <address>] [--world <file>]"
}

func (cmd *Run) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] run [options]\n", APP)
	fmt.Println()
	fmt.Println("  Serves the inventory panel on a local address. The panel authenticates with Google,")
	fmt.Println("  stores the selected entities to the inventory spreadsheet and rezzes entities from it.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s run --panel localhost:8416 --world world.json\n", APP)
	fmt.Println()
}

func (cmd *Run) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("run")

	flagset.StringVar(&cmd.panel, "panel", cmd.panel, "Address for the panel HTTP server e.g. 'localhost:8416'")
	flagset.StringVar(&cmd.world, "world", cmd.world, "JSON file with the entities to load into the world (all initially selected)")

	return flagset
}

func (cmd *Run) Execute(args ...any) error {
	cfg, err := cmd.configure(args)
	if err != nil {
		return err
	}

	if strings.TrimSpace(cmd.panel) != "" {
		cfg.Panel = cmd.panel
	}

	if strings.TrimSpace(cmd.world) != "" {
		cfg.World = cmd.world
	}

	area, err := table.ParseRange(cfg.Sheets.Range)
	if err != nil {
		return err
	}

	w := world.NewMemory()
	if cfg.World != "" {
		if w, err = world.Load(cfg.World); err != nil {
			return err
		}

		infof("Loaded %v entities from %v", len(w.Entities()), cfg.World)
	}

	store, closeStore, err := openSettings(cfg)
	if err != nil {
		return err
	}

	defer closeStore()

	flow, err := newFlow(cfg)
	if err != nil {
		return err
	}

	host := panel.NewHost(log)
	client := table.NewClient(cfg.Sheets.Endpoint, log)
	config := panel.Config{
		Title: cfg.Sheets.Title,
		Range: area,
	}

	controller, err := panel.NewController(config, flow, client, w, store, host, log)
	if err != nil {
		return err
	}

	host.Attach(controller)

	// ... CTRL-C handler
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- host.Start(cfg.Panel)
	}()

	go func() {
		errs <- controller.Run(ctx)
	}()

	controller.SetVisible(true)

	fmt.Printf("Inventory panel running at http://%v\n", cfg.Panel)

	select {
	case <-ctx.Done():
		fmt.Printf("\n.. cancelled\n\n")

	case err = <-errs:
		if errors.Is(err, context.Canceled) {
			err = nil
		} else if err != nil {
			warnf("%v", err)
		}
	}

	cancel()

	shutdown, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()

	if err := host.Shutdown(shutdown); err != nil {
		warnf("%v", err)
	}

	return err
}
