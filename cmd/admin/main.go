package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"idlekingdom.dev/internal/persistence/savedb"
	"idlekingdom.dev/internal/persistence/snapshot"
	"idlekingdom.dev/internal/persistence/store"
	"idlekingdom.dev/internal/sim/catalogs"
	"idlekingdom.dev/internal/sim/engine"
	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/tuning"
)

type globalFlags struct {
	configDir  string
	tuningPath string
	savePath   string
	dbPath     string
	slot       string
	debug      bool
}

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	okColor    = color.New(color.FgGreen, color.Bold)
	badColor   = color.New(color.FgRed, color.Bold)
	warnColor  = color.New(color.FgYellow)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Inspect, simulate and move idle kingdom saves",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.configDir, "configs", "./configs", "config directory")
	pf.StringVar(&g.tuningPath, "tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
	pf.StringVar(&g.savePath, "save", "", "zstd save file")
	pf.StringVar(&g.dbPath, "db", "", "sqlite save database (used when --save is empty)")
	pf.StringVar(&g.slot, "slot", savedb.DefaultSlot, "save slot in the sqlite database")
	pf.BoolVar(&g.debug, "debug", false, "debug logging")

	root.AddCommand(
		newInspectCmd(g),
		newSimulateCmd(g),
		newExportCmd(g),
		newImportCmd(g),
		newMigrateCmd(g),
		newHistoryCmd(g),
		newJournalCmd(),
	)
	return root
}

func (g *globalFlags) logger() *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{Prefix: "admin"})
	if g.debug {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

func (g *globalFlags) engine() (*engine.Engine, error) {
	cats, err := catalogs.Load(g.configDir)
	if err != nil {
		return nil, err
	}
	tp := strings.TrimSpace(g.tuningPath)
	if tp == "" {
		tp = filepath.Join(g.configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		return nil, err
	}
	return engine.New(cats, tune, g.logger().With("component", "engine"))
}

// openStore returns the store the flags point at and a closer for it.
func (g *globalFlags) openStore(eng *engine.Engine) (store.Port, func(), error) {
	d := snapshot.Defaults{Loop: eng.LoopDefaults()}
	if p := strings.TrimSpace(g.savePath); p != "" {
		return store.NewFileStore(p, d), func() {}, nil
	}
	if p := strings.TrimSpace(g.dbPath); p != "" {
		db, err := savedb.Open(p, savedb.Options{Slot: g.slot, Defaults: d})
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	}
	return nil, nil, errors.New("one of --save or --db is required")
}

func (g *globalFlags) loadState(ctx context.Context, eng *engine.Engine) (game.State, error) {
	st, closeFn, err := g.openStore(eng)
	if err != nil {
		return game.State{}, err
	}
	defer closeFn()
	return st.Load(ctx)
}
