package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"idlekingdom.dev/internal/persistence/journal"
	"idlekingdom.dev/internal/sim/game"
)

type journalFilter struct {
	kind     string
	fromTick uint64
	toTick   uint64
}

func (f journalFilter) keep(ev game.Event) bool {
	if f.kind != "" && string(ev.Kind) != f.kind {
		return false
	}
	if ev.Tick < f.fromTick {
		return false
	}
	return f.toTick == 0 || ev.Tick <= f.toTick
}

// readJournal reads every journal file under dir in order and applies f.
func readJournal(dir string, f journalFilter) ([]game.Event, error) {
	files, err := journal.Files(dir, "events")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no journal files in %s", dir)
	}
	var out []game.Event
	for _, p := range files {
		evs, err := journal.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		for _, ev := range evs {
			if f.keep(ev) {
				out = append(out, ev)
			}
		}
	}
	return out, nil
}

func newJournalCmd() *cobra.Command {
	var (
		dir string
		f   journalFilter
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print events from the compressed event journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return errors.New("--dir is required")
			}
			evs, err := readJournal(dir, f)
			if err != nil {
				return err
			}
			table := tablewriter.NewTable(os.Stdout, tablewriter.WithHeader([]string{"Tick", "At", "Kind", "Subject", "Detail"}))
			for _, ev := range evs {
				table.Append([]string{
					strconv.FormatUint(ev.Tick, 10),
					time.UnixMilli(ev.AtMs).UTC().Format(time.RFC3339),
					string(ev.Kind),
					ev.Subject,
					ev.Detail,
				})
			}
			table.Render()
			fmt.Printf("%d events\n", len(evs))
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&dir, "dir", "./data/events", "journal directory")
	fl.StringVar(&f.kind, "kind", "", "only this event kind")
	fl.Uint64Var(&f.fromTick, "from_tick", 0, "first tick (inclusive)")
	fl.Uint64Var(&f.toTick, "to_tick", 0, "last tick (inclusive, 0 = no limit)")
	return cmd
}
