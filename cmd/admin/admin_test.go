package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"idlekingdom.dev/internal/persistence/journal"
	"idlekingdom.dev/internal/persistence/snapshot"
	"idlekingdom.dev/internal/persistence/store"
	"idlekingdom.dev/internal/persistence/transfer"
	"idlekingdom.dev/internal/sim/engine"
	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/gametest"
)

func TestSimulateBulkMatchesStepped(t *testing.T) {
	eng := gametest.Engine(t, nil)
	s := eng.NewGame(0)
	res := eng.Apply(s, engine.Command{Op: engine.OpBuyBuilding, ID: "woodcutter"})
	if !res.OK {
		t.Fatalf("buy woodcutter: %s", res.Reason)
	}
	tick := eng.Tuning().TickSeconds()
	for _, k := range []float64{1, 4, 15} {
		step := k * tick
		got := simulate(eng, res.State, 120*tick, step)
		if !got.Match() {
			t.Fatalf("step %v: bulk %s stepped %s", step, got.BulkSum, got.SteppedSum)
		}
		if got.Bulk.Tick == 0 {
			t.Fatalf("step %v: no ticks applied", step)
		}
	}
}

func TestReadExportText(t *testing.T) {
	if _, err := readExportText(strings.NewReader("  \n"), nil, false); err == nil {
		t.Fatalf("expected error for empty input")
	}
	got, err := readExportText(strings.NewReader(" IK1.abc \n"), nil, false)
	if err != nil || got != "IK1.abc" {
		t.Fatalf("stdin: %q %v", got, err)
	}
	path := filepath.Join(t.TempDir(), "save.txt")
	if err := os.WriteFile(path, []byte("IK1.def\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = readExportText(nil, []string{path}, false)
	if err != nil || got != "IK1.def" {
		t.Fatalf("file: %q %v", got, err)
	}
	if _, err := readExportText(nil, []string{path}, true); err == nil {
		t.Fatalf("expected error for --clipboard with FILE")
	}
}

func TestImportThenMigrate(t *testing.T) {
	dir := t.TempDir()
	cfg := gametest.ConfigDir(t)
	eng := gametest.Engine(t, nil)
	text, err := transfer.Export(eng.NewGame(1000))
	if err != nil {
		t.Fatal(err)
	}
	in := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(in, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	save := filepath.Join(dir, "save.zst")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--configs", cfg, "--save", save, "import", in})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("import: %v", err)
	}
	fs := store.NewFileStore(save, snapshot.Defaults{Loop: eng.LoopDefaults()})
	s, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("load imported: %v", err)
	}
	if s.ClockMs != 1000 {
		t.Fatalf("ClockMs=%d want 1000", s.ClockMs)
	}

	out := filepath.Join(dir, "migrated.zst")
	root = newRootCmd()
	root.SetArgs([]string{"--configs", cfg, "migrate", save, out})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	payload, err := snapshot.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	h, _, err := snapshot.ReadHeader(payload)
	if err != nil || h.Version != snapshot.CurrentVersion {
		t.Fatalf("header %+v err %v", h, err)
	}
}

func TestReadJournalFilters(t *testing.T) {
	dir := t.TempDir()
	w := journal.New(dir, "events")
	const hour = int64(3600 * 1000)
	evs := []game.Event{
		{Tick: 1, AtMs: 0, Kind: "building_bought", Subject: "woodcutter"},
		{Tick: 2, AtMs: 1000, Kind: "loop_completed", Subject: "patrol"},
		{Tick: 3601, AtMs: hour + 1000, Kind: "building_bought", Subject: "farm"},
	}
	if err := w.Write(evs...); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	all, err := readJournal(dir, journalFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("all: %d %v", len(all), err)
	}
	bought, err := readJournal(dir, journalFilter{kind: "building_bought", fromTick: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(bought) != 1 || bought[0].Subject != "farm" {
		t.Fatalf("filtered: %+v", bought)
	}
	if _, err := readJournal(t.TempDir(), journalFilter{}); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}
