package tuning

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"idlekingdom.dev/internal/sim/ledger"
)

func TestLoadRepoTuning(t *testing.T) {
	tu, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.TickDurationMs != 1000 {
		t.Fatalf("tick_duration_ms=%d", tu.TickDurationMs)
	}
	if tu.PrestigeBasis() != ledger.Gold {
		t.Fatalf("basis=%v", tu.PrestigeBasis())
	}
	if tu.Precision(ledger.Knowledge) != 1 {
		t.Fatalf("knowledge precision=%d", tu.Precision(ledger.Knowledge))
	}
}

func TestLoadAppliesDefaultsAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(path, []byte("autosave_every_ticks: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tu, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.AutosaveEveryTicks != 5 || tu.TickDurationMs != 1000 || tu.Loop.BasePointsPerTick != 100 {
		t.Fatalf("unexpected tuning: %+v", tu)
	}

	bad := []string{
		"tick_duration_ms: 0\n",
		"loop:\n  base_points_per_tick: -1\n",
		"prestige:\n  basis_resource: mithril\n",
		"starting_resources:\n  zinc: 3\n",
	}
	for _, body := range bad {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Load(path)
		if err == nil || !strings.HasPrefix(err.Error(), "tuning.yaml: ") {
			t.Fatalf("%q: expected tuning.yaml error, got %v", body, err)
		}
	}
}
