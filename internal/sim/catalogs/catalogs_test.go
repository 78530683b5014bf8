package catalogs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"idlekingdom.dev/internal/sim/ledger"
)

const repoConfigs = "../../../configs"

func TestLoadRepoCatalogs(t *testing.T) {
	c, err := Load(repoConfigs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", c.Warnings)
	}
	wc, ok := c.Buildings.ByID[ledger.Woodcutter]
	if !ok || wc.Production.Get(ledger.Wood) != 1.2 {
		t.Fatalf("woodcutter def: %+v", wc)
	}
	if len(c.Buildings.ByID) != ledger.NumBuildings {
		t.Fatalf("buildings=%d", len(c.Buildings.ByID))
	}
	if got := c.Technologies.Order[0]; got != "mining" {
		t.Fatalf("technology order starts with %q", got)
	}
	ach := c.Achievements.ByID["balanced_economy"]
	if len(ach.Requirements) != 3 || ach.Requirements[2].Kind != ReqLifetime || ach.Requirements[2].Resource != ledger.Stone {
		t.Fatalf("balanced_economy requirements: %+v", ach.Requirements)
	}
	if up := c.Upgrades.ByID["royal_decree"]; !up.Reward.AllResources || up.Reward.Target != TargetProduction {
		t.Fatalf("royal_decree reward: %+v", up.Reward)
	}
	if len(c.Digest()) != 64 {
		t.Fatalf("digest=%q", c.Digest())
	}
}

func copyConfigs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	entries, err := os.ReadDir(repoConfigs)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		b, err := os.ReadFile(filepath.Join(repoConfigs, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, e.Name()), b, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadWarnsOnDanglingReferences(t *testing.T) {
	dir := copyConfigs(t)
	loops := `[
  {"id": "hunt", "name": "Hunt", "points_required": 100, "gains": {"food": 1, "mithril": 2}, "unlock": {"technology": "alchemy", "buildings": {"castle": 1}}}
]`
	if err := os.WriteFile(filepath.Join(dir, "loop_actions.json"), []byte(loops), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{`unknown resource "mithril"`, `unknown technology "alchemy"`, `unknown building "castle"`}
	all := strings.Join(c.Warnings, "\n")
	for _, w := range want {
		if !strings.Contains(all, w) {
			t.Fatalf("missing warning %q in:\n%s", w, all)
		}
	}
	if c.LoopActions.ByID["hunt"].Gains.Get(ledger.Food) != 1 {
		t.Fatalf("known gains must survive")
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	dir := copyConfigs(t)
	bad := `[{"id": "woodcutter", "name": "Woodcutter", "base_cost": {"gold": -1}, "cost_growth": 1.1}]`
	if err := os.WriteFile(filepath.Join(dir, "buildings.json"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(dir)
	if err == nil || !strings.HasPrefix(err.Error(), "buildings.json: ") {
		t.Fatalf("expected buildings.json schema error, got %v", err)
	}
}
