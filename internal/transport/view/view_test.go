package view

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"idlekingdom.dev/internal/sim/engine"
	"idlekingdom.dev/internal/sim/gametest"
	"idlekingdom.dev/internal/sim/ledger"
)

func TestStateViewMatchesSchema(t *testing.T) {
	h := gametest.NewHarness(t)
	h.Give(ledger.Gold, 500)
	h.Give(ledger.Wood, 200)
	h.Do(engine.OpBuyBuilding, "woodcutter")
	h.Do(engine.OpBuyBuilding, "quarry")
	h.Do(engine.OpStartLoop, "gather_wood")
	h.Do(engine.OpStartResearch, "mining")
	h.Tick(15)

	v := State(h.Eng, h.S)
	if v.Research == nil || v.Research.Technology != "mining" || v.Research.Progress != 25 {
		t.Fatalf("research view: %+v", v.Research)
	}
	if len(v.Loops) != 1 || v.Loops[0].Completed != 1 || v.Loops[0].Progress != 50 {
		t.Fatalf("loop view: %+v", v.Loops)
	}
	var sawLockedMine bool
	for _, b := range v.Buildings {
		if b.ID == "iron_mine" {
			sawLockedMine = b.Locked && !b.CanBuy
		}
	}
	if !sawLockedMine {
		t.Fatalf("iron mine should be locked")
	}

	schema, err := jsonschema.Compile(filepath.Join(gametest.ConfigDir(t), "..", "schemas", "state_view.schema.json"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	b, _ := json.Marshal(v)
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatal(err)
	}
	if err := schema.Validate(doc); err != nil {
		t.Fatalf("view does not match schema: %v\n%s", err, b)
	}
}

func TestCatalogViewFollowsConfigOrder(t *testing.T) {
	e := gametest.Engine(t, nil)
	c := Catalog(e.Catalogs())
	if c.Digest != e.Catalogs().Digest() || len(c.Digest) != 64 {
		t.Fatalf("digest=%q", c.Digest)
	}
	if len(c.Buildings) != 8 || c.Buildings[0].ID != "woodcutter" {
		t.Fatalf("buildings: %+v", c.Buildings)
	}
	if c.Technologies[0].ID != "mining" {
		t.Fatalf("technologies order: %+v", c.Technologies)
	}
	for _, la := range c.LoopActions {
		if la.ID == "study" && (len(la.Requires) != 2 || la.Requires[0] != "writing") {
			t.Fatalf("study requires %v", la.Requires)
		}
	}
}
