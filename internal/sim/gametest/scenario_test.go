package gametest

import (
	"math"
	"testing"

	"idlekingdom.dev/internal/sim/engine"
	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/ledger"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestEarlyGameProgression(t *testing.T) {
	h := NewHarness(t)

	h.Repeat(10, engine.OpAction, "collect_taxes")
	if !h.Unlocked("first_steps") || !h.Saw(game.EventAchievementUnlocked, "first_steps") {
		t.Fatalf("first_steps not unlocked after 10 clicks")
	}
	if !near(h.Has(ledger.Gold), 60) {
		t.Fatalf("gold=%v want 60", h.Has(ledger.Gold))
	}

	h.Do(engine.OpBuyBuilding, "woodcutter")
	h.Tick(10)
	if !near(h.Has(ledger.Wood), 12) {
		t.Fatalf("wood=%v want 12", h.Has(ledger.Wood))
	}

	h.Reject(engine.OpBuyBuilding, "iron_mine", game.ReasonLocked)
	h.Reject(engine.OpStartResearch, "mining", game.ReasonUnaffordable)
	h.Reject(engine.OpStartResearch, "metallurgy", game.ReasonPrerequisites)

	h.Give(ledger.Gold, 100)
	h.Give(ledger.Wood, 100)
	h.Do(engine.OpStartResearch, "mining")
	h.Reject(engine.OpStartResearch, "trade", game.ReasonResearchBusy)

	h.Tick(59)
	if h.S.Researched("mining") {
		t.Fatalf("mining finished early")
	}
	h.Tick(1)
	if !h.S.Researched("mining") || !h.Saw(game.EventResearchCompleted, "mining") {
		t.Fatalf("mining not researched after 60s")
	}
	h.Reject(engine.OpStartResearch, "mining", game.ReasonResearched)

	h.Give(ledger.Gold, 100)
	h.Give(ledger.Stone, 35)
	h.Do(engine.OpBuyBuilding, "iron_mine")
	if h.S.BuildingCounts.Get(ledger.IronMine) != 1 {
		t.Fatalf("iron mine not built")
	}
	h.Do(engine.OpAction, "smelt_iron")
	if !near(h.Has(ledger.Iron), 1) {
		t.Fatalf("iron=%v want 1", h.Has(ledger.Iron))
	}
}

func TestLoopScenario(t *testing.T) {
	h := NewHarness(t)
	h.Do(engine.OpStartLoop, "gather_wood")
	h.Reject(engine.OpStartLoop, "hunt", game.ReasonCapacity)
	h.Reject(engine.OpStartLoop, "gather_wood", game.ReasonAlreadyActive)

	h.Tick(9)
	if h.Saw(game.EventLoopCompleted, "gather_wood") {
		t.Fatalf("loop completed early")
	}
	h.Tick(1)
	if !h.Saw(game.EventLoopCompleted, "gather_wood") {
		t.Fatalf("loop not completed after 10 ticks")
	}
	if !near(h.Has(ledger.Wood), 8) || !near(h.Has(ledger.Food), 19) {
		t.Fatalf("wood=%v food=%v", h.Has(ledger.Wood), h.Has(ledger.Food))
	}

	h.Do(engine.OpPauseLoop, "gather_wood")
	h.Tick(20)
	if !near(h.Has(ledger.Wood), 8) {
		t.Fatalf("paused loop kept producing")
	}
	h.Do(engine.OpResumeLoop, "gather_wood")
	h.Do(engine.OpStopLoop, "gather_wood")
	h.Do(engine.OpStartLoop, "hunt")
}

func TestPrestigeScenario(t *testing.T) {
	h := NewHarness(t)
	h.Reject(engine.OpPrestige, "", game.ReasonNoGain)

	h.Do(engine.OpBuyBuilding, "woodcutter")
	h.Earn(ledger.Gold, 4_000_000)
	if g := h.Eng.PrestigeGain(h.S); g != 2 {
		t.Fatalf("prestige gain=%v want 2", g)
	}
	h.Do(engine.OpPrestige, "")

	if !near(h.Has(ledger.Crowns), 2) || !near(h.Has(ledger.Gold), 50) {
		t.Fatalf("crowns=%v gold=%v", h.Has(ledger.Crowns), h.Has(ledger.Gold))
	}
	if h.S.BuildingCounts.Total() != 0 {
		t.Fatalf("buildings survived prestige")
	}
	if !h.Unlocked("reborn") || !h.Unlocked("golden_age") {
		t.Fatalf("prestige achievements missing: %v", h.S.Achievements.Unlocked)
	}
	h.Reject(engine.OpPrestige, "", game.ReasonNoGain)

	h.Do(engine.OpBuyUpgrade, "royal_decree")
	if !near(h.Has(ledger.Crowns), 1) || h.S.UpgradeLevels["royal_decree"] != 1 {
		t.Fatalf("upgrade purchase: crowns=%v", h.Has(ledger.Crowns))
	}
	h.Reject(engine.OpBuyUpgrade, "royal_decree", game.ReasonUnaffordable)
	h.Reject(engine.OpBuyUpgrade, "no_such_upgrade", game.ReasonUnknownID)
}
