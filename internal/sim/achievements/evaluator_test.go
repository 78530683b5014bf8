package achievements

import (
	"reflect"
	"testing"

	"idlekingdom.dev/internal/sim/catalogs"
	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/ledger"
)

func testCatalog() *catalogs.Catalogs {
	return &catalogs.Catalogs{
		Achievements: catalogs.AchievementCatalog{
			ByID: map[string]catalogs.AchievementDef{
				"rich": {ID: "rich", Name: "Rich", Points: 10, Rarity: "common",
					Requirements: []catalogs.Requirement{{Kind: catalogs.ReqResource, Resource: ledger.Gold, Threshold: 100}},
					Rewards:      []catalogs.Reward{{Target: catalogs.TargetCost, Factor: 0.9}}},
				"builder": {ID: "builder", Name: "Builder", Points: 20, Rarity: "rare",
					Requirements: []catalogs.Requirement{
						{Kind: catalogs.ReqBuilding, Building: ledger.Farm, Threshold: 2},
						{Kind: catalogs.ReqLifetime, Resource: ledger.Wood, Threshold: 50},
					},
					Rewards: []catalogs.Reward{{Target: catalogs.TargetProduction, AllResources: true, Factor: 1.5, Permanent: true}}},
				"clicker": {ID: "clicker", Name: "Clicker", Points: 5,
					Requirements: []catalogs.Requirement{{Kind: catalogs.ReqClicks, Threshold: 3}}},
			},
			Order: []string{"rich", "builder", "clicker"},
		},
	}
}

func TestUnlockIsMonotonicAndIdempotent(t *testing.T) {
	cat := testCatalog()
	s := game.New(1000, ledger.Amounts{}, game.LoopSettings{})
	s.Resources.Set(ledger.Gold, 150)

	s, events := Check(s, cat)
	if len(events) != 1 || events[0].Subject != "rich" {
		t.Fatalf("events=%+v", events)
	}
	if s.Achievements.Unlocked["rich"] != 1000 || s.Achievements.TotalPoints != 10 {
		t.Fatalf("unlock not recorded: %+v", s.Achievements)
	}
	if s.AchievementMultipliers.Cost != 0.9 {
		t.Fatalf("reward not merged: %+v", s.AchievementMultipliers)
	}

	again, events := Check(s, cat)
	if len(events) != 0 || !reflect.DeepEqual(again, s) {
		t.Fatalf("second check must be a no-op")
	}

	s.Resources.Set(ledger.Gold, 0)
	s, _ = Check(s, cat)
	if _, ok := s.Achievements.Unlocked["rich"]; !ok {
		t.Fatalf("unlock revoked after requirement failed")
	}
	if s.Achievements.TotalPoints != 10 {
		t.Fatalf("points double counted: %d", s.Achievements.TotalPoints)
	}
}

func TestCompoundRequiresAll(t *testing.T) {
	cat := testCatalog()
	s := game.New(0, ledger.Amounts{}, game.LoopSettings{})
	s.BuildingCounts.Set(ledger.Farm, 2)
	s.LifetimeResources.Set(ledger.Wood, 25)

	s, events := Check(s, cat)
	if len(events) != 0 {
		t.Fatalf("compound unlocked early: %+v", events)
	}
	if got := s.Achievements.Progress["builder"]; got != 50 {
		t.Fatalf("progress=%v", got)
	}
	s.LifetimeResources.Set(ledger.Wood, 50)
	s, events = Check(s, cat)
	if len(events) != 1 || events[0].Subject != "builder" {
		t.Fatalf("events=%+v", events)
	}
	if s.AchievementMultipliers.Production.Get(ledger.Iron) != 1.5 {
		t.Fatalf("production reward missing: %+v", s.AchievementMultipliers.Production)
	}
}

func TestNotificationsQueueAndDrain(t *testing.T) {
	cat := testCatalog()
	s := game.New(5, ledger.Amounts{}, game.LoopSettings{})
	s.Stats.Clicks = 3
	s.Resources.Set(ledger.Gold, 100)
	s, _ = Check(s, cat)
	if len(s.Achievements.Pending) != 2 {
		t.Fatalf("pending=%+v", s.Achievements.Pending)
	}
	s, popped := Drain(s)
	if len(popped) != 2 || popped[0].AchievementID != "rich" || popped[1].AchievementID != "clicker" {
		t.Fatalf("drained=%+v", popped)
	}
	if len(s.Achievements.Pending) != 0 {
		t.Fatalf("queue not cleared")
	}
}

func TestRebuildBonusPermanentOnly(t *testing.T) {
	cat := testCatalog()
	unlocked := map[string]int64{"rich": 1, "builder": 2}
	all := RebuildBonus(unlocked, cat, false)
	if all.Cost != 0.9 || all.Production.Get(ledger.Gold) != 1.5 {
		t.Fatalf("all=%+v", all)
	}
	perm := RebuildBonus(unlocked, cat, true)
	if perm.Cost != 0 || perm.Production.Get(ledger.Gold) != 1.5 {
		t.Fatalf("perm=%+v", perm)
	}
}
