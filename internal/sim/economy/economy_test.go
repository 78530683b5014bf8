package economy

import (
	"math"
	"testing"

	"idlekingdom.dev/internal/sim/catalogs"
	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/ledger"
	"idlekingdom.dev/internal/sim/multipliers"
)

func amounts(m map[string]float64) ledger.Amounts {
	a, _ := ledger.ParseAmounts(m)
	return a
}

func testCatalog() *catalogs.Catalogs {
	return &catalogs.Catalogs{
		Buildings: catalogs.BuildingCatalog{ByID: map[ledger.Building]catalogs.BuildingDef{
			ledger.Woodcutter: {ID: ledger.Woodcutter, BaseCost: amounts(map[string]float64{"gold": 10}), CostGrowth: 1.15, Production: amounts(map[string]float64{"wood": 1.2})},
			ledger.Quarry:     {ID: ledger.Quarry, BaseCost: amounts(map[string]float64{"gold": 20, "wood": 5}), CostGrowth: 2, Production: amounts(map[string]float64{"stone": 1}), Consumption: amounts(map[string]float64{"food": 0.5})},
		}},
		Technologies: catalogs.TechnologyCatalog{ByID: map[string]catalogs.TechnologyDef{
			"mining": {ID: "mining", Cost: amounts(map[string]float64{"gold": 100})},
		}},
		Upgrades: catalogs.UpgradeCatalog{ByID: map[string]catalogs.UpgradeDef{
			"decree": {ID: "decree", BaseCost: 3, CostGrowth: 2, MaxLevel: 5},
		}},
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNetPerSecond(t *testing.T) {
	s := game.New(0, ledger.Amounts{}, game.LoopSettings{})
	s.BuildingCounts.Set(ledger.Woodcutter, 2)
	s.BuildingCounts.Set(ledger.Quarry, 3)
	s.BuildingCounts.Set(ledger.Temple, 4) // no definition: skipped

	mul := multipliers.Neutral()
	mul.Production[ledger.Wood] = 2
	mul.Consumption[ledger.Food] = 0.5
	net := NetPerSecond(s, testCatalog(), mul)
	if !near(net.Get(ledger.Wood), 4.8) || !near(net.Get(ledger.Stone), 3) || !near(net.Get(ledger.Food), -0.75) {
		t.Fatalf("net=%+v", net)
	}
	if net.Get(ledger.Mana) != 0 {
		t.Fatalf("undefined temple must not produce")
	}
}

func TestApplyRatesClampsAndTracksLifetime(t *testing.T) {
	var start ledger.Amounts
	start.Set(ledger.Food, 1)
	s := game.New(0, start, game.LoopSettings{})
	rate := amounts(map[string]float64{"wood": 1.2, "food": -0.5})

	out := ApplyRates(s, rate, 10)
	if !near(out.Resources.Get(ledger.Wood), 12) || !near(out.LifetimeResources.Get(ledger.Wood), 12) {
		t.Fatalf("wood=%v lifetime=%v", out.Resources.Get(ledger.Wood), out.LifetimeResources.Get(ledger.Wood))
	}
	if out.Resources.Get(ledger.Food) != 0 {
		t.Fatalf("food must clamp to 0, got %v", out.Resources.Get(ledger.Food))
	}
	if out.LifetimeResources.Get(ledger.Food) != 0 {
		t.Fatalf("negative delta must not count toward lifetime")
	}
	if s.Resources.Get(ledger.Wood) != 0 {
		t.Fatalf("input state mutated")
	}
}

func TestCosts(t *testing.T) {
	cat := testCatalog()
	s := game.New(0, ledger.Amounts{}, game.LoopSettings{})
	s.BuildingCounts.Set(ledger.Quarry, 2)
	mul := multipliers.Neutral()
	mul.Cost = 0.5

	cost, ok := CostFor(s, cat, mul, "quarry")
	if !ok || !near(cost.Get(ledger.Gold), 40) || !near(cost.Get(ledger.Wood), 10) {
		t.Fatalf("quarry cost=%+v ok=%v", cost, ok)
	}
	cost, ok = CostFor(s, cat, mul, "mining")
	if !ok || !near(cost.Get(ledger.Gold), 50) {
		t.Fatalf("mining cost=%+v ok=%v", cost, ok)
	}
	if _, ok := CostFor(s, cat, mul, "alchemy"); ok {
		t.Fatalf("unknown id must not resolve")
	}
	if c, ok := UpgradeCost(cat, "decree", 3); !ok || c != 24 {
		t.Fatalf("upgrade cost=%v ok=%v", c, ok)
	}
}

func TestCostsKeepFullPrecision(t *testing.T) {
	cat := testCatalog()
	s := game.New(0, ledger.Amounts{}, game.LoopSettings{})
	s.BuildingCounts.Set(ledger.Woodcutter, 1)
	cost, _ := BuildingCost(s, cat, multipliers.Neutral(), ledger.Woodcutter)
	growth := 1.15
	if cost.Get(ledger.Gold) != 10*growth {
		t.Fatalf("cost rounded internally: %v", cost.Get(ledger.Gold))
	}
	if got := FormatAmount(cost.Get(ledger.Gold), 2); got != "11.50" {
		t.Fatalf("display=%q", got)
	}
	if got := FormatCost(cost, func(ledger.Resource) int { return 1 }); got != "gold=11.5" {
		t.Fatalf("FormatCost=%q", got)
	}
}

func TestPayNeverGoesNegative(t *testing.T) {
	var start ledger.Amounts
	start.Set(ledger.Gold, 5)
	s := game.New(0, start, game.LoopSettings{})
	cost := amounts(map[string]float64{"gold": 6})
	if CanAfford(s, cost) {
		t.Fatalf("should not afford")
	}
	out, ok := Pay(s, cost)
	if ok || out.Resources.Get(ledger.Gold) != 5 {
		t.Fatalf("unaffordable pay changed state: ok=%v gold=%v", ok, out.Resources.Get(ledger.Gold))
	}
	out, ok = Pay(s, amounts(map[string]float64{"gold": 5}))
	if !ok || out.Resources.Get(ledger.Gold) != 0 {
		t.Fatalf("exact pay: ok=%v gold=%v", ok, out.Resources.Get(ledger.Gold))
	}
}
