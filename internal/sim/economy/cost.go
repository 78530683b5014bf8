package economy

import (
	"fmt"
	"math"
	"strconv"

	"idlekingdom.dev/internal/sim/catalogs"
	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/ledger"
	"idlekingdom.dev/internal/sim/multipliers"
)

// BuildingCost prices the next copy of b: base * growth^owned * costMul.
func BuildingCost(s game.State, cat *catalogs.Catalogs, mul multipliers.Multipliers, b ledger.Building) (ledger.Amounts, bool) {
	def, ok := cat.Buildings.ByID[b]
	if !ok {
		return ledger.Amounts{}, false
	}
	growth := math.Pow(def.CostGrowth, float64(s.BuildingCounts.Get(b)))
	return def.BaseCost.Scale(growth * mul.Cost), true
}

func TechnologyCost(cat *catalogs.Catalogs, mul multipliers.Multipliers, techID string) (ledger.Amounts, bool) {
	def, ok := cat.Technologies.ByID[techID]
	if !ok {
		return ledger.Amounts{}, false
	}
	return def.Cost.Scale(mul.Cost), true
}

// CostFor resolves a building or technology id.
func CostFor(s game.State, cat *catalogs.Catalogs, mul multipliers.Multipliers, targetID string) (ledger.Amounts, bool) {
	if b, ok := ledger.ParseBuilding(targetID); ok {
		return BuildingCost(s, cat, mul, b)
	}
	return TechnologyCost(cat, mul, targetID)
}

// UpgradeCost prices the next level of a prestige upgrade in crowns.
func UpgradeCost(cat *catalogs.Catalogs, upgradeID string, level int) (float64, bool) {
	def, ok := cat.Upgrades.ByID[upgradeID]
	if !ok {
		return 0, false
	}
	return def.BaseCost * math.Pow(def.CostGrowth, float64(level)), true
}

func CanAfford(s game.State, cost ledger.Amounts) bool { return s.Resources.CanAfford(cost) }

// Pay deducts cost. The bool is false and s is returned
// unchanged when any named resource falls short.
func Pay(s game.State, cost ledger.Amounts) (game.State, bool) {
	res, ok := s.Resources.Pay(cost)
	if !ok {
		return s, false
	}
	s.Resources = res
	return s, true
}

// FormatAmount rounds for display only. Costs stay at full precision
// internally.
func FormatAmount(v float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// FormatCost renders a cost vector in resource order.
func FormatCost(cost ledger.Amounts, precision func(ledger.Resource) int) string {
	out := ""
	for _, r := range ledger.AllResources() {
		v := cost.Get(r)
		if v == 0 {
			continue
		}
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("%s=%s", r, FormatAmount(v, precision(r)))
	}
	return out
}
