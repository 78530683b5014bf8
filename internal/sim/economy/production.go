package economy

import (
	"idlekingdom.dev/internal/sim/catalogs"
	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/ledger"
	"idlekingdom.dev/internal/sim/multipliers"
)

// NetPerSecond returns the signed per-second delta of every resource.
// Buildings without a catalog definition are skipped.
func NetPerSecond(s game.State, cat *catalogs.Catalogs, mul multipliers.Multipliers) ledger.Amounts {
	var net ledger.Amounts
	for _, b := range ledger.AllBuildings() {
		n := s.BuildingCounts.Get(b)
		if n <= 0 {
			continue
		}
		def, ok := cat.Buildings.ByID[b]
		if !ok {
			continue
		}
		count := float64(n)
		net = net.Plus(def.Production.Scale(count).Mul(mul.Production))
		net = net.Minus(def.Consumption.Scale(count).Mul(mul.Consumption))
	}
	return net
}

// ApplyRates advances the ledger by rate*seconds, clamped at zero. Only
// positive deltas count toward lifetime totals.
func ApplyRates(s game.State, rate ledger.Amounts, seconds float64) game.State {
	if seconds <= 0 {
		return s
	}
	s.Gain(rate.Scale(seconds))
	return s
}
