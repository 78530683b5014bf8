// Package multipliers composes effective bonus factors from prestige upgrades
// and unlocked achievement rewards.
package multipliers

import (
	"idlekingdom.dev/internal/sim/catalogs"
	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/ledger"
)

type Multipliers struct {
	Production  ledger.Amounts
	Consumption ledger.Amounts
	Cost        float64
	ClickGain   float64
}

func Neutral() Multipliers {
	m := Multipliers{Cost: 1, ClickGain: 1}
	for _, r := range ledger.AllResources() {
		m.Production[r] = 1
		m.Consumption[r] = 1
	}
	return m
}

// Compute multiplies every source into a neutral base. Upgrades are visited
// in catalog order; ids missing from the catalog contribute nothing.
func Compute(s game.State, cat *catalogs.Catalogs) Multipliers {
	var b game.Bonus
	for _, id := range cat.Upgrades.Order {
		if lvl := s.UpgradeLevels[id]; lvl > 0 {
			b = b.Apply(cat.Upgrades.ByID[id].Reward, lvl)
		}
	}
	return fold(b, s.AchievementMultipliers)
}

func fold(sources ...game.Bonus) Multipliers {
	m := Neutral()
	for _, b := range sources {
		for _, r := range ledger.AllResources() {
			m.Production[r] *= game.Factor(b.Production[r])
			m.Consumption[r] *= game.Factor(b.Consumption[r])
		}
		m.Cost *= game.Factor(b.Cost)
		m.ClickGain *= game.Factor(b.ClickGain)
	}
	return m
}
