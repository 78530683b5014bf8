package game

import (
	"idlekingdom.dev/internal/sim/catalogs"
	"idlekingdom.dev/internal/sim/ledger"
)

// Bonus accumulates multiplicative factors per target. A zero factor means
// no contribution and reads as 1.
type Bonus struct {
	Production  ledger.Amounts `json:"production"`
	Consumption ledger.Amounts `json:"consumption"`
	Cost        float64        `json:"cost"`
	ClickGain   float64        `json:"click_gain"`
}

func Factor(f float64) float64 {
	if f == 0 {
		return 1
	}
	return f
}

// Apply multiplies a reward factor into b.
func (b Bonus) Apply(r catalogs.Reward, times int) Bonus {
	if times <= 0 || r.Factor <= 0 {
		return b
	}
	f := 1.0
	for i := 0; i < times; i++ {
		f *= r.Factor
	}
	per := func(a ledger.Amounts) ledger.Amounts {
		for _, res := range ledger.AllResources() {
			if r.AllResources || res == r.Resource {
				a[res] = Factor(a[res]) * f
			}
		}
		return a
	}
	switch r.Target {
	case catalogs.TargetProduction:
		b.Production = per(b.Production)
	case catalogs.TargetConsumption:
		b.Consumption = per(b.Consumption)
	case catalogs.TargetCost:
		b.Cost = Factor(b.Cost) * f
	case catalogs.TargetClick:
		b.ClickGain = Factor(b.ClickGain) * f
	}
	return b
}
