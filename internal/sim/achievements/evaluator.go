// Package achievements evaluates unlock predicates and folds rewards into
// the state's achievement multipliers. Unlocks are never revoked.
package achievements

import (
	"fmt"
	"math"

	"idlekingdom.dev/internal/sim/catalogs"
	"idlekingdom.dev/internal/sim/game"
)

// Value reads the quantity a requirement compares against its threshold.
func Value(s game.State, q catalogs.Requirement) float64 {
	switch q.Kind {
	case catalogs.ReqResource:
		return s.Resources.Get(q.Resource)
	case catalogs.ReqLifetime:
		return s.LifetimeResources.Get(q.Resource)
	case catalogs.ReqBuilding:
		return float64(s.BuildingCounts.Get(q.Building))
	case catalogs.ReqBuildingsTotal:
		return float64(s.BuildingCounts.Total())
	case catalogs.ReqClicks:
		return float64(s.Stats.Clicks)
	case catalogs.ReqActions:
		return float64(s.Stats.ManualActions)
	case catalogs.ReqLoops:
		return float64(s.Stats.LoopsCompleted)
	case catalogs.ReqTechnology:
		return float64(s.TechnologyLevels[q.Target])
	case catalogs.ReqTechnologiesTotal:
		n := 0
		for _, lvl := range s.TechnologyLevels {
			if lvl >= 1 {
				n++
			}
		}
		return float64(n)
	case catalogs.ReqPrestige:
		return float64(s.Stats.Prestiges)
	}
	return 0
}

func Satisfied(s game.State, q catalogs.Requirement) bool { return Value(s, q) >= q.Threshold }

// Progress is the least-advanced requirement, as a percentage.
func Progress(s game.State, def catalogs.AchievementDef) float64 {
	if len(def.Requirements) == 0 {
		return 0
	}
	p := 1.0
	for _, q := range def.Requirements {
		if q.Threshold <= 0 {
			continue
		}
		p = math.Min(p, Value(s, q)/q.Threshold)
	}
	if p < 0 {
		p = 0
	}
	return p * 100
}

// Check unlocks every achievement whose requirements all hold. Achievements
// are visited in catalog order.
func Check(s game.State, cat *catalogs.Catalogs) (game.State, []game.Event) {
	out := s
	cloned := false
	mutable := func() {
		if !cloned {
			out = s.Clone()
			cloned = true
		}
	}
	var events []game.Event
	for _, id := range cat.Achievements.Order {
		if _, done := out.Achievements.Unlocked[id]; done {
			continue
		}
		def := cat.Achievements.ByID[id]
		if len(def.Requirements) == 0 {
			continue
		}
		p := Progress(out, def)
		if old, ok := out.Achievements.Progress[id]; !ok || old != p {
			mutable()
			out.Achievements.Progress[id] = p
		}
		if p < 100 || !all(out, def.Requirements) {
			continue
		}
		mutable()
		out.Achievements.Unlocked[id] = out.ClockMs
		out.Achievements.TotalPoints += def.Points
		for _, rw := range def.Rewards {
			out.AchievementMultipliers = out.AchievementMultipliers.Apply(rw, 1)
		}
		out.Achievements.Pending = append(out.Achievements.Pending, game.Notification{
			AchievementID: id,
			Name:          def.Name,
			Points:        def.Points,
			Rarity:        def.Rarity,
			AtMs:          out.ClockMs,
		})
		events = append(events, out.Event(game.EventAchievementUnlocked, id, fmt.Sprintf("points=%d rarity=%s", def.Points, def.Rarity)))
	}
	return out, events
}

func all(s game.State, reqs []catalogs.Requirement) bool {
	for _, q := range reqs {
		if !Satisfied(s, q) {
			return false
		}
	}
	return true
}

// RebuildBonus recomputes achievement multipliers from the unlocked set.
// With permanentOnly, rewards that do not survive prestige are left out.
func RebuildBonus(unlocked map[string]int64, cat *catalogs.Catalogs, permanentOnly bool) game.Bonus {
	var b game.Bonus
	for _, id := range cat.Achievements.Order {
		if _, ok := unlocked[id]; !ok {
			continue
		}
		for _, rw := range cat.Achievements.ByID[id].Rewards {
			if permanentOnly && !rw.Permanent {
				continue
			}
			b = b.Apply(rw, 1)
		}
	}
	return b
}

// Drain pops queued unlock notifications.
func Drain(s game.State) (game.State, []game.Notification) {
	if len(s.Achievements.Pending) == 0 {
		return s, nil
	}
	out := s.Clone()
	pending := out.Achievements.Pending
	out.Achievements.Pending = nil
	return out, pending
}
