// Package research tracks the single in-flight technology. Timing is wall
// clock: deadlines are absolute milliseconds compared against State.ClockMs.
package research

import (
	"math"

	"idlekingdom.dev/internal/sim/catalogs"
	"idlekingdom.dev/internal/sim/economy"
	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/ledger"
	"idlekingdom.dev/internal/sim/multipliers"
)

// Start pays for techID and arms its deadline at ClockMs + duration.
func Start(s game.State, cat *catalogs.Catalogs, mul multipliers.Multipliers, techID string) (game.State, game.Reason) {
	def, ok := cat.Technologies.ByID[techID]
	if !ok {
		return s, game.ReasonUnknownID
	}
	if s.Research.Active() {
		return s, game.ReasonResearchBusy
	}
	if s.Researched(techID) {
		return s, game.ReasonResearched
	}
	for _, p := range def.Prerequisites {
		if !s.Researched(p) {
			return s, game.ReasonPrerequisites
		}
	}
	cost, _ := economy.TechnologyCost(cat, mul, techID)
	out, paid := economy.Pay(s, cost)
	if !paid {
		return s, game.ReasonUnaffordable
	}
	out = out.Clone()
	out.Research = game.ResearchState{
		ActiveTechnology: techID,
		StartMs:          out.ClockMs,
		EndMs:            out.ClockMs + int64(math.Round(def.DurationSeconds*1000)),
	}
	return out, ""
}

// Progress is clamp((now-start)/(end-start), 0, 1) * 100.
func Progress(r game.ResearchState, nowMs int64) float64 {
	if !r.Active() {
		return 0
	}
	if nowMs >= r.EndMs {
		return 100
	}
	if nowMs <= r.StartMs {
		return 0
	}
	return float64(nowMs-r.StartMs) / float64(r.EndMs-r.StartMs) * 100
}

// CheckProgress completes the active research once ClockMs reaches its
// deadline and applies the technology's one-time effects.
func CheckProgress(s game.State, cat *catalogs.Catalogs) (game.State, []game.Event) {
	if !s.Research.Active() || s.ClockMs < s.Research.EndMs {
		return s, nil
	}
	techID := s.Research.ActiveTechnology
	out := s.Clone()
	out.Research = game.ResearchState{}
	out.TechnologyLevels[techID] = 1
	out.Stats.ResearchCompleted++
	if def, ok := cat.Technologies.ByID[techID]; ok {
		for _, e := range def.Effects {
			out = applyEffect(out, e)
		}
	}
	return out, []game.Event{out.Event(game.EventResearchCompleted, techID, "")}
}

func applyEffect(s game.State, e catalogs.Effect) game.State {
	switch e.Kind {
	case catalogs.EffectGrant:
		var a ledger.Amounts
		a.Set(e.Resource, e.Amount)
		s.Gain(a)
	case catalogs.EffectLoopSlots:
		// Shrinking capacity could strand active slots above the cap.
		if e.Amount > 0 {
			s.LoopSettings.MaxConcurrentActions += int(e.Amount)
		}
	case catalogs.EffectLoopSpeed:
		if e.Amount > 0 {
			s.LoopSettings.BasePointsPerTick += e.Amount
		}
	}
	return s
}
