// Package loops runs automated loop actions. Each running slot accrues
// points per discrete tick and resolves into resource changes when it
// reaches the action's threshold.
package loops

import (
	"fmt"

	"idlekingdom.dev/internal/sim/catalogs"
	"idlekingdom.dev/internal/sim/game"
)

func check(s game.State, cat *catalogs.Catalogs, actionID string) (catalogs.LoopActionDef, game.Reason) {
	def, ok := cat.LoopActions.ByID[actionID]
	if !ok {
		return def, game.ReasonUnknownID
	}
	idx := s.LoopIndex(actionID)
	if idx >= 0 && s.LoopActions[idx].IsActive {
		return def, game.ReasonAlreadyActive
	}
	if !s.Meets(def.Unlock) {
		return def, game.ReasonLocked
	}
	// Only a brand-new slot pays the upfront cost.
	if idx < 0 && !s.Resources.CanAfford(def.StartCost) {
		return def, game.ReasonUnaffordable
	}
	return def, ""
}

func CanStart(s game.State, cat *catalogs.Catalogs, actionID string) bool {
	_, reason := check(s, cat, actionID)
	return reason == ""
}

// Start activates a slot, creating it on first use. It never evicts another
// slot to make room.
func Start(s game.State, cat *catalogs.Catalogs, actionID string) (game.State, game.Reason) {
	def, reason := check(s, cat, actionID)
	if reason != "" {
		return s, reason
	}
	if s.ActiveLoops()+1 > s.LoopSettings.MaxConcurrentActions {
		return s, game.ReasonCapacity
	}
	out := s.Clone()
	idx := out.LoopIndex(actionID)
	if idx < 0 {
		out.Resources, _ = out.Resources.Pay(def.StartCost)
		out.LoopActions = append(out.LoopActions, game.LoopActionState{
			ActionID:     actionID,
			StartedAtMs:  out.ClockMs,
			LastTickAtMs: out.ClockMs,
		})
		idx = len(out.LoopActions) - 1
	}
	l := &out.LoopActions[idx]
	l.IsActive = true
	l.IsPaused = false
	return out, ""
}

// Pause stops accrual and frees the slot's capacity. Points are kept.
func Pause(s game.State, actionID string) (game.State, game.Reason) {
	idx := s.LoopIndex(actionID)
	if idx < 0 {
		return s, game.ReasonNotStarted
	}
	if !s.LoopActions[idx].IsActive {
		return s, game.ReasonNotRunning
	}
	out := s.Clone()
	out.LoopActions[idx].IsActive = false
	out.LoopActions[idx].IsPaused = true
	return out, ""
}

// Resume reactivates an existing slot without charging the upfront cost.
func Resume(s game.State, cat *catalogs.Catalogs, actionID string) (game.State, game.Reason) {
	if s.LoopIndex(actionID) < 0 {
		return s, game.ReasonNotStarted
	}
	return Start(s, cat, actionID)
}

// Stop deactivates a slot and discards accrued points. Completion counts
// survive.
func Stop(s game.State, actionID string) (game.State, game.Reason) {
	idx := s.LoopIndex(actionID)
	if idx < 0 {
		return s, game.ReasonNotStarted
	}
	out := s.Clone()
	l := &out.LoopActions[idx]
	l.IsActive = false
	l.IsPaused = false
	l.CurrentPoints = 0
	return out, ""
}

// Tick advances every running slot by n discrete ticks. Slots resolve in
// stored order, so an earlier completion's gains are visible to the
// affordability check of later slots in the same tick.
func Tick(s game.State, cat *catalogs.Catalogs, n int) (game.State, []game.Event) {
	if n <= 0 || s.ActiveLoops() == 0 {
		return s, nil
	}
	out := s.Clone()
	var events []game.Event
	for t := 0; t < n; t++ {
		for i := range out.LoopActions {
			l := &out.LoopActions[i]
			if !l.Running() {
				continue
			}
			def, ok := cat.LoopActions.ByID[l.ActionID]
			if !ok {
				continue
			}
			l.CurrentPoints += out.LoopSettings.BasePointsPerTick
			l.LastTickAtMs = out.ClockMs
			if l.CurrentPoints < def.PointsRequired {
				continue
			}

			out.Gain(def.Gains)
			l.CurrentPoints = 0
			l.TotalLoopsCompleted++
			out.Stats.LoopsCompleted++

			res, paid := out.Resources.Pay(def.Cost)
			if paid {
				out.Resources = res
				events = append(events, out.Event(game.EventLoopCompleted, l.ActionID, fmt.Sprintf("loops=%d", l.TotalLoopsCompleted)))
				continue
			}
			l.IsActive = false
			l.IsPaused = true
			events = append(events, out.Event(game.EventLoopStarved, l.ActionID, "cannot afford next iteration"))
		}
	}
	return out, events
}

// Progress returns the completion percentage of a slot.
func Progress(l game.LoopActionState, cat *catalogs.Catalogs) float64 {
	def, ok := cat.LoopActions.ByID[l.ActionID]
	if !ok || def.PointsRequired <= 0 {
		return 0
	}
	p := l.CurrentPoints / def.PointsRequired * 100
	if p > 100 {
		return 100
	}
	return p
}
