package engine

import (
	"math"

	"idlekingdom.dev/internal/sim/achievements"
	"idlekingdom.dev/internal/sim/economy"
	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/ledger"
	"idlekingdom.dev/internal/sim/loops"
	"idlekingdom.dev/internal/sim/research"
)

// Result is the outcome of a host-facing operation. When OK is false State
// is the unmodified input.
type Result struct {
	State  game.State
	OK     bool
	Reason game.Reason
	Events []game.Event
}

type Op string

const (
	OpBuyBuilding   Op = "buy_building"
	OpBuyUpgrade    Op = "buy_upgrade"
	OpAction        Op = "action"
	OpStartLoop     Op = "start_loop"
	OpPauseLoop     Op = "pause_loop"
	OpResumeLoop    Op = "resume_loop"
	OpStopLoop      Op = "stop_loop"
	OpStartResearch Op = "start_research"
	OpPrestige      Op = "prestige"
)

func AllOps() []Op {
	return []Op{OpBuyBuilding, OpBuyUpgrade, OpAction, OpStartLoop, OpPauseLoop, OpResumeLoop, OpStopLoop, OpStartResearch, OpPrestige}
}

type Command struct {
	Op Op     `json:"op"`
	ID string `json:"id,omitempty"`
}

// Apply dispatches cmd to the matching operation.
func (e *Engine) Apply(s game.State, cmd Command) Result {
	switch cmd.Op {
	case OpBuyBuilding:
		return e.BuyBuilding(s, cmd.ID)
	case OpBuyUpgrade:
		return e.BuyUpgrade(s, cmd.ID)
	case OpAction:
		return e.ExecuteAction(s, cmd.ID)
	case OpStartLoop:
		return e.StartLoop(s, cmd.ID)
	case OpPauseLoop:
		return e.PauseLoop(s, cmd.ID)
	case OpResumeLoop:
		return e.ResumeLoop(s, cmd.ID)
	case OpStopLoop:
		return e.StopLoop(s, cmd.ID)
	case OpStartResearch:
		return e.StartResearch(s, cmd.ID)
	case OpPrestige:
		return e.Prestige(s)
	}
	return e.reject(s, string(cmd.Op), cmd.ID, game.ReasonInvalidInput)
}

func (e *Engine) reject(s game.State, op, id string, reason game.Reason) Result {
	r := Result{State: s, Reason: reason}
	switch reason {
	case game.ReasonUnknownID, game.ReasonInvalidInput:
		e.log.Warn("invalid input", "op", op, "id", id, "reason", reason)
		r.Events = []game.Event{s.Event(game.EventInvalidInput, op, string(reason)+" "+id)}
	default:
		e.log.Debug("rejected", "op", op, "id", id, "reason", reason)
	}
	return r
}

func (e *Engine) accept(s game.State, events ...game.Event) Result {
	s, ev := achievements.Check(s, e.cat)
	return Result{State: s, OK: true, Events: append(events, ev...)}
}

func (e *Engine) BuyBuilding(s game.State, id string) Result {
	const op = string(OpBuyBuilding)
	b, ok := ledger.ParseBuilding(id)
	if !ok {
		return e.reject(s, op, id, game.ReasonUnknownID)
	}
	def, ok := e.cat.Buildings.ByID[b]
	if !ok {
		return e.reject(s, op, id, game.ReasonUnknownID)
	}
	if def.RequiresTech != "" && !s.Researched(def.RequiresTech) {
		return e.reject(s, op, id, game.ReasonLocked)
	}
	cost, _ := economy.BuildingCost(s, e.cat, e.Multipliers(s), b)
	out, paid := economy.Pay(s, cost)
	if !paid {
		return e.reject(s, op, id, game.ReasonUnaffordable)
	}
	out.BuildingCounts.Set(b, out.BuildingCounts.Get(b)+1)
	out.Stats.BuildingsBought++
	return e.accept(out)
}

func (e *Engine) BuyUpgrade(s game.State, id string) Result {
	const op = string(OpBuyUpgrade)
	def, ok := e.cat.Upgrades.ByID[id]
	if !ok {
		return e.reject(s, op, id, game.ReasonUnknownID)
	}
	level := s.UpgradeLevels[id]
	if level >= def.MaxLevel {
		return e.reject(s, op, id, game.ReasonMaxLevel)
	}
	price, _ := economy.UpgradeCost(e.cat, id, level)
	var cost ledger.Amounts
	cost.Set(ledger.Crowns, price)
	out, paid := economy.Pay(s, cost)
	if !paid {
		return e.reject(s, op, id, game.ReasonUnaffordable)
	}
	out = out.Clone()
	out.UpgradeLevels[id] = level + 1
	return e.accept(out)
}

// ExecuteAction performs a one-shot manual action. Click actions scale
// their gains by the click multiplier.
func (e *Engine) ExecuteAction(s game.State, id string) Result {
	const op = string(OpAction)
	def, ok := e.cat.ManualActions.ByID[id]
	if !ok {
		return e.reject(s, op, id, game.ReasonUnknownID)
	}
	if !s.Meets(def.Unlock) {
		return e.reject(s, op, id, game.ReasonLocked)
	}
	out, paid := economy.Pay(s, def.Cost)
	if !paid {
		return e.reject(s, op, id, game.ReasonUnaffordable)
	}
	gains := def.Gains
	if def.Click {
		gains = gains.Scale(e.Multipliers(s).ClickGain)
		out.Stats.Clicks++
	}
	out.Stats.ManualActions++
	out.Gain(gains)
	return e.accept(out)
}

func (e *Engine) loopResult(s game.State, op Op, id string, out game.State, reason game.Reason) Result {
	if reason != "" {
		return e.reject(s, string(op), id, reason)
	}
	return e.accept(out)
}

func (e *Engine) StartLoop(s game.State, id string) Result {
	out, reason := loops.Start(s, e.cat, id)
	return e.loopResult(s, OpStartLoop, id, out, reason)
}

func (e *Engine) PauseLoop(s game.State, id string) Result {
	out, reason := loops.Pause(s, id)
	return e.loopResult(s, OpPauseLoop, id, out, reason)
}

func (e *Engine) ResumeLoop(s game.State, id string) Result {
	out, reason := loops.Resume(s, e.cat, id)
	return e.loopResult(s, OpResumeLoop, id, out, reason)
}

func (e *Engine) StopLoop(s game.State, id string) Result {
	out, reason := loops.Stop(s, id)
	return e.loopResult(s, OpStopLoop, id, out, reason)
}

func (e *Engine) CanStartLoop(s game.State, id string) bool { return loops.CanStart(s, e.cat, id) }

func (e *Engine) StartResearch(s game.State, id string) Result {
	out, reason := research.Start(s, e.cat, e.Multipliers(s), id)
	if reason != "" {
		return e.reject(s, string(OpStartResearch), id, reason)
	}
	return e.accept(out)
}

// PrestigeGain is floor((lifetime[basis]/divisor)^exponent) minus crowns
// already earned, never negative.
func (e *Engine) PrestigeGain(s game.State) float64 {
	p := e.tune.Prestige
	basis := s.LifetimeResources.Get(e.tune.PrestigeBasis())
	total := math.Floor(math.Pow(basis/p.Divisor, p.Exponent))
	gain := total - s.Stats.CrownsEarned
	if gain < 0 || math.IsNaN(gain) {
		return 0
	}
	return gain
}

// Prestige restarts the kingdom. Crowns, upgrade levels, unlocked
// achievements, lifetime totals and stats carry over; achievement
// multipliers are rebuilt from permanent rewards only.
func (e *Engine) Prestige(s game.State) Result {
	gain := e.PrestigeGain(s)
	if gain < 1 {
		return e.reject(s, string(OpPrestige), "", game.ReasonNoGain)
	}
	prev := s.Clone()
	next := game.New(s.ClockMs, e.tune.StartingResources(), e.LoopDefaults())
	next.Tick = prev.Tick
	next.TickCarryMs = prev.TickCarryMs
	next.Resources.Set(ledger.Crowns, prev.Resources.Get(ledger.Crowns)+gain)
	next.LifetimeResources = prev.LifetimeResources
	next.LifetimeResources.Set(ledger.Crowns, next.LifetimeResources.Get(ledger.Crowns)+gain)
	next.UpgradeLevels = prev.UpgradeLevels
	next.Achievements = prev.Achievements
	next.AchievementMultipliers = achievements.RebuildBonus(prev.Achievements.Unlocked, e.cat, true)
	next.Stats = prev.Stats
	next.Stats.Prestiges++
	next.Stats.CrownsEarned += gain

	e.log.Info("prestige", "gain", gain, "prestiges", next.Stats.Prestiges)
	return e.accept(next, next.Event(game.EventPrestige, "crowns", "gain="+economy.FormatAmount(gain, 0)))
}
