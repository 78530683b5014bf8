// Package engine advances kingdom snapshots. Every method is a pure
// transition from one game.State to the next; the Engine holds only
// read-only configuration and a logger.
package engine

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"idlekingdom.dev/internal/sim/achievements"
	"idlekingdom.dev/internal/sim/catalogs"
	"idlekingdom.dev/internal/sim/economy"
	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/ledger"
	"idlekingdom.dev/internal/sim/loops"
	"idlekingdom.dev/internal/sim/multipliers"
	"idlekingdom.dev/internal/sim/research"
	"idlekingdom.dev/internal/sim/tuning"
)

type Engine struct {
	cat  *catalogs.Catalogs
	tune tuning.Tuning
	log  *log.Logger
}

// New is the only fallible constructor in the simulation: it refuses
// configuration that cannot produce a playable game.
func New(cat *catalogs.Catalogs, tune tuning.Tuning, logger *log.Logger) (*Engine, error) {
	if cat == nil {
		return nil, errors.New("engine: nil catalogs")
	}
	if len(cat.Buildings.ByID) == 0 {
		return nil, errors.New("engine: catalog defines no buildings")
	}
	if err := tune.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{cat: cat, tune: tune, log: logger}, nil
}

func (e *Engine) Catalogs() *catalogs.Catalogs { return e.cat }
func (e *Engine) Tuning() tuning.Tuning        { return e.tune }

// NewGame builds the starting kingdom at nowMs.
func (e *Engine) NewGame(nowMs int64) game.State {
	s := game.New(nowMs, e.tune.StartingResources(), e.LoopDefaults())
	s, _ = achievements.Check(s, e.cat)
	return s
}

// LoopDefaults are the loop settings a fresh kingdom starts with.
func (e *Engine) LoopDefaults() game.LoopSettings {
	return game.LoopSettings{
		MaxConcurrentActions: e.tune.Loop.MaxConcurrentActions,
		BasePointsPerTick:    e.tune.Loop.BasePointsPerTick,
	}
}

func (e *Engine) Multipliers(s game.State) multipliers.Multipliers {
	return multipliers.Compute(s, e.cat)
}

// Rates is the current net per-second delta of every resource.
func (e *Engine) Rates(s game.State) ledger.Amounts {
	return economy.NetPerSecond(s, e.cat, e.Multipliers(s))
}

// maxTickSeconds keeps dt in milliseconds representable as an int64.
const maxTickSeconds = float64(math.MaxInt64/1000) / 2

// Tick advances s by dtSeconds of game time. The interval is cut at tick
// boundaries so that one long call and many short calls covering the same
// whole ticks produce the same state. Discrete checks run only on
// boundaries; a call ending mid-tick only accrues production.
func (e *Engine) Tick(s game.State, dtSeconds float64) (game.State, []game.Event) {
	if math.IsNaN(dtSeconds) || math.IsInf(dtSeconds, 0) || dtSeconds < 0 || dtSeconds > maxTickSeconds {
		e.log.Warn("invalid tick delta", "dt", dtSeconds)
		return s, []game.Event{s.Event(game.EventInvalidInput, "tick", fmt.Sprintf("dt=%v", dtSeconds))}
	}
	return e.advance(s, int64(math.Round(dtSeconds*1000)))
}

func (e *Engine) advance(s game.State, dtMs int64) (game.State, []game.Event) {
	if dtMs <= 0 {
		return s, nil
	}
	tickMs := int64(e.tune.TickDurationMs)
	out := s
	var events []game.Event
	for dtMs > 0 {
		seg := tickMs - out.TickCarryMs
		if seg <= 0 {
			seg = tickMs
			out.TickCarryMs = 0
		}
		if seg > dtMs {
			seg = dtMs
		}
		rate := economy.NetPerSecond(out, e.cat, multipliers.Compute(out, e.cat))
		out = economy.ApplyRates(out, rate, float64(seg)/1000)
		out.ClockMs += seg
		out.TickCarryMs += seg
		dtMs -= seg

		if out.TickCarryMs < tickMs {
			continue
		}
		out.TickCarryMs = 0
		out.Tick++
		out, events = e.settle(out, events, true)
	}
	return out, events
}

// settle runs the per-tick discrete steps in order: loops, research,
// achievements. Loops only advance on a tick boundary.
func (e *Engine) settle(s game.State, events []game.Event, boundary bool) (game.State, []game.Event) {
	var ev []game.Event
	if boundary {
		s, ev = loops.Tick(s, e.cat, 1)
		events = append(events, ev...)
	}
	s, ev = research.CheckProgress(s, e.cat)
	events = append(events, ev...)
	s, ev = achievements.Check(s, e.cat)
	events = append(events, ev...)
	for _, x := range ev {
		e.log.Debug("achievement unlocked", "id", x.Subject, "tick", x.Tick)
	}
	return s, events
}

// CollapseOffline accounts for the time between s.ClockMs and nowMs with a
// single Tick capped at the configured offline maximum. Time beyond the cap
// is skipped, but the clock still resyncs to nowMs so research deadlines are
// judged against real time.
func (e *Engine) CollapseOffline(s game.State, nowMs int64) (game.State, []game.Event) {
	elapsed := nowMs - s.ClockMs
	if elapsed < 0 {
		e.log.Warn("clock went backwards", "clock_ms", s.ClockMs, "now_ms", nowMs)
		return s, []game.Event{s.Event(game.EventInvalidInput, "clock", fmt.Sprintf("now_ms=%d", nowMs))}
	}
	capMs := int64(e.tune.MaxOfflineSeconds) * 1000
	dt := elapsed
	if dt > capMs {
		e.log.Info("offline time capped", "elapsed_ms", elapsed, "cap_ms", capMs)
		dt = capMs
	}
	out, events := e.advance(s, dt)
	if out.ClockMs < nowMs {
		out.ClockMs = nowMs
		out, events = e.settle(out, events, false)
	}
	return out, events
}

// ResearchProgress reports the active research percentage at nowMs.
func (e *Engine) ResearchProgress(s game.State, nowMs int64) float64 {
	return research.Progress(s.Research, nowMs)
}
