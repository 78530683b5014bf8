// Package gametest drives an engine through its exported operations so
// scenario tests can live outside the simulation packages.
package gametest

import (
	"os"
	"path/filepath"
	"testing"

	"idlekingdom.dev/internal/sim/catalogs"
	"idlekingdom.dev/internal/sim/digest"
	"idlekingdom.dev/internal/sim/engine"
	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/ledger"
	"idlekingdom.dev/internal/sim/tuning"
)

// ConfigDir finds the repository's configs directory by walking up from the
// test's working directory to the module root.
func ConfigDir(t testing.TB) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "configs")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("module root not found")
		}
		dir = parent
	}
}

// Engine builds an engine from the repository configs; mutate, when set,
// adjusts the tuning first.
func Engine(t testing.TB, mutate func(*tuning.Tuning)) *engine.Engine {
	t.Helper()
	dir := ConfigDir(t)
	cats, err := catalogs.Load(dir)
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tu, err := tuning.Load(filepath.Join(dir, "tuning.yaml"))
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	if mutate != nil {
		mutate(&tu)
	}
	e, err := engine.New(cats, tu, nil)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

// Harness holds one evolving state and records every event produced.
type Harness struct {
	T   testing.TB
	Eng *engine.Engine
	S   game.State

	Events []game.Event
}

func NewHarness(t testing.TB) *Harness {
	t.Helper()
	e := Engine(t, nil)
	return &Harness{T: t, Eng: e, S: e.NewGame(0)}
}

// Do applies an operation that must succeed.
func (h *Harness) Do(op engine.Op, id string) {
	h.T.Helper()
	r := h.Eng.Apply(h.S, engine.Command{Op: op, ID: id})
	if !r.OK {
		h.T.Fatalf("%s %s: rejected (%s)", op, id, r.Reason)
	}
	h.S = r.State
	h.Events = append(h.Events, r.Events...)
}

// Reject applies an operation that must fail with reason and leave the
// state untouched.
func (h *Harness) Reject(op engine.Op, id string, reason game.Reason) {
	h.T.Helper()
	before := digest.State(h.S)
	r := h.Eng.Apply(h.S, engine.Command{Op: op, ID: id})
	if r.OK {
		h.T.Fatalf("%s %s: accepted, want %s", op, id, reason)
	}
	if r.Reason != reason {
		h.T.Fatalf("%s %s: reason=%s want %s", op, id, r.Reason, reason)
	}
	if digest.State(r.State) != before {
		h.T.Fatalf("%s %s: rejected operation changed state", op, id)
	}
}

// Repeat applies a successful operation n times.
func (h *Harness) Repeat(n int, op engine.Op, id string) {
	h.T.Helper()
	for i := 0; i < n; i++ {
		h.Do(op, id)
	}
}

// Tick advances by whole ticks, one at a time.
func (h *Harness) Tick(n int) {
	h.T.Helper()
	d := h.Eng.Tuning().TickSeconds()
	for i := 0; i < n; i++ {
		var ev []game.Event
		h.S, ev = h.Eng.Tick(h.S, d)
		h.Events = append(h.Events, ev...)
	}
}

// Give adds resources directly, for setting up preconditions.
func (h *Harness) Give(r ledger.Resource, v float64) {
	h.S = h.S.Clone()
	h.S.Resources.Set(r, h.S.Resources.Get(r)+v)
}

// Earn adds resources the way production does, lifetime totals included.
func (h *Harness) Earn(r ledger.Resource, v float64) {
	var a ledger.Amounts
	a.Set(r, v)
	h.S = h.S.Clone()
	h.S.Gain(a)
}

func (h *Harness) Has(r ledger.Resource) float64 { return h.S.Resources.Get(r) }

// Saw reports whether an event of kind about subject was recorded.
func (h *Harness) Saw(kind game.EventKind, subject string) bool {
	for _, ev := range h.Events {
		if ev.Kind == kind && ev.Subject == subject {
			return true
		}
	}
	return false
}

func (h *Harness) Unlocked(achievementID string) bool {
	_, ok := h.S.Achievements.Unlocked[achievementID]
	return ok
}
