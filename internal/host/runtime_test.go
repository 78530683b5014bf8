package host

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"idlekingdom.dev/internal/persistence/snapshot"
	"idlekingdom.dev/internal/persistence/store"
	"idlekingdom.dev/internal/sim/engine"
	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/gametest"
	"idlekingdom.dev/internal/sim/ledger"
	"idlekingdom.dev/internal/sim/tuning"
)

const start = int64(1_700_000_000_000)

type recordingSink struct {
	mu     sync.Mutex
	events []game.Event
}

func (s *recordingSink) Write(events ...game.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

func (s *recordingSink) saw(kind game.EventKind, subject string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.Kind == kind && ev.Subject == subject {
			return true
		}
	}
	return false
}

type fixture struct {
	eng   *engine.Engine
	clk   *FakeClock
	mem   *store.MemoryStore
	sink  *recordingSink
	rt    *Runtime
	sub   <-chan Update
	stop  context.CancelFunc
	errCh chan error
}

func newFixture(t *testing.T, seed func(*store.MemoryStore, *engine.Engine)) *fixture {
	t.Helper()
	eng := gametest.Engine(t, func(tu *tuning.Tuning) { tu.AutosaveEveryTicks = 3 })
	f := &fixture{
		eng:  eng,
		clk:  NewFakeClock(start),
		mem:  store.NewMemoryStore(snapshot.Defaults{}),
		sink: &recordingSink{},
	}
	if seed != nil {
		seed(f.mem, eng)
	}
	f.rt = New(eng, Options{Store: f.mem, Clock: f.clk, Sinks: []EventSink{f.sink}})
	if err := f.rt.Boot(context.Background()); err != nil {
		t.Fatalf("boot: %v", err)
	}
	var cancelSub func()
	f.sub, cancelSub = f.rt.Subscribe()
	t.Cleanup(cancelSub)

	ctx, cancel := context.WithCancel(context.Background())
	f.stop = cancel
	f.errCh = make(chan error, 1)
	go func() { f.errCh <- f.rt.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-f.errCh
	})
	return f
}

func (f *fixture) tick(t *testing.T) game.State {
	t.Helper()
	f.clk.Advance(1000)
	f.clk.Fire()
	select {
	case u := <-f.sub:
		return u.State
	case <-time.After(5 * time.Second):
		t.Fatalf("no update after tick")
	}
	return game.State{}
}

func (f *fixture) submit(t *testing.T, op engine.Op, id string) engine.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := f.rt.Submit(ctx, engine.Command{Op: op, ID: id})
	if err != nil {
		t.Fatalf("submit %s: %v", op, err)
	}
	return res
}

func TestBootStartsNewGameWithoutSave(t *testing.T) {
	f := newFixture(t, nil)
	s, ok := f.rt.Snapshot()
	if !ok || s.ClockMs != start || s.Tick != 0 {
		t.Fatalf("boot state: ok=%v clock=%d tick=%d", ok, s.ClockMs, s.Tick)
	}
	if got := f.tick(t); got.Tick != 1 || got.ClockMs != start+1000 {
		t.Fatalf("after tick: tick=%d clock=%d", got.Tick, got.ClockMs)
	}
}

func TestBootCollapsesOfflineTime(t *testing.T) {
	f := newFixture(t, func(m *store.MemoryStore, e *engine.Engine) {
		s := e.NewGame(start - 5000)
		s.BuildingCounts.Set(ledger.Woodcutter, 1)
		if err := m.Save(context.Background(), s); err != nil {
			panic(err)
		}
	})
	s, _ := f.rt.Snapshot()
	if s.Tick != 5 || s.ClockMs != start {
		t.Fatalf("tick=%d clock=%d", s.Tick, s.ClockMs)
	}
	if w := s.Resources.Get(ledger.Wood); w < 5.99 || w > 6.01 {
		t.Fatalf("wood=%v want 6", w)
	}
}

func TestCommandsAutosaveAndShutdown(t *testing.T) {
	f := newFixture(t, nil)

	res := f.submit(t, engine.OpAction, "collect_taxes")
	if !res.OK || res.State.Resources.Get(ledger.Gold) != 51 {
		t.Fatalf("click: ok=%v gold=%v", res.OK, res.State.Resources.Get(ledger.Gold))
	}
	<-f.sub
	if res := f.submit(t, engine.OpBuyBuilding, "iron_mine"); res.OK || res.Reason != game.ReasonLocked {
		t.Fatalf("locked building: %+v", res.Reason)
	}

	for i := 0; i < 3; i++ {
		f.tick(t)
	}
	if f.mem.Saves() != 1 {
		t.Fatalf("saves=%d want 1 after 3 ticks", f.mem.Saves())
	}

	f.mem.FailSaves(true)
	var last game.State
	for i := 0; i < 3; i++ {
		last = f.tick(t)
	}
	if last.Tick != 6 || f.mem.Saves() != 1 {
		t.Fatalf("after failed save: tick=%d saves=%d", last.Tick, f.mem.Saves())
	}

	f.mem.FailSaves(false)
	f.stop()
	if err := <-f.errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("run returned %v", err)
	}
	f.errCh <- nil
	if f.mem.Saves() != 2 {
		t.Fatalf("no final save: saves=%d", f.mem.Saves())
	}
	saved, err := f.mem.Load(context.Background())
	if err != nil || saved.Tick != 6 {
		t.Fatalf("final save tick=%d err=%v", saved.Tick, err)
	}
	if _, err := f.rt.Submit(context.Background(), engine.Command{Op: engine.OpAction, ID: "collect_taxes"}); !errors.Is(err, ErrStopped) {
		t.Fatalf("submit after stop: %v", err)
	}
}

func TestEventsReachSinks(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 10; i++ {
		f.submit(t, engine.OpAction, "collect_taxes")
	}
	if !f.sink.saw(game.EventAchievementUnlocked, "first_steps") {
		t.Fatalf("achievement event not delivered to sink")
	}
}

func TestSubscribeKeepsOnlyLatest(t *testing.T) {
	f := newFixture(t, nil)
	f.submit(t, engine.OpAction, "collect_taxes")
	f.submit(t, engine.OpAction, "collect_taxes")
	u := <-f.sub
	if u.State.Resources.Get(ledger.Gold) != 52 {
		t.Fatalf("gold=%v want latest 52", u.State.Resources.Get(ledger.Gold))
	}
	select {
	case extra := <-f.sub:
		t.Fatalf("stale update delivered: gold=%v", extra.State.Resources.Get(ledger.Gold))
	default:
	}
}

func TestReplaceInstallsAndSaves(t *testing.T) {
	f := newFixture(t, nil)
	imported := f.eng.NewGame(start - 2000)
	imported.Resources.Set(ledger.Gold, 999)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, err := f.rt.Replace(ctx, imported)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got.Tick != 2 || got.ClockMs != start || got.Resources.Get(ledger.Gold) != 999 {
		t.Fatalf("replaced: tick=%d clock=%d gold=%v", got.Tick, got.ClockMs, got.Resources.Get(ledger.Gold))
	}
	if f.mem.Saves() != 1 {
		t.Fatalf("replace did not save")
	}
	snap, _ := f.rt.Snapshot()
	if snap.Resources.Get(ledger.Gold) != 999 {
		t.Fatalf("snapshot not replaced")
	}
}
