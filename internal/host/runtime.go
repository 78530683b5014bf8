// Package host runs one kingdom in real time. A single goroutine owns the
// current snapshot: it ticks on a clock, applies submitted commands between
// ticks, autosaves through a persistence port and publishes each new
// snapshot to readers.
package host

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"idlekingdom.dev/internal/persistence/store"
	"idlekingdom.dev/internal/sim/engine"
	"idlekingdom.dev/internal/sim/game"
)

var (
	ErrStopped   = errors.New("host: runtime stopped")
	ErrNotBooted = errors.New("host: runtime not booted")
)

// EventSink receives every event the runtime produces, in order.
type EventSink interface {
	Write(events ...game.Event) error
}

// Update is one published snapshot and the events that produced it.
type Update struct {
	State  game.State
	Events []game.Event
}

type Options struct {
	Store  store.Port
	Clock  Clock
	Sinks  []EventSink
	Logger *log.Logger
}

type Runtime struct {
	eng   *engine.Engine
	store store.Port
	clock Clock
	sinks []EventSink
	log   *log.Logger

	current atomic.Pointer[game.State]

	cmds    chan cmdReq
	replace chan replaceReq
	done    chan struct{}

	subMu   sync.Mutex
	subs    map[int]chan Update
	nextSub int

	lastSavedTick uint64
}

type cmdReq struct {
	cmd   engine.Command
	reply chan engine.Result
}

type replaceReq struct {
	state game.State
	reply chan game.State
}

func New(eng *engine.Engine, opts Options) *Runtime {
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Runtime{
		eng:     eng,
		store:   opts.Store,
		clock:   opts.Clock,
		sinks:   opts.Sinks,
		log:     opts.Logger,
		cmds:    make(chan cmdReq, 64),
		replace: make(chan replaceReq),
		done:    make(chan struct{}),
		subs:    map[int]chan Update{},
	}
}

func (r *Runtime) Engine() *engine.Engine { return r.eng }

// Boot loads the saved kingdom, or starts a new one when there is none or
// the save is unusable, and accounts for the time spent offline.
func (r *Runtime) Boot(ctx context.Context) error {
	now := r.clock.NowMs()
	var s game.State
	loaded := false
	if r.store != nil {
		st, err := r.store.Load(ctx)
		switch {
		case err == nil:
			s, loaded = st, true
		case errors.Is(err, store.ErrNotFound):
			r.log.Info("no save, starting new game")
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			r.log.Warn("save unusable, starting new game", "err", err)
		}
	}
	var events []game.Event
	if loaded {
		s, events = r.eng.CollapseOffline(s, now)
		r.log.Info("save loaded", "tick", s.Tick, "events", len(events))
	} else {
		s = r.eng.NewGame(now)
	}
	r.lastSavedTick = s.Tick
	r.publish(s, events)
	return nil
}

// Snapshot returns the latest published state.
func (r *Runtime) Snapshot() (game.State, bool) {
	p := r.current.Load()
	if p == nil {
		return game.State{}, false
	}
	return *p, true
}

// Subscribe returns a channel that always holds the most recent update; a
// slow reader only misses intermediate ones. cancel releases the channel.
func (r *Runtime) Subscribe() (ch <-chan Update, cancel func()) {
	c := make(chan Update, 1)
	r.subMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = c
	r.subMu.Unlock()
	return c, func() {
		r.subMu.Lock()
		delete(r.subs, id)
		r.subMu.Unlock()
	}
}

// Submit applies cmd on the runtime goroutine and waits for the result.
func (r *Runtime) Submit(ctx context.Context, cmd engine.Command) (engine.Result, error) {
	req := cmdReq{cmd: cmd, reply: make(chan engine.Result, 1)}
	select {
	case r.cmds <- req:
	case <-r.done:
		return engine.Result{}, ErrStopped
	case <-ctx.Done():
		return engine.Result{}, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res, nil
	case <-r.done:
		return engine.Result{}, ErrStopped
	case <-ctx.Done():
		return engine.Result{}, ctx.Err()
	}
}

// Replace swaps in s, brought forward to now, and returns the installed
// state.
func (r *Runtime) Replace(ctx context.Context, s game.State) (game.State, error) {
	req := replaceReq{state: s, reply: make(chan game.State, 1)}
	select {
	case r.replace <- req:
	case <-r.done:
		return game.State{}, ErrStopped
	case <-ctx.Done():
		return game.State{}, ctx.Err()
	}
	select {
	case out := <-req.reply:
		return out, nil
	case <-ctx.Done():
		return game.State{}, ctx.Err()
	}
}

// Run ticks until ctx is cancelled, then saves once more and returns
// ctx.Err().
func (r *Runtime) Run(ctx context.Context) error {
	cur, ok := r.Snapshot()
	if !ok {
		return ErrNotBooted
	}
	defer close(r.done)

	tune := r.eng.Tuning()
	ticker := r.clock.NewTicker(time.Duration(tune.TickDurationMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			r.save(saveCtx, cur)
			cancel()
			return ctx.Err()
		case req := <-r.cmds:
			res := r.eng.Apply(cur, req.cmd)
			if res.OK || len(res.Events) > 0 {
				cur = res.State
				r.publish(cur, res.Events)
			}
			req.reply <- res
		case req := <-r.replace:
			next, events := r.eng.CollapseOffline(req.state, r.clock.NowMs())
			cur = next
			r.log.Info("state replaced", "tick", cur.Tick)
			r.save(ctx, cur)
			r.publish(cur, events)
			req.reply <- cur
		case <-ticker.C():
			next, events := r.eng.CollapseOffline(cur, r.clock.NowMs())
			cur = next
			if every := uint64(tune.AutosaveEveryTicks); every > 0 && cur.Tick >= r.lastSavedTick+every {
				r.save(ctx, cur)
			}
			r.publish(cur, events)
		}
	}
}

// save records the attempt either way; a failed save is retried at the next
// autosave interval.
func (r *Runtime) save(ctx context.Context, s game.State) {
	r.lastSavedTick = s.Tick
	if r.store == nil {
		return
	}
	if err := r.store.Save(ctx, s); err != nil {
		r.log.Error("save failed", "tick", s.Tick, "err", err)
		return
	}
	r.log.Debug("saved", "tick", s.Tick)
}

func (r *Runtime) publish(s game.State, events []game.Event) {
	r.current.Store(&s)
	for _, sink := range r.sinks {
		if len(events) == 0 {
			break
		}
		if err := sink.Write(events...); err != nil {
			r.log.Warn("event sink write failed", "err", err)
		}
	}
	u := Update{State: s, Events: events}
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, c := range r.subs {
		sendLatest(c, u)
	}
}

func sendLatest(ch chan Update, u Update) {
	select {
	case ch <- u:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- u:
	default:
	}
}
