// Package savedb stores saves in SQLite: the current payload per slot, a
// bounded history of past saves, and an append-only event index.
package savedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"idlekingdom.dev/internal/persistence/snapshot"
	"idlekingdom.dev/internal/persistence/store"
	"idlekingdom.dev/internal/sim/digest"
	"idlekingdom.dev/internal/sim/game"
)

const (
	DefaultSlot    = "main"
	DefaultHistory = 20
)

type DB struct {
	db       *sql.DB
	slot     string
	history  int
	defaults snapshot.Defaults

	ch   chan game.Event
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

type Options struct {
	Slot     string
	History  int
	Defaults snapshot.Defaults
	// QueueSize bounds the event writer queue; events beyond it are dropped.
	QueueSize int
}

type HistoryRow struct {
	ID      string
	Tick    uint64
	Digest  string
	SavedAt time.Time
}

var _ store.Port = (*DB)(nil)

func Open(path string, opts Options) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if opts.Slot == "" {
		opts.Slot = DefaultSlot
	}
	if opts.History <= 0 {
		opts.History = DefaultHistory
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 4096
	}
	s := &DB{
		db:       db,
		slot:     opts.Slot,
		history:  opts.History,
		defaults: opts.Defaults,
		ch:       make(chan game.Event, opts.QueueSize),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS saves (
			slot TEXT PRIMARY KEY,
			version INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			clock_ms INTEGER NOT NULL,
			payload BLOB NOT NULL,
			saved_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS save_history (
			id TEXT PRIMARY KEY,
			slot TEXT NOT NULL,
			seq INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			payload BLOB NOT NULL,
			saved_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_save_history_slot_seq ON save_history(slot, seq);`,
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			tick INTEGER NOT NULL,
			at_ms INTEGER NOT NULL,
			kind TEXT NOT NULL,
			subject TEXT NOT NULL,
			detail TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_kind_tick ON events(kind, tick);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *DB) Load(ctx context.Context) (game.State, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM saves WHERE slot=?`, s.slot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return game.State{}, store.ErrNotFound
	}
	if err != nil {
		return game.State{}, err
	}
	st, _, err := snapshot.Decode(payload, s.defaults)
	return st, err
}

// Save replaces the slot's payload and appends a history row, trimming the
// history to the configured length, in one transaction.
func (s *DB) Save(ctx context.Context, st game.State) error {
	payload, err := snapshot.Encode(st)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO saves(slot,version,tick,clock_ms,payload,saved_at) VALUES(?,?,?,?,?,?)`,
		s.slot, snapshot.CurrentVersion, int64(st.Tick), st.ClockMs, payload, now,
	); err != nil {
		return err
	}
	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq),0)+1 FROM save_history WHERE slot=?`, s.slot,
	).Scan(&seq); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO save_history(id,slot,seq,tick,digest,payload,saved_at) VALUES(?,?,?,?,?,?,?)`,
		uuid.NewString(), s.slot, seq, int64(st.Tick), digest.State(st), payload, now,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM save_history WHERE slot=? AND seq<=?`, s.slot, seq-int64(s.history),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// History lists the slot's saved history, newest first.
func (s *DB) History(ctx context.Context) ([]HistoryRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,tick,digest,saved_at FROM save_history WHERE slot=? ORDER BY seq DESC`, s.slot)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []HistoryRow
	for rows.Next() {
		var (
			r    HistoryRow
			tick int64
			at   string
		)
		if err := rows.Scan(&r.ID, &tick, &r.Digest, &at); err != nil {
			return nil, err
		}
		r.Tick = uint64(tick)
		r.SavedAt, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadHistory decodes one history entry by id.
func (s *DB) LoadHistory(ctx context.Context, id string) (game.State, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM save_history WHERE id=?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return game.State{}, store.ErrNotFound
	}
	if err != nil {
		return game.State{}, err
	}
	st, _, err := snapshot.Decode(payload, s.defaults)
	return st, err
}

// RecordEvent queues ev for the event index. It never blocks; when the
// writer falls behind the event is dropped and counted.
func (s *DB) RecordEvent(ev game.Event) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- ev:
	default:
		s.dropped.Add(1)
	}
}

// Write queues events for the index; it satisfies the host's event sink.
func (s *DB) Write(events ...game.Event) error {
	for _, ev := range events {
		s.RecordEvent(ev)
	}
	return nil
}

func (s *DB) Dropped() uint64 { return s.dropped.Load() }

// Events returns up to limit indexed events of kind (all kinds when empty),
// oldest first.
func (s *DB) Events(ctx context.Context, kind game.EventKind, limit int) ([]game.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT tick,at_ms,kind,subject,detail FROM events`
	args := []any{}
	if kind != "" {
		q += ` WHERE kind=?`
		args = append(args, string(kind))
	}
	q += ` ORDER BY seq LIMIT ?`
	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []game.Event
	for rows.Next() {
		var (
			ev   game.Event
			tick int64
			k    string
		)
		if err := rows.Scan(&tick, &ev.AtMs, &k, &ev.Subject, &ev.Detail); err != nil {
			return nil, err
		}
		ev.Tick = uint64(tick)
		ev.Kind = game.EventKind(k)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *DB) loop() {
	ctx := context.Background()
	insert, _ := s.db.Prepare(`INSERT INTO events(tick,at_ms,kind,subject,detail) VALUES(?,?,?,?,?)`)
	defer func() {
		if insert != nil {
			_ = insert.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = time.Second
	)
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for ev := range s.ch {
		if insert == nil {
			continue
		}
		if tx == nil {
			txx, err := s.db.BeginTx(ctx, nil)
			if err != nil {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			tx = txx
		}
		if _, err := tx.Stmt(insert).Exec(int64(ev.Tick), ev.AtMs, string(ev.Kind), ev.Subject, ev.Detail); err != nil {
			_ = tx.Rollback()
			tx = nil
			opCount = 0
			continue
		}
		opCount++
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}
	commit()
}
