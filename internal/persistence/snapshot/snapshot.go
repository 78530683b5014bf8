// Package snapshot encodes game states as versioned save payloads. A payload
// is one JSON header line followed by the JSON body; files wrap it in zstd.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/ledger"
)

const (
	GameID         = "idlekingdom"
	CurrentVersion = 2
)

var (
	// ErrNoSave marks payloads that must be treated as absent.
	ErrNoSave  = errors.New("snapshot: no usable save")
	ErrVersion = fmt.Errorf("%w: unsupported version", ErrNoSave)
)

type Header struct {
	Game    string `json:"game"`
	Version int    `json:"version"`
	Tick    uint64 `json:"tick"`
	ClockMs int64  `json:"clock_ms"`
}

// Defaults fills fields that older layouts lack or corrupt saves zero out.
type Defaults struct {
	Loop game.LoopSettings
}

func Encode(s game.State) ([]byte, error) {
	var buf bytes.Buffer
	hb, err := json.Marshal(Header{Game: GameID, Version: CurrentVersion, Tick: s.Tick, ClockMs: s.ClockMs})
	if err != nil {
		return nil, err
	}
	buf.Write(hb)
	buf.WriteByte('\n')
	body, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	buf.Write(body)
	return buf.Bytes(), nil
}

// ReadHeader parses only the header line.
func ReadHeader(payload []byte) (Header, []byte, error) {
	var h Header
	line, body, ok := bytes.Cut(payload, []byte{'\n'})
	if !ok {
		return h, nil, fmt.Errorf("%w: missing header", ErrNoSave)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, nil, fmt.Errorf("%w: header: %v", ErrNoSave, err)
	}
	if h.Game != GameID {
		return h, nil, fmt.Errorf("%w: game %q", ErrNoSave, h.Game)
	}
	return h, body, nil
}

// Decode parses a payload of the current version or migrates an older one.
// Any failure wraps ErrNoSave.
func Decode(payload []byte, d Defaults) (game.State, Header, error) {
	h, body, err := ReadHeader(payload)
	if err != nil {
		return game.State{}, h, err
	}
	var s game.State
	switch h.Version {
	case CurrentVersion:
		if err := json.Unmarshal(body, &s); err != nil {
			return game.State{}, h, fmt.Errorf("%w: body: %v", ErrNoSave, err)
		}
	case 1:
		if s, err = migrateV1(body); err != nil {
			return game.State{}, h, err
		}
	default:
		return game.State{}, h, fmt.Errorf("%w %d", ErrVersion, h.Version)
	}
	return normalize(s, d), h, nil
}

// normalize backfills missing sub-structures and repairs values a valid
// state can never hold.
func normalize(s game.State, d Defaults) game.State {
	if s.TechnologyLevels == nil {
		s.TechnologyLevels = map[string]int{}
	}
	if s.UpgradeLevels == nil {
		s.UpgradeLevels = map[string]int{}
	}
	if s.Achievements.Unlocked == nil {
		s.Achievements.Unlocked = map[string]int64{}
	}
	if s.Achievements.Progress == nil {
		s.Achievements.Progress = map[string]float64{}
	}
	if s.LoopSettings.BasePointsPerTick <= 0 {
		s.LoopSettings.BasePointsPerTick = d.Loop.BasePointsPerTick
	}
	if s.LoopSettings.MaxConcurrentActions <= 0 {
		s.LoopSettings.MaxConcurrentActions = d.Loop.MaxConcurrentActions
	}
	s.Resources = s.Resources.ClampNonNegative()
	s.LifetimeResources = s.LifetimeResources.ClampNonNegative()
	for _, b := range ledger.AllBuildings() {
		if s.BuildingCounts.Get(b) < 0 {
			s.BuildingCounts.Set(b, 0)
		}
	}
	if s.TickCarryMs < 0 {
		s.TickCarryMs = 0
	}
	active := 0
	for i := range s.LoopActions {
		l := &s.LoopActions[i]
		if !l.IsActive {
			continue
		}
		active++
		if active > s.LoopSettings.MaxConcurrentActions {
			l.IsActive = false
			l.IsPaused = true
		}
	}
	return s
}

// WriteFile stores payload zstd-compressed, replacing path atomically.
func WriteFile(path string, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)
	if _, err := bw.Write(payload); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	b, err := io.ReadAll(bufio.NewReaderSize(dec, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return b, nil
}

func SaveState(path string, s game.State) error {
	payload, err := Encode(s)
	if err != nil {
		return err
	}
	return WriteFile(path, payload)
}

func LoadState(path string, d Defaults) (game.State, Header, error) {
	payload, err := ReadFile(path)
	if err != nil {
		return game.State{}, Header{}, err
	}
	return Decode(payload, d)
}
