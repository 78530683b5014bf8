// Package digest hashes game states into a stable hex fingerprint used by
// determinism checks, save history and the admin tool.
package digest

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
	"sort"

	"idlekingdom.dev/internal/sim/game"
)

type writer struct {
	h   hash.Hash
	tmp [8]byte
}

func (w *writer) u64(v uint64) {
	binary.LittleEndian.PutUint64(w.tmp[:], v)
	w.h.Write(w.tmp[:])
}

func (w *writer) i64(v int64)   { w.u64(uint64(v)) }
func (w *writer) f64(v float64) { w.u64(math.Float64bits(v)) }
func (w *writer) str(s string) {
	w.u64(uint64(len(s)))
	w.h.Write([]byte(s))
}

func (w *writer) flag(b bool) {
	if b {
		w.h.Write([]byte{1})
		return
	}
	w.h.Write([]byte{0})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// State fingerprints every persisted field of s. Zero entries in the level
// maps are ignored so that an absent key and a zero level hash alike.
func State(s game.State) string {
	w := &writer{h: sha256.New()}
	w.i64(s.ClockMs)
	w.u64(s.Tick)
	w.i64(s.TickCarryMs)
	for _, v := range s.Resources {
		w.f64(v)
	}
	for _, v := range s.LifetimeResources {
		w.f64(v)
	}
	for _, v := range s.BuildingCounts {
		w.i64(int64(v))
	}
	for _, m := range []map[string]int{s.TechnologyLevels, s.UpgradeLevels} {
		for _, k := range sortedKeys(m) {
			if m[k] == 0 {
				continue
			}
			w.str(k)
			w.i64(int64(m[k]))
		}
		w.str("|")
	}

	w.str(s.Research.ActiveTechnology)
	w.i64(s.Research.StartMs)
	w.i64(s.Research.EndMs)

	for _, l := range s.LoopActions {
		w.str(l.ActionID)
		w.flag(l.IsActive)
		w.flag(l.IsPaused)
		w.f64(l.CurrentPoints)
		w.i64(l.TotalLoopsCompleted)
		w.i64(l.StartedAtMs)
		w.i64(l.LastTickAtMs)
	}
	w.i64(int64(s.LoopSettings.MaxConcurrentActions))
	w.f64(s.LoopSettings.BasePointsPerTick)

	for _, k := range sortedKeys(s.Achievements.Unlocked) {
		w.str(k)
		w.i64(s.Achievements.Unlocked[k])
	}
	w.i64(int64(s.Achievements.TotalPoints))
	w.str("progress")
	for _, k := range sortedKeys(s.Achievements.Progress) {
		if s.Achievements.Progress[k] == 0 {
			continue
		}
		w.str(k)
		w.f64(s.Achievements.Progress[k])
	}
	w.i64(int64(len(s.Achievements.Pending)))
	for _, n := range s.Achievements.Pending {
		w.str(n.AchievementID)
		w.str(n.Name)
		w.i64(int64(n.Points))
		w.str(n.Rarity)
		w.i64(n.AtMs)
	}
	b := s.AchievementMultipliers
	for i := range b.Production {
		w.f64(game.Factor(b.Production[i]))
		w.f64(game.Factor(b.Consumption[i]))
	}
	w.f64(game.Factor(b.Cost))
	w.f64(game.Factor(b.ClickGain))

	st := s.Stats
	for _, v := range []int64{st.Clicks, st.ManualActions, st.LoopsCompleted, st.BuildingsBought, st.ResearchCompleted, st.Prestiges} {
		w.i64(v)
	}
	w.f64(st.CrownsEarned)
	return hex.EncodeToString(w.h.Sum(nil))
}
