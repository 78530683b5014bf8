package game

import (
	"idlekingdom.dev/internal/sim/catalogs"
	"idlekingdom.dev/internal/sim/ledger"
)

// State is one immutable snapshot of a kingdom. Operations never modify a
// State they receive; they Clone and return the copy.
type State struct {
	ClockMs     int64  `json:"clock_ms"`
	Tick        uint64 `json:"tick"`
	TickCarryMs int64  `json:"tick_carry_ms"`

	Resources         ledger.Amounts `json:"resources"`
	LifetimeResources ledger.Amounts `json:"lifetime_resources"`
	BuildingCounts    ledger.Counts  `json:"building_counts"`
	TechnologyLevels  map[string]int `json:"technology_levels"`
	UpgradeLevels     map[string]int `json:"upgrade_levels"`

	Research     ResearchState     `json:"research"`
	LoopActions  []LoopActionState `json:"loop_actions"`
	LoopSettings LoopSettings      `json:"loop_settings"`

	Achievements           AchievementState `json:"achievements"`
	AchievementMultipliers Bonus            `json:"achievement_multipliers"`

	Stats Stats `json:"stats"`
}

type ResearchState struct {
	ActiveTechnology string `json:"active_technology,omitempty"`
	StartMs          int64  `json:"start_ms,omitempty"`
	EndMs            int64  `json:"end_ms,omitempty"`
}

func (r ResearchState) Active() bool { return r.ActiveTechnology != "" }

type LoopActionState struct {
	ActionID            string  `json:"action_id"`
	IsActive            bool    `json:"is_active"`
	IsPaused            bool    `json:"is_paused"`
	CurrentPoints       float64 `json:"current_points"`
	TotalLoopsCompleted int64   `json:"total_loops_completed"`
	StartedAtMs         int64   `json:"started_at_ms"`
	LastTickAtMs        int64   `json:"last_tick_at_ms"`
}

// Running reports whether the slot accrues points.
func (l LoopActionState) Running() bool { return l.IsActive && !l.IsPaused }

type LoopSettings struct {
	MaxConcurrentActions int     `json:"max_concurrent_actions"`
	BasePointsPerTick    float64 `json:"base_points_per_tick"`
}

type AchievementState struct {
	Unlocked    map[string]int64   `json:"unlocked"`
	Progress    map[string]float64 `json:"progress"`
	Pending     []Notification     `json:"pending_notifications"`
	TotalPoints int                `json:"total_points"`
}

type Notification struct {
	AchievementID string `json:"achievement_id"`
	Name          string `json:"name"`
	Points        int    `json:"points"`
	Rarity        string `json:"rarity"`
	AtMs          int64  `json:"at_ms"`
}

type Stats struct {
	Clicks            int64   `json:"clicks"`
	ManualActions     int64   `json:"manual_actions"`
	LoopsCompleted    int64   `json:"loops_completed"`
	BuildingsBought   int64   `json:"buildings_bought"`
	ResearchCompleted int64   `json:"research_completed"`
	Prestiges         int64   `json:"prestiges"`
	CrownsEarned      float64 `json:"crowns_earned"`
}

// New builds a fresh kingdom at nowMs.
func New(nowMs int64, starting ledger.Amounts, loop LoopSettings) State {
	return State{
		ClockMs:          nowMs,
		Resources:        starting.ClampNonNegative(),
		TechnologyLevels: map[string]int{},
		UpgradeLevels:    map[string]int{},
		LoopSettings:     loop,
		Achievements: AchievementState{
			Unlocked: map[string]int64{},
			Progress: map[string]float64{},
		},
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.TechnologyLevels = cloneMap(s.TechnologyLevels)
	out.UpgradeLevels = cloneMap(s.UpgradeLevels)
	out.LoopActions = append([]LoopActionState(nil), s.LoopActions...)
	out.Achievements.Unlocked = cloneMap(s.Achievements.Unlocked)
	out.Achievements.Progress = cloneMap(s.Achievements.Progress)
	out.Achievements.Pending = append([]Notification(nil), s.Achievements.Pending...)
	return out
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s State) Researched(techID string) bool { return s.TechnologyLevels[techID] >= 1 }

// Meets reports whether the unlock gate is satisfied.
func (s State) Meets(u catalogs.Unlock) bool {
	if u.Technology != "" && !s.Researched(u.Technology) {
		return false
	}
	for _, b := range ledger.AllBuildings() {
		if s.BuildingCounts.Get(b) < u.Buildings.Get(b) {
			return false
		}
	}
	return true
}

// LoopIndex returns the position of actionID in LoopActions or -1.
func (s State) LoopIndex(actionID string) int {
	for i, l := range s.LoopActions {
		if l.ActionID == actionID {
			return i
		}
	}
	return -1
}

func (s State) ActiveLoops() int {
	n := 0
	for _, l := range s.LoopActions {
		if l.IsActive {
			n++
		}
	}
	return n
}

// Gain adds positive deltas to both the ledger and lifetime totals.
func (s *State) Gain(a ledger.Amounts) {
	s.Resources = s.Resources.Plus(a).ClampNonNegative()
	s.LifetimeResources = s.LifetimeResources.Plus(a.Positive())
}
