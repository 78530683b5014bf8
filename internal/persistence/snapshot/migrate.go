package snapshot

import (
	"encoding/json"
	"fmt"

	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/ledger"
)

// stateV1 is the layout written before achievements, stats, lifetime totals
// and loop settings existed. Research was stored as flat fields.
type stateV1 struct {
	ClockMs          int64                  `json:"clock_ms"`
	Resources        ledger.Amounts         `json:"resources"`
	BuildingCounts   ledger.Counts          `json:"building_counts"`
	TechnologyLevels map[string]int         `json:"technology_levels"`
	UpgradeLevels    map[string]int         `json:"upgrade_levels"`
	ResearchTech     string                 `json:"research_technology"`
	ResearchStartMs  int64                  `json:"research_start_ms"`
	ResearchEndMs    int64                  `json:"research_end_ms"`
	LoopActions      []game.LoopActionState `json:"loop_actions"`
}

func migrateV1(body []byte) (game.State, error) {
	var old stateV1
	if err := json.Unmarshal(body, &old); err != nil {
		return game.State{}, fmt.Errorf("%w: v1 body: %v", ErrNoSave, err)
	}
	s := game.State{
		ClockMs:          old.ClockMs,
		Resources:        old.Resources,
		BuildingCounts:   old.BuildingCounts,
		TechnologyLevels: old.TechnologyLevels,
		UpgradeLevels:    old.UpgradeLevels,
		LoopActions:      old.LoopActions,
	}
	if old.ResearchTech != "" {
		s.Research = game.ResearchState{
			ActiveTechnology: old.ResearchTech,
			StartMs:          old.ResearchStartMs,
			EndMs:            old.ResearchEndMs,
		}
	}
	// v1 had no lifetime totals; the ledger is the best lower bound.
	s.LifetimeResources = s.Resources.Positive()
	return s, nil
}

// Migrate re-encodes any readable payload at CurrentVersion.
func Migrate(payload []byte, d Defaults) ([]byte, Header, error) {
	s, h, err := Decode(payload, d)
	if err != nil {
		return nil, h, err
	}
	out, err := Encode(s)
	return out, h, err
}
