package protocol

// StateView is the client-facing rendering of one snapshot. Resource maps
// hold only non-zero entries.
type StateView struct {
	Tick         uint64             `json:"tick"`
	ClockMs      int64              `json:"clock_ms"`
	Resources    map[string]float64 `json:"resources"`
	Display      map[string]string  `json:"display"`
	Rates        map[string]float64 `json:"rates"`
	Buildings    []BuildingView     `json:"buildings"`
	Research     *ResearchView      `json:"research,omitempty"`
	Researched   []string           `json:"researched"`
	Upgrades     map[string]int     `json:"upgrades"`
	Loops        []LoopView         `json:"loops"`
	LoopSlots    int                `json:"loop_slots"`
	Achievements AchievementsView   `json:"achievements"`
	PrestigeGain float64            `json:"prestige_gain"`
}

type BuildingView struct {
	ID       string             `json:"id"`
	Count    int                `json:"count"`
	NextCost map[string]float64 `json:"next_cost"`
	Locked   bool               `json:"locked,omitempty"`
	CanBuy   bool               `json:"can_buy"`
}

type ResearchView struct {
	Technology string  `json:"technology"`
	Progress   float64 `json:"progress"`
	EndMs      int64   `json:"end_ms"`
}

type LoopView struct {
	ActionID  string  `json:"action_id"`
	Active    bool    `json:"active"`
	Paused    bool    `json:"paused"`
	Progress  float64 `json:"progress"`
	Completed int64   `json:"completed"`
}

type AchievementsView struct {
	Unlocked []string `json:"unlocked"`
	Points   int      `json:"points"`
}

// CatalogView lists the content tables in configuration order.
type CatalogView struct {
	Digest        string         `json:"digest"`
	Buildings     []CatalogEntry `json:"buildings"`
	Technologies  []CatalogEntry `json:"technologies"`
	LoopActions   []CatalogEntry `json:"loop_actions"`
	ManualActions []CatalogEntry `json:"manual_actions"`
	Upgrades      []CatalogEntry `json:"upgrades"`
	Achievements  []CatalogEntry `json:"achievements"`
}

type CatalogEntry struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Requires []string `json:"requires,omitempty"`
}
