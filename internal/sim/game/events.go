package game

type EventKind string

const (
	EventLoopCompleted       EventKind = "loop_completed"
	EventLoopStarved         EventKind = "loop_starved"
	EventResearchCompleted   EventKind = "research_completed"
	EventAchievementUnlocked EventKind = "achievement_unlocked"
	EventPrestige            EventKind = "prestige"
	EventInvalidInput        EventKind = "invalid_input"
)

// Event is a diagnostic or notification produced while advancing a State.
type Event struct {
	Tick    uint64    `json:"tick"`
	AtMs    int64     `json:"at_ms"`
	Kind    EventKind `json:"kind"`
	Subject string    `json:"subject,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

func (s State) Event(kind EventKind, subject, detail string) Event {
	return Event{Tick: s.Tick, AtMs: s.ClockMs, Kind: kind, Subject: subject, Detail: detail}
}

// Reason explains why an operation left the state unchanged.
type Reason string

const (
	ReasonUnknownID     Reason = "unknown_id"
	ReasonInvalidInput  Reason = "invalid_input"
	ReasonLocked        Reason = "locked"
	ReasonUnaffordable  Reason = "unaffordable"
	ReasonAlreadyActive Reason = "already_active"
	ReasonCapacity      Reason = "capacity"
	ReasonNotStarted    Reason = "not_started"
	ReasonNotRunning    Reason = "not_running"
	ReasonResearchBusy  Reason = "research_busy"
	ReasonResearched    Reason = "already_researched"
	ReasonPrerequisites Reason = "prerequisites"
	ReasonMaxLevel      Reason = "max_level"
	ReasonNoGain        Reason = "no_prestige_gain"
)
