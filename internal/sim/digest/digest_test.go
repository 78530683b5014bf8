package digest

import (
	"testing"

	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/ledger"
)

func TestStateDigestStableAndSensitive(t *testing.T) {
	s := game.New(1000, ledger.Amounts{}, game.LoopSettings{MaxConcurrentActions: 1, BasePointsPerTick: 100})
	a := State(s)
	if a != State(s.Clone()) {
		t.Fatalf("digest not stable across clones")
	}

	s2 := s.Clone()
	s2.TechnologyLevels["mining"] = 0
	if State(s2) != a {
		t.Fatalf("zero level must hash like an absent key")
	}

	s3 := s.Clone()
	s3.Resources.Set(ledger.Wood, 1e-12)
	if State(s3) == a {
		t.Fatalf("digest ignored a resource change")
	}

	s4 := s.Clone()
	s4.LoopActions = append(s4.LoopActions, game.LoopActionState{ActionID: "hunt"})
	if State(s4) == a {
		t.Fatalf("digest ignored a loop slot")
	}

	s5 := s.Clone()
	s5.Achievements.Progress["golden_age"] = 0.5
	if State(s5) == a {
		t.Fatalf("digest ignored achievement progress")
	}

	s6 := s.Clone()
	s6.Achievements.Pending = append(s6.Achievements.Pending, game.Notification{AchievementID: "hoarder", AtMs: 1000})
	s7 := s.Clone()
	s7.Achievements.Pending = append(s7.Achievements.Pending, game.Notification{AchievementID: "hoarder", AtMs: 2000})
	if State(s6) == a || State(s6) == State(s7) {
		t.Fatalf("digest ignored pending notification contents")
	}
}
