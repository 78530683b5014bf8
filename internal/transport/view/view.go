// Package view renders snapshots and catalogs into their wire shapes.
package view

import (
	"sort"

	"idlekingdom.dev/internal/protocol"
	"idlekingdom.dev/internal/sim/catalogs"
	"idlekingdom.dev/internal/sim/economy"
	"idlekingdom.dev/internal/sim/engine"
	"idlekingdom.dev/internal/sim/game"
	"idlekingdom.dev/internal/sim/ledger"
	"idlekingdom.dev/internal/sim/loops"
)

func State(eng *engine.Engine, s game.State) protocol.StateView {
	cat := eng.Catalogs()
	tune := eng.Tuning()
	mul := eng.Multipliers(s)

	v := protocol.StateView{
		Tick:         s.Tick,
		ClockMs:      s.ClockMs,
		Resources:    s.Resources.Map(),
		Display:      map[string]string{},
		Rates:        eng.Rates(s).Map(),
		Researched:   []string{},
		Upgrades:     map[string]int{},
		Loops:        []protocol.LoopView{},
		LoopSlots:    s.LoopSettings.MaxConcurrentActions,
		PrestigeGain: eng.PrestigeGain(s),
	}
	for _, r := range ledger.AllResources() {
		if amt := s.Resources.Get(r); amt != 0 {
			v.Display[r.String()] = economy.FormatAmount(amt, tune.Precision(r))
		}
	}
	for _, b := range ledger.AllBuildings() {
		def, ok := cat.Buildings.ByID[b]
		if !ok {
			continue
		}
		cost, _ := economy.BuildingCost(s, cat, mul, b)
		locked := def.RequiresTech != "" && !s.Researched(def.RequiresTech)
		v.Buildings = append(v.Buildings, protocol.BuildingView{
			ID:       b.String(),
			Count:    s.BuildingCounts.Get(b),
			NextCost: cost.Map(),
			Locked:   locked,
			CanBuy:   !locked && s.Resources.CanAfford(cost),
		})
	}
	if s.Research.Active() {
		v.Research = &protocol.ResearchView{
			Technology: s.Research.ActiveTechnology,
			Progress:   eng.ResearchProgress(s, s.ClockMs),
			EndMs:      s.Research.EndMs,
		}
	}
	for id, lvl := range s.TechnologyLevels {
		if lvl >= 1 {
			v.Researched = append(v.Researched, id)
		}
	}
	sort.Strings(v.Researched)
	for id, lvl := range s.UpgradeLevels {
		if lvl > 0 {
			v.Upgrades[id] = lvl
		}
	}
	for _, l := range s.LoopActions {
		v.Loops = append(v.Loops, protocol.LoopView{
			ActionID:  l.ActionID,
			Active:    l.IsActive,
			Paused:    l.IsPaused,
			Progress:  loops.Progress(l, cat),
			Completed: l.TotalLoopsCompleted,
		})
	}
	v.Achievements.Points = s.Achievements.TotalPoints
	v.Achievements.Unlocked = []string{}
	for _, id := range cat.Achievements.Order {
		if _, ok := s.Achievements.Unlocked[id]; ok {
			v.Achievements.Unlocked = append(v.Achievements.Unlocked, id)
		}
	}
	return v
}

func Catalog(cat *catalogs.Catalogs) protocol.CatalogView {
	v := protocol.CatalogView{Digest: cat.Digest()}
	for _, b := range ledger.AllBuildings() {
		def, ok := cat.Buildings.ByID[b]
		if !ok {
			continue
		}
		e := protocol.CatalogEntry{ID: b.String(), Name: def.Name}
		if def.RequiresTech != "" {
			e.Requires = []string{def.RequiresTech}
		}
		v.Buildings = append(v.Buildings, e)
	}
	for _, id := range cat.Technologies.Order {
		def := cat.Technologies.ByID[id]
		v.Technologies = append(v.Technologies, protocol.CatalogEntry{ID: id, Name: def.Name, Requires: def.Prerequisites})
	}
	for _, id := range cat.LoopActions.Order {
		def := cat.LoopActions.ByID[id]
		v.LoopActions = append(v.LoopActions, protocol.CatalogEntry{ID: id, Name: def.Name, Requires: unlockReqs(def.Unlock)})
	}
	for _, id := range cat.ManualActions.Order {
		def := cat.ManualActions.ByID[id]
		v.ManualActions = append(v.ManualActions, protocol.CatalogEntry{ID: id, Name: def.Name, Requires: unlockReqs(def.Unlock)})
	}
	for _, id := range cat.Upgrades.Order {
		v.Upgrades = append(v.Upgrades, protocol.CatalogEntry{ID: id, Name: cat.Upgrades.ByID[id].Name})
	}
	for _, id := range cat.Achievements.Order {
		v.Achievements = append(v.Achievements, protocol.CatalogEntry{ID: id, Name: cat.Achievements.ByID[id].Name})
	}
	return v
}

func unlockReqs(u catalogs.Unlock) []string {
	var out []string
	if u.Technology != "" {
		out = append(out, u.Technology)
	}
	for _, b := range ledger.AllBuildings() {
		if u.Buildings.Get(b) > 0 {
			out = append(out, b.String())
		}
	}
	return out
}

// Event renders one game event as an EVENT message.
func Event(ev game.Event) protocol.EventMsg {
	return protocol.EventMsg{
		Type:            protocol.TypeEvent,
		ProtocolVersion: protocol.Version,
		Tick:            ev.Tick,
		AtMs:            ev.AtMs,
		Kind:            string(ev.Kind),
		Subject:         ev.Subject,
		Detail:          ev.Detail,
	}
}
