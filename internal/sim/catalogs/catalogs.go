package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"idlekingdom.dev/internal/sim/ledger"
)

type Catalogs struct {
	Buildings     BuildingCatalog
	Technologies  TechnologyCatalog
	LoopActions   LoopActionCatalog
	ManualActions ManualActionCatalog
	Upgrades      UpgradeCatalog
	Achievements  AchievementCatalog

	// Warnings lists configuration inconsistencies found at load. Entries
	// they refer to are skipped at runtime.
	Warnings []string
}

type BuildingCatalog struct {
	ByID   map[ledger.Building]BuildingDef
	Digest string
}

type BuildingDef struct {
	ID           ledger.Building
	Name         string
	BaseCost     ledger.Amounts
	CostGrowth   float64
	Production   ledger.Amounts
	Consumption  ledger.Amounts
	RequiresTech string
}

type TechnologyCatalog struct {
	ByID   map[string]TechnologyDef
	Order  []string
	Digest string
}

type TechnologyDef struct {
	ID              string
	Name            string
	Cost            ledger.Amounts
	DurationSeconds float64
	Prerequisites   []string
	Effects         []Effect
}

type EffectKind string

const (
	EffectGrant     EffectKind = "grant"
	EffectLoopSlots EffectKind = "loop_slots"
	EffectLoopSpeed EffectKind = "loop_speed"
)

type Effect struct {
	Kind     EffectKind
	Resource ledger.Resource
	Amount   float64
}

// Unlock gates loop and manual actions.
type Unlock struct {
	Technology string
	Buildings  ledger.Counts
}

type LoopActionCatalog struct {
	ByID   map[string]LoopActionDef
	Order  []string
	Digest string
}

type LoopActionDef struct {
	ID             string
	Name           string
	PointsRequired float64
	StartCost      ledger.Amounts
	Cost           ledger.Amounts
	Gains          ledger.Amounts
	Unlock         Unlock
}

type ManualActionCatalog struct {
	ByID   map[string]ManualActionDef
	Order  []string
	Digest string
}

type ManualActionDef struct {
	ID     string
	Name   string
	Click  bool
	Cost   ledger.Amounts
	Gains  ledger.Amounts
	Unlock Unlock
}

type UpgradeCatalog struct {
	ByID   map[string]UpgradeDef
	Order  []string
	Digest string
}

type UpgradeDef struct {
	ID         string
	Name       string
	BaseCost   float64
	CostGrowth float64
	MaxLevel   int
	Reward     Reward
}

type Target string

const (
	TargetProduction  Target = "production"
	TargetConsumption Target = "consumption"
	TargetCost        Target = "cost"
	TargetClick       Target = "click"
)

// Reward is a multiplicative bonus. With AllResources set the factor covers
// every resource of a per-resource target.
type Reward struct {
	Target       Target
	Resource     ledger.Resource
	AllResources bool
	Factor       float64
	Permanent    bool
}

type AchievementCatalog struct {
	ByID   map[string]AchievementDef
	Order  []string
	Digest string
}

type AchievementDef struct {
	ID           string
	Name         string
	Points       int
	Rarity       string
	Requirements []Requirement
	Rewards      []Reward
}

type RequirementKind string

const (
	ReqResource          RequirementKind = "resource"
	ReqLifetime          RequirementKind = "lifetime"
	ReqBuilding          RequirementKind = "building"
	ReqBuildingsTotal    RequirementKind = "buildings_total"
	ReqClicks            RequirementKind = "clicks"
	ReqActions           RequirementKind = "actions"
	ReqLoops             RequirementKind = "loops"
	ReqTechnology        RequirementKind = "technology"
	ReqTechnologiesTotal RequirementKind = "technologies_total"
	ReqPrestige          RequirementKind = "prestige"
)

type Requirement struct {
	Kind      RequirementKind
	Resource  ledger.Resource
	Building  ledger.Building
	Target    string
	Threshold float64
}

func Load(configDir string) (*Catalogs, error) {
	v, err := newValidator()
	if err != nil {
		return nil, err
	}
	c := &Catalogs{}

	var (
		buildings    []rawBuilding
		technologies []rawTechnology
		loops        []rawLoopAction
		manual       []rawManualAction
		upgrades     []rawUpgrade
		achievements []rawAchievement
	)
	if c.Buildings.Digest, err = readTable(v, configDir, "buildings.json", &buildings); err != nil {
		return nil, err
	}
	if c.Technologies.Digest, err = readTable(v, configDir, "technologies.json", &technologies); err != nil {
		return nil, err
	}
	if c.LoopActions.Digest, err = readTable(v, configDir, "loop_actions.json", &loops); err != nil {
		return nil, err
	}
	if c.ManualActions.Digest, err = readTable(v, configDir, "manual_actions.json", &manual); err != nil {
		return nil, err
	}
	if c.Upgrades.Digest, err = readTable(v, configDir, "upgrades.json", &upgrades); err != nil {
		return nil, err
	}
	if c.Achievements.Digest, err = readTable(v, configDir, "achievements.json", &achievements); err != nil {
		return nil, err
	}

	if err := c.buildBuildings(buildings); err != nil {
		return nil, err
	}
	if err := c.buildTechnologies(technologies); err != nil {
		return nil, err
	}
	if err := c.buildLoopActions(loops); err != nil {
		return nil, err
	}
	if err := c.buildManualActions(manual); err != nil {
		return nil, err
	}
	if err := c.buildUpgrades(upgrades); err != nil {
		return nil, err
	}
	if err := c.buildAchievements(achievements); err != nil {
		return nil, err
	}
	c.crossCheck()
	return c, nil
}

// Digest combines the per-table digests.
func (c *Catalogs) Digest() string {
	parts := []string{
		c.Buildings.Digest,
		c.Technologies.Digest,
		c.LoopActions.Digest,
		c.ManualActions.Digest,
		c.Upgrades.Digest,
		c.Achievements.Digest,
	}
	return sha256Hex([]byte(strings.Join(parts, ":")))
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func readTable(v *validator, dir, name string, out any) (string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if err := v.validate(name, raw); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return sha256Hex(raw), nil
}

func (c *Catalogs) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func (c *Catalogs) amounts(file, id, field string, m map[string]float64) ledger.Amounts {
	a, unknown := ledger.ParseAmounts(m)
	for _, k := range unknown {
		c.warnf("%s: %s.%s: unknown resource %q", file, id, field, k)
	}
	return a
}

func (c *Catalogs) unlock(file, id string, u rawUnlock) Unlock {
	counts, unknown := ledger.ParseCounts(u.Buildings)
	for _, k := range unknown {
		c.warnf("%s: %s.unlock: unknown building %q", file, id, k)
	}
	return Unlock{Technology: u.Technology, Buildings: counts}
}

func (c *Catalogs) reward(file, id string, r rawReward) (Reward, bool) {
	out := Reward{Target: Target(r.Target), Factor: r.Factor, Permanent: r.Permanent}
	switch out.Target {
	case TargetProduction, TargetConsumption:
		if r.Resource == "" {
			out.AllResources = true
			break
		}
		res, ok := ledger.ParseResource(r.Resource)
		if !ok {
			c.warnf("%s: %s: reward names unknown resource %q", file, id, r.Resource)
			return out, false
		}
		out.Resource = res
	case TargetCost, TargetClick:
	default:
		c.warnf("%s: %s: unknown reward target %q", file, id, r.Target)
		return out, false
	}
	return out, true
}

type rawUnlock struct {
	Technology string         `json:"technology"`
	Buildings  map[string]int `json:"buildings"`
}

type rawReward struct {
	Target    string  `json:"target"`
	Resource  string  `json:"resource"`
	Factor    float64 `json:"factor"`
	Permanent bool    `json:"permanent"`
}

type rawBuilding struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	BaseCost     map[string]float64 `json:"base_cost"`
	CostGrowth   float64            `json:"cost_growth"`
	Production   map[string]float64 `json:"production"`
	Consumption  map[string]float64 `json:"consumption"`
	RequiresTech string             `json:"requires_tech"`
}

func (c *Catalogs) buildBuildings(in []rawBuilding) error {
	c.Buildings.ByID = map[ledger.Building]BuildingDef{}
	for _, r := range in {
		b, ok := ledger.ParseBuilding(r.ID)
		if !ok {
			c.warnf("buildings.json: unknown building %q", r.ID)
			continue
		}
		if _, dup := c.Buildings.ByID[b]; dup {
			return fmt.Errorf("buildings.json: duplicate id %q", r.ID)
		}
		c.Buildings.ByID[b] = BuildingDef{
			ID:           b,
			Name:         r.Name,
			BaseCost:     c.amounts("buildings.json", r.ID, "base_cost", r.BaseCost),
			CostGrowth:   r.CostGrowth,
			Production:   c.amounts("buildings.json", r.ID, "production", r.Production),
			Consumption:  c.amounts("buildings.json", r.ID, "consumption", r.Consumption),
			RequiresTech: r.RequiresTech,
		}
	}
	for _, b := range ledger.AllBuildings() {
		if _, ok := c.Buildings.ByID[b]; !ok {
			c.warnf("buildings.json: no definition for %s", b)
		}
	}
	return nil
}

type rawTechnology struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Cost            map[string]float64 `json:"cost"`
	DurationSeconds float64            `json:"duration_seconds"`
	Prerequisites   []string           `json:"prerequisites"`
	Effects         []struct {
		Kind     string  `json:"kind"`
		Resource string  `json:"resource"`
		Amount   float64 `json:"amount"`
	} `json:"effects"`
}

func (c *Catalogs) buildTechnologies(in []rawTechnology) error {
	c.Technologies.ByID = map[string]TechnologyDef{}
	for _, r := range in {
		if _, dup := c.Technologies.ByID[r.ID]; dup {
			return fmt.Errorf("technologies.json: duplicate id %q", r.ID)
		}
		def := TechnologyDef{
			ID:              r.ID,
			Name:            r.Name,
			Cost:            c.amounts("technologies.json", r.ID, "cost", r.Cost),
			DurationSeconds: r.DurationSeconds,
			Prerequisites:   r.Prerequisites,
		}
		for _, e := range r.Effects {
			eff := Effect{Kind: EffectKind(e.Kind), Amount: e.Amount}
			if eff.Kind == EffectGrant {
				res, ok := ledger.ParseResource(e.Resource)
				if !ok {
					c.warnf("technologies.json: %s: grant names unknown resource %q", r.ID, e.Resource)
					continue
				}
				eff.Resource = res
			}
			def.Effects = append(def.Effects, eff)
		}
		c.Technologies.ByID[r.ID] = def
		c.Technologies.Order = append(c.Technologies.Order, r.ID)
	}
	return nil
}

type rawLoopAction struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	PointsRequired float64            `json:"points_required"`
	StartCost      map[string]float64 `json:"start_cost"`
	Cost           map[string]float64 `json:"cost"`
	Gains          map[string]float64 `json:"gains"`
	Unlock         rawUnlock          `json:"unlock"`
}

func (c *Catalogs) buildLoopActions(in []rawLoopAction) error {
	c.LoopActions.ByID = map[string]LoopActionDef{}
	const file = "loop_actions.json"
	for _, r := range in {
		if _, dup := c.LoopActions.ByID[r.ID]; dup {
			return fmt.Errorf("%s: duplicate id %q", file, r.ID)
		}
		c.LoopActions.ByID[r.ID] = LoopActionDef{
			ID:             r.ID,
			Name:           r.Name,
			PointsRequired: r.PointsRequired,
			StartCost:      c.amounts(file, r.ID, "start_cost", r.StartCost),
			Cost:           c.amounts(file, r.ID, "cost", r.Cost),
			Gains:          c.amounts(file, r.ID, "gains", r.Gains),
			Unlock:         c.unlock(file, r.ID, r.Unlock),
		}
		c.LoopActions.Order = append(c.LoopActions.Order, r.ID)
	}
	return nil
}

type rawManualAction struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Click  bool               `json:"click"`
	Cost   map[string]float64 `json:"cost"`
	Gains  map[string]float64 `json:"gains"`
	Unlock rawUnlock          `json:"unlock"`
}

func (c *Catalogs) buildManualActions(in []rawManualAction) error {
	c.ManualActions.ByID = map[string]ManualActionDef{}
	const file = "manual_actions.json"
	for _, r := range in {
		if _, dup := c.ManualActions.ByID[r.ID]; dup {
			return fmt.Errorf("%s: duplicate id %q", file, r.ID)
		}
		c.ManualActions.ByID[r.ID] = ManualActionDef{
			ID:     r.ID,
			Name:   r.Name,
			Click:  r.Click,
			Cost:   c.amounts(file, r.ID, "cost", r.Cost),
			Gains:  c.amounts(file, r.ID, "gains", r.Gains),
			Unlock: c.unlock(file, r.ID, r.Unlock),
		}
		c.ManualActions.Order = append(c.ManualActions.Order, r.ID)
	}
	return nil
}

type rawUpgrade struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	BaseCost   float64   `json:"base_cost"`
	CostGrowth float64   `json:"cost_growth"`
	MaxLevel   int       `json:"max_level"`
	Reward     rawReward `json:"reward"`
}

func (c *Catalogs) buildUpgrades(in []rawUpgrade) error {
	c.Upgrades.ByID = map[string]UpgradeDef{}
	for _, r := range in {
		if _, dup := c.Upgrades.ByID[r.ID]; dup {
			return fmt.Errorf("upgrades.json: duplicate id %q", r.ID)
		}
		rw, ok := c.reward("upgrades.json", r.ID, r.Reward)
		if !ok {
			continue
		}
		c.Upgrades.ByID[r.ID] = UpgradeDef{
			ID:         r.ID,
			Name:       r.Name,
			BaseCost:   r.BaseCost,
			CostGrowth: r.CostGrowth,
			MaxLevel:   r.MaxLevel,
			Reward:     rw,
		}
		c.Upgrades.Order = append(c.Upgrades.Order, r.ID)
	}
	return nil
}

type rawAchievement struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Points       int    `json:"points"`
	Rarity       string `json:"rarity"`
	Requirements []struct {
		Kind      string  `json:"kind"`
		Resource  string  `json:"resource"`
		Building  string  `json:"building"`
		Target    string  `json:"target"`
		Threshold float64 `json:"threshold"`
	} `json:"requirements"`
	Rewards []rawReward `json:"rewards"`
}

func (c *Catalogs) buildAchievements(in []rawAchievement) error {
	c.Achievements.ByID = map[string]AchievementDef{}
	const file = "achievements.json"
next:
	for _, r := range in {
		if _, dup := c.Achievements.ByID[r.ID]; dup {
			return fmt.Errorf("%s: duplicate id %q", file, r.ID)
		}
		def := AchievementDef{ID: r.ID, Name: r.Name, Points: r.Points, Rarity: r.Rarity}
		for _, q := range r.Requirements {
			req := Requirement{Kind: RequirementKind(q.Kind), Target: q.Target, Threshold: q.Threshold}
			switch req.Kind {
			case ReqResource, ReqLifetime:
				res, ok := ledger.ParseResource(q.Resource)
				if !ok {
					c.warnf("%s: %s: requirement names unknown resource %q", file, r.ID, q.Resource)
					continue next
				}
				req.Resource = res
			case ReqBuilding:
				b, ok := ledger.ParseBuilding(q.Building)
				if !ok {
					c.warnf("%s: %s: requirement names unknown building %q", file, r.ID, q.Building)
					continue next
				}
				req.Building = b
			case ReqBuildingsTotal, ReqClicks, ReqActions, ReqLoops, ReqTechnology, ReqTechnologiesTotal, ReqPrestige:
			default:
				c.warnf("%s: %s: unknown requirement kind %q", file, r.ID, q.Kind)
				continue next
			}
			def.Requirements = append(def.Requirements, req)
		}
		for _, rr := range r.Rewards {
			if rw, ok := c.reward(file, r.ID, rr); ok {
				def.Rewards = append(def.Rewards, rw)
			}
		}
		c.Achievements.ByID[r.ID] = def
		c.Achievements.Order = append(c.Achievements.Order, r.ID)
	}
	return nil
}

// crossCheck reports references to ids that no table defines.
func (c *Catalogs) crossCheck() {
	tech := func(file, id, ref string) {
		if ref == "" {
			return
		}
		if _, ok := c.Technologies.ByID[ref]; !ok {
			c.warnf("%s: %s: unknown technology %q", file, id, ref)
		}
	}
	for _, b := range ledger.AllBuildings() {
		if def, ok := c.Buildings.ByID[b]; ok {
			tech("buildings.json", b.String(), def.RequiresTech)
		}
	}
	for _, id := range c.Technologies.Order {
		for _, p := range c.Technologies.ByID[id].Prerequisites {
			tech("technologies.json", id, p)
		}
	}
	for _, id := range c.LoopActions.Order {
		tech("loop_actions.json", id, c.LoopActions.ByID[id].Unlock.Technology)
	}
	for _, id := range c.ManualActions.Order {
		tech("manual_actions.json", id, c.ManualActions.ByID[id].Unlock.Technology)
	}
	for _, id := range c.Achievements.Order {
		for _, q := range c.Achievements.ByID[id].Requirements {
			if q.Kind == ReqTechnology {
				tech("achievements.json", id, q.Target)
			}
		}
	}
	sort.Strings(c.Warnings)
}
