package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"idlekingdom.dev/internal/sim/ledger"
)

type Tuning struct {
	TickDurationMs     int `yaml:"tick_duration_ms"`
	MaxOfflineSeconds  int `yaml:"max_offline_seconds"`
	AutosaveEveryTicks int `yaml:"autosave_every_ticks"`

	Loop     Loop               `yaml:"loop"`
	Prestige Prestige           `yaml:"prestige"`
	Display  Display            `yaml:"display"`
	Starting map[string]float64 `yaml:"starting_resources"`
}

type Loop struct {
	MaxConcurrentActions int     `yaml:"max_concurrent_actions"`
	BasePointsPerTick    float64 `yaml:"base_points_per_tick"`
}

type Prestige struct {
	BasisResource string  `yaml:"basis_resource"`
	Divisor       float64 `yaml:"divisor"`
	Exponent      float64 `yaml:"exponent"`
}

type Display struct {
	// Precision is decimal places per resource; missing entries use DefaultPrecision.
	Precision        map[string]int `yaml:"precision"`
	DefaultPrecision int            `yaml:"default_precision"`
}

func Defaults() Tuning {
	return Tuning{
		TickDurationMs:     1000,
		MaxOfflineSeconds:  12 * 60 * 60,
		AutosaveEveryTicks: 30,
		Loop: Loop{
			MaxConcurrentActions: 1,
			BasePointsPerTick:    100,
		},
		Prestige: Prestige{
			BasisResource: "gold",
			Divisor:       1e6,
			Exponent:      0.5,
		},
		Display: Display{DefaultPrecision: 0},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickDurationMs <= 0 {
		return errors.New("tick_duration_ms must be > 0")
	}
	if t.MaxOfflineSeconds < 0 {
		return errors.New("max_offline_seconds must be >= 0")
	}
	if t.AutosaveEveryTicks <= 0 {
		return errors.New("autosave_every_ticks must be > 0")
	}
	if t.Loop.MaxConcurrentActions < 0 {
		return errors.New("loop.max_concurrent_actions must be >= 0")
	}
	if t.Loop.BasePointsPerTick <= 0 {
		return errors.New("loop.base_points_per_tick must be > 0")
	}
	if _, ok := ledger.ParseResource(t.Prestige.BasisResource); !ok {
		return fmt.Errorf("prestige.basis_resource: unknown resource %q", t.Prestige.BasisResource)
	}
	if t.Prestige.Divisor <= 0 || t.Prestige.Exponent <= 0 {
		return errors.New("prestige.divisor and prestige.exponent must be > 0")
	}
	for k, v := range t.Starting {
		if _, ok := ledger.ParseResource(k); !ok {
			return fmt.Errorf("starting_resources: unknown resource %q", k)
		}
		if v < 0 {
			return fmt.Errorf("starting_resources.%s: must be >= 0", k)
		}
	}
	return nil
}

func (t Tuning) TickSeconds() float64 { return float64(t.TickDurationMs) / 1000 }

func (t Tuning) StartingResources() ledger.Amounts {
	a, _ := ledger.ParseAmounts(t.Starting)
	return a
}

func (t Tuning) PrestigeBasis() ledger.Resource {
	r, _ := ledger.ParseResource(t.Prestige.BasisResource)
	return r
}

// Precision returns the display precision for r.
func (t Tuning) Precision(r ledger.Resource) int {
	if p, ok := t.Display.Precision[r.String()]; ok {
		return p
	}
	return t.Display.DefaultPrecision
}
