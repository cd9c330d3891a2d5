package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/beka-birhanu/vinom-claim-maze/game"
	"github.com/beka-birhanu/vinom-claim-maze/game/grid"
	"github.com/beka-birhanu/vinom-claim-maze/game/phase"
	"github.com/beka-birhanu/vinom-claim-maze/game/treasure"
)

// Tuning is the YAML form of the game rules. Missing keys keep their
// default values.
type Tuning struct {
	GridSize    int  `yaml:"grid_size"`
	CarryClaims bool `yaml:"carry_claims"`

	Prices struct {
		Edge     int64 `yaml:"edge"`
		Interior int64 `yaml:"interior"`
	} `yaml:"prices"`

	Phases struct {
		ClaimSeconds   int `yaml:"claim_seconds"`
		PlaySeconds    int `yaml:"play_seconds"`
		CountdownTicks int `yaml:"countdown_ticks"`
	} `yaml:"phases"`

	ParkingFee     int64   `yaml:"parking_fee"`
	BonusPerSecond float64 `yaml:"bonus_per_second"`

	Hint struct {
		Cost     int64 `yaml:"cost"`
		MaxSteps int   `yaml:"max_steps"`
		TTLMs    int   `yaml:"ttl_ms"`
	} `yaml:"hint"`

	Treasures struct {
		DensityPercent int   `yaml:"density_percent"`
		MinValue       int64 `yaml:"min_value"`
		MaxValue       int64 `yaml:"max_value"`
	} `yaml:"treasures"`

	Economy struct {
		StartingBalance      int64 `yaml:"starting_balance"`
		StartingTreasury     int64 `yaml:"starting_treasury"`
		TreasurySharePercent int   `yaml:"treasury_share_percent"`
		GoldPerPGL           int64 `yaml:"gold_per_pgl"`
	} `yaml:"economy"`
}

// DefaultTuning mirrors game.DefaultRules.
func DefaultTuning() Tuning {
	r := game.DefaultRules()
	var t Tuning
	t.GridSize = r.GridSize
	t.CarryClaims = r.CarryClaims
	t.Prices.Edge = r.Pricing.Edge
	t.Prices.Interior = r.Pricing.Interior
	t.Phases.ClaimSeconds = int(r.Phases.ClaimDuration / time.Second)
	t.Phases.PlaySeconds = int(r.Phases.PlayDuration / time.Second)
	t.Phases.CountdownTicks = r.Phases.CountdownTicks
	t.ParkingFee = r.ParkingFee
	t.BonusPerSecond = r.BonusPerSecond
	t.Hint.Cost = r.HintCost
	t.Hint.MaxSteps = r.HintMaxSteps
	t.Hint.TTLMs = int(r.HintTTL / time.Millisecond)
	t.Treasures.DensityPercent = r.Treasures.DensityPercent
	t.Treasures.MinValue = r.Treasures.MinValue
	t.Treasures.MaxValue = r.Treasures.MaxValue
	t.Economy.StartingBalance = r.StartingBalance
	t.Economy.StartingTreasury = r.StartingTreasury
	t.Economy.TreasurySharePercent = r.TreasurySharePercent
	t.Economy.GoldPerPGL = r.GoldPerPGL
	return t
}

// LoadTuning reads a tuning file over the defaults. An empty path returns
// the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Rules().Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Rules converts t into session rules.
func (t Tuning) Rules() game.Rules {
	return game.Rules{
		GridSize: t.GridSize,
		Pricing:  grid.Pricing{Edge: t.Prices.Edge, Interior: t.Prices.Interior},
		Phases: phase.Config{
			ClaimDuration:  time.Duration(t.Phases.ClaimSeconds) * time.Second,
			PlayDuration:   time.Duration(t.Phases.PlaySeconds) * time.Second,
			CountdownTicks: t.Phases.CountdownTicks,
		},
		ParkingFee:     t.ParkingFee,
		BonusPerSecond: t.BonusPerSecond,
		HintCost:       t.Hint.Cost,
		HintMaxSteps:   t.Hint.MaxSteps,
		HintTTL:        time.Duration(t.Hint.TTLMs) * time.Millisecond,
		Treasures: treasure.Rules{
			DensityPercent: t.Treasures.DensityPercent,
			MinValue:       t.Treasures.MinValue,
			MaxValue:       t.Treasures.MaxValue,
		},
		StartingBalance:      t.Economy.StartingBalance,
		StartingTreasury:     t.Economy.StartingTreasury,
		TreasurySharePercent: t.Economy.TreasurySharePercent,
		GoldPerPGL:           t.Economy.GoldPerPGL,
		CarryClaims:          t.CarryClaims,
	}
}
