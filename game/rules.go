package game

import (
	"errors"
	"time"

	"github.com/beka-birhanu/vinom-claim-maze/game/economy"
	"github.com/beka-birhanu/vinom-claim-maze/game/grid"
	"github.com/beka-birhanu/vinom-claim-maze/game/movement"
	"github.com/beka-birhanu/vinom-claim-maze/game/phase"
	"github.com/beka-birhanu/vinom-claim-maze/game/treasure"
)

var ErrInvalidRules = errors.New("invalid game rules")

const minGridSize = 3

// Rules are the tunable constants of a session.
type Rules struct {
	GridSize int
	Pricing  grid.Pricing
	Phases   phase.Config

	ParkingFee     int64
	BonusPerSecond float64

	HintCost     int64
	HintMaxSteps int
	HintTTL      time.Duration

	Treasures treasure.Rules

	StartingBalance      int64
	StartingTreasury     int64
	TreasurySharePercent int
	GoldPerPGL           int64

	// CarryClaims keeps grid ownership across rounds and respawns players
	// at their claimed cell. When false the grid is cleared on every Claim
	// phase.
	CarryClaims bool
}

// DefaultRules returns the values of the reference game.
func DefaultRules() Rules {
	return Rules{
		GridSize: 15,
		Pricing:  grid.Pricing{Edge: grid.DefaultEdgePrice, Interior: grid.DefaultInteriorPrice},
		Phases: phase.Config{
			ClaimDuration:  phase.DefaultClaimDuration,
			PlayDuration:   phase.DefaultPlayDuration,
			CountdownTicks: phase.DefaultCountdownTicks,
		},
		ParkingFee:           movement.DefaultParkingFee,
		BonusPerSecond:       movement.DefaultBonusPerSecond,
		HintCost:             1000,
		HintMaxSteps:         11,
		HintTTL:              3 * time.Second,
		Treasures:            treasure.DefaultRules(),
		StartingBalance:      1224,
		StartingTreasury:     economy.DefaultStartingTreasury,
		TreasurySharePercent: economy.DefaultTreasurySharePercent,
		GoldPerPGL:           1000,
	}
}

// Validate reports the first rule that cannot produce a playable session.
func (r Rules) Validate() error {
	switch {
	case r.GridSize < minGridSize:
		return errors.Join(ErrInvalidRules, errors.New("grid size below 3"))
	case r.Pricing.Edge < 0 || r.Pricing.Interior < 0:
		return errors.Join(ErrInvalidRules, errors.New("negative claim price"))
	case r.Phases.ClaimDuration <= 0 || r.Phases.PlayDuration <= 0:
		return errors.Join(ErrInvalidRules, errors.New("phase durations must be positive"))
	case r.Phases.CountdownTicks < 0:
		return errors.Join(ErrInvalidRules, errors.New("negative countdown"))
	case r.ParkingFee < 0 || r.HintCost < 0:
		return errors.Join(ErrInvalidRules, errors.New("negative fee"))
	case r.HintMaxSteps < 1:
		return errors.Join(ErrInvalidRules, errors.New("hint needs at least one step"))
	case r.Treasures.MinValue <= 0 || r.Treasures.MaxValue < r.Treasures.MinValue:
		return errors.Join(ErrInvalidRules, treasure.ErrInvalidValueRange)
	case r.Treasures.DensityPercent < 0 || r.Treasures.DensityPercent > 100:
		return errors.Join(ErrInvalidRules, errors.New("treasure density outside 0..100"))
	case r.StartingBalance < 0 || r.StartingTreasury < 0:
		return errors.Join(ErrInvalidRules, errors.New("negative starting gold"))
	case r.GoldPerPGL <= 0:
		return errors.Join(ErrInvalidRules, errors.New("gold per PGL must be positive"))
	}
	return nil
}
