// Package movement validates player steps through the maze and applies the
// side effects of landing on a cell: parking fees, treasure pickups and the
// exit bonus.
package movement

import (
	"errors"
	"time"

	"github.com/beka-birhanu/vinom-claim-maze/game/economy"
	"github.com/beka-birhanu/vinom-claim-maze/game/grid"
	"github.com/beka-birhanu/vinom-claim-maze/game/maze"
	"github.com/beka-birhanu/vinom-claim-maze/game/treasure"
)

// Movement errors. Funds shortfalls surface as economy.ErrInsufficientFunds.
var (
	ErrNotAdjacent = errors.New("target is not an orthogonal neighbour")
	ErrWallBlocked = errors.New("a wall blocks the way")
)

// Defaults observed for the play phase.
const (
	DefaultParkingFee     int64   = 1
	DefaultBonusPerSecond float64 = 0.5
)

// Board is the round state a move is checked against and applied to.
type Board struct {
	Maze      *maze.Maze
	Grid      *grid.Ledger
	Ledger    *economy.Ledger
	Treasures *treasure.Field
	Exit      maze.Position
	// Remaining is the play time left, used for the exit bonus.
	Remaining time.Duration
}

// Pickup records a collected treasure. Granted may be below Value when the
// treasury ran short.
type Pickup struct {
	Value    int64 `json:"value"`
	Granted  int64 `json:"granted"`
	Depleted bool  `json:"depleted"`
}

// Outcome describes a completed (or no-op) move.
type Outcome struct {
	From        maze.Position  `json:"from"`
	To          maze.Position  `json:"to"`
	Moved       bool           `json:"moved"`
	Parking     *economy.Route `json:"parking,omitempty"`
	Treasure    *Pickup        `json:"treasure,omitempty"`
	ExitReached bool           `json:"exitReached"`
	TimeBonus   int64          `json:"timeBonus"`
}

// ScoreDelta is what the move adds to the round score.
func (o Outcome) ScoreDelta() int64 {
	var s int64
	if o.Treasure != nil {
		s += o.Treasure.Granted
	}
	return s + o.TimeBonus
}

// Engine applies moves with a fixed parking fee and exit bonus rate.
type Engine struct {
	ParkingFee     int64
	BonusPerSecond float64
}

// AttemptMove moves mover from one cell to a neighbouring cell. The checks
// run in order: adjacency, wall, parking funds. Nothing changes unless the
// move completes.
func (e Engine) AttemptMove(b Board, mover string, from, to maze.Position) (Outcome, error) {
	d, ok := from.DirectionTo(to)
	if !ok {
		return Outcome{}, ErrNotAdjacent
	}
	if !b.Maze.Open(from, d) {
		return Outcome{}, ErrWallBlocked
	}

	out := Outcome{From: from, To: to, Moved: true}

	if owner := b.Grid.OwnerOf(to.Col, to.Row); owner != "" && owner != mover && e.ParkingFee > 0 {
		if err := b.Ledger.Charge(e.ParkingFee, economy.ReasonParking); err != nil {
			return Outcome{}, err
		}
		route := b.Ledger.RouteParking(e.ParkingFee, owner)
		out.Parking = &route
	}

	if t, ok := b.Treasures.Collect(to.Col, to.Row); ok {
		granted, depleted := b.Ledger.Payout(t.Value)
		b.Ledger.Credit(granted, economy.ReasonTreasure)
		out.Treasure = &Pickup{Value: t.Value, Granted: granted, Depleted: depleted}
	}

	if to == b.Exit {
		out.ExitReached = true
		out.TimeBonus = e.timeBonus(b.Remaining)
		b.Ledger.RecordBonus(out.TimeBonus)
	}

	return out, nil
}

// AttemptDirection steps one cell in d. A step that would leave the grid is
// clamped to the current cell and reported as a no-op.
func (e Engine) AttemptDirection(b Board, mover string, from maze.Position, d maze.Direction) (Outcome, error) {
	to := Step(from, d, b.Maze.Width(), b.Maze.Height())
	if to == from {
		return Outcome{From: from, To: from}, nil
	}
	return e.AttemptMove(b, mover, from, to)
}

// Step returns the neighbour of p in d, clamped to a width×height grid.
func Step(p maze.Position, d maze.Direction, width, height int) maze.Position {
	dc, dr := d.Delta()
	return maze.Position{
		Col: min(max(p.Col+dc, 0), width-1),
		Row: min(max(p.Row+dr, 0), height-1),
	}
}

func (e Engine) timeBonus(remaining time.Duration) int64 {
	if remaining <= 0 {
		return 0
	}
	secs := int64(remaining / time.Second)
	return int64(float64(secs) * e.BonusPerSecond)
}
