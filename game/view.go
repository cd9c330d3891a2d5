package game

import (
	"fmt"
	"time"

	"github.com/beka-birhanu/vinom-claim-maze/game/economy"
	"github.com/beka-birhanu/vinom-claim-maze/game/grid"
	"github.com/beka-birhanu/vinom-claim-maze/game/maze"
	"github.com/beka-birhanu/vinom-claim-maze/game/phase"
	"github.com/beka-birhanu/vinom-claim-maze/game/treasure"
)

// Position is where the local player stands and what they did this round.
type Position struct {
	Col               int  `json:"col"`
	Row               int  `json:"row"`
	HasClaimedInRound bool `json:"hasClaimedInRound"`
	HasEverClaimed    bool `json:"hasEverClaimed"`
}

// View is the read model handed to clients after every intent and tick.
type View struct {
	Account          string              `json:"account"`
	Phase            string              `json:"phase"`
	CountdownTicks   int                 `json:"countdownTicks"`
	RemainingSeconds int64               `json:"remainingSeconds"`
	Width            int                 `json:"width"`
	Height           int                 `json:"height"`
	Maze             []maze.Cell         `json:"maze"`
	Grid             [][]grid.Cell       `json:"grid"`
	Treasures        []treasure.Treasure `json:"treasures"`
	Exit             *maze.Position      `json:"exit"`
	Player           *Position           `json:"player"`
	ClaimTarget      *maze.Position      `json:"claimTarget"`
	Hint             []maze.Position     `json:"hint"`
	Economy          economy.State       `json:"economy"`
	Score            int64               `json:"score"`
	HighScore        int64               `json:"highScore"`
	Finished         bool                `json:"finished"`
}

// SharedSnapshot is the round state every participant of a room agrees on.
// The host produces it; followers overwrite their local copy with it.
type SharedSnapshot struct {
	Version        uint64              `json:"version"`
	Phase          string              `json:"phase"`
	CountdownTicks int                 `json:"countdownTicks"`
	StartedAt      time.Time           `json:"startedAt"`
	Width          int                 `json:"width"`
	Height         int                 `json:"height"`
	Maze           []maze.Cell         `json:"maze,omitempty"`
	Treasures      []treasure.Treasure `json:"treasures,omitempty"`
	Exit           *maze.Position      `json:"exit,omitempty"`
}

// View renders the session at now.
func (s *Session) View(now time.Time) View {
	v := View{
		Account:          s.account,
		Phase:            s.scheduler.Current().Name(),
		RemainingSeconds: int64(s.scheduler.Remaining(now) / time.Second),
		Grid:             s.grid.Cells(),
		Economy:          s.ledger.State(),
		Score:            s.score,
		HighScore:        s.highScore,
		Finished:         s.finished,
		Hint:             s.HintPath(now),
	}
	if _, ok := s.scheduler.Current().(phase.Countdown); ok {
		v.CountdownTicks = int((s.scheduler.Remaining(now) + time.Second - 1) / time.Second)
	}
	if s.maze != nil {
		v.Width, v.Height = s.maze.Width(), s.maze.Height()
		v.Maze = s.maze.Cells()
	}
	v.Treasures = s.treasures.Items()
	if s.exit != nil {
		e := *s.exit
		v.Exit = &e
	}
	if s.placed {
		p := s.player
		v.Player = &p
	}
	if s.claimTarget != nil {
		t := *s.claimTarget
		v.ClaimTarget = &t
	}
	return v
}

// SharedSnapshot returns the host-authoritative round state.
func (s *Session) SharedSnapshot() SharedSnapshot {
	snap := SharedSnapshot{
		Version:   s.sharedVersion,
		Phase:     s.scheduler.Current().Name(),
		StartedAt: s.scheduler.StartedAt(),
		Treasures: s.treasures.Items(),
	}
	if cd, ok := s.scheduler.Current().(phase.Countdown); ok {
		snap.CountdownTicks = cd.TicksLeft
	}
	if s.maze != nil {
		snap.Width, snap.Height = s.maze.Width(), s.maze.Height()
		snap.Maze = s.maze.Cells()
	}
	if s.exit != nil {
		e := *s.exit
		snap.Exit = &e
	}
	return snap
}

// decode validates every part of snap before anything is applied.
func (snap SharedSnapshot) decode() (phase.Phase, *maze.Maze, *treasure.Field, error) {
	p, err := phase.Parse(snap.Phase, snap.CountdownTicks)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	var m *maze.Maze
	if len(snap.Maze) > 0 {
		if m, err = maze.FromCells(snap.Width, snap.Height, snap.Maze); err != nil {
			return nil, nil, nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
		}
	}
	if snap.Exit != nil && m != nil && !m.InBound(snap.Exit.Col, snap.Exit.Row) {
		return nil, nil, nil, fmt.Errorf("%w: exit outside maze", ErrBadSnapshot)
	}
	return p, m, treasure.NewField(snap.Treasures), nil
}
