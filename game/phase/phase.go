// Package phase drives the round cycle Claim → Play → Countdown → Claim from
// wall-clock ticks.
package phase

import (
	"fmt"
	"strings"
	"time"
)

// Default phase lengths.
const (
	DefaultClaimDuration  = 10 * time.Second
	DefaultPlayDuration   = 120 * time.Second
	DefaultCountdownTicks = 3

	tickInterval = time.Second
)

// Phase is one of Claim, Play or Countdown. The set is closed; switch on the
// concrete type.
type Phase interface {
	Name() string
	isPhase()
}

// Claim is the window in which players buy grid cells.
type Claim struct{}

// Play is the window in which the maze is live.
type Play struct{}

// Countdown is the pause between rounds. TicksLeft counts whole ticks
// until the next Claim phase.
type Countdown struct {
	TicksLeft int
}

func (Claim) Name() string     { return "claim" }
func (Play) Name() string      { return "play" }
func (Countdown) Name() string { return "countdown" }

func (Claim) isPhase()     {}
func (Play) isPhase()      {}
func (Countdown) isPhase() {}

// Parse returns the phase named s. A countdown starts with ticks left.
func Parse(s string, ticks int) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "claim":
		return Claim{}, nil
	case "play":
		return Play{}, nil
	case "countdown":
		return Countdown{TicksLeft: ticks}, nil
	}
	return nil, fmt.Errorf("unknown phase %q", s)
}

// Config sets phase lengths. CountdownTicks of zero skips the countdown.
type Config struct {
	ClaimDuration  time.Duration
	PlayDuration   time.Duration
	CountdownTicks int
}

// Transition is a phase change.
type Transition struct {
	From       Phase
	To         Phase
	At         time.Time
	Generation uint64
}

// Scheduler holds the current phase and when it started.
type Scheduler struct {
	cfg        Config
	current    Phase
	startedAt  time.Time
	generation uint64
}

// NewScheduler starts in Claim at now.
func NewScheduler(cfg Config, now time.Time) *Scheduler {
	return &Scheduler{cfg: cfg, current: Claim{}, startedAt: now}
}

// Current returns the active phase.
func (s *Scheduler) Current() Phase { return s.current }

// StartedAt returns when the active phase began.
func (s *Scheduler) StartedAt() time.Time { return s.startedAt }

// Generation increases by one on every phase change.
func (s *Scheduler) Generation() uint64 { return s.generation }

// Duration returns the full length of p.
func (s *Scheduler) Duration(p Phase) time.Duration {
	switch p.(type) {
	case Claim:
		return s.cfg.ClaimDuration
	case Play:
		return s.cfg.PlayDuration
	case Countdown:
		return time.Duration(s.cfg.CountdownTicks) * tickInterval
	}
	return 0
}

// Remaining is max(0, duration - elapsed) for the active phase.
func (s *Scheduler) Remaining(now time.Time) time.Duration {
	return max(0, s.Duration(s.current)-now.Sub(s.startedAt))
}

// Tick recomputes the remaining time and moves to the next phase when it has
// run out. The new phase starts at now, so later ticks past the old deadline
// see a fresh timer and the transition fires once. Ticks older than the phase
// start are ignored.
func (s *Scheduler) Tick(now time.Time) (Transition, bool) {
	if now.Before(s.startedAt) {
		return Transition{}, false
	}
	remaining := s.Remaining(now)

	switch p := s.current.(type) {
	case Claim:
		if remaining > 0 {
			return Transition{}, false
		}
		return s.enter(Play{}, now), true
	case Play:
		if remaining > 0 {
			return Transition{}, false
		}
		return s.enter(s.afterPlay(), now), true
	case Countdown:
		if remaining > 0 {
			p.TicksLeft = int((remaining + tickInterval - 1) / tickInterval)
			s.current = p
			return Transition{}, false
		}
		return s.enter(Claim{}, now), true
	}
	return Transition{}, false
}

// EndPlay finishes the play phase early, as when a player reaches the exit.
// It does nothing outside Play.
func (s *Scheduler) EndPlay(now time.Time) (Transition, bool) {
	if _, ok := s.current.(Play); !ok {
		return Transition{}, false
	}
	return s.enter(s.afterPlay(), now), true
}

// Overwrite replaces the phase and its start time with values from an
// authoritative source. ok reports whether the phase kind changed.
func (s *Scheduler) Overwrite(p Phase, startedAt time.Time) (Transition, bool) {
	from := s.current
	s.startedAt = startedAt
	if from.Name() == p.Name() {
		s.current = p
		return Transition{}, false
	}
	s.current = p
	s.generation++
	return Transition{From: from, To: p, At: startedAt, Generation: s.generation}, true
}

func (s *Scheduler) afterPlay() Phase {
	if s.cfg.CountdownTicks > 0 {
		return Countdown{TicksLeft: s.cfg.CountdownTicks}
	}
	return Claim{}
}

func (s *Scheduler) enter(p Phase, now time.Time) Transition {
	from := s.current
	s.current = p
	s.startedAt = now
	s.generation++
	return Transition{From: from, To: p, At: now, Generation: s.generation}
}
