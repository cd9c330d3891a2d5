// Package game composes the maze, grid, economy, movement and phase packages
// into a single-player session. A Session turns user intents into outcomes
// and exposes a View for rendering. It is not safe for concurrent use; the
// room loop in package service serializes access.
package game

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/beka-birhanu/vinom-claim-maze/game/economy"
	"github.com/beka-birhanu/vinom-claim-maze/game/grid"
	"github.com/beka-birhanu/vinom-claim-maze/game/maze"
	"github.com/beka-birhanu/vinom-claim-maze/game/movement"
	"github.com/beka-birhanu/vinom-claim-maze/game/phase"
	"github.com/beka-birhanu/vinom-claim-maze/game/treasure"
)

// Config configures a Session.
type Config struct {
	Rules   Rules
	Account string
	// Follower sessions take round state from a host through
	// ApplyRemoteSnapshot and never run phase transitions themselves.
	Follower bool
	Start    time.Time
}

// Option customizes a Session.
type Option func(*Session)

// WithSeed makes maze, treasure and exit generation deterministic.
func WithSeed(seed uint64) Option {
	return func(s *Session) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand sets the random source used for round generation.
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) {
		s.rng = rng
	}
}

// Session is one player's view of a round.
type Session struct {
	rules    Rules
	account  string
	follower bool
	rng      *rand.Rand
	engine   movement.Engine

	scheduler *phase.Scheduler
	grid      *grid.Ledger
	ledger    *economy.Ledger

	maze      *maze.Maze
	treasures *treasure.Field
	exit      *maze.Position

	player      Position
	placed      bool
	finished    bool
	claimTarget *maze.Position

	score     int64
	highScore int64

	hint          []maze.Position
	hintExpiresAt time.Time

	sharedVersion uint64
}

// New returns a session in the Claim phase starting at cfg.Start.
func New(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Rules.Validate(); err != nil {
		return nil, err
	}
	r := cfg.Rules

	g, err := grid.NewLedger(r.GridSize, r.Pricing)
	if err != nil {
		return nil, fmt.Errorf("creating grid: %w", err)
	}
	l, err := economy.NewLedger(economy.Config{
		StartingBalance:      r.StartingBalance,
		StartingTreasury:     r.StartingTreasury,
		TreasurySharePercent: r.TreasurySharePercent,
	})
	if err != nil {
		return nil, fmt.Errorf("creating ledger: %w", err)
	}

	start := cfg.Start
	if start.IsZero() {
		start = time.Now()
	}

	s := &Session{
		rules:     r,
		account:   cfg.Account,
		follower:  cfg.Follower,
		engine:    movement.Engine{ParkingFee: r.ParkingFee, BonusPerSecond: r.BonusPerSecond},
		scheduler: phase.NewScheduler(r.Phases, start),
		grid:      g,
		ledger:    l,
		treasures: treasure.NewField(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s, nil
}

// Account returns the connected account id.
func (s *Session) Account() string { return s.account }

// Phase returns the current phase.
func (s *Session) Phase() phase.Phase { return s.scheduler.Current() }

// Follower reports whether the session takes round state from a host.
func (s *Session) Follower() bool { return s.follower }

// Economy returns the ledger balances.
func (s *Session) Economy() economy.State { return s.ledger.State() }

// Score returns the running round score and the best finished round.
func (s *Session) Score() (round, high int64) { return s.score, s.highScore }

// OnCellClick selects a claim target during Claim and moves toward the cell
// during Play.
func (s *Session) OnCellClick(col, row int, now time.Time) (Result, error) {
	switch s.scheduler.Current().(type) {
	case phase.Claim:
		return s.SelectClaim(col, row)
	case phase.Play:
		return s.MoveTo(maze.Position{Col: col, Row: row}, now)
	}
	return Result{}, ErrSessionNotInPhase
}

// SelectClaim marks (col, row) as the cell to buy. The player must be able
// to afford it and it must still be free.
func (s *Session) SelectClaim(col, row int) (Result, error) {
	if _, ok := s.scheduler.Current().(phase.Claim); !ok {
		return Result{}, ErrSessionNotInPhase
	}
	if !s.grid.InBound(col, row) {
		return Result{}, grid.ErrOutOfBounds
	}
	if s.grid.IsClaimed(col, row) {
		return Result{}, grid.ErrAlreadyClaimed
	}
	price := s.grid.PriceOf(col, row)
	if !s.ledger.CanAfford(price) {
		return Result{}, economy.ErrInsufficientFunds
	}
	s.claimTarget = &maze.Position{Col: col, Row: row}
	return s.result(EventClaimSelected, func(r *Result) {
		r.Claim = &ClaimReceipt{Col: col, Row: row, Price: price}
	}), nil
}

// CancelClaim clears the claim target.
func (s *Session) CancelClaim() (Result, error) {
	s.claimTarget = nil
	return s.result(EventClaimCancelled, nil), nil
}

// ConfirmClaim buys the selected cell and labels it with tag. The cell is
// claimed and the wallet charged together; if the charge fails the claim is
// rolled back.
func (s *Session) ConfirmClaim(tag string) (Result, error) {
	if _, ok := s.scheduler.Current().(phase.Claim); !ok {
		return Result{}, ErrSessionNotInPhase
	}
	if s.claimTarget == nil {
		return Result{}, ErrNoClaimTarget
	}
	if s.account == "" {
		return Result{}, ErrEmptyAccount
	}
	t := *s.claimTarget
	price := s.grid.PriceOf(t.Col, t.Row)

	if err := s.grid.Claim(t.Col, t.Row, s.account, tag); err != nil {
		return Result{}, err
	}
	if err := s.ledger.Charge(price, economy.ReasonClaim); err != nil {
		s.grid.Release(t.Col, t.Row)
		return Result{}, err
	}
	split := s.ledger.SplitClaimRevenue(price)

	s.player.HasClaimedInRound = true
	s.player.HasEverClaimed = true
	s.claimTarget = nil

	return s.result(EventClaimSucceeded, func(r *Result) {
		r.Claim = &ClaimReceipt{Col: t.Col, Row: t.Row, Price: price, Tag: tag, Split: &split}
		r.Amount = price
	}), nil
}

// MoveTo steps the player onto a neighbouring cell.
func (s *Session) MoveTo(to maze.Position, now time.Time) (Result, error) {
	b, err := s.board(now)
	if err != nil {
		return Result{}, err
	}
	out, err := s.engine.AttemptMove(b, s.account, s.position(), to)
	if err != nil {
		return Result{}, err
	}
	return s.applyMove(out, now)
}

// OnDirectionKey steps the player one cell in d. Stepping off the grid is a
// no-op.
func (s *Session) OnDirectionKey(d maze.Direction, now time.Time) (Result, error) {
	b, err := s.board(now)
	if err != nil {
		return Result{}, err
	}
	out, err := s.engine.AttemptDirection(b, s.account, s.position(), d)
	if err != nil {
		return Result{}, err
	}
	if !out.Moved {
		return s.result(EventNoMove, func(r *Result) { r.Move = &out }), nil
	}
	return s.applyMove(out, now)
}

// RequestHint charges the hint cost and reveals a short path toward the
// exit until it expires.
func (s *Session) RequestHint(now time.Time) (Result, error) {
	if _, err := s.board(now); err != nil {
		return Result{}, err
	}
	if s.exit == nil {
		return Result{}, ErrSessionNotInPhase
	}
	if err := s.ledger.Charge(s.rules.HintCost, economy.ReasonHint); err != nil {
		return Result{}, err
	}
	s.hint = hintPath(s.position(), *s.exit, s.rules.HintMaxSteps)
	s.hintExpiresAt = now.Add(s.rules.HintTTL)

	return s.result(EventHintShown, func(r *Result) {
		r.Hint = s.HintPath(now)
		r.Amount = s.rules.HintCost
	}), nil
}

// HintPath returns the revealed hint, or nil once it has expired.
func (s *Session) HintPath(now time.Time) []maze.Position {
	if len(s.hint) == 0 || !now.Before(s.hintExpiresAt) {
		return nil
	}
	out := make([]maze.Position, len(s.hint))
	copy(out, s.hint)
	return out
}

// Tick advances the phase clock. Followers wait for the host's snapshot
// instead.
func (s *Session) Tick(now time.Time) (Result, error) {
	if s.follower {
		return s.result(EventNone, nil), nil
	}
	tr, ok := s.scheduler.Tick(now)
	if !ok {
		return s.result(EventNone, nil), nil
	}
	change, err := s.enterPhase(tr, true)
	if err != nil {
		return Result{}, err
	}
	return s.result(EventPhaseChanged, func(r *Result) { r.Phases = []PhaseChange{change} }), nil
}

// EndPlay finishes the play phase early. The room calls it on the host when
// a follower reaches the exit.
func (s *Session) EndPlay(now time.Time) (Result, error) {
	tr, ok := s.scheduler.EndPlay(now)
	if !ok {
		return Result{}, ErrSessionNotInPhase
	}
	change, err := s.enterPhase(tr, !s.follower)
	if err != nil {
		return Result{}, err
	}
	return s.result(EventPhaseChanged, func(r *Result) { r.Phases = []PhaseChange{change} }), nil
}

// ApplyRemoteSnapshot overwrites the round state with the host's. The
// snapshot is validated in full before anything changes.
func (s *Session) ApplyRemoteSnapshot(snap SharedSnapshot) (Result, error) {
	p, m, field, err := snap.decode()
	if err != nil {
		return Result{}, err
	}
	if m != nil && (m.Width() != s.grid.Size() || m.Height() != s.grid.Size()) {
		return Result{}, fmt.Errorf("%w: maze is %dx%d, grid is %d", ErrBadSnapshot, m.Width(), m.Height(), s.grid.Size())
	}

	s.maze = m
	s.treasures = field
	s.exit = nil
	if snap.Exit != nil {
		e := *snap.Exit
		s.exit = &e
	}
	s.sharedVersion = snap.Version

	res := s.result(EventSnapshotApplied, nil)
	if tr, changed := s.scheduler.Overwrite(p, snap.StartedAt); changed {
		change, err := s.enterPhase(tr, false)
		if err != nil {
			return Result{}, err
		}
		res.Phases = []PhaseChange{change}
	}
	return res, nil
}

// ApplyRemoteClaim records a cell bought by another participant.
func (s *Session) ApplyRemoteClaim(col, row int, owner, tag string) (Result, error) {
	if err := s.grid.Claim(col, row, owner, tag); err != nil {
		return Result{}, err
	}
	return s.result(EventRemoteClaim, func(r *Result) {
		r.Claim = &ClaimReceipt{Col: col, Row: row, Tag: tag}
	}), nil
}

// ConnectAccount sets the account that owns claims made from now on. The
// account cannot change while the current one owns cells on the grid.
func (s *Session) ConnectAccount(id string) (Result, error) {
	if id == "" {
		return Result{}, ErrEmptyAccount
	}
	if id == s.account {
		return s.result(EventAccountConnected, nil), nil
	}
	if _, _, owns := s.grid.FirstOwnedBy(s.account); owns {
		return Result{}, ErrAccountLocked
	}
	s.account = id
	return s.result(EventAccountConnected, nil), nil
}

// Deposit adds purchased gold to the wallet.
func (s *Session) Deposit(amount int64) (Result, error) {
	if amount <= 0 {
		return Result{}, economy.ErrInvalidAmount
	}
	s.ledger.Credit(amount, economy.ReasonPurchase)
	return s.result(EventDeposited, func(r *Result) { r.Amount = amount }), nil
}

// ConvertGold withdraws gold from the wallet and reports its PGL value.
func (s *Session) ConvertGold(amount int64) (Result, error) {
	if amount <= 0 {
		return Result{}, economy.ErrInvalidAmount
	}
	if err := s.ledger.Charge(amount, economy.ReasonConversion); err != nil {
		return Result{}, err
	}
	return s.result(EventConverted, func(r *Result) {
		r.Amount = amount
		r.PGL = float64(amount) / float64(s.rules.GoldPerPGL)
	}), nil
}

// CreditTransfer pays this session's account a parking fee collected by
// another participant.
func (s *Session) CreditTransfer(amount int64) (Result, error) {
	if amount <= 0 {
		return Result{}, economy.ErrInvalidAmount
	}
	s.ledger.Credit(amount, economy.ReasonParking)
	return s.result(EventTransferReceived, func(r *Result) { r.Amount = amount }), nil
}

func (s *Session) board(now time.Time) (movement.Board, error) {
	if _, ok := s.scheduler.Current().(phase.Play); !ok || s.finished || s.maze == nil {
		return movement.Board{}, ErrSessionNotInPhase
	}
	if !s.placed {
		return movement.Board{}, ErrNotPlaced
	}
	b := movement.Board{
		Maze:      s.maze,
		Grid:      s.grid,
		Ledger:    s.ledger,
		Treasures: s.treasures,
		Exit:      maze.Position{Col: -1, Row: -1},
		Remaining: s.scheduler.Remaining(now),
	}
	if s.exit != nil {
		b.Exit = *s.exit
	}
	return b, nil
}

func (s *Session) position() maze.Position {
	return maze.Position{Col: s.player.Col, Row: s.player.Row}
}

func (s *Session) applyMove(out movement.Outcome, now time.Time) (Result, error) {
	s.player.Col, s.player.Row = out.To.Col, out.To.Row
	s.score += out.ScoreDelta()

	event := EventMoved
	if out.Treasure != nil {
		event = EventTreasureCollected
	}
	res := s.result(event, func(r *Result) { r.Move = &out })
	if !out.ExitReached {
		return res, nil
	}

	res.Event = EventExitReached
	if s.follower {
		s.finished = true
		res.Economy = s.ledger.State()
		return res, nil
	}
	tr, ok := s.scheduler.EndPlay(now)
	if !ok {
		return res, nil
	}
	change, err := s.enterPhase(tr, true)
	if err != nil {
		return Result{}, err
	}
	res.Phases = []PhaseChange{change}
	res.Economy = s.ledger.State()
	return res, nil
}

// enterPhase applies the effects of a transition. authoritative sessions
// generate and clear round state; followers receive it in snapshots.
func (s *Session) enterPhase(tr phase.Transition, authoritative bool) (PhaseChange, error) {
	change := phaseChange(tr)

	if _, ok := tr.From.(phase.Play); ok {
		change.RoundScore = s.score
		s.highScore = max(s.highScore, s.score)
		s.finished = true
		s.hint = nil
	}

	switch tr.To.(type) {
	case phase.Play:
		if authoritative {
			if err := s.generateRound(); err != nil {
				return change, err
			}
		}
		s.score = 0
		s.finished = false
		s.claimTarget = nil
		s.place()
	case phase.Claim:
		s.player.HasClaimedInRound = false
		s.placed = false
		s.finished = false
		if !s.rules.CarryClaims {
			s.grid.Reset()
		}
		if authoritative {
			s.maze = nil
			s.treasures = treasure.NewField(nil)
			s.exit = nil
		}
	}

	if authoritative {
		s.sharedVersion++
	}
	return change, nil
}

func (s *Session) generateRound() error {
	size := s.rules.GridSize
	m, err := maze.Generate(size, size, s.rng)
	if err != nil {
		return fmt.Errorf("generating maze: %w", err)
	}
	field, err := treasure.Generate(size, s.rules.Treasures, s.rng)
	if err != nil {
		return fmt.Errorf("placing treasures: %w", err)
	}
	exit := treasure.PlaceExit(size, s.rng)

	s.maze = m
	s.treasures = field
	s.exit = &exit
	return nil
}

// place puts the player on their first claimed cell. Players without a
// claim spectate the round.
func (s *Session) place() {
	col, row, ok := s.grid.FirstOwnedBy(s.account)
	if s.account == "" || !ok {
		s.placed = false
		return
	}
	s.player.Col, s.player.Row = col, row
	s.placed = true
}

func (s *Session) result(e EventKind, fill func(*Result)) Result {
	r := Result{Event: e}
	if fill != nil {
		fill(&r)
	}
	r.Economy = s.ledger.State()
	return r
}

// hintPath walks straight toward exit, columns first, for at most steps
// cells. It ignores walls.
func hintPath(from, exit maze.Position, steps int) []maze.Position {
	var path []maze.Position
	cur := from
	for cur != exit && len(path) < steps {
		switch {
		case cur.Col < exit.Col:
			cur.Col++
		case cur.Col > exit.Col:
			cur.Col--
		case cur.Row < exit.Row:
			cur.Row++
		default:
			cur.Row--
		}
		path = append(path, cur)
	}
	return path
}
