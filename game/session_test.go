package game

import (
	"errors"
	"testing"
	"time"

	"github.com/beka-birhanu/vinom-claim-maze/game/economy"
	"github.com/beka-birhanu/vinom-claim-maze/game/grid"
	"github.com/beka-birhanu/vinom-claim-maze/game/maze"
	"github.com/beka-birhanu/vinom-claim-maze/game/movement"
	"github.com/beka-birhanu/vinom-claim-maze/game/phase"
	"github.com/beka-birhanu/vinom-claim-maze/game/treasure"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// testRules are the default rules with enough gold to claim an edge cell.
func testRules() Rules {
	r := DefaultRules()
	r.StartingBalance = 50000
	return r
}

func newSession(t *testing.T, r Rules, account string) *Session {
	t.Helper()
	s, err := New(Config{Rules: r, Account: account, Start: t0}, WithSeed(7))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// openCells returns a size×size maze with only the outer boundary walled.
func openCells(size int) []maze.Cell {
	cells := make([]maze.Cell, 0, size*size)
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			cells = append(cells, maze.Cell{
				Col: c,
				Row: r,
				Walls: maze.Walls{
					Top:    r == 0,
					Right:  c == size-1,
					Bottom: r == size-1,
					Left:   c == 0,
				},
			})
		}
	}
	return cells
}

// wallBelow closes the wall between (col, row) and (col, row+1).
func wallBelow(cells []maze.Cell, size, col, row int) {
	cells[row*size+col].Walls.Bottom = true
	cells[(row+1)*size+col].Walls.Top = true
}

func playSnapshot(cells []maze.Cell, size int, exit maze.Position, startedAt time.Time, items []treasure.Treasure) SharedSnapshot {
	return SharedSnapshot{
		Version:   1,
		Phase:     "play",
		StartedAt: startedAt,
		Width:     size,
		Height:    size,
		Maze:      cells,
		Treasures: items,
		Exit:      &exit,
	}
}

func claim(t *testing.T, s *Session, col, row int) Result {
	t.Helper()
	if _, err := s.SelectClaim(col, row); err != nil {
		t.Fatalf("SelectClaim(%d,%d): %v", col, row, err)
	}
	res, err := s.ConfirmClaim("AB")
	if err != nil {
		t.Fatalf("ConfirmClaim: %v", err)
	}
	return res
}

func TestNewRejectsBadRules(t *testing.T) {
	r := DefaultRules()
	r.GridSize = 1
	if _, err := New(Config{Rules: r}); !errors.Is(err, ErrInvalidRules) {
		t.Fatalf("expected ErrInvalidRules, got %v", err)
	}
}

func TestClaimToPlayGeneratesRoundOnce(t *testing.T) {
	s := newSession(t, DefaultRules(), "alice")

	res, err := s.Tick(t0.Add(11 * time.Second))
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if res.Event != EventPhaseChanged || len(res.Phases) != 1 || res.Phases[0].To != "play" {
		t.Fatalf("unexpected tick result %+v", res)
	}

	v := s.View(t0.Add(11 * time.Second))
	if v.Width != 15 || v.Height != 15 || len(v.Maze) != 225 {
		t.Fatalf("maze not generated: %dx%d, %d cells", v.Width, v.Height, len(v.Maze))
	}
	if len(v.Treasures) != 22 {
		t.Fatalf("treasures = %d, want 22", len(v.Treasures))
	}
	if v.Exit == nil || (v.Exit.Col != 0 && v.Exit.Col != 14 && v.Exit.Row != 0 && v.Exit.Row != 14) {
		t.Fatalf("exit not on edge: %+v", v.Exit)
	}
	firstMaze := v.Maze

	res, _ = s.Tick(t0.Add(12 * time.Second))
	if res.Event != EventNone {
		t.Fatalf("second tick fired %s", res.Event)
	}
	again := s.View(t0.Add(12 * time.Second)).Maze
	for i := range firstMaze {
		if firstMaze[i] != again[i] {
			t.Fatal("maze regenerated by a later tick")
		}
	}
}

func TestClaimInteriorCell(t *testing.T) {
	r := DefaultRules()
	r.StartingBalance = 5000
	s := newSession(t, r, "alice")

	res := claim(t, s, 7, 7)
	if res.Event != EventClaimSucceeded || res.Claim.Price != 2000 {
		t.Fatalf("unexpected result %+v", res)
	}
	e := s.Economy()
	if e.WalletBalance != 3000 || e.Treasury != 101000 || e.TotalLoss != 2000 {
		t.Fatalf("unexpected economy %+v", e)
	}
	if res.Claim.Split == nil || res.Claim.Split.Treasury != 1000 || res.Claim.Split.Developer != 1000 {
		t.Fatalf("unexpected split %+v", res.Claim.Split)
	}
	v := s.View(t0)
	if v.Grid[7][7].Owner != "alice" || v.Grid[7][7].Tag != "AB" {
		t.Fatalf("cell not claimed: %+v", v.Grid[7][7])
	}
	if v.ClaimTarget != nil {
		t.Fatal("claim target not cleared")
	}
	if !s.player.HasClaimedInRound || !s.player.HasEverClaimed {
		t.Fatal("claim flags not set")
	}
}

func TestClaimEdgeCellInsufficientFunds(t *testing.T) {
	r := DefaultRules()
	r.StartingBalance = 5000
	s := newSession(t, r, "alice")

	if _, err := s.SelectClaim(0, 3); !errors.Is(err, economy.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if s.Economy().WalletBalance != 5000 || s.grid.IsClaimed(0, 3) {
		t.Fatal("rejected claim changed state")
	}
}

func TestConfirmClaimRollsBackOnCharge(t *testing.T) {
	r := DefaultRules()
	r.StartingBalance = 25000
	s := newSession(t, r, "alice")

	if _, err := s.SelectClaim(0, 3); err != nil {
		t.Fatalf("SelectClaim: %v", err)
	}
	if _, err := s.ConvertGold(10000); err != nil {
		t.Fatalf("ConvertGold: %v", err)
	}
	if _, err := s.ConfirmClaim("AB"); !errors.Is(err, economy.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if s.grid.IsClaimed(0, 3) {
		t.Fatal("claim not rolled back")
	}
	if e := s.Economy(); e.WalletBalance != 15000 || e.Treasury != economy.DefaultStartingTreasury {
		t.Fatalf("unexpected economy %+v", e)
	}
}

func TestClaimRejections(t *testing.T) {
	s := newSession(t, testRules(), "alice")

	if _, err := s.ConfirmClaim("AB"); !errors.Is(err, ErrNoClaimTarget) {
		t.Fatalf("expected ErrNoClaimTarget, got %v", err)
	}
	if _, err := s.SelectClaim(15, 0); !errors.Is(err, grid.ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if _, err := s.ApplyRemoteClaim(5, 5, "bob", "BO"); err != nil {
		t.Fatalf("ApplyRemoteClaim: %v", err)
	}
	if _, err := s.SelectClaim(5, 5); !errors.Is(err, grid.ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}

	if _, err := s.SelectClaim(6, 6); err != nil {
		t.Fatalf("SelectClaim: %v", err)
	}
	if _, err := s.CancelClaim(); err != nil {
		t.Fatalf("CancelClaim: %v", err)
	}
	if _, err := s.ConfirmClaim("AB"); !errors.Is(err, ErrNoClaimTarget) {
		t.Fatalf("expected ErrNoClaimTarget after cancel, got %v", err)
	}

	s.Tick(t0.Add(10 * time.Second))
	if _, err := s.SelectClaim(6, 6); !errors.Is(err, ErrSessionNotInPhase) {
		t.Fatalf("expected ErrSessionNotInPhase, got %v", err)
	}
}

func TestSpectatorCannotMove(t *testing.T) {
	s := newSession(t, DefaultRules(), "alice")
	s.Tick(t0.Add(10 * time.Second))

	if _, err := s.OnDirectionKey(maze.Down, t0.Add(11*time.Second)); !errors.Is(err, ErrNotPlaced) {
		t.Fatalf("expected ErrNotPlaced, got %v", err)
	}
	if s.View(t0).Player != nil {
		t.Fatal("spectator has a position")
	}
}

func TestWallBlockedMove(t *testing.T) {
	s := newSession(t, testRules(), "alice")
	claim(t, s, 7, 7)

	cells := openCells(15)
	wallBelow(cells, 15, 7, 7)
	start := t0.Add(10 * time.Second)
	if _, err := s.ApplyRemoteSnapshot(playSnapshot(cells, 15, maze.Position{Col: 14, Row: 0}, start, nil)); err != nil {
		t.Fatalf("ApplyRemoteSnapshot: %v", err)
	}
	before := s.Economy()

	if _, err := s.OnDirectionKey(maze.Down, start.Add(time.Second)); !errors.Is(err, movement.ErrWallBlocked) {
		t.Fatalf("expected ErrWallBlocked, got %v", err)
	}
	if p := s.View(start).Player; p == nil || p.Col != 7 || p.Row != 7 {
		t.Fatalf("player moved: %+v", p)
	}
	if s.Economy() != before {
		t.Fatal("blocked move changed the economy")
	}
	if _, err := s.OnCellClick(9, 7, start); !errors.Is(err, movement.ErrNotAdjacent) {
		t.Fatalf("expected ErrNotAdjacent, got %v", err)
	}
}

func TestTreasurePayoutCappedByTreasury(t *testing.T) {
	r := DefaultRules()
	r.Pricing.Interior = 0
	r.StartingBalance = 0
	r.StartingTreasury = 10
	s := newSession(t, r, "alice")
	claim(t, s, 7, 7)

	start := t0.Add(10 * time.Second)
	items := []treasure.Treasure{{Col: 7, Row: 6, Value: 50}}
	if _, err := s.ApplyRemoteSnapshot(playSnapshot(openCells(15), 15, maze.Position{Col: 14, Row: 0}, start, items)); err != nil {
		t.Fatalf("ApplyRemoteSnapshot: %v", err)
	}

	res, err := s.OnDirectionKey(maze.Up, start.Add(time.Second))
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Event != EventTreasureCollected || res.Move.Treasure.Granted != 10 || !res.Move.Treasure.Depleted {
		t.Fatalf("unexpected result %+v", res)
	}
	e := s.Economy()
	if e.WalletBalance != 10 || e.Treasury != 0 {
		t.Fatalf("unexpected economy %+v", e)
	}
	if round, _ := s.Score(); round != 10 {
		t.Fatalf("score = %d, want 10", round)
	}
}

func TestExitEndsRoundWithTimeBonus(t *testing.T) {
	r := DefaultRules()
	r.Pricing.Edge = 0
	r.StartingBalance = 100
	s := newSession(t, r, "alice")
	claim(t, s, 14, 6)

	exit := maze.Position{Col: 14, Row: 7}
	now := t0.Add(90 * time.Second)
	start := now.Add(-(78*time.Second + 100*time.Millisecond))
	if _, err := s.ApplyRemoteSnapshot(playSnapshot(openCells(15), 15, exit, start, nil)); err != nil {
		t.Fatalf("ApplyRemoteSnapshot: %v", err)
	}

	res, err := s.OnDirectionKey(maze.Down, now)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Event != EventExitReached || res.Move.TimeBonus != 20 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Phases) != 1 || res.Phases[0].To != "countdown" || res.Phases[0].RoundScore != 20 {
		t.Fatalf("unexpected phase change %+v", res.Phases)
	}
	round, high := s.Score()
	if round != 20 || high != 20 {
		t.Fatalf("score = %d/%d, want 20/20", round, high)
	}
	if e := s.Economy(); e.WalletBalance != 100 || e.TotalProfit != 20 {
		t.Fatalf("time bonus must not touch the wallet: %+v", e)
	}
	if _, err := s.OnDirectionKey(maze.Up, now); !errors.Is(err, ErrSessionNotInPhase) {
		t.Fatalf("expected ErrSessionNotInPhase after exit, got %v", err)
	}
}

func TestFollowerExitWaitsForHost(t *testing.T) {
	r := DefaultRules()
	r.Pricing.Edge = 0
	s, err := New(Config{Rules: r, Account: "bob", Follower: true, Start: t0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	claim(t, s, 14, 6)

	if res, _ := s.Tick(t0.Add(time.Hour)); res.Event != EventNone {
		t.Fatal("follower ran its own transition")
	}

	start := t0.Add(10 * time.Second)
	if _, err := s.ApplyRemoteSnapshot(playSnapshot(openCells(15), 15, maze.Position{Col: 14, Row: 7}, start, nil)); err != nil {
		t.Fatalf("ApplyRemoteSnapshot: %v", err)
	}
	res, err := s.OnDirectionKey(maze.Down, start.Add(time.Second))
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Event != EventExitReached || len(res.Phases) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, ok := s.Phase().(phase.Play); !ok {
		t.Fatalf("follower left play on its own: %s", s.Phase().Name())
	}
	if !s.View(start).Finished {
		t.Fatal("follower not marked finished")
	}
	if _, err := s.OnDirectionKey(maze.Up, start.Add(2*time.Second)); !errors.Is(err, ErrSessionNotInPhase) {
		t.Fatalf("expected ErrSessionNotInPhase, got %v", err)
	}
}

func TestBadSnapshotLeavesStateUntouched(t *testing.T) {
	s := newSession(t, DefaultRules(), "alice")

	cells := openCells(15)
	cells[0].Walls.Right = true // (1,0) left stays open
	_, err := s.ApplyRemoteSnapshot(playSnapshot(cells, 15, maze.Position{Col: 14, Row: 0}, t0, nil))
	if !errors.Is(err, ErrBadSnapshot) {
		t.Fatalf("expected ErrBadSnapshot, got %v", err)
	}
	if _, ok := s.Phase().(phase.Claim); !ok {
		t.Fatalf("phase changed to %s", s.Phase().Name())
	}

	small := openCells(5)
	if _, err := s.ApplyRemoteSnapshot(playSnapshot(small, 5, maze.Position{Col: 4, Row: 0}, t0, nil)); !errors.Is(err, ErrBadSnapshot) {
		t.Fatalf("expected ErrBadSnapshot for wrong size, got %v", err)
	}
	if _, err := s.ApplyRemoteSnapshot(SharedSnapshot{Phase: "lobby"}); !errors.Is(err, ErrBadSnapshot) {
		t.Fatalf("expected ErrBadSnapshot for unknown phase, got %v", err)
	}
	if s.View(t0).Maze != nil {
		t.Fatal("maze applied from a rejected snapshot")
	}
}

func TestSharedSnapshotRoundTrip(t *testing.T) {
	host := newSession(t, DefaultRules(), "alice")
	host.Tick(t0.Add(10 * time.Second))

	follower, err := New(Config{Rules: DefaultRules(), Account: "bob", Follower: true, Start: t0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	snap := host.SharedSnapshot()
	res, err := follower.ApplyRemoteSnapshot(snap)
	if err != nil {
		t.Fatalf("ApplyRemoteSnapshot: %v", err)
	}
	if len(res.Phases) != 1 || res.Phases[0].To != "play" {
		t.Fatalf("unexpected phases %+v", res.Phases)
	}

	got := follower.SharedSnapshot()
	if got.Version != snap.Version || got.Phase != "play" || !got.StartedAt.Equal(snap.StartedAt) {
		t.Fatalf("snapshot mismatch %+v", got)
	}
	if *got.Exit != *snap.Exit || len(got.Treasures) != len(snap.Treasures) {
		t.Fatal("round state not copied")
	}
	for i := range snap.Maze {
		if got.Maze[i] != snap.Maze[i] {
			t.Fatalf("maze cell %d differs", i)
		}
	}
}

func TestNewRoundResetsClaims(t *testing.T) {
	cases := []struct {
		name  string
		carry bool
	}{
		{name: "reset", carry: false},
		{name: "carry", carry: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := testRules()
			r.CarryClaims = tc.carry
			s := newSession(t, r, "alice")
			claim(t, s, 7, 7)

			now := t0.Add(10 * time.Second)
			s.Tick(now)
			now = now.Add(120 * time.Second)
			s.Tick(now)
			now = now.Add(3 * time.Second)
			res, _ := s.Tick(now)
			if len(res.Phases) != 1 || res.Phases[0].To != "claim" {
				t.Fatalf("expected claim phase, got %+v", res)
			}

			if s.player.HasClaimedInRound {
				t.Fatal("claim-in-round flag not reset")
			}
			if !s.player.HasEverClaimed {
				t.Fatal("ever-claimed flag lost")
			}
			if got := s.grid.IsClaimed(7, 7); got != tc.carry {
				t.Fatalf("claimed after new round = %v, want %v", got, tc.carry)
			}
			if s.View(now).Maze != nil {
				t.Fatal("maze kept into claim phase")
			}
		})
	}
}

func TestHint(t *testing.T) {
	r := DefaultRules()
	r.StartingBalance = 3000
	s := newSession(t, r, "alice")
	claim(t, s, 1, 1)

	start := t0.Add(10 * time.Second)
	if _, err := s.ApplyRemoteSnapshot(playSnapshot(openCells(15), 15, maze.Position{Col: 14, Row: 14}, start, nil)); err != nil {
		t.Fatalf("ApplyRemoteSnapshot: %v", err)
	}

	res, err := s.RequestHint(start)
	if err != nil {
		t.Fatalf("RequestHint: %v", err)
	}
	if len(res.Hint) != 11 || res.Hint[0] != (maze.Position{Col: 2, Row: 1}) {
		t.Fatalf("unexpected hint %v", res.Hint)
	}
	if s.Economy().WalletBalance != 0 {
		t.Fatalf("hint not charged: %+v", s.Economy())
	}
	if s.HintPath(start.Add(2*time.Second)) == nil {
		t.Fatal("hint expired early")
	}
	if s.HintPath(start.Add(3*time.Second)) != nil {
		t.Fatal("hint did not expire")
	}
	if _, err := s.RequestHint(start); !errors.Is(err, economy.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestHintPathStopsAtExit(t *testing.T) {
	got := hintPath(maze.Position{Col: 12, Row: 13}, maze.Position{Col: 14, Row: 14}, 11)
	want := []maze.Position{{Col: 13, Row: 13}, {Col: 14, Row: 13}, {Col: 14, Row: 14}}
	if len(got) != len(want) {
		t.Fatalf("hint = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("hint = %v, want %v", got, want)
		}
	}
}

func TestWalletIntents(t *testing.T) {
	r := DefaultRules()
	r.StartingBalance = 0
	s := newSession(t, r, "")

	if _, err := s.SelectClaim(7, 7); !errors.Is(err, economy.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if _, err := s.ConnectAccount(""); !errors.Is(err, ErrEmptyAccount) {
		t.Fatalf("expected ErrEmptyAccount, got %v", err)
	}
	if _, err := s.ConnectAccount("alice"); err != nil {
		t.Fatalf("ConnectAccount: %v", err)
	}
	if _, err := s.Deposit(5000); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if _, err := s.CreditTransfer(3); err != nil {
		t.Fatalf("CreditTransfer: %v", err)
	}
	res, err := s.ConvertGold(2000)
	if err != nil {
		t.Fatalf("ConvertGold: %v", err)
	}
	if res.PGL != 2 {
		t.Fatalf("pgl = %v, want 2", res.PGL)
	}
	e := s.Economy()
	if e.WalletBalance != 3003 || e.TotalProfit != 3 || e.TotalLoss != 0 {
		t.Fatalf("unexpected economy %+v", e)
	}
	if _, err := s.ConvertGold(5000); !errors.Is(err, economy.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if _, err := s.Deposit(-1); !errors.Is(err, economy.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestConnectAccountLockedByClaims(t *testing.T) {
	s := newSession(t, testRules(), "alice")
	claim(t, s, 3, 3)

	if _, err := s.ConnectAccount("bob"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
	if s.Account() != "alice" {
		t.Fatalf("account changed to %q", s.Account())
	}
	if _, err := s.ConnectAccount("alice"); err != nil {
		t.Fatalf("reconnecting the same account: %v", err)
	}
}

func TestCode(t *testing.T) {
	cases := map[error]string{
		nil:                              "",
		movement.ErrNotAdjacent:          CodeNotAdjacent,
		movement.ErrWallBlocked:          CodeWallBlocked,
		grid.ErrAlreadyClaimed:           CodeAlreadyClaimed,
		ErrNoClaimTarget:                 CodeNoClaimTarget,
		economy.ErrInsufficientFunds:     CodeInsufficientFunds,
		ErrSessionNotInPhase:             CodeNotInPhase,
		ErrNotPlaced:                     CodeNotPlaced,
		ErrBadSnapshot:                   CodeBadRequest,
		ErrAccountLocked:                 CodeAccountLocked,
		errors.New("disk on fire"):       CodeInternal,
		errors.Join(ErrInvalidRules):     CodeInternal,
		errors.Join(grid.ErrOutOfBounds): CodeOutOfBounds,
	}
	for err, want := range cases {
		if got := Code(err); got != want {
			t.Errorf("Code(%v) = %q, want %q", err, got, want)
		}
	}
}
