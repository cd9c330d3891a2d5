package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-claim-maze/game"
	"github.com/beka-birhanu/vinom-claim-maze/game/economy"
	"github.com/beka-birhanu/vinom-claim-maze/game/maze"
	"github.com/beka-birhanu/vinom-claim-maze/service/i"
	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	"github.com/google/uuid"
)

// Game-related errors.
var (
	ErrTooManyPlayers   = errors.New("too many players")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrDuplicatePlayer  = errors.New("player listed twice")
	ErrUnknownPlayer    = errors.New("player is not in this game")
	ErrGameStopped      = errors.New("game has stopped")
	ErrAccountTaken     = errors.New("account is held by another player in this game")
)

const (
	minPlayers = 1 // Minimum number of players.

	defaultMaxPlayers   = 8
	defaultTickInterval = time.Second
)

// RoundRecord is journaled for every player when a play phase ends.
type RoundRecord struct {
	Room      string        `json:"room"`
	Player    string        `json:"player"`
	Account   string        `json:"account"`
	Round     int           `json:"round"`
	Score     int64         `json:"score"`
	HighScore int64         `json:"highScore"`
	Economy   economy.State `json:"economy"`
	EndedAt   time.Time     `json:"endedAt"`
}

// GameConfig configures a room.
type GameConfig struct {
	ID           uuid.UUID
	Players      []uuid.UUID
	Rules        game.Rules
	MaxPlayers   int
	TickInterval time.Duration
	// Rounds ends the room after that many play phases. Zero runs until Stop.
	Rounds  int
	Journal i.Journal
	Logger  general_i.Logger
	Clock   func() time.Time
	// HostOptions are passed to the host session, e.g. a fixed seed.
	HostOptions []game.Option
}

type viewRequest struct {
	player uuid.UUID
	resp   chan viewResponse
}

type viewResponse struct {
	view game.View
	err  error
}

// trustedRequest carries a wallet or identity update that arrives from the
// server side, never from a player's socket.
type trustedRequest struct {
	player uuid.UUID
	apply  func(*game.Session) (game.Result, error)
	resp   chan viewResponse
}

// Game is a room of players sharing one round. Every player has their own
// game.Session; the first player's session is the host and owns the round
// state, the others follow its snapshots. All sessions are touched only by
// the loop goroutine.
type Game struct {
	id       uuid.UUID
	players  []uuid.UUID
	sessions map[uuid.UUID]*game.Session
	host     uuid.UUID

	hostVersion  uint64 // Last host snapshot version pushed to followers.
	rounds       int
	roundsPlayed int
	over         bool

	tickInterval time.Duration
	clock        func() time.Time
	journal      i.Journal
	logger       general_i.Logger

	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	actionChan chan i.Action
	viewChan   chan viewRequest
	trustChan  chan trustedRequest
	stateChan  chan i.Delivery
	endChan    chan i.Delivery
}

// NewGame creates a room. The first player hosts.
func NewGame(c *GameConfig) (*Game, error) {
	maxPlayers := c.MaxPlayers
	if maxPlayers <= 0 {
		maxPlayers = defaultMaxPlayers
	}
	if len(c.Players) > maxPlayers {
		return nil, ErrTooManyPlayers
	}
	if len(c.Players) < minPlayers {
		return nil, ErrNotEnoughPlayers
	}

	clock := c.Clock
	if clock == nil {
		clock = time.Now
	}
	tick := c.TickInterval
	if tick <= 0 {
		tick = defaultTickInterval
	}

	g := &Game{
		id:           c.ID,
		players:      make([]uuid.UUID, 0, len(c.Players)),
		sessions:     make(map[uuid.UUID]*game.Session, len(c.Players)),
		host:         c.Players[0],
		rounds:       c.Rounds,
		tickInterval: tick,
		clock:        clock,
		journal:      c.Journal,
		logger:       c.Logger,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
		actionChan:   make(chan i.Action),
		viewChan:     make(chan viewRequest),
		trustChan:    make(chan trustedRequest),
		stateChan:    make(chan i.Delivery),
		endChan:      make(chan i.Delivery),
	}

	start := clock()
	for idx, pID := range c.Players {
		if _, ok := g.sessions[pID]; ok {
			return nil, ErrDuplicatePlayer
		}
		var opts []game.Option
		if idx == 0 {
			opts = c.HostOptions
		}
		s, err := game.New(game.Config{
			Rules:    c.Rules,
			Account:  pID.String(),
			Follower: idx > 0,
			Start:    start,
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating session for %s: %w", pID, err)
		}
		g.sessions[pID] = s
		g.players = append(g.players, pID)
	}

	return g, nil
}

// Start runs the room loop until Stop is called or the last round ends.
func (g *Game) Start() {
	defer g.finish()
	ticker := time.NewTicker(g.tickInterval)
	defer ticker.Stop()

	g.broadcastState(g.clock())
	for {
		select {
		case <-g.stop:
			return
		case a := <-g.actionChan:
			g.handleAction(a)
		case req := <-g.viewChan:
			req.resp <- g.view(req.player)
		case req := <-g.trustChan:
			req.resp <- g.handleTrusted(req)
		case <-ticker.C:
			g.tick(g.clock())
		}
		if g.over {
			return
		}
	}
}

// Stop ends the game and waits until the final state has been delivered.
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
	<-g.done
}

// Submit queues a player request.
func (g *Game) Submit(a i.Action) error {
	select {
	case g.actionChan <- a:
		return nil
	case <-g.done:
		return ErrGameStopped
	}
}

// View renders a player's session from the loop goroutine.
func (g *Game) View(playerID uuid.UUID) (game.View, error) {
	req := viewRequest{player: playerID, resp: make(chan viewResponse, 1)}
	select {
	case g.viewChan <- req:
	case <-g.done:
		return game.View{}, ErrGameStopped
	}
	r := <-req.resp
	return r.view, r.err
}

// Deposit credits gold bought through the payment provider to a player's
// wallet and returns the updated view.
func (g *Game) Deposit(playerID uuid.UUID, amount int64) (game.View, error) {
	return g.trusted(playerID, func(s *game.Session) (game.Result, error) {
		return s.Deposit(amount)
	})
}

// ConnectAccount binds a wallet account to a player. An account held by
// another player of the room, or equal to another player's id, is rejected.
func (g *Game) ConnectAccount(playerID uuid.UUID, account string) (game.View, error) {
	return g.trusted(playerID, func(s *game.Session) (game.Result, error) {
		for _, other := range g.players {
			if other == playerID {
				continue
			}
			if account == other.String() || account == g.sessions[other].Account() {
				return game.Result{}, ErrAccountTaken
			}
		}
		return s.ConnectAccount(account)
	})
}

func (g *Game) trusted(playerID uuid.UUID, apply func(*game.Session) (game.Result, error)) (game.View, error) {
	req := trustedRequest{player: playerID, apply: apply, resp: make(chan viewResponse, 1)}
	select {
	case g.trustChan <- req:
	case <-g.done:
		return game.View{}, ErrGameStopped
	}
	r := <-req.resp
	return r.view, r.err
}

// StateChan returns the state change channel.
func (g *Game) StateChan() <-chan i.Delivery {
	return g.stateChan
}

// EndChan returns the end channel for the game.
func (g *Game) EndChan() <-chan i.Delivery {
	return g.endChan
}

func (g *Game) finish() {
	close(g.stateChan)
	now := g.clock()
	for _, pID := range g.players {
		v := g.sessions[pID].View(now)
		if payload, ok := g.encode(outFrame{Type: frameEnded, View: &v}); ok {
			g.endChan <- i.Delivery{Players: []uuid.UUID{pID}, Payload: payload}
		}
	}
	close(g.endChan)
	close(g.done)
}

func (g *Game) view(pID uuid.UUID) viewResponse {
	s, ok := g.sessions[pID]
	if !ok {
		return viewResponse{err: ErrUnknownPlayer}
	}
	return viewResponse{view: s.View(g.clock())}
}

func (g *Game) handleTrusted(req trustedRequest) viewResponse {
	s, ok := g.sessions[req.player]
	if !ok {
		return viewResponse{err: ErrUnknownPlayer}
	}
	now := g.clock()
	res, err := req.apply(s)
	if err != nil {
		return viewResponse{err: err}
	}
	g.reply(req.player, res, nil)
	g.propagate(req.player, s, res, now)
	g.broadcastState(now)
	return viewResponse{view: s.View(now)}
}

// handleAction decodes and applies one player request, then pushes the
// consequences to the other sessions and everyone's view.
func (g *Game) handleAction(a i.Action) {
	s, ok := g.sessions[a.PlayerID]
	if !ok {
		g.logWarning(fmt.Sprintf("action from player %s outside room %s", a.PlayerID, g.id))
		return
	}
	now := g.clock()

	f, err := decodeIntent(a.Payload)
	if err != nil {
		g.reply(a.PlayerID, game.Result{}, err)
		return
	}
	if f.Type == intentState {
		g.sendState(a.PlayerID, now)
		return
	}

	res, err := g.apply(s, f, now)
	g.reply(a.PlayerID, res, err)
	if err != nil {
		return
	}

	g.propagate(a.PlayerID, s, res, now)
	g.syncFollowers()
	g.broadcastState(now)
}

func (g *Game) apply(s *game.Session, f intentFrame, now time.Time) (game.Result, error) {
	switch f.Type {
	case intentClick:
		col, row, err := f.target()
		if err != nil {
			return game.Result{}, err
		}
		return s.OnCellClick(col, row, now)
	case intentKey:
		d, err := maze.ParseDirection(f.Direction)
		if err != nil {
			return game.Result{}, fmt.Errorf("%w: %w", ErrBadIntent, err)
		}
		return s.OnDirectionKey(d, now)
	case intentSelect:
		col, row, err := f.target()
		if err != nil {
			return game.Result{}, err
		}
		return s.SelectClaim(col, row)
	case intentCancel:
		return s.CancelClaim()
	case intentClaim:
		if f.Col != nil || f.Row != nil {
			col, row, err := f.target()
			if err != nil {
				return game.Result{}, err
			}
			if _, err := s.SelectClaim(col, row); err != nil {
				return game.Result{}, err
			}
		}
		return s.ConfirmClaim(f.Tag)
	case intentHint:
		return s.RequestHint(now)
	case intentConvert:
		return s.ConvertGold(f.Amount)
	}
	return game.Result{}, fmt.Errorf("%w: unknown type %q", ErrBadIntent, f.Type)
}

// propagate applies the cross-session effects of an accepted intent.
func (g *Game) propagate(pID uuid.UUID, s *game.Session, res game.Result, now time.Time) {
	g.recordRounds(pID, s, res)

	if res.Event == game.EventClaimSucceeded && res.Claim != nil {
		for _, other := range g.players {
			if other == pID {
				continue
			}
			if _, err := g.sessions[other].ApplyRemoteClaim(res.Claim.Col, res.Claim.Row, s.Account(), res.Claim.Tag); err != nil {
				g.logWarning(fmt.Sprintf("mirroring claim (%d,%d) to %s: %v", res.Claim.Col, res.Claim.Row, other, err))
			}
		}
	}

	if res.Move != nil && res.Move.Parking != nil && !res.Move.Parking.ToTreasury {
		route := res.Move.Parking
		owner, ok := g.sessionByAccount(route.Owner)
		if !ok {
			g.logWarning(fmt.Sprintf("parking fee of %d owed to %s who is not in room %s", route.Amount, route.Owner, g.id))
		} else if _, err := owner.CreditTransfer(route.Amount); err != nil {
			g.logWarning(fmt.Sprintf("crediting parking to %s: %v", route.Owner, err))
		}
	}

	if res.Event == game.EventExitReached && pID != g.host {
		hostRes, err := g.sessions[g.host].EndPlay(now)
		if err != nil {
			g.logWarning(fmt.Sprintf("ending play for room %s: %v", g.id, err))
			return
		}
		g.recordRounds(g.host, g.sessions[g.host], hostRes)
	}
}

// tick advances the host clock and pushes any phase change to followers.
func (g *Game) tick(now time.Time) {
	host := g.sessions[g.host]
	res, err := host.Tick(now)
	if err != nil {
		g.logError(fmt.Sprintf("ticking room %s: %v", g.id, err))
		return
	}
	g.recordRounds(g.host, host, res)
	g.syncFollowers()
	g.broadcastState(now)
}

// syncFollowers copies the host snapshot to every follower when the host
// round state has changed since the last push.
func (g *Game) syncFollowers() {
	snap := g.sessions[g.host].SharedSnapshot()
	if snap.Version == g.hostVersion {
		return
	}
	g.hostVersion = snap.Version

	for _, pID := range g.players {
		s := g.sessions[pID]
		if !s.Follower() {
			continue
		}
		res, err := s.ApplyRemoteSnapshot(snap)
		if err != nil {
			g.logError(fmt.Sprintf("applying host snapshot to %s: %v", pID, err))
			continue
		}
		g.recordRounds(pID, s, res)
	}
}

// recordRounds journals finished play phases found in res. Play phases the
// host finishes count toward the room's round limit.
func (g *Game) recordRounds(pID uuid.UUID, s *game.Session, res game.Result) {
	for _, ch := range res.Phases {
		if ch.From != "play" {
			continue
		}
		if pID == g.host {
			g.roundsPlayed++
			if g.rounds > 0 && g.roundsPlayed >= g.rounds {
				g.over = true
			}
		}
		if g.journal == nil {
			continue
		}
		_, high := s.Score()
		rec := RoundRecord{
			Room:      g.id.String(),
			Player:    pID.String(),
			Account:   s.Account(),
			Round:     g.roundsPlayed,
			Score:     ch.RoundScore,
			HighScore: high,
			Economy:   s.Economy(),
			EndedAt:   g.clock(),
		}
		if err := g.journal.Append(rec); err != nil {
			g.logWarning(fmt.Sprintf("journaling round for %s: %v", pID, err))
		}
	}
}

func (g *Game) sessionByAccount(account string) (*game.Session, bool) {
	for _, pID := range g.players {
		if s := g.sessions[pID]; s.Account() == account {
			return s, true
		}
	}
	return nil, false
}

// broadcastState sends each player their own view.
func (g *Game) broadcastState(now time.Time) {
	for _, pID := range g.players {
		g.sendState(pID, now)
	}
}

func (g *Game) sendState(pID uuid.UUID, now time.Time) {
	v := g.sessions[pID].View(now)
	g.send(pID, outFrame{Type: frameState, View: &v})
}

func (g *Game) reply(pID uuid.UUID, res game.Result, err error) {
	if err != nil {
		g.send(pID, outFrame{Type: frameError, Code: code(err), Message: err.Error()})
		return
	}
	g.send(pID, outFrame{Type: frameResult, Result: &res})
}

func (g *Game) send(pID uuid.UUID, f outFrame) {
	payload, ok := g.encode(f)
	if !ok {
		return
	}
	g.stateChan <- i.Delivery{Players: []uuid.UUID{pID}, Payload: payload}
}

func (g *Game) encode(f outFrame) ([]byte, bool) {
	f.Room = g.id.String()
	payload, err := json.Marshal(f)
	if err != nil {
		g.logError(fmt.Sprintf("encoding %s frame: %v", f.Type, err))
		return nil, false
	}
	return payload, true
}

func (g *Game) logWarning(msg string) {
	if g.logger != nil {
		g.logger.Warning(msg)
	}
}

func (g *Game) logError(msg string) {
	if g.logger != nil {
		g.logger.Error(msg)
	}
}
