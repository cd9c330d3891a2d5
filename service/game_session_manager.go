package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-claim-maze/game"
	"github.com/beka-birhanu/vinom-claim-maze/service/i"
	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	"github.com/google/uuid"
)

var (
	ErrNoSession       = errors.New("player has no game session")
	ErrPlayerInSession = errors.New("player already has a game session")
)

type room struct {
	gameSession i.GameServer
	players     []uuid.UUID
}

type GameSessionManager struct {
	socket          i.Socket
	sessions        map[uuid.UUID]room
	playerToSession map[uuid.UUID]uuid.UUID
	rules           game.Rules
	tickInterval    time.Duration
	maxPlayers      int
	rounds          int
	journal         i.Journal
	logger          general_i.Logger
	sync.RWMutex
}

type Config struct {
	Socket       i.Socket
	Rules        game.Rules
	TickInterval time.Duration
	MaxPlayers   int
	Rounds       int
	Journal      i.Journal
	Logger       general_i.Logger
}

func NewGameSessionManager(c *Config) (*GameSessionManager, error) {
	if err := c.Rules.Validate(); err != nil {
		return nil, err
	}
	gsm := &GameSessionManager{
		socket:          c.Socket,
		rules:           c.Rules,
		tickInterval:    c.TickInterval,
		maxPlayers:      c.MaxPlayers,
		rounds:          c.Rounds,
		journal:         c.Journal,
		logger:          c.Logger,
		sessions:        make(map[uuid.UUID]room),
		playerToSession: make(map[uuid.UUID]uuid.UUID),
	}

	c.Socket.SetClientRequestHandler(gsm.writePlayerRequest)
	c.Socket.SetClientAuthenticator(gsm)
	return gsm, nil
}

func (g *GameSessionManager) NewSession(playerIDs []uuid.UUID) (uuid.UUID, error) {
	g.Lock()
	defer g.Unlock()

	for _, pID := range playerIDs {
		if _, ok := g.playerToSession[pID]; ok {
			return uuid.Nil, fmt.Errorf("%w: %s", ErrPlayerInSession, pID)
		}
	}

	sessionID := uuid.New()
	for {
		if _, ok := g.sessions[sessionID]; !ok {
			break
		}
		sessionID = uuid.New()
	}

	gameServer, err := NewGame(&GameConfig{
		ID:           sessionID,
		Players:      playerIDs,
		Rules:        g.rules,
		MaxPlayers:   g.maxPlayers,
		TickInterval: g.tickInterval,
		Rounds:       g.rounds,
		Journal:      g.journal,
		Logger:       g.logger,
	})
	if err != nil {
		g.logger.Error(fmt.Sprintf("creating new game server: %s", err))
		return uuid.Nil, err
	}

	g.saveSession(sessionID, playerIDs, gameServer)
	go g.listenGameChan(sessionID, gameServer, playerIDs)
	go gameServer.Start()
	g.logger.Info(fmt.Sprintf("started new game %s for players: %v", sessionID, playerIDs))
	return sessionID, nil
}

func (g *GameSessionManager) SessionInfo(playerID uuid.UUID) (uuid.UUID, string, error) {
	g.RLock()
	defer g.RUnlock()
	sessionID, ok := g.playerToSession[playerID]
	if !ok {
		return uuid.Nil, "", ErrNoSession
	}
	return sessionID, fmt.Sprintf("%s/%s", strings.TrimRight(g.socket.Addr(), "/"), playerID), nil
}

func (g *GameSessionManager) Snapshot(playerID uuid.UUID) (game.View, error) {
	gs, ok := g.gameOf(playerID)
	if !ok {
		return game.View{}, ErrNoSession
	}
	return gs.View(playerID)
}

func (g *GameSessionManager) Deposit(playerID uuid.UUID, amount int64) (game.View, error) {
	gs, ok := g.gameOf(playerID)
	if !ok {
		return game.View{}, ErrNoSession
	}
	v, err := gs.Deposit(playerID, amount)
	if err != nil {
		return game.View{}, err
	}
	g.logger.Info(fmt.Sprintf("deposited %d gold for player: %s", amount, playerID))
	return v, nil
}

func (g *GameSessionManager) ConnectAccount(playerID uuid.UUID, account string) (game.View, error) {
	gs, ok := g.gameOf(playerID)
	if !ok {
		return game.View{}, ErrNoSession
	}
	return gs.ConnectAccount(playerID, account)
}

// Authenticate admits connections only from players with a running game.
func (g *GameSessionManager) Authenticate(playerID uuid.UUID) error {
	g.RLock()
	defer g.RUnlock()
	if _, ok := g.playerToSession[playerID]; !ok {
		return ErrNoSession
	}

	g.logger.Info(fmt.Sprintf("authenticated player: %s", playerID))
	return nil
}

func (g *GameSessionManager) saveSession(id uuid.UUID, players []uuid.UUID, gs i.GameServer) {
	g.sessions[id] = room{gameSession: gs, players: players}
	for _, player := range players {
		g.playerToSession[player] = id
	}
}

func (g *GameSessionManager) gameOf(playerID uuid.UUID) (i.GameServer, bool) {
	g.RLock()
	defer g.RUnlock()
	sessionID, ok := g.playerToSession[playerID]
	if !ok {
		return nil, false
	}
	return g.sessions[sessionID].gameSession, true
}

func (g *GameSessionManager) listenGameChan(id uuid.UUID, gs i.GameServer, players []uuid.UUID) {
	state, end := gs.StateChan(), gs.EndChan()
	for state != nil || end != nil {
		select {
		case val, ok := <-state:
			if !ok {
				state = nil
				continue
			}
			g.socket.BroadcastToClients(val.Players, val.Payload)
		case val, ok := <-end:
			if !ok {
				end = nil
				continue
			}
			g.socket.BroadcastToClients(val.Players, val.Payload)
		}
	}
	g.clean(id)
	g.logger.Info(fmt.Sprintf("game %s ended for players: %v", id, players))
}

func (g *GameSessionManager) writePlayerRequest(pID uuid.UUID, payload []byte) {
	gs, ok := g.gameOf(pID)
	if !ok {
		g.logger.Warning("received request for player without session")
		return
	}

	if err := gs.Submit(i.Action{PlayerID: pID, Payload: payload}); err != nil {
		g.logger.Warning(fmt.Sprintf("dropping request for player %s: %v", pID, err))
	}
}

func (g *GameSessionManager) clean(ID uuid.UUID) {
	g.Lock()
	defer g.Unlock()
	for _, pID := range g.sessions[ID].players {
		delete(g.playerToSession, pID)
	}

	delete(g.sessions, ID)
}

func (g *GameSessionManager) StopAll() {
	g.RLock()
	games := make([]i.GameServer, 0, len(g.sessions))
	for _, session := range g.sessions {
		games = append(games, session.gameSession)
	}
	g.RUnlock()

	for _, gs := range games {
		gs.Stop()
	}
}
