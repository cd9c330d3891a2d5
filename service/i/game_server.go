package i

import (
	"github.com/beka-birhanu/vinom-claim-maze/game"
	"github.com/google/uuid"
)

// Action is a raw client request addressed to a room.
type Action struct {
	PlayerID uuid.UUID
	Payload  []byte
}

// Delivery is an encoded frame for a set of players.
type Delivery struct {
	Players []uuid.UUID
	Payload []byte
}

// GameServer defines the interface for a claim-and-maze room.
type GameServer interface {
	// Start runs the room loop until Stop is called or the last round ends.
	Start()

	// Stop ends the room and waits for the final state to be delivered.
	Stop()

	// Submit queues a player request. It fails once the room has ended.
	Submit(Action) error

	// View renders a player's session.
	View(playerID uuid.UUID) (game.View, error)

	// Deposit credits purchased gold to a player. It is only reachable from
	// the server side.
	Deposit(playerID uuid.UUID, amount int64) (game.View, error)

	// ConnectAccount binds a wallet account to a player.
	ConnectAccount(playerID uuid.UUID, account string) (game.View, error)

	// StateChan returns the state change channel.
	StateChan() <-chan Delivery

	// EndChan returns the end channel for the game.
	EndChan() <-chan Delivery
}
