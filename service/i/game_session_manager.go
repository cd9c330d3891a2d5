package i

import (
	"github.com/beka-birhanu/vinom-claim-maze/game"
	"github.com/google/uuid"
)

// GameSessionManager manages game sessions and provides session-related information.
type GameSessionManager interface {
	// NewSession starts a room for the given players and returns its id.
	NewSession([]uuid.UUID) (uuid.UUID, error)

	StopAll()

	// SessionInfo returns the room id and the socket address a player connects to.
	SessionInfo(uuid.UUID) (uuid.UUID, string, error)

	// Snapshot returns the player's current view.
	Snapshot(uuid.UUID) (game.View, error)

	// Deposit applies a balance delta reported by the payment provider.
	Deposit(playerID uuid.UUID, amount int64) (game.View, error)

	// ConnectAccount binds the wallet account a player signed in with.
	ConnectAccount(playerID uuid.UUID, account string) (game.View, error)
}
