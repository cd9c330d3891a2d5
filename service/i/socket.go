package i

import "github.com/google/uuid"

// Authenticator decides whether a player may open a connection.
type Authenticator interface {
	Authenticate(playerID uuid.UUID) error
}

// Socket carries frames between players and rooms.
type Socket interface {
	SetClientRequestHandler(func(playerID uuid.UUID, payload []byte))
	SetClientAuthenticator(Authenticator)
	BroadcastToClients(playerIDs []uuid.UUID, payload []byte)
	// Addr returns the address clients dial, including the path prefix.
	Addr() string
}

// Journal records round outcomes.
type Journal interface {
	Append(v any) error
	Close() error
}
