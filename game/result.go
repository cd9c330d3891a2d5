package game

import (
	"errors"

	"github.com/beka-birhanu/vinom-claim-maze/game/economy"
	"github.com/beka-birhanu/vinom-claim-maze/game/grid"
	"github.com/beka-birhanu/vinom-claim-maze/game/maze"
	"github.com/beka-birhanu/vinom-claim-maze/game/movement"
	"github.com/beka-birhanu/vinom-claim-maze/game/phase"
)

var (
	ErrNoClaimTarget     = errors.New("no cell selected for claiming")
	ErrSessionNotInPhase = errors.New("intent is not allowed in the current phase")
	ErrNotPlaced         = errors.New("player has no position this round")
	ErrEmptyAccount      = errors.New("account id must not be empty")
	ErrAccountLocked     = errors.New("account owns claimed cells")
	ErrBadSnapshot       = errors.New("shared snapshot is malformed")
)

// Wire codes returned to clients for rejected intents.
const (
	CodeNotAdjacent       = "E_NOT_ADJACENT"
	CodeWallBlocked       = "E_WALL_BLOCKED"
	CodeAlreadyClaimed    = "E_ALREADY_CLAIMED"
	CodeNoClaimTarget     = "E_NO_CLAIM_TARGET"
	CodeInsufficientFunds = "E_INSUFFICIENT_FUNDS"
	CodeNotInPhase        = "E_NOT_IN_PHASE"
	CodeNotPlaced         = "E_NOT_PLACED"
	CodeOutOfBounds       = "E_OUT_OF_BOUNDS"
	CodeAccountLocked     = "E_ACCOUNT_LOCKED"
	CodeBadRequest        = "E_BAD_REQUEST"
	CodeInternal          = "E_INTERNAL"
)

// Code maps an intent error to its wire code. A nil error has no code.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, movement.ErrNotAdjacent):
		return CodeNotAdjacent
	case errors.Is(err, movement.ErrWallBlocked):
		return CodeWallBlocked
	case errors.Is(err, grid.ErrAlreadyClaimed):
		return CodeAlreadyClaimed
	case errors.Is(err, ErrNoClaimTarget):
		return CodeNoClaimTarget
	case errors.Is(err, economy.ErrInsufficientFunds):
		return CodeInsufficientFunds
	case errors.Is(err, ErrSessionNotInPhase):
		return CodeNotInPhase
	case errors.Is(err, ErrNotPlaced):
		return CodeNotPlaced
	case errors.Is(err, grid.ErrOutOfBounds):
		return CodeOutOfBounds
	case errors.Is(err, ErrAccountLocked):
		return CodeAccountLocked
	case errors.Is(err, economy.ErrInvalidAmount),
		errors.Is(err, grid.ErrEmptyOwner),
		errors.Is(err, ErrEmptyAccount),
		errors.Is(err, ErrBadSnapshot):
		return CodeBadRequest
	}
	return CodeInternal
}

// EventKind names what an accepted intent did.
type EventKind string

const (
	EventNone              EventKind = ""
	EventClaimSelected     EventKind = "claim_selected"
	EventClaimCancelled    EventKind = "claim_cancelled"
	EventClaimSucceeded    EventKind = "claim_succeeded"
	EventMoved             EventKind = "moved"
	EventNoMove            EventKind = "no_move"
	EventTreasureCollected EventKind = "treasure_collected"
	EventExitReached       EventKind = "exit_reached"
	EventHintShown         EventKind = "hint_shown"
	EventPhaseChanged      EventKind = "phase_changed"
	EventSnapshotApplied   EventKind = "snapshot_applied"
	EventRemoteClaim       EventKind = "remote_claim"
	EventAccountConnected  EventKind = "account_connected"
	EventDeposited         EventKind = "deposited"
	EventConverted         EventKind = "converted"
	EventTransferReceived  EventKind = "transfer_received"
)

// ClaimReceipt describes a selected or purchased cell.
type ClaimReceipt struct {
	Col   int            `json:"col"`
	Row   int            `json:"row"`
	Price int64          `json:"price"`
	Tag   string         `json:"tag,omitempty"`
	Split *economy.Split `json:"split,omitempty"`
}

// PhaseChange is a transition the intent caused or observed.
type PhaseChange struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Generation uint64 `json:"generation"`
	// RoundScore is set when a play phase ended.
	RoundScore int64 `json:"roundScore,omitempty"`
}

func phaseChange(tr phase.Transition) PhaseChange {
	return PhaseChange{From: tr.From.Name(), To: tr.To.Name(), Generation: tr.Generation}
}

// Result is the outcome of an accepted intent. Event is the most significant
// thing that happened; the payload fields carry the details.
type Result struct {
	Event   EventKind         `json:"event"`
	Claim   *ClaimReceipt     `json:"claim,omitempty"`
	Move    *movement.Outcome `json:"move,omitempty"`
	Hint    []maze.Position   `json:"hint,omitempty"`
	Phases  []PhaseChange     `json:"phases,omitempty"`
	Amount  int64             `json:"amount,omitempty"`
	PGL     float64           `json:"pgl,omitempty"`
	Economy economy.State     `json:"economy"`
}
