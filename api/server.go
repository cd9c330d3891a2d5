package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/beka-birhanu/vinom-claim-maze/game"
	"github.com/beka-birhanu/vinom-claim-maze/game/economy"
	"github.com/beka-birhanu/vinom-claim-maze/service"
	"github.com/beka-birhanu/vinom-claim-maze/service/i"
	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type Server struct {
	gameSessionManager i.GameSessionManager
	logger             general_i.Logger
}

func RegisterNewGameSessionManager(gsr grpc.ServiceRegistrar, gsm i.GameSessionManager, logger general_i.Logger) error {
	if gsm == nil {
		return errors.New("game session manager is required")
	}
	server := &Server{
		gameSessionManager: gsm,
		logger:             logger,
	}

	RegisterSessionServer(gsr, server)
	return nil
}

// NewGame expects {"playerIDs": ["<uuid>", ...]} and returns {"roomID": "<uuid>"}.
func (s *Server) NewGame(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	list := r.GetFields()["playerIDs"].GetListValue()
	if list == nil {
		return nil, status.Error(codes.InvalidArgument, "playerIDs must be a list")
	}

	parsedIDs := make([]uuid.UUID, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		id, err := uuid.Parse(v.GetStringValue())
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "parsing player id %q: %v", v.GetStringValue(), err)
		}
		parsedIDs = append(parsedIDs, id)
	}

	roomID, err := s.gameSessionManager.NewSession(parsedIDs)
	if err != nil {
		return nil, s.toStatus("NewGame", err)
	}
	return structpb.NewStruct(map[string]any{"roomID": roomID.String()})
}

// SessionInfo expects {"playerID": "<uuid>"} and returns where to connect.
func (s *Server) SessionInfo(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	playerID, err := playerIDFrom(r)
	if err != nil {
		return nil, err
	}

	roomID, serverAddr, err := s.gameSessionManager.SessionInfo(playerID)
	if err != nil {
		return nil, s.toStatus("SessionInfo", err)
	}
	return structpb.NewStruct(map[string]any{
		"roomID":     roomID.String(),
		"serverAddr": serverAddr,
	})
}

// Snapshot expects {"playerID": "<uuid>"} and returns the player's view.
func (s *Server) Snapshot(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	playerID, err := playerIDFrom(r)
	if err != nil {
		return nil, err
	}

	view, err := s.gameSessionManager.Snapshot(playerID)
	if err != nil {
		return nil, s.toStatus("Snapshot", err)
	}
	return s.viewStruct("Snapshot", view)
}

// Deposit expects {"playerID": "<uuid>", "amount": <whole gold>} from the
// payment provider and returns the player's view.
func (s *Server) Deposit(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	playerID, err := playerIDFrom(r)
	if err != nil {
		return nil, err
	}
	amount := r.GetFields()["amount"].GetNumberValue()
	if amount <= 0 || amount != math.Trunc(amount) || amount >= math.MaxInt64 {
		return nil, status.Errorf(codes.InvalidArgument, "amount must be a positive whole number, got %v", amount)
	}

	view, err := s.gameSessionManager.Deposit(playerID, int64(amount))
	if err != nil {
		return nil, s.toStatus("Deposit", err)
	}
	return s.viewStruct("Deposit", view)
}

// ConnectAccount expects {"playerID": "<uuid>", "account": "<wallet>"}.
func (s *Server) ConnectAccount(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	playerID, err := playerIDFrom(r)
	if err != nil {
		return nil, err
	}

	view, err := s.gameSessionManager.ConnectAccount(playerID, r.GetFields()["account"].GetStringValue())
	if err != nil {
		return nil, s.toStatus("ConnectAccount", err)
	}
	return s.viewStruct("ConnectAccount", view)
}

func (s *Server) viewStruct(method string, view game.View) (*structpb.Struct, error) {
	raw, err := json.Marshal(view)
	if err != nil {
		return nil, s.toStatus(method, err)
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(raw); err != nil {
		return nil, s.toStatus(method, err)
	}
	return out, nil
}

func playerIDFrom(r *structpb.Struct) (uuid.UUID, error) {
	raw := r.GetFields()["playerID"].GetStringValue()
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "parsing playerID %q: %v", raw, err)
	}
	return id, nil
}

// toStatus maps service errors to gRPC status codes. Unknown errors are
// logged and reported as Internal.
func (s *Server) toStatus(method string, err error) error {
	var c codes.Code
	switch {
	case errors.Is(err, service.ErrNoSession),
		errors.Is(err, service.ErrUnknownPlayer):
		c = codes.NotFound
	case errors.Is(err, service.ErrPlayerInSession),
		errors.Is(err, service.ErrAccountTaken):
		c = codes.AlreadyExists
	case errors.Is(err, service.ErrTooManyPlayers),
		errors.Is(err, service.ErrNotEnoughPlayers),
		errors.Is(err, service.ErrDuplicatePlayer),
		errors.Is(err, economy.ErrInvalidAmount),
		errors.Is(err, game.ErrEmptyAccount):
		c = codes.InvalidArgument
	case errors.Is(err, game.ErrAccountLocked):
		c = codes.FailedPrecondition
	case errors.Is(err, service.ErrGameStopped):
		c = codes.Unavailable
	case errors.Is(err, context.Canceled):
		c = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		c = codes.DeadlineExceeded
	default:
		c = codes.Internal
		if s.logger != nil {
			s.logger.Error(fmt.Sprintf("%s: %v", method, err))
		}
	}
	return status.Error(c, err.Error())
}
