package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/beka-birhanu/vinom-claim-maze/game"
)

// ErrBadIntent covers client frames that cannot be turned into an intent.
var ErrBadIntent = errors.New("malformed intent")

// Intent frame types sent by clients.
const (
	intentState   = "state"
	intentClick   = "click"
	intentKey     = "key"
	intentSelect  = "select"
	intentCancel  = "cancel"
	intentClaim   = "claim"
	intentHint    = "hint"
	intentConvert = "convert"
)

// Frame types sent to clients.
const (
	frameState  = "state"
	frameResult = "result"
	frameError  = "error"
	frameEnded  = "ended"
)

type intentFrame struct {
	Type      string `json:"type"`
	Col       *int   `json:"col,omitempty"`
	Row       *int   `json:"row,omitempty"`
	Direction string `json:"direction,omitempty"`
	Tag       string `json:"tag,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
}

func decodeIntent(payload []byte) (intentFrame, error) {
	var f intentFrame
	if err := json.Unmarshal(payload, &f); err != nil {
		return f, fmt.Errorf("%w: %w", ErrBadIntent, err)
	}
	if f.Type == "" {
		return f, fmt.Errorf("%w: missing type", ErrBadIntent)
	}
	return f, nil
}

func (f intentFrame) target() (col, row int, err error) {
	if f.Col == nil || f.Row == nil {
		return 0, 0, fmt.Errorf("%w: %s needs col and row", ErrBadIntent, f.Type)
	}
	return *f.Col, *f.Row, nil
}

type outFrame struct {
	Type    string       `json:"type"`
	Room    string       `json:"room"`
	View    *game.View   `json:"view,omitempty"`
	Result  *game.Result `json:"result,omitempty"`
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
}

// code maps an intent error to its wire code.
func code(err error) string {
	if errors.Is(err, ErrBadIntent) {
		return game.CodeBadRequest
	}
	return game.Code(err)
}
