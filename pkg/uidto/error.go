package uidto

// Error is the JSON body of every failed call.
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "agechess error"
}

// Error codes.
const (
	CodeBadRequest   = "bad_request"
	CodeInvalidSq    = "invalid_square"
	CodeNotYourTurn  = "not_your_turn"
	CodeGameOver     = "game_over"
	CodeIllegalMove  = "illegal_move"
	CodeUnknownTheme = "unknown_theme"
	CodeCapacity     = "capacity"
	CodeNotFound     = "not_found"
	CodeMethod       = "method_not_allowed"
	CodeInternal     = "internal"
)
