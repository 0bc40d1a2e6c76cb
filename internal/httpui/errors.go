package httpui

import (
	"encoding/json"
	"errors"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/age-of-ai-chess/internal/game"
	"github.com/park285/age-of-ai-chess/internal/rules"
	"github.com/park285/age-of-ai-chess/internal/session"
	"github.com/park285/age-of-ai-chess/internal/theme"
	"github.com/park285/age-of-ai-chess/pkg/uidto"
)

func errNotFound(msg string) uidto.Error {
	return uidto.Error{Code: uidto.CodeNotFound, Message: msg}
}

// classify maps domain errors to a status and wire error.
func (s *Server) classify(err error, data map[string]any) (int, uidto.Error) {
	switch {
	case errors.Is(err, rules.ErrInvalidSquare):
		return fasthttp.StatusBadRequest, uidto.Error{
			Code:    uidto.CodeInvalidSq,
			Message: s.texts.Text("error.invalid_square", data, "Unknown square."),
		}
	case errors.Is(err, game.ErrIllegalMove):
		return fasthttp.StatusUnprocessableEntity, uidto.Error{
			Code:    uidto.CodeIllegalMove,
			Message: s.texts.Text("error.illegal_move", nil, "That move is not legal."),
		}
	case errors.Is(err, game.ErrNotHumanTurn):
		return fasthttp.StatusConflict, uidto.Error{
			Code:      uidto.CodeNotYourTurn,
			Message:   s.texts.Text("error.not_your_turn", nil, "Wait for the opponent to move."),
			Retryable: true,
		}
	case errors.Is(err, game.ErrTerminated):
		return fasthttp.StatusConflict, uidto.Error{
			Code:    uidto.CodeGameOver,
			Message: s.texts.Text("error.game_over", nil, "The game is over."),
		}
	case errors.Is(err, theme.ErrUnknownTheme):
		return fasthttp.StatusNotFound, uidto.Error{
			Code:    uidto.CodeUnknownTheme,
			Message: s.texts.Text("error.unknown_theme", data, "Unknown theme."),
		}
	case errors.Is(err, session.ErrTooManySessions):
		return fasthttp.StatusServiceUnavailable, uidto.Error{
			Code:      uidto.CodeCapacity,
			Message:   s.texts.Text("error.capacity", nil, "Too many active sessions."),
			Retryable: true,
		}
	case errors.Is(err, session.ErrNotFound):
		return fasthttp.StatusNotFound, errNotFound(err.Error())
	default:
		return fasthttp.StatusInternalServerError, uidto.Error{Code: uidto.CodeInternal, Message: "internal error"}
	}
}

func (s *Server) fail(ctx *fasthttp.RequestCtx, err error) {
	s.failWith(ctx, err, nil)
}

func (s *Server) failWith(ctx *fasthttp.RequestCtx, err error, data map[string]any) {
	status, body := s.classify(err, data)
	if status >= fasthttp.StatusInternalServerError && status != fasthttp.StatusServiceUnavailable {
		s.logger.Error("request failed", zap.String("path", string(ctx.Path())), zap.Error(err))
	}
	s.writeError(ctx, status, body)
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, status int, body uidto.Error) {
	s.writeJSON(ctx, status, body)
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetBody(b)
}
