package httpui

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/age-of-ai-chess/internal/game"
	"github.com/park285/age-of-ai-chess/internal/render"
	"github.com/park285/age-of-ai-chess/internal/rules"
	"github.com/park285/age-of-ai-chess/internal/session"
	"github.com/park285/age-of-ai-chess/internal/view"
	"github.com/park285/age-of-ai-chess/pkg/uidto"
)

const renderTimeout = 5 * time.Second

func (s *Server) state(e *session.Entry, snap game.Snapshot) uidto.State {
	return s.projector.State(e.ID, e.Theme(), snap)
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	s.writeJSON(ctx, fasthttp.StatusOK, uidto.Health{Status: "ok", Sessions: s.sessions.Len()})
}

func (s *Server) handleState(ctx *fasthttp.RequestCtx) {
	e, ok := s.resolve(ctx)
	if !ok {
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, s.state(e, e.Controller.Snapshot()))
}

func (s *Server) handleClick(ctx *fasthttp.RequestCtx, raw string) {
	sq, err := rules.ParseSquare(raw)
	if err != nil {
		s.failWith(ctx, err, map[string]any{"Square": raw})
		return
	}
	e, ok := s.resolve(ctx)
	if !ok {
		return
	}
	snap := e.Controller.OnSquareClick(sq)
	s.writeJSON(ctx, fasthttp.StatusOK, s.state(e, snap))
}

func (s *Server) handleMove(ctx *fasthttp.RequestCtx) {
	var req uidto.MoveRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, uidto.Error{Code: uidto.CodeBadRequest, Message: "bad json"})
		return
	}
	from, err := rules.ParseSquare(req.From)
	if err != nil {
		s.failWith(ctx, err, map[string]any{"Square": req.From})
		return
	}
	to, err := rules.ParseSquare(req.To)
	if err != nil {
		s.failWith(ctx, err, map[string]any{"Square": req.To})
		return
	}
	e, ok := s.resolve(ctx)
	if !ok {
		return
	}
	if err := e.Controller.ApplyHumanMove(from, to); err != nil {
		s.logger.Debug("move rejected", zap.String("sid", e.ID), zap.String("move", from.String()+to.String()), zap.Error(err))
		s.fail(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, s.state(e, e.Controller.Snapshot()))
}

func (s *Server) handleReset(ctx *fasthttp.RequestCtx) {
	e, ok := s.resolve(ctx)
	if !ok {
		return
	}
	snap := e.Controller.Reset()
	s.logger.Info("session reset", zap.String("sid", e.ID), zap.String("generation", snap.Generation))
	s.writeJSON(ctx, fasthttp.StatusOK, s.state(e, snap))
}

func (s *Server) handleThemes(ctx *fasthttp.RequestCtx) {
	e, ok := s.resolve(ctx)
	if !ok {
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, uidto.ThemesResponse{
		Themes: view.Themes(s.sessions.Themes(), e.Theme().ID),
	})
}

func (s *Server) handleSetTheme(ctx *fasthttp.RequestCtx, id string) {
	id = strings.TrimSpace(id)
	e, ok := s.resolve(ctx)
	if !ok {
		return
	}
	if _, err := s.sessions.SetTheme(e.ID, id); err != nil {
		s.failWith(ctx, err, map[string]any{"Theme": id})
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, s.state(e, e.Controller.Snapshot()))
}

func (s *Server) handleBoard(ctx *fasthttp.RequestCtx) {
	e, ok := s.resolve(ctx)
	if !ok {
		return
	}
	rctx, cancel := context.WithTimeout(context.Background(), renderTimeout)
	defer cancel()

	frame := render.NewFrame(s.pieces, e.Controller.Snapshot())
	png, err := s.renderer.RenderPNG(rctx, frame, e.Theme())
	if err != nil {
		s.fail(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("image/png")
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetBody(png)
}

func (s *Server) handlePage(ctx *fasthttp.RequestCtx) {
	e, ok := s.resolve(ctx)
	if !ok {
		return
	}
	body, err := renderPage(pageData{
		Theme:   e.Theme(),
		State:   s.state(e, e.Controller.Snapshot()),
		LiveURL: s.liveURL,
	})
	if err != nil {
		s.fail(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBody(body)
}
