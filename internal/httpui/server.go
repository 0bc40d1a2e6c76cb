// Package httpui serves the board page and its JSON api over fasthttp.
package httpui

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/age-of-ai-chess/internal/render"
	"github.com/park285/age-of-ai-chess/internal/session"
	"github.com/park285/age-of-ai-chess/internal/view"
	"github.com/park285/age-of-ai-chess/pkg/uidto"
)

const (
	CookieName    = "agechess_sid"
	SessionHeader = "X-Session-Id"
)

type Deps struct {
	Sessions  *session.Manager
	Projector *view.Projector
	Renderer  render.BoardRenderer
	Pieces    render.PieceSource
	Texts     view.Texts
	Logger    *zap.Logger
	// LiveURL is the websocket endpoint advertised to the page, either a full
	// ws:// url or a bare ":port"; empty makes the page poll instead.
	LiveURL string
}

type Server struct {
	sessions  *session.Manager
	projector *view.Projector
	renderer  render.BoardRenderer
	pieces    render.PieceSource
	texts     view.Texts
	logger    *zap.Logger
	liveURL   string

	srv *fasthttp.Server
}

func New(d Deps) (*Server, error) {
	switch {
	case d.Sessions == nil:
		return nil, errors.New("session manager is required")
	case d.Projector == nil:
		return nil, errors.New("projector is required")
	case d.Renderer == nil:
		return nil, errors.New("board renderer is required")
	case d.Pieces == nil:
		return nil, errors.New("piece source is required")
	case d.Texts == nil:
		return nil, errors.New("texts are required")
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		sessions:  d.Sessions,
		projector: d.Projector,
		renderer:  d.Renderer,
		pieces:    d.Pieces,
		texts:     d.Texts,
		logger:    logger,
		liveURL:   strings.TrimSpace(d.LiveURL),
	}
	s.srv = &fasthttp.Server{
		Handler:      s.Handle,
		Name:         "agechess",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Serve blocks serving ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("http listening", zap.String("addr", ln.Addr().String()))
	return s.srv.Serve(ln)
}

func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

// Handle routes one request.
func (s *Server) Handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	path := string(ctx.Path())
	method := string(ctx.Method())

	switch {
	case path == "/" || path == "/index.html":
		s.only(ctx, fasthttp.MethodGet, s.handlePage)
	case path == "/healthz":
		s.only(ctx, fasthttp.MethodGet, s.handleHealth)
	case path == "/api/state":
		s.only(ctx, fasthttp.MethodGet, s.handleState)
	case strings.HasPrefix(path, "/api/click/"):
		s.only(ctx, fasthttp.MethodPost, func(ctx *fasthttp.RequestCtx) {
			s.handleClick(ctx, strings.TrimPrefix(path, "/api/click/"))
		})
	case path == "/api/move":
		s.only(ctx, fasthttp.MethodPost, s.handleMove)
	case path == "/api/reset":
		s.only(ctx, fasthttp.MethodPost, s.handleReset)
	case path == "/api/themes":
		s.only(ctx, fasthttp.MethodGet, s.handleThemes)
	case strings.HasPrefix(path, "/api/theme/"):
		s.only(ctx, fasthttp.MethodPost, func(ctx *fasthttp.RequestCtx) {
			s.handleSetTheme(ctx, strings.TrimPrefix(path, "/api/theme/"))
		})
	case path == "/api/board.png":
		s.only(ctx, fasthttp.MethodGet, s.handleBoard)
	default:
		s.writeError(ctx, fasthttp.StatusNotFound, errNotFound("no route for "+path))
	}

	s.logger.Debug("http request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", ctx.Response.StatusCode()),
		zap.Duration("took", time.Since(start)),
	)
}

func (s *Server) only(ctx *fasthttp.RequestCtx, method string, h fasthttp.RequestHandler) {
	if string(ctx.Method()) != method {
		ctx.Response.Header.Set("Allow", method)
		s.writeError(ctx, fasthttp.StatusMethodNotAllowed, uidto.Error{Code: uidto.CodeMethod, Message: method + " only"})
		return
	}
	h(ctx)
}

// resolve finds the caller's session, creating one when the id is missing or stale.
func (s *Server) resolve(ctx *fasthttp.RequestCtx) (*session.Entry, bool) {
	id := strings.TrimSpace(string(ctx.Request.Header.Peek(SessionHeader)))
	if id == "" {
		id = strings.TrimSpace(string(ctx.Request.Header.Cookie(CookieName)))
	}
	e, created, err := s.sessions.GetOrCreate(id)
	if err != nil {
		s.fail(ctx, err)
		return nil, false
	}
	if created {
		s.logger.Info("session started", zap.String("sid", e.ID))
	}
	if created || id != e.ID {
		c := fasthttp.AcquireCookie()
		c.SetKey(CookieName)
		c.SetValue(e.ID)
		c.SetPath("/")
		c.SetHTTPOnly(true)
		c.SetSameSite(fasthttp.CookieSameSiteLaxMode)
		ctx.Response.Header.SetCookie(c)
		fasthttp.ReleaseCookie(c)
	}
	ctx.Response.Header.Set(SessionHeader, e.ID)
	return e, true
}
