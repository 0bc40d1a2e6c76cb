// Package live pushes session state to websocket watchers.
package live

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/age-of-ai-chess/internal/game"
	"github.com/park285/age-of-ai-chess/internal/session"
	"github.com/park285/age-of-ai-chess/internal/view"
)

const (
	writeTimeout        = 5 * time.Second
	defaultPingInterval = 20 * time.Second
)

type Deps struct {
	Sessions  *session.Manager
	Projector *view.Projector
	Logger    *zap.Logger
	// AllowedOrigins are host patterns accepted at the handshake; empty accepts any.
	AllowedOrigins []string
	PingInterval   time.Duration
}

type Server struct {
	sessions     *session.Manager
	projector    *view.Projector
	logger       *zap.Logger
	origins      []string
	pingInterval time.Duration

	mu       sync.Mutex
	watchers int
	srv      *http.Server
}

func New(d Deps) (*Server, error) {
	if d.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if d.Projector == nil {
		return nil, errors.New("projector is required")
	}
	s := &Server{
		sessions:     d.Sessions,
		projector:    d.Projector,
		logger:       d.Logger,
		origins:      d.AllowedOrigins,
		pingInterval: d.PingInterval,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.pingInterval <= 0 {
		s.pingInterval = defaultPingInterval
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/live", s.handleLive)
	return mux
}

func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	srv := s.srv
	s.mu.Unlock()
	s.logger.Info("live listening", zap.String("addr", ln.Addr().String()))
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Watchers reports the number of open connections.
func (s *Server) Watchers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watchers
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	sid := strings.TrimSpace(r.URL.Query().Get("sid"))
	e, err := s.sessions.Get(sid)
	if err != nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     s.origins,
		InsecureSkipVerify: len(s.origins) == 0,
		CompressionMode:    websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.String("sid", sid), zap.Error(err))
		return
	}
	defer conn.CloseNow()

	s.mu.Lock()
	s.watchers++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.watchers--
		s.mu.Unlock()
	}()

	ctx := conn.CloseRead(r.Context())

	// One slot: a slow reader only ever sees the newest snapshot.
	updates := make(chan game.Snapshot, 1)
	unsubscribe := e.Controller.Subscribe(func(snap game.Snapshot) {
		select {
		case updates <- snap:
			return
		default:
		}
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- snap:
		default:
		}
	})
	defer unsubscribe()

	if err := s.push(ctx, conn, e, e.Controller.Snapshot()); err != nil {
		return
	}
	s.logger.Debug("watcher attached", zap.String("sid", e.ID))

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("watcher detached", zap.String("sid", e.ID))
			return
		case snap := <-updates:
			if err := s.push(ctx, conn, e, snap); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := s.sessions.Peek(e.ID); err != nil {
				_ = conn.Close(websocket.StatusGoingAway, "session expired")
				return
			}
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (s *Server) push(ctx context.Context, conn *websocket.Conn, e *session.Entry, snap game.Snapshot) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(wctx, conn, s.projector.State(e.ID, e.Theme(), snap)); err != nil {
		s.logger.Debug("watcher write failed", zap.String("sid", e.ID), zap.Error(err))
		return err
	}
	return nil
}
