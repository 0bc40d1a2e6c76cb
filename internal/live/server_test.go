package live

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/age-of-ai-chess/internal/game"
	"github.com/park285/age-of-ai-chess/internal/msgcat"
	"github.com/park285/age-of-ai-chess/internal/rules"
	"github.com/park285/age-of-ai-chess/internal/session"
	"github.com/park285/age-of-ai-chess/internal/theme"
	"github.com/park285/age-of-ai-chess/internal/view"
	"github.com/park285/age-of-ai-chess/pkg/uidto"
)

type idleScheduler struct{}

func (idleScheduler) AfterFunc(time.Duration, func()) func() bool {
	return func() bool { return true }
}

func newLive(t *testing.T) (*session.Manager, string) {
	t.Helper()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	reg, err := theme.Load("")
	if err != nil {
		t.Fatalf("theme.Load: %v", err)
	}
	eng := rules.NewEngine()
	mgr, err := session.NewManager(reg, func(flavor func() string, _ []string) (*game.Controller, error) {
		return game.NewController(eng, game.WithScheduler(idleScheduler{}), game.WithMessages(cat), game.WithFlavor(flavor))
	})
	if err != nil {
		t.Fatalf("session.NewManager: %v", err)
	}
	proj, err := view.NewProjector(eng, cat, 1)
	if err != nil {
		t.Fatalf("view.NewProjector: %v", err)
	}
	srv, err := New(Deps{Sessions: mgr, Projector: proj})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		mgr.Close()
	})
	return mgr, "ws" + strings.TrimPrefix(ts.URL, "http") + "/live"
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn) uidto.State {
	t.Helper()
	var st uidto.State
	if err := wsjson.Read(ctx, conn, &st); err != nil {
		t.Fatalf("read: %v", err)
	}
	return st
}

func TestWatcherReceivesUpdates(t *testing.T) {
	mgr, url := newLive(t)
	e, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url+"?sid="+e.ID, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	first := read(t, ctx, conn)
	if first.SessionID != e.ID || first.Status != "idle" {
		t.Fatalf("unexpected initial state %+v", first)
	}

	e2, _ := rules.ParseSquare("e2")
	e.Controller.OnSquareClick(e2)
	next := read(t, ctx, conn)
	if next.Selected != "e2" {
		t.Fatalf("expected the selection to be pushed, got %+v", next)
	}

	e.Controller.Reset()
	reset := read(t, ctx, conn)
	if reset.Generation == first.Generation || reset.Selected != "" {
		t.Fatalf("expected a fresh generation after reset, got %+v", reset)
	}
}

func TestUnknownSessionRejected(t *testing.T) {
	_, url := newLive(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, url+"?sid=missing", nil)
	if err == nil {
		t.Fatalf("expected dial to fail for an unknown session")
	}
	if resp == nil || resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %+v", resp)
	}
}
