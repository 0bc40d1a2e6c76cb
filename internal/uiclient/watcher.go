package uiclient

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/age-of-ai-chess/pkg/uidto"
)

type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

type StateCallback func(st *uidto.State)

type ConnCallback func(s ConnState)

type stateEntry struct {
	id int
	cb StateCallback
}

type connEntry struct {
	id int
	cb ConnCallback
}

// Watcher follows one session's live feed, reconnecting with backoff.
type Watcher struct {
	liveURL   string
	sessionID string
	logger    *zap.Logger

	connM sync.Mutex
	conn  *websocket.Conn

	state  ConnState
	stateM sync.RWMutex

	stateCbs []stateEntry
	connCbs  []connEntry
	nextCb   int
	cbM      sync.RWMutex

	maxReconnectAttempts int
	pingInterval         time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

func NewWatcher(liveURL, sessionID string, maxReconnectAttempts int, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		liveURL:              strings.TrimRight(strings.TrimSpace(liveURL), "/"),
		sessionID:            strings.TrimSpace(sessionID),
		logger:               logger,
		state:                StateDisconnected,
		maxReconnectAttempts: maxReconnectAttempts,
		pingInterval:         20 * time.Second,
		stopCh:               make(chan struct{}),
		rootCtx:              ctx,
		rootCancel:           cancel,
	}
}

func (w *Watcher) endpoint() string {
	base := w.liveURL
	if !strings.HasSuffix(base, "/live") {
		base += "/live"
	}
	return base + "?sid=" + url.QueryEscape(w.sessionID)
}

func (w *Watcher) Connect(ctx context.Context) error {
	if w.sessionID == "" {
		return errors.New("session id is required")
	}
	w.stateM.RLock()
	busy := w.state == StateConnected || w.state == StateConnecting
	w.stateM.RUnlock()
	if busy {
		return nil
	}

	w.setState(StateConnecting)
	conn, err := w.dial(ctx)
	if err != nil {
		w.setState(StateFailed)
		w.scheduleReconnect()
		return err
	}
	w.attach(conn)
	return nil
}

func (w *Watcher) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, w.endpoint(), &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	return conn, err
}

func (w *Watcher) attach(conn *websocket.Conn) {
	w.connM.Lock()
	w.conn = conn
	w.connM.Unlock()
	w.setState(StateConnected)

	w.wg.Add(2)
	go w.listen(conn)
	go w.pingLoop(conn)
}

func (w *Watcher) listen(conn *websocket.Conn) {
	defer w.wg.Done()
	for {
		var st uidto.State
		if err := wsjson.Read(w.rootCtx, conn, &st); err != nil {
			if w.isStopping() {
				return
			}
			w.logger.Debug("live read failed", zap.Error(err))
			w.setState(StateDisconnected)
			w.closeConn(conn, websocket.StatusGoingAway, "reconnect")
			w.scheduleReconnect()
			return
		}

		w.cbM.RLock()
		callbacks := make([]stateEntry, len(w.stateCbs))
		copy(callbacks, w.stateCbs)
		w.cbM.RUnlock()
		for _, entry := range callbacks {
			entry.cb(&st)
		}
	}
}

func (w *Watcher) pingLoop(conn *websocket.Conn) {
	defer w.wg.Done()
	t := time.NewTicker(w.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-w.stopCh:
			return
		case <-w.rootCtx.Done():
			return
		case <-t.C:
			if !w.current(conn) {
				return
			}
			ctx, cancel := context.WithTimeout(w.rootCtx, 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				// listen notices the closed conn and reconnects.
				w.closeConn(conn, websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}

func (w *Watcher) scheduleReconnect() {
	if w.maxReconnectAttempts <= 0 || w.isStopping() {
		return
	}
	w.setState(StateReconnecting)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for attempt := 1; attempt <= w.maxReconnectAttempts; attempt++ {
			select {
			case <-w.stopCh:
				return
			case <-time.After(backoffDuration(attempt)):
			}
			conn, err := w.dial(w.rootCtx)
			if err != nil {
				w.logger.Debug("live reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			if w.isStopping() {
				_ = conn.Close(websocket.StatusNormalClosure, "close")
				return
			}
			w.attach(conn)
			return
		}
		w.setState(StateFailed)
	}()
}

// OnState registers cb for every pushed state and returns its id.
func (w *Watcher) OnState(cb StateCallback) int {
	w.cbM.Lock()
	defer w.cbM.Unlock()
	w.nextCb++
	w.stateCbs = append(w.stateCbs, stateEntry{id: w.nextCb, cb: cb})
	return w.nextCb
}

func (w *Watcher) OnConnState(cb ConnCallback) int {
	w.cbM.Lock()
	defer w.cbM.Unlock()
	w.nextCb++
	w.connCbs = append(w.connCbs, connEntry{id: w.nextCb, cb: cb})
	return w.nextCb
}

// RemoveCallback drops a callback registered with OnState or OnConnState.
func (w *Watcher) RemoveCallback(id int) {
	w.cbM.Lock()
	defer w.cbM.Unlock()
	for i, e := range w.stateCbs {
		if e.id == id {
			w.stateCbs = append(w.stateCbs[:i], w.stateCbs[i+1:]...)
			return
		}
	}
	for i, e := range w.connCbs {
		if e.id == id {
			w.connCbs = append(w.connCbs[:i], w.connCbs[i+1:]...)
			return
		}
	}
}

func (w *Watcher) State() ConnState {
	w.stateM.RLock()
	defer w.stateM.RUnlock()
	return w.state
}

func (w *Watcher) setState(s ConnState) {
	w.stateM.Lock()
	w.state = s
	w.stateM.Unlock()

	w.cbM.RLock()
	callbacks := make([]connEntry, len(w.connCbs))
	copy(callbacks, w.connCbs)
	w.cbM.RUnlock()
	for _, entry := range callbacks {
		entry.cb(s)
	}
}

func (w *Watcher) Close(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.connM.Lock()
	conn := w.conn
	w.connM.Unlock()
	if conn != nil {
		w.closeConn(conn, websocket.StatusNormalClosure, "close")
	}
	w.rootCancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		w.setState(StateDisconnected)
		return nil
	}
}

func (w *Watcher) current(conn *websocket.Conn) bool {
	w.connM.Lock()
	defer w.connM.Unlock()
	return w.conn == conn
}

func (w *Watcher) closeConn(conn *websocket.Conn, code websocket.StatusCode, reason string) {
	w.connM.Lock()
	if w.conn == conn {
		w.conn = nil
	}
	w.connM.Unlock()
	_ = conn.Close(code, reason)
}

func (w *Watcher) isStopping() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}
