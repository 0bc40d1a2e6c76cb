// Package session keeps one game controller per visitor.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/age-of-ai-chess/internal/game"
	"github.com/park285/age-of-ai-chess/internal/theme"
)

var (
	ErrTooManySessions = errors.New("too many active sessions")
	ErrNotFound        = errors.New("session not found")
)

// Factory builds a controller whose flavor lines come from flavor. intro holds
// the session theme's opening log lines.
type Factory func(flavor func() string, intro []string) (*game.Controller, error)

// Entry is one visitor's game plus its presentation choice.
type Entry struct {
	ID         string
	Controller *game.Controller

	mu        sync.Mutex
	themeID   string
	flavorIdx int
	lastSeen  time.Time
	themes    *theme.Registry
}

func (e *Entry) Theme() theme.Theme {
	e.mu.Lock()
	id := e.themeID
	e.mu.Unlock()
	return e.themes.Resolve(id)
}

func (e *Entry) LastSeen() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSeen
}

// nextFlavor cycles through the current theme's flavor lines.
func (e *Entry) nextFlavor() string {
	th := e.Theme()
	e.mu.Lock()
	i := e.flavorIdx
	e.flavorIdx++
	e.mu.Unlock()
	return th.Flavor(i)
}

func (e *Entry) touch(now time.Time) {
	e.mu.Lock()
	e.lastSeen = now
	e.mu.Unlock()
}

type Option func(*Manager)

func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

func WithMaxSessions(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.max = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

type Manager struct {
	mu      sync.Mutex
	entries map[string]*Entry
	closed  bool

	themes  *theme.Registry
	factory Factory
	ttl     time.Duration
	max     int
	now     func() time.Time
	logger  *zap.Logger
}

func NewManager(themes *theme.Registry, factory Factory, opts ...Option) (*Manager, error) {
	if themes == nil {
		return nil, errors.New("theme registry is required")
	}
	if factory == nil {
		return nil, errors.New("controller factory is required")
	}
	m := &Manager{
		entries: make(map[string]*Entry),
		themes:  themes,
		factory: factory,
		ttl:     time.Hour,
		max:     200,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Create starts a new session with the default theme.
func (m *Manager) Create() (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked()
}

func (m *Manager) createLocked() (*Entry, error) {
	if m.closed {
		return nil, errors.New("session manager closed")
	}
	if len(m.entries) >= m.max {
		return nil, ErrTooManySessions
	}
	e := &Entry{
		ID:       uuid.NewString(),
		themeID:  m.themes.Default().ID,
		lastSeen: m.now(),
		themes:   m.themes,
	}
	ctrl, err := m.factory(e.nextFlavor, m.themes.Default().InitMessages)
	if err != nil {
		return nil, fmt.Errorf("new controller: %w", err)
	}
	e.Controller = ctrl
	m.entries[e.ID] = e
	m.logger.Debug("session created", zap.String("sid", e.ID), zap.Int("active", len(m.entries)))
	return e, nil
}

// Get returns a live session and marks it as seen.
func (m *Manager) Get(id string) (*Entry, error) {
	id = strings.TrimSpace(id)
	m.mu.Lock()
	e, ok := m.entries[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	e.touch(m.now())
	return e, nil
}

// Peek returns a session without refreshing its idle timer.
func (m *Manager) Peek(id string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[strings.TrimSpace(id)]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// GetOrCreate resolves id, creating a fresh session when it is unknown.
func (m *Manager) GetOrCreate(id string) (*Entry, bool, error) {
	if e, err := m.Get(id); err == nil {
		return e, false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.createLocked()
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

// SetTheme switches a session's theme; the game itself is untouched.
func (m *Manager) SetTheme(id, themeID string) (theme.Theme, error) {
	e, err := m.Get(id)
	if err != nil {
		return theme.Theme{}, err
	}
	th, err := m.themes.Get(themeID)
	if err != nil {
		return theme.Theme{}, err
	}
	e.mu.Lock()
	e.themeID = th.ID
	e.flavorIdx = 0
	e.mu.Unlock()
	m.logger.Debug("session theme changed", zap.String("sid", e.ID), zap.String("theme", th.ID))
	return th, nil
}

// Remove closes and forgets a session.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	e, ok := m.entries[id]
	delete(m.entries, id)
	m.mu.Unlock()
	if ok {
		e.Controller.Close()
	}
	return ok
}

// Sweep closes sessions idle longer than the ttl and returns how many went.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)
	var expired []*Entry

	m.mu.Lock()
	for id, e := range m.entries {
		if e.LastSeen().Before(cutoff) {
			expired = append(expired, e)
			delete(m.entries, id)
		}
	}
	remaining := len(m.entries)
	m.mu.Unlock()

	for _, e := range expired {
		e.Controller.Close()
	}
	if len(expired) > 0 {
		m.logger.Info("sessions expired", zap.Int("expired", len(expired)), zap.Int("active", remaining))
	}
	return len(expired)
}

// Run sweeps on every tick until ctx ends.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// IDs lists active session ids in sorted order.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	sort.Strings(ids)
	return ids
}

func (m *Manager) Themes() *theme.Registry { return m.themes }

// Close shuts every controller; later Create calls fail.
func (m *Manager) Close() {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*Entry)
	m.closed = true
	m.mu.Unlock()
	for _, e := range entries {
		e.Controller.Close()
	}
}
