package game

import (
	"sync"
	"testing"
	"time"

	"github.com/park285/age-of-ai-chess/internal/rules"
)

type manualTask struct {
	delay     time.Duration
	fn        func()
	fired     bool
	cancelled bool
}

// manualScheduler queues callbacks until the test fires them.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := &manualTask{delay: d, fn: fn}
	s.tasks = append(s.tasks, task)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if task.fired || task.cancelled {
			return false
		}
		task.cancelled = true
		return true
	}
}

func (s *manualScheduler) pending() []*manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*manualTask
	for _, t := range s.tasks {
		if !t.fired && !t.cancelled {
			out = append(out, t)
		}
	}
	return out
}

// runPending fires every live task and returns how many ran.
func (s *manualScheduler) runPending() int {
	tasks := s.pending()
	s.mu.Lock()
	for _, t := range tasks {
		t.fired = true
	}
	s.mu.Unlock()
	for _, t := range tasks {
		t.fn()
	}
	return len(tasks)
}

// fireAll runs every queued callback, cancelled ones included, like a timer
// that had already started when Stop was called.
func (s *manualScheduler) fireAll() {
	s.mu.Lock()
	tasks := append([]*manualTask(nil), s.tasks...)
	for _, t := range tasks {
		t.fired = true
	}
	s.mu.Unlock()
	for _, t := range tasks {
		t.fn()
	}
}

// scriptedChooser plays the listed UCI moves in order, then falls back to the first legal move.
func scriptedChooser(t *testing.T, script ...string) ChooserFunc {
	t.Helper()
	i := 0
	return func(moves []rules.Move) rules.Move {
		if i < len(script) {
			want := script[i]
			i++
			for _, m := range moves {
				if m.String() == want {
					return m
				}
			}
			t.Errorf("scripted move %s is not legal", want)
		}
		return moves[0]
	}
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *manualScheduler) {
	t.Helper()
	sched := &manualScheduler{}
	all := append([]Option{WithScheduler(sched), WithRandomSeed(7), WithChooser(NewRandomChooser(11))}, opts...)
	c, err := NewController(rules.NewEngine(), all...)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c, sched
}

func sq(t *testing.T, s string) rules.Square {
	t.Helper()
	v, err := rules.ParseSquare(s)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", s, err)
	}
	return v
}

// clickMove clicks from then to and fails if the move was not applied.
func clickMove(t *testing.T, c *Controller, from, to string) Snapshot {
	t.Helper()
	before := c.Snapshot().MoveCount
	c.OnSquareClick(sq(t, from))
	snap := c.OnSquareClick(sq(t, to))
	if snap.MoveCount != before+1 {
		t.Fatalf("move %s%s not applied: count %d -> %d (status %s)", from, to, before, snap.MoveCount, snap.Status)
	}
	return snap
}
