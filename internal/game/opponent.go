package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/park285/age-of-ai-chess/internal/rules"
)

// MoveChooser picks the automated reply from a non-empty list of legal moves.
type MoveChooser interface {
	ChooseMove(moves []rules.Move) rules.Move
}

type ChooserFunc func(moves []rules.Move) rules.Move

func (f ChooserFunc) ChooseMove(moves []rules.Move) rules.Move { return f(moves) }

// RandomChooser picks uniformly at random. Safe for concurrent use.
type RandomChooser struct {
	rnd *lockedRand
}

// NewRandomChooser seeds from the clock when seed is 0.
func NewRandomChooser(seed int64) *RandomChooser {
	return &RandomChooser{rnd: newLockedRand(seed)}
}

func (c *RandomChooser) ChooseMove(moves []rules.Move) rules.Move {
	return moves[c.rnd.Intn(len(moves))]
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedRand(seed int64) *lockedRand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Int63n(n int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Int63n(n)
}
