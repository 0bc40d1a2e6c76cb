package game

import (
	"testing"
	"time"

	"github.com/park285/age-of-ai-chess/internal/rules"
)

func TestRandomChooserIsUniform(t *testing.T) {
	eng := rules.NewEngine()
	moves := eng.LegalMoves(eng.Start(), rules.NoSquare)
	if len(moves) != 20 {
		t.Fatalf("expected 20 opening moves, got %d", len(moves))
	}

	ch := NewRandomChooser(42)
	counts := make(map[rules.Move]int)
	const draws = 20000
	for i := 0; i < draws; i++ {
		counts[ch.ChooseMove(moves)]++
	}
	if len(counts) != len(moves) {
		t.Fatalf("expected every move to be chosen, got %d distinct", len(counts))
	}
	for mv, n := range counts {
		if n < 700 || n > 1300 {
			t.Fatalf("move %v chosen %d times out of %d", mv, n, draws)
		}
	}
}

func TestRandomChooserSeedIsReproducible(t *testing.T) {
	eng := rules.NewEngine()
	moves := eng.LegalMoves(eng.Start(), rules.NoSquare)
	a, b := NewRandomChooser(7), NewRandomChooser(7)
	for i := 0; i < 50; i++ {
		if a.ChooseMove(moves) != b.ChooseMove(moves) {
			t.Fatalf("same seed diverged at draw %d", i)
		}
	}
}

func TestPacingDelayBounds(t *testing.T) {
	p := Pacing{Base: 600 * time.Millisecond, Jitter: 800 * time.Millisecond}
	rnd := newLockedRand(3)
	for i := 0; i < 200; i++ {
		d := p.delay(rnd)
		if d < 600*time.Millisecond || d >= 1400*time.Millisecond {
			t.Fatalf("delay %v out of range", d)
		}
	}
	if d := (Pacing{Base: -time.Second}).delay(rnd); d != 0 {
		t.Fatalf("negative base should clamp to zero, got %v", d)
	}
}
