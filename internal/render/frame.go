package render

import (
	"github.com/park285/age-of-ai-chess/internal/game"
	"github.com/park285/age-of-ai-chess/internal/rules"
)

// Frame is everything drawn on one board image.
type Frame struct {
	Pieces       [64]rules.Piece
	Selected     rules.Square
	Destinations []rules.Square
	LastFrom     rules.Square
	LastTo       rules.Square
	CheckSquare  rules.Square
}

// PieceSource reads piece placement from a position.
type PieceSource interface {
	PieceAt(pos rules.Position, sq rules.Square) rules.Piece
	SideToMove(pos rules.Position) rules.Side
}

// NewFrame projects a snapshot into a frame.
func NewFrame(src PieceSource, snap game.Snapshot) Frame {
	f := Frame{
		Selected:    snap.Selection.Square,
		LastFrom:    rules.NoSquare,
		LastTo:      rules.NoSquare,
		CheckSquare: rules.NoSquare,
	}
	if snap.Selection.Active() {
		f.Destinations = append([]rules.Square(nil), snap.Selection.Destinations...)
	}
	if snap.LastMove != nil {
		f.LastFrom = snap.LastMove.From
		f.LastTo = snap.LastMove.To
	}
	if src == nil || snap.Position.IsZero() {
		return f
	}

	toMove := src.SideToMove(snap.Position)
	for i := 0; i < 64; i++ {
		sq := rules.Square(i)
		p := src.PieceAt(snap.Position, sq)
		f.Pieces[i] = p
		if snap.Check && p.Type == rules.King && p.Side == toMove {
			f.CheckSquare = sq
		}
	}
	return f
}

// Count returns the number of occupied squares.
func (f Frame) Count() int {
	n := 0
	for _, p := range f.Pieces {
		if !p.Empty() {
			n++
		}
	}
	return n
}
