package rules

var (
	knightOffsets = [8][2]int{{2, 1}, {1, 2}, {-1, 2}, {-2, 1}, {-2, -1}, {-1, -2}, {1, -2}, {2, -1}}
	// first four are orthogonal, the rest diagonal
	rayDirections = [8][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

func (e *Engine) findKing(pos Position, side Side) (Square, bool) {
	for sq := Square(0); sq < 64; sq++ {
		if p := e.PieceAt(pos, sq); p.Type == King && p.Side == side {
			return sq, true
		}
	}
	return NoSquare, false
}

// attacked reports whether any piece of by attacks sq.
func (e *Engine) attacked(pos Position, sq Square, by Side) bool {
	file, rank := sq.File(), sq.Rank()
	at := func(f, r int) (Piece, bool) {
		if f < 0 || f > 7 || r < 0 || r > 7 {
			return NoPiece, false
		}
		return e.PieceAt(pos, NewSquare(f, r)), true
	}
	is := func(p Piece, types ...PieceType) bool {
		if p.Empty() || p.Side != by {
			return false
		}
		for _, t := range types {
			if p.Type == t {
				return true
			}
		}
		return false
	}

	// pawns attack toward the opposite side
	pawnRank := rank - 1
	if by == Black {
		pawnRank = rank + 1
	}
	for _, df := range []int{-1, 1} {
		if p, ok := at(file+df, pawnRank); ok && is(p, Pawn) {
			return true
		}
	}

	for _, o := range knightOffsets {
		if p, ok := at(file+o[0], rank+o[1]); ok && is(p, Knight) {
			return true
		}
	}

	for i, d := range rayDirections {
		sliders := []PieceType{Rook, Queen}
		if i >= 4 {
			sliders = []PieceType{Bishop, Queen}
		}
		for step := 1; ; step++ {
			p, ok := at(file+d[0]*step, rank+d[1]*step)
			if !ok {
				break
			}
			if p.Empty() {
				continue
			}
			if is(p, sliders...) {
				return true
			}
			break
		}
	}

	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			if df == 0 && dr == 0 {
				continue
			}
			if p, ok := at(file+df, rank+dr); ok && is(p, King) {
				return true
			}
		}
	}
	return false
}
