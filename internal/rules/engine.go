package rules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var (
	ErrIllegalMove   = errors.New("illegal move")
	ErrInvalidSquare = errors.New("invalid square")
	ErrInvalidFEN    = errors.New("invalid fen")
)

// Position is an immutable board state. Apply never mutates the receiver's game.
type Position struct {
	game *nchess.Game
}

func (p Position) IsZero() bool { return p.game == nil }

func (p Position) FEN() string {
	if p.game == nil {
		return ""
	}
	return p.game.FEN()
}

// Engine adapts corentings/chess to the square/piece vocabulary used by the game core.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

func (e *Engine) Start() Position {
	return Position{game: nchess.NewGame()}
}

func (e *Engine) FromFEN(fen string) (Position, error) {
	option, err := nchess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return Position{game: nchess.NewGame(option)}, nil
}

func (e *Engine) PieceAt(pos Position, sq Square) Piece {
	if pos.game == nil || !sq.Valid() {
		return NoPiece
	}
	return fromLibPiece(pos.game.Position().Board().Piece(toLibSquare(sq)))
}

func (e *Engine) SideToMove(pos Position) Side {
	if pos.game == nil {
		return White
	}
	return fromLibColor(pos.game.Position().Turn())
}

// LegalMoves lists legal moves for the side to move. Passing NoSquare lists every move;
// otherwise only moves starting on from are returned.
func (e *Engine) LegalMoves(pos Position, from Square) []Move {
	if pos.game == nil || pos.game.Outcome() != nchess.NoOutcome {
		return nil
	}
	valid := pos.game.ValidMoves()
	out := make([]Move, 0, len(valid))
	for _, mv := range valid {
		s1 := fromLibSquare(mv.S1())
		if from != NoSquare && s1 != from {
			continue
		}
		out = append(out, Move{
			From:      s1,
			To:        fromLibSquare(mv.S2()),
			Promotion: fromLibPieceType(mv.Promo()),
		})
	}
	return out
}

// Apply plays from→to (with optional promotion) on a copy of pos.
func (e *Engine) Apply(pos Position, from, to Square, promo PieceType) (Position, MoveResult, error) {
	if pos.game == nil {
		return Position{}, MoveResult{}, fmt.Errorf("%w: empty position", ErrIllegalMove)
	}
	if !from.Valid() || !to.Valid() {
		return Position{}, MoveResult{}, fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
	}
	if pos.game.Outcome() != nchess.NoOutcome {
		return Position{}, MoveResult{}, fmt.Errorf("%w: game already finished", ErrIllegalMove)
	}

	before := pos.game.Position()
	var chosen *nchess.Move
	for _, mv := range pos.game.ValidMoves() {
		if mv.S1() != toLibSquare(from) || mv.S2() != toLibSquare(to) {
			continue
		}
		if mv.Promo() != toLibPieceType(promo) {
			continue
		}
		m := mv
		chosen = &m
		break
	}
	if chosen == nil {
		return Position{}, MoveResult{}, fmt.Errorf("%w: %s%s%s", ErrIllegalMove, from, to, promo)
	}

	result := MoveResult{
		From:     from,
		To:       to,
		Mover:    fromLibPiece(before.Board().Piece(chosen.S1())),
		Captured: capturedType(before, chosen),
		SAN:      nchess.AlgebraicNotation{}.Encode(before, chosen),
		UCI:      strings.ToLower(nchess.UCINotation{}.Encode(before, chosen)),
	}

	next := pos.game.Clone()
	if err := next.Move(chosen, nil); err != nil {
		return Position{}, MoveResult{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	return Position{game: next}, result, nil
}

// fiftyMoveClock is the halfmove count at which the game is drawn without a claim.
const fiftyMoveClock = 100

// Terminal reports checkmate, any draw the library recognises, or none.
// The fifty-move rule ends the game as soon as the clock reaches 100;
// the library alone only stops at seventy-five moves.
func (e *Engine) Terminal(pos Position) Terminal {
	if pos.game == nil {
		return TerminalNone
	}
	switch pos.game.Position().Status() {
	case nchess.Checkmate:
		return TerminalCheckmate
	case nchess.Stalemate:
		return TerminalDraw
	}
	if pos.game.Position().HalfMoveClock() >= fiftyMoveClock {
		return TerminalDraw
	}
	switch pos.game.Outcome() {
	case nchess.NoOutcome:
		return TerminalNone
	case nchess.Draw:
		return TerminalDraw
	default:
		if pos.game.Method() == nchess.Checkmate {
			return TerminalCheckmate
		}
		return TerminalDraw
	}
}

// InCheck reports whether the side to move has its king attacked.
func (e *Engine) InCheck(pos Position) bool {
	if pos.game == nil {
		return false
	}
	side := e.SideToMove(pos)
	king, ok := e.findKing(pos, side)
	if !ok {
		return false
	}
	return e.attacked(pos, king, side.Other())
}

// PromotionFor returns Queen when a pawn reaches its last rank, NoPieceType otherwise.
func PromotionFor(p Piece, to Square) PieceType {
	if p.Type != Pawn || !to.Valid() {
		return NoPieceType
	}
	if (p.Side == White && to.Rank() == 7) || (p.Side == Black && to.Rank() == 0) {
		return Queen
	}
	return NoPieceType
}

func capturedType(before *nchess.Position, mv *nchess.Move) PieceType {
	if !mv.HasTag(nchess.Capture) && !mv.HasTag(nchess.EnPassant) {
		return NoPieceType
	}
	target := mv.S2()
	if mv.HasTag(nchess.EnPassant) {
		file := mv.S2().File()
		rank := mv.S2().Rank()
		if before.Turn() == nchess.White {
			target = nchess.NewSquare(file, rank-1)
		} else {
			target = nchess.NewSquare(file, rank+1)
		}
	}
	piece := before.Board().Piece(target)
	if piece == nchess.NoPiece {
		return NoPieceType
	}
	return fromLibPieceType(piece.Type())
}

func toLibSquare(sq Square) nchess.Square {
	return nchess.NewSquare(nchess.File(sq.File()), nchess.Rank(sq.Rank()))
}

func fromLibSquare(sq nchess.Square) Square {
	return NewSquare(int(sq.File()), int(sq.Rank()))
}

func fromLibColor(c nchess.Color) Side {
	if c == nchess.Black {
		return Black
	}
	return White
}

func fromLibPiece(p nchess.Piece) Piece {
	if p == nchess.NoPiece {
		return NoPiece
	}
	return Piece{Type: fromLibPieceType(p.Type()), Side: fromLibColor(p.Color())}
}

func fromLibPieceType(pt nchess.PieceType) PieceType {
	switch pt {
	case nchess.Pawn:
		return Pawn
	case nchess.Knight:
		return Knight
	case nchess.Bishop:
		return Bishop
	case nchess.Rook:
		return Rook
	case nchess.Queen:
		return Queen
	case nchess.King:
		return King
	default:
		return NoPieceType
	}
}

func toLibPieceType(pt PieceType) nchess.PieceType {
	switch pt {
	case Pawn:
		return nchess.Pawn
	case Knight:
		return nchess.Knight
	case Bishop:
		return nchess.Bishop
	case Rook:
		return nchess.Rook
	case Queen:
		return nchess.Queen
	case King:
		return nchess.King
	default:
		return nchess.NoPieceType
	}
}
