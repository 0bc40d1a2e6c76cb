package rules

import (
	"fmt"
	"strings"
)

// Square indexes the board from a1 (0) to h8 (63).
type Square int8

const NoSquare Square = -1

func NewSquare(file, rank int) Square {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare
	}
	return Square(rank*8 + file)
}

// ParseSquare accepts algebraic coordinates such as "e4" (case-insensitive).
func ParseSquare(s string) (Square, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) != 2 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	file := int(v[0] - 'a')
	rank := int(v[1] - '1')
	sq := NewSquare(file, rank)
	if sq == NoSquare {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return sq, nil
}

func (s Square) Valid() bool { return s >= 0 && s < 64 }

func (s Square) File() int { return int(s) % 8 }

func (s Square) Rank() int { return int(s) / 8 }

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

type Side int

const (
	White Side = iota
	Black
)

func (s Side) Other() Side {
	if s == White {
		return Black
	}
	return White
}

func (s Side) String() string {
	if s == White {
		return "white"
	}
	return "black"
}

type PieceType int

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// String returns the lowercase one-letter code (p n b r q k).
func (p PieceType) String() string {
	switch p {
	case Pawn:
		return "p"
	case Knight:
		return "n"
	case Bishop:
		return "b"
	case Rook:
		return "r"
	case Queen:
		return "q"
	case King:
		return "k"
	default:
		return ""
	}
}

// Name is the long English name, used in logs.
func (p PieceType) Name() string {
	switch p {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "none"
	}
}

type Piece struct {
	Type PieceType
	Side Side
}

var NoPiece = Piece{}

func (p Piece) Empty() bool { return p.Type == NoPieceType }

// Code is the two-letter key used by theme glyph maps ("wp", "bk").
func (p Piece) Code() string {
	if p.Empty() {
		return ""
	}
	prefix := "w"
	if p.Side == Black {
		prefix = "b"
	}
	return prefix + p.Type.String()
}

// Move is a legal move candidate; Promotion is NoPieceType for non-promotions.
type Move struct {
	From      Square
	To        Square
	Promotion PieceType
}

func (m Move) String() string {
	return m.From.String() + m.To.String() + m.Promotion.String()
}

type MoveResult struct {
	From     Square
	To       Square
	Mover    Piece
	Captured PieceType
	SAN      string
	UCI      string
}

type Terminal int

const (
	TerminalNone Terminal = iota
	TerminalCheckmate
	TerminalDraw
)

func (t Terminal) String() string {
	switch t {
	case TerminalCheckmate:
		return "checkmate"
	case TerminalDraw:
		return "draw"
	default:
		return "none"
	}
}
