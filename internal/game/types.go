package game

import (
	"errors"
	"time"

	"github.com/park285/age-of-ai-chess/internal/rules"
)

var (
	ErrIllegalMove      = errors.New("illegal move")
	ErrEngineFault      = errors.New("engine fault")
	ErrNotHumanTurn     = errors.New("not the human's turn")
	ErrNotAutomatedTurn = errors.New("no automated reply expected")
	ErrTerminated       = errors.New("game is over")
	ErrNotTerminal      = errors.New("position is not terminal")
)

type Status int

const (
	StatusIdle Status = iota
	StatusAwaitingHuman
	StatusProcessingHuman
	StatusAwaitingReply
	StatusTerminated
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAwaitingHuman:
		return "awaiting-human"
	case StatusProcessingHuman:
		return "processing-human-move"
	case StatusAwaitingReply:
		return "awaiting-automated-reply"
	case StatusTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// AcceptsHuman reports whether clicks and human moves are processed in this status.
func (s Status) AcceptsHuman() bool {
	return s == StatusIdle || s == StatusAwaitingHuman
}

// Outcome is the terminal reason; OutcomeNone until the session terminates.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWhiteWins
	OutcomeBlackWins
	OutcomeDraw
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWhiteWins:
		return "checkmate-white-wins"
	case OutcomeBlackWins:
		return "checkmate-black-wins"
	case OutcomeDraw:
		return "draw"
	default:
		return ""
	}
}

type LogKind string

const (
	LogInfo    LogKind = "info"
	LogWarning LogKind = "warning"
	LogError   LogKind = "error"
)

type LogEntry struct {
	Kind LogKind
	Text string
	At   time.Time
}

// Selection is the highlighted square and its legal destinations.
type Selection struct {
	Square       rules.Square
	Destinations []rules.Square
}

var noSelection = Selection{Square: rules.NoSquare}

func (s Selection) Active() bool { return s.Square != rules.NoSquare }

func (s Selection) Contains(sq rules.Square) bool {
	for _, d := range s.Destinations {
		if d == sq {
			return true
		}
	}
	return false
}

type LastMove struct {
	From rules.Square
	To   rules.Square
	SAN  string
	Side rules.Side
}

// Snapshot is the full session state after one transition. Controllers never
// modify a published Snapshot; each transition produces a new one.
type Snapshot struct {
	Generation      string
	Position        rules.Position
	Selection       Selection
	CapturedByWhite []rules.PieceType
	CapturedByBlack []rules.PieceType
	MoveCount       int
	Status          Status
	Outcome         Outcome
	LastMove        *LastMove
	Check           bool
	Logs            []LogEntry
	UpdatedAt       time.Time
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Selection = Selection{
		Square:       s.Selection.Square,
		Destinations: append([]rules.Square(nil), s.Selection.Destinations...),
	}
	out.CapturedByWhite = append([]rules.PieceType(nil), s.CapturedByWhite...)
	out.CapturedByBlack = append([]rules.PieceType(nil), s.CapturedByBlack...)
	out.Logs = append([]LogEntry(nil), s.Logs...)
	if s.LastMove != nil {
		lm := *s.LastMove
		out.LastMove = &lm
	}
	return out
}
