package textpresenter

import (
	"fmt"
	"strings"

	"github.com/park285/age-of-ai-chess/pkg/uidto"
)

const defaultLogTail = 8

// Texts resolves catalog keys.
type Texts interface {
	Text(key string, data any, fallback string) string
}

// Formatter renders wire state as terminal text.
type Formatter struct {
	texts   Texts
	logTail int
	ascii   bool
}

type Option func(*Formatter)

// WithLogTail limits how many log lines are printed.
func WithLogTail(n int) Option {
	return func(f *Formatter) {
		if n > 0 {
			f.logTail = n
		}
	}
}

// WithASCII prints piece codes instead of theme glyphs.
func WithASCII(on bool) Option {
	return func(f *Formatter) { f.ascii = on }
}

func NewFormatter(texts Texts, opts ...Option) *Formatter {
	f := &Formatter{texts: texts, logTail: defaultLogTail}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Formatter) text(key, fallback string) string {
	if f == nil || f.texts == nil {
		return fallback
	}
	return f.texts.Text(key, nil, fallback)
}

// Board draws the grid with rank and file labels. Selected squares are
// bracketed and destinations starred.
func (f *Formatter) Board(st *uidto.State) string {
	if st == nil || len(st.Board) != 64 {
		return ""
	}
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		fmt.Fprintf(&sb, "%d ", 8-row)
		for col := 0; col < 8; col++ {
			sb.WriteString(f.cell(st.Board[row*8+col]))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("   a  b  c  d  e  f  g  h\n")
	return sb.String()
}

func (f *Formatter) cell(sq uidto.Square) string {
	mark := "."
	if sq.Piece != "" {
		mark = pieceLetter(sq.Piece)
		if !f.ascii && sq.Glyph != "" {
			mark = sq.Glyph
		}
	}
	switch {
	case sq.Selected:
		return "[" + mark + "]"
	case sq.Destination && sq.Piece == "":
		return " * "
	case sq.Destination:
		return "*" + mark + " "
	case sq.Check:
		return "!" + mark + " "
	default:
		return " " + mark + " "
	}
}

// pieceLetter turns "wq" into "Q" and "bn" into "n".
func pieceLetter(code string) string {
	if len(code) != 2 {
		return "?"
	}
	if code[0] == 'w' {
		return strings.ToUpper(code[1:])
	}
	return code[1:]
}

// Status summarises turn, outcome, move count and captures.
func (f *Formatter) Status(st *uidto.State) string {
	if st == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "• %s (%s)\n", st.StatusLabel, st.Theme)
	if st.Banner != "" {
		fmt.Fprintf(&sb, "• %s\n", st.Banner)
	} else if st.HumanToMove {
		fmt.Fprintf(&sb, "• %s\n", f.text("cli.turn_human", "Your move (white)."))
	} else {
		fmt.Fprintf(&sb, "• %s\n", f.text("cli.turn_automated", "Opponent is thinking..."))
	}
	fmt.Fprintf(&sb, "• moves: %d", st.MoveCount)
	if lm := st.LastMove; lm != nil {
		fmt.Fprintf(&sb, " | last: %s %s (%s%s)", lm.Side, lm.SAN, lm.From, lm.To)
	}
	if st.Check && st.Banner == "" {
		sb.WriteString(" | check")
	}
	sb.WriteString("\n")
	if len(st.Captured.ByWhite) > 0 {
		fmt.Fprintf(&sb, "• captured by white: %s\n", strings.Join(st.Captured.ByWhite, " "))
	}
	if len(st.Captured.ByBlack) > 0 {
		fmt.Fprintf(&sb, "• captured by black: %s\n", strings.Join(st.Captured.ByBlack, " "))
	}
	return sb.String()
}

// Logs prints the newest entries, oldest first.
func (f *Formatter) Logs(st *uidto.State) string {
	if st == nil || len(st.Logs) == 0 {
		return f.text("cli.no_logs", "(no log entries)") + "\n"
	}
	entries := st.Logs
	if len(entries) > f.logTail {
		entries = entries[len(entries)-f.logTail:]
	}
	var sb strings.Builder
	for _, e := range entries {
		prefix := ">"
		switch e.Kind {
		case "warning":
			prefix = "!"
		case "error":
			prefix = "x"
		}
		fmt.Fprintf(&sb, "%s %s\n", prefix, e.Text)
	}
	return sb.String()
}

func (f *Formatter) Themes(list []uidto.ThemeSummary) string {
	var sb strings.Builder
	for _, th := range list {
		marker := " "
		if th.Active {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s %-12s %s %s\n", marker, th.ID, th.Icon, th.Name)
	}
	return sb.String()
}

// State is the full screen: board, status and log tail.
func (f *Formatter) State(st *uidto.State) string {
	if st == nil {
		return ""
	}
	return f.Board(st) + "\n" + f.Status(st) + "\n" + f.Logs(st)
}
