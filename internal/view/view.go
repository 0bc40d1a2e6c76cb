// Package view projects controller snapshots into wire state for a theme.
package view

import (
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/park285/age-of-ai-chess/internal/game"
	"github.com/park285/age-of-ai-chess/internal/render"
	"github.com/park285/age-of-ai-chess/internal/rules"
	"github.com/park285/age-of-ai-chess/internal/theme"
	"github.com/park285/age-of-ai-chess/pkg/uidto"
)

// Texts resolves catalog keys.
type Texts interface {
	Text(key string, data any, fallback string) string
}

type Projector struct {
	src   render.PieceSource
	texts Texts

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewProjector(src render.PieceSource, texts Texts, seed int64) (*Projector, error) {
	if src == nil {
		return nil, errors.New("piece source is required")
	}
	if texts == nil {
		return nil, errors.New("texts are required")
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Projector{src: src, texts: texts, rnd: rand.New(rand.NewSource(seed))}, nil
}

// State builds the full wire state for one session.
func (p *Projector) State(sessionID string, th theme.Theme, snap game.Snapshot) uidto.State {
	frame := render.NewFrame(p.src, snap)

	st := uidto.State{
		SessionID:   sessionID,
		Generation:  snap.Generation,
		Theme:       th.ID,
		Board:       Board(frame, th),
		Status:      snap.Status.String(),
		StatusLabel: p.StatusLabel(snap.Status),
		HumanToMove: snap.Status.AcceptsHuman(),
		Check:       snap.Check,
		MoveCount:   snap.MoveCount,
		Captured: uidto.Captured{
			ByWhite: CapturedGlyphs(th, rules.Black, snap.CapturedByWhite),
			ByBlack: CapturedGlyphs(th, rules.White, snap.CapturedByBlack),
		},
		Metrics:   p.Metrics(snap.MoveCount),
		Logs:      make([]uidto.LogEntry, 0, len(snap.Logs)),
		UpdatedAt: snap.UpdatedAt,
	}
	if !snap.Position.IsZero() {
		st.FEN = snap.Position.FEN()
	}
	if snap.Selection.Active() {
		st.Selected = snap.Selection.Square.String()
	}
	if snap.Outcome != game.OutcomeNone {
		st.Outcome = snap.Outcome.String()
		st.Banner = p.Banner(snap.Outcome)
	}
	if lm := snap.LastMove; lm != nil {
		st.LastMove = &uidto.LastMove{From: lm.From.String(), To: lm.To.String(), SAN: lm.SAN, Side: lm.Side.String()}
	}
	for _, e := range snap.Logs {
		st.Logs = append(st.Logs, uidto.LogEntry{Kind: string(e.Kind), Text: e.Text, At: e.At})
	}
	return st
}

// Board lists squares from a8 to h1, row by row.
func Board(f render.Frame, th theme.Theme) []uidto.Square {
	dest := make(map[rules.Square]bool, len(f.Destinations))
	for _, sq := range f.Destinations {
		dest[sq] = true
	}
	out := make([]uidto.Square, 0, 64)
	for rank := 7; rank >= 0; rank-- {
		for file := 0; file < 8; file++ {
			sq := rules.NewSquare(file, rank)
			p := f.Pieces[sq]
			cell := uidto.Square{
				Name:        sq.String(),
				Light:       (file+rank)%2 == 1,
				Selected:    sq == f.Selected,
				Destination: dest[sq],
				LastMove:    sq == f.LastFrom || sq == f.LastTo,
				Check:       sq == f.CheckSquare,
			}
			if !p.Empty() {
				cell.Piece = p.Code()
				cell.Glyph = glyph(th, p.Code())
			}
			out = append(out, cell)
		}
	}
	return out
}

var captureOrder = map[rules.PieceType]int{
	rules.Queen:  0,
	rules.Rook:   1,
	rules.Bishop: 2,
	rules.Knight: 3,
	rules.Pawn:   4,
}

// CapturedGlyphs renders pieces of side taken by the opponent, queens first.
func CapturedGlyphs(th theme.Theme, side rules.Side, types []rules.PieceType) []string {
	sorted := append([]rules.PieceType(nil), types...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rank(sorted[i]) < rank(sorted[j])
	})
	out := make([]string, 0, len(sorted))
	for _, pt := range sorted {
		out = append(out, glyph(th, rules.Piece{Type: pt, Side: side}.Code()))
	}
	return out
}

func rank(pt rules.PieceType) int {
	if r, ok := captureOrder[pt]; ok {
		return r
	}
	return len(captureOrder)
}

func glyph(th theme.Theme, code string) string {
	if g := th.Glyph(code); g != "" {
		return g
	}
	return code
}

func (p *Projector) StatusLabel(s game.Status) string {
	switch s {
	case game.StatusIdle:
		return p.texts.Text("status.idle", nil, "IDLE")
	case game.StatusAwaitingHuman:
		return p.texts.Text("status.waiting", nil, "WAITING")
	case game.StatusTerminated:
		return p.texts.Text("status.terminated", nil, "TERMINATED")
	default:
		return p.texts.Text("status.processing", nil, "PROCESSING")
	}
}

func (p *Projector) Banner(o game.Outcome) string {
	switch o {
	case game.OutcomeWhiteWins:
		return p.texts.Text("outcome.white_wins", nil, "CHECKMATE - HUMAN WINS")
	case game.OutcomeBlackWins:
		return p.texts.Text("outcome.black_wins", nil, "CHECKMATE - AI WINS")
	case game.OutcomeDraw:
		return p.texts.Text("outcome.draw", nil, "DRAW")
	default:
		return ""
	}
}

// Metrics fills the decorative panel; only Moves and Resources are deterministic.
func (p *Projector) Metrics(moves int) uidto.Metrics {
	p.mu.Lock()
	probJitter := p.rnd.Intn(10)
	latencyJitter := p.rnd.Intn(20)
	p.mu.Unlock()

	return uidto.Metrics{
		WinProbability: max(5, 50-2*moves+probJitter),
		Resources:      min(99, 30+3*moves),
		LatencyMS:      8 + latencyJitter,
		Moves:          moves,
	}
}

// Themes summarises the registry, marking active.
func Themes(reg *theme.Registry, active string) []uidto.ThemeSummary {
	all := reg.All()
	out := make([]uidto.ThemeSummary, 0, len(all))
	for _, th := range all {
		out = append(out, uidto.ThemeSummary{
			ID:          th.ID,
			Name:        th.Name,
			Icon:        th.Icon,
			Description: th.Description,
			Active:      th.ID == active,
		})
	}
	return out
}
