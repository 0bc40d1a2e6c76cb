package game

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/park285/age-of-ai-chess/internal/rules"
)

func TestNewControllerRequiresRules(t *testing.T) {
	if _, err := NewController(nil); err == nil {
		t.Fatalf("expected error for nil rules")
	}
}

func TestInitialSnapshot(t *testing.T) {
	c, _ := newTestController(t)
	snap := c.Snapshot()
	if snap.Status != StatusIdle || snap.MoveCount != 0 || snap.Outcome != OutcomeNone {
		t.Fatalf("unexpected initial state: %+v", snap)
	}
	if snap.Selection.Active() {
		t.Fatalf("no selection expected")
	}
	if snap.Generation == "" {
		t.Fatalf("generation must be set")
	}
	if len(snap.Logs) != 1 || snap.Logs[0].Text != "System initialized." {
		t.Fatalf("unexpected initial logs: %+v", snap.Logs)
	}
	if snap.Position.FEN() != rules.NewEngine().Start().FEN() {
		t.Fatalf("session must start from the initial position")
	}
}

func TestIntroLinesFollowInitialEntry(t *testing.T) {
	c, _ := newTestController(t, WithIntro("Neural Engine v9.2 online.", "Click a piece to begin."))
	logs := c.Snapshot().Logs
	want := []string{"System initialized.", "Neural Engine v9.2 online.", "Click a piece to begin."}
	if len(logs) != len(want) {
		t.Fatalf("expected %d log lines, got %+v", len(want), logs)
	}
	for i, text := range want {
		if logs[i].Text != text || logs[i].Kind != LogInfo {
			t.Fatalf("log %d: want info %q, got %+v", i, text, logs[i])
		}
	}

	after := c.Reset()
	if len(after.Logs) != 1 || after.Logs[0].Text != "System reset. Click a piece to begin." {
		t.Fatalf("reset must not repeat the intro: %+v", after.Logs)
	}
}

func TestHumanMoveThenReply(t *testing.T) {
	c, sched := newTestController(t)
	var statuses []Status
	c.Subscribe(func(s Snapshot) { statuses = append(statuses, s.Status) })

	snap := c.OnSquareClick(sq(t, "e2"))
	if !snap.Selection.Active() || snap.Selection.Square != sq(t, "e2") {
		t.Fatalf("e2 should be selected: %+v", snap.Selection)
	}
	if !snap.Selection.Contains(sq(t, "e3")) || !snap.Selection.Contains(sq(t, "e4")) || len(snap.Selection.Destinations) != 2 {
		t.Fatalf("unexpected destinations: %v", snap.Selection.Destinations)
	}

	snap = c.OnSquareClick(sq(t, "e4"))
	e := rules.NewEngine()
	if p := e.PieceAt(snap.Position, sq(t, "e4")); p != (rules.Piece{Type: rules.Pawn, Side: rules.White}) {
		t.Fatalf("expected white pawn on e4, got %+v", p)
	}
	if !e.PieceAt(snap.Position, sq(t, "e2")).Empty() {
		t.Fatalf("e2 should be empty")
	}
	if snap.MoveCount != 1 || snap.Status != StatusAwaitingReply {
		t.Fatalf("after human half: count=%d status=%s", snap.MoveCount, snap.Status)
	}
	if snap.Selection.Active() {
		t.Fatalf("selection must be cleared after the move")
	}
	if last := snap.Logs[len(snap.Logs)-1].Text; last != "Human played e4." {
		t.Fatalf("unexpected log %q", last)
	}

	tasks := sched.pending()
	if len(tasks) != 1 {
		t.Fatalf("expected one scheduled reply, got %d", len(tasks))
	}
	if d := tasks[0].delay; d < 600*time.Millisecond || d >= 1400*time.Millisecond {
		t.Fatalf("reply delay %v outside [600ms,1400ms)", d)
	}

	if n := sched.runPending(); n != 1 {
		t.Fatalf("expected 1 task to run, got %d", n)
	}
	snap = c.Snapshot()
	if snap.MoveCount != 2 || snap.Status != StatusAwaitingHuman {
		t.Fatalf("after reply: count=%d status=%s", snap.MoveCount, snap.Status)
	}
	if e.SideToMove(snap.Position) != rules.White {
		t.Fatalf("white to move after the reply")
	}
	if snap.LastMove == nil || snap.LastMove.Side != rules.Black {
		t.Fatalf("last move should be black's reply: %+v", snap.LastMove)
	}

	want := []Status{StatusIdle, StatusAwaitingReply, StatusAwaitingHuman}
	if len(statuses) != len(want) {
		t.Fatalf("status sequence %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Fatalf("status sequence %v, want %v", statuses, want)
		}
	}
}

func TestClickSelectedSquareDeselects(t *testing.T) {
	c, sched := newTestController(t)
	fen := c.Snapshot().Position.FEN()

	c.OnSquareClick(sq(t, "e2"))
	snap := c.OnSquareClick(sq(t, "e2"))
	if snap.Selection.Active() || len(snap.Selection.Destinations) != 0 {
		t.Fatalf("selection should be cleared: %+v", snap.Selection)
	}
	if snap.MoveCount != 0 || snap.Position.FEN() != fen {
		t.Fatalf("position must not change")
	}
	if len(sched.pending()) != 0 {
		t.Fatalf("nothing should be scheduled")
	}
}

func TestClickElsewhereCancelsSelection(t *testing.T) {
	c, _ := newTestController(t)
	c.OnSquareClick(sq(t, "g1"))
	snap := c.OnSquareClick(sq(t, "e5"))
	if snap.Selection.Active() {
		t.Fatalf("selection should be cleared")
	}
	if snap.MoveCount != 0 {
		t.Fatalf("no move expected")
	}

	// black piece is neither own nor a destination
	c.OnSquareClick(sq(t, "g1"))
	snap = c.OnSquareClick(sq(t, "g8"))
	if snap.Selection.Active() || snap.MoveCount != 0 {
		t.Fatalf("clicking an enemy piece out of reach must only deselect")
	}
}

func TestClickOwnPieceReselects(t *testing.T) {
	c, _ := newTestController(t)
	c.OnSquareClick(sq(t, "e2"))
	snap := c.OnSquareClick(sq(t, "d2"))
	if snap.Selection.Square != sq(t, "d2") {
		t.Fatalf("expected d2 selected, got %s", snap.Selection.Square)
	}
	if !snap.Selection.Contains(sq(t, "d4")) || snap.Selection.Contains(sq(t, "e4")) {
		t.Fatalf("destinations must belong to d2: %v", snap.Selection.Destinations)
	}
}

func TestClickEmptyOrEnemyWithoutSelectionIsIgnored(t *testing.T) {
	c, _ := newTestController(t)
	for _, s := range []string{"e4", "e7"} {
		if snap := c.OnSquareClick(sq(t, s)); snap.Selection.Active() {
			t.Fatalf("clicking %s must not select", s)
		}
	}
	if snap := c.OnSquareClick(rules.NoSquare); snap.Selection.Active() {
		t.Fatalf("invalid square must be ignored")
	}
}

func TestClicksIgnoredWhileReplyPending(t *testing.T) {
	c, _ := newTestController(t)
	clickMove(t, c, "e2", "e4")
	snap := c.OnSquareClick(sq(t, "d2"))
	if snap.Selection.Active() {
		t.Fatalf("no selection while awaiting the reply")
	}
	if err := c.ApplyHumanMove(sq(t, "d2"), sq(t, "d4")); !errors.Is(err, ErrNotHumanTurn) {
		t.Fatalf("expected ErrNotHumanTurn, got %v", err)
	}
}

func TestCheckmateByAutomatedOpponent(t *testing.T) {
	c, sched := newTestController(t, WithChooser(scriptedChooser(t, "e7e5", "d8h4")))

	clickMove(t, c, "f2", "f3")
	sched.runPending()
	clickMove(t, c, "g2", "g4")
	sched.runPending()

	snap := c.Snapshot()
	if snap.Status != StatusTerminated {
		t.Fatalf("expected terminated, got %s", snap.Status)
	}
	if snap.Outcome != OutcomeBlackWins {
		t.Fatalf("expected black to win, got %s", snap.Outcome)
	}
	if snap.MoveCount != 4 {
		t.Fatalf("expected 4 plies, got %d", snap.MoveCount)
	}
	if last := snap.Logs[len(snap.Logs)-1]; last.Text != "Checkmate. AI wins." || last.Kind != LogWarning {
		t.Fatalf("unexpected last log %+v", last)
	}
	if !snap.Check {
		t.Fatalf("mate implies check")
	}

	fen := snap.Position.FEN()
	c.OnSquareClick(sq(t, "a2"))
	after := c.OnSquareClick(sq(t, "a3"))
	if after.Selection.Active() || after.MoveCount != 4 || after.Position.FEN() != fen {
		t.Fatalf("clicks after termination must be no-ops")
	}
	if len(sched.pending()) != 0 {
		t.Fatalf("no reply should be pending after mate")
	}
}

func TestCheckmateByHumanStopsReply(t *testing.T) {
	c, sched := newTestController(t, WithChooser(scriptedChooser(t, "e7e5", "b8c6", "g8f6")))

	clickMove(t, c, "e2", "e4")
	sched.runPending()
	clickMove(t, c, "f1", "c4")
	sched.runPending()
	clickMove(t, c, "d1", "h5")
	sched.runPending()
	snap := clickMove(t, c, "h5", "f7")

	if snap.Status != StatusTerminated || snap.Outcome != OutcomeWhiteWins {
		t.Fatalf("expected white win, got status=%s outcome=%s", snap.Status, snap.Outcome)
	}
	if len(sched.pending()) != 0 {
		t.Fatalf("terminal human move must not schedule a reply")
	}
	if len(snap.CapturedByWhite) != 1 || snap.CapturedByWhite[0] != rules.Pawn {
		t.Fatalf("expected f7 pawn captured, got %v", snap.CapturedByWhite)
	}
	if last := snap.Logs[len(snap.Logs)-1].Text; last != "Checkmate. HUMAN wins." {
		t.Fatalf("unexpected last log %q", last)
	}
}

func TestTerminalIsOneWay(t *testing.T) {
	c, sched := newTestController(t, WithChooser(scriptedChooser(t, "e7e5", "d8h4")))
	clickMove(t, c, "f2", "f3")
	sched.runPending()
	clickMove(t, c, "g2", "g4")
	sched.runPending()

	snap := c.Snapshot()
	if err := c.ApplyHumanMove(sq(t, "a2"), sq(t, "a3")); !errors.Is(err, ErrTerminated) {
		t.Fatalf("expected ErrTerminated, got %v", err)
	}
	if err := c.ApplyAutomatedMove(snap.Position); !errors.Is(err, ErrTerminated) {
		t.Fatalf("expected ErrTerminated, got %v", err)
	}
	if err := c.HandleTerminal(snap.Position); err != nil {
		t.Fatalf("HandleTerminal after termination: %v", err)
	}
	after := c.Snapshot()
	if after.MoveCount != snap.MoveCount || len(after.Logs) != len(snap.Logs) || after.Outcome != snap.Outcome {
		t.Fatalf("terminated session mutated")
	}
}

func TestResetCancelsPendingReply(t *testing.T) {
	c, sched := newTestController(t)
	before := c.Snapshot().Generation
	clickMove(t, c, "e2", "e4")
	if len(sched.pending()) != 1 {
		t.Fatalf("reply should be pending")
	}

	snap := c.Reset()
	if len(sched.pending()) != 0 {
		t.Fatalf("reset must cancel the pending reply")
	}
	if snap.MoveCount != 0 || snap.Status != StatusIdle || snap.Generation == before {
		t.Fatalf("unexpected state after reset: count=%d status=%s", snap.MoveCount, snap.Status)
	}
	if snap.Position.FEN() != rules.NewEngine().Start().FEN() {
		t.Fatalf("reset must restore the initial position")
	}
	if len(snap.Logs) != 1 || snap.Logs[0].Text != "System reset. Click a piece to begin." {
		t.Fatalf("unexpected logs after reset: %+v", snap.Logs)
	}

	// a timer that already started must still be ignored
	sched.fireAll()
	after := c.Snapshot()
	if after.MoveCount != 0 || after.Status != StatusIdle || after.Position.FEN() != snap.Position.FEN() {
		t.Fatalf("stale reply applied after reset")
	}
}

func TestIllegalHumanMoveIsRecovered(t *testing.T) {
	c, _ := newTestController(t)
	c.OnSquareClick(sq(t, "e2"))
	before := c.Snapshot()

	err := c.ApplyHumanMove(sq(t, "e2"), sq(t, "e5"))
	if !errors.Is(err, ErrIllegalMove) || !errors.Is(err, rules.ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	snap := c.Snapshot()
	if snap.Selection.Active() {
		t.Fatalf("selection must be cleared")
	}
	if snap.MoveCount != before.MoveCount || snap.Status != before.Status || snap.Position.FEN() != before.Position.FEN() {
		t.Fatalf("illegal move mutated the session")
	}
	last := snap.Logs[len(snap.Logs)-1]
	if last.Text != "Invalid move." || last.Kind != LogError {
		t.Fatalf("unexpected log %+v", last)
	}
}

type rejectingRules struct {
	*rules.Engine
	rejectWhite bool
	noMoves     bool
}

func (r rejectingRules) Apply(pos rules.Position, from, to rules.Square, promo rules.PieceType) (rules.Position, rules.MoveResult, error) {
	if r.rejectWhite && r.SideToMove(pos) == rules.White {
		return rules.Position{}, rules.MoveResult{}, rules.ErrIllegalMove
	}
	return r.Engine.Apply(pos, from, to, promo)
}

func (r rejectingRules) LegalMoves(pos rules.Position, from rules.Square) []rules.Move {
	if r.noMoves && r.SideToMove(pos) == rules.Black {
		return nil
	}
	return r.Engine.LegalMoves(pos, from)
}

func TestRulesRejectionOfOfferedDestination(t *testing.T) {
	c, err := NewController(rejectingRules{Engine: rules.NewEngine(), rejectWhite: true}, WithScheduler(&manualScheduler{}))
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	c.OnSquareClick(sq(t, "e2"))
	snap := c.OnSquareClick(sq(t, "e4"))
	if snap.MoveCount != 0 || snap.Selection.Active() || snap.Status != StatusIdle {
		t.Fatalf("rejected move must leave the session unchanged: %+v", snap)
	}
	if last := snap.Logs[len(snap.Logs)-1].Text; last != "Invalid move." {
		t.Fatalf("unexpected log %q", last)
	}
}

func TestEngineFaultOnBadChoice(t *testing.T) {
	bogus := ChooserFunc(func([]rules.Move) rules.Move {
		return rules.Move{From: rules.NewSquare(0, 0), To: rules.NewSquare(7, 7)}
	})
	c, sched := newTestController(t, WithChooser(bogus))
	snap := clickMove(t, c, "e2", "e4")
	sched.runPending()

	after := c.Snapshot()
	if after.MoveCount != snap.MoveCount || after.Status != StatusAwaitingReply || after.Position.FEN() != snap.Position.FEN() {
		t.Fatalf("engine fault must not advance the session")
	}
	if len(after.CapturedByBlack) != 0 {
		t.Fatalf("no capture may be recorded")
	}
	last := after.Logs[len(after.Logs)-1]
	if last.Text != "AI engine error." || last.Kind != LogError {
		t.Fatalf("unexpected log %+v", last)
	}
	if err := c.ApplyAutomatedMove(after.Position); !errors.Is(err, ErrEngineFault) {
		t.Fatalf("expected ErrEngineFault, got %v", err)
	}
}

func TestEngineFaultWhenNoLegalMoves(t *testing.T) {
	c, err := NewController(rejectingRules{Engine: rules.NewEngine(), noMoves: true}, WithScheduler(&manualScheduler{}))
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	if err := c.ApplyHumanMove(sq(t, "e2"), sq(t, "e4")); err != nil {
		t.Fatalf("ApplyHumanMove: %v", err)
	}
	snap := c.Snapshot()
	if err := c.ApplyAutomatedMove(snap.Position); !errors.Is(err, ErrEngineFault) {
		t.Fatalf("expected ErrEngineFault, got %v", err)
	}
	if after := c.Snapshot(); after.MoveCount != 1 || after.Status != StatusAwaitingReply {
		t.Fatalf("session advanced after fault: count=%d status=%s", after.MoveCount, after.Status)
	}
}

func TestApplyAutomatedMoveDirectCancelsTimer(t *testing.T) {
	c, sched := newTestController(t)
	snap := clickMove(t, c, "e2", "e4")
	if err := c.ApplyAutomatedMove(snap.Position); err != nil {
		t.Fatalf("ApplyAutomatedMove: %v", err)
	}
	if len(sched.pending()) != 0 {
		t.Fatalf("scheduled reply must be cancelled")
	}
	sched.fireAll()
	if got := c.Snapshot().MoveCount; got != 2 {
		t.Fatalf("reply applied twice: count=%d", got)
	}
	if err := c.ApplyAutomatedMove(c.Snapshot().Position); !errors.Is(err, ErrNotAutomatedTurn) {
		t.Fatalf("expected ErrNotAutomatedTurn, got %v", err)
	}
}

func TestHandleTerminalRejectsLivePosition(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.HandleTerminal(c.Snapshot().Position); !errors.Is(err, ErrNotTerminal) {
		t.Fatalf("expected ErrNotTerminal, got %v", err)
	}
}

func TestCapturesAreRecordedPerSide(t *testing.T) {
	c, sched := newTestController(t, WithChooser(scriptedChooser(t, "d7d5", "d5e4")))
	clickMove(t, c, "e2", "e4")
	sched.runPending()
	clickMove(t, c, "a2", "a3")
	sched.runPending()
	snap := c.Snapshot()
	if len(snap.CapturedByBlack) != 1 || snap.CapturedByBlack[0] != rules.Pawn {
		t.Fatalf("black should have captured a pawn: %v", snap.CapturedByBlack)
	}
	if len(snap.CapturedByWhite) != 0 {
		t.Fatalf("white captured nothing: %v", snap.CapturedByWhite)
	}
}

type fenRules struct {
	*rules.Engine
	start rules.Position
}

func (r fenRules) Start() rules.Position { return r.start }

func TestPromotionIsAlwaysQueen(t *testing.T) {
	e := rules.NewEngine()
	start, err := e.FromFEN("k7/4P3/8/8/8/8/8/7K w - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	c, err := NewController(fenRules{Engine: e, start: start}, WithScheduler(&manualScheduler{}))
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	snap := c.OnSquareClick(sq(t, "e7"))
	if len(snap.Selection.Destinations) != 1 {
		t.Fatalf("promotion choices collapse to one destination, got %v", snap.Selection.Destinations)
	}
	snap = c.OnSquareClick(sq(t, "e8"))
	if got := e.PieceAt(snap.Position, sq(t, "e8")); got != (rules.Piece{Type: rules.Queen, Side: rules.White}) {
		t.Fatalf("expected queen on e8, got %+v", got)
	}
	if !snap.Check {
		t.Fatalf("new queen checks the king on a8")
	}
}

func TestFiftyMoveRuleEndsGame(t *testing.T) {
	e := rules.NewEngine()
	start, err := e.FromFEN("4k3/8/8/8/8/8/8/R3K3 w - - 99 80")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	sched := &manualScheduler{}
	c, err := NewController(fenRules{Engine: e, start: start}, WithScheduler(sched))
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	snap := clickMove(t, c, "a1", "a2")
	if snap.Status != StatusTerminated || snap.Outcome != OutcomeDraw {
		t.Fatalf("expected a draw, got status=%s outcome=%s", snap.Status, snap.Outcome)
	}
	if len(sched.pending()) != 0 {
		t.Fatalf("a drawn game must not schedule a reply")
	}
	if last := snap.Logs[len(snap.Logs)-1].Text; last != "Draw." {
		t.Fatalf("unexpected last log %q", last)
	}
}

type mapMessages map[string]string

func (m mapMessages) Render(key string, data any) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", errors.New("missing " + key)
	}
	if d, ok := data.(map[string]any); ok {
		for k, val := range d {
			v = strings.ReplaceAll(v, "{"+k+"}", val.(string))
		}
	}
	return v, nil
}

func TestMessagesAndFlavor(t *testing.T) {
	msgs := mapMessages{
		"log.initialized": "boot",
		"log.human_move":  "you: {SAN}",
	}
	c, sched := newTestController(t,
		WithMessages(msgs),
		WithFlavor(func() string { return "omen" }),
		WithChooser(scriptedChooser(t, "e7e5")),
	)
	if first := c.Snapshot().Logs[0].Text; first != "boot" {
		t.Fatalf("catalog text not used: %q", first)
	}
	clickMove(t, c, "e2", "e4")
	sched.runPending()
	logs := c.Snapshot().Logs
	got := make([]string, 0, len(logs))
	for _, l := range logs {
		got = append(got, l.Text)
	}
	want := []string{"boot", "you: e4", "AI responds: e5", "omen"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("logs %v, want %v", got, want)
	}
}

func TestLogLimit(t *testing.T) {
	c, sched := newTestController(t, WithLogLimit(3))
	clickMove(t, c, "e2", "e4")
	sched.runPending()
	clickMove(t, c, "d2", "d3")
	sched.runPending()
	logs := c.Snapshot().Logs
	if len(logs) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(logs))
	}
}

func TestSnapshotsAreIndependent(t *testing.T) {
	c, sched := newTestController(t)
	first := c.Snapshot()
	clickMove(t, c, "e2", "e4")
	sched.runPending()
	if first.MoveCount != 0 || len(first.Logs) != 1 {
		t.Fatalf("earlier snapshot changed")
	}
	second := c.Snapshot()
	second.Logs[0].Text = "tampered"
	if c.Snapshot().Logs[0].Text == "tampered" {
		t.Fatalf("snapshot shares memory with the controller")
	}
}

func TestUnsubscribe(t *testing.T) {
	c, _ := newTestController(t)
	calls := 0
	unsub := c.Subscribe(func(Snapshot) { calls++ })
	c.OnSquareClick(sq(t, "e2"))
	unsub()
	c.OnSquareClick(sq(t, "e2"))
	if calls != 1 {
		t.Fatalf("expected 1 notification, got %d", calls)
	}
}

func TestCloseStopsReplies(t *testing.T) {
	c, sched := newTestController(t)
	clickMove(t, c, "e2", "e4")
	c.Close()
	sched.fireAll()
	if got := c.Snapshot().MoveCount; got != 1 {
		t.Fatalf("closed controller applied a reply: count=%d", got)
	}
}

// Random games check move counting and captures end to end.
func TestRandomGamesStayConsistent(t *testing.T) {
	e := rules.NewEngine()
	for seed := int64(1); seed <= 5; seed++ {
		c, sched := newTestController(t, WithChooser(NewRandomChooser(seed)))
		human := rand.New(rand.NewSource(seed * 31))
		prevWhite, prevBlack := 0, 0

		for round := 0; round < 60; round++ {
			snap := c.Snapshot()
			if snap.Status == StatusTerminated {
				break
			}
			moves := e.LegalMoves(snap.Position, rules.NoSquare)
			mv := moves[human.Intn(len(moves))]
			c.OnSquareClick(mv.From)
			after := c.OnSquareClick(mv.To)
			if after.MoveCount != snap.MoveCount+1 {
				t.Fatalf("seed %d: human ply not counted", seed)
			}
			sched.runPending()
			after = c.Snapshot()
			if after.Status != StatusTerminated && after.MoveCount != snap.MoveCount+2 {
				t.Fatalf("seed %d: full round must add 2 plies, got %d -> %d", seed, snap.MoveCount, after.MoveCount)
			}

			if len(after.CapturedByWhite) < prevWhite || len(after.CapturedByBlack) < prevBlack {
				t.Fatalf("seed %d: capture lists shrank", seed)
			}
			prevWhite, prevBlack = len(after.CapturedByWhite), len(after.CapturedByBlack)

			white, black := 0, 0
			for i := 0; i < 64; i++ {
				p := e.PieceAt(after.Position, rules.Square(i))
				if p.Empty() {
					continue
				}
				if p.Side == rules.White {
					white++
				} else {
					black++
				}
			}
			if black != 16-len(after.CapturedByWhite) || white != 16-len(after.CapturedByBlack) {
				t.Fatalf("seed %d: board has %d/%d pieces, captures %d/%d", seed, white, black, len(after.CapturedByBlack), len(after.CapturedByWhite))
			}
		}
	}
}
