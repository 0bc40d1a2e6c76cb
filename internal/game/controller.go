package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/age-of-ai-chess/internal/rules"
	"go.uber.org/zap"
)

const defaultLogLimit = 25

// Rules is the chess rules collaborator. *rules.Engine implements it.
type Rules interface {
	Start() rules.Position
	PieceAt(pos rules.Position, sq rules.Square) rules.Piece
	SideToMove(pos rules.Position) rules.Side
	LegalMoves(pos rules.Position, from rules.Square) []rules.Move
	Apply(pos rules.Position, from, to rules.Square, promo rules.PieceType) (rules.Position, rules.MoveResult, error)
	Terminal(pos rules.Position) rules.Terminal
	InCheck(pos rules.Position) bool
}

// Messages renders log lines by key. *msgcat.Catalog implements it.
type Messages interface {
	Render(key string, data any) (string, error)
}

type Option func(*Controller)

func WithChooser(ch MoveChooser) Option {
	return func(c *Controller) { c.chooser = ch }
}

func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

func WithPacing(p Pacing) Option {
	return func(c *Controller) { c.pacing = p }
}

// WithRandomSeed seeds the reply-delay jitter. 0 seeds from the clock.
func WithRandomSeed(seed int64) Option {
	return func(c *Controller) { c.jitter = newLockedRand(seed) }
}

func WithMessages(m Messages) Option {
	return func(c *Controller) { c.msgs = m }
}

// WithIntro adds lines logged after the initial entry of a new controller.
// Reset does not repeat them.
func WithIntro(lines ...string) Option {
	return func(c *Controller) { c.intro = append([]string(nil), lines...) }
}

// WithFlavor sets the supplier of the line logged after each automated reply.
func WithFlavor(fn func() string) Option {
	return func(c *Controller) { c.flavor = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithLogLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.logLimit = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

type subscriberEntry struct {
	id int
	fn func(Snapshot)
}

// Controller owns one game session. All transitions are serialised by mu and
// publish a fresh Snapshot.
type Controller struct {
	mu sync.Mutex

	rules    Rules
	chooser  MoveChooser
	sched    Scheduler
	pacing   Pacing
	jitter   *lockedRand
	msgs     Messages
	flavor   func() string
	intro    []string
	logger   *zap.Logger
	logLimit int
	now      func() time.Time

	snap    Snapshot
	pending *pendingReply
	subs    []subscriberEntry
	nextSub int
	closed  bool
}

func NewController(r Rules, opts ...Option) (*Controller, error) {
	if r == nil {
		return nil, fmt.Errorf("rules engine is required")
	}
	c := &Controller{
		rules:    r,
		sched:    TimerScheduler{},
		pacing:   DefaultPacing(),
		logger:   zap.NewNop(),
		logLimit: defaultLogLimit,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.chooser == nil {
		c.chooser = NewRandomChooser(0)
	}
	if c.jitter == nil {
		c.jitter = newLockedRand(0)
	}
	if c.sched == nil {
		return nil, fmt.Errorf("scheduler is required")
	}
	c.snap = c.freshSnapshot("log.initialized", "System initialized.")
	for _, line := range c.intro {
		c.appendLog(&c.snap, LogInfo, line)
	}
	return c, nil
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.clone()
}

// Subscribe registers fn for every published Snapshot. fn runs with the
// controller locked and must not call back into it.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, subscriberEntry{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				break
			}
		}
	}
}

// OnSquareClick interprets a click on sq and returns the resulting Snapshot.
func (c *Controller) OnSquareClick(sq rules.Square) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSquareClick(sq)
	return c.snap.clone()
}

func (c *Controller) onSquareClick(sq rules.Square) {
	cur := c.snap
	if c.closed || !sq.Valid() || !cur.Status.AcceptsHuman() {
		return
	}
	if c.rules.SideToMove(cur.Position) != rules.White {
		return
	}
	piece := c.rules.PieceAt(cur.Position, sq)
	own := !piece.Empty() && piece.Side == rules.White
	sel := cur.Selection

	if !sel.Active() {
		if own {
			c.commit(c.selected(cur, sq))
		}
		return
	}

	switch {
	case sq == sel.Square:
		c.commit(deselected(cur))
	case sel.Contains(sq):
		_ = c.applyHumanMove(sel.Square, sq)
	case own:
		c.commit(c.selected(cur, sq))
	default:
		c.commit(deselected(cur))
	}
}

func (c *Controller) selected(cur Snapshot, sq rules.Square) Snapshot {
	next := cur.clone()
	moves := c.rules.LegalMoves(cur.Position, sq)
	dests := make([]rules.Square, 0, len(moves))
	seen := make(map[rules.Square]struct{}, len(moves))
	for _, m := range moves {
		if _, dup := seen[m.To]; dup {
			continue
		}
		seen[m.To] = struct{}{}
		dests = append(dests, m.To)
	}
	next.Selection = Selection{Square: sq, Destinations: dests}
	return next
}

func deselected(cur Snapshot) Snapshot {
	next := cur.clone()
	next.Selection = noSelection
	return next
}

// ApplyHumanMove plays from→to for White, promoting pawns to a queen.
func (c *Controller) ApplyHumanMove(from, to rules.Square) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyHumanMove(from, to)
}

func (c *Controller) applyHumanMove(from, to rules.Square) error {
	cur := c.snap
	if c.closed || cur.Status == StatusTerminated {
		return ErrTerminated
	}
	if !cur.Status.AcceptsHuman() || c.rules.SideToMove(cur.Position) != rules.White {
		return ErrNotHumanTurn
	}

	promo := rules.PromotionFor(c.rules.PieceAt(cur.Position, from), to)
	pos, res, err := c.rules.Apply(cur.Position, from, to, promo)
	if err != nil {
		next := deselected(cur)
		c.appendLog(&next, LogError, c.text("log.illegal_move", nil, "Invalid move."))
		c.commit(next)
		c.logger.Warn("human move rejected",
			zap.Error(err),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
			zap.String("generation", cur.Generation),
		)
		return fmt.Errorf("%w: %s%s: %w", ErrIllegalMove, from, to, err)
	}

	next := cur.clone()
	if res.Captured != rules.NoPieceType {
		next.CapturedByWhite = append(next.CapturedByWhite, res.Captured)
	}
	next.Position = pos
	next.Selection = noSelection
	next.MoveCount++
	next.Status = StatusProcessingHuman
	next.LastMove = &LastMove{From: from, To: to, SAN: res.SAN, Side: rules.White}
	next.Check = c.rules.InCheck(pos)
	c.appendLog(&next, LogInfo, c.text("log.human_move", map[string]any{"SAN": res.SAN}, "Human played "+res.SAN+"."))

	if term := c.rules.Terminal(pos); term != rules.TerminalNone {
		c.commit(c.terminated(next, pos, term))
		return nil
	}

	next.Status = StatusAwaitingReply
	c.commit(next)
	c.scheduleReply(next.Generation, pos)
	return nil
}

func (c *Controller) scheduleReply(generation string, pos rules.Position) {
	d := c.pacing.delay(c.jitter)
	cancel := c.sched.AfterFunc(d, func() { c.fireReply(generation, pos) })
	c.pending = &pendingReply{generation: generation, cancel: cancel}
	c.logger.Debug("automated reply scheduled",
		zap.Duration("delay", d),
		zap.String("generation", generation),
	)
}

func (c *Controller) fireReply(generation string, pos rules.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.pending == nil || c.pending.generation != generation || c.snap.Generation != generation {
		c.logger.Debug("stale automated reply dropped", zap.String("generation", generation))
		return
	}
	c.pending = nil
	_ = c.applyAutomatedMove(pos)
}

// ApplyAutomatedMove plays Black's reply on pos immediately, cancelling any
// scheduled reply.
func (c *Controller) ApplyAutomatedMove(pos rules.Position) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelPending()
	return c.applyAutomatedMove(pos)
}

func (c *Controller) applyAutomatedMove(pos rules.Position) error {
	cur := c.snap
	if c.closed || cur.Status == StatusTerminated {
		return ErrTerminated
	}
	if term := c.rules.Terminal(pos); term != rules.TerminalNone {
		c.commit(c.terminated(cur, pos, term))
		return nil
	}
	if cur.Status != StatusAwaitingReply {
		return ErrNotAutomatedTurn
	}
	if side := c.rules.SideToMove(pos); side != rules.Black {
		return c.engineFault(cur, fmt.Errorf("%w: %s to move", ErrEngineFault, side))
	}

	moves := c.rules.LegalMoves(pos, rules.NoSquare)
	if len(moves) == 0 {
		return c.engineFault(cur, fmt.Errorf("%w: no legal moves in a live position", ErrEngineFault))
	}
	mv := c.chooser.ChooseMove(moves)
	next, res, err := c.rules.Apply(pos, mv.From, mv.To, mv.Promotion)
	if err != nil {
		return c.engineFault(cur, fmt.Errorf("%w: apply %s: %w", ErrEngineFault, mv, err))
	}

	snap := cur.clone()
	if res.Captured != rules.NoPieceType {
		snap.CapturedByBlack = append(snap.CapturedByBlack, res.Captured)
	}
	snap.Position = next
	snap.MoveCount++
	snap.Status = StatusAwaitingHuman
	snap.Selection = noSelection
	snap.LastMove = &LastMove{From: mv.From, To: mv.To, SAN: res.SAN, Side: rules.Black}
	snap.Check = c.rules.InCheck(next)
	c.appendLog(&snap, LogInfo, c.text("log.automated_move", map[string]any{"SAN": res.SAN}, "AI responds: "+res.SAN))
	c.appendLog(&snap, LogInfo, c.flavorLine())

	if term := c.rules.Terminal(next); term != rules.TerminalNone {
		snap = c.terminated(snap, next, term)
	}
	c.commit(snap)
	return nil
}

func (c *Controller) engineFault(cur Snapshot, err error) error {
	c.logger.Error("automated opponent failed", zap.Error(err), zap.String("generation", cur.Generation))
	next := cur.clone()
	c.appendLog(&next, LogError, c.text("log.engine_fault", nil, "AI engine error."))
	c.commit(next)
	return err
}

// HandleTerminal ends the session for a terminal pos. It is a no-op once terminated.
func (c *Controller) HandleTerminal(pos rules.Position) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap.Status == StatusTerminated {
		return nil
	}
	term := c.rules.Terminal(pos)
	if term == rules.TerminalNone {
		return ErrNotTerminal
	}
	c.cancelPending()
	c.commit(c.terminated(c.snap, pos, term))
	return nil
}

func (c *Controller) terminated(cur Snapshot, pos rules.Position, term rules.Terminal) Snapshot {
	next := cur.clone()
	next.Status = StatusTerminated
	next.Selection = noSelection
	if term == rules.TerminalCheckmate {
		winner := c.rules.SideToMove(pos).Other()
		label := c.text("label.human", nil, "HUMAN")
		next.Outcome = OutcomeWhiteWins
		if winner == rules.Black {
			label = c.text("label.automated", nil, "AI")
			next.Outcome = OutcomeBlackWins
		}
		c.appendLog(&next, LogWarning, c.text("log.checkmate", map[string]any{"Winner": label}, "Checkmate. "+label+" wins."))
	} else {
		next.Outcome = OutcomeDraw
		c.appendLog(&next, LogWarning, c.text("log.draw", nil, "Draw."))
	}
	c.logger.Info("game over",
		zap.String("outcome", next.Outcome.String()),
		zap.Int("moves", next.MoveCount),
		zap.String("generation", next.Generation),
	)
	return next
}

// Reset discards the session, cancelling a pending reply, and starts a new one.
func (c *Controller) Reset() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelPending()
	prev := c.snap.Generation
	c.commit(c.freshSnapshot("log.reset", "System reset. Click a piece to begin."))
	c.logger.Info("session reset", zap.String("previous", prev), zap.String("generation", c.snap.Generation))
	return c.snap.clone()
}

// Close cancels any pending reply and detaches subscribers.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelPending()
	c.closed = true
	c.subs = nil
}

func (c *Controller) cancelPending() {
	if c.pending == nil {
		return
	}
	if c.pending.cancel != nil {
		c.pending.cancel()
	}
	c.pending = nil
}

func (c *Controller) freshSnapshot(key, fallback string) Snapshot {
	s := Snapshot{
		Generation: uuid.NewString(),
		Position:   c.rules.Start(),
		Selection:  noSelection,
		Status:     StatusIdle,
	}
	c.appendLog(&s, LogInfo, c.text(key, nil, fallback))
	s.UpdatedAt = c.now()
	return s
}

func (c *Controller) commit(next Snapshot) {
	next.UpdatedAt = c.now()
	c.snap = next
	for _, s := range c.subs {
		if s.fn != nil {
			s.fn(next.clone())
		}
	}
}

func (c *Controller) appendLog(s *Snapshot, kind LogKind, text string) {
	if text == "" {
		return
	}
	s.Logs = append(s.Logs, LogEntry{Kind: kind, Text: text, At: c.now()})
	if over := len(s.Logs) - c.logLimit; over > 0 {
		s.Logs = append([]LogEntry(nil), s.Logs[over:]...)
	}
}

func (c *Controller) flavorLine() string {
	if c.flavor != nil {
		if line := c.flavor(); line != "" {
			return line
		}
	}
	return c.text("log.flavor", nil, "Probability matrix recalculated.")
}

func (c *Controller) text(key string, data any, fallback string) string {
	if c.msgs == nil {
		return fallback
	}
	out, err := c.msgs.Render(key, data)
	if err != nil || out == "" {
		c.logger.Debug("message fallback", zap.String("key", key), zap.Error(err))
		return fallback
	}
	return out
}
