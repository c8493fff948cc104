package domain

import (
    "math/rand/v2"
    "time"
)

// Phase is where the engine is within a selection round.
type Phase uint8

const (
    // Idle accepts selections, 0 or 1 tile revealed.
    Idle Phase = iota
    // AwaitingEvaluation holds two revealed tiles until the evaluation hook fires.
    AwaitingEvaluation
    // ShowingMismatch keeps a mismatched pair revealed until the hook fires again.
    ShowingMismatch
)

func (p Phase) String() string {
    switch p {
    case Idle:
        return "idle"
    case AwaitingEvaluation:
        return "awaiting_evaluation"
    case ShowingMismatch:
        return "showing_mismatch"
    default:
        return "unknown"
    }
}

// Listener receives engine events. Calls happen synchronously on the engine's
// control flow; listeners must not call back into the engine.
type Listener interface {
    TileStateChanged(t Tile)
    GameWon(totalTries int)
    MismatchDetected(a, b Tile)
    RequestTermination()
}

// NopListener ignores every event.
type NopListener struct{}

func (NopListener) TileStateChanged(Tile) {}
func (NopListener) GameWon(int) {}
func (NopListener) MismatchDetected(Tile, Tile) {}
func (NopListener) RequestTermination() {}

// ListenerFuncs adapts optional funcs to a Listener. Nil fields are skipped.
type ListenerFuncs struct {
    OnTileStateChanged   func(Tile)
    OnGameWon            func(int)
    OnMismatchDetected   func(Tile, Tile)
    OnRequestTermination func()
}

func (l ListenerFuncs) TileStateChanged(t Tile) {
    if l.OnTileStateChanged != nil {
        l.OnTileStateChanged(t)
    }
}

func (l ListenerFuncs) GameWon(n int) {
    if l.OnGameWon != nil {
        l.OnGameWon(n)
    }
}

func (l ListenerFuncs) MismatchDetected(a, b Tile) {
    if l.OnMismatchDetected != nil {
        l.OnMismatchDetected(a, b)
    }
}

func (l ListenerFuncs) RequestTermination() {
    if l.OnRequestTermination != nil {
        l.OnRequestTermination()
    }
}

// Scheduler defers fn by delay. Implementations must run fn on the same
// serialized control flow that drives the engine.
type Scheduler interface {
    Schedule(delay time.Duration, fn func())
}

// SchedulerFunc adapts a func to a Scheduler.
type SchedulerFunc func(delay time.Duration, fn func())

func (f SchedulerFunc) Schedule(delay time.Duration, fn func()) { f(delay, fn) }

// ImmediateScheduler runs fn at once, ignoring the delay. Useful headless.
type ImmediateScheduler struct{}

func (ImmediateScheduler) Schedule(_ time.Duration, fn func()) { fn() }

// EngineOptions configures an Engine. Zero values are usable: events are
// dropped, the random source is seeded from the runtime, and with a nil
// Scheduler the caller must invoke OnEvaluationTimerFired itself.
type EngineOptions struct {
    Listener        Listener
    Scheduler       Scheduler
    Rand            Rand
    EvaluationDelay time.Duration
    MismatchDelay   time.Duration
}

// Snapshot is a read-only copy of engine state for presentation.
type Snapshot struct {
    Rows         int
    Cols         int
    Tiles        []Tile
    Selection    []Position
    TotalTries   int
    InputEnabled bool
    Won          bool
    Phase        Phase
}

// Engine runs the match protocol over a Board.
type Engine struct {
    board      *Board
    opts       EngineOptions
    selection  []Position
    totalTries int
    input      bool
    won        bool
    phase      Phase
    // gen invalidates timers scheduled before the last PlayAgain
    gen uint64
}

// NewEngine wraps board, populating it first if needed.
func NewEngine(board *Board, opts EngineOptions) (*Engine, error) {
    if opts.Listener == nil {
        opts.Listener = NopListener{}
    }
    if opts.Rand == nil {
        opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
    }
    if !board.Populated() {
        if err := board.ResetAndShuffleTiles(opts.Rand); err != nil {
            return nil, err
        }
    }
    return &Engine{board: board, opts: opts, input: true}, nil
}

// Board returns the engine's board. Callers must only read it.
func (e *Engine) Board() *Board { return e.board }

// TotalTries is the number of completed two-tile selections.
func (e *Engine) TotalTries() int { return e.totalTries }

// InputEnabled reports whether SelectTile currently accepts selections.
func (e *Engine) InputEnabled() bool { return e.input }

// Won reports whether every tile is matched.
func (e *Engine) Won() bool { return e.won }

// Phase returns the current round phase.
func (e *Engine) Phase() Phase { return e.phase }

// Selection returns the revealed but unresolved positions.
func (e *Engine) Selection() []Position {
    out := make([]Position, len(e.selection))
    copy(out, e.selection)
    return out
}

// SelectTile reveals the tile at (row, col). It reports false, changing
// nothing, when input is disabled, the cell does not exist, or the tile is
// not hidden.
func (e *Engine) SelectTile(row, col int) bool {
    if !e.input {
        return false
    }
    t := e.board.tile(row, col)
    if t == nil || t.State != Hidden {
        return false
    }
    t.State = Revealed
    e.selection = append(e.selection, t.Pos())
    e.opts.Listener.TileStateChanged(*t)
    if len(e.selection) < 2 {
        return true
    }

    e.totalTries++
    e.input = false
    e.phase = AwaitingEvaluation
    e.schedule(e.opts.EvaluationDelay)
    return true
}

// OnEvaluationTimerFired advances a pending round. The first call after a
// pair is selected evaluates it; after a mismatch a second call hides the
// pair. It is a no-op when nothing is pending.
func (e *Engine) OnEvaluationTimerFired() {
    switch e.phase {
    case AwaitingEvaluation:
        a, b := e.board.tile(e.selection[0].Row, e.selection[0].Col), e.board.tile(e.selection[1].Row, e.selection[1].Col)
        if e.board.HasMatchingTilesAt(a.Pos(), b.Pos()) {
            e.setState(a, Matched)
            e.setState(b, Matched)
            e.finishRound()
            return
        }
        e.phase = ShowingMismatch
        e.opts.Listener.MismatchDetected(*a, *b)
        e.schedule(e.opts.MismatchDelay)
    case ShowingMismatch:
        e.hideUnmatched()
        e.finishRound()
    }
}

// PlayAgain reshuffles the board and starts over. Every tile of the new
// layout is reported through TileStateChanged.
func (e *Engine) PlayAgain() error {
    if err := e.board.ResetAndShuffleTiles(e.opts.Rand); err != nil {
        return err
    }
    e.gen++
    e.selection = nil
    e.totalTries = 0
    e.won = false
    e.phase = Idle
    e.input = true
    for _, t := range e.board.Tiles() {
        e.opts.Listener.TileStateChanged(t)
    }
    return nil
}

// Quit asks the presentation layer to terminate.
func (e *Engine) Quit() {
    e.opts.Listener.RequestTermination()
}

// Snapshot copies the current state.
func (e *Engine) Snapshot() Snapshot {
    return Snapshot{
        Rows:         e.board.Rows(),
        Cols:         e.board.Cols(),
        Tiles:        e.board.Tiles(),
        Selection:    e.Selection(),
        TotalTries:   e.totalTries,
        InputEnabled: e.input,
        Won:          e.won,
        Phase:        e.phase,
    }
}

func (e *Engine) schedule(delay time.Duration) {
    if e.opts.Scheduler == nil {
        return
    }
    gen := e.gen
    e.opts.Scheduler.Schedule(delay, func() {
        if gen != e.gen {
            return
        }
        e.OnEvaluationTimerFired()
    })
}

func (e *Engine) setState(t *Tile, s TileState) {
    if t.State == s {
        return
    }
    t.State = s
    e.opts.Listener.TileStateChanged(*t)
}

func (e *Engine) hideUnmatched() {
    for r := range e.board.tiles {
        for c := range e.board.tiles[r] {
            t := &e.board.tiles[r][c]
            if t.State != Matched {
                e.setState(t, Hidden)
            }
        }
    }
}

func (e *Engine) finishRound() {
    e.selection = nil
    e.phase = Idle
    if e.allMatched() {
        e.won = true
        e.opts.Listener.GameWon(e.totalTries)
        return
    }
    e.input = true
}

func (e *Engine) allMatched() bool {
    for _, row := range e.board.tiles {
        for _, t := range row {
            if t.State != Matched {
                return false
            }
        }
    }
    return true
}
