package app

import (
    "context"
    "errors"
    "fmt"
    "math/rand/v2"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/jaminalder/codex-memory/internal/domain"
    "k8s.io/klog/v2"
)

// Errors exposed by the service layer.
var (
    ErrNotFound   = errors.New("game not found")
    ErrNotAPlayer = errors.New("not a player")
    ErrGameOver   = errors.New("game over")
)

// Options configure the games a Service creates.
type Options struct {
    DeckName      string
    Cards         []string
    EvalDelay     time.Duration
    MismatchDelay time.Duration
    // Seed makes every game's shuffles reproducible when non-zero.
    Seed uint64
}

// GameState is a copy of one game handed to callers.
type GameState struct {
    ID      string
    Deck    string
    Owner   string
    Message string
    View    domain.Snapshot
    Created time.Time
    Updated time.Time
}

type game struct {
    id         string
    deck       string
    owner      string
    message    string
    terminated bool
    engine     *domain.Engine
    created    time.Time
    updated    time.Time
}

type subscriber struct {
    ch        chan []byte
    closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service owns the running games and their subscribers. Every engine call
// happens with mu held, including deferred evaluations.
type Service struct {
    mu     sync.Mutex
    opts   Options
    seq    uint64
    games  map[string]*game
    subs   map[string]map[*subscriber]struct{}
    render func(GameState) []byte
}

// NewService creates a service with a renderer that encodes nothing.
func NewService(opts Options) (*Service, error) {
    return NewServiceWithRenderer(opts, nil)
}

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
// It fails when the configured cards cannot form a board.
func NewServiceWithRenderer(opts Options, renderer func(GameState) []byte) (*Service, error) {
    if len(opts.Cards) == 0 {
        return nil, domain.ErrEmptyDeck
    }
    if _, _, err := domain.GridSize(len(opts.Cards)); err != nil {
        return nil, fmt.Errorf("deck %q: %w", opts.DeckName, err)
    }
    if renderer == nil {
        renderer = func(gs GameState) []byte { return nil }
    }
    return &Service{
        opts:   opts,
        games:  make(map[string]*game),
        subs:   make(map[string]map[*subscriber]struct{}),
        render: renderer,
    }, nil
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if renderer == nil {
        s.render = func(gs GameState) []byte { return nil }
        return
    }
    s.render = renderer
}

// CreateGame deals a fresh board and registers the game.
func (s *Service) CreateGame() (*GameState, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    id := uuid.NewString()
    now := time.Now()
    g := &game{id: id, deck: s.opts.DeckName, created: now, updated: now}

    board, err := domain.NewBoard(domain.NewDeckFromNames(s.opts.DeckName, s.opts.Cards))
    if err != nil {
        return nil, err
    }
    eng, err := domain.NewEngine(board, domain.EngineOptions{
        Listener:        &gameListener{g: g},
        Scheduler:       s.schedulerFor(id),
        Rand:            s.newRandLocked(),
        EvaluationDelay: s.opts.EvalDelay,
        MismatchDelay:   s.opts.MismatchDelay,
    })
    if err != nil {
        return nil, err
    }
    g.engine = eng
    s.games[id] = g
    klog.Infof("game %s created: %dx%d board from deck %q", id, board.Rows(), board.Cols(), g.deck)
    cp := g.state()
    return &cp, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    g, ok := s.games[id]
    if !ok {
        return nil, false
    }
    cp := g.state()
    return &cp, true
}

// Join makes playerID the owner when the seat is free. It reports whether
// the player owns the game; everyone else spectates.
func (s *Service) Join(id, playerID string) (bool, *GameState, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    g, ok := s.games[id]
    if !ok {
        return false, nil, ErrNotFound
    }
    if g.owner == "" {
        g.owner = playerID
        g.updated = time.Now()
    }
    cp := g.state()
    return g.owner == playerID, &cp, nil
}

// Select reveals the tile at (r, c) for the owner. Illegal selections leave
// the game unchanged without an error.
func (s *Service) Select(id, playerID string, r, c int) (*GameState, error) {
    return s.act(id, playerID, func(g *game) error {
        if g.engine.Won() {
            return ErrGameOver
        }
        accepted := g.engine.SelectTile(r, c)
        if accepted && len(g.engine.Selection()) == 1 {
            g.message = ""
        }
        klog.V(2).Infof("game %s: select %dx%d accepted=%v", id, r, c, accepted)
        return nil
    })
}

// PlayAgain reshuffles the board and resets the try counter.
func (s *Service) PlayAgain(id, playerID string) (*GameState, error) {
    return s.act(id, playerID, func(g *game) error {
        if err := g.engine.PlayAgain(); err != nil {
            return err
        }
        g.message = ""
        klog.V(2).Infof("game %s: play again", id)
        return nil
    })
}

// Quit ends the game. Subscribers are closed and the game is forgotten.
func (s *Service) Quit(id, playerID string) error {
    s.mu.Lock()
    g, ok := s.games[id]
    if !ok {
        s.mu.Unlock()
        return ErrNotFound
    }
    if g.owner != playerID {
        s.mu.Unlock()
        return ErrNotAPlayer
    }
    g.engine.Quit()
    var subs map[*subscriber]struct{}
    if g.terminated {
        delete(s.games, id)
        subs = s.subs[id]
        delete(s.subs, id)
    }
    s.mu.Unlock()

    for sub := range subs {
        sub.close()
    }
    return nil
}

// act runs fn on the owner's game with mu held and broadcasts the result.
func (s *Service) act(id, playerID string, fn func(g *game) error) (*GameState, error) {
    s.mu.Lock()
    g, ok := s.games[id]
    if !ok {
        s.mu.Unlock()
        return nil, ErrNotFound
    }
    if g.owner != playerID {
        s.mu.Unlock()
        return nil, ErrNotAPlayer
    }
    if err := fn(g); err != nil {
        s.mu.Unlock()
        return nil, err
    }
    g.updated = time.Now()
    cp, payload, subs := s.snapshotLocked(g)
    s.mu.Unlock()

    s.fanout(id, payload, subs)
    return &cp, nil
}

// schedulerFor defers engine callbacks on a timer. Zero delays run inline,
// which keeps the caller's lock.
func (s *Service) schedulerFor(id string) domain.Scheduler {
    return domain.SchedulerFunc(func(d time.Duration, fn func()) {
        if d <= 0 {
            fn()
            return
        }
        time.AfterFunc(d, func() { s.fire(id, fn) })
    })
}

func (s *Service) fire(id string, fn func()) {
    s.mu.Lock()
    g, ok := s.games[id]
    if !ok {
        s.mu.Unlock()
        return
    }
    fn()
    g.updated = time.Now()
    _, payload, subs := s.snapshotLocked(g)
    s.mu.Unlock()

    s.fanout(id, payload, subs)
}

func (s *Service) newRandLocked() domain.Rand {
    s.seq++
    if s.opts.Seed != 0 {
        return rand.New(rand.NewPCG(s.opts.Seed, s.seq))
    }
    return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (s *Service) snapshotLocked(g *game) (GameState, []byte, map[*subscriber]struct{}) {
    cp := g.state()
    return cp, s.render(cp), s.copySubsLocked(g.id)
}

// fanout delivers payload, dropping slow subscribers by closing them.
func (s *Service) fanout(id string, payload []byte, subs map[*subscriber]struct{}) {
    var toDrop []*subscriber
    for sub := range subs {
        select {
        case sub.ch <- payload:
        default:
            sub.close()
            toDrop = append(toDrop, sub)
        }
    }
    if len(toDrop) > 0 {
        s.mu.Lock()
        for _, sub := range toDrop {
            if set, ok := s.subs[id]; ok {
                delete(set, sub)
            }
        }
        s.mu.Unlock()
    }
}

// Subscribe registers a subscriber for a game. Returns a channel and an
// unsubscribe func. The channel is closed at once for unknown games.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func()) {
    s.mu.Lock()
    defer s.mu.Unlock()
    sub := &subscriber{ch: make(chan []byte, 1)}
    if _, ok := s.games[id]; !ok {
        sub.close()
        return sub.ch, func() {}
    }
    set := s.subs[id]
    if set == nil {
        set = make(map[*subscriber]struct{})
        s.subs[id] = set
    }
    set[sub] = struct{}{}

    unsubOnce := &sync.Once{}
    unsub := func() {
        unsubOnce.Do(func() {
            s.mu.Lock()
            if set, ok := s.subs[id]; ok {
                delete(set, sub)
            }
            s.mu.Unlock()
            sub.close()
        })
    }
    go func() {
        <-ctx.Done()
        unsub()
    }()
    return sub.ch, unsub
}

func (s *Service) copySubsLocked(id string) map[*subscriber]struct{} {
    out := make(map[*subscriber]struct{})
    if set, ok := s.subs[id]; ok {
        for k := range set {
            out[k] = struct{}{}
        }
    }
    return out
}

func (g *game) state() GameState {
    return GameState{
        ID:      g.id,
        Deck:    g.deck,
        Owner:   g.owner,
        Message: g.message,
        View:    g.engine.Snapshot(),
        Created: g.created,
        Updated: g.updated,
    }
}

// gameListener turns engine events into the game's status line. It runs
// with the service lock held.
type gameListener struct {
    g *game
}

func (l *gameListener) TileStateChanged(t domain.Tile) {
    if t.State == domain.Matched {
        l.g.message = fmt.Sprintf("Found the %s pair", t.Card)
    }
}

func (l *gameListener) MismatchDetected(a, b domain.Tile) {
    l.g.message = fmt.Sprintf("%s and %s do not match", a.Card, b.Card)
}

func (l *gameListener) GameWon(totalTries int) {
    l.g.message = fmt.Sprintf("You won in %d tries!", totalTries)
    klog.Infof("game %s won in %d tries", l.g.id, totalTries)
}

func (l *gameListener) RequestTermination() {
    l.g.terminated = true
    klog.Infof("game %s terminated", l.g.id)
}
