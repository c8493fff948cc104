package domain

import (
    "errors"
    "fmt"
    "math"
    "strings"
)

// Configuration errors returned while building a board. They are not recoverable.
var (
    ErrEmptyDeck      = errors.New("deck has no cards")
    ErrNonUniformGrid = errors.New("deck size cannot produce a uniform grid")
    ErrOutOfCards     = errors.New("ran out of cards while populating grid")
)

// Board is the rows x cols grid built from a deck, with every card placed twice.
type Board struct {
    deck  *Deck
    rows  int
    cols  int
    tiles [][]Tile
}

// NewBoard derives the grid size from the deck and keeps its own copy of the
// cards. The grid stays empty until ResetAndShuffleTiles is called.
func NewBoard(deck *Deck) (*Board, error) {
    if deck == nil || deck.Len() == 0 {
        return nil, ErrEmptyDeck
    }
    rows, cols, err := GridSize(deck.Len())
    if err != nil {
        return nil, fmt.Errorf("deck %q: %w", deck.Name, err)
    }
    return &Board{deck: NewDeck(deck.Name, deck.Cards), rows: rows, cols: cols}, nil
}

// GridSize returns rows=floor(sqrt(2n)) and cols=ceil(2n/rows), failing when
// rows*cols != 2n.
func GridSize(n int) (rows, cols int, err error) {
    if n <= 0 {
        return 0, 0, ErrEmptyDeck
    }
    total := 2 * n
    rows = int(math.Sqrt(float64(total)))
    // guard against float rounding on large totals
    for rows*rows > total {
        rows--
    }
    for (rows+1)*(rows+1) <= total {
        rows++
    }
    cols = (total + rows - 1) / rows
    if rows*cols != total {
        return rows, cols, fmt.Errorf("%w: %d cards give %dx%d for %d tiles", ErrNonUniformGrid, n, rows, cols, total)
    }
    return rows, cols, nil
}

// Rows returns the number of grid rows.
func (b *Board) Rows() int { return b.rows }

// Cols returns the number of grid columns.
func (b *Board) Cols() int { return b.cols }

// Deck returns the board's copy of the deck it was built from.
func (b *Board) Deck() *Deck { return b.deck }

// Populated reports whether tiles have been placed.
func (b *Board) Populated() bool { return len(b.tiles) == b.rows }

// ResetAndShuffleTiles rebuilds the grid with a fresh random arrangement of
// the deck's cards, each appearing twice, filled in row-major order.
func (b *Board) ResetAndShuffleTiles(rng Rand) error {
    pairs := make([]Card, 0, 2*b.deck.Len())
    for _, c := range b.deck.Cards {
        pairs = append(pairs, c, c)
    }
    if len(pairs) != b.rows*b.cols {
        return fmt.Errorf("%w: %d tiles for a %dx%d grid", ErrNonUniformGrid, len(pairs), b.rows, b.cols)
    }
    shuffleCards(pairs, rng)

    tiles := make([][]Tile, b.rows)
    next := 0
    for r := 0; r < b.rows; r++ {
        tiles[r] = make([]Tile, b.cols)
        for c := 0; c < b.cols; c++ {
            if next >= len(pairs) {
                return fmt.Errorf("%w at %dx%d", ErrOutOfCards, r, c)
            }
            tiles[r][c] = Tile{Card: pairs[next], Row: r, Col: c, State: Hidden}
            next++
        }
    }
    b.tiles = tiles
    return nil
}

// Get returns the tile at (row, col). ok is false when the cell is out of
// range or the board is not populated.
func (b *Board) Get(row, col int) (Tile, bool) {
    t := b.tile(row, col)
    if t == nil {
        return Tile{}, false
    }
    return *t, true
}

// HasMatchingTilesAt reports whether both positions hold tiles with equal cards.
func (b *Board) HasMatchingTilesAt(p1, p2 Position) bool {
    t1, ok := b.Get(p1.Row, p1.Col)
    if !ok {
        return false
    }
    t2, ok := b.Get(p2.Row, p2.Col)
    if !ok {
        return false
    }
    return t1.Card.Equal(t2.Card)
}

// Tiles returns a row-major copy of every tile.
func (b *Board) Tiles() []Tile {
    out := make([]Tile, 0, b.rows*b.cols)
    for _, row := range b.tiles {
        out = append(out, row...)
    }
    return out
}

func (b *Board) tile(row, col int) *Tile {
    if row < 0 || row >= len(b.tiles) || col < 0 || col >= len(b.tiles[row]) {
        return nil
    }
    return &b.tiles[row][col]
}

func (b *Board) String() string {
    lines := make([]string, 0, len(b.tiles))
    for _, row := range b.tiles {
        cells := make([]string, len(row))
        for i, t := range row {
            cells[i] = t.String()
        }
        lines = append(lines, strings.Join(cells, ", "))
    }
    return strings.Join(lines, "\n")
}
