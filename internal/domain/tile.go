package domain

import "fmt"

// TileState is the reveal state of a tile.
type TileState uint8

const (
    Hidden TileState = iota
    Revealed
    Matched
)

func (s TileState) String() string {
    switch s {
    case Hidden:
        return "hidden"
    case Revealed:
        return "revealed"
    case Matched:
        return "matched"
    default:
        return "unknown"
    }
}

// Position addresses a grid cell, 0-indexed.
type Position struct {
    Row int
    Col int
}

// Tile is the content of a single grid cell. Only State changes after creation,
// and only the Engine changes it.
type Tile struct {
    Card  Card
    Row   int
    Col   int
    State TileState
}

// Pos returns the tile's grid coordinates.
func (t Tile) Pos() Position { return Position{Row: t.Row, Col: t.Col} }

func (t Tile) String() string {
    return fmt.Sprintf("%dx%d: %s", t.Row, t.Col, t.Card)
}
