package domain

// Card is a kind of matchable item. Two cards are equal iff their names are.
type Card struct {
    Name string
}

// EmptyCard marks a cell that has not been populated yet.
var EmptyCard = Card{}

// NewCard returns a card with the given name.
func NewCard(name string) Card {
    return Card{Name: name}
}

// Equal reports whether c and o have the same name.
func (c Card) Equal(o Card) bool { return c.Name == o.Name }

// IsEmpty reports whether c is the sentinel card.
func (c Card) IsEmpty() bool { return c.Name == "" }

func (c Card) String() string { return c.Name }
