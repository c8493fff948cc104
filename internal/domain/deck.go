package domain

import "strings"

// Rand is the random source used for shuffling. *math/rand/v2.Rand satisfies it.
type Rand interface {
    IntN(n int) int
}

// Deck is a named, ordered list of distinct cards.
type Deck struct {
    Name  string
    Cards []Card
}

// NewDeck returns a deck holding a copy of cards.
func NewDeck(name string, cards []Card) *Deck {
    cp := make([]Card, len(cards))
    copy(cp, cards)
    return &Deck{Name: name, Cards: cp}
}

// NewDeckFromNames wraps each name into a Card.
func NewDeckFromNames(name string, names []string) *Deck {
    cards := make([]Card, 0, len(names))
    for _, n := range names {
        cards = append(cards, NewCard(n))
    }
    return &Deck{Name: name, Cards: cards}
}

// Len returns the number of cards in the deck.
func (d *Deck) Len() int { return len(d.Cards) }

// Names returns the card names in deck order.
func (d *Deck) Names() []string {
    out := make([]string, len(d.Cards))
    for i, c := range d.Cards {
        out[i] = c.Name
    }
    return out
}

// Shuffle reorders the cards in place.
func (d *Deck) Shuffle(rng Rand) {
    shuffleCards(d.Cards, rng)
}

func (d *Deck) String() string {
    return d.Name + ": " + strings.Join(d.Names(), ", ")
}

// shuffleCards is a Fisher-Yates shuffle drawing j from [i, n-1].
func shuffleCards(cards []Card, rng Rand) {
    n := len(cards)
    for i := 0; i < n-1; i++ {
        j := i + rng.IntN(n-i)
        if j == i {
            continue
        }
        cards[i], cards[j] = cards[j], cards[i]
    }
}
