// Package deck defines the fixed 54-card identity space used by every card
// game on the server: ids 1-52 are the standard deck, 53 is the joker and 54
// the card back. Suit, rank and comparison value derive deterministically
// from the id, so only ids ever cross the wire or hit storage.
package deck

import "math/rand"

const (
	StandardCards = 52
	JokerID       = 53
	BackID        = 54
)

// Card is an immutable card identity plus its derived metadata.
type Card struct {
	ID    int    `json:"id"`
	Suit  string `json:"suit"`
	Rank  string `json:"rank"`
	Value int    `json:"value"`
}

var (
	suits  = [4]string{"hearts", "diamonds", "clubs", "spades"}
	ranks  = [13]string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "jack", "queen", "king", "ace"}
	values = [13]int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}
)

// ByID maps a card-type id to its Card. Ids outside 1-54 yield suit/rank
// "unknown" with value 0, matching how unknown assets are surfaced to
// clients.
func ByID(id int) Card {
	switch {
	case id == JokerID:
		return Card{ID: id, Suit: "special", Rank: "joker"}
	case id == BackID:
		return Card{ID: id, Suit: "special", Rank: "back"}
	case id < 1 || id > StandardCards:
		return Card{ID: id, Suit: "unknown", Rank: "unknown"}
	}
	suitIdx := (id - 1) / 13
	rankIdx := (id - 1) % 13
	return Card{ID: id, Suit: suits[suitIdx], Rank: ranks[rankIdx], Value: values[rankIdx]}
}

// Standard returns the 52 playing cards in id order.
func Standard() []Card {
	cards := make([]Card, 0, StandardCards)
	for id := 1; id <= StandardCards; id++ {
		cards = append(cards, ByID(id))
	}
	return cards
}

// Shuffle applies a Fisher-Yates shuffle in place: walk from the last index
// down, swapping each position with a uniformly chosen index at or below it.
func Shuffle(cards []Card, rnd *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// SplitHalves divides a dealt deck contiguously in two. The second half
// keeps the extra card when the count is odd.
func SplitHalves(cards []Card) ([]Card, []Card) {
	half := len(cards) / 2
	first := append([]Card(nil), cards[:half]...)
	second := append([]Card(nil), cards[half:]...)
	return first, second
}
