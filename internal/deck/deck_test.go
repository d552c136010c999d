package deck

import (
	"math/rand"
	"testing"
)

func TestByIDStandardMapping(t *testing.T) {
	cases := []struct {
		id    int
		suit  string
		rank  string
		value int
	}{
		{1, "hearts", "2", 2},
		{13, "hearts", "ace", 14},
		{14, "diamonds", "2", 2},
		{26, "diamonds", "ace", 14},
		{27, "clubs", "2", 2},
		{40, "spades", "2", 2},
		{52, "spades", "ace", 14},
	}
	for _, tc := range cases {
		c := ByID(tc.id)
		if c.Suit != tc.suit || c.Rank != tc.rank || c.Value != tc.value {
			t.Fatalf("ByID(%d) = %+v, want %s %s %d", tc.id, c, tc.suit, tc.rank, tc.value)
		}
	}
}

func TestByIDSpecialCards(t *testing.T) {
	joker := ByID(JokerID)
	if joker.Suit != "special" || joker.Rank != "joker" || joker.Value != 0 {
		t.Fatalf("joker = %+v", joker)
	}
	back := ByID(BackID)
	if back.Suit != "special" || back.Rank != "back" || back.Value != 0 {
		t.Fatalf("back = %+v", back)
	}
	unknown := ByID(99)
	if unknown.Suit != "unknown" || unknown.Value != 0 {
		t.Fatalf("unknown = %+v", unknown)
	}
}

func TestStandardHas52UniqueCards(t *testing.T) {
	cards := Standard()
	if len(cards) != StandardCards {
		t.Fatalf("len = %d, want 52", len(cards))
	}
	seen := map[int]bool{}
	for _, c := range cards {
		if seen[c.ID] {
			t.Fatalf("duplicate card id %d", c.ID)
		}
		seen[c.ID] = true
		if c.Value < 2 || c.Value > 14 {
			t.Fatalf("card %d has value %d outside 2..14", c.ID, c.Value)
		}
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	cards := Standard()
	Shuffle(cards, rand.New(rand.NewSource(7)))

	seen := map[int]bool{}
	for _, c := range cards {
		seen[c.ID] = true
	}
	if len(seen) != StandardCards {
		t.Fatalf("shuffle lost cards: %d unique ids", len(seen))
	}
}

func TestShuffleDeterministicPerSeed(t *testing.T) {
	a := Standard()
	b := Standard()
	Shuffle(a, rand.New(rand.NewSource(42)))
	Shuffle(b, rand.New(rand.NewSource(42)))
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("same seed diverged at index %d: %d vs %d", i, a[i].ID, b[i].ID)
		}
	}
}

func TestSplitHalves(t *testing.T) {
	first, second := SplitHalves(Standard())
	if len(first) != 26 || len(second) != 26 {
		t.Fatalf("split = %d/%d, want 26/26", len(first), len(second))
	}
	if first[0].ID != 1 || second[0].ID != 27 {
		t.Fatalf("split is not contiguous: first[0]=%d second[0]=%d", first[0].ID, second[0].ID)
	}
}
