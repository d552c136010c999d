package game

import (
	"time"

	"github.com/ASAPmarius/WebBackend/internal/deck"
)

// GameTypeWar is the only ruleset with a concrete resolver today; the
// dispatch in resolveRound is where future game types plug in.
const GameTypeWar = "war"

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseSetup    Phase = "setup"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// WarState is the war ruleset's extension of the common state: the pile of
// escalation cards and the tie-break bookkeeping.
type WarState struct {
	WarPile  []deck.Card `json:"warPile"`
	InWar    bool        `json:"inWar"`
	WarRound int         `json:"warRound"`
}

// State is the authoritative per-game state. It is owned exclusively by the
// Engine: every mutation goes load -> modify -> save under the game's lock,
// and the persisted copy is the source of truth across restarts.
//
// Player-keyed maps marshal their int64 keys as strings, so stored blobs
// stay readable by existing clients.
type State struct {
	GameType       string                `json:"gameType"`
	Phase          Phase                 `json:"phase"`
	CurrentTurn    int64                 `json:"currentTurn"`
	Round          int                   `json:"round"`
	StartTime      time.Time             `json:"startTime"`
	LastActionTime time.Time             `json:"lastActionTime"`
	PlayerHands    map[int64][]deck.Card `json:"playerHands"`
	PlayedCards    map[int64]deck.Card   `json:"playedCards"`
	LastWinner     int64                 `json:"lastWinner"`

	// ActivePlayers records the two players dealt cards, in join order.
	// Later joiners observe and chat but hold no cards, so the end
	// condition must never consult their hands.
	ActivePlayers []int64 `json:"activePlayers,omitempty"`

	WarState *WarState `json:"warState,omitempty"`
}

// CardsInPlay sums every card tracked by the state: all hands, pending
// played cards and the war pile. It stays at 52 for the whole life of a
// dealt war game, which is the conservation property the tests pin down.
func (s *State) CardsInPlay() int {
	n := 0
	for _, hand := range s.PlayerHands {
		n += len(hand)
	}
	n += len(s.PlayedCards)
	if s.WarState != nil {
		n += len(s.WarState.WarPile)
	}
	return n
}

func (s *State) hand(playerID int64) []deck.Card {
	if s.PlayerHands == nil {
		return nil
	}
	return s.PlayerHands[playerID]
}

// popCard removes and returns the front card of a player's hand, the next
// card drawn or played.
func (s *State) popCard(playerID int64) (deck.Card, bool) {
	hand := s.hand(playerID)
	if len(hand) == 0 {
		return deck.Card{}, false
	}
	s.PlayerHands[playerID] = hand[1:]
	return hand[0], true
}
