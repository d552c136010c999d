package game

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/ASAPmarius/WebBackend/internal/deck"
)

// memoryGateway persists states through a JSON round trip, the same way the
// real store does, so engine mutations on a loaded copy never leak into the
// persisted blob until SaveGameState succeeds.
type memoryGateway struct {
	mu       sync.Mutex
	states   map[int64][]byte
	players  map[int64][]PlayerInfo
	finished map[int64]int
	failSave bool
}

func newMemoryGateway() *memoryGateway {
	return &memoryGateway{
		states:   map[int64][]byte{},
		players:  map[int64][]PlayerInfo{},
		finished: map[int64]int{},
	}
}

func (g *memoryGateway) LoadGameState(ctx context.Context, gameID int64) (*State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	raw, ok := g.states[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (g *memoryGateway) SaveGameState(ctx context.Context, gameID int64, st *State) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSave {
		return errors.New("save failed")
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	g.states[gameID] = raw
	return nil
}

func (g *memoryGateway) ListPlayersInGame(ctx context.Context, gameID int64) ([]PlayerInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.players[gameID], nil
}

func (g *memoryGateway) MarkGameFinished(ctx context.Context, gameID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.finished[gameID]++
	return nil
}

func (g *memoryGateway) FindActiveGameForUser(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []any
}

func (n *recordingNotifier) NotifyGame(gameID int64, message any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) all() []any {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]any{}, n.messages...)
}

func (n *recordingNotifier) ofType(want string) []any {
	var out []any
	for _, m := range n.all() {
		if typeOf(m) == want {
			out = append(out, m)
		}
	}
	return out
}

func typeOf(m any) string {
	switch v := m.(type) {
	case GameStateMessage:
		return v.Type
	case TurnChangeMessage:
		return v.Type
	case PlayerActionMessage:
		return v.Type
	case RoundResultMessage:
		return v.Type
	case WarStartMessage:
		return v.Type
	case WarProgressMessage:
		return v.Type
	case GameEndMessage:
		return v.Type
	case GameRestartMessage:
		return v.Type
	case RedirectToLobbyMessage:
		return v.Type
	default:
		return ""
	}
}

func newTestEngine(gw *memoryGateway, seed int64) (*Engine, *recordingNotifier) {
	n := &recordingNotifier{}
	e := NewEngine(gw, n, Options{
		Sleep: func(time.Duration) {},
		Rand:  rand.New(rand.NewSource(seed)),
	})
	return e, n
}

func card(id int, value int) deck.Card {
	return deck.Card{ID: id, Suit: "hearts", Rank: "x", Value: value}
}

// seedState persists a crafted playing-phase state for two active players.
func seedState(t *testing.T, gw *memoryGateway, gameID int64, st *State) {
	t.Helper()
	if st.PlayedCards == nil {
		st.PlayedCards = map[int64]deck.Card{}
	}
	if st.WarState == nil {
		st.WarState = &WarState{WarPile: []deck.Card{}}
	}
	st.GameType = GameTypeWar
	st.Phase = PhasePlaying
	if err := gw.SaveGameState(context.Background(), gameID, st); err != nil {
		t.Fatalf("seed state: %v", err)
	}
}

func twoPlayers(gw *memoryGateway, gameID int64) {
	gw.players[gameID] = []PlayerInfo{
		{ID: 1, Username: "alice"},
		{ID: 2, Username: "bob"},
	}
}

func TestStartGameDealsHalves(t *testing.T) {
	gw := newMemoryGateway()
	twoPlayers(gw, 7)
	e, n := newTestEngine(gw, 1)

	if err := e.StartGame(context.Background(), 7); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	st, err := gw.LoadGameState(context.Background(), 7)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if st.Phase != PhasePlaying {
		t.Errorf("phase = %q, want %q", st.Phase, PhasePlaying)
	}
	if got := len(st.PlayerHands[1]); got != 26 {
		t.Errorf("player 1 hand = %d cards, want 26", got)
	}
	if got := len(st.PlayerHands[2]); got != 26 {
		t.Errorf("player 2 hand = %d cards, want 26", got)
	}
	if st.CurrentTurn != 1 {
		t.Errorf("current turn = %d, want 1", st.CurrentTurn)
	}
	if got := st.CardsInPlay(); got != deck.StandardCards {
		t.Errorf("cards in play = %d, want %d", got, deck.StandardCards)
	}

	seen := map[int]bool{}
	for _, hand := range st.PlayerHands {
		for _, c := range hand {
			if seen[c.ID] {
				t.Fatalf("card %d dealt twice", c.ID)
			}
			seen[c.ID] = true
		}
	}

	if got := len(n.ofType("game_state")); got != 1 {
		t.Errorf("game_state broadcasts = %d, want 1", got)
	}
	if got := len(n.ofType("turn_change")); got != 1 {
		t.Errorf("turn_change broadcasts = %d, want 1", got)
	}
}

func TestStartGameRequiresTwoPlayers(t *testing.T) {
	gw := newMemoryGateway()
	gw.players[7] = []PlayerInfo{{ID: 1, Username: "alice"}}
	e, _ := newTestEngine(gw, 1)

	if err := e.StartGame(context.Background(), 7); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("StartGame error = %v, want ErrNotEnoughPlayers", err)
	}
}

func TestStartGameObserversGetEmptyHands(t *testing.T) {
	gw := newMemoryGateway()
	gw.players[7] = []PlayerInfo{
		{ID: 1, Username: "alice"},
		{ID: 2, Username: "bob"},
		{ID: 3, Username: "carol"},
	}
	e, _ := newTestEngine(gw, 1)

	if err := e.StartGame(context.Background(), 7); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	st, _ := gw.LoadGameState(context.Background(), 7)
	if got := len(st.PlayerHands[3]); got != 0 {
		t.Errorf("observer hand = %d cards, want 0", got)
	}
	if len(st.ActivePlayers) != 2 || st.ActivePlayers[0] != 1 || st.ActivePlayers[1] != 2 {
		t.Errorf("active players = %v, want [1 2]", st.ActivePlayers)
	}
}

func TestPlayCardRejections(t *testing.T) {
	gw := newMemoryGateway()
	twoPlayers(gw, 7)
	e, _ := newTestEngine(gw, 1)
	ctx := context.Background()

	seedState(t, gw, 7, &State{
		CurrentTurn:   1,
		Round:         1,
		ActivePlayers: []int64{1, 2},
		PlayerHands: map[int64][]deck.Card{
			1: {card(10, 9), card(11, 3)},
			2: {card(20, 5), card(21, 4)},
		},
	})

	if err := e.PlayCard(ctx, 7, 2, 20); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("out-of-turn play error = %v, want ErrNotYourTurn", err)
	}
	if err := e.PlayCard(ctx, 7, 1, 99); !errors.Is(err, ErrCardNotInHand) {
		t.Errorf("missing card error = %v, want ErrCardNotInHand", err)
	}

	// A pending play blocks a second one even if the turn somehow returns.
	seedState(t, gw, 7, &State{
		CurrentTurn:   1,
		Round:         1,
		ActivePlayers: []int64{1, 2},
		PlayerHands: map[int64][]deck.Card{
			1: {card(11, 3)},
			2: {card(20, 5), card(21, 4)},
		},
		PlayedCards: map[int64]deck.Card{1: card(10, 9)},
	})
	if err := e.PlayCard(ctx, 7, 1, 11); !errors.Is(err, ErrAlreadyPlayed) {
		t.Errorf("double play error = %v, want ErrAlreadyPlayed", err)
	}

	st, _ := gw.LoadGameState(ctx, 7)
	if got := len(st.PlayerHands[1]); got != 1 {
		t.Errorf("rejected plays mutated hand: %d cards, want 1", got)
	}
}

func TestPlayCardWrongPhase(t *testing.T) {
	gw := newMemoryGateway()
	twoPlayers(gw, 7)
	e, _ := newTestEngine(gw, 1)
	ctx := context.Background()

	st := &State{
		CurrentTurn:   1,
		ActivePlayers: []int64{1, 2},
		PlayerHands:   map[int64][]deck.Card{1: {card(10, 9)}, 2: {card(20, 5)}},
		PlayedCards:   map[int64]deck.Card{},
		WarState:      &WarState{WarPile: []deck.Card{}},
		GameType:      GameTypeWar,
		Phase:         PhaseFinished,
	}
	if err := gw.SaveGameState(ctx, 7, st); err != nil {
		t.Fatalf("seed state: %v", err)
	}
	if err := e.PlayCard(ctx, 7, 1, 10); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("finished-phase play error = %v, want ErrWrongPhase", err)
	}
}

func TestPlayCardAdvancesTurn(t *testing.T) {
	gw := newMemoryGateway()
	twoPlayers(gw, 7)
	e, n := newTestEngine(gw, 1)
	ctx := context.Background()

	seedState(t, gw, 7, &State{
		CurrentTurn:   1,
		Round:         1,
		ActivePlayers: []int64{1, 2},
		PlayerHands: map[int64][]deck.Card{
			1: {card(10, 9), card(11, 3)},
			2: {card(20, 5), card(21, 4)},
		},
	})

	if err := e.PlayCard(ctx, 7, 1, 10); err != nil {
		t.Fatalf("PlayCard: %v", err)
	}

	st, _ := gw.LoadGameState(ctx, 7)
	if st.CurrentTurn != 2 {
		t.Errorf("current turn = %d, want 2", st.CurrentTurn)
	}
	if got, ok := st.PlayedCards[1]; !ok || got.ID != 10 {
		t.Errorf("played card = %+v, want id 10 pending", got)
	}
	if got := len(st.PlayerHands[1]); got != 1 {
		t.Errorf("hand after play = %d cards, want 1", got)
	}

	actions := n.ofType("player_action")
	if len(actions) != 1 {
		t.Fatalf("player_action broadcasts = %d, want 1", len(actions))
	}
	pa := actions[0].(PlayerActionMessage)
	if pa.Action.Type != "play_card" || pa.Action.CardID != 10 {
		t.Errorf("action = %+v, want play_card id 10", pa.Action)
	}
	tc := n.ofType("turn_change")
	if len(tc) != 1 || tc[0].(TurnChangeMessage).PlayerID != 2 {
		t.Errorf("turn_change = %+v, want player 2", tc)
	}
}

func TestRoundResolutionHigherCardWins(t *testing.T) {
	gw := newMemoryGateway()
	twoPlayers(gw, 7)
	e, n := newTestEngine(gw, 1)
	ctx := context.Background()

	seedState(t, gw, 7, &State{
		CurrentTurn:   1,
		Round:         1,
		ActivePlayers: []int64{1, 2},
		PlayerHands: map[int64][]deck.Card{
			1: {card(10, 9), card(11, 3)},
			2: {card(20, 5), card(21, 4)},
		},
	})

	if err := e.PlayCard(ctx, 7, 1, 10); err != nil {
		t.Fatalf("first play: %v", err)
	}
	if err := e.PlayCard(ctx, 7, 2, 20); err != nil {
		t.Fatalf("second play: %v", err)
	}

	st, _ := gw.LoadGameState(ctx, 7)
	if got := len(st.PlayerHands[1]); got != 3 {
		t.Errorf("winner hand = %d cards, want 3", got)
	}
	if got := len(st.PlayerHands[2]); got != 1 {
		t.Errorf("loser hand = %d cards, want 1", got)
	}
	if st.Round != 2 {
		t.Errorf("round = %d, want 2", st.Round)
	}
	if st.LastWinner != 1 {
		t.Errorf("last winner = %d, want 1", st.LastWinner)
	}
	if st.CurrentTurn != 1 {
		t.Errorf("current turn = %d, want winner 1", st.CurrentTurn)
	}
	if len(st.PlayedCards) != 0 {
		t.Errorf("played cards not cleared: %v", st.PlayedCards)
	}
	if got := st.CardsInPlay(); got != 4 {
		t.Errorf("cards in play = %d, want 4", got)
	}

	results := n.ofType("round_result")
	if len(results) != 1 {
		t.Fatalf("round_result broadcasts = %d, want 1", len(results))
	}
	rr := results[0].(RoundResultMessage)
	if rr.WinnerID != 1 || rr.CardCount != 2 || rr.NewRound != 2 || rr.Reason != "normal win" {
		t.Errorf("round_result = %+v", rr)
	}
}

func TestAdvanceTurnCyclesAllPlayers(t *testing.T) {
	gw := newMemoryGateway()
	gw.players[7] = []PlayerInfo{
		{ID: 1, Username: "alice"},
		{ID: 2, Username: "bob"},
		{ID: 3, Username: "carol"},
	}
	e, _ := newTestEngine(gw, 1)
	ctx := context.Background()

	seedState(t, gw, 7, &State{
		CurrentTurn:   3,
		ActivePlayers: []int64{1, 2},
		PlayerHands:   map[int64][]deck.Card{1: {}, 2: {}, 3: {}},
	})

	if err := e.AdvanceTurn(ctx, 7); err != nil {
		t.Fatalf("AdvanceTurn: %v", err)
	}
	st, _ := gw.LoadGameState(ctx, 7)
	if st.CurrentTurn != 1 {
		t.Errorf("current turn = %d, want wraparound to 1", st.CurrentTurn)
	}
}

func TestAdvanceTurnSinglePlayerNoop(t *testing.T) {
	gw := newMemoryGateway()
	gw.players[7] = []PlayerInfo{{ID: 1, Username: "alice"}}
	e, n := newTestEngine(gw, 1)
	ctx := context.Background()

	seedState(t, gw, 7, &State{
		CurrentTurn: 1,
		PlayerHands: map[int64][]deck.Card{1: {}},
	})
	if err := e.AdvanceTurn(ctx, 7); err != nil {
		t.Fatalf("AdvanceTurn: %v", err)
	}
	if got := len(n.ofType("turn_change")); got != 0 {
		t.Errorf("turn_change broadcasts = %d, want 0", got)
	}
}

func TestFailedSaveLeavesStateUntouched(t *testing.T) {
	gw := newMemoryGateway()
	twoPlayers(gw, 7)
	e, _ := newTestEngine(gw, 1)
	ctx := context.Background()

	seedState(t, gw, 7, &State{
		CurrentTurn:   1,
		Round:         1,
		ActivePlayers: []int64{1, 2},
		PlayerHands: map[int64][]deck.Card{
			1: {card(10, 9)},
			2: {card(20, 5)},
		},
	})

	gw.failSave = true
	if err := e.PlayCard(ctx, 7, 1, 10); err == nil {
		t.Fatal("PlayCard succeeded despite save failure")
	}
	gw.failSave = false

	st, _ := gw.LoadGameState(ctx, 7)
	if got := len(st.PlayerHands[1]); got != 1 {
		t.Errorf("hand after failed save = %d cards, want 1", got)
	}
	if len(st.PlayedCards) != 0 {
		t.Errorf("played cards after failed save: %v", st.PlayedCards)
	}
}

func TestRestartGameRedeals(t *testing.T) {
	gw := newMemoryGateway()
	twoPlayers(gw, 7)
	e, n := newTestEngine(gw, 1)
	ctx := context.Background()

	seedState(t, gw, 7, &State{
		CurrentTurn:   2,
		Round:         40,
		LastWinner:    2,
		ActivePlayers: []int64{1, 2},
		PlayerHands: map[int64][]deck.Card{
			1: {},
			2: deck.Standard(),
		},
	})

	if err := e.RestartGame(ctx, 7); err != nil {
		t.Fatalf("RestartGame: %v", err)
	}

	st, _ := gw.LoadGameState(ctx, 7)
	if st.Round != 1 {
		t.Errorf("round = %d, want 1", st.Round)
	}
	if len(st.PlayerHands[1]) != 26 || len(st.PlayerHands[2]) != 26 {
		t.Errorf("hands = %d/%d cards, want 26/26",
			len(st.PlayerHands[1]), len(st.PlayerHands[2]))
	}
	if st.Phase != PhasePlaying {
		t.Errorf("phase = %q, want %q", st.Phase, PhasePlaying)
	}
	if got := len(n.ofType("game_restart")); got != 1 {
		t.Errorf("game_restart broadcasts = %d, want 1", got)
	}
}

func TestSnapshotMissingGame(t *testing.T) {
	gw := newMemoryGateway()
	e, _ := newTestEngine(gw, 1)
	if _, err := e.Snapshot(context.Background(), 404); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("Snapshot error = %v, want ErrGameNotFound", err)
	}
}

func TestPatchState(t *testing.T) {
	gw := newMemoryGateway()
	twoPlayers(gw, 7)
	e, n := newTestEngine(gw, 1)
	ctx := context.Background()

	seedState(t, gw, 7, &State{
		CurrentTurn:   1,
		Round:         1,
		ActivePlayers: []int64{1, 2},
		PlayerHands:   map[int64][]deck.Card{1: {}, 2: {}},
	})

	round := 5
	phase := PhaseFinished
	if err := e.PatchState(ctx, 7, &round, &phase); err != nil {
		t.Fatalf("PatchState: %v", err)
	}
	st, _ := gw.LoadGameState(ctx, 7)
	if st.Round != 5 || st.Phase != PhaseFinished {
		t.Errorf("patched state round=%d phase=%q", st.Round, st.Phase)
	}
	if got := len(n.ofType("game_state")); got != 1 {
		t.Errorf("game_state broadcasts = %d, want 1", got)
	}
}
