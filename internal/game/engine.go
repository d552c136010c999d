package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ASAPmarius/WebBackend/internal/deck"
)

// Options tune the engine's presentation pacing and randomness. Tests zero
// the delays and inject a seeded source; production uses the defaults.
type Options struct {
	// RevealDelay paces the pause between both cards being on the table
	// and the comparison result.
	RevealDelay time.Duration
	// StepDelay paces the face-down / face-up war steps.
	StepDelay time.Duration
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
	// Rand defaults to a time-seeded source.
	Rand *rand.Rand
}

// Engine owns every GameState on the server. All mutating operations on one
// game are serialized behind that game's lock; separate games proceed in
// parallel. State is never cached between operations: each one loads the
// blob, mutates a local copy and writes it back, so a failed save leaves the
// persisted state untouched.
type Engine struct {
	store    Gateway
	notifier Notifier

	revealDelay time.Duration
	stepDelay   time.Duration
	sleep       func(time.Duration)

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewEngine(store Gateway, notifier Notifier, opts Options) *Engine {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		store:       store,
		notifier:    notifier,
		revealDelay: opts.RevealDelay,
		stepDelay:   opts.StepDelay,
		sleep:       sleep,
		rnd:         rnd,
		locks:       map[int64]*sync.Mutex{},
	}
}

func (e *Engine) lockGame(gameID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[gameID] = l
	}
	return l
}

func (e *Engine) shuffle(cards []deck.Card) {
	e.rndMu.Lock()
	defer e.rndMu.Unlock()
	deck.Shuffle(cards, e.rnd)
}

// InitialState builds a fresh state for a game without persisting it. The
// phase honors the player count at creation time and the war extension is
// attached only for the war ruleset.
func (e *Engine) InitialState(ctx context.Context, gameID int64, gameType string) (*State, error) {
	players, err := e.store.ListPlayersInGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("list players for game %d: %w", gameID, err)
	}
	now := time.Now()
	st := &State{
		GameType:       gameType,
		Phase:          PhaseWaiting,
		Round:          1,
		StartTime:      now,
		LastActionTime: now,
		PlayerHands:    map[int64][]deck.Card{},
		PlayedCards:    map[int64]deck.Card{},
	}
	if len(players) >= 2 {
		st.Phase = PhasePlaying
	}
	if len(players) > 0 {
		st.CurrentTurn = players[0].ID
	}
	if gameType == GameTypeWar {
		st.WarState = &WarState{WarPile: []deck.Card{}}
	}
	return st, nil
}

// Snapshot returns the current persisted state for read-only use.
func (e *Engine) Snapshot(ctx context.Context, gameID int64) (*State, error) {
	l := e.lockGame(gameID)
	l.Lock()
	defer l.Unlock()
	return e.store.LoadGameState(ctx, gameID)
}

// StartGame deals a fresh shuffled deck between the first two joined players
// and moves the game into the playing phase. Requires at least two players.
func (e *Engine) StartGame(ctx context.Context, gameID int64) error {
	l := e.lockGame(gameID)
	l.Lock()
	defer l.Unlock()
	return e.startLocked(ctx, gameID)
}

// RestartGame throws away the previous state and re-runs the full setup:
// fresh state, fresh shuffled deck, redeal.
func (e *Engine) RestartGame(ctx context.Context, gameID int64) error {
	l := e.lockGame(gameID)
	l.Lock()
	defer l.Unlock()

	st, err := e.InitialState(ctx, gameID, GameTypeWar)
	if err != nil {
		return err
	}
	st.Phase = PhaseSetup
	st.CurrentTurn = 0
	if err := e.store.SaveGameState(ctx, gameID, st); err != nil {
		return fmt.Errorf("save game %d state: %w", gameID, err)
	}
	if err := e.startLocked(ctx, gameID); err != nil {
		return err
	}
	e.notifier.NotifyGame(gameID, GameRestartMessage{Type: "game_restart", GameID: gameID})
	return nil
}

func (e *Engine) startLocked(ctx context.Context, gameID int64) error {
	players, err := e.store.ListPlayersInGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("list players for game %d: %w", gameID, err)
	}
	if len(players) < 2 {
		return ErrNotEnoughPlayers
	}

	st, err := e.store.LoadGameState(ctx, gameID)
	if err == ErrGameNotFound {
		st, err = e.InitialState(ctx, gameID, GameTypeWar)
	}
	if err != nil {
		return err
	}

	e.deal(st, players)
	st.Phase = PhasePlaying
	st.CurrentTurn = players[0].ID
	st.LastActionTime = time.Now()

	if err := e.store.SaveGameState(ctx, gameID, st); err != nil {
		return fmt.Errorf("save game %d state: %w", gameID, err)
	}

	e.notifier.NotifyGame(gameID, GameStateMessage{Type: "game_state", GameState: st})
	e.notifier.NotifyGame(gameID, TurnChangeMessage{
		Type:     "turn_change",
		PlayerID: players[0].ID,
		Username: players[0].Username,
	})
	log.Info().Int64("game_id", gameID).Int("players", len(players)).Msg("game started")
	return nil
}

// deal splits a shuffled standard deck between the first two joined players.
// Additional players receive empty hands: the war ruleset supports exactly
// two active players, everyone else observes.
func (e *Engine) deal(st *State, players []PlayerInfo) {
	cards := deck.Standard()
	e.shuffle(cards)
	first, second := deck.SplitHalves(cards)

	st.PlayerHands = map[int64][]deck.Card{}
	st.PlayedCards = map[int64]deck.Card{}
	st.ActivePlayers = nil
	for i, p := range players {
		switch i {
		case 0:
			st.PlayerHands[p.ID] = first
		case 1:
			st.PlayerHands[p.ID] = second
		default:
			st.PlayerHands[p.ID] = []deck.Card{}
		}
		if i < 2 {
			st.ActivePlayers = append(st.ActivePlayers, p.ID)
		}
	}
	if st.GameType == GameTypeWar {
		st.WarState = &WarState{WarPile: []deck.Card{}}
	}
	st.Round = 1
	st.LastWinner = 0
}

// PlayCard validates and applies a player's card for the current round. When
// the second pending card lands, the round resolves before the call returns;
// otherwise the turn advances to the next player.
//
// Precondition failures return an error without mutating or persisting
// anything; the caller reports them to the originating session only.
func (e *Engine) PlayCard(ctx context.Context, gameID, playerID int64, cardID int) error {
	l := e.lockGame(gameID)
	l.Lock()
	defer l.Unlock()

	st, err := e.store.LoadGameState(ctx, gameID)
	if err != nil {
		return err
	}
	if st.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	if st.CurrentTurn != playerID {
		return ErrNotYourTurn
	}
	if _, pending := st.PlayedCards[playerID]; pending {
		return ErrAlreadyPlayed
	}

	hand := st.hand(playerID)
	idx := -1
	for i, c := range hand {
		if c.ID == cardID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrCardNotInHand
	}

	played := hand[idx]
	st.PlayerHands[playerID] = append(append([]deck.Card{}, hand[:idx]...), hand[idx+1:]...)
	st.PlayedCards[playerID] = played
	st.LastActionTime = time.Now()

	if err := e.store.SaveGameState(ctx, gameID, st); err != nil {
		return fmt.Errorf("save game %d state: %w", gameID, err)
	}

	players, err := e.store.ListPlayersInGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("list players for game %d: %w", gameID, err)
	}
	e.notifier.NotifyGame(gameID, PlayerActionMessage{
		Type:     "player_action",
		PlayerID: playerID,
		Username: playerName(players, playerID),
		Action:   ActionPayload{Type: "play_card", CardID: cardID},
	})

	if len(st.PlayedCards) == 2 {
		return e.resolveRound(ctx, gameID, st, players)
	}
	return e.advanceTurnLocked(ctx, gameID, st, players)
}

// AdvanceTurn moves the turn to the cyclic successor of the current player
// over all joined players. No-op (with a logged condition) below two players.
func (e *Engine) AdvanceTurn(ctx context.Context, gameID int64) error {
	l := e.lockGame(gameID)
	l.Lock()
	defer l.Unlock()

	st, err := e.store.LoadGameState(ctx, gameID)
	if err != nil {
		return err
	}
	players, err := e.store.ListPlayersInGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("list players for game %d: %w", gameID, err)
	}
	return e.advanceTurnLocked(ctx, gameID, st, players)
}

func (e *Engine) advanceTurnLocked(ctx context.Context, gameID int64, st *State, players []PlayerInfo) error {
	if len(players) < 2 {
		log.Warn().Int64("game_id", gameID).Int("players", len(players)).Msg("not enough players to advance turn")
		return nil
	}

	cur := -1
	for i, p := range players {
		if p.ID == st.CurrentTurn {
			cur = i
			break
		}
	}
	if cur == -1 {
		log.Warn().Int64("game_id", gameID).Int64("current_turn", st.CurrentTurn).Msg("current turn player not in game")
		return nil
	}

	next := players[(cur+1)%len(players)]
	st.CurrentTurn = next.ID
	st.LastActionTime = time.Now()
	if err := e.store.SaveGameState(ctx, gameID, st); err != nil {
		return fmt.Errorf("save game %d state: %w", gameID, err)
	}
	e.notifier.NotifyGame(gameID, TurnChangeMessage{
		Type:     "turn_change",
		PlayerID: next.ID,
		Username: next.Username,
	})
	return nil
}

// SetTurn hands the turn to a specific player on request.
func (e *Engine) SetTurn(ctx context.Context, gameID, playerID int64) error {
	l := e.lockGame(gameID)
	l.Lock()
	defer l.Unlock()

	st, err := e.store.LoadGameState(ctx, gameID)
	if err != nil {
		return err
	}
	players, err := e.store.ListPlayersInGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("list players for game %d: %w", gameID, err)
	}
	st.CurrentTurn = playerID
	st.LastActionTime = time.Now()
	if err := e.store.SaveGameState(ctx, gameID, st); err != nil {
		return fmt.Errorf("save game %d state: %w", gameID, err)
	}
	e.notifier.NotifyGame(gameID, TurnChangeMessage{
		Type:     "turn_change",
		PlayerID: playerID,
		Username: playerName(players, playerID),
	})
	return nil
}

// SetRound overwrites the round counter and rebroadcasts the state.
func (e *Engine) SetRound(ctx context.Context, gameID int64, round int) error {
	l := e.lockGame(gameID)
	l.Lock()
	defer l.Unlock()

	st, err := e.store.LoadGameState(ctx, gameID)
	if err != nil {
		return err
	}
	st.Round = round
	if err := e.store.SaveGameState(ctx, gameID, st); err != nil {
		return fmt.Errorf("save game %d state: %w", gameID, err)
	}
	e.notifier.NotifyGame(gameID, GameStateMessage{Type: "game_state", GameState: st})
	return nil
}

// PatchState applies a partial client-driven update (round and/or phase) and
// rebroadcasts the merged state.
func (e *Engine) PatchState(ctx context.Context, gameID int64, round *int, phase *Phase) error {
	l := e.lockGame(gameID)
	l.Lock()
	defer l.Unlock()

	st, err := e.store.LoadGameState(ctx, gameID)
	if err != nil {
		return err
	}
	if round != nil {
		st.Round = *round
	}
	if phase != nil {
		st.Phase = *phase
	}
	if err := e.store.SaveGameState(ctx, gameID, st); err != nil {
		return fmt.Errorf("save game %d state: %w", gameID, err)
	}
	e.notifier.NotifyGame(gameID, GameStateMessage{Type: "game_state", GameState: st})
	return nil
}

// CheckEndCondition runs the ruleset's end check against the persisted
// state. Safe to call repeatedly: a finished game stays finished and emits
// nothing further.
func (e *Engine) CheckEndCondition(ctx context.Context, gameID int64) (bool, error) {
	l := e.lockGame(gameID)
	l.Lock()
	defer l.Unlock()

	st, err := e.store.LoadGameState(ctx, gameID)
	if err != nil {
		return false, err
	}
	players, err := e.store.ListPlayersInGame(ctx, gameID)
	if err != nil {
		return false, fmt.Errorf("list players for game %d: %w", gameID, err)
	}
	return e.checkEndLocked(ctx, gameID, st, players)
}

func playerName(players []PlayerInfo, id int64) string {
	for _, p := range players {
		if p.ID == id {
			return p.Username
		}
	}
	return "Unknown"
}
