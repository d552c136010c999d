package game

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ASAPmarius/WebBackend/internal/deck"
)

// resolveRound dispatches to the ruleset matching the game type. Only war is
// implemented; anything else logs and leaves the table untouched.
func (e *Engine) resolveRound(ctx context.Context, gameID int64, st *State, players []PlayerInfo) error {
	switch st.GameType {
	case GameTypeWar:
		return e.resolveWarRound(ctx, gameID, st, players)
	default:
		log.Warn().Int64("game_id", gameID).Str("game_type", st.GameType).Msg("no round resolver for game type")
		return nil
	}
}

// activePair returns the two contenders in a stable order. Falls back to the
// played-card keys for states persisted before active players were recorded.
func activePair(st *State) (int64, int64, bool) {
	if len(st.ActivePlayers) >= 2 {
		return st.ActivePlayers[0], st.ActivePlayers[1], true
	}
	ids := make([]int64, 0, len(st.PlayedCards))
	for id := range st.PlayedCards {
		ids = append(ids, id)
	}
	if len(ids) != 2 {
		return 0, 0, false
	}
	if ids[0] > ids[1] {
		ids[0], ids[1] = ids[1], ids[0]
	}
	return ids[0], ids[1], true
}

// resolveWarRound compares the two pending cards. Higher value takes the
// round; equal values open a war, which runs to completion automatically
// before the call returns. Runs under the game lock throughout, so no
// client-driven mutation can interleave with a war in progress.
func (e *Engine) resolveWarRound(ctx context.Context, gameID int64, st *State, players []PlayerInfo) error {
	p1ID, p2ID, ok := activePair(st)
	if !ok {
		log.Error().Int64("game_id", gameID).Msg("cannot determine war contenders")
		return nil
	}
	card1, ok1 := st.PlayedCards[p1ID]
	card2, ok2 := st.PlayedCards[p2ID]
	if !ok1 || !ok2 {
		log.Error().Int64("game_id", gameID).Msg("missing played card for a contender")
		return nil
	}

	if st.WarState == nil {
		st.WarState = &WarState{WarPile: []deck.Card{}}
	}
	st.WarState.WarPile = append(st.WarState.WarPile, card1, card2)

	e.sleep(e.revealDelay)

	if card1.Value > card2.Value {
		return e.handleWarEnd(ctx, gameID, st, players, p1ID, "normal win")
	}
	if card1.Value < card2.Value {
		return e.handleWarEnd(ctx, gameID, st, players, p2ID, "normal win")
	}

	log.Info().Int64("game_id", gameID).Int64("player1", p1ID).Int64("player2", p2ID).Msg("war declared")

	if short, winnerID, drawn := e.warShortfall(st, p1ID, p2ID); short {
		if drawn {
			return e.finishDraw(ctx, gameID, st)
		}
		return e.handleWarEnd(ctx, gameID, st, players, winnerID, "not enough cards for war")
	}

	st.WarState.InWar = true
	st.WarState.WarRound++
	st.PlayedCards = map[int64]deck.Card{}
	if err := e.store.SaveGameState(ctx, gameID, st); err != nil {
		return fmt.Errorf("save game %d state: %w", gameID, err)
	}
	e.notifier.NotifyGame(gameID, WarStartMessage{
		Type:        "war_start",
		WarRound:    st.WarState.WarRound,
		WarPileSize: len(st.WarState.WarPile),
	})

	return e.runWar(ctx, gameID, st, players, p1ID, p2ID)
}

// warShortfall reports whether either contender lacks the two cards a war
// round needs. With equal, insufficient hands nobody can out-stack the
// other, so the game is a draw; otherwise the larger hand wins the pile.
func (e *Engine) warShortfall(st *State, p1ID, p2ID int64) (short bool, winnerID int64, drawn bool) {
	l1, l2 := len(st.hand(p1ID)), len(st.hand(p2ID))
	if l1 >= 2 && l2 >= 2 {
		return false, 0, false
	}
	if l1 == l2 {
		return true, 0, true
	}
	if l1 > l2 {
		return true, p1ID, false
	}
	return true, p2ID, false
}

// runWar plays war rounds until a face-up comparison differs or a contender
// runs out of cards. Each round burns one face-down card per player, then
// reveals one face-up card per player, all into the shared pile.
func (e *Engine) runWar(ctx context.Context, gameID int64, st *State, players []PlayerInfo, p1ID, p2ID int64) error {
	p1Name := playerName(players, p1ID)
	p2Name := playerName(players, p2ID)

	for {
		if short, winnerID, drawn := e.warShortfall(st, p1ID, p2ID); short {
			if drawn {
				return e.finishDraw(ctx, gameID, st)
			}
			return e.handleWarEnd(ctx, gameID, st, players, winnerID, "not enough cards for war")
		}

		down1, _ := st.popCard(p1ID)
		down2, _ := st.popCard(p2ID)
		st.WarState.WarPile = append(st.WarState.WarPile, down1, down2)

		e.notifier.NotifyGame(gameID, WarProgressMessage{
			Type:        "war_progress",
			Message:     "Both players placed a card face down",
			Player1:     p1Name,
			Player2:     p2Name,
			WarPileSize: len(st.WarState.WarPile),
		})
		if err := e.store.SaveGameState(ctx, gameID, st); err != nil {
			return fmt.Errorf("save game %d state: %w", gameID, err)
		}
		e.sleep(e.stepDelay)

		up1, _ := st.popCard(p1ID)
		up2, _ := st.popCard(p2ID)
		st.WarState.WarPile = append(st.WarState.WarPile, up1, up2)

		e.notifier.NotifyGame(gameID, PlayerActionMessage{
			Type:     "player_action",
			PlayerID: p1ID,
			Username: p1Name,
			Action:   ActionPayload{Type: "play_war_card", CardID: up1.ID},
		})
		e.notifier.NotifyGame(gameID, PlayerActionMessage{
			Type:     "player_action",
			PlayerID: p2ID,
			Username: p2Name,
			Action:   ActionPayload{Type: "play_war_card", CardID: up2.ID},
		})
		if err := e.store.SaveGameState(ctx, gameID, st); err != nil {
			return fmt.Errorf("save game %d state: %w", gameID, err)
		}
		e.sleep(e.stepDelay)

		if up1.Value > up2.Value {
			return e.handleWarEnd(ctx, gameID, st, players, p1ID, "won war with higher card")
		}
		if up1.Value < up2.Value {
			return e.handleWarEnd(ctx, gameID, st, players, p2ID, "won war with higher card")
		}

		if short, winnerID, drawn := e.warShortfall(st, p1ID, p2ID); short {
			if drawn {
				return e.finishDraw(ctx, gameID, st)
			}
			return e.handleWarEnd(ctx, gameID, st, players, winnerID, "won war due to opponent running out of cards")
		}

		st.WarState.WarRound++
		if err := e.store.SaveGameState(ctx, gameID, st); err != nil {
			return fmt.Errorf("save game %d state: %w", gameID, err)
		}
		e.notifier.NotifyGame(gameID, WarStartMessage{
			Type:     "war_start",
			WarRound: st.WarState.WarRound,
			Message:  "War again! Both players tied",
		})
	}
}

// handleWarEnd settles a round, warring or not: the winner takes every card
// on the table, the round counter advances and the winner leads the next
// round. The end check runs before the turn passes so an emptied hand ends
// the game in the same breath.
func (e *Engine) handleWarEnd(ctx context.Context, gameID int64, st *State, players []PlayerInfo, winnerID int64, reason string) error {
	if st.WarState == nil {
		st.WarState = &WarState{WarPile: []deck.Card{}}
	}

	cardsWon := len(st.WarState.WarPile)
	st.PlayerHands[winnerID] = append(st.hand(winnerID), st.WarState.WarPile...)

	st.WarState.InWar = false
	st.WarState.WarRound = 0
	st.WarState.WarPile = []deck.Card{}
	st.PlayedCards = map[int64]deck.Card{}
	st.Round++
	st.LastWinner = winnerID

	if err := e.store.SaveGameState(ctx, gameID, st); err != nil {
		return fmt.Errorf("save game %d state: %w", gameID, err)
	}

	winnerName := playerName(players, winnerID)
	e.notifier.NotifyGame(gameID, RoundResultMessage{
		Type:       "round_result",
		WinnerID:   winnerID,
		WinnerName: winnerName,
		CardCount:  cardsWon,
		NewRound:   st.Round,
		Reason:     reason,
	})

	if _, err := e.checkEndLocked(ctx, gameID, st, players); err != nil {
		return err
	}

	st.CurrentTurn = winnerID
	if err := e.store.SaveGameState(ctx, gameID, st); err != nil {
		return fmt.Errorf("save game %d state: %w", gameID, err)
	}
	e.notifier.NotifyGame(gameID, TurnChangeMessage{
		Type:     "turn_change",
		PlayerID: winnerID,
		Username: winnerName,
	})
	return nil
}

// checkEndLocked ends the game when any contender's hand is empty. Already
// finished games report true without re-announcing anything.
func (e *Engine) checkEndLocked(ctx context.Context, gameID int64, st *State, players []PlayerInfo) (bool, error) {
	if st.Phase == PhaseFinished {
		return true, nil
	}
	if st.GameType != GameTypeWar {
		log.Warn().Int64("game_id", gameID).Str("game_type", st.GameType).Msg("no end condition check for game type")
		return false, nil
	}

	p1ID, p2ID, ok := activePair(st)
	if !ok {
		return false, nil
	}
	l1, l2 := len(st.hand(p1ID)), len(st.hand(p2ID))
	if l1 > 0 && l2 > 0 {
		return false, nil
	}
	if l1 == 0 && l2 == 0 {
		return true, e.finishDraw(ctx, gameID, st)
	}

	winnerID := p1ID
	if l1 == 0 {
		winnerID = p2ID
	}

	st.Phase = PhaseFinished
	if err := e.store.SaveGameState(ctx, gameID, st); err != nil {
		return false, fmt.Errorf("save game %d state: %w", gameID, err)
	}
	if err := e.store.MarkGameFinished(ctx, gameID); err != nil {
		return false, fmt.Errorf("mark game %d finished: %w", gameID, err)
	}

	winnerName := playerName(players, winnerID)
	log.Info().Int64("game_id", gameID).Int64("winner_id", winnerID).Str("winner", winnerName).Msg("war game ended")
	e.notifier.NotifyGame(gameID, GameEndMessage{
		Type:       "game_end",
		WinnerID:   winnerID,
		WinnerName: winnerName,
	})
	return true, nil
}

// finishDraw ends a game nobody can win: both contenders out of material at
// the same moment. A zero winner id signals the draw to clients.
func (e *Engine) finishDraw(ctx context.Context, gameID int64, st *State) error {
	st.Phase = PhaseFinished
	if st.WarState != nil {
		st.WarState.InWar = false
	}
	st.PlayedCards = map[int64]deck.Card{}
	if err := e.store.SaveGameState(ctx, gameID, st); err != nil {
		return fmt.Errorf("save game %d state: %w", gameID, err)
	}
	if err := e.store.MarkGameFinished(ctx, gameID); err != nil {
		return fmt.Errorf("mark game %d finished: %w", gameID, err)
	}
	log.Info().Int64("game_id", gameID).Msg("war game ended in a draw")
	e.notifier.NotifyGame(gameID, GameEndMessage{
		Type:       "game_end",
		WinnerID:   0,
		WinnerName: "Draw",
	})
	return nil
}
