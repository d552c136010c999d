package game

import "errors"

var (
	ErrGameNotFound     = errors.New("game state not found")
	ErrWrongPhase       = errors.New("game is not in a playable phase")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrAlreadyPlayed    = errors.New("card already played this round")
	ErrCardNotInHand    = errors.New("card not in hand")
	ErrNotEnoughPlayers = errors.New("need at least 2 players")
)
