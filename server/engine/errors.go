package engine

import "errors"

var (
	ErrOutOfTurn      = errors.New("not your turn")
	ErrHandOver       = errors.New("hand is over")
	ErrUnknownAction  = errors.New("unknown action")
	ErrIllegalCheck   = errors.New("cannot check facing a bet")
	ErrDeckExhausted  = errors.New("deck exhausted")
	ErrGameOver       = errors.New("game over")
	ErrHandInProgress = errors.New("hand still in progress")
	ErrBadCard        = errors.New("bad card")
)
