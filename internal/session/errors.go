package session

import "errors"

var (
	ErrNoActiveGame       = errors.New("no active game")
	ErrNotChooser         = errors.New("only the chooser may submit the word")
	ErrChooserCannotVote  = errors.New("the chooser cannot vote")
	ErrPlayerNotFound     = errors.New("player not found in game")
	ErrInvalidPrizeAmount = errors.New("prize amount is not a valid tip tier")
	ErrAllLettersRevealed = errors.New("all letters already revealed")
)
