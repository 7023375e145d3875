package apperror

import "errors"

var (
	ErrGameFinished  = errors.New("game is already finished")
	ErrInvalidCell   = errors.New("invalid cell index")
	ErrNoActiveMatch = errors.New("no active match")
)
