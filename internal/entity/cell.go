package entity

import (
	"errors"
	"fmt"
)

// Cell is the content of one square of the board.
type Cell uint8

const (
	Empty Cell = iota
	PlayerOneToken
	PlayerTwoToken
)

const (
	MarkEmpty = ""
	MarkX     = "X"
	MarkO     = "O"
)

var ErrUnknownMark = errors.New("unknown mark")

func (that Cell) String() string {
	switch that {
	case PlayerOneToken:
		return MarkX
	case PlayerTwoToken:
		return MarkO
	default:
		return MarkEmpty
	}
}

func (that Cell) IsEmpty() bool {
	return that == Empty
}

func (that Cell) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Cell) UnmarshalText(text []byte) error {
	switch string(text) {
	case MarkEmpty:
		*that = Empty
	case MarkX:
		*that = PlayerOneToken
	case MarkO:
		*that = PlayerTwoToken
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMark, text)
	}

	return nil
}
