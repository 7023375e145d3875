package tictactoe

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-core/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-core/internal/entity"
)

const (
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"
)

// Result tags the outcome of one round.
type Result int

const (
	ResultContinue Result = iota
	ResultInvalidMove
	ResultWin
	ResultTie
)

var ErrUnknownResult = errors.New("unknown round result")

var resultNames = map[Result]string{
	ResultContinue:    "continue",
	ResultInvalidMove: "invalid_move",
	ResultWin:         "win",
	ResultTie:         "tie",
}

func (that Result) String() string {
	if name, ok := resultNames[that]; ok {
		return name
	}
	return fmt.Sprintf("result(%d)", int(that))
}

func (that Result) MarshalText() ([]byte, error) {
	name, ok := resultNames[that]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownResult, int(that))
	}
	return []byte(name), nil
}

// Outcome is what a round reports back to its caller. Winner is set only for ResultWin.
type Outcome struct {
	Result Result `json:"result"`
	Winner string `json:"winner,omitempty"`
}

type Option func(*settings)

type settings struct {
	playerOneName string
	playerTwoName string
	lineCheck     entity.LineCheck
}

// WithPlayerNames sets the display names, empty names keep the defaults.
func WithPlayerNames(playerOne, playerTwo string) Option {
	return func(s *settings) {
		s.playerOneName = playerOne
		s.playerTwoName = playerTwo
	}
}

func WithLineCheck(lineCheck entity.LineCheck) Option {
	return func(s *settings) {
		s.lineCheck = lineCheck
	}
}

// Game drives the rounds of a single match.
type Game struct {
	board   *entity.Board
	players [2]entity.Player
	active  int
	status  string
}

func NewGame(opts ...Option) *Game {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	return &Game{
		board: entity.NewBoard(s.lineCheck),
		players: [2]entity.Player{
			entity.NewPlayer(s.playerOneName, entity.DefaultPlayerOneName, entity.PlayerOneToken),
			entity.NewPlayer(s.playerTwoName, entity.DefaultPlayerTwoName, entity.PlayerTwoToken),
		},
		status: StatusInProgress,
	}
}

// PlayRound places the active player's token at (row, column) and evaluates the board.
// An occupied cell is reported as ResultInvalidMove without an error; the board and the
// turn stay as they were.
func (that *Game) PlayRound(row, column int) (Outcome, error) {
	invalid := Outcome{Result: ResultInvalidMove}

	if that.IsFinished() {
		return invalid, apperror.ErrGameFinished
	}

	if !that.board.InBounds(row, column) {
		return invalid, fmt.Errorf("%w: row %d, column %d", apperror.ErrInvalidCell, row, column)
	}

	if !that.board.IsEmpty(row, column) {
		return invalid, nil
	}

	player := that.ActivePlayer()
	that.board.Place(row, column, player.Token)

	if that.board.HasLine(row, column, player.Token) {
		that.status = StatusFinished
		return Outcome{Result: ResultWin, Winner: player.Name}, nil
	}

	if that.board.IsFull() {
		that.status = StatusFinished
		return Outcome{Result: ResultTie}, nil
	}

	that.switchPlayerTurn()

	return Outcome{Result: ResultContinue}, nil
}

func (that *Game) ActivePlayer() entity.Player {
	return that.players[that.active]
}

func (that *Game) Players() [2]entity.Player {
	return that.players
}

func (that *Game) BoardState() entity.Grid {
	return that.board.State()
}

func (that *Game) Status() string {
	return that.status
}

func (that *Game) IsFinished() bool {
	return that.status == StatusFinished
}

func (that *Game) String() string {
	return that.board.String()
}

func (that *Game) switchPlayerTurn() {
	that.active = 1 - that.active
}
