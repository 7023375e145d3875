package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-core/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-core/internal/entity"
	"github.com/rocketscienceinc/tictactoe-core/internal/tictactoe"
)

// Players holds the display names used when a new match does not name its players.
type Players struct {
	One string
	Two string
}

// Match is a snapshot of the current match for renderers.
type Match struct {
	ID           string           `json:"id"`
	Board        entity.Grid      `json:"board"`
	Status       string           `json:"status"`
	ActivePlayer entity.Player    `json:"active_player"`
	Players      [2]entity.Player `json:"players"`
	Winner       string           `json:"winner,omitempty"`
	Version      uint64           `json:"version"`
}

// Update describes an accepted change of the current match. Outcome is nil for a new match.
type Update struct {
	Match   *Match
	Outcome *tictactoe.Outcome
}

// UpdateFunc receives updates in the order they were applied. It runs under the manager lock
// and must not call back into the manager.
type UpdateFunc func(ctx context.Context, update Update)

// GameManager owns the single current match and serialises access to it.
type GameManager struct {
	logger    *slog.Logger
	defaults  Players
	lineCheck entity.LineCheck
	newID     func() string

	mu          sync.Mutex
	matchID     string
	game        *tictactoe.Game
	winner      string
	version     uint64
	subscribers []UpdateFunc
}

func NewGameManager(logger *slog.Logger, defaults Players, lineCheck entity.LineCheck) *GameManager {
	return &GameManager{
		logger:    logger.With("component", "game_manager"),
		defaults:  defaults,
		lineCheck: lineCheck,
		newID:     uuid.NewString,
	}
}

// NewMatch drops the current match, if any, and starts a brand-new one.
func (that *GameManager) NewMatch(ctx context.Context, playerOne, playerTwo string) (*Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to start match: %w", err)
	}

	if playerOne == "" {
		playerOne = that.defaults.One
	}

	if playerTwo == "" {
		playerTwo = that.defaults.Two
	}

	game := tictactoe.NewGame(
		tictactoe.WithPlayerNames(playerOne, playerTwo),
		tictactoe.WithLineCheck(that.lineCheck),
	)

	that.mu.Lock()
	defer that.mu.Unlock()

	that.matchID = that.newID()
	that.game = game
	that.winner = ""
	that.version++

	players := game.Players()
	that.logger.Info("match started",
		"matchID", that.matchID,
		"playerOne", players[0].Name,
		"playerTwo", players[1].Name,
	)
	that.announceTurn()

	match := that.snapshot()
	that.publish(ctx, Update{Match: match})

	return match, nil
}

// PlayRound plays one round of the current match for its active player.
func (that *GameManager) PlayRound(ctx context.Context, row, column int) (*Match, tictactoe.Outcome, error) {
	invalid := tictactoe.Outcome{Result: tictactoe.ResultInvalidMove}

	if err := ctx.Err(); err != nil {
		return nil, invalid, fmt.Errorf("failed to play round: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.game == nil {
		return nil, invalid, apperror.ErrNoActiveMatch
	}

	log := that.logger.With("method", "PlayRound", "matchID", that.matchID)

	player := that.game.ActivePlayer()
	log.Debug(fmt.Sprintf("Marking %s's token into row %d, column %d...", player.Name, row, column))

	outcome, err := that.game.PlayRound(row, column)
	if err != nil {
		if errors.Is(err, apperror.ErrGameFinished) {
			log.Info("round rejected, match is finished")
		}
		return that.snapshot(), outcome, fmt.Errorf("failed to play round: %w", err)
	}

	switch outcome.Result {
	case tictactoe.ResultInvalidMove:
		log.Info("invalid move, cell is occupied", "player", player.Name, "row", row, "column", column)
	case tictactoe.ResultWin:
		that.winner = outcome.Winner
		log.Info("match finished", "result", outcome.Result.String(), "winner", outcome.Winner)
	case tictactoe.ResultTie:
		log.Info("match finished", "result", outcome.Result.String())
	case tictactoe.ResultContinue:
		that.announceTurn()
	}

	if outcome.Result == tictactoe.ResultInvalidMove {
		return that.snapshot(), outcome, nil
	}

	that.version++
	match := that.snapshot()
	that.publish(ctx, Update{Match: match, Outcome: &outcome})

	return match, outcome, nil
}

// Subscribe registers fn for every new match and every accepted round.
func (that *GameManager) Subscribe(fn UpdateFunc) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.subscribers = append(that.subscribers, fn)
}

func (that *GameManager) CurrentMatch(ctx context.Context) (*Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.game == nil {
		return nil, apperror.ErrNoActiveMatch
	}

	return that.snapshot(), nil
}

// publish hands update to subscribers, the caller holds the lock.
func (that *GameManager) publish(ctx context.Context, update Update) {
	for _, fn := range that.subscribers {
		fn(ctx, update)
	}
}

// announceTurn logs the board and whose turn it is, the caller holds the lock.
func (that *GameManager) announceTurn() {
	that.logger.Debug("board\n" + that.game.String())
	that.logger.Debug(that.game.ActivePlayer().Name + "'s turn.")
}

// snapshot copies the current match state, the caller holds the lock.
func (that *GameManager) snapshot() *Match {
	return &Match{
		ID:           that.matchID,
		Board:        that.game.BoardState(),
		Status:       that.game.Status(),
		ActivePlayer: that.game.ActivePlayer(),
		Players:      that.game.Players(),
		Winner:       that.winner,
		Version:      that.version,
	}
}
