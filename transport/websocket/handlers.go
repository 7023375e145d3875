package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-core/internal/apperror"
)

func (that *Server) handleNewGame(ctx context.Context, msg *Message, c *client) error {
	log := that.logger.With("method", "handleNewGame")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		log.Error("invalid payload", "error", err)
		return that.sendErrorResponse(c, msg.Action, "invalid payload")
	}

	var players PlayersPayload
	if payloadReq.Players != nil {
		players = *payloadReq.Players
	}

	match, err := that.manager.NewMatch(ctx, players.One, players.Two)
	if err != nil {
		log.Error("failed to start match", "error", err)
		return that.sendErrorResponse(c, msg.Action, "failed to start a new game")
	}

	if err = that.sendMessage(c, msg.Action, Payload{Game: match}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("new game started", "matchID", match.ID)

	return nil
}

func (that *Server) handleRound(ctx context.Context, msg *Message, c *client) error {
	log := that.logger.With("method", "handleRound")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		log.Error("invalid payload", "error", err)
		return that.sendErrorResponse(c, msg.Action, "invalid payload")
	}

	if payloadReq.Row == nil || payloadReq.Column == nil {
		log.Error("row or column is missing in payload")
		return that.sendErrorResponse(c, msg.Action, "row and column are required")
	}

	match, outcome, err := that.manager.PlayRound(ctx, *payloadReq.Row, *payloadReq.Column)
	if err != nil {
		switch {
		case errors.Is(err, apperror.ErrNoActiveMatch),
			errors.Is(err, apperror.ErrGameFinished),
			errors.Is(err, apperror.ErrInvalidCell):
			log.Info("round rejected", "error", err)
		default:
			log.Error("failed to play round", "error", err)
		}

		if sendErr := that.sendMessage(c, msg.Action, Payload{Game: match, Error: err.Error()}); sendErr != nil {
			return fmt.Errorf("failed to send error response: %w", sendErr)
		}

		return nil
	}

	if err = that.sendMessage(c, msg.Action, Payload{Game: match, Outcome: &outcome}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	return nil
}

func (that *Server) handleState(ctx context.Context, msg *Message, c *client) error {
	match, err := that.manager.CurrentMatch(ctx)
	if err != nil {
		return that.sendErrorResponse(c, msg.Action, err.Error())
	}

	if err = that.sendMessage(c, msg.Action, Payload{Game: match}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	return nil
}
