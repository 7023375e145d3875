package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-core/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-core/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-core/internal/usecase"
)

var errMissingCoordinates = errors.New("row and column are required")

type Handlers interface {
	Ping(w http.ResponseWriter, _ *http.Request)

	GetGame(w http.ResponseWriter, r *http.Request)
	NewGame(w http.ResponseWriter, r *http.Request)
	PlayRound(w http.ResponseWriter, r *http.Request)
}

type newGameRequest struct {
	Players struct {
		One string `json:"one"`
		Two string `json:"two"`
	} `json:"players"`
}

type roundRequest struct {
	Row    *int `json:"row"`
	Column *int `json:"column"`
}

type Response struct {
	Game    *usecase.Match     `json:"game,omitempty"`
	Outcome *tictactoe.Outcome `json:"outcome,omitempty"`
	Error   string             `json:"error,omitempty"`
}

type handlers struct {
	logger  *slog.Logger
	manager gameManager
}

func NewHandlers(logger *slog.Logger, manager gameManager) Handlers {
	return &handlers{
		logger:  logger.With("component", "rest"),
		manager: manager,
	}
}

func (that *handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write pong", "error", err)
	}
}

func (that *handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	match, err := that.manager.CurrentMatch(r.Context())
	if err != nil {
		that.writeError(w, "GetGame", err)
		return
	}

	that.writeJSON(w, http.StatusOK, Response{Game: match})
}

// NewGame - starts a new match, replacing the current one. An empty body keeps the default names.
func (that *handlers) NewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		that.writeJSON(w, http.StatusBadRequest, Response{Error: "invalid request body"})
		return
	}

	match, err := that.manager.NewMatch(r.Context(), req.Players.One, req.Players.Two)
	if err != nil {
		that.writeError(w, "NewGame", err)
		return
	}

	that.writeJSON(w, http.StatusCreated, Response{Game: match})
}

func (that *handlers) PlayRound(w http.ResponseWriter, r *http.Request) {
	var req roundRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeJSON(w, http.StatusBadRequest, Response{Error: "invalid request body"})
		return
	}

	if req.Row == nil || req.Column == nil {
		that.writeJSON(w, http.StatusBadRequest, Response{Error: errMissingCoordinates.Error()})
		return
	}

	match, outcome, err := that.manager.PlayRound(r.Context(), *req.Row, *req.Column)
	if err != nil {
		that.writeError(w, "PlayRound", err)
		return
	}

	that.writeJSON(w, http.StatusOK, Response{Game: match, Outcome: &outcome})
}

func (that *handlers) writeError(w http.ResponseWriter, method string, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperror.ErrNoActiveMatch):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrGameFinished):
		status = http.StatusConflict
	case errors.Is(err, apperror.ErrInvalidCell):
		status = http.StatusBadRequest
	default:
		that.logger.Error("request failed", "method", method, "error", err)
	}

	that.writeJSON(w, status, Response{Error: err.Error()})
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
