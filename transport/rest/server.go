package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/tictactoe-core/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-core/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type gameManager interface {
	NewMatch(ctx context.Context, playerOne, playerTwo string) (*usecase.Match, error)
	PlayRound(ctx context.Context, row, column int) (*usecase.Match, tictactoe.Outcome, error)
	CurrentMatch(ctx context.Context) (*usecase.Match, error)
}

// NewRouter - registers the HTTP routes.
func NewRouter(logger *slog.Logger, manager gameManager) http.Handler {
	h := NewHandlers(logger, manager)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", h.Ping)
	mux.HandleFunc("GET /game", h.GetGame)
	mux.HandleFunc("POST /game", h.NewGame)
	mux.HandleFunc("POST /game/round", h.PlayRound)

	return mux
}

// Start - starts HTTP server and stops it when ctx is done.
func Start(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx) //nolint: contextcheck // parent is already canceled
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
