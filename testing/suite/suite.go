package suite

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-core/internal/entity"
	"github.com/rocketscienceinc/tictactoe-core/internal/usecase"
)

const maxWaitDuration = 10 * time.Second

const (
	PlayerOne = "Alice"
	PlayerTwo = "Bob"
)

type Suite struct {
	*testing.T
	Logger *slog.Logger

	Manager *usecase.GameManager
}

func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	t.Cleanup(func() {
		cancel()
	})

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	manager := usecase.NewGameManager(logger, usecase.Players{One: PlayerOne, Two: PlayerTwo}, entity.LineCheckKeyed)

	return ctx, &Suite{
		T:       t,
		Logger:  logger,
		Manager: manager,
	}
}

// Serve runs handler on a local test server that is closed when the test ends.
func (that *Suite) Serve(handler http.Handler) *httptest.Server {
	that.Helper()

	server := httptest.NewServer(handler)
	that.Cleanup(server.Close)

	return server
}
