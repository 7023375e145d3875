package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-core/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-core/internal/usecase"
)

const (
	shutdownTimeout = 5 * time.Second
	writeWait       = 5 * time.Second

	// largest accepted frame, round and new game messages are far below it
	maxMessageSize = 1024
)

type gameManager interface {
	NewMatch(ctx context.Context, playerOne, playerTwo string) (*usecase.Match, error)
	PlayRound(ctx context.Context, row, column int) (*usecase.Match, tictactoe.Outcome, error)
	CurrentMatch(ctx context.Context) (*usecase.Match, error)
	Subscribe(fn usecase.UpdateFunc)
}

// senderKey marks the connection a change came from, it already gets a direct reply.
type senderKey struct{}

type handlerFunc func(ctx context.Context, msg *Message, conn *client) error

type Server struct {
	logger   *slog.Logger
	manager  gameManager
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc

	clientsMutex sync.RWMutex
	clients      map[*client]struct{}
}

// New builds the server and subscribes it to match updates. With no allowedOrigins only
// same-origin browsers are accepted, "*" accepts any origin.
func New(logger *slog.Logger, manager gameManager, allowedOrigins []string) *Server {
	server := &Server{
		logger:  logger.With("component", "websocket"),
		manager: manager,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(allowedOrigins),
		},
		handlers: make(map[string]handlerFunc),
		clients:  make(map[*client]struct{}),
	}

	server.handlers[actionNewGame] = server.handleNewGame
	server.handlers[actionRound] = server.handleRound
	server.handlers[actionState] = server.handleState

	manager.Subscribe(server.publishUpdate)

	return server
}

// checkOrigin returns nil for an empty list so gorilla falls back to its same-origin check.
func checkOrigin(allowedOrigins []string) func(*http.Request) bool {
	if len(allowedOrigins) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[strings.TrimSuffix(origin, "/")] = struct{}{}
	}

	return func(req *http.Request) bool {
		origin := req.Header.Get("Origin")
		if origin == "" {
			return true
		}

		_, ok := allowed[origin]
		return ok
	}
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", that)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx) //nolint: contextcheck // parent is already canceled
		that.closeClients()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// ServeHTTP - upgrades the connection to WebSocket and serves it until the client leaves.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeConnection")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)

	c := &client{conn: conn}
	that.addClient(c)

	defer func() {
		that.removeClient(c)
		conn.Close()
	}()

	log.Info("WebSocket connection established", "remote", conn.RemoteAddr().String())

	ctx := context.WithValue(req.Context(), senderKey{}, c)

	if err = that.handleMessages(ctx, c); err != nil {
		log.Info("connection closed", "error", err)
	}
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, c *client) error {
	log := that.logger.With("method", "handleMessages")

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			if err = that.sendErrorResponse(c, "", "malformed message"); err != nil {
				return err
			}
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			if err = that.sendErrorResponse(c, message.Action, "unknown action"); err != nil {
				return err
			}
			continue
		}

		if err = handler(ctx, &message, c); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) addClient(c *client) {
	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	that.clients[c] = struct{}{}
}

func (that *Server) removeClient(c *client) {
	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	delete(that.clients, c)
}

// closeClients drops hijacked connections, http.Server.Shutdown does not track them.
func (that *Server) closeClients() {
	that.clientsMutex.RLock()
	defer that.clientsMutex.RUnlock()

	for c := range that.clients {
		c.conn.Close()
	}
}

// publishUpdate forwards a match change as game:update to every client except the one that made it.
func (that *Server) publishUpdate(ctx context.Context, update usecase.Update) {
	sender, _ := ctx.Value(senderKey{}).(*client)

	that.broadcast(sender, actionUpdate, Payload{Game: update.Match, Outcome: update.Outcome})
}

// broadcast sends payload to every connected client except the sender.
func (that *Server) broadcast(sender *client, action string, payload Payload) {
	log := that.logger.With("method", "broadcast")

	that.clientsMutex.RLock()
	receivers := make([]*client, 0, len(that.clients))
	for c := range that.clients {
		if c != sender {
			receivers = append(receivers, c)
		}
	}
	that.clientsMutex.RUnlock()

	for _, c := range receivers {
		if err := that.sendMessage(c, action, payload); err != nil {
			log.Error("failed to send game update", "error", err)
		}
	}
}
