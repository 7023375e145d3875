package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-core/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-core/testing/suite"
	"github.com/rocketscienceinc/tictactoe-core/transport/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readTimeout = 5 * time.Second

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, st *suite.Suite) *testClient {
	t.Helper()

	server := st.Serve(New(st.Logger, st.Manager, nil))
	return dialURL(t, server.URL)
}

func wsURL(url string) string {
	return "ws" + strings.TrimPrefix(url, "http") + "/ws"
}

func dialURL(t *testing.T, url string) *testClient {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(url), nil)
	require.NoError(t, err)
	resp.Body.Close()

	t.Cleanup(func() {
		conn.Close()
	})

	return &testClient{t: t, conn: conn}
}

func (that *testClient) send(action, payload string) {
	that.t.Helper()

	msg := Message{Action: action}
	if payload != "" {
		msg.Payload = json.RawMessage(payload)
	}

	require.NoError(that.t, that.conn.WriteJSON(msg))
}

func (that *testClient) sendRaw(data string) {
	that.t.Helper()

	require.NoError(that.t, that.conn.WriteMessage(websocket.TextMessage, []byte(data)))
}

func (that *testClient) receive() (string, response) {
	that.t.Helper()

	require.NoError(that.t, that.conn.SetReadDeadline(time.Now().Add(readTimeout)))

	var msg Message
	require.NoError(that.t, that.conn.ReadJSON(&msg))

	var resp response
	require.NoError(that.t, json.Unmarshal(msg.Payload, &resp))

	return msg.Action, resp
}

type response struct {
	Game *struct {
		ID           string       `json:"id"`
		Board        [3][3]string `json:"board"`
		Status       string       `json:"status"`
		ActivePlayer struct {
			Name string `json:"name"`
		} `json:"active_player"`
		Winner  string `json:"winner"`
		Version uint64 `json:"version"`
	} `json:"game"`
	Outcome *struct {
		Result string `json:"result"`
		Winner string `json:"winner"`
	} `json:"outcome"`
	Error string `json:"error"`
}

func TestServer_GameFlow(t *testing.T) {
	// Given: a connected client
	_, st := suite.New(t)
	c := dial(t, st)

	// When: a new game is requested
	c.send(actionNewGame, `{"players":{"one":"Carol","two":"Dave"}}`)
	action, resp := c.receive()

	// Then: the fresh match is returned
	require.Equal(t, actionNewGame, action)
	require.NotNil(t, resp.Game)
	assert.Equal(t, "Carol", resp.Game.ActivePlayer.Name)
	assert.Equal(t, tictactoe.StatusInProgress, resp.Game.Status)

	// When: Carol takes the main diagonal while Dave plays the top row
	moves := []string{
		`{"row":0,"column":0}`,
		`{"row":0,"column":1}`,
		`{"row":1,"column":1}`,
		`{"row":0,"column":2}`,
	}
	for _, move := range moves {
		c.send(actionRound, move)
		action, resp = c.receive()
		require.Equal(t, actionRound, action)
		require.Empty(t, resp.Error)
		require.Equal(t, "continue", resp.Outcome.Result)
	}

	c.send(actionRound, `{"row":2,"column":2}`)
	_, resp = c.receive()

	// Then: Carol wins
	require.NotNil(t, resp.Outcome)
	assert.Equal(t, "win", resp.Outcome.Result)
	assert.Equal(t, "Carol", resp.Outcome.Winner)
	assert.Equal(t, tictactoe.StatusFinished, resp.Game.Status)

	// When: the state is requested
	c.send(actionState, "")
	action, resp = c.receive()

	// Then: the finished board is returned
	assert.Equal(t, actionState, action)
	assert.Equal(t, [3][3]string{{"X", "O", "O"}, {"", "X", ""}, {"", "", "X"}}, resp.Game.Board)

	// When: a round is played after the win
	c.send(actionRound, `{"row":2,"column":0}`)
	_, resp = c.receive()

	// Then: the error is reported together with the unchanged game
	assert.Contains(t, resp.Error, "finished")
	require.NotNil(t, resp.Game)
	assert.Equal(t, "", resp.Game.Board[2][0])
}

func TestServer_Broadcast(t *testing.T) {
	// Given: two renderers connected to the same server
	_, st := suite.New(t)
	server := st.Serve(New(st.Logger, st.Manager, nil))
	first := dialURL(t, server.URL)
	second := dialURL(t, server.URL)

	// And: the second one is fully registered
	second.send(actionState, "")
	_, resp := second.receive()
	require.Contains(t, resp.Error, "no active match")

	// When: the first renderer starts a game and plays a round
	first.send(actionNewGame, "")
	_, _ = first.receive()
	first.send(actionRound, `{"row":1,"column":2}`)
	_, _ = first.receive()

	// Then: the second renderer receives both updates
	action, resp := second.receive()
	assert.Equal(t, actionUpdate, action)
	assert.Equal(t, suite.PlayerOne, resp.Game.ActivePlayer.Name)

	action, resp = second.receive()
	assert.Equal(t, actionUpdate, action)
	assert.Equal(t, "continue", resp.Outcome.Result)
	assert.Equal(t, "X", resp.Game.Board[1][2])
	assert.Equal(t, suite.PlayerTwo, resp.Game.ActivePlayer.Name)
}

func TestServer_BadRequests(t *testing.T) {
	t.Run("Unknown action", func(t *testing.T) {
		_, st := suite.New(t)
		c := dial(t, st)

		c.send("game:undo", "")
		action, resp := c.receive()

		assert.Equal(t, "game:undo", action)
		assert.Equal(t, "unknown action", resp.Error)
	})

	t.Run("Malformed message keeps the connection open", func(t *testing.T) {
		// Given: a connected client
		_, st := suite.New(t)
		c := dial(t, st)

		// When: garbage is sent
		c.sendRaw(`{"action":`)
		_, resp := c.receive()

		// Then: an error is returned and the next message is still served
		assert.Equal(t, "malformed message", resp.Error)

		c.send(actionNewGame, "")
		action, resp := c.receive()
		assert.Equal(t, actionNewGame, action)
		assert.NotNil(t, resp.Game)
	})

	t.Run("Missing coordinates", func(t *testing.T) {
		_, st := suite.New(t)
		c := dial(t, st)
		c.send(actionNewGame, "")
		_, _ = c.receive()

		c.send(actionRound, `{"row":0}`)
		_, resp := c.receive()

		assert.Equal(t, "row and column are required", resp.Error)
	})

	t.Run("Invalid cell", func(t *testing.T) {
		_, st := suite.New(t)
		c := dial(t, st)
		c.send(actionNewGame, "")
		_, _ = c.receive()

		c.send(actionRound, `{"row":0,"column":9}`)
		_, resp := c.receive()

		assert.Contains(t, resp.Error, "invalid cell")
	})

	t.Run("Occupied cell", func(t *testing.T) {
		_, st := suite.New(t)
		c := dial(t, st)
		c.send(actionNewGame, "")
		_, _ = c.receive()
		c.send(actionRound, `{"row":0,"column":0}`)
		_, _ = c.receive()

		c.send(actionRound, `{"row":0,"column":0}`)
		_, resp := c.receive()

		assert.Empty(t, resp.Error)
		assert.Equal(t, "invalid_move", resp.Outcome.Result)
		assert.Equal(t, suite.PlayerTwo, resp.Game.ActivePlayer.Name)
	})
}

func TestServer_UpdatesFromREST(t *testing.T) {
	// Given: a renderer on the websocket server and a REST router over the same manager
	_, st := suite.New(t)
	c := dial(t, st)
	router := rest.NewRouter(st.Logger, st.Manager)

	c.send(actionState, "")
	_, resp := c.receive()
	require.Contains(t, resp.Error, "no active match")

	post := func(target, body string) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, strings.NewReader(body)))
		require.Less(t, rec.Code, http.StatusBadRequest)
	}

	// When: a match is started and a round is played over REST
	post("/game", "")
	post("/game/round", `{"row":0,"column":0}`)

	// Then: the renderer receives both changes in order
	action, resp := c.receive()
	assert.Equal(t, actionUpdate, action)
	require.NotNil(t, resp.Game)
	assert.Equal(t, uint64(1), resp.Game.Version)
	assert.Nil(t, resp.Outcome)

	action, resp = c.receive()
	assert.Equal(t, actionUpdate, action)
	assert.Equal(t, uint64(2), resp.Game.Version)
	assert.Equal(t, "X", resp.Game.Board[0][0])
	require.NotNil(t, resp.Outcome)
	assert.Equal(t, "continue", resp.Outcome.Result)

	// When: REST repeats the move on the occupied cell
	post("/game/round", `{"row":0,"column":0}`)
	c.send(actionState, "")

	// Then: no update is sent, the next message is the state reply
	action, resp = c.receive()
	assert.Equal(t, actionState, action)
	assert.Equal(t, uint64(2), resp.Game.Version)
}

func TestServer_Origins(t *testing.T) {
	dialWithOrigin := func(t *testing.T, server *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
		t.Helper()

		conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server.URL), http.Header{"Origin": {origin}})
		if conn != nil {
			t.Cleanup(func() { conn.Close() })
		}
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}

		return conn, resp, err
	}

	t.Run("Foreign origin is rejected by default", func(t *testing.T) {
		_, st := suite.New(t)
		server := st.Serve(New(st.Logger, st.Manager, nil))

		_, resp, err := dialWithOrigin(t, server, "http://evil.example")

		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("Listed origin is accepted", func(t *testing.T) {
		_, st := suite.New(t)
		server := st.Serve(New(st.Logger, st.Manager, []string{"http://board.example/"}))

		_, _, err := dialWithOrigin(t, server, "http://board.example")
		require.NoError(t, err)

		_, resp, err := dialWithOrigin(t, server, "http://evil.example")
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("Wildcard accepts any origin", func(t *testing.T) {
		_, st := suite.New(t)
		server := st.Serve(New(st.Logger, st.Manager, []string{"*"}))

		_, _, err := dialWithOrigin(t, server, "http://evil.example")

		assert.NoError(t, err)
	})
}

func TestServer_ReadLimit(t *testing.T) {
	// Given: a connected client
	_, st := suite.New(t)
	c := dial(t, st)

	// When: a frame larger than the limit is sent
	c.send(actionNewGame, `{"players":{"one":"`+strings.Repeat("a", 2*maxMessageSize)+`"}}`)

	// Then: the server closes the connection as too big
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(readTimeout)))
	_, _, err := c.conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig))
}
