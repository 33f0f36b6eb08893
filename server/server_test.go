package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squishies/engine"
	"squishies/scores"
	"squishies/types"
)

type wirePiece struct {
	Type string `json:"type"`
	Size string `json:"size"`
}

type wireState struct {
	Board         [types.Rows][types.Columns]*wirePiece `json:"board"`
	Mode          string                                `json:"mode"`
	Phase         string                                `json:"phase"`
	Score         int                                   `json:"score"`
	TimeRemaining float64                               `json:"time_remaining"`
}

type wireEvent struct {
	Kind    string `json:"kind"`
	Total   int    `json:"total"`
	NewBest bool   `json:"new_best"`
}

type wireMessage struct {
	Type    string          `json:"type"`
	Session string          `json:"session"`
	State   *wireState      `json:"state"`
	Event   *wireEvent      `json:"event"`
	Result  json.RawMessage `json:"result"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T) (*httptest.Server, *scores.MemoryStore) {
	t.Helper()
	store := scores.NewMemoryStore()
	srv := New(engine.DefaultConfig(), store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func read(t *testing.T, ws *websocket.Conn) wireMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg wireMessage
	require.NoError(t, ws.ReadJSON(&msg))
	return msg
}

// readUntil reads messages until one satisfies stop, returning everything read.
func readUntil(t *testing.T, ws *websocket.Conn, stop func(wireMessage) bool) []wireMessage {
	t.Helper()
	var msgs []wireMessage
	for i := 0; i < 500; i++ {
		msg := read(t, ws)
		msgs = append(msgs, msg)
		if stop(msg) {
			return msgs
		}
	}
	t.Fatal("stop condition never reached")
	return nil
}

func findMove(st *wireState) []types.Pos {
	same := func(a, b types.Pos) bool {
		pa, pb := st.Board[a.Y][a.X], st.Board[b.Y][b.X]
		return pa != nil && pb != nil && pa.Size == "normal" && pb.Size == "normal" && pa.Type == pb.Type
	}
	for y := 0; y < types.Rows; y++ {
		for x := 0; x < types.Columns; x++ {
			a := types.Pos{X: x, Y: y}
			for _, b := range around(a) {
				if !same(a, b) {
					continue
				}
				for _, c := range around(b) {
					if c != a && same(b, c) {
						return []types.Pos{a, b, c}
					}
				}
			}
		}
	}
	return nil
}

func around(p types.Pos) []types.Pos {
	var out []types.Pos
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			n := p.Add(dx, dy)
			if (dx != 0 || dy != 0) && n.InBounds() {
				out = append(out, n)
			}
		}
	}
	return out
}

func TestStateIsFirstMessage(t *testing.T) {
	for _, query := range []string{"?mode=rush&seed=7", "?mode=zen&seed=7", "?seed=21"} {
		t.Run(query, func(t *testing.T) {
			ts, _ := newTestServer(t)
			ws := dial(t, ts, query)

			msg := read(t, ws)
			require.Equal(t, TypeState, msg.Type, "events emitted by Start must not precede the state")
			require.NotNil(t, msg.State)
			assert.Equal(t, 0, msg.State.Score)
		})
	}
}

func TestConnectSendsState(t *testing.T) {
	ts, _ := newTestServer(t)
	ws := dial(t, ts, "?mode=rush&seed=7")

	msg := read(t, ws)
	assert.Equal(t, TypeState, msg.Type)
	assert.NotEmpty(t, msg.Session)
	require.NotNil(t, msg.State)
	assert.Equal(t, "Rush", msg.State.Mode)
	assert.Equal(t, "playing", msg.State.Phase)
	assert.Equal(t, 90.0, msg.State.TimeRemaining)

	require.NoError(t, ws.WriteJSON(ClientMessage{Type: TypeState}))
	again := read(t, ws)
	assert.Equal(t, TypeState, again.Type)
	assert.Equal(t, msg.State.Board, again.State.Board)
}

func TestPathMessage(t *testing.T) {
	ts, _ := newTestServer(t)
	ws := dial(t, ts, "?seed=21")
	state := read(t, ws).State
	move := findMove(state)
	require.NotNil(t, move)

	require.NoError(t, ws.WriteJSON(ClientMessage{Type: TypePath, Path: move}))
	msgs := readUntil(t, ws, func(m wireMessage) bool { return m.Type == TypeMatch })

	kinds := map[string]int{}
	for _, m := range msgs {
		if m.Type == TypeEvent {
			kinds[m.Event.Kind]++
		}
	}
	assert.Equal(t, 1, kinds["match_resolved"])
	assert.Equal(t, 1, kinds["turn_complete"])
	assert.GreaterOrEqual(t, kinds["piece_cleared"], 3)

	var res struct {
		MatchCount int `json:"match_count"`
	}
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1].Result, &res))
	assert.GreaterOrEqual(t, res.MatchCount, 3)
}

func TestErrorMessages(t *testing.T) {
	ts, _ := newTestServer(t)
	ws := dial(t, ts, "")
	read(t, ws)

	require.NoError(t, ws.WriteJSON(ClientMessage{Type: TypePath, Path: []types.Pos{{X: 0, Y: 0}}}))
	msg := read(t, ws)
	assert.Equal(t, TypeError, msg.Type)
	assert.Contains(t, msg.Error, "too short")

	require.NoError(t, ws.WriteJSON(ClientMessage{Type: "fly"}))
	msg = read(t, ws)
	assert.Equal(t, TypeError, msg.Type)
	assert.Contains(t, msg.Error, "unknown message type")

	require.NoError(t, ws.WriteJSON(ClientMessage{Type: TypeTick}))
	assert.Equal(t, TypeError, read(t, ws).Type)
}

func TestRushExpiresThroughTicks(t *testing.T) {
	ts, store := newTestServer(t)
	ws := dial(t, ts, "?mode=rush&seed=3")
	read(t, ws)

	require.NoError(t, ws.WriteJSON(ClientMessage{Type: TypeTick, DtMs: 91_000}))
	msgs := readUntil(t, ws, func(m wireMessage) bool {
		return m.Type == TypeEvent && m.Event.Kind == "game_over"
	})
	assert.Equal(t, "time_changed", msgs[0].Event.Kind)

	best, err := store.Get(context.Background(), "Rush")
	require.NoError(t, err)
	assert.Equal(t, 0, best, "a zero score is not a new best")
}

func TestBadQuery(t *testing.T) {
	ts, _ := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?mode=blitz"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndCatalog(t *testing.T) {
	ts, _ := newTestServer(t)
	read(t, dial(t, ts, ""))

	health, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	var counts map[string]int
	require.NoError(t, json.NewDecoder(health.Body).Decode(&counts))
	assert.Equal(t, 1, counts["sessions"])

	resp, err := http.Get(ts.URL + "/catalog")
	require.NoError(t, err)
	defer resp.Body.Close()
	var entries []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	assert.Len(t, entries, types.NumPieceTypes)
	assert.Equal(t, "Bloop", entries[0]["type"])
}
