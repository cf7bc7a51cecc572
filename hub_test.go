package main

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

type hubHarness struct {
	hub   *Hub
	snake *Snake
	srv   *httptest.Server
}

func newHubHarness(t *testing.T, maxViewers int) *hubHarness {
	t.Helper()
	board := NewBoard(800, 600)
	snake := NewSnake(board.Center(), board, 80, 20)
	input := NewInputMapper(snake, NewControlPad(board), SchemePad)
	h := &hubHarness{hub: NewHub(board, input, maxViewers, 0), snake: snake}
	h.srv = httptest.NewServer(h.hub)
	t.Cleanup(func() {
		h.hub.Close()
		h.srv.Close()
	})
	return h
}

func (h *hubHarness) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws" + query
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) (int, []byte) {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return kind, data
}

func readJSON(t *testing.T, ws *websocket.Conn, v any) {
	t.Helper()
	_, data := readFrame(t, ws)
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
}

func TestHubWelcomeAndState(t *testing.T) {
	h := newHubHarness(t, 4)
	ws := h.dial(t, "")

	var welcome WelcomeMsg
	readJSON(t, ws, &welcome)
	if welcome.Type != MsgWelcome || welcome.Session != h.hub.Session || welcome.BoardWidth != 800 {
		t.Fatalf("welcome = %+v", welcome)
	}
	if welcome.Pad[2] <= 0 {
		t.Errorf("welcome pad = %v", welcome.Pad)
	}
	if h.hub.Viewers() != 1 {
		t.Errorf("Viewers() = %d", h.hub.Viewers())
	}

	snap := Snapshot{Tick: 5, Segments: []Point{{400, 300}}, Heading: HeadingRight, Score: 20}
	if err := h.hub.Draw(snap); err != nil {
		t.Fatal(err)
	}
	h.hub.Draw(snap) // same tick, not re-sent
	snap.Tick = 6
	h.hub.Draw(snap)

	var state StateMsg
	readJSON(t, ws, &state)
	if state.Type != MsgState || state.Tick != 5 || state.Score != 20 {
		t.Fatalf("first state = %+v", state)
	}
	readJSON(t, ws, &state)
	if state.Tick != 6 {
		t.Fatalf("second state tick = %d, want 6 (repeat frames are skipped)", state.Tick)
	}
}

func TestHubMsgpackViewer(t *testing.T) {
	h := newHubHarness(t, 4)
	ws := h.dial(t, "?enc=msgpack")

	kind, data := readFrame(t, ws)
	if kind != websocket.BinaryMessage {
		t.Fatalf("welcome frame type = %d", kind)
	}
	var welcome WelcomeMsg
	if err := msgpack.Unmarshal(data, &welcome); err != nil {
		t.Fatal(err)
	}
	if welcome.Session != h.hub.Session {
		t.Errorf("session = %q", welcome.Session)
	}

	h.hub.Draw(Snapshot{Tick: 1, Segments: []Point{{1, 2}}})
	_, data = readFrame(t, ws)
	var state StateMsg
	if err := msgpack.Unmarshal(data, &state); err != nil {
		t.Fatal(err)
	}
	if state.Tick != 1 || len(state.Segments) != 1 {
		t.Errorf("state = %+v", state)
	}
}

func TestHubInputReachesSnake(t *testing.T) {
	h := newHubHarness(t, 4)
	ws := h.dial(t, "")
	var welcome WelcomeMsg
	readJSON(t, ws, &welcome)

	if err := ws.WriteJSON(ClientMessage{Type: MsgHeading, Heading: "up"}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "heading up", func() bool { return h.snake.Pending() == HeadingUp })

	// press the lower arrow of the pad
	pad := welcome.Pad
	if err := ws.WriteJSON(ClientMessage{Type: MsgPointer, Kind: "d", X: pad[0], Y: pad[1] + pad[2]/2}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "heading down", func() bool { return h.snake.Pending() == HeadingDown })

	if err := ws.WriteJSON(ClientMessage{Type: MsgAngle, X: 1, Y: 0}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "heading right", func() bool { return h.snake.Pending() == HeadingRight })
}

func TestHubViewerLimit(t *testing.T) {
	h := newHubHarness(t, 1)
	first := h.dial(t, "")
	var welcome WelcomeMsg
	readJSON(t, first, &welcome)

	second := h.dial(t, "")
	var refusal ErrorMsg
	readJSON(t, second, &refusal)
	if refusal.Type != MsgError || refusal.Message == "" {
		t.Fatalf("refusal = %+v", refusal)
	}
	if h.hub.Viewers() != 1 {
		t.Errorf("Viewers() = %d", h.hub.Viewers())
	}
}

func TestHubClose(t *testing.T) {
	h := newHubHarness(t, 4)
	ws := h.dial(t, "")
	var welcome WelcomeMsg
	readJSON(t, ws, &welcome)

	h.hub.Close()
	if err := h.hub.Acquire(); err == nil {
		t.Fatal("Acquire after Close succeeded")
	}
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Fatal("viewer still connected after Close")
	}
	if err := h.hub.Close(); err != nil {
		t.Fatal(err)
	}
}
