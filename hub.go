package main

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development; tighten in production
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Enable per-message deflate compression (RFC 7692)
	EnableCompression: true,
}

// Hub is a Surface that streams snapshots to websocket viewers and feeds their
// pointer input back into the InputMapper.
type Hub struct {
	Session string
	conns   *ConnManager
	input   *InputMapper
	board   Board
	limit   int
	limiter *ipRateLimiter

	mu       sync.Mutex
	closed   bool
	lastTick uint64
	sent     bool
}

// NewHub creates a hub for one game session. A zero cooldown disables the
// per-IP reconnect limit.
func NewHub(board Board, input *InputMapper, maxViewers int, cooldown time.Duration) *Hub {
	return &Hub{
		Session: uuid.NewString(),
		conns:   NewConnManager(),
		input:   input,
		board:   board,
		limit:   maxViewers,
		limiter: newIPRateLimiter(cooldown),
	}
}

// Viewers returns the number of connected viewers
func (h *Hub) Viewers() int {
	return h.conns.Count()
}

// ServeHTTP upgrades the request and runs the viewer's read loop
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, "session over", http.StatusServiceUnavailable)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	enc := ParseEncoding(r.URL.Query().Get("enc"))

	// Check limits after upgrade so client can receive error messages
	if h.limit > 0 && h.conns.Count() >= h.limit {
		sendErrorAndClose(ws, enc, "Too many viewers. Please try again later.")
		return
	}
	if !h.limiter.allow(clientIP(r)) {
		sendErrorAndClose(ws, enc, "Reconnecting too fast. Please wait a moment.")
		return
	}

	// Enable per-message write compression at best-speed level
	ws.EnableWriteCompression(true)

	conn := NewConn(ws, enc)
	h.conns.Add(conn)
	log.Printf("viewer connected: %s", conn.ID)

	// Force the next frame out so the new viewer doesn't wait for a tick
	h.mu.Lock()
	h.sent = false
	h.mu.Unlock()

	pad := h.input.Pad()
	_ = conn.Send(WelcomeMsg{
		Type:        MsgWelcome,
		ID:          conn.ID,
		Session:     h.Session,
		BoardWidth:  h.board.Width,
		BoardHeight: h.board.Height,
		Pad:         [3]float64{pad.Center.X, pad.Center.Y, pad.Radius},
	})

	conn.ReadLoop(h.handleMessage, func(c *Conn) {
		h.conns.Remove(c.ID)
		log.Printf("viewer disconnected: %s", c.ID)
	})
}

func (h *Hub) handleMessage(c *Conn, msg ClientMessage) {
	switch msg.Type {
	case MsgPointer:
		ev, ok := msg.PointerEvent()
		if !ok {
			log.Printf("bad pointer kind %q from %s", msg.Kind, c.ID)
			return
		}
		h.input.HandlePointer(ev)
	case MsgHeading:
		hd, ok := ParseHeading(msg.Heading)
		if !ok {
			log.Printf("bad heading %q from %s", msg.Heading, c.ID)
			return
		}
		h.input.SetDirection(hd)
	case MsgAngle:
		h.input.UpdateDirectionFromAngle(msg.X, msg.Y)
	}
}

// Acquire fails once the hub is closed
func (h *Hub) Acquire() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrSurfaceUnavailable
	}
	return nil
}

// Draw broadcasts snap to every viewer. Frames that repeat the last sent tick
// are not re-sent; the stream follows the simulation cadence.
func (h *Hub) Draw(snap Snapshot) error {
	h.mu.Lock()
	if h.sent && snap.Tick == h.lastTick {
		h.mu.Unlock()
		return nil
	}
	h.lastTick = snap.Tick
	h.sent = true
	h.mu.Unlock()

	conns := h.conns.Snapshot()
	if len(conns) == 0 {
		return nil
	}

	msg := NewStateMsg(snap)
	var encoded [2]*frame
	for _, c := range conns {
		f := encoded[c.Encoding]
		if f == nil {
			data, kind, err := encodeMessage(msg, c.Encoding)
			if err != nil {
				return err
			}
			f = &frame{kind: kind, data: data}
			encoded[c.Encoding] = f
		}
		c.Offer(*f)
	}
	return nil
}

func (h *Hub) Release() error { return nil }

// Close disconnects every viewer; later frames are skipped
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	for _, c := range h.conns.Snapshot() {
		c.Close()
		h.conns.Remove(c.ID)
	}
	return nil
}

// sendErrorAndClose sends an error message via WebSocket then closes the connection
func sendErrorAndClose(ws *websocket.Conn, enc Encoding, msg string) {
	data, kind, err := encodeMessage(ErrorMsg{Type: MsgError, Message: msg}, enc)
	if err == nil {
		_ = ws.WriteMessage(kind, data)
	}
	ws.Close()
}
