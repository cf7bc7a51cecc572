package main

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait   = 250 * time.Millisecond
	sendBacklog = 4
)

// frame is one encoded outbound message
type frame struct {
	kind int
	data []byte
}

// Conn manages a single WebSocket viewer. Outbound frames go through a small
// queue drained by a writer goroutine so a slow viewer never stalls the game loop.
type Conn struct {
	ID       string
	Encoding Encoding
	ws       *websocket.Conn
	out      chan frame
	mu       sync.Mutex // protects closed
	closed   bool
	done     chan struct{}
}

// NewConn creates a new connection wrapper and starts its writer
func NewConn(ws *websocket.Conn, enc Encoding) *Conn {
	c := &Conn{
		ID:       uuid.New().String(),
		Encoding: enc,
		ws:       ws,
		out:      make(chan frame, sendBacklog),
		done:     make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

// Send encodes msg with the viewer's encoding and queues it
func (c *Conn) Send(msg any) error {
	data, kind, err := encodeMessage(msg, c.Encoding)
	if err != nil {
		return err
	}
	c.Offer(frame{kind: kind, data: data})
	return nil
}

// Offer queues an already encoded frame. When the queue is full the oldest
// frame is dropped; state frames supersede each other.
func (c *Conn) Offer(f frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.out <- f:
		return
	default:
	}
	select {
	case <-c.out:
	default:
	}
	select {
	case c.out <- f:
	default:
	}
}

func (c *Conn) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case f := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(f.kind, f.data); err != nil {
				log.Printf("write error to %s: %v", c.ID, err)
				c.Close()
				return
			}
		}
	}
}

// Close marks connection closed and shuts the socket
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	c.ws.Close()
}

// ConnManager manages all active connections
type ConnManager struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewConnManager creates an empty connection manager
func NewConnManager() *ConnManager {
	return &ConnManager{conns: make(map[string]*Conn)}
}

// Add registers a connection
func (m *ConnManager) Add(c *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[c.ID] = c
}

// Remove unregisters a connection
func (m *ConnManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, id)
}

// Count returns the number of active connections
func (m *ConnManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

// Snapshot returns a copy of all current connections
func (m *ConnManager) Snapshot() []*Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]*Conn, 0, len(m.conns))
	for _, c := range m.conns {
		list = append(list, c)
	}
	return list
}

// ReadLoop handles incoming messages for a connection until it disconnects.
// onMessage is called for every decoded message, onDisconnect once at the end.
func (c *Conn) ReadLoop(
	onMessage func(conn *Conn, msg ClientMessage),
	onDisconnect func(conn *Conn),
) {
	defer func() {
		onDisconnect(c)
		c.Close()
	}()

	for {
		kind, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read error for %s: %v", c.ID, err)
			}
			return
		}

		msg, err := decodeMessage(kind, raw)
		if err != nil {
			log.Printf("bad message from %s: %v", c.ID, err)
			continue
		}
		onMessage(c, msg)
	}
}
