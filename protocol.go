package main

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Protocol uses single-character keys to minimize wire size.
// All x,y coordinates are rounded to 1 decimal place.
//
// Message type constants (value of "t" field):
//   Client → Server:
//     "p" = pointer {"t":"p","k":"d","x":120.5,"y":900}  (k = d/m/u for down/move/up)
//     "h" = heading {"t":"h","h":"left"}
//     "a" = angle   {"t":"a","x":-3,"y":1}               (offset from the pad centre)
//   Server → Client:
//     "w" = welcome {"t":"w","i":"conn-id","g":"session-id","bw":1920,"bh":1080,"pad":[x,y,r]}
//     "s" = state   {"t":"s","k":tick,"s":[[x,y],...],"c":"#color","h":"right","f":[food],"p":score,...}
//     "e" = error   {"t":"e","m":"message"}
//
// Viewers connecting with ?enc=msgpack get the same messages as binary msgpack frames.

// Message type identifiers, single-char for compact protocol
const (
	MsgPointer = "p"
	MsgHeading = "h"
	MsgAngle   = "a"
	MsgWelcome = "w"
	MsgState   = "s"
	MsgError   = "e"
)

// Encoding is the wire format negotiated per viewer
type Encoding int

const (
	EncodingJSON Encoding = iota
	EncodingMsgpack
)

// ParseEncoding maps the ?enc= query value to an Encoding
func ParseEncoding(s string) Encoding {
	if s == "msgpack" {
		return EncodingMsgpack
	}
	return EncodingJSON
}

// ClientMessage is the base incoming message from a viewer.
type ClientMessage struct {
	Type    string  `json:"t" msgpack:"t"`
	Kind    string  `json:"k,omitempty" msgpack:"k,omitempty"`
	X       float64 `json:"x,omitempty" msgpack:"x,omitempty"`
	Y       float64 `json:"y,omitempty" msgpack:"y,omitempty"`
	Heading string  `json:"h,omitempty" msgpack:"h,omitempty"`
}

// PointerEvent converts a "p" message; ok is false for an unknown kind
func (m ClientMessage) PointerEvent() (PointerEvent, bool) {
	ev := PointerEvent{X: m.X, Y: m.Y}
	switch m.Kind {
	case "d":
		ev.Kind = PointerDown
	case "m":
		ev.Kind = PointerMove
	case "u":
		ev.Kind = PointerUp
	default:
		return ev, false
	}
	return ev, true
}

// WelcomeMsg is sent to a viewer immediately on WebSocket connect.
type WelcomeMsg struct {
	Type        string     `json:"t" msgpack:"t"`
	ID          string     `json:"i" msgpack:"i"`
	Session     string     `json:"g" msgpack:"g"`
	BoardWidth  float64    `json:"bw" msgpack:"bw"`
	BoardHeight float64    `json:"bh" msgpack:"bh"`
	Pad         [3]float64 `json:"pad" msgpack:"pad"`
}

// FoodDTO is the compact food item for per-tick state updates.
// {"i":"f3","x":1.0,"y":2.0,"z":80,"ch":"Q","c":"#f00","v":30}
type FoodDTO struct {
	ID    string  `json:"i" msgpack:"i"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	Size  float64 `json:"z" msgpack:"z"`
	Char  string  `json:"ch" msgpack:"ch"`
	Color string  `json:"c" msgpack:"c"`
	Value int     `json:"v" msgpack:"v"`
}

// StateMsg is the per-tick state update sent to each viewer.
// Segments are encoded as flat [x,y] pairs to save bytes vs {"x":..,"y":..} objects.
type StateMsg struct {
	Type      string       `json:"t" msgpack:"t"`
	Tick      uint64       `json:"k" msgpack:"k"`
	Segments  [][2]float64 `json:"s" msgpack:"s"`
	Width     float64      `json:"w" msgpack:"w"`
	Color     string       `json:"c" msgpack:"c"`
	Heading   string       `json:"h" msgpack:"h"`
	Food      []FoodDTO    `json:"f" msgpack:"f"`
	Score     int          `json:"p" msgpack:"p"`
	ElapsedMS int64        `json:"e" msgpack:"e"`
	LeftMS    int64        `json:"r,omitempty" msgpack:"r,omitempty"` // omitted when unlimited
	Warning   int          `json:"x,omitempty" msgpack:"x,omitempty"`
	State     string       `json:"st" msgpack:"st"`
	Locked    int          `json:"l,omitempty" msgpack:"l,omitempty"`
}

// ErrorMsg reports a refusal before the connection closes
type ErrorMsg struct {
	Type    string `json:"t" msgpack:"t"`
	Message string `json:"m" msgpack:"m"`
}

// NewStateMsg converts a snapshot to its wire form
func NewStateMsg(snap Snapshot) StateMsg {
	pairs := make([][2]float64, len(snap.Segments))
	for i, p := range snap.Segments {
		pairs[i] = [2]float64{roundTo1(p.X), roundTo1(p.Y)}
	}
	food := make([]FoodDTO, len(snap.Food))
	for i, f := range snap.Food {
		food[i] = FoodDTO{
			ID:    f.ID,
			X:     roundTo1(f.X),
			Y:     roundTo1(f.Y),
			Size:  f.Size,
			Char:  string(f.Char),
			Color: f.Color,
			Value: f.Score(),
		}
	}
	msg := StateMsg{
		Type:      MsgState,
		Tick:      snap.Tick,
		Segments:  pairs,
		Width:     snap.SegmentSize,
		Color:     snap.SnakeColor,
		Heading:   snap.Heading.String(),
		Food:      food,
		Score:     snap.Score,
		ElapsedMS: snap.Elapsed.Milliseconds(),
		State:     snap.State.String(),
	}
	if snap.Limited {
		msg.LeftMS = snap.Remaining.Milliseconds()
		if msg.LeftMS == 0 {
			msg.LeftMS = -1 // keep the key present once time is up
		}
	}
	if snap.Warning {
		msg.Warning = 1
	}
	if snap.Locked {
		msg.Locked = 1
	}
	return msg
}

// encodeMessage serializes msg for enc and returns the websocket frame type to use
func encodeMessage(msg any, enc Encoding) ([]byte, int, error) {
	switch enc {
	case EncodingMsgpack:
		data, err := msgpack.Marshal(msg)
		if err != nil {
			return nil, 0, fmt.Errorf("msgpack encode: %w", err)
		}
		return data, websocket.BinaryMessage, nil
	default:
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, 0, fmt.Errorf("json encode: %w", err)
		}
		return data, websocket.TextMessage, nil
	}
}

// decodeMessage parses an incoming frame according to its frame type
func decodeMessage(frameType int, raw []byte) (ClientMessage, error) {
	var msg ClientMessage
	var err error
	if frameType == websocket.BinaryMessage {
		err = msgpack.Unmarshal(raw, &msg)
	} else {
		err = json.Unmarshal(raw, &msg)
	}
	return msg, err
}

// roundTo1 rounds a float64 to 1 decimal place to save protocol bytes.
func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}
