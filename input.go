package main

import (
	"math"
	"sync"
)

// PointerKind is the phase of a pointer event
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

// PointerEvent is a pointer sample in board coordinates
type PointerEvent struct {
	Kind PointerKind
	X    float64
	Y    float64
}

// ControlScheme selects how pointer events become headings
type ControlScheme int

const (
	// SchemePad only reacts to presses on the directional pad
	SchemePad ControlScheme = iota
	// SchemeSteer maps the angle between the pointer and the pad centre
	// anywhere on the board
	SchemeSteer
)

// DirectionSetter accepts heading requests; *Snake and *World implement it
type DirectionSetter interface {
	SetDirection(h Heading)
}

// HeadingFromAngle maps a pointer offset to one of four ±45° bands.
// y grows downward: RIGHT [-45°,45°], DOWN (45°,135°], UP [-135°,-45°), LEFT otherwise.
func HeadingFromAngle(dx, dy float64) Heading {
	deg := math.Atan2(dy, dx) * 180 / math.Pi
	switch {
	case deg >= -45 && deg <= 45:
		return HeadingRight
	case deg > 45 && deg <= 135:
		return HeadingDown
	case deg >= -135 && deg < -45:
		return HeadingUp
	default:
		return HeadingLeft
	}
}

// ControlPad is the round on-screen directional button
type ControlPad struct {
	Center Point
	Radius float64
}

// NewControlPad places the pad in the bottom-left corner, sized from the shorter
// board side with a margin of a fifth of its radius.
func NewControlPad(board Board) ControlPad {
	side := math.Min(board.Width, board.Height)
	radius := side * PadRadiusRatio
	margin := radius * 0.2
	return ControlPad{
		Center: Point{X: radius + margin, Y: board.Height - (radius + margin)},
		Radius: radius,
	}
}

// Contains reports whether (x, y) presses the pad, with a little slack around the rim
func (p ControlPad) Contains(x, y float64) bool {
	return p.Center.DistanceTo(Point{X: x, Y: y}) <= p.Radius*PadTouchSlack
}

// Direction returns the arrow under (x, y): the dominant axis of the offset
// from the pad centre. Exact diagonals and the centre pick nothing.
func (p ControlPad) Direction(x, y float64) (Heading, bool) {
	dx := x - p.Center.X
	dy := y - p.Center.Y
	switch {
	case dy < 0 && math.Abs(dy) > math.Abs(dx):
		return HeadingUp, true
	case dy > 0 && math.Abs(dy) > math.Abs(dx):
		return HeadingDown, true
	case dx < 0 && math.Abs(dx) > math.Abs(dy):
		return HeadingLeft, true
	case dx > 0 && math.Abs(dx) > math.Abs(dy):
		return HeadingRight, true
	}
	return 0, false
}

// InputMapper turns pointer events into heading requests. It never applies a
// heading itself; the snake's opposite-heading gate decides.
type InputMapper struct {
	mu      sync.Mutex
	scheme  ControlScheme
	pad     ControlPad
	target  DirectionSetter
	pressed bool
}

// NewInputMapper creates a mapper feeding target
func NewInputMapper(target DirectionSetter, pad ControlPad, scheme ControlScheme) *InputMapper {
	return &InputMapper{target: target, pad: pad, scheme: scheme}
}

// Pad returns the control pad geometry
func (m *InputMapper) Pad() ControlPad {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pad
}

// SetScheme switches the control scheme
func (m *InputMapper) SetScheme(s ControlScheme) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheme = s
}

// HandlePointer maps ev and forwards the resulting request. It returns the
// requested heading and whether one was produced.
func (m *InputMapper) HandlePointer(ev PointerEvent) (Heading, bool) {
	m.mu.Lock()
	switch ev.Kind {
	case PointerUp:
		m.pressed = false
		m.mu.Unlock()
		return 0, false
	case PointerDown:
		m.pressed = true
	case PointerMove:
		if !m.pressed {
			m.mu.Unlock()
			return 0, false
		}
	}
	scheme, pad := m.scheme, m.pad
	m.mu.Unlock()

	var (
		h  Heading
		ok bool
	)
	switch scheme {
	case SchemeSteer:
		h, ok = m.steer(ev.X-pad.Center.X, ev.Y-pad.Center.Y)
	default:
		if pad.Contains(ev.X, ev.Y) {
			h, ok = pad.Direction(ev.X, ev.Y)
		}
	}
	if ok {
		m.target.SetDirection(h)
	}
	return h, ok
}

// UpdateDirectionFromAngle requests the heading for the offset (dx, dy).
// A zero offset is ignored.
func (m *InputMapper) UpdateDirectionFromAngle(dx, dy float64) (Heading, bool) {
	h, ok := m.steer(dx, dy)
	if ok {
		m.target.SetDirection(h)
	}
	return h, ok
}

func (m *InputMapper) steer(dx, dy float64) (Heading, bool) {
	if dx == 0 && dy == 0 {
		return 0, false
	}
	return HeadingFromAngle(dx, dy), true
}

// SetDirection forwards a direct request, e.g. from arrow keys
func (m *InputMapper) SetDirection(h Heading) {
	m.target.SetDirection(h)
}
