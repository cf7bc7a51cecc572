package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
)

const hudRows = 1

// TerminalSurface renders snapshots on a tcell screen. The board is scaled to
// the screen below a one-line HUD. Acquire holds the surface until Release so a
// resize can't interleave with a frame.
type TerminalSurface struct {
	screen tcell.Screen
	board  Board
	pad    ControlPad

	mu       sync.Mutex
	closed   bool
	acquired bool
	cols     int
	rows     int
}

// NewTerminalSurface wraps an initialized screen
func NewTerminalSurface(screen tcell.Screen, board Board, pad ControlPad) *TerminalSurface {
	return &TerminalSurface{screen: screen, board: board, pad: pad}
}

// Acquire checks the screen is usable and locks it for one frame
func (t *TerminalSurface) Acquire() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrSurfaceUnavailable
	}
	cols, rows := t.screen.Size()
	if cols <= 0 || rows <= hudRows {
		t.mu.Unlock()
		return fmt.Errorf("%w: terminal is %dx%d", ErrSurfaceUnavailable, cols, rows)
	}
	t.cols, t.rows = cols, rows
	t.acquired = true
	return nil
}

// Draw paints the frame into the screen buffer; Release shows it
func (t *TerminalSurface) Draw(snap Snapshot) error {
	if !t.acquired {
		return fmt.Errorf("draw without acquire")
	}
	s := t.screen
	s.Clear()

	t.drawPad()

	for _, f := range snap.Food {
		cx, cy := t.boardToCell(f.Position())
		style := tcell.StyleDefault.Foreground(tcell.GetColor(f.Color)).Bold(true)
		s.SetContent(cx, cy, f.Char, nil, style)
	}

	body := tcell.StyleDefault.Foreground(tcell.GetColor(snap.SnakeColor))
	for i := len(snap.Segments) - 1; i >= 0; i-- {
		cx, cy := t.boardToCell(snap.Segments[i])
		glyph := 'o'
		if i == 0 {
			glyph = headGlyph(snap.Heading)
		}
		s.SetContent(cx, cy, glyph, nil, body)
	}

	t.drawHUD(snap)
	return nil
}

// Release shows the frame and unlocks the surface
func (t *TerminalSurface) Release() error {
	if !t.acquired {
		return nil
	}
	t.acquired = false
	t.screen.Show()
	t.mu.Unlock()
	return nil
}

// Close finalizes the screen. Safe to call more than once.
func (t *TerminalSurface) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.screen.Fini()
	return nil
}

// boardToCell maps a board position to a screen cell below the HUD
func (t *TerminalSurface) boardToCell(p Point) (int, int) {
	playRows := t.rows - hudRows
	cx := int(p.X / t.board.Width * float64(t.cols))
	cy := int(p.Y / t.board.Height * float64(playRows))
	return clampInt(cx, 0, t.cols-1), hudRows + clampInt(cy, 0, playRows-1)
}

// CellToBoard maps a screen cell (e.g. a mouse position) to the board position
// at the centre of that cell. ok is false for HUD rows or an unsized screen.
func (t *TerminalSurface) CellToBoard(cx, cy int) (Point, bool) {
	cols, rows := t.screen.Size()
	playRows := rows - hudRows
	if cols <= 0 || playRows <= 0 || cy < hudRows {
		return Point{}, false
	}
	return Point{
		X: (float64(cx) + 0.5) / float64(cols) * t.board.Width,
		Y: (float64(cy-hudRows) + 0.5) / float64(playRows) * t.board.Height,
	}, true
}

func (t *TerminalSurface) drawPad() {
	style := tcell.StyleDefault.Foreground(tcell.ColorGray)
	c := t.pad.Center
	r := t.pad.Radius / 2
	arrows := []struct {
		p     Point
		glyph rune
	}{
		{Point{X: c.X, Y: c.Y - r}, '▲'},
		{Point{X: c.X, Y: c.Y + r}, '▼'},
		{Point{X: c.X - r, Y: c.Y}, '◀'},
		{Point{X: c.X + r, Y: c.Y}, '▶'},
	}
	for _, a := range arrows {
		cx, cy := t.boardToCell(a.p)
		t.screen.SetContent(cx, cy, a.glyph, nil, style)
	}
}

func (t *TerminalSurface) drawHUD(snap Snapshot) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	drawText(t.screen, 0, 0, t.cols, style, fmt.Sprintf("Time %s", formatClock(snap.Elapsed)))

	score := fmt.Sprintf("Score: %d", snap.Score)
	drawText(t.screen, t.cols-len(score), 0, t.cols, style, score)

	var banner string
	warn := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	switch {
	case snap.Locked:
		banner = "Time is up, take a break!"
	case snap.Warning:
		banner = fmt.Sprintf("%s left", formatClock(snap.Remaining))
	case snap.State == StatePaused:
		banner = "PAUSED"
		warn = style
	}
	if banner != "" {
		drawText(t.screen, (t.cols-len([]rune(banner)))/2, 0, t.cols, warn, banner)
	}
}

func headGlyph(h Heading) rune {
	switch h {
	case HeadingUp:
		return '^'
	case HeadingDown:
		return 'v'
	case HeadingLeft:
		return '<'
	}
	return '>'
}

func drawText(s tcell.Screen, x, y, maxX int, style tcell.Style, text string) {
	if x < 0 {
		x = 0
	}
	for _, r := range text {
		if x >= maxX {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lifecycle is the host-facing control surface of the game loop
type Lifecycle interface {
	Pause()
	Resume()
	State() LoopState
}

// RunTerminalInput reads tcell events until the player quits or the screen is
// finalized. Arrow keys and mouse presses steer, 'p' or space toggles pause.
func RunTerminalInput(screen tcell.Screen, surface *TerminalSurface, input *InputMapper, loop Lifecycle) {
	var pressed bool
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if quit := handleTerminalKey(ev, input, loop); quit {
				return
			}
		case *tcell.EventMouse:
			cx, cy := ev.Position()
			down := ev.Buttons()&tcell.Button1 != 0
			p, ok := surface.CellToBoard(cx, cy)
			switch {
			case down && ok:
				kind := PointerMove
				if !pressed {
					kind = PointerDown
				}
				pressed = true
				input.HandlePointer(PointerEvent{Kind: kind, X: p.X, Y: p.Y})
			case !down && pressed:
				pressed = false
				input.HandlePointer(PointerEvent{Kind: PointerUp, X: p.X, Y: p.Y})
			}
		case *tcell.EventResize:
			screen.Sync()
		}
	}
}

// handleTerminalKey applies a key press and reports whether the player quit
func handleTerminalKey(ev *tcell.EventKey, input *InputMapper, loop Lifecycle) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		input.SetDirection(HeadingUp)
	case tcell.KeyDown:
		input.SetDirection(HeadingDown)
	case tcell.KeyLeft:
		input.SetDirection(HeadingLeft)
	case tcell.KeyRight:
		input.SetDirection(HeadingRight)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'p', ' ':
			if loop.State() == StateRunning {
				loop.Pause()
			} else {
				loop.Resume()
			}
		case 'w', 'k':
			input.SetDirection(HeadingUp)
		case 's', 'j':
			input.SetDirection(HeadingDown)
		case 'a', 'h':
			input.SetDirection(HeadingLeft)
		case 'd', 'l':
			input.SetDirection(HeadingRight)
		}
	}
	return false
}
