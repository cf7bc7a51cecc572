package main

import (
	"math/rand"
	"sync"
)

// Snake is the player's snake. Segment index 0 is the head.
// The snake guards its own fields so SetDirection can be called from the input
// goroutine while the loop goroutine moves it.
type Snake struct {
	mu       sync.RWMutex
	segments []Point
	current  Heading // applied on the last move
	pending  Heading // applied on the next move
	speed    float64 // px per tick
	size     float64 // segment diameter
	color    string
	board    Board
}

// NewSnake creates a snake whose head sits at start with the body trailing to the
// left, heading right.
func NewSnake(start Point, board Board, size, speed float64) *Snake {
	segments := make([]Point, SnakeInitSegments)
	for i := 0; i < SnakeInitSegments; i++ {
		segments[i] = board.Wrap(Point{X: start.X - float64(i)*size, Y: start.Y})
	}
	return &Snake{
		segments: segments,
		current:  HeadingRight,
		pending:  HeadingRight,
		speed:    speed,
		size:     size,
		color:    PlayerColors[rand.Intn(len(PlayerColors))],
		board:    board,
	}
}

// Head returns the head segment of the snake
func (s *Snake) Head() Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.segments[0]
}

// Len returns the number of segments
func (s *Snake) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.segments)
}

// Heading returns the heading applied on the last move
func (s *Snake) Heading() Heading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Pending returns the heading that the next move will apply
func (s *Snake) Pending() Heading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// Color returns the colour picked at construction
func (s *Snake) Color() string { return s.color }

// Size returns the segment diameter
func (s *Snake) Size() float64 { return s.size }

// Speed returns the distance covered per move
func (s *Snake) Speed() float64 { return s.speed }

// SetDirection queues h for the next move. A request for the exact reverse of
// the current heading is dropped.
func (s *Snake) SetDirection(h Heading) {
	if !h.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == s.current.Opposite() {
		return
	}
	s.pending = h
}

// Move advances the snake one tick along the pending heading.
func (s *Snake) Move() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = s.pending
	newHead := s.board.Wrap(s.segments[0].Add(s.current.Vector(), s.speed))

	// Shift segments: prepend new head, drop last
	copy(s.segments[1:], s.segments[:len(s.segments)-1])
	s.segments[0] = newHead
}

// Grow appends SnakeGrowSegments copies of the tail.
func (s *Snake) Grow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	tail := s.segments[len(s.segments)-1]
	for i := 0; i < SnakeGrowSegments; i++ {
		s.segments = append(s.segments, tail)
	}
}

// CheckFoodCollision reports whether the head is close enough to eat f.
func (s *Snake) CheckFoodCollision(f *Food) bool {
	head := s.Head()
	return head.DistanceTo(f.Position()) < (s.size+f.Size)*CollisionFactor
}

// Segments returns a copy of the body, head first
func (s *Snake) Segments() []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Point, len(s.segments))
	copy(out, s.segments)
	return out
}
