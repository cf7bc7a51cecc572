package main

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// World holds all game state for one play session.
// The loop goroutine mutates it only inside Step; everyone else reads Snapshots.
type World struct {
	mu      sync.Mutex
	Board   Board
	Snake   *Snake
	Food    []*Food // ordered; consumption resolves in this order
	Score   int
	Ticks   uint64
	Elapsed time.Duration // running time, advanced one update period per tick

	spawner      *FoodSpawner
	foodTarget   int
	tickLength   time.Duration
	sessionLimit time.Duration
	warnWindow   time.Duration
}

// StepResult reports what a tick did
type StepResult struct {
	Consumed *Food // nil when nothing was eaten
	Spawned  *Food // nil when no food was added
}

// NewWorld builds the board, a snake at the centre and the initial food.
// A nil rng gets a time-seeded source.
func NewWorld(cfg Config, rng *rand.Rand) *World {
	board := NewBoard(cfg.BoardWidth, cfg.BoardHeight)
	w := &World{
		Board:        board,
		Snake:        NewSnake(board.Center(), board, cfg.SegmentSize, cfg.Speed()),
		Food:         make([]*Food, 0, cfg.FoodCount),
		spawner:      NewFoodSpawner(board, cfg.FoodSize, cfg.MinFoodDistance, cfg.SpawnAttempts, rng),
		foodTarget:   cfg.FoodCount,
		tickLength:   cfg.UpdatePeriod,
		sessionLimit: cfg.SessionLimit,
		warnWindow:   cfg.WarningWindow,
	}
	w.spawnInitialFood()
	return w
}

func (w *World) spawnInitialFood() {
	w.Food = append(w.Food, w.spawner.Fill(w.Snake.Segments(), w.foodTarget)...)
}

// Step runs one simulation tick: move, resolve at most one consumption, top up
// food by at most one. When ctx is already done it returns false and leaves the
// world untouched.
func (w *World) Step(ctx context.Context) (StepResult, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var res StepResult
	if ctx.Err() != nil {
		return res, false
	}

	w.Ticks++
	w.Elapsed += w.tickLength

	// 1. Move
	w.Snake.Move()

	// 2. Consumption: first match in food order wins
	if i := ResolveConsumption(w.Snake, w.Food); i >= 0 {
		food := w.Food[i]
		w.Score += food.Score()
		w.Snake.Grow()
		w.Food = removeFood(w.Food, i)
		res.Consumed = food
	}

	// 3. Maintain food count
	res.Spawned = w.maintainFoodCount()

	return res, true
}

// maintainFoodCount adds a single food when below target (caller must hold mu)
func (w *World) maintainFoodCount() *Food {
	if len(w.Food) >= w.foodTarget {
		return nil
	}
	f, ok := w.spawner.Spawn(w.occupied())
	if !ok {
		return nil
	}
	w.Food = append(w.Food, f)
	return f
}

// occupied returns snake segments followed by food centres (caller must hold mu)
func (w *World) occupied() []Point {
	segs := w.Snake.Segments()
	pts := make([]Point, 0, len(segs)+len(w.Food))
	pts = append(pts, segs...)
	for _, f := range w.Food {
		pts = append(pts, f.Position())
	}
	return pts
}

// SetDirection forwards a heading request to the snake
func (w *World) SetDirection(h Heading) {
	w.Snake.SetDirection(h)
}

// Remaining returns the session time left, or 0 with ok=false when unlimited
func (w *World) Remaining() (time.Duration, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.remaining()
}

func (w *World) remaining() (time.Duration, bool) {
	if w.sessionLimit <= 0 {
		return 0, false
	}
	left := w.sessionLimit - w.Elapsed
	if left < 0 {
		left = 0
	}
	return left, true
}

// Snapshot is an immutable copy of the world for renderers and viewers.
type Snapshot struct {
	Tick        uint64
	Board       Board
	Segments    []Point
	SegmentSize float64
	SnakeColor  string
	Heading     Heading
	Food        []Food
	Score       int
	Elapsed     time.Duration
	Remaining   time.Duration
	Limited     bool
	Warning     bool
	State       LoopState
	Locked      bool
}

// Snapshot copies the current state under the world lock
func (w *World) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	food := make([]Food, len(w.Food))
	for i, f := range w.Food {
		food[i] = *f
	}
	snap := Snapshot{
		Tick:        w.Ticks,
		Board:       w.Board,
		Segments:    w.Snake.Segments(),
		SegmentSize: w.Snake.Size(),
		SnakeColor:  w.Snake.Color(),
		Heading:     w.Snake.Heading(),
		Food:        food,
		Score:       w.Score,
		Elapsed:     w.Elapsed,
	}
	snap.Remaining, snap.Limited = w.remaining()
	snap.Warning = snap.Limited && snap.Remaining > 0 && snap.Remaining <= w.warnWindow
	return snap
}

// Head returns the snapshot's head position
func (s Snapshot) Head() Point {
	if len(s.Segments) == 0 {
		return Point{}
	}
	return s.Segments[0]
}
