package main

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// FoodSpawner places food at positions that keep MinFoodDistance from every
// occupied point and from the board edges.
type FoodSpawner struct {
	board       Board
	size        float64
	minDistance float64
	attempts    int
	rng         *rand.Rand
}

// NewFoodSpawner creates a spawner. A nil rng gets a time-seeded source.
func NewFoodSpawner(board Board, size, minDistance float64, attempts int, rng *rand.Rand) *FoodSpawner {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if attempts <= 0 {
		attempts = MaxSpawnAttempts
	}
	return &FoodSpawner{
		board:       board,
		size:        size,
		minDistance: minDistance,
		attempts:    attempts,
		rng:         rng,
	}
}

// Spawn tries up to the attempt budget to place one food clear of occupied.
// Returns false when no candidate fits; the caller retries on a later tick.
func (fs *FoodSpawner) Spawn(occupied []Point) (*Food, bool) {
	grid := NewSpatialGrid(fs.minDistance)
	grid.InsertAll(occupied)
	return fs.spawnInto(grid)
}

// Fill places up to n foods one after another, each clear of occupied and of
// the foods placed before it. Failed placements are skipped.
func (fs *FoodSpawner) Fill(occupied []Point, n int) []*Food {
	grid := NewSpatialGrid(fs.minDistance)
	grid.InsertAll(occupied)

	placed := make([]*Food, 0, n)
	for i := 0; i < n; i++ {
		f, ok := fs.spawnInto(grid)
		if !ok {
			continue
		}
		grid.Insert(f.Position())
		placed = append(placed, f)
	}
	return placed
}

func (fs *FoodSpawner) spawnInto(grid *SpatialGrid) (*Food, bool) {
	for i := 0; i < fs.attempts; i++ {
		p := fs.candidate()
		if !fs.board.InsetContains(p, fs.minDistance) {
			continue
		}
		if grid.AnyWithin(p, fs.minDistance) {
			continue
		}
		return newFood(uuid.NewString(), p.X, p.Y, fs.size, randomFoodChar(fs.rng), fs.rng), true
	}
	return nil, false
}

// candidate returns a random point kept two food sizes away from the edges when
// the board is large enough for that margin.
func (fs *FoodSpawner) candidate() Point {
	margin := fs.size * 2
	x := randomSpan(fs.rng, margin, fs.board.Width-margin, fs.board.Width)
	y := randomSpan(fs.rng, margin, fs.board.Height-margin, fs.board.Height)
	return Point{X: x, Y: y}
}

func randomSpan(rng *rand.Rand, lo, hi, dim float64) float64 {
	if hi <= lo {
		return rng.Float64() * dim
	}
	return lo + rng.Float64()*(hi-lo)
}
