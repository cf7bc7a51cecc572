package main

import "math"

// cellKey uniquely identifies a grid cell
type cellKey struct {
	cx, cy int
}

// SpatialGrid is a hash grid of points for fast "anything within r?" queries.
// The food spawner builds one per placement from the occupied set.
type SpatialGrid struct {
	cells    map[cellKey][]Point
	cellSize float64
	count    int
}

// NewSpatialGrid creates an empty spatial grid
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &SpatialGrid{
		cells:    make(map[cellKey][]Point),
		cellSize: cellSize,
	}
}

// Clear resets all cells
func (g *SpatialGrid) Clear() {
	g.cells = make(map[cellKey][]Point)
	g.count = 0
}

// Len returns the number of inserted points
func (g *SpatialGrid) Len() int {
	return g.count
}

func (g *SpatialGrid) keyFor(x, y float64) cellKey {
	return cellKey{
		cx: int(math.Floor(x / g.cellSize)),
		cy: int(math.Floor(y / g.cellSize)),
	}
}

// Insert adds a point to the grid
func (g *SpatialGrid) Insert(p Point) {
	k := g.keyFor(p.X, p.Y)
	g.cells[k] = append(g.cells[k], p)
	g.count++
}

// InsertAll adds every point of ps
func (g *SpatialGrid) InsertAll(ps []Point) {
	for _, p := range ps {
		g.Insert(p)
	}
}

// AnyWithin reports whether some inserted point lies strictly closer than radius to p
func (g *SpatialGrid) AnyWithin(p Point, radius float64) bool {
	minCX := int(math.Floor((p.X - radius) / g.cellSize))
	maxCX := int(math.Floor((p.X + radius) / g.cellSize))
	minCY := int(math.Floor((p.Y - radius) / g.cellSize))
	maxCY := int(math.Floor((p.Y + radius) / g.cellSize))

	r2 := radius * radius
	for cx := minCX; cx <= maxCX; cx++ {
		for cy := minCY; cy <= maxCY; cy++ {
			for _, e := range g.cells[cellKey{cx, cy}] {
				dx := e.X - p.X
				dy := e.Y - p.Y
				if dx*dx+dy*dy < r2 {
					return true
				}
			}
		}
	}
	return false
}
