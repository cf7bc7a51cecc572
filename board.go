package main

import "math"

// Point is a 2D coordinate
type Point struct {
	X float64
	Y float64
}

// Add returns p moved by v scaled by k
func (p Point) Add(v Point, k float64) Point {
	return Point{X: p.X + v.X*k, Y: p.Y + v.Y*k}
}

// DistanceTo returns the Euclidean distance between two points
func (p Point) DistanceTo(o Point) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Board is the playing field. Coordinates wrap on both axes.
type Board struct {
	Width  float64
	Height float64
}

// NewBoard creates a board of the given size
func NewBoard(width, height float64) Board {
	return Board{Width: width, Height: height}
}

// Center returns the middle of the board
func (b Board) Center() Point {
	return Point{X: b.Width / 2, Y: b.Height / 2}
}

// Wrap folds p back onto the board. Each axis is handled independently;
// a coordinate outside [0, dim] re-enters from the opposite edge by the overflow amount.
func (b Board) Wrap(p Point) Point {
	return Point{X: wrapAxis(p.X, b.Width), Y: wrapAxis(p.Y, b.Height)}
}

// InsetContains reports whether p lies at least margin away from every edge
func (b Board) InsetContains(p Point, margin float64) bool {
	return p.X >= margin && p.X <= b.Width-margin &&
		p.Y >= margin && p.Y <= b.Height-margin
}

func wrapAxis(v, dim float64) float64 {
	if dim <= 0 || (v >= 0 && v <= dim) {
		return v
	}
	v = math.Mod(v, dim)
	if v < 0 {
		v += dim
	}
	return v
}
