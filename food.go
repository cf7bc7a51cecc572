package main

import (
	"fmt"
	"math/rand"
)

// FoodClass groups food characters; each class has its own score.
type FoodClass int

const (
	ClassUpper FoodClass = iota // A-Z
	ClassLower                  // a-z
	ClassDigit                  // 0-9
	classCount
)

// Food is a character token placed on the board
type Food struct {
	ID    string
	X     float64
	Y     float64
	Size  float64
	Char  rune
	Color string
}

// newFood is the internal constructor; callers go through FoodSpawner
func newFood(id string, x, y, size float64, ch rune, rng *rand.Rand) *Food {
	return &Food{
		ID:    id,
		X:     x,
		Y:     y,
		Size:  size,
		Char:  ch,
		Color: foodColors[rng.Intn(len(foodColors))],
	}
}

// Position returns the food centre
func (f *Food) Position() Point {
	return Point{X: f.X, Y: f.Y}
}

// DistanceTo returns distance from food to a point
func (f *Food) DistanceTo(p Point) float64 {
	return f.Position().DistanceTo(p)
}

// Class returns the character class of the food
func (f *Food) Class() (FoodClass, bool) {
	return classOf(f.Char)
}

// Score returns the points awarded for eating f. Unknown characters score 0.
func (f *Food) Score() int {
	return ScoreFor(f.Char)
}

func (f *Food) String() string {
	return fmt.Sprintf("%s(%q @ %.0f,%.0f)", f.ID, f.Char, f.X, f.Y)
}

// ScoreFor returns the class score of ch
func ScoreFor(ch rune) int {
	class, ok := classOf(ch)
	if !ok {
		return 0
	}
	switch class {
	case ClassUpper:
		return ScoreUpper
	case ClassLower:
		return ScoreLower
	default:
		return ScoreDigit
	}
}

func classOf(ch rune) (FoodClass, bool) {
	switch {
	case ch >= 'A' && ch <= 'Z':
		return ClassUpper, true
	case ch >= 'a' && ch <= 'z':
		return ClassLower, true
	case ch >= '0' && ch <= '9':
		return ClassDigit, true
	}
	return 0, false
}

// randomFoodChar picks a class uniformly, then a character uniformly inside it.
func randomFoodChar(rng *rand.Rand) rune {
	switch FoodClass(rng.Intn(int(classCount))) {
	case ClassUpper:
		return 'A' + rune(rng.Intn(26))
	case ClassLower:
		return 'a' + rune(rng.Intn(26))
	default:
		return '0' + rune(rng.Intn(10))
	}
}

var foodColors = []string{
	"#ff6b6b", "#ffd93d", "#6bcb77", "#4d96ff", "#ff922b",
	"#cc5de8", "#20c997", "#f06595", "#74c0fc", "#a9e34b",
}
