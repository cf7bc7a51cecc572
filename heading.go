package main

// Heading is the axis-aligned direction of travel. Screen coordinates: y grows downward.
type Heading int

const (
	HeadingUp Heading = iota
	HeadingDown
	HeadingLeft
	HeadingRight
)

var headingNames = [...]string{"up", "down", "left", "right"}

// headingVectors maps each heading to its unit vector
var headingVectors = [...]Point{
	HeadingUp:    {X: 0, Y: -1},
	HeadingDown:  {X: 0, Y: 1},
	HeadingLeft:  {X: -1, Y: 0},
	HeadingRight: {X: 1, Y: 0},
}

var headingOpposites = [...]Heading{
	HeadingUp:    HeadingDown,
	HeadingDown:  HeadingUp,
	HeadingLeft:  HeadingRight,
	HeadingRight: HeadingLeft,
}

// Valid reports whether h is one of the four headings
func (h Heading) Valid() bool {
	return h >= HeadingUp && h <= HeadingRight
}

// Opposite returns the reverse heading
func (h Heading) Opposite() Heading {
	return headingOpposites[h]
}

// Vector returns the unit vector for h
func (h Heading) Vector() Point {
	return headingVectors[h]
}

func (h Heading) String() string {
	if !h.Valid() {
		return "unknown"
	}
	return headingNames[h]
}

// ParseHeading accepts the names produced by String, plus single-letter forms
func ParseHeading(s string) (Heading, bool) {
	switch s {
	case "up", "u":
		return HeadingUp, true
	case "down", "d":
		return HeadingDown, true
	case "left", "l":
		return HeadingLeft, true
	case "right", "r":
		return HeadingRight, true
	}
	return 0, false
}
