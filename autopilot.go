package main

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Autopilot tuning
const (
	pilotSeekLimit  = 90 // ticks chasing one food before giving up on it
	pilotWanderMin  = 20
	pilotWanderSpan = 30
	pilotBehindCost = 2.0 // distance multiplier for food behind the head
)

// Autopilot steers the snake toward food on its own. It plugs in as a Surface:
// every new frame is a chance to pick a heading, which then goes through the
// same DirectionSetter a player would use.
type Autopilot struct {
	target DirectionSetter
	rng    *rand.Rand

	mu          sync.Mutex
	lastTick    uint64
	seen        bool
	lastScore   int
	seekID      string
	seekTicks   int
	wanderTicks int
	wander      Heading
}

// NewAutopilot creates an autopilot driving target. A nil rng gets a
// time-seeded source.
func NewAutopilot(target DirectionSetter, rng *rand.Rand) *Autopilot {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Autopilot{target: target, rng: rng}
}

func (a *Autopilot) Acquire() error { return nil }
func (a *Autopilot) Release() error { return nil }
func (a *Autopilot) Close() error   { return nil }

// Draw decides once per simulation tick; repeated frames of the same tick are ignored
func (a *Autopilot) Draw(snap Snapshot) error {
	a.mu.Lock()
	if a.seen && snap.Tick == a.lastTick {
		a.mu.Unlock()
		return nil
	}
	a.seen = true
	a.lastTick = snap.Tick
	h, ok := a.decide(snap)
	a.mu.Unlock()

	if ok {
		a.target.SetDirection(h)
	}
	return nil
}

// decide picks a heading for snap. Caller must hold mu.
func (a *Autopilot) decide(snap Snapshot) (Heading, bool) {
	if len(snap.Segments) == 0 {
		return 0, false
	}
	head := snap.Head()

	// Ate something: the chase worked, start fresh
	if snap.Score > a.lastScore {
		a.seekTicks = 0
		a.seekID = ""
	}
	a.lastScore = snap.Score

	if a.wanderTicks > 0 {
		a.wanderTicks--
		return a.reachable(snap.Heading, a.wander), true
	}

	best, ok := nearestFood(snap, head)
	if !ok {
		return 0, false
	}
	if best.ID != a.seekID {
		a.seekID = best.ID
		a.seekTicks = 0
	}
	a.seekTicks++

	// Circling the same food for too long: break the orbit with a turn
	if a.seekTicks > pilotSeekLimit {
		a.seekTicks = 0
		a.seekID = ""
		a.wander = a.turn(snap.Heading)
		a.wanderTicks = pilotWanderMin + a.rng.Intn(pilotWanderSpan)
		return a.wander, true
	}

	dx, dy := torusDelta(snap.Board, head, best.Position())
	return a.reachable(snap.Heading, HeadingFromAngle(dx, dy)), true
}

// reachable replaces a reversal, which the snake would ignore, with a turn
func (a *Autopilot) reachable(current, want Heading) Heading {
	if want == current.Opposite() {
		return a.turn(current)
	}
	return want
}

// turn picks one of the two headings perpendicular to current
func (a *Autopilot) turn(current Heading) Heading {
	left := a.rng.Intn(2) == 0
	switch current {
	case HeadingUp, HeadingDown:
		if left {
			return HeadingLeft
		}
		return HeadingRight
	}
	if left {
		return HeadingUp
	}
	return HeadingDown
}

// nearestFood returns the cheapest food to reach. Food behind the head costs double.
func nearestFood(snap Snapshot, head Point) (Food, bool) {
	fwd := snap.Heading.Vector()
	bestCost := math.MaxFloat64
	var best Food
	found := false
	for _, f := range snap.Food {
		dx, dy := torusDelta(snap.Board, head, f.Position())
		cost := math.Hypot(dx, dy)
		if dx*fwd.X+dy*fwd.Y < 0 {
			cost *= pilotBehindCost
		}
		if cost < bestCost {
			bestCost = cost
			best = f
			found = true
		}
	}
	return best, found
}

// torusDelta is the shortest offset from a to b on a wrapping board
func torusDelta(b Board, from, to Point) (float64, float64) {
	return shortestAxis(to.X-from.X, b.Width), shortestAxis(to.Y-from.Y, b.Height)
}

func shortestAxis(d, dim float64) float64 {
	if dim <= 0 {
		return d
	}
	if d > dim/2 {
		return d - dim
	}
	if d < -dim/2 {
		return d + dim
	}
	return d
}
