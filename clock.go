package main

import "time"

// Clock supplies wall-clock readings to the game loop
type Clock interface {
	Now() time.Time
}

// systemClock is the real monotonic clock
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
