package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// LoopState is the scheduler lifecycle state
type LoopState int32

const (
	StateStopped LoopState = iota
	StateRunning
	StatePaused
)

func (s LoopState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	}
	return "unknown"
}

// GameLoop drives the world at a fixed update period and draws on a separate,
// faster render period. Lifecycle: Stopped -> Running <-> Paused -> Stopped.
type GameLoop struct {
	world   *World
	surface Surface
	audio   AudioSink
	clock   Clock

	updatePeriod time.Duration
	renderPeriod time.Duration
	joinTimeout  time.Duration
	warnInterval time.Duration

	mu     sync.Mutex // guards the lifecycle fields below
	state  LoopState
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
	locked bool

	surfaceDown atomic.Bool
}

// NewGameLoop creates a stopped loop bound to world, surface and audio.
// Nil surface or audio fall back to no-op implementations.
func NewGameLoop(world *World, surface Surface, audio AudioSink, cfg Config) *GameLoop {
	if surface == nil {
		surface = nopSurface{}
	}
	if audio == nil {
		audio = nopAudio{}
	}
	return &GameLoop{
		world:        world,
		surface:      surface,
		audio:        audio,
		clock:        systemClock{},
		updatePeriod: cfg.UpdatePeriod,
		renderPeriod: cfg.RenderPeriod,
		joinTimeout:  cfg.JoinTimeout,
		warnInterval: cfg.WarningInterval,
	}
}

// State returns the current lifecycle state
func (gl *GameLoop) State() LoopState {
	gl.mu.Lock()
	defer gl.mu.Unlock()
	return gl.state
}

// Locked reports whether the session limit has been reached
func (gl *GameLoop) Locked() bool {
	gl.mu.Lock()
	defer gl.mu.Unlock()
	return gl.locked
}

// Resume starts (or restarts) the loop goroutine. It does nothing when the loop
// is already running, has been cleaned up, or the session is locked.
func (gl *GameLoop) Resume() {
	gl.mu.Lock()
	defer gl.mu.Unlock()

	switch {
	case gl.closed:
		log.Printf("resume ignored: game loop cleaned up")
		return
	case gl.locked:
		log.Printf("resume ignored: session limit reached")
		return
	case gl.state == StateRunning:
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	gl.cancel = cancel
	gl.done = done
	gl.state = StateRunning
	go gl.run(ctx, done)
}

// Pause stops the loop goroutine and waits up to the join timeout for it to
// exit. Pausing an already paused loop stops it; a stopped loop can still be
// resumed until Cleanup. Safe to call repeatedly and from any goroutine.
func (gl *GameLoop) Pause() {
	gl.mu.Lock()
	switch gl.state {
	case StatePaused:
		gl.state = StateStopped
		gl.mu.Unlock()
		log.Printf("game loop stopped")
		return
	case StateStopped:
		gl.mu.Unlock()
		return
	}
	gl.state = StatePaused
	cancel, done := gl.cancel, gl.done
	gl.mu.Unlock()

	cancel()
	if !gl.join(done) {
		return
	}
	log.Printf("game loop paused")
	if snap, ok := gl.pauseFrame(done); ok {
		if err := gl.render(snap); err != nil {
			log.Printf("pause frame: %v", err)
		}
	}
}

// pauseFrame snapshots the world for the frame shown after a pause. ok is
// false once another Resume or Pause has moved the loop on from the run that
// done belongs to.
func (gl *GameLoop) pauseFrame(done chan struct{}) (snap Snapshot, ok bool) {
	snap = gl.world.Snapshot()
	gl.mu.Lock()
	defer gl.mu.Unlock()
	if gl.state != StatePaused || gl.done != done {
		return snap, false
	}
	snap.State = gl.state
	snap.Locked = gl.locked
	return snap, true
}

// Cleanup pauses the loop and releases the surface and audio sink. The loop
// cannot be resumed afterwards. Safe to call more than once.
func (gl *GameLoop) Cleanup() {
	gl.Pause()

	gl.mu.Lock()
	if gl.closed {
		gl.mu.Unlock()
		return
	}
	gl.closed = true
	gl.state = StateStopped
	gl.mu.Unlock()

	if err := gl.surface.Close(); err != nil {
		log.Printf("surface close error: %v", err)
	}
	if err := gl.audio.Close(); err != nil {
		log.Printf("audio close error: %v", err)
	}
	log.Printf("game loop cleaned up")
}

// join waits for the loop goroutine to exit. On timeout the goroutine is
// abandoned; its context is already cancelled so World.Step refuses to run,
// and taking the world lock waits out a step that was already in flight.
// Reports false when the goroutine had to be abandoned.
func (gl *GameLoop) join(done <-chan struct{}) bool {
	timer := time.NewTimer(gl.joinTimeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
	}
	log.Printf("warning: game loop did not stop within %v, abandoning it", gl.joinTimeout)
	gl.world.mu.Lock()
	gl.world.mu.Unlock()
	return false
}

// requestPause is the loop goroutine's own way out: it cancels without joining.
// It is ignored when done no longer belongs to the current run.
func (gl *GameLoop) requestPause(done chan struct{}) {
	gl.mu.Lock()
	defer gl.mu.Unlock()
	if gl.done != done || gl.state != StateRunning {
		return
	}
	gl.state = StatePaused
	gl.cancel()
}

// lockSession pauses the loop for good once the session limit is hit
func (gl *GameLoop) lockSession(done chan struct{}) {
	gl.mu.Lock()
	gl.locked = true
	gl.mu.Unlock()
	gl.requestPause(done)
}

// loopTiming is per-run bookkeeping owned by the loop goroutine
type loopTiming struct {
	lastUpdate time.Time
	lastRender time.Time
	lastWarn   time.Time
	snap       Snapshot
}

// run is the loop goroutine body
func (gl *GameLoop) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	log.Printf("game loop started: update every %v, render every %v", gl.updatePeriod, gl.renderPeriod)

	lt := &loopTiming{lastUpdate: gl.clock.Now()}
	lt.snap = gl.snapshot()

	timer := time.NewTimer(0)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return
		}

		next, err := gl.iterate(ctx, done, lt)
		if err != nil {
			log.Printf("game loop error, pausing: %v", err)
			gl.requestPause(done)
			return
		}

		wait := next.Sub(gl.clock.Now())
		if wait < 0 {
			wait = 0
		}
		if wait > gl.renderPeriod {
			wait = gl.renderPeriod
		}
		timer.Reset(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}
	}
}

// iterate runs one loop iteration: a simulation step when the update period
// has elapsed, then a render when one is due. It returns the time the next
// iteration should start. Panics are turned into errors.
func (gl *GameLoop) iterate(ctx context.Context, done chan struct{}, lt *loopTiming) (next time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in game loop: %v", r)
		}
	}()

	now := gl.clock.Now()
	stepped := false

	if now.Sub(lt.lastUpdate) >= gl.updatePeriod {
		res, ok := gl.world.Step(ctx)
		if !ok {
			return now, nil
		}
		lt.lastUpdate = now
		stepped = true

		if res.Consumed != nil {
			gl.audio.PlaySound(res.Consumed.Char)
		}

		lt.snap = gl.snapshot()
		if gl.checkSessionLimit(done, lt, now) {
			lt.snap = gl.snapshot()
			lt.lastRender = now
			return now, gl.render(lt.snap)
		}
	}

	if stepped || lt.lastRender.IsZero() || now.Sub(lt.lastRender) >= gl.renderPeriod {
		lt.lastRender = now
		if err := gl.render(lt.snap); err != nil {
			return now, err
		}
	}

	next = lt.lastUpdate.Add(gl.updatePeriod)
	if r := lt.lastRender.Add(gl.renderPeriod); r.Before(next) {
		next = r
	}
	return next, nil
}

// checkSessionLimit logs periodic warnings and locks the session at the limit.
// Reports true when the session was locked.
func (gl *GameLoop) checkSessionLimit(done chan struct{}, lt *loopTiming, now time.Time) bool {
	snap := lt.snap
	if !snap.Limited {
		return false
	}
	if snap.Remaining <= 0 {
		log.Printf("session limit reached after %v, score %d; locking", snap.Elapsed, snap.Score)
		gl.lockSession(done)
		return true
	}
	if snap.Warning && (lt.lastWarn.IsZero() || now.Sub(lt.lastWarn) >= gl.warnInterval) {
		lt.lastWarn = now
		log.Printf("session ends in %v", snap.Remaining.Round(time.Second))
	}
	return false
}

// render draws one frame. An unavailable surface skips the frame; a draw
// failure is returned so the loop pauses. The surface is released even when
// Draw panics.
func (gl *GameLoop) render(snap Snapshot) error {
	if err := gl.surface.Acquire(); err != nil {
		if gl.surfaceDown.CompareAndSwap(false, true) {
			log.Printf("surface unavailable, skipping frames from %d: %v", snap.Tick, err)
		}
		return nil
	}
	if gl.surfaceDown.CompareAndSwap(true, false) {
		log.Printf("surface available again at frame %d", snap.Tick)
	}
	defer func() {
		if err := gl.surface.Release(); err != nil {
			log.Printf("surface release error: %v", err)
		}
	}()
	if err := gl.surface.Draw(snap); err != nil {
		return fmt.Errorf("draw frame %d: %w", snap.Tick, err)
	}
	return nil
}

// snapshot copies the world and stamps the loop state on it
func (gl *GameLoop) snapshot() Snapshot {
	snap := gl.world.Snapshot()
	gl.mu.Lock()
	snap.State = gl.state
	snap.Locked = gl.locked
	gl.mu.Unlock()
	return snap
}

// Snapshot returns the latest world state for readers outside the loop
func (gl *GameLoop) Snapshot() Snapshot {
	return gl.snapshot()
}
