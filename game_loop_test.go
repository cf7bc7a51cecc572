package main

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeSurface struct {
	mu         sync.Mutex
	acquireErr error
	drawErr    error
	drawPanic  bool
	frames     []Snapshot
	acquires   int
	releases   int
	closes     int
}

func (s *fakeSurface) Acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquires++
	return s.acquireErr
}

func (s *fakeSurface) Draw(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawPanic {
		panic("boom")
	}
	s.frames = append(s.frames, snap)
	return s.drawErr
}

func (s *fakeSurface) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases++
	return nil
}

func (s *fakeSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *fakeSurface) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *fakeSurface) lastFrame() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames[len(s.frames)-1]
}

type fakeAudio struct {
	mu     sync.Mutex
	played []rune
	closes int
}

func (a *fakeAudio) PlaySound(ch rune) {
	a.mu.Lock()
	a.played = append(a.played, ch)
	a.mu.Unlock()
}

func (a *fakeAudio) Close() error {
	a.mu.Lock()
	a.closes++
	a.mu.Unlock()
	return nil
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type iterHarness struct {
	gl    *GameLoop
	world *World
	surf  *fakeSurface
	audio *fakeAudio
	clock *fakeClock
	lt    *loopTiming
	done  chan struct{}
}

func newIterHarness(t *testing.T, cfg Config) *iterHarness {
	t.Helper()
	h := &iterHarness{
		world: newTestWorld(t, cfg),
		surf:  &fakeSurface{},
		audio: &fakeAudio{},
		clock: newFakeClock(),
		done:  make(chan struct{}),
	}
	h.gl = NewGameLoop(h.world, h.surf, h.audio, cfg)
	h.gl.clock = h.clock
	h.gl.state = StateRunning
	h.gl.done = h.done
	h.gl.cancel = func() {}
	h.lt = &loopTiming{lastUpdate: h.clock.Now()}
	h.lt.snap = h.gl.snapshot()
	return h
}

func (h *iterHarness) iterate(t *testing.T) time.Time {
	t.Helper()
	next, err := h.gl.iterate(context.Background(), h.done, h.lt)
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	return next
}

func TestIterateCadence(t *testing.T) {
	cfg := testConfig() // update 10ms, render 5ms
	h := newIterHarness(t, cfg)
	start := h.clock.Now()

	next := h.iterate(t)
	if h.world.Ticks != 0 || h.surf.frameCount() != 1 {
		t.Fatalf("first iteration: ticks=%d frames=%d", h.world.Ticks, h.surf.frameCount())
	}
	if want := start.Add(cfg.RenderPeriod); !next.Equal(want) {
		t.Errorf("next = %v, want %v", next.Sub(start), want.Sub(start))
	}

	h.clock.Advance(2 * time.Millisecond)
	h.iterate(t)
	if h.surf.frameCount() != 1 {
		t.Errorf("rendered early: frames=%d", h.surf.frameCount())
	}

	h.clock.Advance(3 * time.Millisecond)
	h.iterate(t)
	if h.world.Ticks != 0 || h.surf.frameCount() != 2 {
		t.Errorf("at 5ms: ticks=%d frames=%d", h.world.Ticks, h.surf.frameCount())
	}

	h.clock.Advance(5 * time.Millisecond)
	h.iterate(t)
	if h.world.Ticks != 1 || h.surf.frameCount() != 3 {
		t.Errorf("at 10ms: ticks=%d frames=%d", h.world.Ticks, h.surf.frameCount())
	}
	if got := h.surf.lastFrame().Tick; got != 1 {
		t.Errorf("frame after step shows tick %d", got)
	}
}

func TestIterateSkipsFrameWhenSurfaceUnavailable(t *testing.T) {
	h := newIterHarness(t, testConfig())
	h.surf.acquireErr = ErrSurfaceUnavailable

	for i := 0; i < 3; i++ {
		h.clock.Advance(10 * time.Millisecond)
		h.iterate(t)
	}
	if h.world.Ticks != 3 {
		t.Errorf("ticks = %d, the simulation must keep running", h.world.Ticks)
	}
	if h.surf.frameCount() != 0 || h.surf.releases != 0 {
		t.Errorf("frames=%d releases=%d without a surface", h.surf.frameCount(), h.surf.releases)
	}
	if !h.gl.surfaceDown.Load() {
		t.Error("surface outage not recorded")
	}

	h.surf.acquireErr = nil
	h.clock.Advance(10 * time.Millisecond)
	h.iterate(t)
	if h.surf.frameCount() != 1 || h.gl.surfaceDown.Load() {
		t.Errorf("surface back: frames=%d down=%v", h.surf.frameCount(), h.gl.surfaceDown.Load())
	}
}

func TestIterateDrawFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *fakeSurface)
		want  string
	}{
		{"error", func(s *fakeSurface) { s.drawErr = errors.New("gpu gone") }, "gpu gone"},
		{"panic", func(s *fakeSurface) { s.drawPanic = true }, "panic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newIterHarness(t, testConfig())
			tt.setup(h.surf)
			_, err := h.gl.iterate(context.Background(), h.done, h.lt)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("iterate error = %v, want %q", err, tt.want)
			}
			if h.surf.releases != 1 {
				t.Errorf("releases = %d, surface must be released after a failed draw", h.surf.releases)
			}
		})
	}
}

func TestIteratePlaysSoundForConsumedFood(t *testing.T) {
	h := newIterHarness(t, testConfig())
	placeAhead(h.world, 'k')

	h.clock.Advance(10 * time.Millisecond)
	h.iterate(t)
	if len(h.audio.played) != 1 || h.audio.played[0] != 'k' {
		t.Fatalf("played = %q, want [k]", h.audio.played)
	}
	if h.surf.lastFrame().Score != ScoreLower {
		t.Errorf("frame score = %d", h.surf.lastFrame().Score)
	}
}

func TestIterateLocksSessionAtLimit(t *testing.T) {
	cfg := testConfig()
	cfg.SessionLimit = 2 * cfg.UpdatePeriod
	h := newIterHarness(t, cfg)

	h.clock.Advance(10 * time.Millisecond)
	h.iterate(t)
	if h.gl.Locked() {
		t.Fatal("locked too early")
	}
	h.clock.Advance(10 * time.Millisecond)
	h.iterate(t)
	if !h.gl.Locked() || h.gl.State() != StatePaused {
		t.Fatalf("at the limit: locked=%v state=%v", h.gl.Locked(), h.gl.State())
	}
	last := h.surf.lastFrame()
	if !last.Locked || last.State != StatePaused {
		t.Errorf("final frame locked=%v state=%v", last.Locked, last.State)
	}
}

func TestGameLoopLifecycle(t *testing.T) {
	cfg := testConfig()
	world := newTestWorld(t, cfg)
	surf := &fakeSurface{}
	audio := &fakeAudio{}
	gl := NewGameLoop(world, surf, audio, cfg)

	if gl.State() != StateStopped {
		t.Fatalf("new loop state = %v", gl.State())
	}
	gl.Resume()
	if gl.State() != StateRunning {
		t.Fatalf("after Resume state = %v", gl.State())
	}
	gl.Resume() // no second goroutine
	waitFor(t, "ticks", func() bool { return gl.Snapshot().Tick >= 3 })

	gl.Pause()
	if gl.State() != StatePaused {
		t.Fatalf("after Pause state = %v", gl.State())
	}
	if last := surf.lastFrame(); last.State != StatePaused {
		t.Errorf("no pause frame, last frame state = %v", last.State)
	}
	tick := gl.Snapshot().Tick
	time.Sleep(5 * cfg.UpdatePeriod)
	if got := gl.Snapshot().Tick; got != tick {
		t.Fatalf("world advanced while paused: %d -> %d", tick, got)
	}
	gl.Pause()
	if gl.State() != StateStopped {
		t.Fatalf("second Pause: state = %v, want stopped", gl.State())
	}
	gl.Pause()
	if gl.State() != StateStopped {
		t.Fatalf("Pause on a stopped loop: state = %v", gl.State())
	}

	gl.Resume()
	waitFor(t, "ticks after resume", func() bool { return gl.Snapshot().Tick > tick })

	gl.Cleanup()
	gl.Cleanup()
	if gl.State() != StateStopped {
		t.Fatalf("after Cleanup state = %v", gl.State())
	}
	if surf.closes != 1 || audio.closes != 1 {
		t.Errorf("closes: surface=%d audio=%d, want 1 each", surf.closes, audio.closes)
	}
	gl.Resume()
	if gl.State() != StateStopped {
		t.Errorf("Resume after Cleanup started the loop")
	}
}

func TestPauseFrameFollowsLoopState(t *testing.T) {
	tests := []struct {
		name    string
		state   LoopState
		sameRun bool
		want    bool
	}{
		{"paused same run", StatePaused, true, true},
		{"resumed before frame", StateRunning, false, false},
		{"stopped before frame", StateStopped, true, false},
		{"paused newer run", StatePaused, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newIterHarness(t, testConfig())
			h.gl.state = tt.state
			if !tt.sameRun {
				h.gl.done = make(chan struct{})
			}
			snap, ok := h.gl.pauseFrame(h.done)
			if ok != tt.want {
				t.Fatalf("pauseFrame ok = %v, want %v", ok, tt.want)
			}
			if ok && snap.State != StatePaused {
				t.Errorf("pause frame stamped %v", snap.State)
			}
		})
	}
}

func TestGameLoopPausesOnDrawError(t *testing.T) {
	cfg := testConfig()
	surf := &fakeSurface{drawErr: errors.New("lost context")}
	gl := NewGameLoop(newTestWorld(t, cfg), surf, nil, cfg)

	gl.Resume()
	waitFor(t, "self pause", func() bool { return gl.State() == StatePaused })
	if gl.Locked() {
		t.Error("a draw error must not lock the session")
	}

	surf.mu.Lock()
	surf.drawErr = nil
	surf.mu.Unlock()
	gl.Resume()
	if gl.State() != StateRunning {
		t.Errorf("Resume after a draw error: state = %v", gl.State())
	}
	gl.Cleanup()
}

func TestGameLoopSessionLockIgnoresResume(t *testing.T) {
	cfg := testConfig()
	cfg.SessionLimit = 3 * cfg.UpdatePeriod
	surf := &fakeSurface{}
	gl := NewGameLoop(newTestWorld(t, cfg), surf, nil, cfg)

	gl.Resume()
	waitFor(t, "session lock", gl.Locked)
	waitFor(t, "pause", func() bool { return gl.State() == StatePaused })

	gl.Resume()
	if gl.State() != StatePaused {
		t.Errorf("Resume on a locked session: state = %v", gl.State())
	}
	waitFor(t, "locked frame", func() bool {
		return surf.frameCount() > 0 && surf.lastFrame().Locked
	})
	gl.Cleanup()
}

// blockingSurface stalls inside Draw until unblock is closed
type blockingSurface struct {
	nopSurface
	once    sync.Once
	started chan struct{}
	unblock chan struct{}
}

func (s *blockingSurface) Draw(Snapshot) error {
	s.once.Do(func() { close(s.started) })
	<-s.unblock
	return nil
}

func TestGameLoopPauseJoinTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.JoinTimeout = 20 * time.Millisecond
	surf := &blockingSurface{started: make(chan struct{}), unblock: make(chan struct{})}
	world := newTestWorld(t, cfg)
	gl := NewGameLoop(world, surf, nil, cfg)

	gl.Resume()
	<-surf.started

	begin := time.Now()
	gl.Pause()
	if took := time.Since(begin); took > time.Second {
		t.Fatalf("Pause blocked for %v", took)
	}
	if gl.State() != StatePaused {
		t.Fatalf("state = %v", gl.State())
	}

	tick := world.Snapshot().Tick
	close(surf.unblock)
	time.Sleep(5 * cfg.UpdatePeriod)
	if got := world.Snapshot().Tick; got != tick {
		t.Errorf("abandoned loop kept stepping: %d -> %d", tick, got)
	}
	gl.Cleanup()
}
