package main

import (
	"errors"
	"fmt"
	"sync"
)

// ErrSurfaceUnavailable is returned by Acquire when there is nothing to draw on.
// The loop skips the frame and tries again next iteration.
var ErrSurfaceUnavailable = errors.New("surface unavailable")

// Surface is a render target driven by the game loop: Acquire, Draw, Release
// once per frame, Close once at cleanup.
type Surface interface {
	Acquire() error
	Draw(snap Snapshot) error
	Release() error
	Close() error
}

// AudioSink receives consumption events. PlaySound must not block.
type AudioSink interface {
	PlaySound(ch rune)
	Close() error
}

// MultiSurface fans one frame out to several surfaces. A member that fails to
// acquire is skipped for that frame; the frame is unavailable only when every
// member is. A frame holds the MultiSurface from Acquire until Release.
type MultiSurface struct {
	mu       sync.Mutex
	surfaces []Surface
	active   []bool
}

// NewMultiSurface combines surfaces, ignoring nil entries
func NewMultiSurface(surfaces ...Surface) *MultiSurface {
	ms := &MultiSurface{}
	for _, s := range surfaces {
		if s != nil {
			ms.surfaces = append(ms.surfaces, s)
		}
	}
	ms.active = make([]bool, len(ms.surfaces))
	return ms
}

func (ms *MultiSurface) Acquire() error {
	ms.mu.Lock()
	ok := 0
	var errs []error
	for i, s := range ms.surfaces {
		err := s.Acquire()
		ms.active[i] = err == nil
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ok++
	}
	if ok == 0 {
		ms.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrSurfaceUnavailable, errors.Join(errs...))
	}
	return nil
}

func (ms *MultiSurface) Draw(snap Snapshot) error {
	var errs []error
	for i, s := range ms.surfaces {
		if !ms.active[i] {
			continue
		}
		if err := s.Draw(snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ms *MultiSurface) Release() error {
	defer ms.mu.Unlock()
	var errs []error
	for i, s := range ms.surfaces {
		if !ms.active[i] {
			continue
		}
		ms.active[i] = false
		if err := s.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ms *MultiSurface) Close() error {
	var errs []error
	for _, s := range ms.surfaces {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// nopSurface discards frames; used when running headless without viewers
type nopSurface struct{}

func (nopSurface) Acquire() error      { return nil }
func (nopSurface) Draw(Snapshot) error { return nil }
func (nopSurface) Release() error      { return nil }
func (nopSurface) Close() error        { return nil }

// nopAudio discards sounds
type nopAudio struct{}

func (nopAudio) PlaySound(rune) {}
func (nopAudio) Close() error   { return nil }
