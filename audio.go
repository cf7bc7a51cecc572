package main

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

// ToneAudio plays a short synthesized tone per eaten character.
// PlaySound only queues; a worker goroutine builds streamers and hands them to
// the mixer, so the game loop never waits on audio.
type ToneAudio struct {
	rate    beep.SampleRate
	length  time.Duration
	queue   chan rune
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
	play    func(beep.Streamer)
	release func()
	dropped atomic.Int64
}

// NewToneAudio initializes the speaker and starts the playback worker
func NewToneAudio(sampleRate int) (*ToneAudio, error) {
	rate := beep.SampleRate(sampleRate)
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	mixer := &beep.Mixer{}
	speaker.Play(mixer)

	play := func(s beep.Streamer) {
		speaker.Lock()
		mixer.Add(s)
		speaker.Unlock()
	}
	release := func() {
		speaker.Lock()
		mixer.Clear()
		speaker.Unlock()
		speaker.Close()
	}
	return newToneAudio(rate, play, release), nil
}

// newToneAudio wires a ToneAudio to an arbitrary sink
func newToneAudio(rate beep.SampleRate, play func(beep.Streamer), release func()) *ToneAudio {
	a := &ToneAudio{
		rate:    rate,
		length:  AudioToneLength,
		queue:   make(chan rune, AudioQueueSize),
		done:    make(chan struct{}),
		play:    play,
		release: release,
	}
	a.wg.Add(1)
	go a.worker()
	return a
}

// PlaySound queues ch. When the queue is full or the sink is closed the sound is dropped.
func (a *ToneAudio) PlaySound(ch rune) {
	select {
	case <-a.done:
		return
	default:
	}
	select {
	case a.queue <- ch:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns how many sounds were discarded because the queue was full
func (a *ToneAudio) Dropped() int64 {
	return a.dropped.Load()
}

// Close stops the worker and silences the mixer. Safe to call more than once.
func (a *ToneAudio) Close() error {
	a.once.Do(func() {
		close(a.done)
		a.wg.Wait()
		if a.release != nil {
			a.release()
		}
	})
	return nil
}

func (a *ToneAudio) worker() {
	defer a.wg.Done()
	for {
		select {
		case <-a.done:
			return
		case ch := <-a.queue:
			s, err := CharTone(ch, a.rate, a.length)
			if err != nil {
				continue
			}
			a.play(s)
		}
	}
}

// CharTone builds the tone for ch. Letters of either case share a pitch on a
// chromatic scale from A3; digits play a rising two-note chirp.
func CharTone(ch rune, rate beep.SampleRate, length time.Duration) (beep.Streamer, error) {
	ch = unicode.ToUpper(ch)
	switch {
	case ch >= 'A' && ch <= 'Z':
		freq := 220 * math.Pow(2, float64(ch-'A')/12)
		return note(freq, length, rate)
	case ch >= '0' && ch <= '9':
		base := 523.25 * math.Pow(2, float64(ch-'0')/12)
		first, err := note(base, length/2, rate)
		if err != nil {
			return nil, err
		}
		second, err := note(base*1.5, length/2, rate)
		if err != nil {
			return nil, err
		}
		return beep.Seq(first, second), nil
	}
	return nil, fmt.Errorf("no tone for %q", ch)
}

// note is a sine tone of the given length with a linear decay, at half volume
func note(freq float64, length time.Duration, rate beep.SampleRate) (beep.Streamer, error) {
	sine, err := generators.SineTone(rate, freq)
	if err != nil {
		return nil, fmt.Errorf("sine %.1fHz: %w", freq, err)
	}
	n := rate.N(length)
	shaped := &decay{streamer: beep.Take(n, sine), total: n}
	return &effects.Volume{Streamer: shaped, Base: 2, Volume: -1}, nil
}

// decay fades a stream linearly to silence over total samples
type decay struct {
	streamer beep.Streamer
	pos      int
	total    int
}

func (d *decay) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = d.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		vol := 1 - float64(d.pos)/float64(d.total)
		if vol < 0 {
			vol = 0
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		d.pos++
	}
	return n, ok
}

func (d *decay) Err() error { return d.streamer.Err() }
