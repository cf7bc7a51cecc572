package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
)

const shutdownTimeout = 2 * time.Second

func main() {
	cfg := DefaultConfig()
	var (
		autopilot bool
		steer     bool
	)
	flag.StringVar(&cfg.Mode, "mode", cfg.Mode, "terminal, server or both")
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address for server mode (env SNAKE_ADDR)")
	flag.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "web client directory (env SNAKE_STATIC_DIR)")
	flag.Float64Var(&cfg.BoardWidth, "width", cfg.BoardWidth, "board width in world units")
	flag.Float64Var(&cfg.BoardHeight, "height", cfg.BoardHeight, "board height in world units")
	flag.DurationVar(&cfg.SessionLimit, "limit", cfg.SessionLimit, "session time limit, 0 disables it")
	flag.BoolVar(&cfg.Mute, "mute", cfg.Mute, "disable sound")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "log file (terminal mode discards logs without one)")
	flag.BoolVar(&autopilot, "autopilot", false, "let the snake steer itself")
	flag.BoolVar(&steer, "steer", false, "pointer steers from anywhere instead of only on the pad")
	flag.Parse()

	if err := run(cfg, autopilot, steer); err != nil {
		fmt.Fprintf(os.Stderr, "letter-snake: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg Config, autopilot, steer bool) error {
	withTerminal, withServer, err := parseMode(cfg.Mode)
	if err != nil {
		return err
	}
	if cfg.BoardWidth <= 0 || cfg.BoardHeight <= 0 {
		return fmt.Errorf("board must be positive, got %.0fx%.0f", cfg.BoardWidth, cfg.BoardHeight)
	}

	closeLog, err := setupLogging(cfg.LogFile, withTerminal)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	world := NewWorld(cfg, nil)
	pad := NewControlPad(world.Board)
	scheme := SchemePad
	if steer {
		scheme = SchemeSteer
	}
	input := NewInputMapper(world, pad, scheme)

	var surfaces []Surface
	var screen tcell.Screen
	var term *TerminalSurface
	if withTerminal {
		screen, err = tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("open terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("init terminal: %w", err)
		}
		screen.EnableMouse()
		screen.HideCursor()
		term = NewTerminalSurface(screen, world.Board, pad)
		surfaces = append(surfaces, term)
	}

	var srv *http.Server
	if withServer {
		hub := NewHub(world.Board, input, MaxViewers, ViewerCooldown)
		surfaces = append(surfaces, hub)

		mux := http.NewServeMux()
		mux.Handle(WebSocketPath, hub)
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
		srv = &http.Server{Addr: cfg.Addr, Handler: mux}

		go func() {
			log.Printf("server listening on %s (session %s, board %.0fx%.0f)", cfg.Addr, hub.Session, world.Board.Width, world.Board.Height)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("server error: %v", err)
				stop()
			}
		}()
	}

	if autopilot {
		surfaces = append(surfaces, NewAutopilot(input, nil))
	}

	var audio AudioSink
	if !cfg.Mute {
		tones, err := NewToneAudio(AudioSampleRate)
		if err != nil {
			log.Printf("audio disabled: %v", err)
		} else {
			audio = tones
		}
	}

	loop := NewGameLoop(world, NewMultiSurface(surfaces...), audio, cfg)
	loop.Resume()

	if withTerminal {
		go func() {
			RunTerminalInput(screen, term, input, loop)
			stop()
		}()
	}

	<-ctx.Done()

	snap := loop.Snapshot()
	loop.Cleanup()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}
	log.Printf("final score %d after %v", snap.Score, snap.Elapsed.Round(time.Second))
	if withTerminal {
		fmt.Printf("Score: %d  Time: %s\n", snap.Score, formatClock(snap.Elapsed))
	}
	return nil
}

// parseMode maps -mode to the surfaces to open
func parseMode(mode string) (terminal, server bool, err error) {
	switch mode {
	case "terminal":
		return true, false, nil
	case "server":
		return false, true, nil
	case "both":
		return true, true, nil
	}
	return false, false, fmt.Errorf("unknown mode %q (want terminal, server or both)", mode)
}

// setupLogging points the standard logger at path. Without a path, terminal
// mode discards logs since they would tear the screen.
func setupLogging(path string, terminal bool) (func(), error) {
	if path == "" {
		if terminal {
			log.SetOutput(io.Discard)
		}
		return func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return func() { f.Close() }, nil
}
