package main

import (
	"os"
	"time"
)

// Game configuration constants
const (
	// Server
	ServerAddr     = ":8080"
	StaticDir      = "./client"
	WebSocketPath  = "/ws"
	MaxViewers     = 16
	ViewerCooldown = 2 * time.Second // per-IP reconnect cooldown

	// Board: default size in world units. Terminal mode rescales to the screen.
	// Edges wrap (torus), they never kill.
	BoardWidth  = 1920.0
	BoardHeight = 1080.0

	// Game loop
	UpdateRate   = 30 // simulation ticks per second
	RenderRate   = 60 // draw attempts per second
	JoinTimeout  = 50 * time.Millisecond
	UpdatePeriod = time.Second / UpdateRate
	RenderPeriod = time.Second / RenderRate

	// Snake
	SnakeInitSegments = 5    // starting segments, spaced one SegmentSize apart
	SegmentSize       = 80.0 // segment diameter
	SnakeSpeedFactor  = 0.25 // fraction of SegmentSize travelled per tick
	SnakeGrowSegments = 2    // tail clones appended per food eaten

	// CollisionFactor scales (segment + food size) into the eat threshold.
	CollisionFactor = 0.6

	// Food
	FoodCount        = 8
	FoodSize         = 80.0
	MinFoodDistance  = 150.0
	MaxSpawnAttempts = 100

	// Food score per character class
	ScoreUpper = 30 // A-Z
	ScoreLower = 20 // a-z
	ScoreDigit = 10 // 0-9

	// Session limit counts running time only; pauses are free.
	SessionLimit    = 5 * time.Minute
	WarningWindow   = time.Minute
	WarningInterval = 15 * time.Second

	// Directional control pad, relative to the shorter board side.
	PadRadiusRatio = 0.2
	PadTouchSlack  = 1.2 // touch area multiplier on the pad radius

	// Audio
	AudioSampleRate = 44100
	AudioToneLength = 120 * time.Millisecond
	AudioQueueSize  = 8
)

// Player colors palette
var PlayerColors = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#f39c12", "#9b59b6",
	"#1abc9c", "#e67e22", "#e91e63", "#00bcd4", "#8bc34a",
	"#ff5722", "#607d8b", "#ffeb3b", "#ff9800", "#03a9f4",
}

// Config collects the tunables a session is built from. DefaultConfig fills it
// from the constants above; main overrides fields from flags and env.
type Config struct {
	Mode      string
	Addr      string
	StaticDir string
	LogFile   string
	Mute      bool

	BoardWidth  float64
	BoardHeight float64

	UpdatePeriod time.Duration
	RenderPeriod time.Duration
	JoinTimeout  time.Duration

	SegmentSize     float64
	SpeedFactor     float64
	FoodSize        float64
	FoodCount       int
	MinFoodDistance float64
	SpawnAttempts   int

	SessionLimit    time.Duration
	WarningWindow   time.Duration
	WarningInterval time.Duration
}

// DefaultConfig returns the stock configuration with env overrides applied.
func DefaultConfig() Config {
	cfg := Config{
		Mode:            "terminal",
		Addr:            ServerAddr,
		StaticDir:       StaticDir,
		BoardWidth:      BoardWidth,
		BoardHeight:     BoardHeight,
		UpdatePeriod:    UpdatePeriod,
		RenderPeriod:    RenderPeriod,
		JoinTimeout:     JoinTimeout,
		SegmentSize:     SegmentSize,
		SpeedFactor:     SnakeSpeedFactor,
		FoodSize:        FoodSize,
		FoodCount:       FoodCount,
		MinFoodDistance: MinFoodDistance,
		SpawnAttempts:   MaxSpawnAttempts,
		SessionLimit:    SessionLimit,
		WarningWindow:   WarningWindow,
		WarningInterval: WarningInterval,
	}
	if env := os.Getenv("SNAKE_ADDR"); env != "" {
		cfg.Addr = env
	}
	if env := os.Getenv("SNAKE_STATIC_DIR"); env != "" {
		cfg.StaticDir = env
	}
	return cfg
}

// Speed returns the distance the head travels per tick.
func (c Config) Speed() float64 {
	return c.SegmentSize * c.SpeedFactor
}
