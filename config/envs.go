package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application's configuration values.
type Config struct {
	HostIP   string `env:"HOST_IP" envDefault:"0.0.0.0"` // Interface both servers bind to
	GrpcPort int    `env:"GRPC_PORT" envDefault:"50051"` // Port for the GRPC server
	WSPort   int    `env:"WS_PORT" envDefault:"8080"`    // Port for the websocket/HTTP server

	TickInterval   time.Duration `env:"TICK_INTERVAL" envDefault:"250ms"` // How often rooms advance their phase clock
	MaxRoomPlayers int           `env:"MAX_ROOM_PLAYERS" envDefault:"8"`  // Upper bound on players per room
	RoomRounds     int           `env:"ROOM_ROUNDS" envDefault:"0"`       // Play phases per room; 0 runs until shutdown
	WSReadLimit    int64         `env:"WS_READ_LIMIT" envDefault:"4096"`  // Largest accepted client frame (in bytes)
	IntentRate     float64       `env:"INTENT_RATE" envDefault:"20"`      // Sustained intents per second per player
	IntentBurst    int           `env:"INTENT_BURST" envDefault:"40"`     // Intent burst per player
	WSWriteTimeout time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"2s"` // Deadline for a single websocket write

	TuningFile string `env:"TUNING_FILE"` // Optional YAML file overriding game rules
	JournalDir string `env:"JOURNAL_DIR"` // Directory for round journals; empty disables journaling
}

// Envs holds the application's configuration loaded from environment variables.
var Envs = initConfig()

// initConfig initializes and returns the application configuration.
// It loads environment variables from a .env file.
func initConfig() Config {
	// Load .env file if available
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}

	c, err := Load()
	if err != nil {
		log.Fatalf("%s[APP]%s %s[FATAL]%s %v", ColorGreen, ColorReset, ColorRed, ColorReset, err)
	}
	return c
}

// Load parses the process environment into a Config and checks it.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}
	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) validate() error {
	switch {
	case c.GrpcPort <= 0 || c.WSPort <= 0:
		return fmt.Errorf("ports must be positive: grpc=%d ws=%d", c.GrpcPort, c.WSPort)
	case c.GrpcPort == c.WSPort:
		return fmt.Errorf("GRPC_PORT and WS_PORT must differ, both are %d", c.GrpcPort)
	case c.TickInterval <= 0:
		return fmt.Errorf("TICK_INTERVAL must be positive, got %v", c.TickInterval)
	case c.MaxRoomPlayers < 1:
		return fmt.Errorf("MAX_ROOM_PLAYERS must be at least 1, got %d", c.MaxRoomPlayers)
	case c.RoomRounds < 0:
		return fmt.Errorf("ROOM_ROUNDS must not be negative, got %d", c.RoomRounds)
	case c.IntentRate <= 0 || c.IntentBurst < 1:
		return fmt.Errorf("intent limiter needs a positive rate and burst, got %v/%d", c.IntentRate, c.IntentBurst)
	}
	return nil
}
