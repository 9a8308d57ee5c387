package server

import (
	"time"

	"github.com/cfoust/snake/pkg/game"
)

type Config struct {
	Description string
	Game        game.Settings
	TickMillis  int
	// Snapshots buffered per connection before the oldest is dropped
	SnapshotBuffer int
	// Capacity of the inbound event queue shared by all connections
	EventBuffer int
}

func DefaultConfig() Config {
	return Config{
		Description:    "snake",
		Game:           game.DefaultSettings(),
		TickMillis:     100,
		SnapshotBuffer: 4,
		EventBuffer:    256,
	}
}

func (c *Config) TickDuration() time.Duration {
	return time.Duration(c.TickMillis) * time.Millisecond
}
