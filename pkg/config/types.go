package config

import (
	"time"

	"github.com/cfoust/snake/pkg/game"
	"github.com/cfoust/snake/pkg/registry"
	"github.com/cfoust/snake/pkg/server"
)

type WebSettings struct {
	Enabled bool
	Address string
}

type ServerSettings struct {
	Address            string
	Description        string
	TickMillis         int
	SnapshotBuffer     int
	EventBuffer        int
	MaxFrameBytes      uint64
	IdleTimeoutSeconds int
	Game               game.Settings
	Web                WebSettings
	Redis              registry.Settings
}

// Simulation is the part of the settings the tick loop needs.
func (s *ServerSettings) Simulation() server.Config {
	return server.Config{
		Description:    s.Description,
		Game:           s.Game,
		TickMillis:     s.TickMillis,
		SnapshotBuffer: s.SnapshotBuffer,
		EventBuffer:    s.EventBuffer,
	}
}

func (s *ServerSettings) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

type ClientSettings struct {
	Username string `json:"username"`
	Address  string `json:"address"`
	Fancy    bool   `json:"fancy"`
}

type Config struct {
	Server ServerSettings
	Client ClientSettings
}
