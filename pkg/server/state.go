package server

import (
	"time"
)

// Status is a read-only summary built from the latest snapshot, safe to
// produce outside of the simulation loop.
type Status struct {
	Description string    `json:"description"`
	Tick        uint64    `json:"tick"`
	Players     []string  `json:"players"`
	MaxPlayers  int       `json:"maxPlayers"`
	Food        int       `json:"food"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Paused      bool      `json:"paused"`
	Subscribers int       `json:"subscribers"`
	Stalls      uint64    `json:"stalls"`
	UpSince     time.Time `json:"upSince"`
}

func (s *Server) Status() Status {
	snapshot := s.Latest()

	players := make([]string, 0, len(snapshot.Snakes))
	for _, snake := range snapshot.Snakes {
		players = append(players, snake.Name)
	}

	return Status{
		Description: s.Description,
		Tick:        snapshot.Tick,
		Players:     players,
		MaxPlayers:  snapshot.Settings.MaxPlayers,
		Food:        len(snapshot.Food),
		Width:       snapshot.Settings.Width,
		Height:      snapshot.Settings.Height,
		Paused:      s.Paused(),
		Subscribers: s.Snapshots.NumSubscribers(),
		Stalls:      s.health.Stalls(),
		UpSince:     s.Started(),
	}
}
