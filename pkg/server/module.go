package server

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/cfoust/snake/pkg/chanlock"
	"github.com/cfoust/snake/pkg/game"
	"github.com/cfoust/snake/pkg/pausableticker"
	"github.com/cfoust/snake/pkg/utils"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Server runs the simulation. Its loop is the only goroutine that touches
// the game; everything else talks to it through Incoming and Snapshots.
type Server struct {
	utils.Session
	*Config

	game     *game.Game
	incoming chan game.Event
	ticker   *pausableticker.Ticker
	health   *chanlock.Chanlock
	latest   atomic.Pointer[game.Snapshot]
	log      zerolog.Logger

	// Every published snapshot is shared between subscribers and must be
	// treated as read-only.
	Snapshots *utils.Topic[*game.Snapshot]
}

func New(ctx context.Context, conf *Config, options ...game.Option) *Server {
	logger := log.With().Str("component", "simulation").Logger()

	s := &Server{
		Session:   utils.NewSession(ctx),
		Config:    conf,
		game:      game.New(conf.Game, options...),
		incoming:  make(chan game.Event, conf.EventBuffer),
		health:    chanlock.New(logger),
		log:       logger,
		Snapshots: utils.NewTopic[*game.Snapshot](conf.SnapshotBuffer),
	}

	s.game.AddMissingFood()
	s.latest.Store(s.game.Snapshot())

	return s
}

// Incoming is the inbound event queue. Sends block only when the queue is
// full, never on the simulation itself.
func (s *Server) Incoming() chan<- game.Event {
	return s.incoming
}

func (s *Server) Subscribe() *utils.Subscriber[*game.Snapshot] {
	return s.Snapshots.Subscribe()
}

// Latest returns the most recently published snapshot.
func (s *Server) Latest() *game.Snapshot {
	return s.latest.Load()
}

func (s *Server) apply(event game.Event) {
	err := s.game.HandleEvent(event)
	if err != nil {
		// Rejections are not reported to the client
		s.log.Debug().Err(err).Str("event", event.String()).Msg("event rejected")
		return
	}

	if event.IsSignal(game.SignalConnect) {
		s.log.Info().Str("player", event.Owner).Msg("player spawned")
	} else if event.IsSignal(game.SignalDisconnect) {
		s.log.Info().Str("player", event.Owner).Msg("player left")
	}
}

// Drain applies every event that was queued when it was called, without
// blocking. Events arriving while it runs wait for the next tick.
func (s *Server) Drain() int {
	pending := len(s.incoming)
	for i := 0; i < pending; i++ {
		s.apply(<-s.incoming)
	}
	return pending
}

// Tick runs one full simulation cycle and publishes the result.
func (s *Server) Tick() *game.Snapshot {
	s.health.Mark("drain")
	s.Drain()

	s.health.Mark("step")
	for _, name := range s.game.Step() {
		s.log.Info().Str("player", name).Msg("snake died")
	}

	s.health.Mark("food")
	s.game.AddMissingFood()

	s.health.Mark("publish")
	snapshot := s.game.Snapshot()
	s.latest.Store(snapshot)
	s.Snapshots.Publish(snapshot)

	s.health.Mark("")
	return snapshot
}

func (s *Server) Pause() {
	if s.ticker != nil {
		s.ticker.Pause()
		s.log.Info().Msg("simulation paused")
	}
}

func (s *Server) Resume() {
	if s.ticker != nil {
		s.ticker.Resume()
		s.log.Info().Msg("simulation resumed")
	}
}

func (s *Server) Paused() bool {
	if s.ticker == nil {
		return false
	}
	return s.ticker.Paused()
}

var ErrAlreadyRunning = errors.New("simulation already running")

// Start creates the ticker. It is separate from Poll so that callers can
// pause or resume as soon as Start returns.
func (s *Server) Start() error {
	if s.ticker != nil {
		return ErrAlreadyRunning
	}
	s.ticker = pausableticker.New(s.TickDuration())
	return nil
}

// Poll runs the tick loop until ctx or the server session ends.
func (s *Server) Poll(ctx context.Context) {
	if s.ticker == nil {
		if err := s.Start(); err != nil {
			s.log.Error().Err(err).Msg("could not start simulation")
			return
		}
	}
	defer s.ticker.Stop()

	health := s.health.Poll(s.Ctx())

	s.log.Info().
		Int("width", s.Game.Width).
		Int("height", s.Game.Height).
		Dur("tick", s.TickDuration()).
		Msg("simulation started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.Ctx().Done():
			return
		case <-health:
			continue
		case <-s.ticker.C:
			s.Tick()
		}
	}
}

func (s *Server) Shutdown() {
	s.Cancel()
	if s.ticker != nil {
		s.ticker.Stop()
	}
}
