package game

import (
	"github.com/cfoust/snake/pkg/grid"

	opt "github.com/repeale/fp-go/option"
)

// Snapshot is a complete, self-contained copy of the game state as sent to
// clients. Nothing in it aliases the live game.
type Snapshot struct {
	Settings Settings   `cbor:"1,keyasint" json:"settings"`
	Tick     uint64     `cbor:"2,keyasint" json:"tick"`
	Snakes   []Snake    `cbor:"3,keyasint" json:"snakes"`
	Food     []grid.Vec `cbor:"4,keyasint" json:"food"`
	Owners   grid.Grid  `cbor:"5,keyasint" json:"owners"`
}

func (g *Game) Snapshot() *Snapshot {
	return &Snapshot{
		Settings: g.Settings,
		Tick:     g.tick,
		Snakes:   g.Snakes(),
		Food:     g.Food(),
		Owners:   g.Owners(),
	}
}

func (s *Snapshot) Snake(name string) opt.Option[Snake] {
	for _, snake := range s.Snakes {
		if snake.Name == name {
			return opt.Some(snake)
		}
	}
	return opt.None[Snake]()
}
