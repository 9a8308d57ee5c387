package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/cfoust/snake/pkg/grid"

	"github.com/repeale/fp-go"
	opt "github.com/repeale/fp-go/option"
)

// Rejections returned by HandleEvent. None of them change the game state
// and none of them are surfaced on the wire.
var (
	ErrInvalidEvent  = errors.New("invalid event")
	ErrUnknownPlayer = errors.New("no such player")
	ErrNameTaken     = errors.New("player name already active")
	ErrRosterFull    = errors.New("roster is full")
	ErrNoSpace       = errors.New("no empty cell to spawn in")
	ErrReversal      = errors.New("cannot reverse into own body")
)

// Per missing food item before giving up for this call.
const FOOD_PLACEMENT_ATTEMPTS = 50

type Settings struct {
	Width      int  `cbor:"1,keyasint" json:"width"`
	Height     int  `cbor:"2,keyasint" json:"height"`
	FoodAmount int  `cbor:"3,keyasint" json:"foodAmount"`
	MaxPlayers int  `cbor:"4,keyasint" json:"maxPlayers"`
	Teleport   bool `cbor:"5,keyasint" json:"teleport"`
}

func DefaultSettings() Settings {
	return Settings{
		Width:      40,
		Height:     20,
		FoodAmount: 10,
		MaxPlayers: 5,
		Teleport:   true,
	}
}

// Game owns the grid, the roster and the food set. It is not safe for
// concurrent use; a single simulation goroutine drives it.
type Game struct {
	Settings

	owners grid.Grid
	snakes []*Snake
	food   []grid.Vec
	tick   uint64
	nextID uint32
	rng    *rand.Rand
}

type Option func(*Game)

func WithRand(rng *rand.Rand) Option {
	return func(g *Game) {
		g.rng = rng
	}
}

func New(settings Settings, options ...Option) *Game {
	g := &Game{
		Settings: settings,
		owners:   grid.New(settings.Width, settings.Height),
		snakes:   make([]*Snake, 0, settings.MaxPlayers),
		food:     make([]grid.Vec, 0, settings.FoodAmount),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, option := range options {
		option(g)
	}

	return g
}

func (g *Game) Tick() uint64 {
	return g.tick
}

func (g *Game) find(name string) *Snake {
	for _, snake := range g.snakes {
		if snake.Name == name {
			return snake
		}
	}
	return nil
}

func (g *Game) Snake(name string) opt.Option[Snake] {
	snake := g.find(name)
	if snake == nil {
		return opt.None[Snake]()
	}
	return opt.Some(snake.Clone())
}

// Snakes returns copies of the roster in processing order.
func (g *Game) Snakes() []Snake {
	return fp.Map(func(s *Snake) Snake { return s.Clone() })(g.snakes)
}

func (g *Game) Food() []grid.Vec {
	food := make([]grid.Vec, len(g.food))
	copy(food, g.food)
	return food
}

func (g *Game) Owners() grid.Grid {
	return g.owners.Clone()
}

// HandleEvent applies a single player intent. A nil error means the state
// changed; any rejection leaves it untouched.
func (g *Game) HandleEvent(event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	if event.Type == EventSignal {
		switch event.Signal {
		case SignalConnect:
			return g.spawn(event.Owner)
		case SignalDisconnect:
			return g.remove(event.Owner)
		}
	}

	snake := g.find(event.Owner)
	if snake == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, event.Owner)
	}

	if !snake.Turn(event.Direction) {
		return ErrReversal
	}

	return nil
}

func (g *Game) spawn(name string) error {
	if g.find(name) != nil {
		return fmt.Errorf("%w: %s", ErrNameTaken, name)
	}

	if len(g.snakes) >= g.MaxPlayers {
		return ErrRosterFull
	}

	free := g.owners.Empty()
	if len(free) == 0 {
		return ErrNoSpace
	}

	g.addSnake(name, free[g.rng.Intn(len(free))])
	return nil
}

func (g *Game) addSnake(name string, at grid.Vec) *Snake {
	snake := newSnake(name, g.nextID, at)
	g.nextID++
	g.snakes = append(g.snakes, snake)
	g.owners.Set(at, grid.Player(snake.ID))
	return snake
}

func (g *Game) remove(name string) error {
	snake := g.find(name)
	if snake == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, name)
	}

	g.clear(snake)
	g.snakes = fp.Filter(func(s *Snake) bool { return s != snake })(g.snakes)
	return nil
}

func (g *Game) clear(snake *Snake) {
	for _, part := range snake.Body {
		g.owners.Set(part, grid.Empty)
	}
}

func (g *Game) kill(snake *Snake) {
	snake.Alive = false
	g.clear(snake)
}

// next resolves where a snake would move this tick and what it would hit.
func (g *Game) next(snake *Snake) (grid.Vec, grid.Cell) {
	next := snake.Head.Add(snake.Direction.Offset())
	if !g.owners.InBounds(next) && g.Teleport {
		next = g.owners.Wrap(next)
	}
	return next, g.owners.Get(next)
}

// Step advances every live snake once, in roster order, so an earlier
// snake's move is visible to later ones within the same tick. It returns
// the names of the snakes that died.
func (g *Game) Step() []string {
	died := make([]string, 0)

	for _, snake := range g.snakes {
		if !snake.Alive || snake.Direction == DirectionStop {
			continue
		}

		next, cell := g.next(snake)
		switch cell.Kind {
		case grid.KindEmpty, grid.KindFood:
			vacated := snake.advance(next, snake.Direction)
			g.owners.Set(vacated, grid.Empty)
			g.owners.Set(next, grid.Player(snake.ID))

			if cell.Kind == grid.KindFood {
				snake.grow(vacated)
				g.owners.Set(vacated, grid.Player(snake.ID))
				g.removeFood(next)
			}
		default:
			// Void, walls and any body segment are all fatal
			g.kill(snake)
			died = append(died, snake.Name)
		}
	}

	g.snakes = fp.Filter(func(s *Snake) bool { return s.Alive })(g.snakes)
	g.tick++

	return died
}

func (g *Game) placeFood(at grid.Vec) {
	g.food = append(g.food, at)
	g.owners.Set(at, grid.Food)
}

func (g *Game) removeFood(at grid.Vec) {
	g.food = fp.Filter(func(v grid.Vec) bool { return v != at })(g.food)
}

// AddMissingFood tops the food set back up to FoodAmount, trying a bounded
// number of random cells per item. It returns how many items were placed,
// which is less than requested when the grid is crowded.
func (g *Game) AddMissingFood() int {
	placed := 0
	missing := g.FoodAmount - len(g.food)

	for i := 0; i < missing; i++ {
		for attempt := 0; attempt < FOOD_PLACEMENT_ATTEMPTS; attempt++ {
			at := grid.Vec{
				X: g.rng.Intn(g.Width),
				Y: g.rng.Intn(g.Height),
			}

			if g.owners.Get(at) != grid.Empty {
				continue
			}

			g.placeFood(at)
			placed++
			break
		}
	}

	return placed
}
