package game

import (
	"github.com/cfoust/snake/pkg/grid"
)

// Snake is one player's body on the grid. Body runs from head to tail and
// Head always equals Body[0].
type Snake struct {
	Name      string     `cbor:"1,keyasint" json:"name"`
	ID        uint32     `cbor:"2,keyasint" json:"id"`
	Body      []grid.Vec `cbor:"3,keyasint" json:"body"`
	Head      grid.Vec   `cbor:"4,keyasint" json:"head"`
	Direction Direction  `cbor:"5,keyasint" json:"direction"`
	// The side the head entered its cell from, i.e. the opposite of the
	// last step taken. Turning towards it is refused.
	MovedFrom Direction `cbor:"6,keyasint" json:"movedFrom"`
	Alive     bool      `cbor:"7,keyasint" json:"alive"`
}

func newSnake(name string, id uint32, at grid.Vec) *Snake {
	return &Snake{
		Name:      name,
		ID:        id,
		Body:      []grid.Vec{at},
		Head:      at,
		Direction: DirectionStop,
		MovedFrom: DirectionStop,
		Alive:     true,
	}
}

func (s *Snake) Len() int {
	return len(s.Body)
}

func (s *Snake) Tail() grid.Vec {
	return s.Body[len(s.Body)-1]
}

// Turn applies a requested heading and reports whether it was accepted.
func (s *Snake) Turn(direction Direction) bool {
	if direction != DirectionStop && direction == s.MovedFrom {
		return false
	}
	s.Direction = direction
	return true
}

// advance shifts every segment one slot towards the head and returns the
// cell the tail vacated.
func (s *Snake) advance(next grid.Vec, taken Direction) grid.Vec {
	vacated := s.Tail()
	copy(s.Body[1:], s.Body[:len(s.Body)-1])
	s.Body[0] = next
	s.Head = next
	s.MovedFrom = taken.Opposite()
	return vacated
}

func (s *Snake) grow(at grid.Vec) {
	s.Body = append(s.Body, at)
}

func (s *Snake) Clone() Snake {
	body := make([]grid.Vec, len(s.Body))
	copy(body, s.Body)
	clone := *s
	clone.Body = body
	return clone
}
