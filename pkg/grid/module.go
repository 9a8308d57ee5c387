package grid

import (
	"fmt"
)

// Vec is a cell coordinate. X grows to the right, Y grows downwards.
type Vec struct {
	X int `cbor:"1,keyasint" json:"x"`
	Y int `cbor:"2,keyasint" json:"y"`
}

func (v Vec) Add(other Vec) Vec {
	return Vec{X: v.X + other.X, Y: v.Y + other.Y}
}

func (v Vec) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Y)
}

type Kind uint8

const (
	KindEmpty Kind = iota
	KindWall
	KindFood
	KindPlayer
	// Only returned for lookups outside of the grid, never stored.
	KindVoid
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindWall:
		return "wall"
	case KindFood:
		return "food"
	case KindPlayer:
		return "player"
	case KindVoid:
		return "void"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Cell is the content of a single coordinate. Owner is only meaningful
// when Kind is KindPlayer.
type Cell struct {
	_     struct{} `cbor:",toarray"`
	Kind  Kind     `json:"kind"`
	Owner uint32   `json:"owner,omitempty"`
}

var (
	Empty = Cell{Kind: KindEmpty}
	Wall  = Cell{Kind: KindWall}
	Food  = Cell{Kind: KindFood}
	Void  = Cell{Kind: KindVoid}
)

func Player(id uint32) Cell {
	return Cell{Kind: KindPlayer, Owner: id}
}

func (c Cell) IsPlayer() bool {
	return c.Kind == KindPlayer
}

func (c Cell) String() string {
	if c.Kind == KindPlayer {
		return fmt.Sprintf("player(%d)", c.Owner)
	}
	return c.Kind.String()
}

// Grid is the ownership table: one Cell per coordinate, row-major.
// It is sized once and never resized.
type Grid struct {
	Width  int    `cbor:"1,keyasint" json:"width"`
	Height int    `cbor:"2,keyasint" json:"height"`
	Cells  []Cell `cbor:"3,keyasint" json:"cells"`
}

func New(width, height int) Grid {
	return Grid{
		Width:  width,
		Height: height,
		Cells:  make([]Cell, width*height),
	}
}

func (g *Grid) InBounds(v Vec) bool {
	return v.X >= 0 && v.Y >= 0 && v.X < g.Width && v.Y < g.Height
}

// Wrap maps a coordinate that may be off the grid back onto it, treating
// both axes as toroidal.
func (g *Grid) Wrap(v Vec) Vec {
	return Vec{
		X: ((v.X % g.Width) + g.Width) % g.Width,
		Y: ((v.Y % g.Height) + g.Height) % g.Height,
	}
}

// Get returns Void for coordinates outside of the grid.
func (g *Grid) Get(v Vec) Cell {
	if !g.InBounds(v) {
		return Void
	}
	return g.Cells[v.Y*g.Width+v.X]
}

// Set ignores coordinates outside of the grid and never stores Void.
func (g *Grid) Set(v Vec, cell Cell) {
	if !g.InBounds(v) || cell.Kind == KindVoid {
		return
	}
	g.Cells[v.Y*g.Width+v.X] = cell
}

// Find returns every coordinate holding exactly cell, in row-major order.
func (g *Grid) Find(cell Cell) []Vec {
	found := make([]Vec, 0)
	for i, other := range g.Cells {
		if other != cell {
			continue
		}
		found = append(found, Vec{X: i % g.Width, Y: i / g.Width})
	}
	return found
}

func (g *Grid) Empty() []Vec {
	return g.Find(Empty)
}

func (g *Grid) Clone() Grid {
	cells := make([]Cell, len(g.Cells))
	copy(cells, g.Cells)
	return Grid{
		Width:  g.Width,
		Height: g.Height,
		Cells:  cells,
	}
}
