package game

import (
	"fmt"

	"github.com/cfoust/snake/pkg/grid"
)

type Direction uint8

const (
	DirectionStop Direction = iota
	DirectionUp
	DirectionLeft
	DirectionDown
	DirectionRight
)

func (d Direction) Valid() bool {
	return d <= DirectionRight
}

// Opposite returns the reverse heading. Stop is its own opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionUp:
		return DirectionDown
	case DirectionDown:
		return DirectionUp
	case DirectionLeft:
		return DirectionRight
	case DirectionRight:
		return DirectionLeft
	}
	return DirectionStop
}

func (d Direction) Offset() grid.Vec {
	switch d {
	case DirectionUp:
		return grid.Vec{Y: -1}
	case DirectionDown:
		return grid.Vec{Y: 1}
	case DirectionLeft:
		return grid.Vec{X: -1}
	case DirectionRight:
		return grid.Vec{X: 1}
	}
	return grid.Vec{}
}

func (d Direction) String() string {
	switch d {
	case DirectionStop:
		return "stop"
	case DirectionUp:
		return "up"
	case DirectionLeft:
		return "left"
	case DirectionDown:
		return "down"
	case DirectionRight:
		return "right"
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}
