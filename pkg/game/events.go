package game

import (
	"fmt"
)

type EventType uint8

const (
	EventMovement EventType = iota
	EventSignal
)

type Signal uint8

const (
	SignalConnect Signal = iota
	SignalDisconnect
)

func (s Signal) String() string {
	switch s {
	case SignalConnect:
		return "connect"
	case SignalDisconnect:
		return "disconnect"
	}
	return fmt.Sprintf("signal(%d)", uint8(s))
}

// Event is a single player intent. Local input and remote connections
// produce the same type. Direction is only read for movements and Signal
// only for signals.
type Event struct {
	Type      EventType `cbor:"1,keyasint"`
	Direction Direction `cbor:"2,keyasint,omitempty"`
	Signal    Signal    `cbor:"3,keyasint,omitempty"`
	Owner     string    `cbor:"4,keyasint"`
}

func Move(owner string, direction Direction) Event {
	return Event{
		Type:      EventMovement,
		Direction: direction,
		Owner:     owner,
	}
}

func Connect(owner string) Event {
	return Event{
		Type:   EventSignal,
		Signal: SignalConnect,
		Owner:  owner,
	}
}

func Disconnect(owner string) Event {
	return Event{
		Type:   EventSignal,
		Signal: SignalDisconnect,
		Owner:  owner,
	}
}

func (e Event) IsSignal(signal Signal) bool {
	return e.Type == EventSignal && e.Signal == signal
}

// Validate rejects events whose tags do not name a known variant.
func (e Event) Validate() error {
	switch e.Type {
	case EventMovement:
		if !e.Direction.Valid() {
			return fmt.Errorf("%w: unknown direction %d", ErrInvalidEvent, e.Direction)
		}
	case EventSignal:
		if e.Signal > SignalDisconnect {
			return fmt.Errorf("%w: unknown signal %d", ErrInvalidEvent, e.Signal)
		}
	default:
		return fmt.Errorf("%w: unknown type %d", ErrInvalidEvent, e.Type)
	}
	return nil
}

func (e Event) String() string {
	if e.Type == EventMovement {
		return fmt.Sprintf("%s: move %s", e.Owner, e.Direction)
	}
	return fmt.Sprintf("%s: %s", e.Owner, e.Signal)
}
