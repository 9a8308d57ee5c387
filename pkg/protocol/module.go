package protocol

import (
	"fmt"
	"io"

	"github.com/cfoust/snake/pkg/game"

	"github.com/cespare/xxhash/v2"
	"github.com/fxamacker/cbor/v2"
)

// Payloads carry no type tag: a client only ever sends events and only
// ever receives snapshots.

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	// Deterministic encoding so equal snapshots produce equal bytes
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}

	decMode, err = cbor.DecOptions{
		// Grids are sent as one flat array of cells
		MaxArrayElements: 1 << 24,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

func MarshalSnapshot(snapshot *game.Snapshot) ([]byte, error) {
	return encMode.Marshal(snapshot)
}

func UnmarshalSnapshot(data []byte) (*game.Snapshot, error) {
	snapshot := game.Snapshot{}
	if err := decMode.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}

	grid := snapshot.Owners
	if len(grid.Cells) != grid.Width*grid.Height {
		return nil, fmt.Errorf(
			"decoding snapshot: %d cells for a %dx%d grid",
			len(grid.Cells),
			grid.Width,
			grid.Height,
		)
	}

	return &snapshot, nil
}

func MarshalEvent(event game.Event) ([]byte, error) {
	return encMode.Marshal(event)
}

func UnmarshalEvent(data []byte) (game.Event, error) {
	event := game.Event{}
	if err := decMode.Unmarshal(data, &event); err != nil {
		return event, fmt.Errorf("decoding event: %w", err)
	}

	if err := event.Validate(); err != nil {
		return event, err
	}

	return event, nil
}

// Digest fingerprints what a snapshot shows. The tick is left out, so
// consecutive snapshots of a game where nothing moved share a digest.
func Digest(snapshot *game.Snapshot) (uint64, error) {
	state := *snapshot
	state.Tick = 0

	payload, err := MarshalSnapshot(&state)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(payload), nil
}

func WriteSnapshot(w io.Writer, snapshot *game.Snapshot) error {
	payload, err := MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}
	return WriteFrame(w, payload)
}

func ReadSnapshot(r io.Reader, limit uint64) (*game.Snapshot, error) {
	payload, err := ReadFrame(r, limit)
	if err != nil {
		return nil, err
	}
	return UnmarshalSnapshot(payload)
}

func WriteEvent(w io.Writer, event game.Event) error {
	payload, err := MarshalEvent(event)
	if err != nil {
		return err
	}
	return WriteFrame(w, payload)
}

func ReadEvent(r io.Reader, limit uint64) (game.Event, error) {
	payload, err := ReadFrame(r, limit)
	if err != nil {
		return game.Event{}, err
	}
	return UnmarshalEvent(payload)
}
