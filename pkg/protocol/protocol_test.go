package protocol

import (
	"bytes"
	"encoding/binary"
	"io"
	"math/rand"
	"testing"
	"testing/iotest"

	"github.com/cfoust/snake/pkg/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(t *testing.T) *game.Snapshot {
	g := game.New(
		game.Settings{
			Width:      12,
			Height:     7,
			FoodAmount: 4,
			MaxPlayers: 3,
			Teleport:   true,
		},
		game.WithRand(rand.New(rand.NewSource(7))),
	)
	require.NoError(t, g.HandleEvent(game.Connect("alice")))
	require.NoError(t, g.HandleEvent(game.Connect("bob")))
	require.NoError(t, g.HandleEvent(game.Move("alice", game.DirectionRight)))
	g.AddMissingFood()
	g.Step()
	g.AddMissingFood()
	return g.Snapshot()
}

func TestFrameHeader(t *testing.T) {
	buffer := bytes.Buffer{}
	require.NoError(t, WriteFrame(&buffer, []byte("hello")))

	data := buffer.Bytes()
	require.Len(t, data, HEADER_SIZE+5)
	assert.Equal(t, uint64(5), binary.LittleEndian.Uint64(data[:HEADER_SIZE]))
	assert.Equal(t, []byte("hello"), data[HEADER_SIZE:])
}

func TestSnapshotRoundTrip(t *testing.T) {
	before := testSnapshot(t)

	buffer := bytes.Buffer{}
	require.NoError(t, WriteSnapshot(&buffer, before))

	// Deliver one byte at a time to exercise partial reads
	after, err := ReadSnapshot(iotest.OneByteReader(&buffer), DEFAULT_MAX_FRAME)
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

func TestEventRoundTrip(t *testing.T) {
	events := []game.Event{
		game.Connect("alice"),
		game.Move("alice", game.DirectionUp),
		game.Move("alice", game.DirectionStop),
		game.Disconnect("alice"),
	}

	buffer := bytes.Buffer{}
	for _, event := range events {
		require.NoError(t, WriteEvent(&buffer, event))
	}

	for _, expected := range events {
		event, err := ReadEvent(&buffer, DEFAULT_MAX_FRAME)
		require.NoError(t, err)
		assert.Equal(t, expected, event)
	}

	_, err := ReadEvent(&buffer, DEFAULT_MAX_FRAME)
	assert.ErrorIs(t, err, io.EOF)
}

func TestInvalidEvent(t *testing.T) {
	buffer := bytes.Buffer{}
	require.NoError(t, WriteEvent(&buffer, game.Event{Type: game.EventMovement, Direction: 99, Owner: "x"}))

	_, err := ReadEvent(&buffer, DEFAULT_MAX_FRAME)
	assert.ErrorIs(t, err, game.ErrInvalidEvent)

	// Not CBOR at all
	buffer.Reset()
	require.NoError(t, WriteFrame(&buffer, []byte{0xff, 0xff}))
	_, err = ReadEvent(&buffer, DEFAULT_MAX_FRAME)
	assert.Error(t, err)
}

func TestTruncatedFrame(t *testing.T) {
	buffer := bytes.Buffer{}
	require.NoError(t, WriteFrame(&buffer, []byte("a longer payload")))
	data := buffer.Bytes()

	// Cut inside the payload
	_, err := ReadFrame(bytes.NewReader(data[:len(data)-3]), 0)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// Cut inside the header
	_, err = ReadFrame(bytes.NewReader(data[:3]), 0)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// Nothing at all
	_, err = ReadFrame(bytes.NewReader(nil), 0)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrameLimits(t *testing.T) {
	buffer := bytes.Buffer{}
	require.NoError(t, WriteFrame(&buffer, make([]byte, 64)))
	_, err := ReadFrame(&buffer, 32)
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	header := make([]byte, HEADER_SIZE)
	_, err = ReadFrame(bytes.NewReader(header), 32)
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestMismatchedGrid(t *testing.T) {
	snapshot := testSnapshot(t)
	snapshot.Owners.Cells = snapshot.Owners.Cells[:3]

	data, err := MarshalSnapshot(snapshot)
	require.NoError(t, err)

	_, err = UnmarshalSnapshot(data)
	assert.Error(t, err)
}

func TestDigest(t *testing.T) {
	g := game.New(
		game.Settings{Width: 8, Height: 8, FoodAmount: 2, MaxPlayers: 2, Teleport: true},
		game.WithRand(rand.New(rand.NewSource(3))),
	)
	require.NoError(t, g.HandleEvent(game.Connect("alice")))
	g.AddMissingFood()

	digest := func() uint64 {
		value, err := Digest(g.Snapshot())
		require.NoError(t, err)
		return value
	}

	// New snakes stand still, so only the tick changes
	g.Step()
	idle := digest()
	g.Step()
	assert.Equal(t, idle, digest())

	require.NoError(t, g.HandleEvent(game.Move("alice", game.DirectionRight)))
	g.Step()
	assert.NotEqual(t, idle, digest())
}
