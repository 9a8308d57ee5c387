package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/cfoust/snake/pkg/game"
	"github.com/cfoust/snake/pkg/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGame() *game.Game {
	return game.New(game.Settings{
		Width:      6,
		Height:     6,
		FoodAmount: 1,
		MaxPlayers: 2,
		Teleport:   true,
	})
}

// readEvents forwards everything the client sends on conn.
func readEvents(conn net.Conn) <-chan game.Event {
	events := make(chan game.Event, 16)
	go func() {
		defer close(events)
		for {
			event, err := protocol.ReadEvent(conn, protocol.DEFAULT_MAX_FRAME)
			if err != nil {
				return
			}
			events <- event
		}
	}()
	return events
}

func next(t *testing.T, events <-chan game.Event) game.Event {
	select {
	case event := <-events:
		return event
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return game.Event{}
}

func TestSendTagsEvents(t *testing.T) {
	server, conn := net.Pipe()
	defer server.Close()
	c := New(conn, "alice")
	events := readEvents(server)

	require.NoError(t, c.Move(game.DirectionUp))
	require.NoError(t, c.Send(game.Move("mallory", game.DirectionStop)))

	assert.Equal(t, game.Move("alice", game.DirectionUp), next(t, events))
	assert.Equal(t, game.Move("alice", game.DirectionStop), next(t, events))

	require.NoError(t, c.Close())
	assert.Equal(t, game.Disconnect("alice"), next(t, events))
}

func TestPollLatestWins(t *testing.T) {
	server, conn := net.Pipe()
	c := New(conn, "alice")

	done := make(chan error, 1)
	go func() {
		done <- c.Poll(context.Background())
	}()

	g := testGame()
	require.NoError(t, g.HandleEvent(game.Connect("alice")))
	require.NoError(t, g.HandleEvent(game.Move("alice", game.DirectionRight)))
	for i := 0; i < 3; i++ {
		g.Step()
		require.NoError(t, protocol.WriteSnapshot(server, g.Snapshot()))
	}
	server.Close()
	require.NoError(t, <-done)

	var received []*game.Snapshot
	for snapshot := range c.Snapshots() {
		received = append(received, snapshot)
	}

	require.Len(t, received, 1)
	assert.Equal(t, uint64(3), received[0].Tick)
}

func TestPollSkipsDuplicates(t *testing.T) {
	server, conn := net.Pipe()
	c := New(conn, "alice")

	done := make(chan error, 1)
	go func() {
		done <- c.Poll(context.Background())
	}()

	g := testGame()
	require.NoError(t, g.HandleEvent(game.Connect("alice")))

	g.Step()
	snapshot := g.Snapshot()
	require.NoError(t, protocol.WriteSnapshot(server, snapshot))
	assert.Equal(t, snapshot, <-c.Snapshots())

	// alice is standing still: the next tick shows nothing new
	g.Step()
	require.NoError(t, protocol.WriteSnapshot(server, g.Snapshot()))
	server.Close()
	require.NoError(t, <-done)

	_, ok := <-c.Snapshots()
	assert.False(t, ok)
}

func TestPollBadFrame(t *testing.T) {
	server, conn := net.Pipe()
	defer server.Close()
	c := New(conn, "alice")

	done := make(chan error, 1)
	go func() {
		done <- c.Poll(context.Background())
	}()

	require.NoError(t, protocol.WriteFrame(server, []byte{0xff}))
	assert.Error(t, <-done)
}

func TestPollCancel(t *testing.T) {
	server, conn := net.Pipe()
	defer server.Close()
	c := New(conn, "alice")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Poll(ctx)
	}()

	cancel()
	assert.NoError(t, <-done)
}

func TestEnsureSpawned(t *testing.T) {
	server, conn := net.Pipe()
	defer server.Close()
	c := New(conn, "alice")
	events := readEvents(server)

	g := testGame()
	missing := g.Snapshot()

	sent, err := c.EnsureSpawned(missing)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, game.Connect("alice"), next(t, events))

	// Throttled
	sent, err = c.EnsureSpawned(missing)
	require.NoError(t, err)
	assert.False(t, sent)

	require.NoError(t, g.HandleEvent(game.Connect("alice")))
	sent, err = c.EnsureSpawned(g.Snapshot())
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestDial(t *testing.T) {
	_, err := Dial(context.Background(), "127.0.0.1:1", "")
	assert.ErrorIs(t, err, ErrNoName)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	c, err := Dial(context.Background(), listener.Addr().String(), "alice")
	require.NoError(t, err)
	defer c.Close()

	server := <-accepted
	defer server.Close()

	event, err := protocol.ReadEvent(server, protocol.DEFAULT_MAX_FRAME)
	require.NoError(t, err)
	assert.Equal(t, game.Connect("alice"), event)
}
