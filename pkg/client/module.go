package client

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/cfoust/snake/pkg/game"
	"github.com/cfoust/snake/pkg/protocol"

	opt "github.com/repeale/fp-go/option"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/time/rate"
)

const (
	DIAL_TIMEOUT = 5 * time.Second
	// Minimum time between automatic respawn requests
	RESPAWN_INTERVAL = time.Second
)

var ErrNoName = errors.New("player name is required")

// Client is the player's side of a connection. All events it sends are
// tagged with its name.
type Client struct {
	conn      net.Conn
	name      string
	maxFrame  uint64
	snapshots chan *game.Snapshot
	respawn   *rate.Limiter
	log       zerolog.Logger

	// Serializes writes so frames never interleave
	mutex      deadlock.Mutex
	lastDigest opt.Option[uint64]
}

func New(conn net.Conn, name string) *Client {
	return &Client{
		conn:       conn,
		name:       name,
		maxFrame:   protocol.DEFAULT_MAX_FRAME,
		snapshots:  make(chan *game.Snapshot, 1),
		respawn:    rate.NewLimiter(rate.Every(RESPAWN_INTERVAL), 1),
		log:        log.With().Str("player", name).Logger(),
		lastDigest: opt.None[uint64](),
	}
}

// Dial connects to a server and announces the player.
func Dial(ctx context.Context, address string, name string) (*Client, error) {
	if name == "" {
		return nil, ErrNoName
	}

	dialer := net.Dialer{Timeout: DIAL_TIMEOUT}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	client := New(conn, name)
	err = client.Connect()
	if err != nil {
		conn.Close()
		return nil, err
	}

	// The first Connect counts against the respawn budget
	client.respawn.Allow()

	client.log.Info().Str("address", address).Msg("connected")
	return client, nil
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) Send(event game.Event) error {
	event.Owner = c.name

	c.mutex.Lock()
	defer c.mutex.Unlock()
	return protocol.WriteEvent(c.conn, event)
}

func (c *Client) Move(direction game.Direction) error {
	return c.Send(game.Move(c.name, direction))
}

func (c *Client) Connect() error {
	return c.Send(game.Connect(c.name))
}

func (c *Client) Disconnect() error {
	return c.Send(game.Disconnect(c.name))
}

// Snapshots delivers the newest snapshot received. Older ones are replaced
// if they have not been read yet. It is closed when Poll returns.
func (c *Client) Snapshots() <-chan *game.Snapshot {
	return c.snapshots
}

func (c *Client) deliver(snapshot *game.Snapshot) {
	select {
	case c.snapshots <- snapshot:
		return
	default:
	}

	// Poll is the only sender, so there is room after this
	select {
	case <-c.snapshots:
	default:
	}
	c.snapshots <- snapshot
}

// Poll reads snapshots until the server closes the connection, ctx ends or
// a frame cannot be decoded. The server hanging up is not an error.
func (c *Client) Poll(ctx context.Context) error {
	defer close(c.snapshots)

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.Close()
		case <-finished:
		}
	}()

	for {
		payload, err := protocol.ReadFrame(c.conn, c.maxFrame)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, io.EOF) {
			c.log.Info().Msg("server closed the connection")
			return nil
		}
		if err != nil {
			return err
		}

		snapshot, err := protocol.UnmarshalSnapshot(payload)
		if err != nil {
			return err
		}

		// Nothing to redraw when only the tick advanced
		digest, err := protocol.Digest(snapshot)
		if err != nil {
			return err
		}
		if opt.IsSome(c.lastDigest) && c.lastDigest.Value == digest {
			continue
		}
		c.lastDigest = opt.Some(digest)

		c.deliver(snapshot)
	}
}

// EnsureSpawned asks to be spawned again when the player is missing from
// snapshot, at most once per RESPAWN_INTERVAL. It reports whether a request
// was sent.
func (c *Client) EnsureSpawned(snapshot *game.Snapshot) (bool, error) {
	if opt.IsSome(snapshot.Snake(c.name)) {
		return false, nil
	}

	if !c.respawn.Allow() {
		return false, nil
	}

	c.log.Debug().Uint64("tick", snapshot.Tick).Msg("requesting respawn")
	return true, c.Connect()
}

// Close leaves the game and closes the connection.
func (c *Client) Close() error {
	c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	err := c.Disconnect()
	if err != nil {
		c.log.Debug().Err(err).Msg("could not send disconnect")
	}
	return c.conn.Close()
}
