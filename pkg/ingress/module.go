package ingress

import (
	"context"
	"errors"
	"net"

	"github.com/cfoust/snake/pkg/game"
	"github.com/cfoust/snake/pkg/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sasha-s/go-deadlock"
)

type ClientType uint8

const (
	ClientTypeTCP ClientType = iota
	ClientTypeWS
)

func (c ClientType) String() string {
	switch c {
	case ClientTypeTCP:
		return "tcp"
	case ClientTypeWS:
		return "ws"
	}
	return "unknown"
}

// The status of the client's connection to the server.
type NetworkStatus uint8

const (
	NetworkStatusConnecting NetworkStatus = iota
	NetworkStatusActive
	NetworkStatusClosing
	NetworkStatusClosed
)

func (s NetworkStatus) String() string {
	switch s {
	case NetworkStatusConnecting:
		return "connecting"
	case NetworkStatusActive:
		return "active"
	case NetworkStatusClosing:
		return "closing"
	case NetworkStatusClosed:
		return "closed"
	}
	return "unknown"
}

var (
	ErrClientLeft   = errors.New("client sent disconnect")
	ErrPeerClosed   = errors.New("peer closed the connection")
	ErrUnsubscribed = errors.New("snapshot subscription ended")
	ErrAnonymous    = errors.New("event has no player name")
	ErrNameInUse    = errors.New("player name is held by another connection")
)

// Simulation is the part of the server a connection talks to.
type Simulation interface {
	Incoming() chan<- game.Event
	Subscribe() *utils.Subscriber[*game.Snapshot]
}

type Connection interface {
	Session() *utils.Session
	ID() uuid.UUID
	Host() string
	Type() ClientType
	DeviceType() string
	// Empty until the client sends its first event
	Name() string
	// Lasts for the duration of the client's connection to its ingress.
	NetworkStatus() NetworkStatus
}

type Client struct {
	session utils.Session
	id      uuid.UUID
	conn    net.Conn
	host    string
	kind    ClientType
	device  string
	log     zerolog.Logger

	mutex  deadlock.Mutex
	status NetworkStatus
	name   string
	// Set once the simulation has been told this player left
	left bool
}

func newClient(ctx context.Context, conn net.Conn, kind ClientType, host string, device string) *Client {
	return &Client{
		session: utils.NewSession(ctx),
		id:      uuid.New(),
		conn:    conn,
		host:    host,
		kind:    kind,
		device:  device,
		status:  NetworkStatusConnecting,
	}
}

func (c *Client) Session() *utils.Session {
	return &c.session
}

func (c *Client) ID() uuid.UUID {
	return c.id
}

func (c *Client) Host() string {
	return c.host
}

func (c *Client) Type() ClientType {
	return c.kind
}

func (c *Client) DeviceType() string {
	return c.device
}

func (c *Client) Name() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.name
}

func (c *Client) NetworkStatus() NetworkStatus {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.status
}

func (c *Client) setStatus(status NetworkStatus) {
	c.mutex.Lock()
	c.status = status
	c.mutex.Unlock()
}

// bind tags an event with this client's player name. It reports false,
// leaving the event untouched, while no name is bound yet.
func (c *Client) bind(event *game.Event) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.name == "" {
		return false
	}

	event.Owner = c.name
	return true
}

var _ Connection = (*Client)(nil)
