package ingress

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cfoust/snake/pkg/game"
	"github.com/cfoust/snake/pkg/protocol"

	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

const (
	WRITE_TIMEOUT = 5 * time.Second
	// How long a closing connection waits for room in the event queue
	DISCONNECT_TIMEOUT = 5 * time.Second
)

// Handler runs the per-connection protocol: snapshots out, events in.
type Handler struct {
	sim         Simulation
	maxFrame    uint64
	idleTimeout time.Duration

	clients map[*Client]struct{}
	mutex   deadlock.Mutex
}

// NewHandler creates a Handler. An idleTimeout of zero disables the read
// deadline.
func NewHandler(sim Simulation, maxFrame uint64, idleTimeout time.Duration) *Handler {
	return &Handler{
		sim:         sim,
		maxFrame:    maxFrame,
		idleTimeout: idleTimeout,
		clients:     make(map[*Client]struct{}),
	}
}

func (h *Handler) addClient(client *Client) {
	h.mutex.Lock()
	h.clients[client] = struct{}{}
	h.mutex.Unlock()
}

func (h *Handler) removeClient(client *Client) {
	h.mutex.Lock()
	delete(h.clients, client)
	h.mutex.Unlock()
}

// claim binds name to client unless another connection already holds it.
func (h *Handler) claim(client *Client, name string) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for other := range h.clients {
		if other != client && other.Name() == name {
			return false
		}
	}

	client.mutex.Lock()
	client.name = name
	client.mutex.Unlock()
	return true
}

func (h *Handler) Clients() []Connection {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	clients := make([]Connection, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

func (h *Handler) NumClients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// forward puts an event on the inbound queue, giving up when the client's
// session ends.
func (h *Handler) forward(client *Client, event game.Event) bool {
	select {
	case h.sim.Incoming() <- event:
		return true
	case <-client.session.Ctx().Done():
		return false
	}
}

func (h *Handler) writeSnapshots(client *Client) {
	subscriber := h.sim.Subscribe()
	defer subscriber.Done()

	session := client.Session()
	for {
		select {
		case <-session.Ctx().Done():
			return
		case snapshot, ok := <-subscriber.Recv():
			if !ok {
				session.End(ErrUnsubscribed)
				return
			}

			client.conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			err := protocol.WriteSnapshot(client.conn, snapshot)
			if err != nil {
				session.End(err)
				return
			}
		}
	}
}

func (h *Handler) readEvents(client *Client) {
	session := client.Session()
	for {
		if h.idleTimeout > 0 {
			client.conn.SetReadDeadline(time.Now().Add(h.idleTimeout))
		}

		event, err := protocol.ReadEvent(client.conn, h.maxFrame)
		if errors.Is(err, io.EOF) {
			session.End(ErrPeerClosed)
			return
		}
		if err != nil {
			session.End(err)
			return
		}

		if !client.bind(&event) {
			if event.Owner == "" {
				session.End(ErrAnonymous)
				return
			}

			// Nothing is forwarded, so the holder's snake is left alone
			if !h.claim(client, event.Owner) {
				client.log.Warn().Str("player", event.Owner).Msg("name already in use")
				session.End(ErrNameInUse)
				return
			}

			client.log = client.log.With().Str("player", event.Owner).Logger()
			client.log.Info().Msg("player bound")

			// Announce the player before anything else it sends
			if !event.IsSignal(game.SignalConnect) {
				if !h.forward(client, game.Connect(event.Owner)) {
					return
				}
			}
		}

		if !h.forward(client, event) {
			return
		}

		if event.IsSignal(game.SignalDisconnect) {
			client.mutex.Lock()
			client.left = true
			client.mutex.Unlock()
			session.End(ErrClientLeft)
			return
		}
	}
}

// disconnect tells the simulation the player left unless the client already
// did so itself. It waits for queue space until ctx ends or the timeout
// passes.
func (h *Handler) disconnect(ctx context.Context, client *Client) {
	client.mutex.Lock()
	name, left := client.name, client.left
	client.mutex.Unlock()

	if name == "" || left {
		return
	}

	timeout := time.NewTimer(DISCONNECT_TIMEOUT)
	defer timeout.Stop()

	select {
	case h.sim.Incoming() <- game.Disconnect(name):
	case <-ctx.Done():
		client.log.Warn().Msg("could not send disconnect: server shutting down")
	case <-timeout.C:
		client.log.Warn().Msg("could not send disconnect: event queue full")
	}
}

// Handle serves one connection until either side closes it or ctx ends. The
// connection is closed when Handle returns. A client leaving normally is not
// an error.
func (h *Handler) Handle(ctx context.Context, conn net.Conn, kind ClientType, host string, device string) error {
	client := newClient(ctx, conn, kind, host, device)
	client.log = log.With().
		Str("id", client.id.String()).
		Str("type", kind.String()).
		Str("host", host).
		Logger()

	h.addClient(client)
	defer h.removeClient(client)

	client.setStatus(NetworkStatusActive)
	client.log.Info().Str("device", device).Msg("client joined")

	var wait sync.WaitGroup
	wait.Add(2)
	go func() {
		defer wait.Done()
		h.writeSnapshots(client)
	}()
	go func() {
		defer wait.Done()
		h.readEvents(client)
	}()

	<-client.session.Ctx().Done()
	client.setStatus(NetworkStatusClosing)

	// Unblocks whichever side is still in a read or write
	conn.Close()
	wait.Wait()

	h.disconnect(ctx, client)
	client.setStatus(NetworkStatusClosed)

	reason := client.session.Reason()
	switch {
	case errors.Is(reason, ErrClientLeft),
		errors.Is(reason, ErrPeerClosed),
		errors.Is(reason, context.Canceled):
		client.log.Info().Dur("uptime", client.session.Uptime()).Msg("client left")
		return nil
	}

	client.log.Warn().Err(reason).Dur("uptime", client.session.Uptime()).Msg("client dropped")
	return reason
}

// Serve handles a raw byte stream connection.
func (h *Handler) Serve(ctx context.Context, conn net.Conn, host string) error {
	return h.Handle(ctx, conn, ClientTypeTCP, host, "desktop")
}
