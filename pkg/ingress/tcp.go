package ingress

import (
	"context"
	"errors"
	"net"

	"github.com/rs/zerolog/log"
)

type TCPIngress struct {
	handler  *Handler
	listener net.Listener
}

func NewTCPIngress(handler *Handler) *TCPIngress {
	return &TCPIngress{handler: handler}
}

// Listen binds the address. Failing to bind is the one error the server
// cannot recover from.
func (server *TCPIngress) Listen(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	server.listener = listener
	log.Info().Msgf("listening on tcp://%v", listener.Addr())
	return nil
}

func (server *TCPIngress) Addr() net.Addr {
	if server.listener == nil {
		return nil
	}
	return server.listener.Addr()
}

// Serve accepts connections until ctx ends.
func (server *TCPIngress) Serve(ctx context.Context) error {
	if server.listener == nil {
		return errors.New("tcp ingress is not listening")
	}

	go func() {
		<-ctx.Done()
		server.listener.Close()
	}()

	for {
		conn, err := server.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				log.Warn().Err(err).Msg("temporary accept failure")
				continue
			}
			return err
		}

		host := conn.RemoteAddr().String()
		if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
			host = addr.IP.String()
		}

		go server.handler.Serve(ctx, conn, host)
	}
}
