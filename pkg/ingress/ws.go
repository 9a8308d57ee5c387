package ingress

import (
	"context"
	"errors"
	"net/http"

	"github.com/mileusna/useragent"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
)

// WSIngress carries the same framed byte stream as the TCP ingress inside
// binary WebSocket messages.
type WSIngress struct {
	handler *Handler
	ctx     context.Context
}

// NewWSIngress creates an ingress whose connections also end when ctx does.
func NewWSIngress(ctx context.Context, handler *Handler) *WSIngress {
	return &WSIngress{
		handler: handler,
		ctx:     ctx,
	}
}

func DeviceType(userAgent string) string {
	ua := useragent.Parse(userAgent)
	switch {
	case ua.Bot:
		return "bot"
	case ua.Tablet:
		return "tablet"
	case ua.Mobile:
		return "mobile"
	}
	return "desktop"
}

func (server *WSIngress) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Error().Err(err).Msg("error accepting client connection")
		return
	}

	defer c.Close(websocket.StatusInternalError, "operational fault during relay")

	// We expect to sit behind a proxy, so check this first
	hostname := r.RemoteAddr
	original, ok := r.Header["X-Forwarded-For"]
	if ok {
		hostname = original[0]
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		select {
		case <-server.ctx.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	conn := websocket.NetConn(ctx, c, websocket.MessageBinary)
	err = server.handler.Handle(ctx, conn, ClientTypeWS, hostname, DeviceType(r.UserAgent()))
	if err == nil || errors.Is(err, context.Canceled) {
		c.Close(websocket.StatusNormalClosure, "")
		return
	}

	status := websocket.CloseStatus(err)
	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
		return
	}

	log.Error().Err(err).Str("host", hostname).Msg("websocket client failed")
}
