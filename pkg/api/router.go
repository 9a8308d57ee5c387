package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const SHUTDOWN_TIMEOUT = 5 * time.Second

type Controller interface {
	Register(*gin.RouterGroup)
}

// Router serves the HTTP API and, optionally, the WebSocket ingress.
type Router struct {
	addr        string
	baseURL     string
	controllers []Controller
	webSocket   http.Handler
}

type Config struct {
	Addr        string // Address to listen on
	BaseURL     string // Base URL for API routes
	Controllers []Controller
	// Mounted at /ws when set
	WebSocket http.Handler
}

func NewRouter(config Config) *Router {
	return &Router{
		addr:        config.Addr,
		baseURL:     config.BaseURL,
		controllers: config.Controllers,
		webSocket:   config.WebSocket,
	}
}

func requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	log.Debug().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Dur("took", time.Since(start)).
		Msg("http request")
}

func (r *Router) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger)

	api := router.Group(r.baseURL)
	for _, c := range r.controllers {
		c.Register(api)
	}

	if r.webSocket != nil {
		router.GET("/ws", gin.WrapH(r.webSocket))
	}

	return router
}

// Run serves until ctx ends. Failing to bind is returned immediately.
func (r *Router) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", r.addr)
	if err != nil {
		return err
	}

	log.Info().Msgf("listening on http://%v", listener.Addr())

	server := &http.Server{
		Handler: r.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
		defer cancel()
		server.Shutdown(shutdown)
	}()

	err = server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
