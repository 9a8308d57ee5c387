package api

import (
	"net/http"
	"time"

	"github.com/cfoust/snake/pkg/game"
	"github.com/cfoust/snake/pkg/ingress"
	"github.com/cfoust/snake/pkg/server"

	"github.com/gin-gonic/gin"
)

type Simulation interface {
	Status() server.Status
	Latest() *game.Snapshot
	Pause()
	Resume()
	Paused() bool
}

type Connections interface {
	Clients() []ingress.Connection
}

// GameController exposes the running simulation over HTTP.
type GameController struct {
	sim         Simulation
	connections Connections
}

func NewGameController(sim Simulation, connections Connections) *GameController {
	return &GameController{
		sim:         sim,
		connections: connections,
	}
}

func (gc *GameController) Register(route *gin.RouterGroup) {
	route.GET("/status", gc.status)
	route.GET("/snapshot", gc.snapshot)
	route.GET("/clients", gc.clients)
	route.POST("/pause", gc.pause)
	route.POST("/resume", gc.resume)
}

func (gc *GameController) status(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gc.sim.Status())
}

func (gc *GameController) snapshot(ctx *gin.Context) {
	snapshot := gc.sim.Latest()
	if snapshot == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot yet"})
		return
	}
	ctx.JSON(http.StatusOK, snapshot)
}

type ClientInfo struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Host   string    `json:"host"`
	Type   string    `json:"type"`
	Device string    `json:"device"`
	Status string    `json:"status"`
	Since  time.Time `json:"since"`
}

func (gc *GameController) clients(ctx *gin.Context) {
	if gc.connections == nil {
		ctx.JSON(http.StatusOK, []ClientInfo{})
		return
	}

	connections := gc.connections.Clients()
	infos := make([]ClientInfo, 0, len(connections))
	for _, conn := range connections {
		infos = append(infos, ClientInfo{
			ID:     conn.ID().String(),
			Name:   conn.Name(),
			Host:   conn.Host(),
			Type:   conn.Type().String(),
			Device: conn.DeviceType(),
			Status: conn.NetworkStatus().String(),
			Since:  conn.Session().Started(),
		})
	}

	ctx.JSON(http.StatusOK, infos)
}

func (gc *GameController) pause(ctx *gin.Context) {
	gc.sim.Pause()
	ctx.JSON(http.StatusOK, gin.H{"paused": gc.sim.Paused()})
}

func (gc *GameController) resume(ctx *gin.Context) {
	gc.sim.Resume()
	ctx.JSON(http.StatusOK, gin.H{"paused": gc.sim.Paused()})
}
