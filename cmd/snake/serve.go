package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cfoust/snake/pkg/api"
	"github.com/cfoust/snake/pkg/ingress"
	"github.com/cfoust/snake/pkg/registry"
	"github.com/cfoust/snake/pkg/server"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func serveCommand(configs []string) error {
	config, err := loadConfig(configs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load snake configuration, please specify one with the SNAKE_CONFIG environment variable")
	}

	serverConfig := config.Server

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	simulationConfig := serverConfig.Simulation()
	simulation := server.New(ctx, &simulationConfig)
	err = simulation.Start()
	if err != nil {
		return err
	}

	handler := ingress.NewHandler(
		simulation,
		serverConfig.MaxFrameBytes,
		serverConfig.IdleTimeout(),
	)

	tcpIngress := ingress.NewTCPIngress(handler)
	err = tcpIngress.Listen(serverConfig.Address)
	if err != nil {
		log.Fatal().Err(err).Msgf("failed to bind %s", serverConfig.Address)
	}

	go simulation.Poll(ctx)

	errc := make(chan error, 2)
	go func() {
		errc <- tcpIngress.Serve(ctx)
	}()

	webAddress := ""
	if serverConfig.Web.Enabled {
		webAddress = serverConfig.Web.Address
		if !CLI.Debug {
			gin.SetMode(gin.ReleaseMode)
		}

		router := api.NewRouter(api.Config{
			Addr:    serverConfig.Web.Address,
			BaseURL: "/api",
			Controllers: []api.Controller{
				api.NewGameController(simulation, handler),
			},
			WebSocket: ingress.NewWSIngress(ctx, handler),
		})

		go func() {
			errc <- router.Run(ctx)
		}()
	}

	if serverConfig.Redis.Enabled {
		announcer := registry.New(
			serverConfig.Redis,
			simulation,
			serverConfig.Address,
			webAddress,
		)
		go announcer.Poll(ctx)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		if err != nil {
			log.Error().Err(err).Msg("failed to serve")
		}
	case sig := <-sigs:
		log.Info().Msgf("terminating: %v", sig)
	}

	cancel()
	simulation.Shutdown()

	return nil
}
