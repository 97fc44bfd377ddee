package main

import (
	"context"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Tyrowin/roomrelay/internal/metrics"
	"github.com/Tyrowin/roomrelay/internal/relay"
	"github.com/Tyrowin/roomrelay/internal/server"
)

func main() {
	envErr := godotenv.Load()

	cfg := server.NewConfigFromEnv().Sanitize()
	logger := server.NewLogger(cfg.Env, os.Stdout)
	if envErr != nil {
		logger.Debug("no .env file found, relying on environment variables")
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	registry := relay.NewRegistry(
		relay.WithLogger(logger.With("component", "relay")),
		relay.WithRecorder(metrics.New(promRegistry)),
	)
	metrics.RegisterGauges(promRegistry, registry)

	hub := server.NewHub(registry, cfg, logger.With("component", "hub"))
	go hub.Run()

	router := server.SetupRoutes(hub, metrics.Handler(promRegistry))
	httpServer := server.CreateServer(cfg.Port, router)

	go func() {
		if err := server.StartServer(httpServer, logger); err != nil {
			logger.Error("server stopped", "err", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				return server.ShutdownServer(ctx, httpServer, logger)
			},
			"hub": func(context.Context) error {
				return hub.Shutdown(cfg.ShutdownTimeout)
			},
		},
	)

	exitCode := <-wait
	logger.Info("server exited", "code", exitCode)
	os.Exit(exitCode)
}
