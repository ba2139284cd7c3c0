package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	httpAdapter "github.com/strataudio/strata/internal/adapters/http"
	"github.com/strataudio/strata/internal/logging"
	"github.com/strataudio/strata/internal/metrics"
	"github.com/strataudio/strata/internal/presentation/tui"
	"github.com/strataudio/strata/pkg/adapters/file"
	"github.com/strataudio/strata/pkg/adapters/memory"
	"github.com/strataudio/strata/pkg/adapters/redis"
	"github.com/strataudio/strata/pkg/ports"
)

// serveConfig is read from the environment; flags override it.
type serveConfig struct {
	Port          string `env:"STRATA_PORT" envDefault:"8080"`
	Store         string `env:"STRATA_STORE" envDefault:"memory"`
	Dir           string `env:"STRATA_DIR" envDefault:"./graphs"`
	RedisAddr     string `env:"STRATA_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"STRATA_REDIS_PASSWORD"`
	RedisDB       int    `env:"STRATA_REDIS_DB" envDefault:"0"`
	LogLevel      string `env:"STRATA_LOG_LEVEL" envDefault:"info"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the Strata JSON API: graph CRUD, validation, simulation and
compilation, plus /metrics in Prometheus format. The backing store is
selected with STRATA_STORE or --store: memory, file or redis.`,
	Run: func(cmd *cobra.Command, args []string) {
		var cfg serveConfig
		if err := env.Parse(&cfg); err != nil {
			fmt.Printf("Error reading configuration: %v\n", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetString("port")
		}
		if cmd.Flags().Changed("store") {
			cfg.Store, _ = cmd.Flags().GetString("store")
		}
		if cmd.Flags().Changed("dir") {
			cfg.Dir, _ = cmd.Flags().GetString("dir")
		}

		logger := logging.New(logging.ParseLevel(cfg.LogLevel))

		store, err := buildStore(cfg)
		if err != nil {
			fmt.Printf("Error initializing store: %v\n", err)
			os.Exit(1)
		}

		handler := httpAdapter.NewHandler(store, metrics.New(), logger)

		srv := &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: handler,
		}

		tui.PrintBanner()

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("starting server", "addr", srv.Addr, "store", cfg.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("shutdown started", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "error", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "error", err)
				}
			}
			logger.Info("server stopped gracefully")
		}
	},
}

func buildStore(cfg serveConfig) (ports.GraphStore, error) {
	switch cfg.Store {
	case "memory":
		return memory.NewStore(), nil
	case "file":
		return file.NewStore(cfg.Dir)
	case "redis":
		return redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil
	default:
		return nil, fmt.Errorf("unknown store %q (want memory, file or redis)", cfg.Store)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("store", "memory", "Backing store: memory, file or redis")
	serveCmd.Flags().String("dir", "./graphs", "Graph directory (file store only)")
}
