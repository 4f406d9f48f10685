package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/raaihank/meeting-sentinel/internal/app"
	"github.com/raaihank/meeting-sentinel/internal/config"
	"github.com/raaihank/meeting-sentinel/internal/server"
	"github.com/raaihank/meeting-sentinel/internal/summarizer"
	"github.com/raaihank/meeting-sentinel/internal/websocket"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API and dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := app.NewLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		log.Info("Starting meeting-sentinel",
			zap.String("version", version),
			zap.String("commit", commit),
			zap.String("build_date", date),
			zap.Int("port", cfg.Server.Port),
		)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, err := app.Open(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		deps := server.Deps{Provider: a.Provider, Version: version}
		if cfg.WebSocket.Enabled {
			deps.Hub = websocket.NewHub(hubConfig(cfg.WebSocket), log.Logger)
			a.Observe(deps.Hub)
		}
		if sum, err := summarizer.New(cfg.Summarizer, log.Logger); err == nil {
			deps.Summarizer = sum
		} else {
			log.Info("Summarizer disabled", zap.Error(err))
		}

		srv := server.New(cfg, log, a.Session, deps)

		if cfg.ConfigFile() != "" {
			err := config.Watch(cfg, log.Logger, func(next *config.Config) {
				sum, err := summarizer.New(next.Summarizer, log.Logger)
				if err != nil {
					srv.SetSummarizer(nil)
					return
				}
				srv.SetSummarizer(sum)
			})
			if err != nil {
				log.Warn("Config watch disabled", zap.Error(err))
			}
		}

		serverErrors := make(chan error, 1)
		go func() {
			serverErrors <- srv.Start(ctx)
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return err
		case sig := <-shutdown:
			log.Info("Shutdown signal received", zap.String("signal", sig.String()))

			stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer stopCancel()
			if err := srv.Stop(stopCtx); err != nil {
				log.Error("Failed to shutdown server gracefully", zap.Error(err))
				return err
			}
			log.Info("Server shutdown complete")
			return nil
		}
	},
}

func hubConfig(c config.WebSocketConfig) websocket.HubConfig {
	return websocket.HubConfig{
		BroadcastSession:     c.Events.BroadcastSession,
		BroadcastRequests:    c.Events.BroadcastRequests,
		BroadcastSystem:      c.Events.BroadcastSystem,
		BroadcastConnections: c.Events.BroadcastConnections,
		Username:             c.Username,
		Password:             c.Password,
		AllowedOrigins:       c.AllowedOrigins,
		MaxConnections:       c.MaxConnections,
		ReadBufferSize:       c.ReadBufferSize,
		WriteBufferSize:      c.WriteBufferSize,
		PingInterval:         c.PingInterval,
		PongTimeout:          c.PongTimeout,
		WriteTimeout:         c.WriteTimeout,
		MaxMessageSize:       c.MaxMessageSize,
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
