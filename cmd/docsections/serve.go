package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docsections/internal/api"
	"github.com/dgallion1/docsections/internal/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the outline and collection pipeline over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.ValidateServer(); err != nil {
			log.Error("invalid configuration", "error", err)
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		dec := newDecoder(cfg)
		orch := pipeline.NewOrchestrator(cfg, dec, log)
		orch.Start(ctx)

		httpServer := &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      api.NewServer(orch, dec, log, cfg),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Graceful shutdown.
		stopped := make(chan struct{})
		go func() {
			defer close(stopped)
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			log.Info("shutting down...")

			// Drain requests first so no Submit races the closed queue.
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			httpServer.Shutdown(shutdownCtx)

			orch.Stop()
		}()

		log.Info("starting docsections", "port", cfg.Port, "root", cfg.CollectionsRoot)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			return err
		}
		<-stopped
		return nil
	},
}

func init() {
	serveCmd.Flags().String("port", "", "listen port (default 8090)")
	serveCmd.Flags().String("root", "", "collections root (default /app)")
	v.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	v.BindPFlag("collections_root", serveCmd.Flags().Lookup("root"))

	rootCmd.AddCommand(serveCmd)
}
