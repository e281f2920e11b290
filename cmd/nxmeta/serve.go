package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"nxmeta/internal/api"
	"nxmeta/internal/dataset"
	"nxmeta/internal/logging"
)

var (
	serveAddr    string
	serveNoPreload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long: `Start the nxmeta HTTP API server. The configured work version is loaded
at startup and can be swapped with POST /reload. Document endpoints (INFO
parsing, XFDL rewriting) need no dataset.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default from config)")
	serveCmd.Flags().BoolVar(&serveNoPreload, "no-preload", false, "Start without loading the dataset")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, logging.ParseLevel(cfg.Logging.Level))
	rw, err := newRewriter(cfg)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	holder := &dataset.Holder{}
	loader := newLoader(cfg, logger)
	if !serveNoPreload {
		// A failed preload is not fatal; /ready stays 503 until /reload succeeds.
		if _, err := loader.Reload(context.Background(), holder, cfg.Data.Version); err != nil {
			logger.Warn("Initial dataset load failed", logging.Fields{
				"version": cfg.Data.Version,
				"error":   err.Error(),
			})
		}
	}

	server, err := api.NewServer(addr, holder, loader, logger, api.ServerConfig{
		LineageRoot:    cfg.Lineage.Root,
		DataVersion:    cfg.Data.Version,
		CacheSize:      cfg.Server.CacheSize,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Rewriter:       rw,
		Convention:     convention(cfg),
		Serialize:      serializeOptions(cfg),
	})
	if err != nil {
		return err
	}

	// Setup graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	serverErr := make(chan error, 1)
	go func() {
		fmt.Fprintf(cmd.OutOrStdout(), "nxmeta HTTP API server listening on http://%s\n", addr)
		fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", logging.Fields{
				"error": err.Error(),
			})
			return err
		}
	case sig := <-shutdown:
		logger.Info("Received shutdown signal", logging.Fields{
			"signal": sig.String(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", logging.Fields{
				"error": err.Error(),
			})
			return err
		}
	}

	return nil
}
