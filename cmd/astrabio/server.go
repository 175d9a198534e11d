package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/astrabio/astrabio/pkg/config"
	"github.com/astrabio/astrabio/pkg/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the question-answering HTTP server",
	Long: `Start the HTTP server exposing the chat endpoint, the knowledge graph
read API, and health probes.`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().String("host", "", "server host (overrides config)")
	serverCmd.Flags().Int("port", 0, "server port (overrides config)")
	serverCmd.Flags().String("backend", "", "retrieval backend: redis, mongo, or memory (overrides config)")
	serverCmd.Flags().String("graph-snapshot", "", "graph snapshot file to load at start (overrides config)")

	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyServerFlags(cmd, cfg)

	ctx := context.Background()
	c, err := buildComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.close(closeCtx)
	}()

	srv := server.New(cfg, c.engine, c.graphs, c.backends, c.logger)
	srv.Setup()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	return nil
}

// applyServerFlags lets explicit command-line flags win over the config file.
func applyServerFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("backend") {
		cfg.Retrieval.Backend, _ = cmd.Flags().GetString("backend")
	}
	if cmd.Flags().Changed("graph-snapshot") {
		cfg.Graph.SnapshotPath, _ = cmd.Flags().GetString("graph-snapshot")
	}
}
