package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mkondo/notionsync/internal/logger"
	"github.com/mkondo/notionsync/internal/models"
	"github.com/mkondo/notionsync/internal/notion"
	"github.com/mkondo/notionsync/internal/server"
	"github.com/mkondo/notionsync/internal/sync"
)

var listenAddr string

var rootCmd = &cobra.Command{
	Use:   "notionsync",
	Short: "Sync public Notion content into sanitized blog HTML",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; the environment may already be set
		_ = godotenv.Load()

		logLevel := os.Getenv("LOG_LEVEL")
		if logLevel == "" {
			logLevel = "info"
		}
		return logger.Init(logLevel)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP sync trigger server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := listenAddr
		if addr == "" {
			addr = os.Getenv("LISTEN_ADDR")
		}
		if addr == "" {
			addr = ":8080"
		}

		svc := sync.New(notion.New(), sync.Config{})
		srv := server.New(addr, svc, models.NewMemoryStore())

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return srv.Run(ctx)
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync <notion-url>",
	Short: "Run one sync and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := sync.New(notion.New(), sync.Config{})

		result, err := svc.Sync(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (default $LISTEN_ADDR or :8080)")
	rootCmd.AddCommand(serveCmd, syncCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command failed", err, nil)
		os.Exit(1)
	}
}
