package cmd

import (
	"log/slog"
	"os/signal"
	"syscall"

	"memorahanzi/internal/server"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address, overrides server.addr")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	cfg := svc.Config().Server
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	slog.Info("Starting server",
		"addr", cfg.Addr,
		"text_ready", svc.TextReady(),
		"image_ready", svc.ImageReady(),
	)

	if err := server.New(svc, cfg).Run(ctx); err != nil {
		return err
	}
	slog.Info("Server stopped")
	return nil
}
