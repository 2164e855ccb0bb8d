// =============================================================================
// UBL-TR to XLSX Converter - Serve Command
// =============================================================================
//
// COMMAND USAGE:
//   ubltr-xlsx serve [--host 0.0.0.0] [--port 8080]
//
// Runs the HTTP upload endpoint until SIGINT or SIGTERM, then drains
// in-flight requests for up to ten seconds.
//
// =============================================================================

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/logger"
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/server"
)

var (
	serveHost string
	servePort int
)

// serveCmd represents the 'serve' command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the conversion endpoint over HTTP",
	Long: `Serve exposes POST /api/v1/convert?mode=aggregate|lines. Upload invoices as
multipart form field "files"; the response is the workbook as an attachment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
}

func runServe(cmd *cobra.Command) error {
	cfg := appConfig
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.WithComponent("server")
	srv := server.New(cfg, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen()
	}()

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received, closing server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}
