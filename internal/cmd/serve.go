package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certshow/internal/manager"
	"github.com/certwatch-app/cw-certshow/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve certificate lookups over HTTP",
	Long: `Start an HTTP server answering certificate lookups.

Endpoints:
  GET /show?host=H&port=P       look up one target (repeat target=host:port for more)
        &driver=NAME            driver name (default: the configured default)
        &chain=false            leaf only
        &ca_issuers&der         download an id-ad-caIssuers URL given as host
        &crypto_method=M        TLS version selection
  GET /metrics                  Prometheus metrics
  GET /healthz                  liveness probe

The server binds to loopback by default. Lookups reach arbitrary hosts
and run the openssl binary, so expose it on other interfaces only behind
something that authenticates callers.

Example:
  cw-certshow serve --listen 127.0.0.1:9500`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default: server.listen from the configuration)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	addr := cfg.Server.Listen
	if serveListen != "" {
		addr = serveListen
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("starting cw-certshow server",
		zap.String("version", GetVersion()),
		zap.String("default_driver", cfg.Default),
		zap.Int("drivers", len(cfg.Drivers)),
	)

	srv := server.New(manager.New(cfg, logger), logger)
	if err := srv.Run(ctx, addr); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}
