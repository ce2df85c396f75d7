package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stacklok/edgemcp/pkg/config"
	"github.com/stacklok/edgemcp/pkg/logger"
	"github.com/stacklok/edgemcp/pkg/runtime"
	"github.com/stacklok/edgemcp/pkg/transport/httpframe"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the edgemcp core runtime",
	Long:  `Start the tool registry, driver manager, driver bridge, and auth gate, and (if configured) listen for loopback HTTP requests.`,
	RunE:  serveCmdFunc,
}

var serveInitialOpen bool

func init() {
	serveCmd.Flags().BoolVar(&serveInitialOpen, "open", true, "Start with no auth method configured")
}

func serveCmdFunc(_ *cobra.Command, _ []string) error {
	provider := resolveProvider()
	cfg := provider.GetConfig()

	rt := runtime.New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rt.Start(ctx, serveInitialOpen); err != nil {
		return fmt.Errorf("starting runtime: %w", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Errorf("error closing runtime: %v", err)
		}
	}()

	var srv *httpframe.Server
	if cfg.HTTPListenAddr != "" {
		srv = httpframe.New(cfg.HTTPListenAddr, rt)
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				logger.Errorf("http transport stopped: %v", err)
			}
		}()
		logger.Infof("listening on %s", cfg.HTTPListenAddr)
	} else {
		logger.Infof("runtime started with no HTTP transport configured")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Infof("shutting down")

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), srv.ShutdownTimeout())
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http transport: %w", err)
		}
	}
	return nil
}

func resolveProvider() config.Provider {
	if path, ok := configPath(); ok {
		return config.NewPathProvider(path)
	}
	return config.NewDefaultProvider()
}
