package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conneroisu/mdserve/internal/config"
	"github.com/conneroisu/mdserve/internal/errors"
	"github.com/conneroisu/mdserve/internal/logging"
	"github.com/conneroisu/mdserve/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// shutdownGrace bounds how long in-flight requests may finish after an
// interrupt before the process exits.
const shutdownGrace = 5 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.NewEnhancedError(
			"Configuration error",
			err,
			errors.ConfigurationError(err.Error(), viper.ConfigFileUsed()),
		)
	}

	cfg.TargetPath = "."
	if len(args) > 0 {
		cfg.TargetPath = args[0]
	}

	log := newLogger(cfg)

	srv, err := server.New(cfg, log)
	if err != nil {
		return errors.NewEnhancedError(
			fmt.Sprintf("Cannot serve %s", cfg.TargetPath),
			err,
			errors.PathError(cfg.TargetPath, err),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}
	}()

	if err := srv.Start(ctx); err != nil {
		return errors.NewEnhancedError(
			"Failed to start server",
			err,
			errors.ServerStartError(err, cfg.Server.Port),
		)
	}
	return nil
}

// newLogger builds the process logger from the resolved configuration.
// A bad level name falls back to info rather than refusing to start.
func newLogger(cfg *config.Config) logging.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using info\n", err)
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
}
