// Package cmd hosts the shared process runner: config resolution, logger
// lifecycle and signal-driven shutdown.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	coreconfig "github.com/m3rciful/skybot/core/config"
	"github.com/m3rciful/skybot/core/logger"
)

// ConfigCarrier exposes the embedded core configuration of an
// application-specific config struct.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// Options parameterizes Run over the application's config type.
type Options[C ConfigCarrier] struct {
	// ConfigEnvVar names the environment variable overriding the config
	// path; the -config flag wins over both.
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (C, error)

	// Run is the application body. It must return once ctx is done.
	Run func(ctx context.Context, cfg C) error
}

// Run executes the process lifecycle and returns the exit code.
func Run[C ConfigCarrier](opts Options[C]) int {
	path := flag.String("config", "", "path to config file")
	flag.Parse()

	configPath := *path
	if configPath == "" && opts.ConfigEnvVar != "" {
		configPath = os.Getenv(opts.ConfigEnvVar)
	}
	if configPath == "" {
		configPath = opts.DefaultConfigPath
	}

	cfg, err := opts.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config %s: %v\n", configPath, err)
		return 1
	}

	defer logger.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := opts.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(logger.Background(), "app", "run_failed",
			slog.String("err", err.Error()))
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return 1
	}
	return 0
}
