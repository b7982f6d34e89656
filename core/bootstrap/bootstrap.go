// Package bootstrap runs the startup pipeline shared by every entrypoint:
// logger initialization followed by persistent store construction.
package bootstrap

import (
	"fmt"
	"log/slog"

	coreconfig "github.com/m3rciful/skybot/core/config"
	"github.com/m3rciful/skybot/core/logger"
)

// Options parameterizes the pipeline over the application's store type so
// this package stays ignorant of the storage schema.
type Options[S any] struct {
	Config *coreconfig.Config

	// OpenStore constructs the persistent store. Required.
	OpenStore func() (S, error)
}

// Result carries what the pipeline produced.
type Result[S any] struct {
	Config *coreconfig.Config
	Store  S
}

// Run executes the pipeline. On error the logger may already be
// initialized; the caller owns logger.Shutdown either way.
func Run[S any](opts Options[S]) (*Result[S], error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config")
	}
	if opts.OpenStore == nil {
		return nil, fmt.Errorf("bootstrap: nil store opener")
	}

	if err := logger.InitLogger(opts.Config); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	store, err := opts.OpenStore()
	if err != nil {
		logger.Error(logger.Background(), "app", "store_open_failed",
			slog.String("err", err.Error()))
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &Result[S]{Config: opts.Config, Store: store}, nil
}
