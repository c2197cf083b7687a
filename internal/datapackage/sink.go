package datapackage

import (
	"context"
	"fmt"
	"log/slog"

	"ecomigrate/internal/config"
)

// Sink persists a datapackage and returns where it was stored.
type Sink interface {
	Write(ctx context.Context, pkg *Package) (string, error)
}

// NewSink selects the sink for the configured output driver.
func NewSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Sink, error) {
	switch cfg.Output.Driver {
	case config.DriverFS, "":
		return NewFileSink(cfg.Paths.OutputDir, logger), nil
	case config.DriverS3:
		return NewS3Sink(ctx, cfg.Output.S3, logger)
	default:
		return nil, fmt.Errorf("unknown output driver %q", cfg.Output.Driver)
	}
}
