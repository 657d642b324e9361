package engine

import (
	"context"
	"errors"
	"fmt"

	"streamline/internal/logging"
	"streamline/internal/pipeline"
	"streamline/internal/transport"
)

type Config struct {
	GRPCPort    int
	MetricsPort int // 0 disables /metrics
	PipelineYml string
}

func Bootstrap(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.PipelineYml == "" {
		return nil, errors.New("engine: pipeline file is required")
	}

	// 1. transport server
	srv, err := transport.StartServer(cfg.GRPCPort)
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}

	// 2. pipeline runner, source connected and subscribed
	runner, err := pipeline.Compile(cfg.PipelineYml)
	if err != nil {
		srv.Stop()
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	logging.Component("engine").Info("engine bootstrapped",
		"grpc_addr", srv.Addr().String(), "metrics_port", cfg.MetricsPort, "pipeline", cfg.PipelineYml)

	return &Engine{
		transport:   srv,
		runner:      runner,
		metricsPort: cfg.MetricsPort,
		log:         logging.Component("engine"),
	}, nil
}
