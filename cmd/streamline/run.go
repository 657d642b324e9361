package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"streamline/internal/engine"
	"streamline/internal/logging"
)

var runOpts struct {
	pipeline    string
	grpcPort    int
	metricsPort int
	logLevel    string
	logJSON     bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.InitFromEnv()
		if cmd.Flags().Changed("log-level") || cmd.Flags().Changed("log-json") {
			logging.Configure(logging.Options{Level: runOpts.logLevel, JSON: runOpts.logJSON})
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := engine.Bootstrap(ctx, engine.Config{
			GRPCPort:    runOpts.grpcPort,
			MetricsPort: runOpts.metricsPort,
			PipelineYml: runOpts.pipeline,
		})
		if err != nil {
			return err
		}
		return e.Run(ctx)
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runOpts.pipeline, "pipeline", "p", "pipeline.yml", "pipeline file path")
	f.IntVar(&runOpts.grpcPort, "grpc-port", 7070, "gRPC health port")
	f.IntVar(&runOpts.metricsPort, "metrics-port", 9100, "prometheus /metrics port, 0 disables")
	f.StringVar(&runOpts.logLevel, "log-level", "info", "debug, info, warn or error")
	f.BoolVar(&runOpts.logJSON, "log-json", false, "log as JSON")
}
