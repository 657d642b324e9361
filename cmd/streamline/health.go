package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"streamline/internal/transport"
)

var healthOpts struct {
	addr    string
	service string
	timeout time.Duration
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Query a running instance over gRPC health",
	Long: `Ask a running streamline for its serving status.

Exits non-zero unless the source is SERVING.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := transport.Dial(healthOpts.addr)
		if err != nil {
			return err
		}
		defer cli.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), healthOpts.timeout)
		defer cancel()
		st, err := cli.Check(ctx, healthOpts.service)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), st)
		if st != healthpb.HealthCheckResponse_SERVING {
			return fmt.Errorf("status %s", st)
		}
		return nil
	},
}

func init() {
	f := healthCmd.Flags()
	f.StringVar(&healthOpts.addr, "addr", "localhost:7070", "gRPC address")
	f.StringVar(&healthOpts.service, "service", transport.Service, "health service name")
	f.DurationVar(&healthOpts.timeout, "timeout", 5*time.Second, "request timeout")
}
