package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Client struct {
	cc     *grpc.ClientConn
	health healthpb.HealthClient
}

// Dial prepares a plaintext client for addr. The connection is made lazily
// on the first call.
func Dial(addr string) (*Client, error) {
	cc, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	return &Client{cc: cc, health: healthpb.NewHealthClient(cc)}, nil
}

// Check returns the serving status of service ("" for the whole process).
func (c *Client) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("transport: %w", err)
	}
	return resp.GetStatus(), nil
}

func (c *Client) Close() error { return c.cc.Close() }
