package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"streamline/internal/logging"
	"streamline/internal/transport"
	"streamline/source/kafka"
)

type fakeRunner struct {
	state atomic.Int32
	err   error
}

func (f *fakeRunner) Run(ctx context.Context) error {
	f.state.Store(int32(kafka.StateRunning))
	defer f.state.Store(int32(kafka.StateTerminated))
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return nil
}

func (f *fakeRunner) State() kafka.State { return kafka.State(f.state.Load()) }

func newTestEngine(t *testing.T, r runner) (*Engine, *transport.Client) {
	t.Helper()
	srv, err := transport.StartServer(0)
	if err != nil {
		t.Fatalf("StartServer: %v", err)
	}
	cli, err := transport.Dial(fmt.Sprintf("localhost:%d", srv.Addr().(*net.TCPAddr).Port))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { cli.Close() })
	return &Engine{transport: srv, runner: r, log: logging.Component("engine")}, cli
}

func TestEngine_ServingWhileRunning(t *testing.T) {
	e, cli := newTestEngine(t, &fakeRunner{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	var st healthpb.HealthCheckResponse_ServingStatus
	for time.Now().Before(deadline) {
		cctx, ccancel := context.WithTimeout(context.Background(), time.Second)
		st, _ = cli.Check(cctx, transport.Service)
		ccancel()
		if st == healthpb.HealthCheckResponse_SERVING {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if st != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("want SERVING while the pipeline runs, got %s", st)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("want clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestEngine_PipelineFailureStopsEngine(t *testing.T) {
	boom := fmt.Errorf("%w: broker gone", kafka.ErrDelivery)
	e, _ := newTestEngine(t, &fakeRunner{err: boom})

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	select {
	case err := <-done:
		if !errors.Is(err, kafka.ErrDelivery) {
			t.Fatalf("want pipeline error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop after pipeline failure")
	}
}

func TestBootstrap_RequiresPipeline(t *testing.T) {
	if _, err := Bootstrap(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without pipeline file")
	}
	_, err := Bootstrap(context.Background(), Config{PipelineYml: filepath.Join(t.TempDir(), "missing.yml")})
	if err == nil {
		t.Fatal("expected error for missing pipeline file")
	}
}
