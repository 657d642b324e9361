package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"streamline/internal/telemetry"
	"streamline/internal/transport"
	"streamline/source/kafka"
)

// healthEvery is how often source state is mirrored into the health service.
const healthEvery = 250 * time.Millisecond

type runner interface {
	Run(ctx context.Context) error
	State() kafka.State
}

type Engine struct {
	transport   *transport.Server
	runner      runner
	metricsPort int
	log         *slog.Logger
}

// Run serves health and metrics while the pipeline runs. It returns when
// ctx ends or the pipeline stops, whichever comes first, with the pipeline's
// error if it failed.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(e.transport.Serve)
	g.Go(func() error {
		<-gctx.Done()
		e.transport.Stop()
		return nil
	})

	if e.metricsPort > 0 {
		g.Go(func() error { return telemetry.Serve(gctx, e.metricsPort) })
	}

	g.Go(func() error {
		t := time.NewTicker(healthEvery)
		defer t.Stop()
		for {
			e.transport.SetServing(e.runner.State() == kafka.StateRunning)
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
			}
		}
	})

	g.Go(func() error {
		// the pipeline ending takes the whole engine down
		defer cancel()
		err := e.runner.Run(gctx)
		e.transport.SetServing(false)
		if err != nil {
			e.log.Error("pipeline stopped", "err", err)
		}
		return err
	})

	return g.Wait()
}
