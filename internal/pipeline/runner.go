package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"streamline/internal/event"
	"streamline/internal/logging"
	"streamline/sink"
	"streamline/source/kafka"
)

// source is the part of *kafka.Source the runner drives.
type source interface {
	Run(ctx context.Context, out event.Sender) error
	State() kafka.State
}

// Runner moves events from one source through a bounded channel into every
// configured sink, in order.
type Runner struct {
	source source
	events *event.Channel
	sinks  []sink.Adapter
	log    *slog.Logger

	started atomic.Bool
}

func NewRunner(capacity int) *Runner {
	return &Runner{
		events: event.NewChannel(capacity),
		log:    logging.Component("pipeline"),
	}
}

func (r *Runner) AddSink(s sink.Adapter) { r.sinks = append(r.sinks, s) }
func (r *Runner) SetSource(s source)     { r.source = s }

// State reports the source lifecycle; health is derived from it.
func (r *Runner) State() kafka.State {
	if r.source == nil {
		return kafka.StateUninitialized
	}
	return r.source.State()
}

/*──────── event routing ───────*/
func (r *Runner) pushEvent(ev event.Event) error {
	for _, s := range r.sinks {
		if err := s.Push(ev); err != nil {
			return err
		}
	}
	return nil
}

// Run blocks until the source stops. A stop caused by ctx ending is not an
// error. Sinks are closed before Run returns.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return errors.New("runner: no source configured")
	}
	if !r.started.CompareAndSwap(false, true) {
		return errors.New("runner: already started")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer r.events.CloseSend()
		err := r.source.Run(gctx, r.events)
		if kafka.IsShutdown(err) && ctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		// drain until the source closes its side, so no event is stranded
		for ev := range r.events.Events() {
			if err := r.pushEvent(ev); err != nil {
				err = fmt.Errorf("sink: %w", err)
				r.events.Close(err)
				return err
			}
		}
		return nil
	})
	err := g.Wait()

	if cerr := r.Close(); cerr != nil {
		r.log.Warn("closing sinks", "err", cerr)
	}
	return err
}

// Close releases every sink.
func (r *Runner) Close() error {
	var errs []error
	for _, s := range r.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
