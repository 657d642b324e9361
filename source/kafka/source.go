package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"streamline/internal/event"
	"streamline/internal/logging"
	"streamline/internal/telemetry"
)

// State is the lifecycle position of a Source.
type State int32

const (
	StateUninitialized State = iota
	StateConnected
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnected:
		return "connected"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Source consumes the configured topics and forwards one event per
// message with a payload. It stops at the first error and is never
// restarted; a supervisor owns restart policy.
type Source struct {
	cfg   Config
	state atomic.Int32

	stream    *Stream
	transform *Transformer
	log       *slog.Logger
}

// New connects and subscribes a consumer with the named driver.
func New(driver string, cfg Config) (*Source, error) {
	sess, err := Create(driver, cfg)
	if err != nil {
		return nil, err
	}
	return newSource(cfg, sess), nil
}

func newSource(cfg Config, sess Session) *Source {
	stream := NewStream(sess)
	s := &Source{
		cfg:       cfg,
		stream:    stream,
		transform: NewTransformer(cfg.KeyField, NewOffsetTracker(stream)),
		log:       logging.Component("kafka-source"),
	}
	s.setState(StateConnected)
	return s
}

func (s *Source) State() State { return State(s.state.Load()) }

func (s *Source) setState(st State) {
	s.state.Store(int32(st))
	telemetry.SourceState.Set(float64(st))
}

// Run polls, transforms, stores offsets and forwards until the first
// error or until ctx ends. The stream is closed before Run returns. Run may
// be called only once.
func (s *Source) Run(ctx context.Context, out event.Sender) error {
	if !s.state.CompareAndSwap(int32(StateConnected), int32(StateRunning)) {
		return fmt.Errorf("kafka source: cannot run in state %s", s.State())
	}
	telemetry.SourceState.Set(float64(StateRunning))
	s.log.Info("kafka source running", "topics", s.cfg.Topics, "group", s.cfg.GroupID)

	err := s.loop(ctx, NewForwardingSink(out))

	if cerr := s.stream.Close(); cerr != nil {
		s.log.Warn("closing kafka stream", "err", cerr)
	}
	s.setState(StateTerminated)

	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		s.log.Info("kafka source stopped", "reason", ctx.Err())
		return err
	}
	stage := Stage(err)
	telemetry.SourceErrors.WithLabelValues(stage).Inc()
	s.log.Error("kafka source terminated", "stage", stage, "err", err)
	return err
}

func (s *Source) loop(ctx context.Context, fwd *ForwardingSink) error {
	for {
		m, err := s.stream.Next(ctx)
		if err != nil {
			return err
		}
		telemetry.MessagesReceived.Inc()

		ev, err := s.transform.Transform(m)
		if err != nil {
			return err
		}
		if ev == nil {
			telemetry.MessagesSkipped.Inc()
			s.log.Debug("skipping message without payload", "topic", m.Topic, "partition", m.Partition, "offset", m.Offset)
			continue
		}
		if err := fwd.Forward(ctx, ev); err != nil {
			return err
		}
	}
}

// IsShutdown reports whether err only reflects the caller ending Run.
func IsShutdown(err error) bool {
	return errors.Is(err, context.Canceled)
}
