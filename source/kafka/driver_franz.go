package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"streamline/internal/logging"

	"github.com/twmb/franz-go/pkg/kgo"
)

func init() { Register("franz", newFranzSession) }

// leaveTimeout bounds the group leave on Close.
const leaveTimeout = 5 * time.Second

// fetcher abstracts the kgo client methods the session uses, for testing.
type fetcher interface {
	PollFetches(ctx context.Context) kgo.Fetches
	MarkCommitRecords(rs ...*kgo.Record)
	AddConsumeTopics(topics ...string)
	LeaveGroupContext(ctx context.Context) error
	Close()
}

type franzSession struct {
	client fetcher
	log    *slog.Logger
}

func franzOptions(cfg Config) ([]kgo.Opt, error) {
	reset, err := cfg.ResetPolicy()
	if err != nil {
		return nil, err
	}
	offset := kgo.NewOffset().AtEnd()
	if reset == ResetEarliest {
		offset = kgo.NewOffset().AtStart()
	}
	return []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers()...),
		kgo.ClientID(ClientID),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeResetOffset(offset),
		kgo.SessionTimeout(cfg.SessionTimeout()),
		// only offsets marked through StoreOffset are committed
		kgo.AutoCommitMarks(),
	}, nil
}

func newFranzSession(cfg Config) (Session, error) {
	opts, err := franzOptions(cfg)
	if err != nil {
		return nil, err
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &franzSession{client: client, log: logging.Component("franz-driver")}, nil
}

func (s *franzSession) Subscribe(topics []string) error {
	if err := validateTopics(topics); err != nil {
		return err
	}
	s.client.AddConsumeTopics(topics...)
	return nil
}

func (s *franzSession) Cursor() Cursor { return &franzCursor{s: s} }

func (s *franzSession) StoreOffset(m *Message) error {
	rec, ok := m.handle.(*kgo.Record)
	if !ok {
		return errForeignMessage
	}
	s.client.MarkCommitRecords(rec)
	return nil
}

func (s *franzSession) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
	defer cancel()
	if err := s.client.LeaveGroupContext(ctx); err != nil {
		s.log.Warn("leave group", "err", err)
	}
	s.client.Close()
	return nil
}

// franzCursor hands out the records of one poll before polling again.
type franzCursor struct {
	s      *franzSession
	buf    []*kgo.Record
	closed bool
}

func (c *franzCursor) Next(ctx context.Context) (*Message, error) {
	if c.closed {
		return nil, ErrEndOfStream
	}
	for len(c.buf) == 0 {
		fetches := c.s.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil, ErrEndOfStream
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			e := errs[0]
			return nil, fmt.Errorf("%s[%d]: %w", e.Topic, e.Partition, e.Err)
		}
		c.buf = fetches.Records()
	}
	r := c.buf[0]
	c.buf[0] = nil
	c.buf = c.buf[1:]
	return &Message{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Timestamp: r.Timestamp,
		Key:       r.Key,
		Value:     r.Value,
		handle:    r,
	}, nil
}

func (c *franzCursor) Close() error {
	c.closed = true
	c.buf = nil
	return nil
}
