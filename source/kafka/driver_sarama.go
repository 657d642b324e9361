package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"streamline/internal/logging"

	"github.com/IBM/sarama"
)

var (
	errForeignMessage = errors.New("message was not delivered by this session")
	errRevoked        = errors.New("partition no longer assigned")
)

func init() { Register("sarama", newSaramaSession) }

// consumerGroup is the part of sarama.ConsumerGroup the session uses.
type consumerGroup interface {
	Consume(ctx context.Context, topics []string, handler sarama.ConsumerGroupHandler) error
	Errors() <-chan error
	Close() error
}

// saramaSession owns a sarama client and the consumer group built on it.
// Messages from every claim are funnelled through msgs; the channel is
// unbuffered so each partition has at most one message in flight.
type saramaSession struct {
	client io.Closer
	group  consumerGroup
	topics []string
	log    *slog.Logger

	msgs chan *Message
	errs chan error

	ctx     context.Context
	cancel  context.CancelFunc
	start   sync.Once
	started atomic.Bool
	done    chan struct{} // closed when the consume loop exits
}

func saramaConfig(cfg Config) (*sarama.Config, error) {
	reset, err := cfg.ResetPolicy()
	if err != nil {
		return nil, err
	}
	sc := sarama.NewConfig()
	sc.ClientID = ClientID
	sc.Consumer.Return.Errors = true
	// offsets move only through MarkOffset; the committer flushes marks
	sc.Consumer.Offsets.AutoCommit.Enable = true
	switch reset {
	case ResetEarliest:
		sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	default:
		sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	sc.Consumer.Group.Session.Timeout = cfg.SessionTimeout()
	sc.Consumer.Group.Heartbeat.Interval = cfg.SessionTimeout() / 3
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func newSaramaSession(cfg Config) (Session, error) {
	sc, err := saramaConfig(cfg)
	if err != nil {
		return nil, err
	}
	cl, err := sarama.NewClient(cfg.Brokers(), sc)
	if err != nil {
		return nil, err
	}
	group, err := sarama.NewConsumerGroupFromClient(cfg.GroupID, cl)
	if err != nil {
		_ = cl.Close()
		return nil, err
	}
	return newGroupSession(cl, group), nil
}

func newGroupSession(client io.Closer, group consumerGroup) *saramaSession {
	ctx, cancel := context.WithCancel(context.Background())
	return &saramaSession{
		client: client,
		group:  group,
		log:    logging.Component("sarama-driver"),
		msgs:   make(chan *Message),
		errs:   make(chan error),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (s *saramaSession) Subscribe(topics []string) error {
	if err := validateTopics(topics); err != nil {
		return err
	}
	if s.started.Load() {
		return errors.New("sarama-driver: already consuming")
	}
	s.topics = append([]string(nil), topics...)
	return nil
}

func (s *saramaSession) Cursor() Cursor { return &saramaCursor{s: s} }

func (s *saramaSession) StoreOffset(m *Message) error {
	gs, ok := m.handle.(sarama.ConsumerGroupSession)
	if !ok {
		return errForeignMessage
	}
	if gs.Context().Err() != nil {
		return errRevoked
	}
	gs.MarkOffset(m.Topic, m.Partition, m.Offset+1, "")
	return nil
}

func (s *saramaSession) Close() error {
	s.cancel()
	var errs []error
	if s.group != nil {
		errs = append(errs, s.group.Close())
	}
	s.wait()
	if s.client != nil {
		errs = append(errs, s.client.Close())
	}
	return errors.Join(errs...)
}

// run joins the group. Called once, on the first poll.
func (s *saramaSession) run() {
	s.started.Store(true)
	go s.forwardErrors()
	go s.consume()
}

func (s *saramaSession) wait() {
	if s.started.Load() {
		<-s.done
	}
}

func (s *saramaSession) consume() {
	defer close(s.done)
	h := &groupHandler{s: s}
	for {
		// Consume returns on every rebalance; loop to rejoin
		err := s.group.Consume(s.ctx, s.topics, h)
		if s.ctx.Err() != nil {
			return
		}
		if err != nil {
			if !errors.Is(err, sarama.ErrClosedConsumerGroup) {
				s.fail(err)
			}
			return
		}
	}
}

func (s *saramaSession) forwardErrors() {
	for err := range s.group.Errors() {
		s.fail(err)
	}
}

func (s *saramaSession) fail(err error) {
	select {
	case s.errs <- err:
	case <-s.ctx.Done():
	}
}

type saramaCursor struct {
	s      *saramaSession
	closed bool
}

func (c *saramaCursor) Next(ctx context.Context) (*Message, error) {
	if c.closed {
		return nil, ErrEndOfStream
	}
	c.s.start.Do(c.s.run)
	for {
		select {
		case m := <-c.s.msgs:
			// a claim may hand over its last message as its session ends;
			// the partition's next owner receives it again
			if gs, ok := m.handle.(sarama.ConsumerGroupSession); ok && gs.Context().Err() != nil {
				c.s.log.Debug("dropping message from ended group session",
					"topic", m.Topic, "partition", m.Partition, "offset", m.Offset)
				continue
			}
			return m, nil
		case err := <-c.s.errs:
			return nil, err
		case <-c.s.done:
			return nil, ErrEndOfStream
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close stops the consume loop and waits for it, so every claim has
// released its messages before the session itself is closed.
func (c *saramaCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.s.cancel()
	c.s.wait()
	return nil
}

type groupHandler struct {
	s *saramaSession
}

func (h *groupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	h.s.log.Info("partitions assigned", "member", sess.MemberID(), "generation", sess.GenerationID(), "claims", sess.Claims())
	return nil
}

func (h *groupHandler) Cleanup(sess sarama.ConsumerGroupSession) error {
	h.s.log.Info("group session ended", "member", sess.MemberID(), "generation", sess.GenerationID())
	return nil
}

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			m := &Message{
				Topic:     msg.Topic,
				Partition: msg.Partition,
				Offset:    msg.Offset,
				Timestamp: msg.Timestamp,
				Key:       msg.Key,
				Value:     msg.Value,
				handle:    sess,
			}
			select {
			case h.s.msgs <- m:
			case <-sess.Context().Done():
				return nil
			}
		case <-sess.Context().Done():
			return nil
		}
	}
}
