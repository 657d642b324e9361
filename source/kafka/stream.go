package kafka

import (
	"context"
	"errors"
	"fmt"
)

// Stream owns a Session together with the Cursor derived from it, so the
// pair moves between goroutines as one value. Callers never see either
// part; Close releases the cursor strictly before the session.
type Stream struct {
	cursor  Cursor
	session Session
	closed  bool
}

// NewStream takes ownership of sess.
func NewStream(sess Session) *Stream {
	return &Stream{session: sess, cursor: sess.Cursor()}
}

// Next suspends until the next message. Broker errors come back wrapped in
// ErrDelivery; ErrEndOfStream and context errors are returned as is.
func (s *Stream) Next(ctx context.Context) (*Message, error) {
	if s.closed {
		return nil, ErrEndOfStream
	}
	m, err := s.cursor.Next(ctx)
	switch {
	case err == nil:
		return m, nil
	case errors.Is(err, ErrEndOfStream), ctx.Err() != nil:
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %w", ErrDelivery, err)
	}
}

// storeOffset is the only path from outside the stream to the session.
func (s *Stream) storeOffset(m *Message) error {
	if s.closed {
		return errors.New("stream closed")
	}
	return s.session.StoreOffset(m)
}

func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	cerr := s.cursor.Close()
	serr := s.session.Close()
	return errors.Join(cerr, serr)
}
