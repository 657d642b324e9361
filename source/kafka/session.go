package kafka

import (
	"context"
	"time"
)

// Message is one record delivered by a Session. Key and Value are nil when
// the broker sent none, which is distinct from an empty slice.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Timestamp time.Time
	Key       []byte
	Value     []byte

	// handle ties the message to the delivering session (the sarama group
	// session, the franz-go record).
	handle any
}

// Session is a consumer-group member built by a driver. It is owned by
// exactly one Stream and must outlive the Cursor derived from it.
type Session interface {
	// Subscribe joins the full topic set in one call.
	Subscribe(topics []string) error
	// Cursor returns the message iterator over this session.
	Cursor() Cursor
	// StoreOffset records msg as processed; the client commits stored
	// offsets on its own schedule.
	StoreOffset(msg *Message) error
	Close() error
}

// Cursor is a single-pass, non-restartable iterator over a session's
// messages.
type Cursor interface {
	// Next blocks until a message or a broker error is available. It
	// returns ErrEndOfStream once the session stops delivering, and
	// ctx.Err() when ctx ends first.
	Next(ctx context.Context) (*Message, error)
	Close() error
}
