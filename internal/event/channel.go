package event

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Send once the receiving side closed the channel
// without a more specific error.
var ErrClosed = errors.New("event channel closed")

// Sender is the producer half of a downstream event channel.
type Sender interface {
	Send(ctx context.Context, ev Event) error
}

// Channel is a bounded event queue between the source and the pipeline.
// Send blocks while the queue is full. The receiver stops the sender with
// Close; the sender signals the end of input with CloseSend.
type Channel struct {
	items chan Event
	done  chan struct{}

	once sync.Once
	mu   sync.Mutex
	err  error
}

// NewChannel returns a channel holding at most capacity undelivered events.
// A capacity of zero makes every Send wait for the receiver.
func NewChannel(capacity int) *Channel {
	if capacity < 0 {
		capacity = 0
	}
	return &Channel{
		items: make(chan Event, capacity),
		done:  make(chan struct{}),
	}
}

func (c *Channel) Send(ctx context.Context, ev Event) error {
	// a closed receiver wins over free capacity
	select {
	case <-c.done:
		return c.Err()
	default:
	}
	select {
	case c.items <- ev:
		return nil
	case <-c.done:
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events is the receive side. It is closed after CloseSend.
func (c *Channel) Events() <-chan Event { return c.items }

// Close is called by the receiver. Pending and future Sends fail with err,
// or ErrClosed when err is nil. Only the first call has an effect.
func (c *Channel) Close(err error) {
	c.once.Do(func() {
		if err == nil {
			err = ErrClosed
		}
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
	})
}

// Err reports why the receiver closed the channel, or nil while it is open.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// CloseSend ends the input. It must be called once, by the only sender,
// after its last Send has returned.
func (c *Channel) CloseSend() { close(c.items) }

func (c *Channel) Cap() int { return cap(c.items) }
