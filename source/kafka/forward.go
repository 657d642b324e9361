package kafka

import (
	"context"
	"fmt"

	"streamline/internal/event"
	"streamline/internal/telemetry"
)

// ForwardingSink pushes events into the downstream channel. It holds no
// buffer of its own and never retries a failed send.
type ForwardingSink struct {
	out event.Sender
}

func NewForwardingSink(out event.Sender) *ForwardingSink { return &ForwardingSink{out: out} }

// Forward blocks while the channel is full.
func (f *ForwardingSink) Forward(ctx context.Context, ev *event.Event) error {
	if err := f.out.Send(ctx, *ev); err != nil {
		return fmt.Errorf("%w: %w", ErrForward, err)
	}
	telemetry.EventsForwarded.Inc()
	return nil
}
