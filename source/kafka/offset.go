package kafka

import (
	"fmt"

	"streamline/internal/telemetry"
)

// OffsetTracker stores the position of a transformed message on the session
// that delivered it. Commits happen later, batched by the client, which
// gives at-least-once delivery: a crash before the flush redelivers, it
// never loses a stored message.
type OffsetTracker struct {
	stream *Stream
}

func NewOffsetTracker(s *Stream) *OffsetTracker { return &OffsetTracker{stream: s} }

func (t *OffsetTracker) Store(m *Message) error {
	if err := t.stream.storeOffset(m); err != nil {
		return fmt.Errorf("%w: %s[%d]@%d: %w", ErrStoreOffset, m.Topic, m.Partition, m.Offset, err)
	}
	telemetry.OffsetsStored.Inc()
	return nil
}
