package kafka

import (
	"fmt"

	"streamline/internal/event"
)

type decoder func([]byte) ([]byte, error)

func rawBytes(b []byte) ([]byte, error) { return b, nil }

// Transformer turns one message into at most one event and stores its
// offset once the event is complete.
type Transformer struct {
	keyField string
	tracker  *OffsetTracker

	decodePayload decoder
	decodeKey     decoder
}

// NewTransformer copies message keys into keyField when it is non-empty.
func NewTransformer(keyField string, tracker *OffsetTracker) *Transformer {
	return &Transformer{
		keyField:      keyField,
		tracker:       tracker,
		decodePayload: rawBytes,
		decodeKey:     rawBytes,
	}
}

// Transform returns (nil, nil) for a message without payload; such a
// message is skipped and its offset is left alone. Every error is terminal.
func (t *Transformer) Transform(m *Message) (*event.Event, error) {
	if m.Value == nil {
		return nil, nil
	}
	payload, err := t.decodePayload(m.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s[%d]@%d: %w", ErrPayload, m.Topic, m.Partition, m.Offset, err)
	}
	ev := event.New(payload)

	if t.keyField != "" && m.Key != nil {
		key, err := t.decodeKey(m.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s[%d]@%d: %w", ErrKey, m.Topic, m.Partition, m.Offset, err)
		}
		ev.Insert(t.keyField, key)
	}

	if err := t.tracker.Store(m); err != nil {
		return nil, err
	}
	return ev, nil
}
