package kafka

import "errors"

// Construction-time errors.
var (
	ErrInvalidConfig      = errors.New("invalid kafka source config")
	ErrInvalidOffsetReset = errors.New("invalid auto_offset_reset")
	ErrCreate             = errors.New("could not create kafka consumer")
	ErrSubscribe          = errors.New("could not subscribe to kafka topics")
)

// Runtime errors. Each one terminates the source.
var (
	ErrDelivery    = errors.New("error reading message from kafka")
	ErrPayload     = errors.New("cannot extract payload")
	ErrKey         = errors.New("cannot extract key")
	ErrStoreOffset = errors.New("cannot store offset")
	ErrForward     = errors.New("error sending to pipeline")
	ErrEndOfStream = errors.New("kafka message stream ended")
)

var stages = []struct {
	err  error
	name string
}{
	{ErrCreate, "create"},
	{ErrSubscribe, "subscribe"},
	{ErrDelivery, "delivery"},
	{ErrPayload, "payload"},
	{ErrKey, "key"},
	{ErrStoreOffset, "offset"},
	{ErrForward, "forward"},
	{ErrEndOfStream, "end_of_stream"},
}

// Stage names the part of the source err came from, or "" when err is not
// a classified source error.
func Stage(err error) string {
	for _, s := range stages {
		if errors.Is(err, s.err) {
			return s.name
		}
	}
	return ""
}
