// Package event holds the record type the source emits downstream and the
// bounded channel it is delivered through.
package event

import (
	"bytes"
	"encoding/json"
)

// Field is one named value attached to an Event.
type Field struct {
	Name  string
	Value []byte
}

// Event is a message body plus an ordered set of uniquely named fields.
type Event struct {
	Message []byte
	fields  []Field
}

func New(message []byte) *Event {
	return &Event{Message: message}
}

// Insert sets name to value, replacing an existing field of the same name
// in place.
func (e *Event) Insert(name string, value []byte) {
	for i := range e.fields {
		if e.fields[i].Name == name {
			e.fields[i].Value = value
			return
		}
	}
	e.fields = append(e.fields, Field{Name: name, Value: value})
}

func (e *Event) Get(name string) ([]byte, bool) {
	for _, f := range e.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Fields returns a copy of the fields in insertion order.
func (e *Event) Fields() []Field {
	out := make([]Field, len(e.fields))
	copy(out, e.fields)
	return out
}

func (e *Event) Len() int { return len(e.fields) }

// MarshalJSON renders {"message": "...", "fields": {...}} with field values
// as strings and fields kept in insertion order.
func (e Event) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"message":`)
	if err := writeString(&buf, e.Message); err != nil {
		return nil, err
	}
	if len(e.fields) > 0 {
		buf.WriteString(`,"fields":{`)
		for i, f := range e.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(&buf, []byte(f.Name)); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			if err := writeString(&buf, f.Value); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeString(buf *bytes.Buffer, b []byte) error {
	s, err := json.Marshal(string(b))
	if err != nil {
		return err
	}
	buf.Write(s)
	return nil
}
