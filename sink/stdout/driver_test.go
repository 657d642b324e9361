package stdout

import (
	"bytes"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"streamline/internal/event"
	"streamline/sink"
)

func TestDriver_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	d := newDriver(&buf)
	if err := d.Configure(Config{PrintCounter: true}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	ev := event.New([]byte("my message"))
	ev.Insert("message_key", []byte("my key"))
	if err := d.Push(*ev); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := d.Push(*event.New([]byte("second"))); err != nil {
		t.Fatalf("Push: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %q", buf.String())
	}
	want := `[sink 000001] {"message":"my message","fields":{"message_key":"my key"}}`
	if lines[0] != want {
		t.Fatalf("want %s, got %s", want, lines[0])
	}
	if !strings.HasPrefix(lines[1], "[sink 000002] ") {
		t.Fatalf("counter not incremented: %s", lines[1])
	}
}

func TestDriver_TruncatesValue(t *testing.T) {
	var buf bytes.Buffer
	d := newDriver(&buf)
	var node yaml.Node
	if err := yaml.Unmarshal([]byte("value_max_bytes: 2\n"), &node); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	// Unmarshal into a Node yields a document node wrapping the mapping.
	if err := d.Configure(node.Content[0]); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	ev := event.New([]byte("hello"))
	if err := d.Push(*ev); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); !strings.Contains(got, `"message":"he"`) {
		t.Fatalf("want truncated message, got %s", got)
	}
	if string(ev.Message) != "hello" {
		t.Fatal("truncation must not touch the caller's event")
	}
}

func TestDriver_Registered(t *testing.T) {
	a, err := sink.NewAdapter("stdout")
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	if err := a.Configure(nil); err != nil {
		t.Fatalf("Configure(nil): %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestDriver_RejectsBadConfig(t *testing.T) {
	if err := newDriver(&bytes.Buffer{}).Configure("nope"); err == nil {
		t.Fatal("expected error")
	}
}
