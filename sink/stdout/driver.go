package stdout

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"streamline/internal/event"
	"streamline/internal/telemetry"
	"streamline/sink"
)

/* ────────── public YAML config ────────── */
type Config struct {
	DelayMS       int  `yaml:"delay_ms"`        // artificial per-event delay
	PrintCounter  bool `yaml:"print_counter"`   // prepend seq#
	ValueMaxBytes int  `yaml:"value_max_bytes"` // 0 = no truncation
}

/* ────────── driver ────────── */
type driver struct {
	cfg Config

	mu  sync.Mutex // guards w
	w   *bufio.Writer
	seq atomic.Uint64
}

func newDriver(out io.Writer) *driver {
	return &driver{w: bufio.NewWriter(out)}
}

/* ────────── sink.Adapter ────────── */
func (d *driver) Configure(raw any) error {
	if c, ok := raw.(Config); ok {
		d.cfg = c
		return nil
	}
	var c Config
	if err := sink.Decode(raw, &c); err != nil {
		return fmt.Errorf("stdout-sink: %w", err)
	}
	if c.ValueMaxBytes < 0 || c.DelayMS < 0 {
		return fmt.Errorf("stdout-sink: negative value_max_bytes or delay_ms")
	}
	d.cfg = c
	return nil
}

func (d *driver) Push(ev event.Event) error {
	if d.cfg.DelayMS > 0 {
		time.Sleep(time.Duration(d.cfg.DelayMS) * time.Millisecond)
	}
	if n := d.cfg.ValueMaxBytes; n > 0 && len(ev.Message) > n {
		ev.Message = ev.Message[:n]
	}
	line, err := json.Marshal(ev)
	if err != nil {
		telemetry.SinkPushes.WithLabelValues("stdout", "error").Inc()
		return fmt.Errorf("stdout-sink: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cfg.PrintCounter {
		fmt.Fprintf(d.w, "[sink %06d] ", d.seq.Add(1))
	}
	d.w.Write(line)
	d.w.WriteByte('\n')
	// one line per event, visible immediately
	if err := d.w.Flush(); err != nil {
		telemetry.SinkPushes.WithLabelValues("stdout", "error").Inc()
		return fmt.Errorf("stdout-sink: %w", err)
	}
	telemetry.SinkPushes.WithLabelValues("stdout", "ok").Inc()
	return nil
}

func (d *driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.w.Flush()
}

/* ────────── auto-register ────────── */
func init() {
	sink.Register("stdout", func() sink.Adapter { return newDriver(os.Stdout) })
}
