package kafka

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IBM/sarama"

	"streamline/internal/event"
	"streamline/internal/logging"
	"streamline/internal/telemetry"
	"streamline/sink"
)

type Config struct {
	Brokers  []string `yaml:"brokers"`
	Topic    string   `yaml:"topic"`
	Acks     int16    `yaml:"required_acks"` // 0,1,-1
	KeyField string   `yaml:"key_field"`     // event field used as record key
}

var newAsyncProducer = sarama.NewAsyncProducer

// driver republishes events: the body becomes the record value, KeyField
// the record key and every other field a record header.
type driver struct {
	cfg Config
	p   sarama.AsyncProducer
	log *slog.Logger

	drained chan struct{}
	mu      sync.Mutex
	err     error // first asynchronous delivery failure
	closed  bool
}

func (d *driver) Configure(raw any) error {
	cfg, ok := raw.(Config)
	if !ok {
		if err := sink.Decode(raw, &cfg); err != nil {
			return fmt.Errorf("kafka-sink: %w", err)
		}
	}
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return errors.New("kafka-sink: brokers and topic are required")
	}
	d.cfg = cfg

	sc := sarama.NewConfig()
	sc.ClientID = "streamline-sink"
	sc.Producer.RequiredAcks = sarama.RequiredAcks(cfg.Acks)
	sc.Producer.Return.Errors = true
	p, err := newAsyncProducer(cfg.Brokers, sc)
	if err != nil {
		return fmt.Errorf("kafka-sink: %w", err)
	}
	d.p = p
	d.log = logging.Component("kafka-sink")
	d.drained = make(chan struct{})
	go d.drainErrors()
	return nil
}

func (d *driver) drainErrors() {
	defer close(d.drained)
	for perr := range d.p.Errors() {
		telemetry.SinkPushes.WithLabelValues("kafka", "error").Inc()
		d.log.Error("produce failed", "topic", d.cfg.Topic, "err", perr.Err)
		d.mu.Lock()
		if d.err == nil {
			d.err = perr.Err
		}
		d.mu.Unlock()
	}
}

func (d *driver) failure() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *driver) Push(ev event.Event) error {
	if d.p == nil {
		return errors.New("kafka-sink: not configured")
	}
	if err := d.failure(); err != nil {
		return fmt.Errorf("kafka-sink: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: d.cfg.Topic,
		Value: sarama.ByteEncoder(ev.Message),
	}
	for _, f := range ev.Fields() {
		if d.cfg.KeyField != "" && f.Name == d.cfg.KeyField {
			msg.Key = sarama.ByteEncoder(f.Value)
			continue
		}
		msg.Headers = append(msg.Headers, sarama.RecordHeader{Key: []byte(f.Name), Value: f.Value})
	}
	d.p.Input() <- msg
	telemetry.SinkPushes.WithLabelValues("kafka", "ok").Inc()
	return nil
}

func (d *driver) Close() error {
	d.mu.Lock()
	if d.closed || d.p == nil {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.p.AsyncClose()
	<-d.drained
	return d.failure()
}

func init() { sink.Register("kafka", func() sink.Adapter { return &driver{} }) }
