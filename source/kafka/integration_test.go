//go:build integration

package kafka

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"streamline/internal/event"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

func integrationBrokers(t *testing.T) string {
	t.Helper()
	brokers := os.Getenv("STREAMLINE_KAFKA_TEST_BROKERS")
	if brokers == "" {
		t.Skip("STREAMLINE_KAFKA_TEST_BROKERS not set")
	}
	return brokers
}

func produceOne(t *testing.T, brokers, topic string, key, value []byte) {
	t.Helper()
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	p, err := sarama.NewSyncProducer(strings.Split(brokers, ","), sc)
	if err != nil {
		t.Fatalf("producer: %v", err)
	}
	defer p.Close()
	if _, _, err := p.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	}); err != nil {
		t.Fatalf("send: %v", err)
	}
}

func TestIntegration_ConsumesProducedMessage(t *testing.T) {
	brokers := integrationBrokers(t)
	for _, driver := range []string{"sarama", "franz"} {
		t.Run(driver, func(t *testing.T) {
			topic := "test-topic-" + uuid.NewString()
			produceOne(t, brokers, topic, []byte("my key"), []byte("my message"))

			src, err := New(driver, Config{
				BootstrapServers: brokers,
				Topics:           []string{topic},
				GroupID:          "group-" + uuid.NewString(),
				AutoOffsetReset:  "beginning",
				KeyField:         "message_key",
			})
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			out := event.NewChannel(1)
			done := make(chan error, 1)
			go func() { done <- src.Run(ctx, out) }()

			select {
			case ev := <-out.Events():
				if string(ev.Message) != "my message" {
					t.Fatalf("want body %q, got %q", "my message", ev.Message)
				}
				if k, ok := ev.Get("message_key"); !ok || string(k) != "my key" {
					t.Fatalf("want key field %q, got %q", "my key", k)
				}
			case err := <-done:
				t.Fatalf("source ended before delivering: %v", err)
			case <-ctx.Done():
				t.Fatal("timed out waiting for event")
			}

			cancel()
			if err := <-done; !IsShutdown(err) {
				t.Fatalf("want shutdown, got %v", err)
			}
		})
	}
}
