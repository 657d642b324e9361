package kafka

import (
	"fmt"

	"streamline/internal/logging"
)

// Create builds a session with the named driver and subscribes it to
// cfg.Topics. Nothing is retried; a failed session is closed before
// returning.
func Create(driver string, cfg Config) (Session, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	if _, err := cfg.ResetPolicy(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	build, err := Lookup(driver)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	sess, err := build(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	if err := sess.Subscribe(cfg.Topics); err != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("%w: %w", ErrSubscribe, err)
	}

	logging.Component("kafka-source").Info("consumer subscribed",
		"driver", driverName(driver),
		"brokers", cfg.BootstrapServers,
		"group", cfg.GroupID,
		"topics", cfg.Topics)
	return sess, nil
}

func driverName(name string) string {
	if name == "" {
		return DefaultDriver
	}
	return name
}
