package kafka

import (
	"fmt"
	"sort"
	"sync"
)

// Driver builds an unsubscribed Session for one client library.
type Driver func(Config) (Session, error)

// DefaultDriver is used when a pipeline names none.
const DefaultDriver = "sarama"

var (
	mu       sync.RWMutex
	registry = map[string]Driver{}
)

// Register is called from each driver's init().
func Register(name string, d Driver) {
	mu.Lock()
	registry[name] = d
	mu.Unlock()
}

// Lookup returns a driver by name ("sarama", "franz").
func Lookup(name string) (Driver, error) {
	if name == "" {
		name = DefaultDriver
	}
	mu.RLock()
	d, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("kafka: unsupported driver %q", name)
	}
	return d, nil
}

// Drivers lists the registered driver names.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
