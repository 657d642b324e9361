package sink

import (
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"streamline/internal/event"
)

// Adapter is the common behaviour every sink exposes.
type Adapter interface {
	Configure(any) error       // driver Config value or its raw *yaml.Node
	Push(ev event.Event) error // consume one event
	Close() error              // idempotent
}

// Decode fills dst from raw, which is either a *yaml.Node taken from the
// pipeline file or nil for driver defaults.
func Decode(raw any, dst any) error {
	switch r := raw.(type) {
	case nil:
		return nil
	case *yaml.Node:
		if r.Kind == 0 {
			return nil
		}
		return r.Decode(dst)
	default:
		return fmt.Errorf("unsupported sink config %T", raw)
	}
}

/*──────── registry ───────*/

type factory = func() Adapter

var (
	mu  sync.RWMutex
	reg = map[string]factory{}
)

func Register(name string, f factory) {
	mu.Lock()
	reg[name] = f
	mu.Unlock()
}

func NewAdapter(name string) (Adapter, error) {
	mu.RLock()
	f, ok := reg[name]
	mu.RUnlock()
	if ok {
		return f(), nil
	}
	return nil, fmt.Errorf("unknown sink %q", name)
}

// Names lists registered sinks in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(reg))
	for n := range reg {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
