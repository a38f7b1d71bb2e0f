// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store with validated updates and reload
// propagation.

package control

import (
	"fmt"
	"sync"
)

// Runtime-tunable keys.
const (
	KeyChunkSize   = "streaming.chunk_size"
	KeyPoolEnabled = "pool.enabled"
)

// Validator vets one key/value pair before it is stored.
type Validator func(key string, value any) error

// ConfigStore is a dynamic key/value map with atomic snapshot and listener
// support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	validate  Validator
	listeners []func(changed map[string]any)
}

// NewConfigStore seeds the store with initial. validate may be nil.
func NewConfigStore(initial map[string]any, validate Validator) *ConfigStore {
	cs := &ConfigStore{
		config:   make(map[string]any, len(initial)),
		validate: validate,
	}
	for k, v := range initial {
		cs.config[k] = v
	}
	return cs
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		out[k] = v
	}
	return out
}

// SetConfig validates every pair, then merges all of them or none.
// Listeners run synchronously after the store is unlocked.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) error {
	if cs.validate != nil {
		for k, v := range newCfg {
			if err := cs.validate(k, v); err != nil {
				return err
			}
		}
	}
	cs.mu.Lock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	listeners := append([]func(map[string]any){}, cs.listeners...)
	cs.mu.Unlock()

	changed := make(map[string]any, len(newCfg))
	for k, v := range newCfg {
		changed[k] = v
	}
	for _, fn := range listeners {
		fn(changed)
	}
	return nil
}

// OnReload registers a listener called with the changed keys.
func (cs *ConfigStore) OnReload(fn func(changed map[string]any)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// Int reads key as an int, falling back to def.
func (cs *ConfigStore) Int(key string, def int) int {
	cs.mu.RLock()
	v, ok := cs.config[key]
	cs.mu.RUnlock()
	if !ok {
		return def
	}
	n, err := toInt(v)
	if err != nil {
		return def
	}
	return n
}

// Bool reads key as a bool, falling back to def.
func (cs *ConfigStore) Bool(key string, def bool) bool {
	cs.mu.RLock()
	v, ok := cs.config[key]
	cs.mu.RUnlock()
	if b, isBool := v.(bool); ok && isBool {
		return b
	}
	return def
}

// toInt accepts the integer shapes produced by Go callers, JSON and YAML.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%T is not an integer", v)
	}
}

// ToInt exposes the integer coercion used by Int for validators.
func ToInt(v any) (int, error) { return toInt(v) }
