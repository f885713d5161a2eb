package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/franz/setlist/internal/util"
)

// Logical keys of the persisted state
const (
	KeyLocations    = "locations"
	KeySongs        = "songs"
	KeyStyles       = "custom_styles"
	KeyLastLocation = "last_location"
)

// StateKeys lists the four persisted values in a stable order
var StateKeys = []string{KeyLocations, KeySongs, KeyStyles, KeyLastLocation}

// KV is the load/save contract the controller persists through.
// Neither operation fails observably: unreadable values load as absent and
// failed writes are logged and kept for LastError.
type KV struct {
	backend Backend

	mu      sync.Mutex
	lastErr error
}

// NewKV wraps a backend
func NewKV(backend Backend) *KV {
	return &KV{backend: backend}
}

// Backend returns the wrapped backend
func (k *KV) Backend() Backend {
	return k.backend
}

// Load returns the raw JSON stored under key, or false when there is none
func (k *KV) Load(key string) ([]byte, bool) {
	raw, ok, err := k.backend.Get(key)
	if err != nil {
		util.DebugLog("store: treating %s as absent: %v", key, err)
		return nil, false
	}
	if !ok || len(raw) == 0 {
		return nil, false
	}
	return raw, true
}

// Save writes v as JSON under key
func (k *KV) Save(key string, v any) {
	if err := k.save(key, v); err != nil {
		util.ErrorLog("store: %v", err)
		k.mu.Lock()
		k.lastErr = err
		k.mu.Unlock()
	}
}

// SaveRaw writes an already-encoded JSON value under key
func (k *KV) SaveRaw(key string, raw []byte) {
	k.Save(key, json.RawMessage(raw))
}

func (k *KV) save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return k.backend.Put(key, data)
}

// LastError returns the most recent write failure, if any
func (k *KV) LastError() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.lastErr
}

// Snapshot returns the raw values of every state key that is present
func (k *KV) Snapshot() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(StateKeys))
	for _, key := range StateKeys {
		if raw, ok := k.Load(key); ok {
			out[key] = json.RawMessage(raw)
		}
	}
	return out
}
