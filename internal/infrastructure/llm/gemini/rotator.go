package gemini

import (
	"fmt"
	"strings"
	"sync"
)

// KeyRotator hands out API keys round-robin. Rotate is called after a
// failed request so the next attempt goes out with a different key,
// which spreads quota exhaustion across the configured pool.
type KeyRotator struct {
	mu   sync.Mutex
	keys []string
	pos  int
}

func NewKeyRotator(keys []string) (*KeyRotator, error) {
	clean := make([]string, 0, len(keys))
	for _, k := range keys {
		if trimmed := strings.TrimSpace(k); trimmed != "" {
			clean = append(clean, trimmed)
		}
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("gemini: at least one API key is required")
	}
	return &KeyRotator{keys: clean}, nil
}

func (r *KeyRotator) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keys[r.pos]
}

func (r *KeyRotator) Rotate() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos = (r.pos + 1) % len(r.keys)
	return r.keys[r.pos]
}

func (r *KeyRotator) Len() int {
	return len(r.keys)
}
