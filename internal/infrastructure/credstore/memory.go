package credstore

import (
	"context"
	"sync"

	"tradewire/internal/application/port"
)

// Memory is an in-process credential store, seeded from config.
type Memory struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewMemory(seed map[string]string) *Memory {
	tokens := make(map[string]string, len(seed))
	for k, v := range seed {
		tokens[k] = v
	}
	return &Memory{tokens: tokens}
}

func (m *Memory) Get(ctx context.Context, platform string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens[platform], nil
}

func (m *Memory) Set(ctx context.Context, platform, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[platform] = token
	return nil
}

func (m *Memory) Delete(ctx context.Context, platform string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, platform)
	return nil
}

var _ port.CredentialStore = (*Memory)(nil)
