package checkpoint

import (
	"context"
	"sync"

	"github.com/Alp4ka/pagereader"
)

var _ Store = (*Memory)(nil)

// Memory keeps execution contexts in process memory.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]pagereader.ExecutionContext
}

func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]pagereader.ExecutionContext)}
}

// Load - implements Store.
func (m *Memory) Load(_ context.Context, job string) (pagereader.ExecutionContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ec, ok := m.jobs[job]
	if !ok {
		return pagereader.ExecutionContext{}, nil
	}

	return ec.Clone(), nil
}

// Save - implements Store.
func (m *Memory) Save(_ context.Context, job string, ec pagereader.ExecutionContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ec == nil {
		ec = pagereader.ExecutionContext{}
	}
	m.jobs[job] = ec.Clone()

	return nil
}

// Close - implements Store.
func (m *Memory) Close() error {
	return nil
}
