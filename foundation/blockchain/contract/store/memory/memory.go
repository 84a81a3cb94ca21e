// Package memory implements the contract store in memory.
package memory

import (
	"context"
	"sync"

	"github.com/btnlabs/blockchain/foundation/blockchain/contract"
)

// Memory keeps the contracts in a map. This implements the
// contract.Storer interface.
type Memory struct {
	mu        sync.RWMutex
	contracts map[string]contract.Contract
	order     []string
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{
		contracts: make(map[string]contract.Contract),
	}
}

// Save inserts or updates the contract.
func (m *Memory) Save(ctx context.Context, c contract.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.contracts[c.ID]; !exists {
		m.order = append(m.order, c.ID)
	}
	m.contracts[c.ID] = c

	return nil
}

// LoadAll returns the contracts in the order they were first saved.
func (m *Memory) LoadAll(ctx context.Context) ([]contract.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	contracts := make([]contract.Contract, 0, len(m.order))
	for _, id := range m.order {
		contracts = append(contracts, m.contracts[id])
	}

	return contracts, nil
}

// Close in this implementation has nothing to do.
func (m *Memory) Close() error {
	return nil
}
