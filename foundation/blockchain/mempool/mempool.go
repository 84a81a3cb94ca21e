// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"sort"
	"sync"

	"github.com/btnlabs/blockchain/foundation/blockchain/database"
)

// entry keeps the arrival order of an operation.
type entry struct {
	seq uint64
	op  database.Op
}

// Mempool represents a cache of operations waiting to be mined, keyed by
// the operation id.
type Mempool struct {
	mu   sync.RWMutex
	pool map[string]entry
	seq  uint64
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{
		pool: make(map[string]entry),
	}
}

// Count returns the current number of operations in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces an operation in the mempool. A replaced
// operation keeps its original position.
func (mp *Mempool) Upsert(op database.Op) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	e, exists := mp.pool[op.ID]
	if !exists {
		mp.seq++
		e.seq = mp.seq
	}
	e.op = op
	mp.pool[op.ID] = e

	return len(mp.pool)
}

// Delete removes an operation from the mempool.
func (mp *Mempool) Delete(id string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, id)
}

// Truncate clears all the operations from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]entry)
}

// PickBest returns the oldest operations up to howMany. A value of -1
// returns every operation.
func (mp *Mempool) PickBest(howMany int) []database.Op {
	ops := mp.Copy()

	if howMany >= 0 && howMany < len(ops) {
		ops = ops[:howMany]
	}

	return ops
}

// Copy returns every operation in arrival order.
func (mp *Mempool) Copy() []database.Op {
	mp.mu.RLock()
	entries := make([]entry, 0, len(mp.pool))
	for _, e := range mp.pool {
		entries = append(entries, e)
	}
	mp.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})

	ops := make([]database.Op, len(entries))
	for i, e := range entries {
		ops[i] = e.op
	}

	return ops
}
