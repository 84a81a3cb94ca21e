// Package database handles all the lower level support for maintaining the
// blockchain in storage and the rules for accepting blocks.
package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/btnlabs/blockchain/foundation/blockchain/genesis"
)

// ErrGenesisMismatch is returned when a chain does not start with this
// node's genesis block.
var ErrGenesisMismatch = errors.New("chain genesis does not match")

// Serializer interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Serializer interface {
	Write(block Block) error
	ForEach() Iterator
	Reset() error
	Close() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// =============================================================================

// Database manages the ordered chain of blocks for the node.
type Database struct {
	mu         sync.RWMutex
	genesis    genesis.Genesis
	blocks     []Block
	serializer Serializer
	evHandler  func(v string, args ...any)
}

// New constructs a new database and reads the blockchain from storage. An
// empty storage is seeded with the genesis block.
func New(gen genesis.Genesis, serializer Serializer, evHandler func(v string, args ...any)) (*Database, error) {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	db := Database{
		genesis:    gen,
		serializer: serializer,
		evHandler:  evHandler,
	}

	var blocks []Block
	iter := serializer.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	gb := GenesisBlock(gen)

	switch {
	case len(blocks) == 0:
		if err := serializer.Write(gb); err != nil {
			return nil, fmt.Errorf("write genesis block: %w", err)
		}
		blocks = []Block{gb}

	default:
		if blocks[0].Hash != gb.Hash {
			return nil, fmt.Errorf("stored chain: %w", ErrGenesisMismatch)
		}

		if err := ValidateChain(blocks, evHandler); err != nil {
			return nil, fmt.Errorf("stored chain: %w", err)
		}
	}

	db.blocks = blocks

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() error {
	return db.serializer.Close()
}

// Genesis returns the genesis information the chain was created with.
func (db *Database) Genesis() genesis.Genesis {
	return db.genesis
}

// AppendBlock validates the block against the current tip and adds it to
// the chain, returning the new chain length. Storage is written before the
// in memory chain is updated.
func (db *Database) AppendBlock(block Block) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	latest := db.blocks[len(db.blocks)-1]

	if block.Header.Number > latest.Header.Number+1 {
		return 0, ErrChainForked
	}

	if err := db.checkNetworkDifficulty(block); err != nil {
		return 0, err
	}

	if err := block.ValidateBlock(latest, db.evHandler); err != nil {
		return 0, err
	}

	if err := db.serializer.Write(block); err != nil {
		return 0, fmt.Errorf("write block %d: %w", block.Header.Number, err)
	}

	db.blocks = append(db.blocks, block)

	return len(db.blocks), nil
}

// ReplaceChain adopts the candidate chain if it is valid, starts with the
// same genesis block, and is strictly longer than the current chain. It
// reports whether the chain was replaced.
func (db *Database) ReplaceChain(blocks []Block) (bool, error) {
	if err := ValidateChain(blocks, db.evHandler); err != nil {
		return false, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if blocks[0].Hash != db.blocks[0].Hash {
		return false, ErrGenesisMismatch
	}

	if len(blocks) <= len(db.blocks) {
		db.evHandler("database: ReplaceChain: candidate not longer: candidate[%d] current[%d]", len(blocks), len(db.blocks))
		return false, nil
	}

	for _, block := range blocks[1:] {
		if err := db.checkNetworkDifficulty(block); err != nil {
			return false, err
		}
	}

	if err := db.rewrite(blocks); err != nil {
		return false, err
	}

	db.blocks = append([]Block(nil), blocks...)
	db.evHandler("database: ReplaceChain: replaced: length[%d]", len(blocks))

	return true, nil
}

// ValidateChain validates the full chain the node currently holds.
func (db *Database) ValidateChain() error {
	return ValidateChain(db.Blocks(), db.evHandler)
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.blocks[len(db.blocks)-1]
}

// Length returns the number of blocks in the chain including genesis.
func (db *Database) Length() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.blocks)
}

// Blocks returns a copy of the full chain.
func (db *Database) Blocks() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return append([]Block(nil), db.blocks...)
}

// BlocksRange returns the blocks between the two numbers inclusive.
func (db *Database) BlocksRange(from uint64, to uint64) []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	last := uint64(len(db.blocks) - 1)
	if to > last {
		to = last
	}

	if from > to {
		return nil
	}

	return append([]Block(nil), db.blocks[from:to+1]...)
}

// GetBlock returns the block with the specified number.
func (db *Database) GetBlock(num uint64) (Block, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if num >= uint64(len(db.blocks)) {
		return Block{}, false
	}

	return db.blocks[num], true
}

// =============================================================================

// checkNetworkDifficulty rejects blocks mined below the genesis difficulty.
func (db *Database) checkNetworkDifficulty(block Block) error {
	if block.Header.Difficulty < db.genesis.Difficulty {
		return block.invalid(RuleDifficulty, "difficulty %d is below the network difficulty %d", block.Header.Difficulty, db.genesis.Difficulty)
	}

	return nil
}

// rewrite replaces the stored chain. If any write fails the previous chain
// is restored.
func (db *Database) rewrite(blocks []Block) error {
	write := func(blocks []Block) error {
		if err := db.serializer.Reset(); err != nil {
			return err
		}
		for _, block := range blocks {
			if err := db.serializer.Write(block); err != nil {
				return err
			}
		}
		return nil
	}

	if err := write(blocks); err != nil {
		if rerr := write(db.blocks); rerr != nil {
			db.evHandler("database: rewrite: ERROR: restoring chain: %s", rerr)
		}
		return fmt.Errorf("rewrite chain: %w", err)
	}

	return nil
}
