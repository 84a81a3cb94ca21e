package state

import (
	"github.com/btnlabs/blockchain/foundation/blockchain/database"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// =============================================================================

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlocksByNumber returns the set of blocks based on block numbers.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) []database.Block {
	latest := s.db.LatestBlock().Header.Number

	if from == QueryLatest {
		from = latest
		to = from
	}
	if to == QueryLatest {
		to = latest
	}

	return s.db.BlocksRange(from, to)
}

// QueryBlocksByName returns the set of blocks that carry an operation for
// the name or were mined by it. If the name is empty, all blocks are
// returned.
func (s *State) QueryBlocksByName(name string) []database.Block {
	var out []database.Block

	for _, block := range s.db.Blocks() {
		if name == "" || block.Header.Beneficiary == name {
			out = append(out, block)
			continue
		}

		for _, op := range block.Payload {
			if op.From == name || op.To == name {
				out = append(out, block)
				break
			}
		}
	}

	return out
}

// QueryChain returns a copy of the full chain.
func (s *State) QueryChain() []database.Block {
	return s.db.Blocks()
}

// ValidateChain replays the validation rules over the local chain.
func (s *State) ValidateChain() error {
	return s.db.ValidateChain()
}
