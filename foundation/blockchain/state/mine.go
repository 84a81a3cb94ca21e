package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btnlabs/blockchain/foundation/blockchain/database"
	"github.com/btnlabs/blockchain/foundation/blockchain/digest"
	"github.com/btnlabs/blockchain/foundation/blockchain/miner"
)

// ErrNoOps is returned when a block is requested to be created
// and there are no operations in the mempool.
var ErrNoOps = errors.New("no operations in mempool")

// =============================================================================

// MineNewBlock attempts to create a new block with a proper hash that can become
// the next block in the chain.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.mineMu.Lock()
	defer s.mineMu.Unlock()

	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	// Are there operations in the pool.
	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoOps
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW")

	// Pick the oldest operations from the mempool.
	ops := s.mempool.PickBest(int(s.genesis.OpsPerBlock))

	nb, err := database.NewBlock(s.db.LatestBlock(), s.beneficiary, s.genesis.Difficulty, s.genesis.MiningReward, now(), ops)
	if err != nil {
		return database.Block{}, err
	}

	// Hand the block data to the miner. This can be cancelled.
	sol, err := s.solve(ctx, nb.Header.BlockData(), nb.Header.Difficulty)
	if err != nil {
		return database.Block{}, err
	}

	block := nb.Solved(sol.Nonce, sol.Hash)

	s.evHandler("state: MineNewBlock: MINING: validate and update database")

	// Validate the block and then update the blockchain database.
	if err := s.validateUpdateDatabase(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numOps[%d]", block.Header.PrevBlockHash, block.Hash, len(block.Payload))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block.Hash)

	// Validate the block and then update the blockchain database.
	if err := s.validateUpdateDatabase(block); err != nil {
		return err
	}

	// If the runMiningOperation function is being executed it needs to stop
	// immediately. The G executing runMiningOperation will not return from the
	// function until done is called. That allows this function to complete
	// its state changes before a new mining operation takes place.
	done := s.Worker.SignalCancelMining()
	defer func() {
		s.evHandler("state: ProcessProposedBlock: signal runMiningOperation to terminate")
		done()
	}()

	return nil
}

// =============================================================================

// solve drives the miner for a single search. Solutions are checked
// against the block data before they are accepted.
func (s *State) solve(ctx context.Context, blockData string, difficulty uint16) (miner.Solution, error) {
	s.miner.Start(blockData, difficulty)

	for {
		select {
		case sol := <-s.miner.Solutions():
			if digest.PowHash(blockData, sol.Nonce) != sol.Hash || !digest.IsHashSolved(difficulty, sol.Hash) {
				s.evHandler("state: MineNewBlock: MINING: WARNING: discard solution: nonce[%d]", sol.Nonce)
				continue
			}
			s.evHandler("state: MineNewBlock: MINING: solved: nonce[%d]: hash[%s]: attempts[%d]", sol.Nonce, sol.Hash, sol.HashCount)
			return sol, nil

		case <-ctx.Done():
			s.miner.Stop()
			s.evHandler("state: MineNewBlock: MINING: CANCEL: stop miner")
			return miner.Solution{}, fmt.Errorf("%w: %w", miner.ErrCancelled, ctx.Err())
		}
	}
}

// validateUpdateDatabase takes the block and validates the block against the
// consensus rules. If the block passes, then the state of the node is updated
// including adding the block to disk.
func (s *State) validateUpdateDatabase(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: validateUpdateDatabase: validate block and write to disk")

	length, err := s.db.AppendBlock(block)
	if err != nil {
		return err
	}

	s.evHandler("state: validateUpdateDatabase: chain length[%d]", length)

	s.evHandler("state: validateUpdateDatabase: update accounts and remove from mempool")

	for _, op := range block.Payload {
		s.mempool.Delete(op.ID)
	}

	for _, err := range s.accounts.ApplyBlock(block) {
		s.evHandler("state: validateUpdateDatabase: WARNING : %s", err)
	}

	if n := s.deployer.ConfirmBlock(block.Header.Number, deployedIDs(block)); n > 0 {
		s.evHandler("state: validateUpdateDatabase: confirmed deployments[%d]: blk[%d]", n, block.Header.Number)
	}

	// Send an event about this new block.
	s.blockEvent(block)

	return nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockHeaderJSON, err := json.Marshal(block.Header)
	if err != nil {
		blockHeaderJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	blockOpsJSON, err := json.Marshal(block.Payload)
	if err != nil {
		blockOpsJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"header":%s,"ops":%s}`, block.Hash, string(blockHeaderJSON), string(blockOpsJSON))
}
