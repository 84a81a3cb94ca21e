package state

import (
	"github.com/btnlabs/blockchain/foundation/blockchain/database"
)

// ReplaceChain adopts the chain if it is valid and longer than the local
// chain. The accounts are rebuilt from the new chain and the operations it
// carries are removed from the mempool. Mining is cancelled while the chain
// is replaced.
func (s *State) ReplaceChain(blocks []database.Block) (bool, error) {
	s.evHandler("state: ReplaceChain: started: blocks[%d]", len(blocks))
	defer s.evHandler("state: ReplaceChain: completed")

	done := s.Worker.SignalCancelMining()
	defer done()

	s.mu.Lock()
	defer s.mu.Unlock()

	replaced, err := s.db.ReplaceChain(blocks)
	if err != nil || !replaced {
		return false, err
	}

	chain := s.db.Blocks()
	s.accounts.Rebuild(chain)

	for _, block := range chain {
		for _, op := range block.Payload {
			s.mempool.Delete(op.ID)
		}
		s.deployer.ConfirmBlock(block.Header.Number, deployedIDs(block))
	}

	s.evHandler("state: ReplaceChain: adopted: length[%d]: latest[%s]", len(chain), s.db.LatestBlock().Hash)

	return true, nil
}

// Resync asks the known peers for their chains in the background and adopts
// the longest valid one. Only one resync runs at a time.
func (s *State) Resync() {
	if !s.resyncing.CompareAndSwap(false, true) {
		return
	}

	s.resyncWG.Add(1)
	go func() {
		s.evHandler("state: Resync: started: *****************************")
		defer func() {
			s.resyncing.Store(false)
			s.evHandler("state: Resync: completed: *****************************")
			s.resyncWG.Done()
		}()

		for _, pr := range s.RetrieveKnownPeers() {
			replaced, err := s.NetRequestPeerChain(pr)
			if err != nil {
				s.evHandler("state: Resync: %s: ERROR: %s", pr, err)
				continue
			}
			s.evHandler("state: Resync: %s: replaced[%t]", pr, replaced)
		}

		s.Worker.SignalStartMining()
	}()
}
