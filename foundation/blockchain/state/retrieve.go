package state

import (
	"github.com/btnlabs/blockchain/foundation/blockchain/accounts"
	"github.com/btnlabs/blockchain/foundation/blockchain/contract"
	"github.com/btnlabs/blockchain/foundation/blockchain/database"
	"github.com/btnlabs/blockchain/foundation/blockchain/deployer"
	"github.com/btnlabs/blockchain/foundation/blockchain/genesis"
	"github.com/btnlabs/blockchain/foundation/blockchain/miner"
	"github.com/btnlabs/blockchain/foundation/blockchain/peer"
)

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveMempool returns a copy of the mempool.
func (s *State) RetrieveMempool() []database.Op {
	return s.mempool.Copy()
}

// RetrieveAccounts returns a copy of the account balances.
func (s *State) RetrieveAccounts() map[string]accounts.Info {
	return s.accounts.Copy()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrieveStatus returns the status this node reports to its peers.
func (s *State) RetrieveStatus() peer.PeerStatus {
	latest := s.db.LatestBlock()

	return peer.PeerStatus{
		LatestBlockHash:   latest.Hash,
		LatestBlockNumber: latest.Header.Number,
		ChainLength:       s.db.Length(),
		Contracts:         s.contracts.Count(),
		KnownPeers:        s.RetrieveKnownPeers(),
	}
}

// =============================================================================

// RetrieveContract returns a copy of the contract for the id.
func (s *State) RetrieveContract(id string) (contract.Contract, bool) {
	return s.contracts.GetContract(id)
}

// RetrieveContracts returns every contract in the registry.
func (s *State) RetrieveContracts() []contract.Contract {
	return s.contracts.AllContracts()
}

// RetrieveContractsByOwner returns the contracts owned by the owner.
func (s *State) RetrieveContractsByOwner(owner string) []contract.Contract {
	return s.contracts.ContractsByOwner(owner)
}

// RetrieveContractEvents returns the events emitted by the contract. An
// empty id returns the events for every contract.
func (s *State) RetrieveContractEvents(id string) []contract.Event {
	return s.contracts.Events(id)
}

// RetrieveDeployedContracts returns the deployment records, failed ones
// included.
func (s *State) RetrieveDeployedContracts() []deployer.Record {
	return s.deployer.GetAllDeployedContracts()
}

// RetrieveDeployedCount returns the number of deployments that did not fail.
func (s *State) RetrieveDeployedCount() int {
	return s.deployer.Count()
}

// RetrieveDeployment returns the deployment record for the contract id.
func (s *State) RetrieveDeployment(id string) (deployer.Record, bool) {
	return s.deployer.Get(id)
}

// =============================================================================

// RetrieveMinerStatus returns the state of the miner.
func (s *State) RetrieveMinerStatus() miner.Status {
	return s.miner.Status()
}

// RetrieveHashCount returns the hashes computed since the last call.
func (s *State) RetrieveHashCount() uint64 {
	return s.miner.GetHashCount()
}
