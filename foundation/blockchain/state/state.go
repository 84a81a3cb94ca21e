// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btnlabs/blockchain/foundation/blockchain/accounts"
	"github.com/btnlabs/blockchain/foundation/blockchain/contract"
	"github.com/btnlabs/blockchain/foundation/blockchain/database"
	"github.com/btnlabs/blockchain/foundation/blockchain/deployer"
	"github.com/btnlabs/blockchain/foundation/blockchain/genesis"
	"github.com/btnlabs/blockchain/foundation/blockchain/mempool"
	"github.com/btnlabs/blockchain/foundation/blockchain/miner"
	"github.com/btnlabs/blockchain/foundation/blockchain/peer"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, peer updates, and contract sharing.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
	SignalShareContract(spec contract.DeploySpec)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Beneficiary   string
	Host          string
	Genesis       genesis.Genesis
	Storage       database.Serializer
	ContractStore contract.Storer
	KnownPeers    *peer.PeerSet
	EvHandler     EventHandler
}

// State manages the blockchain database.
type State struct {
	mu        sync.Mutex
	mineMu    sync.Mutex
	resyncing atomic.Bool
	resyncWG  sync.WaitGroup

	beneficiary string
	host        string
	evHandler   EventHandler

	knownPeers *peer.PeerSet
	genesis    genesis.Genesis
	db         *database.Database
	mempool    *mempool.Mempool
	accounts   *accounts.Accounts
	contracts  *contract.Engine
	deployer   *deployer.Deployer
	miner      *miner.Miner

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(ctx context.Context, cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Storage == nil || cfg.ContractStore == nil {
		return nil, errors.New("state requires block storage and a contract store")
	}

	if cfg.Genesis.OpsPerBlock == 0 {
		return nil, errors.New("genesis ops per block must be greater than zero")
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	// Access the storage for the blockchain. Every stored block is replayed
	// through validation.
	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	state := State{
		beneficiary: cfg.Beneficiary,
		host:        cfg.Host,
		evHandler:   ev,

		knownPeers: knownPeers,
		genesis:    cfg.Genesis,
		db:         db,
		mempool:    mempool.New(),
		accounts:   accounts.New(cfg.Genesis),
		deployer:   deployer.New(),
		miner:      miner.New(ev),

		Worker: nopWorker{},
	}

	// Load the contract registry. The latest block number is used to stamp
	// the events emitted by contract calls.
	state.contracts, err = contract.NewEngine(ctx, contract.Config{
		Storer:    cfg.ContractStore,
		EvHandler: ev,
		Height:    func() uint64 { return state.db.LatestBlock().Header.Number },
	})
	if err != nil {
		state.miner.Shutdown()
		db.Close()
		return nil, err
	}

	blocks := db.Blocks()
	state.accounts.Rebuild(blocks)
	state.restoreDeployments(blocks)

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()
	s.resyncWG.Wait()
	s.miner.Shutdown()

	var errs []error
	if err := s.contracts.Close(); err != nil {
		errs = append(errs, fmt.Errorf("contract store: %w", err))
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("block storage: %w", err))
	}

	return errors.Join(errs...)
}

// DeployBuiltins deploys the contracts every node carries that are not
// already part of the registry. They go through the same path as any other
// native deployment.
func (s *State) DeployBuiltins(ctx context.Context) ([]deployer.Record, error) {
	var records []deployer.Record
	for _, spec := range contract.Builtins() {
		if len(s.contracts.ContractsByName(spec.Name, spec.Owner)) > 0 {
			continue
		}

		rec, err := s.DeployContract(ctx, spec)
		if err != nil {
			return nil, fmt.Errorf("deploy builtin %s: %w", spec.Name, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// =============================================================================

// restoreDeployments rebuilds the deployment records for the contracts
// loaded from the contract store and fills in the block numbers for the
// deploy operations already on the chain. The store does not keep where a
// contract came from so the restored records carry an unknown origin.
func (s *State) restoreDeployments(blocks []database.Block) {
	for _, c := range s.contracts.AllContracts() {
		if err := s.deployer.Begin(c.ID, c.Name, c.Owner, deployer.OriginUnknown); err != nil {
			s.evHandler("state: restoreDeployments: id[%s]: ERROR: %s", c.ID, err)
			continue
		}
		if err := s.deployer.Confirm(c.ID, nil); err != nil {
			s.evHandler("state: restoreDeployments: id[%s]: ERROR: %s", c.ID, err)
		}
	}

	for _, block := range blocks {
		s.deployer.ConfirmBlock(block.Header.Number, deployedIDs(block))
	}
}

// deployedIDs returns the contract ids deployed by operations in the block.
func deployedIDs(block database.Block) []string {
	var ids []string
	for _, op := range block.Payload {
		if op.Type == database.OpContractDeploy {
			ids = append(ids, op.Data["contractId"])
		}
	}
	return ids
}

// =============================================================================

// nopWorker is used until a worker registers itself with the state.
type nopWorker struct{}

func (nopWorker) Shutdown()                              {}
func (nopWorker) SignalStartMining()                     {}
func (nopWorker) SignalCancelMining() (done func())      { return func() {} }
func (nopWorker) SignalShareContract(contract.DeploySpec) {}

// now returns the current time in unix milliseconds.
func now() uint64 {
	return uint64(time.Now().UTC().UnixMilli())
}
