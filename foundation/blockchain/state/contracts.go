package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/btnlabs/blockchain/foundation/blockchain/contract"
	"github.com/btnlabs/blockchain/foundation/blockchain/database"
	"github.com/btnlabs/blockchain/foundation/blockchain/deployer"
)

// ErrSyncFailure is returned when a contract received from a peer can't
// be applied to the local registry.
var ErrSyncFailure = errors.New("contract sync failed")

// =============================================================================

// DeployContract deploys a contract requested through this node. The
// deployment is queued for the next block and shared with the known peers.
func (s *State) DeployContract(ctx context.Context, spec contract.DeploySpec) (deployer.Record, error) {
	rec, err := s.deploy(ctx, spec, deployer.OriginNative)
	if err != nil {
		return deployer.Record{}, err
	}

	s.Worker.SignalShareContract(spec)
	s.Worker.SignalStartMining()

	return rec, nil
}

// SyncContract applies a contract deployed on a peer. Each call registers
// a new contract with its own id. On failure the registry is left as it was.
func (s *State) SyncContract(ctx context.Context, spec contract.DeploySpec) (deployer.Record, error) {
	rec, err := s.deploy(ctx, spec, deployer.OriginPeer)
	if err != nil {
		return deployer.Record{}, fmt.Errorf("%w: %w", ErrSyncFailure, err)
	}

	s.Worker.SignalStartMining()

	return rec, nil
}

// InvokeContract executes a contract method. Successful calls are queued
// for the next block.
func (s *State) InvokeContract(ctx context.Context, call contract.Call) (any, error) {
	result, err := s.contracts.Invoke(ctx, call)
	if err != nil {
		return nil, err
	}

	op := database.NewOp(database.OpContractCall, call.Caller, call.ContractID, call.Value, map[string]string{
		"contractId": call.ContractID,
		"method":     call.Method,
	})
	s.mempool.Upsert(op)

	s.Worker.SignalStartMining()

	return result, nil
}

// =============================================================================

// deploy takes a contract through its deployment. The deployer record is
// created before the contract is registered so a failed registration is
// recorded.
func (s *State) deploy(ctx context.Context, spec contract.DeploySpec, origin deployer.Origin) (deployer.Record, error) {
	c, err := s.contracts.Prepare(spec)
	if err != nil {
		return deployer.Record{}, err
	}

	if err := s.deployer.Begin(c.ID, c.Name, c.Owner, origin); err != nil {
		return deployer.Record{}, err
	}

	if _, err := s.contracts.Register(ctx, c); err != nil {
		if ferr := s.deployer.Fail(c.ID, err.Error()); ferr != nil {
			s.evHandler("state: deploy: mark failed: id[%s]: ERROR: %s", c.ID, ferr)
		}
		s.evHandler("state: deploy: FAILED: id[%s]: %s", c.ID, err)
		return deployer.Record{}, err
	}

	if err := s.deployer.Confirm(c.ID, nil); err != nil {
		return deployer.Record{}, err
	}

	op := database.NewOp(database.OpContractDeploy, c.Owner, c.ID, 0, map[string]string{
		"contractId": c.ID,
		"name":       c.Name,
	})
	s.mempool.Upsert(op)

	s.evHandler("state: deploy: id[%s]: name[%s]: origin[%s]: op[%s]", c.ID, c.Name, origin, op.ID)

	rec, _ := s.deployer.Get(c.ID)
	return rec, nil
}
