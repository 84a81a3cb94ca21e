package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/btnlabs/blockchain/business/web/errs"
	"github.com/btnlabs/blockchain/foundation/blockchain/contract"
	"github.com/btnlabs/blockchain/foundation/blockchain/state"
	"github.com/btnlabs/blockchain/foundation/web"
)

// Contracts returns every contract in the registry.
func (h Handlers) Contracts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toContractInfos(h.State.RetrieveContracts()), http.StatusOK)
}

// ContractsByOwner returns the contracts owned by the specified owner.
func (h Handlers) ContractsByOwner(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	owner := web.Param(r, "owner")
	return web.Respond(ctx, w, toContractInfos(h.State.RetrieveContractsByOwner(owner)), http.StatusOK)
}

// ContractByID returns the contract for the specified id.
func (h Handlers) ContractByID(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")

	c, exists := h.State.RetrieveContract(id)
	if !exists {
		return errs.NewTrusted(fmt.Errorf("%w: %s", contract.ErrNotFound, id), http.StatusNotFound)
	}

	return web.Respond(ctx, w, toContractInfo(c), http.StatusOK)
}

// DeployedContracts returns the deployment records known to this node.
func (h Handlers) DeployedContracts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	records := h.State.RetrieveDeployedContracts()

	resp := deployedContracts{
		Count:     h.State.RetrieveDeployedCount(),
		Contracts: make([]deployedContract, len(records)),
	}
	for i, rec := range records {
		resp.Contracts[i] = deployedContract{
			ID:          rec.ID,
			Name:        rec.Name,
			Address:     rec.Address,
			Status:      rec.Status,
			DeployedAt:  rec.DeployedAt,
			BlockNumber: rec.BlockNumber,
			Reason:      rec.Reason,
		}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Templates returns the contracts that can be deployed as is.
func (h Handlers) Templates(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, contract.Templates(), http.StatusOK)
}

// ContractEvents returns the events emitted by the specified contract, or
// by every contract when no id is given.
func (h Handlers) ContractEvents(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")

	if id != "" {
		if _, exists := h.State.RetrieveContract(id); !exists {
			return errs.NewTrusted(fmt.Errorf("%w: %s", contract.ErrNotFound, id), http.StatusNotFound)
		}
	}

	return web.Respond(ctx, w, h.State.RetrieveContractEvents(id), http.StatusOK)
}

// DeployContract deploys a new contract through this node.
func (h Handlers) DeployContract(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var spec contract.DeploySpec
	if err := web.Decode(r, &spec); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("deploy contract", "traceid", v.TraceID, "name", spec.Name, "owner", spec.Owner)

	rec, err := h.State.DeployContract(ctx, spec)
	if err != nil {
		return contractError(err)
	}

	resp := deployResult{
		ContractID: rec.ID,
		Address:    rec.Address,
		Status:     rec.Status,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SyncContract applies a contract deployed on another node.
func (h Handlers) SyncContract(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var spec contract.DeploySpec
	if err := web.Decode(r, &spec); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("sync contract", "traceid", v.TraceID, "name", spec.Name, "owner", spec.Owner)

	rec, err := h.State.SyncContract(ctx, spec)
	if err != nil {
		return SyncError(err)
	}

	return web.Respond(ctx, w, syncResult{ContractID: rec.ID, Synced: true}, http.StatusOK)
}

// CallContract executes a method of the specified contract.
func (h Handlers) CallContract(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req call
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	id := web.Param(r, "id")

	h.Log.Infow("call contract", "traceid", v.TraceID, "id", id, "method", req.Method, "caller", req.Caller)

	result, err := h.State.InvokeContract(ctx, contract.Call{
		ContractID: id,
		Method:     req.Method,
		Params:     req.Params,
		Caller:     req.Caller,
		Value:      req.Value,
	})
	if err != nil {
		return contractError(err)
	}

	return web.Respond(ctx, w, callResult{Result: result}, http.StatusOK)
}

// =============================================================================

// SyncError maps a failed sync to the response status. Malformed contracts
// are the caller's fault, anything else is ours.
func SyncError(err error) error {
	if errors.Is(err, contract.ErrValidation) {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if errors.Is(err, state.ErrSyncFailure) {
		return errs.NewTrusted(err, http.StatusInternalServerError)
	}

	return err
}

// contractError maps contract errors to the response status.
func contractError(err error) error {
	switch {
	case errors.Is(err, contract.ErrNotFound):
		return errs.NewTrusted(err, http.StatusNotFound)

	case errors.Is(err, contract.ErrValidation),
		errors.Is(err, contract.ErrNoImplementation),
		errors.Is(err, contract.ErrExecution):
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return err
}
