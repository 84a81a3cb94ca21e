package worker

import "github.com/btnlabs/blockchain/foundation/blockchain/contract"

// maxContractShareRequests represents the max number of pending contract
// share requests that can be outstanding before share requests are dropped.
// If the channel does become full, new contracts will not be shared.
const maxContractShareRequests = 100

// =============================================================================

// shareContractOperations handles sharing newly deployed contracts.
func (w *Worker) shareContractOperations() {
	w.evHandler("worker: shareContractOperations: G started")
	defer w.evHandler("worker: shareContractOperations: G completed")

	for {
		select {
		case spec := <-w.contractSharing:
			if !w.isShutdown() {
				w.runShareContractOperation(spec)
			}
		case <-w.shut:
			w.evHandler("worker: shareContractOperations: received shut signal")
			return
		}
	}
}

// runShareContractOperation sends a newly deployed contract to the
// known peers.
func (w *Worker) runShareContractOperation(spec contract.DeploySpec) {
	w.evHandler("worker: runShareContractOperation: started: name[%s]", spec.Name)
	defer w.evHandler("worker: runShareContractOperation: completed")

	w.state.NetShareContract(spec)
}
