package worker

import (
	"context"
	"errors"
	"time"

	"github.com/btnlabs/blockchain/foundation/blockchain/database"
	"github.com/btnlabs/blockchain/foundation/blockchain/miner"
	"github.com/btnlabs/blockchain/foundation/blockchain/state"
)

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation mines the best operations in the mempool into a new
// block and proposes it to the known peers. A cancel request stops the
// search and the caller's done handshake is honored before returning.
func (w *Worker) runMiningOperation() {
	pending := w.state.QueryMempoolLength()
	if pending == 0 {
		return
	}

	w.evHandler("worker: runMiningOperation: MINING: started: Ops[%d]", pending)
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	// Discard a cancel request that arrived while no search was running.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: drained cancel channel")
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	wait := w.watchCancel(ctx, cancel)

	start := time.Now()
	block, err := w.state.MineNewBlock(ctx)
	cancel()

	// A cancel requester holds its own locks until it says we may go on.
	if ch := <-wait; ch != nil {
		w.evHandler("worker: runMiningOperation: MINING: termination signal: waiting")
		<-ch
		w.evHandler("worker: runMiningOperation: MINING: termination signal: received")
	}

	switch {
	case err == nil:
		w.evHandler("worker: runMiningOperation: MINING: solved: blk[%d] ops[%d] deploys[%d] duration[%v]", block.Header.Number, len(block.Payload), countDeploys(block), time.Since(start))

		if err := w.state.NetSendBlockToPeers(block); err != nil {
			w.evHandler("worker: runMiningOperation: MINING: proposeBlockToPeers: WARNING %s", err)
		}

	case errors.Is(err, state.ErrNoOps):
		w.evHandler("worker: runMiningOperation: MINING: WARNING: no operations in mempool")

	case errors.Is(err, miner.ErrCancelled):
		w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")

	default:
		w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
	}

	if n := w.state.QueryMempoolLength(); n > 0 && !w.isShutdown() {
		w.evHandler("worker: runMiningOperation: MINING: signal new mining operation: Ops[%d]", n)
		w.SignalStartMining()
	}
}

// watchCancel cancels the mining context when a cancel request arrives.
// The returned channel yields the requester's done channel, or nil when
// mining ended on its own.
func (w *Worker) watchCancel(ctx context.Context, cancel context.CancelFunc) <-chan chan struct{} {
	result := make(chan chan struct{}, 1)

	go func() {
		select {
		case ch := <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
			cancel()
			result <- ch
		case <-ctx.Done():
			result <- nil
		}
	}()

	return result
}

// countDeploys returns the number of contract deployments in the block.
func countDeploys(block database.Block) int {
	var n int
	for _, op := range block.Payload {
		if op.Type == database.OpContractDeploy {
			n++
		}
	}
	return n
}
