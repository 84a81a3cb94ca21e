package worker

import (
	"github.com/btnlabs/blockchain/foundation/blockchain/peer"
)

// drift describes how a peer's view of the network differs from this node.
type drift struct {
	blocksAhead   uint64
	contractDelta int
}

// measureDrift compares the status a peer reported with the local status.
func measureDrift(local peer.PeerStatus, remote peer.PeerStatus) drift {
	var d drift
	if remote.LatestBlockNumber > local.LatestBlockNumber {
		d.blocksAhead = remote.LatestBlockNumber - local.LatestBlockNumber
	}
	d.contractDelta = remote.Contracts - local.Contracts

	return d
}

// =============================================================================

// peerOperations refreshes the peer list on every tick.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.refreshPeers()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// refreshPeers surveys every known peer, drops the ones that can't be
// reached, and then announces this node to the peers that remain.
func (w *Worker) refreshPeers() {
	w.evHandler("worker: refreshPeers: started")
	defer w.evHandler("worker: refreshPeers: completed")

	var dropped int
	for _, pr := range w.state.RetrieveKnownPeers() {
		if !w.surveyPeer(pr) {
			w.state.RemoveKnownPeer(pr)
			dropped++
		}
	}

	known := w.state.RetrieveKnownPeers()
	for _, pr := range known {
		if err := w.state.NetRequestAddPeer(pr); err != nil {
			w.evHandler("worker: refreshPeers: announce: %s: ERROR: %s", pr.Host, err)
		}
	}

	w.evHandler("worker: refreshPeers: known[%d] dropped[%d]", len(known), dropped)
}

// surveyPeer asks the peer for its status, learns the peers it knows, and
// pulls the blocks it has that this node is missing. It reports false when
// the peer could not be reached.
func (w *Worker) surveyPeer(pr peer.Peer) bool {
	remote, err := w.state.NetRequestPeerStatus(pr)
	if err != nil {
		w.evHandler("worker: surveyPeer: %s: ERROR: %s", pr.Host, err)
		return false
	}

	w.addNewPeers(remote.KnownPeers)

	d := measureDrift(w.state.RetrieveStatus(), remote)
	if d.contractDelta != 0 {
		w.evHandler("worker: surveyPeer: %s: contracts[%d]: delta[%+d]", pr.Host, remote.Contracts, d.contractDelta)
	}

	if d.blocksAhead > 0 {
		w.evHandler("worker: surveyPeer: %s: latestBlockNumber[%d]: ahead[%d]", pr.Host, remote.LatestBlockNumber, d.blocksAhead)

		if err := w.state.NetRequestPeerBlocks(pr); err != nil {
			w.evHandler("worker: surveyPeer: %s: retrievePeerBlocks: ERROR: %s", pr.Host, err)
		}
	}

	return true
}

// addNewPeers adds the peers this node does not know about yet.
func (w *Worker) addNewPeers(knownPeers []peer.Peer) {
	for _, pr := range knownPeers {
		if w.state.AddKnownPeer(pr) {
			w.evHandler("worker: addNewPeers: adding peer-node %s", pr)
		}
	}
}
