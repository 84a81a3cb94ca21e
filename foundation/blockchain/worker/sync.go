package worker

// Sync brings this node up to date with its known peers before any
// background work starts. Unreachable peers are kept for the next refresh.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {
		w.surveyPeer(pr)
	}
}
