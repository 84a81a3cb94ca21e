package state

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btnlabs/blockchain/foundation/blockchain/database"
	"github.com/btnlabs/blockchain/foundation/blockchain/peer"
)

// ErrInvalidTransfer is returned when a transfer can't be accepted.
var ErrInvalidTransfer = errors.New("invalid transfer")

// =============================================================================

// AddKnownPeer provides the ability to add a new peer.
func (s *State) AddKnownPeer(peer peer.Peer) bool {
	if peer.Host == "" || peer.Match(s.host) {
		return false
	}
	return s.knownPeers.Add(peer)
}

// RemoveKnownPeer provides the ability to remove a peer.
func (s *State) RemoveKnownPeer(peer peer.Peer) {
	s.knownPeers.Remove(peer)
}

// SubmitTransfer accepts a transfer between two names for inclusion in
// the next block.
func (s *State) SubmitTransfer(from string, to string, amount uint64) (database.Op, error) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)

	switch {
	case from == "" || to == "":
		return database.Op{}, fmt.Errorf("%w: from and to are required", ErrInvalidTransfer)
	case from == to:
		return database.Op{}, fmt.Errorf("%w: can't transfer to yourself", ErrInvalidTransfer)
	case amount == 0:
		return database.Op{}, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidTransfer)
	}

	if bal := s.accounts.Balance(from); bal < amount {
		return database.Op{}, fmt.Errorf("%w: %s has insufficient funds: balance[%d] amount[%d]", ErrInvalidTransfer, from, bal, amount)
	}

	op := database.NewOp(database.OpTransfer, from, to, amount, nil)
	s.mempool.Upsert(op)

	s.evHandler("state: SubmitTransfer: op[%s]", op)

	s.Worker.SignalStartMining()

	return op, nil
}
