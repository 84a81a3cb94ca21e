package database

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Set of operation types that can be recorded in a block.
const (
	OpTransfer       = "transfer"
	OpContractDeploy = "contract_deploy"
	OpContractCall   = "contract_call"
)

// Op represents a single operation recorded in a block payload.
type Op struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	From      string            `json:"from"`
	To        string            `json:"to"`
	Amount    uint64            `json:"amount"`
	TimeStamp uint64            `json:"timestamp"`
	Data      map[string]string `json:"data,omitempty"`
}

// NewOp constructs an operation with a unique id.
func NewOp(typ string, from string, to string, amount uint64, data map[string]string) Op {
	return Op{
		ID:        uuid.NewString(),
		Type:      typ,
		From:      from,
		To:        to,
		Amount:    amount,
		TimeStamp: uint64(time.Now().UTC().UnixMilli()),
		Data:      data,
	}
}

// Hash implements the merkle Hashable interface for providing a hash
// of an operation.
func (op Op) Hash() ([]byte, error) {
	data, err := json.Marshal(op)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(data)
	return hash[:], nil
}

// Equals implements the merkle Hashable interface for providing an equality
// check between two operations.
func (op Op) Equals(other Op) bool {
	return op.ID == other.ID
}

// String implements the Stringer interface for logging.
func (op Op) String() string {
	return fmt.Sprintf("%s:%s:%s->%s:%d", op.ID, op.Type, op.From, op.To, op.Amount)
}
