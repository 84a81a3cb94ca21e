// Package contract implements the smart contract engine. Contracts are
// registered with an ABI and executed by native Go implementations keyed
// by the contract name.
package contract

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Set of errors returned by the engine.
var (
	ErrNotFound         = errors.New("contract not found")
	ErrValidation       = errors.New("contract validation failed")
	ErrNoImplementation = errors.New("contract has no native implementation")
	ErrExecution        = errors.New("contract execution failed")
)

// Status represents the lifecycle state of a contract in the registry.
type Status string

// Set of contract states.
const (
	StatusDeploying Status = "deploying"
	StatusDeployed  Status = "deployed"
)

// =============================================================================

// ABIParam describes a named and typed input or output.
type ABIParam struct {
	Name    string `json:"name"`
	Type    string `json:"type" validate:"required"`
	Indexed bool   `json:"indexed,omitempty"`
}

// ABIEntry describes one entry of a contract interface.
type ABIEntry struct {
	Name            string     `json:"name,omitempty" validate:"required_if=Type function,required_if=Type event"`
	Type            string     `json:"type" validate:"required,oneof=function event constructor fallback receive"`
	Inputs          []ABIParam `json:"inputs" validate:"dive"`
	Outputs         []ABIParam `json:"outputs,omitempty" validate:"dive"`
	StateMutability string     `json:"stateMutability,omitempty" validate:"omitempty,oneof=pure view nonpayable payable"`
}

// Contract is a deployed program with its interface, owner, balance, and
// persistent state.
type Contract struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Code      string         `json:"code"`
	ABI       []ABIEntry     `json:"abi"`
	Owner     string         `json:"owner"`
	CreatedAt time.Time      `json:"createdAt"`
	State     map[string]any `json:"state"`
	Balance   uint64         `json:"balance"`
	Status    Status         `json:"status"`
}

// Address returns the display address of the contract.
func (c Contract) Address() string {
	return Address(c.ID)
}

// DeploySpec is the information needed to deploy a contract.
type DeploySpec struct {
	Name  string     `json:"name" validate:"required"`
	Code  string     `json:"code"`
	ABI   []ABIEntry `json:"abi" validate:"dive"`
	Owner string     `json:"owner" validate:"required"`
}

// Call is a request to execute a contract method.
type Call struct {
	ContractID string `json:"contractId" validate:"required"`
	Method     string `json:"method" validate:"required"`
	Params     []any  `json:"params"`
	Caller     string `json:"caller" validate:"required"`
	Value      uint64 `json:"value"`
}

// Event is emitted by a contract method during a successful call.
type Event struct {
	ContractID  string         `json:"contractId"`
	Event       string         `json:"event"`
	Data        map[string]any `json:"data"`
	BlockNumber uint64         `json:"blockNumber"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Template is a ready made contract that can be deployed as is.
type Template struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Code        string     `json:"code"`
	ABI         []ABIEntry `json:"abi"`
}

// =============================================================================

// Storer represents the behavior required to persist the contract registry.
type Storer interface {
	Save(ctx context.Context, c Contract) error
	LoadAll(ctx context.Context) ([]Contract, error)
	Close() error
}

// =============================================================================

// Address derives the display address for a contract id. The address is
// the EIP-55 form of the last 20 bytes of keccak256(id). It is for
// presentation only and is never used to look up a contract.
func Address(id string) string {
	return common.BytesToAddress(crypto.Keccak256([]byte(id))).Hex()
}
