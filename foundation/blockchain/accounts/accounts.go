// Package accounts maintains account balances derived from the genesis
// information and the blocks in the chain.
package accounts

import (
	"fmt"
	"sync"

	"github.com/btnlabs/blockchain/foundation/blockchain/database"
	"github.com/btnlabs/blockchain/foundation/blockchain/genesis"
)

// Info represents information stored for an individual account.
type Info struct {
	Balance uint64 `json:"balance"`
	Ops     uint64 `json:"ops"`
}

// Accounts manages data related to accounts who have transacted on
// the blockchain.
type Accounts struct {
	genesis genesis.Genesis
	info    map[string]Info
	mu      sync.RWMutex
}

// New constructs accounts seeded with the genesis balances.
func New(genesis genesis.Genesis) *Accounts {
	accts := Accounts{
		genesis: genesis,
	}
	accts.seed()

	return &accts
}

// Reset re-initalizes the accounts back to the genesis information.
func (act *Accounts) Reset() {
	act.mu.Lock()
	defer act.mu.Unlock()

	act.seed()
}

// Rebuild resets the accounts and applies every block in order.
func (act *Accounts) Rebuild(blocks []database.Block) {
	act.Reset()

	for _, block := range blocks {
		act.ApplyBlock(block)
	}
}

// ApplyBlock applies the operations and the mining reward of the block.
// Operations that can't be applied are skipped and returned.
func (act *Accounts) ApplyBlock(block database.Block) []error {
	var errs []error
	for _, op := range block.Payload {
		if err := act.ApplyOp(op); err != nil {
			errs = append(errs, err)
		}
	}

	if block.Header.Number > 0 {
		act.ApplyMiningReward(block.Header.Beneficiary, block.Header.MiningReward)
	}

	return errs
}

// Balance returns the balance for the account.
func (act *Accounts) Balance(name string) uint64 {
	act.mu.RLock()
	defer act.mu.RUnlock()

	return act.info[name].Balance
}

// Copy makes a copy of the current information for all accounts.
func (act *Accounts) Copy() map[string]Info {
	act.mu.RLock()
	defer act.mu.RUnlock()

	accounts := make(map[string]Info)
	for name, info := range act.info {
		accounts[name] = info
	}
	return accounts
}

// ApplyMiningReward gives the specified account the mining reward.
func (act *Accounts) ApplyMiningReward(beneficiary string, reward uint64) {
	act.mu.Lock()
	defer act.mu.Unlock()

	info := act.info[beneficiary]
	info.Balance += reward

	act.info[beneficiary] = info
}

// ApplyOp performs the business logic for applying an operation to the
// accounts information. Only transfers move balances.
func (act *Accounts) ApplyOp(op database.Op) error {
	act.mu.Lock()
	defer act.mu.Unlock()

	fromInfo := act.info[op.From]
	fromInfo.Ops++

	if op.Type != database.OpTransfer {
		act.info[op.From] = fromInfo
		return nil
	}

	if op.From == op.To {
		return fmt.Errorf("invalid transfer, sending money to yourself, from %s, to %s", op.From, op.To)
	}

	if op.Amount > fromInfo.Balance {
		return fmt.Errorf("%s has an insufficient balance, bal %d, needed %d", op.From, fromInfo.Balance, op.Amount)
	}

	toInfo := act.info[op.To]

	fromInfo.Balance -= op.Amount
	toInfo.Balance += op.Amount

	act.info[op.From] = fromInfo
	act.info[op.To] = toInfo

	return nil
}

// =============================================================================

func (act *Accounts) seed() {
	act.info = make(map[string]Info)
	for name, balance := range act.genesis.Balances {
		act.info[name] = Info{Balance: balance}
	}
}
