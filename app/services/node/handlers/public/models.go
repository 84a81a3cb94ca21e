package public

import (
	"time"

	"github.com/btnlabs/blockchain/foundation/blockchain/contract"
	"github.com/btnlabs/blockchain/foundation/blockchain/deployer"
)

type balance struct {
	Name    string `json:"name"`
	Balance uint64 `json:"balance"`
	Ops     uint64 `json:"ops"`
}

type balances struct {
	LatestBlock string    `json:"latest_block"`
	Uncommitted int       `json:"uncommitted"`
	Balances    []balance `json:"balances"`
}

type transfer struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
	Amount uint64 `json:"amount" validate:"required,gt=0"`
}

// =============================================================================

type contractInfo struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Address   string              `json:"address"`
	Owner     string              `json:"owner"`
	ABI       []contract.ABIEntry `json:"abi"`
	CreatedAt time.Time           `json:"createdAt"`
	Balance   uint64              `json:"balance"`
	State     map[string]any      `json:"state"`
	Status    contract.Status     `json:"status"`
}

func toContractInfo(c contract.Contract) contractInfo {
	return contractInfo{
		ID:        c.ID,
		Name:      c.Name,
		Address:   c.Address(),
		Owner:     c.Owner,
		ABI:       c.ABI,
		CreatedAt: c.CreatedAt,
		Balance:   c.Balance,
		State:     c.State,
		Status:    c.Status,
	}
}

func toContractInfos(cs []contract.Contract) []contractInfo {
	infos := make([]contractInfo, len(cs))
	for i, c := range cs {
		infos[i] = toContractInfo(c)
	}
	return infos
}

type deployedContract struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Address     string          `json:"address"`
	Status      deployer.Status `json:"status"`
	DeployedAt  time.Time       `json:"deployedAt"`
	BlockNumber *uint64         `json:"blockNumber"`
	Reason      string          `json:"reason,omitempty"`
}

type deployedContracts struct {
	Count     int                `json:"count"`
	Contracts []deployedContract `json:"contracts"`
}

type deployResult struct {
	ContractID string          `json:"contractId"`
	Address    string          `json:"address"`
	Status     deployer.Status `json:"status"`
}

type syncResult struct {
	ContractID string `json:"contractId"`
	Synced     bool   `json:"synced"`
}

type call struct {
	Method string `json:"method" validate:"required"`
	Params []any  `json:"params"`
	Caller string `json:"caller" validate:"required"`
	Value  uint64 `json:"value"`
}

type callResult struct {
	Result any `json:"result"`
}
