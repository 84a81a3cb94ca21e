// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date         time.Time         `json:"date"`
	ChainID      uint16            `json:"chain_id"`      // The chain id represents an unique id for this running instance.
	OpsPerBlock  uint16            `json:"ops_per_block"` // The maximum number of operations that can be in a block.
	Difficulty   uint16            `json:"difficulty"`    // How many leading zeros a block hash needs.
	MiningReward uint64            `json:"mining_reward"` // Reward for mining a block.
	Balances     map[string]uint64 `json:"balances"`
}

// Default returns the genesis used when no genesis file exists.
func Default() Genesis {
	return Genesis{
		Date:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:      1,
		OpsPerBlock:  10,
		Difficulty:   2,
		MiningReward: 100,
		Balances:     map[string]uint64{},
	}
}

// =============================================================================

// Load opens and consumes the genesis file. If the file does not exist the
// default genesis is returned.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if genesis.OpsPerBlock == 0 {
		return Genesis{}, errors.New("genesis ops_per_block must be greater than zero")
	}

	if genesis.Balances == nil {
		genesis.Balances = map[string]uint64{}
	}

	return genesis, nil
}
