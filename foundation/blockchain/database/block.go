package database

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btnlabs/blockchain/foundation/blockchain/digest"
	"github.com/btnlabs/blockchain/foundation/blockchain/genesis"
	"github.com/btnlabs/blockchain/foundation/blockchain/merkle"
)

// ErrChainForked is returned when a block from another node is ahead of the
// next block this node expects. The node needs to request the full chain.
var ErrChainForked = errors.New("blockchain forked, start resync")

// ErrValidation is the error every block validation failure wraps.
var ErrValidation = errors.New("block validation failed")

// Rule names the block validation rule that failed.
type Rule string

// Set of block validation rules in the order they are checked.
const (
	RuleLinkage     Rule = "linkage"
	RuleNumber      Rule = "number"
	RuleHash        Rule = "hash"
	RuleDifficulty  Rule = "difficulty"
	RulePayloadRoot Rule = "payload_root"
)

// ValidationError describes the first rule a block failed.
type ValidationError struct {
	Number uint64
	Rule   Rule
	Reason string
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	return fmt.Sprintf("block %d invalid: %s: %s", ve.Number, ve.Rule, ve.Reason)
}

// Unwrap allows errors.Is to match ErrValidation.
func (ve *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsRule reports whether the error is a validation error for the rule.
func IsRule(err error, rule Rule) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Rule == rule
}

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number        uint64 `json:"number"`
	PrevBlockHash string `json:"prev_block_hash"`
	TimeStamp     uint64 `json:"timestamp"`
	Beneficiary   string `json:"beneficiary"`
	Difficulty    uint16 `json:"difficulty"`
	MiningReward  uint64 `json:"mining_reward"`
	PayloadRoot   string `json:"payload_root"`
	Nonce         uint64 `json:"nonce"`
}

// BlockData returns the canonical serialization of the header without the
// nonce. This is the preimage the proof of work is performed against.
func (bh BlockHeader) BlockData() string {
	pre := struct {
		Number        uint64 `json:"number"`
		PrevBlockHash string `json:"prev_block_hash"`
		TimeStamp     uint64 `json:"timestamp"`
		Beneficiary   string `json:"beneficiary"`
		Difficulty    uint16 `json:"difficulty"`
		MiningReward  uint64 `json:"mining_reward"`
		PayloadRoot   string `json:"payload_root"`
	}{
		Number:        bh.Number,
		PrevBlockHash: bh.PrevBlockHash,
		TimeStamp:     bh.TimeStamp,
		Beneficiary:   bh.Beneficiary,
		Difficulty:    bh.Difficulty,
		MiningReward:  bh.MiningReward,
		PayloadRoot:   bh.PayloadRoot,
	}

	data, _ := json.Marshal(pre)
	return string(data)
}

// Block represents a group of operations batched together. This is what
// is serialized to storage and over the network.
type Block struct {
	Hash    string      `json:"hash"`
	Header  BlockHeader `json:"header"`
	Payload []Op        `json:"payload"`
}

// NewBlock constructs an unsolved block that links to the previous block.
// The nonce and hash are set once the proof of work is solved.
func NewBlock(prevBlock Block, beneficiary string, difficulty uint16, miningReward uint64, timeStamp uint64, ops []Op) (Block, error) {
	root, err := PayloadRoot(ops)
	if err != nil {
		return Block{}, err
	}

	nb := Block{
		Header: BlockHeader{
			Number:        prevBlock.Header.Number + 1,
			PrevBlockHash: prevBlock.Hash,
			TimeStamp:     timeStamp,
			Beneficiary:   beneficiary,
			Difficulty:    difficulty,
			MiningReward:  miningReward,
			PayloadRoot:   root,
		},
		Payload: ops,
	}

	return nb, nil
}

// GenesisBlock constructs the first block of the chain from the genesis
// information. Every node using the same genesis gets the same block.
func GenesisBlock(gen genesis.Genesis) Block {
	b := Block{
		Header: BlockHeader{
			Number:        0,
			PrevBlockHash: digest.ZeroHash,
			TimeStamp:     uint64(gen.Date.UTC().UnixMilli()),
			Beneficiary:   fmt.Sprintf("genesis:%d", gen.ChainID),
			PayloadRoot:   digest.ZeroHash,
		},
		Payload: []Op{},
	}
	b.Hash = b.ComputeHash()

	return b
}

// PayloadRoot returns the merkle root of the operations.
func PayloadRoot(ops []Op) (string, error) {
	tree, err := merkle.NewTree(ops)
	if err != nil {
		return "", err
	}

	return tree.RootHex(), nil
}

// Solved returns a copy of the block with the nonce and hash applied.
func (b Block) Solved(nonce uint64, hash string) Block {
	b.Header.Nonce = nonce
	b.Hash = hash
	return b
}

// ComputeHash recomputes the hash of the block from its header.
func (b Block) ComputeHash() string {
	return digest.PowHash(b.Header.BlockData(), b.Header.Nonce)
}

// ValidateBlock takes a block and validates it to be included into the
// blockchain after the previous block.
func (b Block) ValidateBlock(previousBlock Block, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Header.Number)

	if b.Header.PrevBlockHash != previousBlock.Hash {
		return b.invalid(RuleLinkage, "parent block hash doesn't match our known parent, got %s, exp %s", b.Header.PrevBlockHash, previousBlock.Hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Header.Number)

	nextNumber := previousBlock.Header.Number + 1
	if b.Header.Number != nextNumber {
		return b.invalid(RuleNumber, "this block is not the next number, got %d, exp %d", b.Header.Number, nextNumber)
	}

	return b.validateContent(evHandler)
}

// validateGenesis checks the first block of a chain.
func (b Block) validateGenesis(evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: genesis block", b.Header.Number)

	if b.Header.Number != 0 {
		return b.invalid(RuleNumber, "first block must be number 0")
	}

	if b.Header.PrevBlockHash != digest.ZeroHash {
		return b.invalid(RuleLinkage, "genesis parent hash must be the zero hash, got %s", b.Header.PrevBlockHash)
	}

	return b.validateContent(evHandler)
}

// validateContent checks the rules that only depend on the block itself.
func (b Block) validateContent(evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash matches the header", b.Header.Number)

	if hash := b.ComputeHash(); b.Hash != hash {
		return b.invalid(RuleHash, "stored hash doesn't match the computed hash, got %s, exp %s", b.Hash, hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Header.Number)

	if !digest.IsHashSolved(b.Header.Difficulty, b.Hash) {
		return b.invalid(RuleDifficulty, "%s doesn't satisfy difficulty %d", b.Hash, b.Header.Difficulty)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: payload root does match operations", b.Header.Number)

	root, err := PayloadRoot(b.Payload)
	if err != nil {
		return b.invalid(RulePayloadRoot, "unable to hash payload: %s", err)
	}

	if b.Header.PayloadRoot != root {
		return b.invalid(RulePayloadRoot, "payload root does not match operations, got %s, exp %s", b.Header.PayloadRoot, root)
	}

	return nil
}

func (b Block) invalid(rule Rule, format string, args ...any) error {
	return &ValidationError{
		Number: b.Header.Number,
		Rule:   rule,
		Reason: fmt.Sprintf(format, args...),
	}
}

// =============================================================================

// ValidateChain walks the blocks from genesis and validates every block
// against its predecessor.
func ValidateChain(blocks []Block, evHandler func(v string, args ...any)) error {
	if len(blocks) == 0 {
		return errors.New("chain has no blocks")
	}

	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	if err := blocks[0].validateGenesis(evHandler); err != nil {
		return err
	}

	for i := 1; i < len(blocks); i++ {
		if err := blocks[i].ValidateBlock(blocks[i-1], evHandler); err != nil {
			return err
		}
	}

	return nil
}
