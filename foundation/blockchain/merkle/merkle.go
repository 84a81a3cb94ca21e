// Package merkle provides a merkle tree used to commit a block to the
// operations it carries.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/btnlabs/blockchain/foundation/blockchain/digest"
)

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Hash() ([]byte, error)
	Equals(other T) bool
}

// Side identifies where a proof hash is concatenated during verification.
type Side int

// Set of sides for a proof step.
const (
	Left  Side = 0 // Proof hash comes first.
	Right Side = 1 // Proof hash comes second.
)

// ProofStep is one level of a merkle proof.
type ProofStep struct {
	Hash []byte
	Side Side
}

// =============================================================================

// Tree represents a merkle tree over a set of values. An empty tree is
// valid and has the zero hash as its root.
type Tree[T Hashable[T]] struct {
	values []T
	levels [][][]byte
}

// NewTree constructs a merkle tree for the specified values. When a level
// has an odd number of nodes the last node is paired with itself.
func NewTree[T Hashable[T]](values []T) (*Tree[T], error) {
	t := Tree[T]{
		values: append([]T(nil), values...),
	}

	if len(values) == 0 {
		return &t, nil
	}

	leafs := make([][]byte, len(values))
	for i, value := range values {
		h, err := value.Hash()
		if err != nil {
			return nil, err
		}
		leafs[i] = h
	}

	t.levels = append(t.levels, leafs)
	for level := leafs; len(level) > 1; {
		var next [][]byte
		for i := 0; i < len(level); i += 2 {
			right := i + 1
			if right == len(level) {
				right = i
			}
			next = append(next, pair(level[i], level[right]))
		}

		t.levels = append(t.levels, next)
		level = next
	}

	return &t, nil
}

// Values returns the values the tree was constructed with.
func (t *Tree[T]) Values() []T {
	return append([]T(nil), t.values...)
}

// Root returns the root hash of the tree.
func (t *Tree[T]) Root() []byte {
	if len(t.levels) == 0 {
		root, _ := hex.DecodeString(digest.ZeroHash)
		return root
	}

	return t.levels[len(t.levels)-1][0]
}

// RootHex converts the merkle root byte hash to a hex encoded string.
func (t *Tree[T]) RootHex() string {
	return hex.EncodeToString(t.Root())
}

// Proof returns the set of hashes needed to prove the value is part of
// the tree, ordered from the leaf level up.
func (t *Tree[T]) Proof(value T) ([]ProofStep, error) {
	idx := -1
	for i, v := range t.values {
		if v.Equals(value) {
			idx = i
			break
		}
	}

	if idx == -1 {
		return nil, errors.New("unable to find value in tree")
	}

	var proof []ProofStep
	for _, level := range t.levels[:len(t.levels)-1] {
		switch {
		case idx%2 == 1:
			proof = append(proof, ProofStep{Hash: level[idx-1], Side: Left})
		case idx+1 < len(level):
			proof = append(proof, ProofStep{Hash: level[idx+1], Side: Right})
		default:
			proof = append(proof, ProofStep{Hash: level[idx], Side: Right})
		}
		idx /= 2
	}

	return proof, nil
}

// VerifyProof checks the value against the proof and the expected root.
func VerifyProof[T Hashable[T]](value T, proof []ProofStep, root []byte) error {
	h, err := value.Hash()
	if err != nil {
		return err
	}

	for _, step := range proof {
		switch step.Side {
		case Left:
			h = pair(step.Hash, h)
		default:
			h = pair(h, step.Hash)
		}
	}

	if !bytes.Equal(h, root) {
		return errors.New("calculated root does not match the merkle root")
	}

	return nil
}

// =============================================================================

func pair(left []byte, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}
