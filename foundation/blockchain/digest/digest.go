// Package digest provides the hashing helpers the chain relies on for block
// identity and proof of work.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
)

// ZeroHash represents a hash code of zeros. It is used as the previous hash
// of the genesis block and as the payload root of an empty block.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// Size is the length of a hex encoded sha256 hash.
const Size = 64

// Hash returns the lowercase hex sha256 of the JSON form of the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	return Bytes(data)
}

// Bytes returns the lowercase hex sha256 of the data.
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// PowHash computes the proof of work hash for the block data and nonce.
// The nonce is appended to the block data as a decimal string.
func PowHash(blockData string, nonce uint64) string {
	h := sha256.New()
	h.Write([]byte(blockData))
	h.Write([]byte(strconv.FormatUint(nonce, 10)))
	return hex.EncodeToString(h.Sum(nil))
}

// IsHashSolved checks the hash to make sure it complies with the difficulty
// rule that was set. The hash must begin with difficulty '0' characters.
func IsHashSolved(difficulty uint16, hash string) bool {
	if len(hash) != Size {
		return false
	}

	return strings.HasPrefix(hash, strings.Repeat("0", int(difficulty)))
}

// IsHex reports whether the value is a well formed hex encoded hash.
func IsHex(value string) bool {
	if len(value) != Size {
		return false
	}

	_, err := hex.DecodeString(value)
	return err == nil
}
