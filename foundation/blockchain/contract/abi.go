package contract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/btnlabs/blockchain/foundation/validate"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ParseABI checks the entries are a well formed Ethereum ABI and returns
// the parsed form.
func ParseABI(entries []ABIEntry) (abi.ABI, error) {
	if len(entries) == 0 {
		return abi.ABI{}, nil
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return abi.ABI{}, err
	}

	parsed, err := abi.JSON(strings.NewReader(string(data)))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("%w: %w", ErrValidation, validate.NewFieldError("abi", err))
	}

	return parsed, nil
}

// lookupMethod finds the method in the parsed ABI and checks the number
// of parameters supplied.
func lookupMethod(parsed abi.ABI, name string, params []any) (abi.Method, error) {
	method, exists := parsed.Methods[name]
	if !exists {
		return abi.Method{}, fmt.Errorf("%w: %w", ErrValidation, validate.NewFieldError("method", fmt.Errorf("method %q is not part of the contract abi", name)))
	}

	if len(params) != len(method.Inputs) {
		return abi.Method{}, fmt.Errorf("%w: %w", ErrValidation, validate.NewFieldError("params", fmt.Errorf("method %q takes %d params, got %d", name, len(method.Inputs), len(params))))
	}

	return method, nil
}
