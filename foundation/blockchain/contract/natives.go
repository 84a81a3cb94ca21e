package contract

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/btnlabs/blockchain/foundation/validate"
)

// Env is the execution environment handed to a native method. The state
// is a private copy that is only committed when the method succeeds.
type Env struct {
	State  map[string]any
	Owner  string
	Caller string
	Value  uint64
	Now    time.Time

	emitted []emitted
}

type emitted struct {
	name string
	data map[string]any
}

// Emit records an event that is published if the call succeeds.
func (env *Env) Emit(name string, data map[string]any) {
	env.emitted = append(env.emitted, emitted{name: name, data: data})
}

// Method is a native implementation of a contract method.
type Method func(env *Env, params []any) (any, error)

// Native is the implementation of a contract. Init fills in any state the
// contract needs that is missing.
type Native struct {
	Init    func(env *Env)
	Methods map[string]Method
}

// natives holds the implementations keyed by contract name.
var natives = map[string]Native{
	"BTNToken":      btnToken,
	"MiningRewards": miningRewards,
	"SimpleToken":   simpleToken,
	"Voting":        voting,
}

// lookupNative finds the implementation for the contract name. Characters
// other than letters and digits are ignored.
func lookupNative(name string) (Native, bool) {
	n, exists := natives[nativeKey(name)]
	return n, exists
}

func nativeKey(name string) string {
	key := make([]rune, 0, len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			key = append(key, r)
		}
	}
	return string(key)
}

// nativeABI returns the interface the native implementation for the
// contract name was written against.
func nativeABI(name string) ([]ABIEntry, bool) {
	key := nativeKey(name)

	for _, spec := range Builtins() {
		if nativeKey(spec.Name) == key {
			return spec.ABI, true
		}
	}
	for _, tmpl := range Templates() {
		if nativeKey(tmpl.Name) == key {
			return tmpl.ABI, true
		}
	}

	return nil, false
}

// checkNativeABI rejects an interface that declares a native method with
// inputs that differ from the ones the implementation reads.
func checkNativeABI(name string, entries []ABIEntry) error {
	native, exists := lookupNative(name)
	if !exists {
		return nil
	}

	ref, _ := nativeABI(name)
	inputs := make(map[string][]ABIParam)
	for _, ent := range ref {
		if ent.Type == "function" {
			inputs[ent.Name] = ent.Inputs
		}
	}

	for _, ent := range entries {
		if ent.Type != "function" {
			continue
		}
		if _, implemented := native.Methods[ent.Name]; !implemented {
			continue
		}

		want := inputs[ent.Name]
		if !sameTypes(want, ent.Inputs) {
			return fmt.Errorf("%w: %w", ErrValidation, validate.NewFieldError("abi", fmt.Errorf("method %q of %s takes inputs %s", ent.Name, nativeKey(name), typeList(want))))
		}
	}

	return nil
}

func sameTypes(a []ABIParam, b []ABIParam) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type {
			return false
		}
	}
	return true
}

func typeList(params []ABIParam) string {
	types := make([]string, len(params))
	for i, p := range params {
		types[i] = p.Type
	}
	return "(" + strings.Join(types, ",") + ")"
}

// callNative runs the method and turns a panic inside it into an error.
func callNative(method Method, env *Env, params []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("native method panic: %v", r)
		}
	}()

	return method(env, params)
}

// =============================================================================

var btnToken = Native{
	Init: func(env *Env) {
		setDefault(env.State, "name", "BTN Token")
		setDefault(env.State, "symbol", "BTN")
		setDefault(env.State, "decimals", uint64(18))
		setDefault(env.State, "totalSupply", uint64(0))
		table(env.State, "balances")
		table(env.State, "allowances")
	},
	Methods: map[string]Method{
		"mint": func(env *Env, params []any) (any, error) {
			to, amount, err := addressAmount(params[0], params[1])
			if err != nil {
				return nil, err
			}

			balances := table(env.State, "balances")
			env.State["totalSupply"] = toUintOr(env.State["totalSupply"]) + amount
			balances[to] = toUintOr(balances[to]) + amount

			env.Emit("Transfer", map[string]any{"from": "0x0", "to": to, "value": amount})
			return true, nil
		},
		"transfer": func(env *Env, params []any) (any, error) {
			return transfer(env, params)
		},
		"balanceOf": func(env *Env, params []any) (any, error) {
			return balanceOf(env, params)
		},
		"approve": func(env *Env, params []any) (any, error) {
			owner, err := toString(params[0])
			if err != nil {
				return nil, err
			}
			spender, amount, err := addressAmount(params[1], params[2])
			if err != nil {
				return nil, err
			}

			allowances := table(env.State, "allowances")
			table(allowances, owner)[spender] = amount

			env.Emit("Approval", map[string]any{"owner": owner, "spender": spender, "value": amount})
			return true, nil
		},
	},
}

var miningRewards = Native{
	Init: func(env *Env) {
		setDefault(env.State, "rewardRate", 0.1)
		if _, exists := env.State["actionMultipliers"]; !exists {
			env.State["actionMultipliers"] = map[string]any{
				"click":  1.1,
				"share":  2.0,
				"invite": 5.0,
				"visit":  1.5,
				"form":   1.3,
			}
		}
		table(env.State, "userRewards")
	},
	Methods: map[string]Method{
		"calculateReward": func(env *Env, params []any) (any, error) {
			action, err := toString(params[0])
			if err != nil {
				return nil, err
			}
			user, err := toString(params[1])
			if err != nil {
				return nil, err
			}

			multiplier := 1.0
			if m, exists := table(env.State, "actionMultipliers")[action]; exists {
				multiplier = toFloat(m)
			}
			reward := toFloat(env.State["rewardRate"]) * multiplier

			rewards := table(env.State, "userRewards")
			rewards[user] = toFloat(rewards[user]) + reward

			env.Emit("RewardCalculated", map[string]any{"user": user, "action": action, "reward": reward, "multiplier": multiplier})
			return reward, nil
		},
		"claimRewards": func(env *Env, params []any) (any, error) {
			user, err := toString(params[0])
			if err != nil {
				return nil, err
			}

			rewards := table(env.State, "userRewards")
			amount := toFloat(rewards[user])
			if amount <= 0 {
				return 0.0, nil
			}
			rewards[user] = 0.0

			env.Emit("RewardsClaimed", map[string]any{"user": user, "amount": amount})
			return amount, nil
		},
		"getUserRewards": func(env *Env, params []any) (any, error) {
			user, err := toString(params[0])
			if err != nil {
				return nil, err
			}

			return toFloat(table(env.State, "userRewards")[user]), nil
		},
	},
}

var simpleToken = Native{
	Init: func(env *Env) {
		const initialSupply = 1_000_000

		setDefault(env.State, "name", "Simple Token")
		setDefault(env.State, "symbol", "SIM")
		setDefault(env.State, "decimals", uint64(18))
		if _, exists := env.State["balances"]; !exists {
			env.State["totalSupply"] = uint64(initialSupply)
			env.State["balances"] = map[string]any{env.Owner: uint64(initialSupply)}
		}
	},
	Methods: map[string]Method{
		"transfer": func(env *Env, params []any) (any, error) {
			return transfer(env, params)
		},
		"balanceOf": func(env *Env, params []any) (any, error) {
			return balanceOf(env, params)
		},
	},
}

var voting = Native{
	Init: func(env *Env) {
		table(env.State, "proposals")
		table(env.State, "votes")
		setDefault(env.State, "proposalCount", uint64(0))
	},
	Methods: map[string]Method{
		"createProposal": func(env *Env, params []any) (any, error) {
			title, err := toString(params[0])
			if err != nil {
				return nil, err
			}
			description, err := toString(params[1])
			if err != nil {
				return nil, err
			}
			duration, err := toUint(params[2])
			if err != nil {
				return nil, err
			}

			id := toUintOr(env.State["proposalCount"])
			env.State["proposalCount"] = id + 1

			table(env.State, "proposals")[strconv.FormatUint(id, 10)] = map[string]any{
				"title":       title,
				"description": description,
				"yesVotes":    uint64(0),
				"noVotes":     uint64(0),
				"endTime":     env.Now.Add(time.Duration(duration) * time.Second).UnixMilli(),
				"active":      true,
			}

			env.Emit("ProposalCreated", map[string]any{"proposalId": id, "title": title, "description": description})
			return id, nil
		},
		"vote": func(env *Env, params []any) (any, error) {
			id, err := toUint(params[0])
			if err != nil {
				return nil, err
			}
			voter, err := toString(params[1])
			if err != nil {
				return nil, err
			}
			support, err := toBool(params[2])
			if err != nil {
				return nil, err
			}

			key := strconv.FormatUint(id, 10)
			proposal, ok := table(env.State, "proposals")[key].(map[string]any)
			if !ok || proposal["active"] != true || env.Now.UnixMilli() > int64(toFloat(proposal["endTime"])) {
				return false, nil
			}

			votes := table(env.State, "votes")
			voteKey := key + "_" + voter
			if _, exists := votes[voteKey]; exists {
				return false, nil
			}
			votes[voteKey] = support

			field := "noVotes"
			if support {
				field = "yesVotes"
			}
			proposal[field] = toUintOr(proposal[field]) + 1

			env.Emit("VoteCast", map[string]any{"proposalId": id, "voter": voter, "support": support})
			return true, nil
		},
		"getProposal": func(env *Env, params []any) (any, error) {
			id, err := toUint(params[0])
			if err != nil {
				return nil, err
			}

			proposal, ok := table(env.State, "proposals")[strconv.FormatUint(id, 10)]
			if !ok {
				return nil, nil
			}
			return deepCopy(proposal), nil
		},
	},
}

// =============================================================================

func transfer(env *Env, params []any) (any, error) {
	from, err := toString(params[0])
	if err != nil {
		return nil, err
	}
	to, amount, err := addressAmount(params[1], params[2])
	if err != nil {
		return nil, err
	}

	balances := table(env.State, "balances")
	fromBalance := toUintOr(balances[from])
	if fromBalance < amount {
		return false, nil
	}

	balances[from] = fromBalance - amount
	balances[to] = toUintOr(balances[to]) + amount

	env.Emit("Transfer", map[string]any{"from": from, "to": to, "value": amount})
	return true, nil
}

func balanceOf(env *Env, params []any) (any, error) {
	account, err := toString(params[0])
	if err != nil {
		return nil, err
	}

	return toUintOr(table(env.State, "balances")[account]), nil
}

func addressAmount(address any, amount any) (string, uint64, error) {
	a, err := toString(address)
	if err != nil {
		return "", 0, err
	}

	n, err := toUint(amount)
	if err != nil {
		return "", 0, err
	}

	return a, n, nil
}

// =============================================================================

// table returns the nested object stored under key, creating it if needed.
func table(state map[string]any, key string) map[string]any {
	if m, ok := state[key].(map[string]any); ok {
		return m
	}

	m := make(map[string]any)
	state[key] = m
	return m
}

func setDefault(state map[string]any, key string, value any) {
	if _, exists := state[key]; !exists {
		state[key] = value
	}
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	}
	return "", fmt.Errorf("expected a string, got %T", v)
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	}
	return false, fmt.Errorf("expected a bool, got %T", v)
}

// toUint converts numbers decoded from JSON or produced by natives.
func toUint(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int:
		if n >= 0 {
			return uint64(n), nil
		}
	case int64:
		if n >= 0 {
			return uint64(n), nil
		}
	case float64:
		if n >= 0 && n == math.Trunc(n) && n < math.MaxUint64 {
			return uint64(n), nil
		}
	case json.Number:
		return strconv.ParseUint(n.String(), 10, 64)
	case string:
		return strconv.ParseUint(n, 10, 64)
	}
	return 0, fmt.Errorf("expected a non-negative integer, got %v", v)
}

func toUintOr(v any) uint64 {
	n, _ := toUint(v)
	return n
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case uint64:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	}
	return 0
}

// deepCopy copies the nested maps and slices that make up contract state.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = deepCopy(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = deepCopy(val)
		}
		return s
	}
	return v
}

func copyState(state map[string]any) map[string]any {
	if state == nil {
		return map[string]any{}
	}
	return deepCopy(state).(map[string]any)
}
