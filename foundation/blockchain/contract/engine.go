package contract

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/btnlabs/blockchain/foundation/validate"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/google/uuid"
)

// Config represents the configuration required to construct the engine.
type Config struct {
	Storer    Storer
	EvHandler func(v string, args ...any)
	Now       func() time.Time
	Height    func() uint64
}

// entry holds a registered contract. callMu serializes invocations of the
// contract and mu guards the committed value.
type entry struct {
	callMu sync.Mutex
	mu     sync.RWMutex
	c      Contract
	abi    abi.ABI
}

func (ent *entry) snapshot() Contract {
	ent.mu.RLock()
	defer ent.mu.RUnlock()

	return clone(ent.c)
}

// Engine manages the registry of contracts and executes calls.
type Engine struct {
	mu        sync.RWMutex
	contracts map[string]*entry
	order     []string
	events    []Event

	storer    Storer
	evHandler func(v string, args ...any)
	now       func() time.Time
	height    func() uint64
}

// NewEngine constructs an engine and loads the contracts already known
// to the store.
func NewEngine(ctx context.Context, cfg Config) (*Engine, error) {
	e := Engine{
		contracts: make(map[string]*entry),
		storer:    cfg.Storer,
		evHandler: cfg.EvHandler,
		now:       cfg.Now,
		height:    cfg.Height,
	}

	if e.evHandler == nil {
		e.evHandler = func(string, ...any) {}
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.height == nil {
		e.height = func() uint64 { return 0 }
	}
	if e.storer == nil {
		return nil, errors.New("contract engine requires a store")
	}

	stored, err := e.storer.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contracts: %w", err)
	}

	for _, c := range stored {
		parsed, err := ParseABI(c.ABI)
		if err != nil {
			return nil, fmt.Errorf("load contract %s: %w", c.ID, err)
		}
		if c.State == nil {
			c.State = map[string]any{}
		}

		e.contracts[c.ID] = &entry{c: c, abi: parsed}
		e.order = append(e.order, c.ID)
	}

	e.evHandler("contract: NewEngine: loaded contracts[%d]", len(stored))

	return &e, nil
}

// Prepare validates the deploy specification and constructs the contract
// that will be registered. The contract is not visible until Register
// succeeds.
func (e *Engine) Prepare(spec DeploySpec) (Contract, error) {
	spec.Name = strings.TrimSpace(spec.Name)
	spec.Owner = strings.TrimSpace(spec.Owner)

	if err := validate.Check(spec); err != nil {
		return Contract{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if _, err := ParseABI(spec.ABI); err != nil {
		return Contract{}, err
	}

	if err := checkNativeABI(spec.Name, spec.ABI); err != nil {
		return Contract{}, err
	}

	c := Contract{
		ID:        e.newID(),
		Name:      spec.Name,
		Code:      spec.Code,
		ABI:       append([]ABIEntry(nil), spec.ABI...),
		Owner:     spec.Owner,
		CreatedAt: e.now().UTC(),
		State:     map[string]any{},
		Balance:   0,
		Status:    StatusDeploying,
	}

	return c, nil
}

// Register stores the prepared contract and adds it to the registry. If
// the store rejects the contract the registry is left unchanged.
func (e *Engine) Register(ctx context.Context, c Contract) (Contract, error) {
	parsed, err := ParseABI(c.ABI)
	if err != nil {
		return Contract{}, err
	}

	e.mu.RLock()
	_, exists := e.contracts[c.ID]
	e.mu.RUnlock()

	if exists {
		return Contract{}, fmt.Errorf("%w: contract id %s already registered", ErrValidation, c.ID)
	}

	c.Status = StatusDeployed

	if err := e.storer.Save(ctx, c); err != nil {
		return Contract{}, fmt.Errorf("store contract %s: %w", c.ID, err)
	}

	e.mu.Lock()
	e.contracts[c.ID] = &entry{c: clone(c), abi: parsed}
	e.order = append(e.order, c.ID)
	e.mu.Unlock()

	e.evHandler("contract: Register: deployed: id[%s] name[%s] owner[%s]", c.ID, c.Name, c.Owner)

	return c, nil
}

// DeployContract validates and registers a new contract and returns its id.
func (e *Engine) DeployContract(ctx context.Context, spec DeploySpec) (string, error) {
	c, err := e.Prepare(spec)
	if err != nil {
		return "", err
	}

	c, err = e.Register(ctx, c)
	if err != nil {
		return "", err
	}

	return c.ID, nil
}

// DeployBuiltins registers the built in contracts that are not already
// present in the registry.
func (e *Engine) DeployBuiltins(ctx context.Context) ([]Contract, error) {
	var deployed []Contract
	for _, spec := range Builtins() {
		if len(e.ContractsByName(spec.Name, spec.Owner)) > 0 {
			continue
		}

		c, err := e.Prepare(spec)
		if err != nil {
			return nil, err
		}

		if c, err = e.Register(ctx, c); err != nil {
			return nil, err
		}
		deployed = append(deployed, c)
	}

	return deployed, nil
}

// GetContract returns a copy of the contract for the id.
func (e *Engine) GetContract(id string) (Contract, bool) {
	e.mu.RLock()
	ent, exists := e.contracts[id]
	e.mu.RUnlock()

	if !exists {
		return Contract{}, false
	}

	return ent.snapshot(), true
}

// AllContracts returns every contract in registration order.
func (e *Engine) AllContracts() []Contract {
	return e.filter(func(Contract) bool { return true })
}

// ContractsByOwner returns the contracts owned by the owner.
func (e *Engine) ContractsByOwner(owner string) []Contract {
	return e.filter(func(c Contract) bool { return c.Owner == owner })
}

// ContractsByName returns the contracts with the name deployed by the owner.
func (e *Engine) ContractsByName(name string, owner string) []Contract {
	return e.filter(func(c Contract) bool { return c.Name == name && c.Owner == owner })
}

// Count returns the number of registered contracts.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.contracts)
}

// Events returns the events emitted by the contract. An empty id returns
// the events of every contract.
func (e *Engine) Events(contractID string) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()

	events := []Event{}
	for _, ev := range e.events {
		if contractID == "" || ev.ContractID == contractID {
			events = append(events, ev)
		}
	}

	return events
}

// Invoke executes a contract method. The method runs against a copy of the
// contract state and the new state and balance are committed together only
// if the method succeeds and the store accepts the update. Calls to the
// same contract are serialized.
func (e *Engine) Invoke(ctx context.Context, call Call) (any, error) {
	if err := validate.Check(call); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	e.mu.RLock()
	ent, exists := e.contracts[call.ContractID]
	e.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, call.ContractID)
	}

	method, err := lookupMethod(ent.abi, call.Method, call.Params)
	if err != nil {
		return nil, err
	}

	if call.Value > 0 && !method.IsPayable() {
		return nil, fmt.Errorf("%w: %w", ErrValidation, validate.NewFieldError("value", fmt.Errorf("method %q is not payable", call.Method)))
	}

	ent.callMu.Lock()
	defer ent.callMu.Unlock()

	current := ent.snapshot()

	native, exists := lookupNative(current.Name)
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNoImplementation, current.Name)
	}

	fn, exists := native.Methods[call.Method]
	if !exists {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoImplementation, current.Name, call.Method)
	}

	env := Env{
		State:  current.State,
		Owner:  current.Owner,
		Caller: call.Caller,
		Value:  call.Value,
		Now:    e.now().UTC(),
	}
	if native.Init != nil {
		native.Init(&env)
	}

	result, err := callNative(fn, &env, call.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s.%s: %w", ErrExecution, current.Name, call.Method, err)
	}

	if !method.IsConstant() || call.Value > 0 {
		updated := current
		updated.State = env.State
		updated.Balance += call.Value

		if err := e.storer.Save(ctx, updated); err != nil {
			return nil, fmt.Errorf("store contract %s: %w", updated.ID, err)
		}

		ent.mu.Lock()
		ent.c = updated
		ent.mu.Unlock()
	}

	if len(env.emitted) > 0 {
		height := e.height()

		e.mu.Lock()
		for _, em := range env.emitted {
			e.events = append(e.events, Event{
				ContractID:  call.ContractID,
				Event:       em.name,
				Data:        em.data,
				BlockNumber: height,
				Timestamp:   env.Now,
			})
		}
		e.mu.Unlock()
	}

	e.evHandler("contract: Invoke: id[%s] method[%s] caller[%s]", call.ContractID, call.Method, call.Caller)

	return result, nil
}

// Close releases the contract store.
func (e *Engine) Close() error {
	return e.storer.Close()
}

// =============================================================================

func (e *Engine) newID() string {
	for {
		id := "contract_" + uuid.NewString()

		e.mu.RLock()
		_, exists := e.contracts[id]
		e.mu.RUnlock()

		if !exists {
			return id
		}
	}
}

func (e *Engine) filter(keep func(Contract) bool) []Contract {
	e.mu.RLock()
	ents := make([]*entry, 0, len(e.order))
	for _, id := range e.order {
		ents = append(ents, e.contracts[id])
	}
	e.mu.RUnlock()

	contracts := []Contract{}
	for _, ent := range ents {
		if c := ent.snapshot(); keep(c) {
			contracts = append(contracts, c)
		}
	}

	sort.SliceStable(contracts, func(i, j int) bool {
		return contracts[i].CreatedAt.Before(contracts[j].CreatedAt)
	})

	return contracts
}

// clone returns a copy of the contract that shares no mutable data.
func clone(c Contract) Contract {
	c.State = copyState(c.State)
	c.ABI = append([]ABIEntry(nil), c.ABI...)
	return c
}
