// Package deployer tracks the deployment status of contracts, from the
// moment a deploy is requested until the block carrying it is mined.
package deployer

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/btnlabs/blockchain/foundation/blockchain/contract"
)

// Set of errors returned by the deployer.
var (
	ErrNotFound = errors.New("deployment record not found")
	ErrExists   = errors.New("deployment record already exists")
	ErrTerminal = errors.New("deployment record is final")
)

// Status represents the state of a deployment.
type Status string

// Set of deployment states.
const (
	StatusDeploying Status = "deploying"
	StatusDeployed  Status = "deployed"
	StatusFailed    Status = "failed"
)

// Origin identifies where a deployment came from.
type Origin string

// Set of deployment origins.
const (
	OriginNative  Origin = "native"
	OriginPeer    Origin = "peer"
	OriginUnknown Origin = "unknown"
)

// Record is the deployment information for a single contract.
type Record struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Owner       string    `json:"owner"`
	Address     string    `json:"address"`
	Status      Status    `json:"status"`
	DeployedAt  time.Time `json:"deployedAt"`
	BlockNumber *uint64   `json:"blockNumber,omitempty"`
	Origin      Origin    `json:"origin"`
	Reason      string    `json:"reason,omitempty"`

	seq uint64
}

// =============================================================================

// Deployer maintains the set of deployment records.
type Deployer struct {
	mu      sync.RWMutex
	records map[string]*Record
	seq     uint64
	now     func() time.Time
}

// New constructs a deployer for use.
func New() *Deployer {
	return &Deployer{
		records: make(map[string]*Record),
		now:     time.Now,
	}
}

// Begin creates a record in the deploying state.
func (d *Deployer) Begin(id string, name string, owner string, origin Origin) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.records[id]; exists {
		return fmt.Errorf("%w: %s", ErrExists, id)
	}

	d.seq++
	d.records[id] = &Record{
		ID:         id,
		Name:       name,
		Owner:      owner,
		Address:    contract.Address(id),
		Status:     StatusDeploying,
		DeployedAt: d.now().UTC(),
		Origin:     origin,
		seq:        d.seq,
	}

	return nil
}

// Confirm moves a deploying record to deployed. The block number is
// optional and can be filled in later by ConfirmBlock.
func (d *Deployer) Confirm(id string, blockNumber *uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, err := d.pending(id)
	if err != nil {
		return err
	}

	rec.Status = StatusDeployed
	if blockNumber != nil {
		n := *blockNumber
		rec.BlockNumber = &n
	}

	return nil
}

// Fail moves a deploying record to failed.
func (d *Deployer) Fail(id string, reason string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, err := d.pending(id)
	if err != nil {
		return err
	}

	rec.Status = StatusFailed
	rec.Reason = reason

	return nil
}

// ConfirmBlock records the block number for the deployed contracts whose
// deploy operation was included in that block. It returns the number of
// records updated.
func (d *Deployer) ConfirmBlock(blockNumber uint64, ids []string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	var updated int
	for _, id := range ids {
		rec, exists := d.records[id]
		if !exists || rec.Status != StatusDeployed || rec.BlockNumber != nil {
			continue
		}

		n := blockNumber
		rec.BlockNumber = &n
		updated++
	}

	return updated
}

// Get returns a copy of the record for the id.
func (d *Deployer) Get(id string) (Record, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, exists := d.records[id]
	if !exists {
		return Record{}, false
	}

	return copyRecord(rec), true
}

// GetAllDeployedContracts returns every record, failed ones included with
// their status, ordered by deployment time. Records deployed at the same
// time keep the order they were created in.
func (d *Deployer) GetAllDeployedContracts() []Record {
	return d.filter(func(rec Record) bool { return true })
}

// ByOwner returns the records for contracts owned by the owner.
func (d *Deployer) ByOwner(owner string) []Record {
	return d.filter(func(rec Record) bool { return rec.Owner == owner })
}

// Count returns the number of records that have not failed.
func (d *Deployer) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var n int
	for _, rec := range d.records {
		if rec.Status != StatusFailed {
			n++
		}
	}

	return n
}

// =============================================================================

// pending returns the record if it can still change state.
func (d *Deployer) pending(id string) (*Record, error) {
	rec, exists := d.records[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if rec.Status != StatusDeploying {
		return nil, fmt.Errorf("%w: %s is %s", ErrTerminal, id, rec.Status)
	}

	return rec, nil
}

func (d *Deployer) filter(keep func(Record) bool) []Record {
	d.mu.RLock()
	defer d.mu.RUnlock()

	records := make([]Record, 0, len(d.records))
	for _, rec := range d.records {
		if r := copyRecord(rec); keep(r) {
			records = append(records, r)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].DeployedAt.Equal(records[j].DeployedAt) {
			return records[i].DeployedAt.Before(records[j].DeployedAt)
		}
		return records[i].seq < records[j].seq
	})

	return records
}

func copyRecord(rec *Record) Record {
	r := *rec
	if rec.BlockNumber != nil {
		n := *rec.BlockNumber
		r.BlockNumber = &n
	}
	return r
}
