// Package postgres implements the contract store on PostgreSQL.
package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/btnlabs/blockchain/foundation/blockchain/contract"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS contracts (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	owner      TEXT NOT NULL,
	code       TEXT NOT NULL,
	abi        JSONB NOT NULL,
	state      JSONB NOT NULL,
	balance    BIGINT NOT NULL,
	status     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

// Store keeps the contracts in a PostgreSQL table. This implements the
// contract.Storer interface.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database and makes sure the schema exists.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Save inserts the contract or updates its mutable columns.
func (s *Store) Save(ctx context.Context, c contract.Contract) error {
	if c.Balance > math.MaxInt64 {
		return fmt.Errorf("balance %d exceeds the storable range", c.Balance)
	}

	abiJSON, err := json.Marshal(c.ABI)
	if err != nil {
		return fmt.Errorf("failed to marshal abi: %w", err)
	}

	stateJSON, err := json.Marshal(c.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	const query = `
		INSERT INTO contracts (id, name, owner, code, abi, state, balance, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			state   = EXCLUDED.state,
			balance = EXCLUDED.balance,
			status  = EXCLUDED.status
	`

	_, err = s.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Owner,
		c.Code,
		abiJSON,
		stateJSON,
		int64(c.Balance),
		string(c.Status),
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}

	return nil
}

// LoadAll returns every stored contract ordered by creation time.
func (s *Store) LoadAll(ctx context.Context) ([]contract.Contract, error) {
	const query = `
		SELECT id, name, owner, code, abi, state, balance, status, created_at
		FROM contracts
		ORDER BY created_at, id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	var contracts []contract.Contract
	for rows.Next() {
		var (
			c         contract.Contract
			abiJSON   []byte
			stateJSON []byte
			balance   int64
			status    string
		)

		if err := rows.Scan(&c.ID, &c.Name, &c.Owner, &c.Code, &abiJSON, &stateJSON, &balance, &status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}

		if err := json.Unmarshal(abiJSON, &c.ABI); err != nil {
			return nil, fmt.Errorf("failed to unmarshal abi for %s: %w", c.ID, err)
		}

		dec := json.NewDecoder(bytes.NewReader(stateJSON))
		dec.UseNumber()
		if err := dec.Decode(&c.State); err != nil {
			return nil, fmt.Errorf("failed to unmarshal state for %s: %w", c.ID, err)
		}

		c.Balance = uint64(balance)
		c.Status = contract.Status(status)
		c.CreatedAt = c.CreatedAt.UTC()

		contracts = append(contracts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contracts: %w", err)
	}

	return contracts, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
