package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stakeVault/internal/storage"
)

//go:embed schema.sql
var schema string

// Options tunes transaction retries.
type Options struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// Store provides Postgres persistence for ledger records. Every Update runs
// in a SERIALIZABLE transaction and locks the rows it reads.
type Store struct {
	pool *pgxpool.Pool
	opts Options
}

func NewStore(ctx context.Context, dsn string, opts Options) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, opts: opts}, nil
}

// Migrate creates the ledger tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	return withRetry(ctx, s.opts.MaxRetries, s.opts.RetryBackoff, func(ctx context.Context) error {
		return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
			return fn(&pgTx{tx: tx, writable: true})
		})
	})
}

func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}
