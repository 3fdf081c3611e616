package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/user/cryptofolio/internal/models"
	"github.com/user/cryptofolio/internal/workflow"
)

// Store adapts the pool to the workflow engine's persistence interfaces.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ workflow.Store = (*Store)(nil)

// InTx runs fn inside one database transaction; the ledger it hands out
// issues all writes through that transaction, so they commit or roll back
// together.
func (s *Store) InTx(ctx context.Context, fn func(workflow.Ledger) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&ledger{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return GetUserByID(ctx, id)
}

func (s *Store) AssetBalance(ctx context.Context, userID uuid.UUID, symbol string) (decimal.Decimal, error) {
	var amountStr string
	query := `SELECT amount::text FROM assets WHERE user_id = $1 AND symbol = $2`
	err := s.pool.QueryRow(ctx, query, userID, symbol).Scan(&amountStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("error getting balance for user %s asset %s: %w", userID, symbol, err)
	}
	return decimal.NewFromString(amountStr)
}
