package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/user/cryptofolio/internal/models"
)

// ledger issues writes through one open pgx transaction.
type ledger struct {
	tx pgx.Tx
}

func (l *ledger) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	query := `INSERT INTO transactions (user_id, type, status, crypto_type, amount, address, tx_hash)
			  VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)
			  RETURNING id, created_at, updated_at`

	err := l.tx.QueryRow(ctx, query,
		t.UserID, t.Type, t.Status, t.CryptoType, t.Amount.String(), t.Address, t.TxHash,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating transaction for user %s: %w", t.UserID, err)
	}
	return nil
}

// TransactionForUpdate reads a transaction row and locks it until the
// enclosing transaction ends. Returns nil, nil when the row does not exist.
func (l *ledger) TransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	t := &models.Transaction{}
	var amountStr string
	query := `SELECT id, user_id, type, status, crypto_type, amount::text, address, tx_hash, created_at, updated_at
			  FROM transactions WHERE id = $1 FOR UPDATE`

	err := l.tx.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.UserID, &t.Type, &t.Status, &t.CryptoType, &amountStr,
		&t.Address, &t.TxHash, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error locking transaction %s: %w", id, err)
	}

	t.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("error parsing amount %q for transaction %s: %w", amountStr, id, err)
	}
	return t, nil
}

func (l *ledger) SetTransactionStatus(ctx context.Context, id uuid.UUID, status, txHash string) error {
	query := `UPDATE transactions
			  SET status = $1, tx_hash = CASE WHEN $2 <> '' THEN $2 ELSE tx_hash END, updated_at = NOW()
			  WHERE id = $3`

	cmdTag, err := l.tx.Exec(ctx, query, status, txHash, id)
	if err != nil {
		return fmt.Errorf("error updating status of transaction %s: %w", id, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("transaction %s not found for status update", id)
	}
	return nil
}

// EnsureAsset creates a zero-amount asset row if the user does not hold the
// symbol yet.
func (l *ledger) EnsureAsset(ctx context.Context, userID uuid.UUID, symbol string) error {
	query := `INSERT INTO assets (user_id, symbol, amount)
			  VALUES ($1, $2, 0)
			  ON CONFLICT (user_id, symbol) DO NOTHING`

	if _, err := l.tx.Exec(ctx, query, userID, symbol); err != nil {
		return fmt.Errorf("error ensuring asset %s for user %s: %w", symbol, userID, err)
	}
	return nil
}

// AssetForUpdate reads the user's holding and locks the row. A missing row
// reads as zero.
func (l *ledger) AssetForUpdate(ctx context.Context, userID uuid.UUID, symbol string) (decimal.Decimal, error) {
	var amountStr string
	query := `SELECT amount::text FROM assets WHERE user_id = $1 AND symbol = $2 FOR UPDATE`

	err := l.tx.QueryRow(ctx, query, userID, symbol).Scan(&amountStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("error locking asset %s for user %s: %w", symbol, userID, err)
	}
	return decimal.NewFromString(amountStr)
}

// AdjustAsset moves the holding by delta. The WHERE clause refuses any
// adjustment that would take the amount negative, so the row count doubles
// as the final balance guard.
func (l *ledger) AdjustAsset(ctx context.Context, userID uuid.UUID, symbol string, delta decimal.Decimal) error {
	query := `UPDATE assets
			  SET amount = amount + $1::numeric, updated_at = NOW()
			  WHERE user_id = $2 AND symbol = $3 AND amount + $1::numeric >= 0`

	cmdTag, err := l.tx.Exec(ctx, query, delta.String(), userID, symbol)
	if err != nil {
		return fmt.Errorf("error adjusting asset %s for user %s: %w", symbol, userID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("insufficient %s balance for user %s (delta %s)", symbol, userID, delta)
	}
	return nil
}

func (l *ledger) CreateNotification(ctx context.Context, userID uuid.UUID, message string) error {
	query := `INSERT INTO notifications (user_id, message) VALUES ($1, $2)`
	if _, err := l.tx.Exec(ctx, query, userID, message); err != nil {
		return fmt.Errorf("error creating notification for user %s: %w", userID, err)
	}
	return nil
}

func (l *ledger) CreateActivity(ctx context.Context, userID uuid.UUID, kind, description string) error {
	query := `INSERT INTO activities (user_id, kind, description) VALUES ($1, $2, $3)`
	if _, err := l.tx.Exec(ctx, query, userID, kind, description); err != nil {
		return fmt.Errorf("error creating activity for user %s: %w", userID, err)
	}
	return nil
}
