package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/user/cryptofolio/internal/models"
)

const transactionColumns = `id, user_id, type, status, crypto_type, amount::text, address, tx_hash, created_at, updated_at`

func scanTransactions(rows pgx.Rows) ([]*models.Transaction, error) {
	transactions := make([]*models.Transaction, 0)
	for rows.Next() {
		t := &models.Transaction{}
		var amountStr string
		err := rows.Scan(
			&t.ID, &t.UserID, &t.Type, &t.Status, &t.CryptoType, &amountStr,
			&t.Address, &t.TxHash, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning transaction row: %w", err)
		}
		t.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("error parsing transaction amount %q: %w", amountStr, err)
		}
		transactions = append(transactions, t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", rows.Err())
	}
	return transactions, nil
}

// GetUserTransactions retrieves a user's transactions, newest first.
func GetUserTransactions(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
			  WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := DB.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions for user %s: %w", userID, err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListTransactionsByStatus retrieves all transactions in a given status,
// oldest first so the review queue is first-come first-served.
func ListTransactionsByStatus(ctx context.Context, status string) ([]*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
			  WHERE status = $1 ORDER BY created_at ASC`

	rows, err := DB.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("error querying %s transactions: %w", status, err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListTransactions retrieves every transaction, newest first.
func ListTransactions(ctx context.Context) ([]*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY created_at DESC`

	rows, err := DB.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}
