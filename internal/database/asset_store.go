package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/user/cryptofolio/internal/models"
)

// GetUserAssets retrieves all holdings for a user, ordered by symbol.
func GetUserAssets(ctx context.Context, userID uuid.UUID) ([]*models.Asset, error) {
	assets := make([]*models.Asset, 0)
	query := `SELECT user_id, symbol, amount::text, updated_at
			  FROM assets WHERE user_id = $1 ORDER BY symbol`

	rows, err := DB.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying assets for user %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		asset := &models.Asset{}
		var amountStr string
		if err := rows.Scan(&asset.UserID, &asset.Symbol, &amountStr, &asset.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning asset row for user %s: %w", userID, err)
		}
		asset.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("error parsing asset amount %q: %w", amountStr, err)
		}
		assets = append(assets, asset)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating asset rows for user %s: %w", userID, rows.Err())
	}
	return assets, nil
}
