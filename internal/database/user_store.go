package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/user/cryptofolio/internal/models"
)

const userColumns = `id, email, name, password_hash, role, deposit_address, deposit_qr, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.Password, &user.Role,
		&user.DepositAddress, &user.DepositQR, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new user. The password must already be hashed.
func CreateUser(ctx context.Context, email, name, passwordHash string) (*models.User, error) {
	user := &models.User{
		Email:    email,
		Name:     name,
		Password: passwordHash,
		Role:     models.RoleUser,
	}

	query := `INSERT INTO users (email, name, password_hash) VALUES ($1, $2, $3)
			  RETURNING id, role, created_at, updated_at`

	err := DB.QueryRow(ctx, query, email, name, passwordHash).
		Scan(&user.ID, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error creating user %s: %w", email, err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email. Returns nil, nil when not found.
func GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(DB.QueryRow(ctx, query, email))
}

// GetUserByID retrieves a user by ID. Returns nil, nil when not found.
func GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(DB.QueryRow(ctx, query, userID))
}

// ListUsers returns all users, newest first.
func ListUsers(ctx context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0)
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := DB.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, user)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", rows.Err())
	}
	return users, nil
}

// UpdateUserRole changes a user's role. Reports whether the user existed.
func UpdateUserRole(ctx context.Context, userID uuid.UUID, role string) (bool, error) {
	query := `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`
	cmdTag, err := DB.Exec(ctx, query, role, userID)
	if err != nil {
		return false, fmt.Errorf("error updating role for user %s: %w", userID, err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

// SetDepositAddress assigns a deposit address and its QR representation.
// Reports whether the user existed.
func SetDepositAddress(ctx context.Context, userID uuid.UUID, address, qr string) (bool, error) {
	query := `UPDATE users SET deposit_address = $1, deposit_qr = $2, updated_at = NOW() WHERE id = $3`
	cmdTag, err := DB.Exec(ctx, query, address, qr, userID)
	if err != nil {
		return false, fmt.Errorf("error setting deposit address for user %s: %w", userID, err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

// DeleteUser removes a user; assets, transactions and notifications cascade.
// Reports whether the user existed.
func DeleteUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	cmdTag, err := DB.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("error deleting user %s: %w", userID, err)
	}
	return cmdTag.RowsAffected() == 1, nil
}
