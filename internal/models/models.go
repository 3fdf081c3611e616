package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User roles.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Transaction types.
const (
	TxDeposit    = "DEPOSIT"
	TxWithdrawal = "WITHDRAWAL"
	TxTransfer   = "TRANSFER"
)

// Transaction statuses. PENDING is the only non-terminal state.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// User represents a platform account.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Password       string    `json:"-"` // bcrypt hash, never serialized
	Role           string    `json:"role"`
	DepositAddress string    `json:"deposit_address,omitempty"`
	DepositQR      string    `json:"deposit_qr,omitempty"` // PNG data URI
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Asset is a user's holding of one cryptocurrency symbol.
type Asset struct {
	UserID    uuid.UUID       `json:"user_id"`
	Symbol    string          `json:"symbol"` // e.g. "BTC"
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Transaction is a deposit or withdrawal request and its approval lifecycle.
type Transaction struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Type       string          `json:"type"`   // DEPOSIT | WITHDRAWAL | TRANSFER
	Status     string          `json:"status"` // PENDING | COMPLETED | FAILED
	CryptoType string          `json:"crypto_type"`
	Amount     decimal.Decimal `json:"amount"`
	Address    string          `json:"address,omitempty"` // deposit target or withdrawal destination
	TxHash     string          `json:"tx_hash,omitempty"` // on-chain hash, set by the admin
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Notification is an append-only user-visible message describing a
// balance-affecting event.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity is an audit record for out-of-band events such as manual credits.
type Activity struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Kind        string    `json:"kind"` // e.g. "profit"
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
