// Package workflow mediates the lifecycle of deposits and withdrawals: user
// submission creates a PENDING transaction, an admin decision transitions it
// to COMPLETED or FAILED exactly once, and a COMPLETED decision applies the
// balance mutation in the same database transaction as the status change.
package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/user/cryptofolio/internal/bitcoin"
	"github.com/user/cryptofolio/internal/models"
)

// Store is the persistence surface the engine needs outside a transaction.
type Store interface {
	// InTx runs fn inside one database transaction. If fn returns an error
	// every write made through the Ledger is rolled back.
	InTx(ctx context.Context, fn func(Ledger) error) error
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	AssetBalance(ctx context.Context, userID uuid.UUID, symbol string) (decimal.Decimal, error)
}

// Ledger is the write surface available inside a transaction. Row reads
// through it lock the row for the remainder of the transaction.
type Ledger interface {
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	TransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	SetTransactionStatus(ctx context.Context, id uuid.UUID, status, txHash string) error
	EnsureAsset(ctx context.Context, userID uuid.UUID, symbol string) error
	AssetForUpdate(ctx context.Context, userID uuid.UUID, symbol string) (decimal.Decimal, error)
	AdjustAsset(ctx context.Context, userID uuid.UUID, symbol string, delta decimal.Decimal) error
	CreateNotification(ctx context.Context, userID uuid.UUID, message string) error
	CreateActivity(ctx context.Context, userID uuid.UUID, kind, description string) error
}

// Engine implements the transaction workflow.
type Engine struct {
	store Store
	log   *zap.Logger
}

func New(store Store, log *zap.Logger) *Engine {
	return &Engine{store: store, log: log}
}

// Only BTC is wired up end to end.
const supportedCrypto = "BTC"

func checkAmountAndType(amount decimal.Decimal, cryptoType string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if cryptoType != supportedCrypto {
		return ErrUnsupportedAsset
	}
	return nil
}

// SubmitDeposit creates a PENDING deposit request. The user must have an
// assigned deposit address; balances do not change until approval.
func (e *Engine) SubmitDeposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, cryptoType, txHash string) (*models.Transaction, error) {
	if err := checkAmountAndType(amount, cryptoType); err != nil {
		return nil, err
	}

	user, err := e.store.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if user.DepositAddress == "" {
		return nil, ErrNoDepositAddress
	}

	t := &models.Transaction{
		UserID:     userID,
		Type:       models.TxDeposit,
		Status:     models.StatusPending,
		CryptoType: cryptoType,
		Amount:     amount,
		Address:    user.DepositAddress,
		TxHash:     txHash,
	}
	err = e.store.InTx(ctx, func(l Ledger) error {
		return l.CreateTransaction(ctx, t)
	})
	if err != nil {
		return nil, fmt.Errorf("create deposit request: %w", err)
	}

	e.log.Info("deposit request submitted",
		zap.String("user_id", userID.String()),
		zap.String("tx_id", t.ID.String()),
		zap.String("amount", amount.String()))
	return t, nil
}

// SubmitWithdrawal creates a PENDING withdrawal request. The destination
// address is validated before any row is created, and the current balance is
// pre-checked. The pre-check is advisory: the authoritative check runs again
// at approval time.
func (e *Engine) SubmitWithdrawal(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, cryptoType, toAddress string) (*models.Transaction, error) {
	if err := checkAmountAndType(amount, cryptoType); err != nil {
		return nil, err
	}
	if !bitcoin.ValidAddress(toAddress) {
		return nil, ErrInvalidAddress
	}

	balance, err := e.store.AssetBalance(ctx, userID, cryptoType)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(amount) {
		return nil, ErrInsufficientBalance
	}

	t := &models.Transaction{
		UserID:     userID,
		Type:       models.TxWithdrawal,
		Status:     models.StatusPending,
		CryptoType: cryptoType,
		Amount:     amount,
		Address:    toAddress,
	}
	err = e.store.InTx(ctx, func(l Ledger) error {
		return l.CreateTransaction(ctx, t)
	})
	if err != nil {
		return nil, fmt.Errorf("create withdrawal request: %w", err)
	}

	e.log.Info("withdrawal request submitted",
		zap.String("user_id", userID.String()),
		zap.String("tx_id", t.ID.String()),
		zap.String("amount", amount.String()))
	return t, nil
}

// Decide transitions a PENDING transaction to COMPLETED or FAILED. The status
// change and any balance mutation commit or roll back together: a COMPLETED
// deposit credits the asset, a COMPLETED withdrawal re-checks the balance
// against a locked row and debits it, and a FAILED decision touches only the
// transaction row. The transaction row itself is locked first, so a
// concurrent second decision waits and then fails with ErrNotPending.
func (e *Engine) Decide(ctx context.Context, txID uuid.UUID, target, chainHash string) (*models.Transaction, error) {
	if target != models.StatusCompleted && target != models.StatusFailed {
		return nil, ErrInvalidStatus
	}

	var decided *models.Transaction
	err := e.store.InTx(ctx, func(l Ledger) error {
		t, err := l.TransactionForUpdate(ctx, txID)
		if err != nil {
			return err
		}
		if t == nil {
			return ErrNotFound
		}
		if t.Status != models.StatusPending {
			return ErrNotPending
		}

		if err := l.SetTransactionStatus(ctx, txID, target, chainHash); err != nil {
			return err
		}

		if target == models.StatusCompleted {
			switch t.Type {
			case models.TxDeposit:
				if err := l.EnsureAsset(ctx, t.UserID, t.CryptoType); err != nil {
					return err
				}
				if err := l.AdjustAsset(ctx, t.UserID, t.CryptoType, t.Amount); err != nil {
					return err
				}
				msg := fmt.Sprintf("Your deposit of %s %s has been credited.", t.Amount.String(), t.CryptoType)
				if err := l.CreateNotification(ctx, t.UserID, msg); err != nil {
					return err
				}
			case models.TxWithdrawal:
				balance, err := l.AssetForUpdate(ctx, t.UserID, t.CryptoType)
				if err != nil {
					return err
				}
				if balance.LessThan(t.Amount) {
					return ErrInsufficientBalance
				}
				if err := l.AdjustAsset(ctx, t.UserID, t.CryptoType, t.Amount.Neg()); err != nil {
					return err
				}
				msg := fmt.Sprintf("Your withdrawal of %s %s has been approved.", t.Amount.String(), t.CryptoType)
				if err := l.CreateNotification(ctx, t.UserID, msg); err != nil {
					return err
				}
			default:
				return fmt.Errorf("transaction %s has undecidable type %s", t.ID, t.Type)
			}
		}

		t.Status = target
		if chainHash != "" {
			t.TxHash = chainHash
		}
		decided = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("transaction decided",
		zap.String("tx_id", txID.String()),
		zap.String("status", target))
	return decided, nil
}

// ManualCredit grants (or revokes, when amount is negative) an out-of-band
// profit amount. The transaction is created already COMPLETED, with a
// notification and a profit activity record in the same database transaction.
func (e *Engine) ManualCredit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, note string) (*models.Transaction, error) {
	if amount.IsZero() {
		return nil, ErrInvalidAmount
	}

	user, err := e.store.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	t := &models.Transaction{
		UserID:     userID,
		Type:       models.TxTransfer,
		Status:     models.StatusCompleted,
		CryptoType: supportedCrypto,
		Amount:     amount,
	}
	err = e.store.InTx(ctx, func(l Ledger) error {
		if err := l.EnsureAsset(ctx, userID, supportedCrypto); err != nil {
			return err
		}
		if amount.IsNegative() {
			balance, err := l.AssetForUpdate(ctx, userID, supportedCrypto)
			if err != nil {
				return err
			}
			if balance.LessThan(amount.Neg()) {
				return ErrInsufficientBalance
			}
		}
		if err := l.AdjustAsset(ctx, userID, supportedCrypto, amount); err != nil {
			return err
		}
		if err := l.CreateTransaction(ctx, t); err != nil {
			return err
		}
		msg := fmt.Sprintf("A credit of %s %s has been applied to your account.", amount.String(), supportedCrypto)
		if err := l.CreateNotification(ctx, userID, msg); err != nil {
			return err
		}
		desc := fmt.Sprintf("manual credit of %s %s", amount.String(), supportedCrypto)
		if note != "" {
			desc += ": " + note
		}
		return l.CreateActivity(ctx, userID, "profit", desc)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("manual credit applied",
		zap.String("user_id", userID.String()),
		zap.String("amount", amount.String()))
	return t, nil
}
