package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/user/cryptofolio/internal/models"
)

// fakeStore is an in-memory Store whose InTx applies writes to a copy of the
// state and only swaps the copy in when the closure succeeds, mirroring the
// commit/rollback behaviour of the real database.
type fakeStore struct {
	users         map[uuid.UUID]*models.User
	assets        map[string]decimal.Decimal // userID|symbol
	transactions  map[uuid.UUID]*models.Transaction
	notifications []models.Notification
	activities    []models.Activity
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[uuid.UUID]*models.User),
		assets:       make(map[string]decimal.Decimal),
		transactions: make(map[uuid.UUID]*models.Transaction),
	}
}

func assetKey(userID uuid.UUID, symbol string) string {
	return userID.String() + "|" + symbol
}

func (s *fakeStore) snapshot() *fakeStore {
	c := newFakeStore()
	for k, v := range s.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range s.assets {
		c.assets[k] = v
	}
	for k, v := range s.transactions {
		t := *v
		c.transactions[k] = &t
	}
	c.notifications = append(c.notifications, s.notifications...)
	c.activities = append(c.activities, s.activities...)
	return c
}

func (s *fakeStore) InTx(_ context.Context, fn func(Ledger) error) error {
	work := s.snapshot()
	if err := fn(&fakeLedger{state: work}); err != nil {
		return err
	}
	*s = *work
	return nil
}

func (s *fakeStore) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (s *fakeStore) AssetBalance(_ context.Context, userID uuid.UUID, symbol string) (decimal.Decimal, error) {
	return s.assets[assetKey(userID, symbol)], nil
}

type fakeLedger struct {
	state *fakeStore
}

func (l *fakeLedger) CreateTransaction(_ context.Context, t *models.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	copied := *t
	l.state.transactions[t.ID] = &copied
	return nil
}

func (l *fakeLedger) TransactionForUpdate(_ context.Context, id uuid.UUID) (*models.Transaction, error) {
	t, ok := l.state.transactions[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (l *fakeLedger) SetTransactionStatus(_ context.Context, id uuid.UUID, status, txHash string) error {
	t, ok := l.state.transactions[id]
	if !ok {
		return errors.New("missing transaction")
	}
	t.Status = status
	if txHash != "" {
		t.TxHash = txHash
	}
	t.UpdatedAt = time.Now()
	return nil
}

func (l *fakeLedger) EnsureAsset(_ context.Context, userID uuid.UUID, symbol string) error {
	k := assetKey(userID, symbol)
	if _, ok := l.state.assets[k]; !ok {
		l.state.assets[k] = decimal.Zero
	}
	return nil
}

func (l *fakeLedger) AssetForUpdate(_ context.Context, userID uuid.UUID, symbol string) (decimal.Decimal, error) {
	return l.state.assets[assetKey(userID, symbol)], nil
}

func (l *fakeLedger) AdjustAsset(_ context.Context, userID uuid.UUID, symbol string, delta decimal.Decimal) error {
	k := assetKey(userID, symbol)
	next := l.state.assets[k].Add(delta)
	if next.IsNegative() {
		return errors.New("asset amount would go negative")
	}
	l.state.assets[k] = next
	return nil
}

func (l *fakeLedger) CreateNotification(_ context.Context, userID uuid.UUID, message string) error {
	l.state.notifications = append(l.state.notifications, models.Notification{
		ID: uuid.New(), UserID: userID, Message: message, CreatedAt: time.Now(),
	})
	return nil
}

func (l *fakeLedger) CreateActivity(_ context.Context, userID uuid.UUID, kind, description string) error {
	l.state.activities = append(l.state.activities, models.Activity{
		ID: uuid.New(), UserID: userID, Kind: kind, Description: description, CreatedAt: time.Now(),
	})
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *fakeStore, uuid.UUID) {
	t.Helper()
	store := newFakeStore()
	userID := uuid.New()
	store.users[userID] = &models.User{
		ID:             userID,
		Email:          "user@example.com",
		Role:           models.RoleUser,
		DepositAddress: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
	}
	return New(store, zap.NewNop()), store, userID
}

func TestSubmitDepositRequiresAddress(t *testing.T) {
	engine, store, userID := newTestEngine(t)
	ctx := context.Background()

	noAddr := uuid.New()
	store.users[noAddr] = &models.User{ID: noAddr, Email: "bare@example.com"}

	_, err := engine.SubmitDeposit(ctx, noAddr, decimal.NewFromFloat(0.1), "BTC", "")
	if !errors.Is(err, ErrNoDepositAddress) {
		t.Fatalf("expected ErrNoDepositAddress, got %v", err)
	}

	tr, err := engine.SubmitDeposit(ctx, userID, decimal.NewFromFloat(0.1), "BTC", "abc123")
	if err != nil {
		t.Fatalf("SubmitDeposit failed: %v", err)
	}
	if tr.Status != models.StatusPending || tr.Type != models.TxDeposit {
		t.Errorf("unexpected transaction state: %s %s", tr.Type, tr.Status)
	}
	if tr.Address != store.users[userID].DepositAddress {
		t.Errorf("deposit should carry the user's assigned address, got %q", tr.Address)
	}
	// No balance change before approval.
	if bal := store.assets[assetKey(userID, "BTC")]; !bal.IsZero() {
		t.Errorf("balance should be untouched at submission, got %s", bal)
	}
}

func TestSubmitDepositValidation(t *testing.T) {
	engine, _, userID := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.SubmitDeposit(ctx, userID, decimal.Zero, "BTC", ""); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := engine.SubmitDeposit(ctx, userID, decimal.NewFromInt(1), "ETH", ""); !errors.Is(err, ErrUnsupportedAsset) {
		t.Errorf("ETH: expected ErrUnsupportedAsset, got %v", err)
	}
}

func TestSubmitWithdrawalAddressGate(t *testing.T) {
	engine, store, userID := newTestEngine(t)
	ctx := context.Background()
	store.assets[assetKey(userID, "BTC")] = decimal.NewFromFloat(1)

	_, err := engine.SubmitWithdrawal(ctx, userID, decimal.NewFromFloat(0.5), "BTC", "not-an-address")
	if !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
	// Rejected before any transaction row is created.
	if len(store.transactions) != 0 {
		t.Errorf("no transaction should exist after a rejected address, got %d", len(store.transactions))
	}
}

func TestSubmitWithdrawalInsufficientBalance(t *testing.T) {
	engine, store, userID := newTestEngine(t)
	ctx := context.Background()
	store.assets[assetKey(userID, "BTC")] = decimal.NewFromFloat(0.1)

	_, err := engine.SubmitWithdrawal(ctx, userID, decimal.NewFromFloat(0.5), "BTC",
		"bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestDecideDepositConservation(t *testing.T) {
	engine, store, userID := newTestEngine(t)
	ctx := context.Background()

	tr, err := engine.SubmitDeposit(ctx, userID, decimal.NewFromFloat(0.25), "BTC", "")
	if err != nil {
		t.Fatalf("SubmitDeposit failed: %v", err)
	}

	decided, err := engine.Decide(ctx, tr.ID, models.StatusCompleted, "deadbeef")
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if decided.Status != models.StatusCompleted || decided.TxHash != "deadbeef" {
		t.Errorf("unexpected decided transaction: %+v", decided)
	}
	if bal := store.assets[assetKey(userID, "BTC")]; !bal.Equal(decimal.NewFromFloat(0.25)) {
		t.Errorf("expected balance 0.25, got %s", bal)
	}
	if len(store.notifications) != 1 {
		t.Fatalf("expected one notification, got %d", len(store.notifications))
	}
}

func TestDecideWithdrawalConservation(t *testing.T) {
	engine, store, userID := newTestEngine(t)
	ctx := context.Background()
	store.assets[assetKey(userID, "BTC")] = decimal.NewFromFloat(0.5)

	tr, err := engine.SubmitWithdrawal(ctx, userID, decimal.NewFromFloat(0.2), "BTC",
		"bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq")
	if err != nil {
		t.Fatalf("SubmitWithdrawal failed: %v", err)
	}

	if _, err := engine.Decide(ctx, tr.ID, models.StatusCompleted, ""); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if bal := store.assets[assetKey(userID, "BTC")]; !bal.Equal(decimal.NewFromFloat(0.3)) {
		t.Errorf("expected balance 0.3, got %s", bal)
	}
	if len(store.notifications) != 1 {
		t.Fatalf("expected one notification, got %d", len(store.notifications))
	}
}

func TestDecideWithdrawalAtomicOnDriftedBalance(t *testing.T) {
	engine, store, userID := newTestEngine(t)
	ctx := context.Background()
	store.assets[assetKey(userID, "BTC")] = decimal.NewFromFloat(0.5)

	tr, err := engine.SubmitWithdrawal(ctx, userID, decimal.NewFromFloat(0.4), "BTC",
		"bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq")
	if err != nil {
		t.Fatalf("SubmitWithdrawal failed: %v", err)
	}

	// Balance drops between request and approval.
	store.assets[assetKey(userID, "BTC")] = decimal.NewFromFloat(0.3)

	_, err = engine.Decide(ctx, tr.ID, models.StatusCompleted, "")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// Neither the status nor the balance moved.
	if got := store.transactions[tr.ID].Status; got != models.StatusPending {
		t.Errorf("status should remain PENDING after a failed approval, got %s", got)
	}
	if bal := store.assets[assetKey(userID, "BTC")]; !bal.Equal(decimal.NewFromFloat(0.3)) {
		t.Errorf("balance should be unchanged after a failed approval, got %s", bal)
	}
	if len(store.notifications) != 0 {
		t.Errorf("no notification should exist after a failed approval, got %d", len(store.notifications))
	}
}

func TestDecideNoDoubleApply(t *testing.T) {
	engine, store, userID := newTestEngine(t)
	ctx := context.Background()

	tr, err := engine.SubmitDeposit(ctx, userID, decimal.NewFromInt(1), "BTC", "")
	if err != nil {
		t.Fatalf("SubmitDeposit failed: %v", err)
	}
	if _, err := engine.Decide(ctx, tr.ID, models.StatusCompleted, ""); err != nil {
		t.Fatalf("first Decide failed: %v", err)
	}

	_, err = engine.Decide(ctx, tr.ID, models.StatusCompleted, "")
	if !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending on second approval, got %v", err)
	}
	if bal := store.assets[assetKey(userID, "BTC")]; !bal.Equal(decimal.NewFromInt(1)) {
		t.Errorf("balance should be applied exactly once, got %s", bal)
	}
}

func TestDecideRejectLeavesBalanceUntouched(t *testing.T) {
	engine, store, userID := newTestEngine(t)
	ctx := context.Background()
	store.assets[assetKey(userID, "BTC")] = decimal.NewFromFloat(0.5)

	tr, err := engine.SubmitWithdrawal(ctx, userID, decimal.NewFromFloat(0.2), "BTC",
		"bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq")
	if err != nil {
		t.Fatalf("SubmitWithdrawal failed: %v", err)
	}

	decided, err := engine.Decide(ctx, tr.ID, models.StatusFailed, "")
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if decided.Status != models.StatusFailed {
		t.Errorf("expected FAILED, got %s", decided.Status)
	}
	if bal := store.assets[assetKey(userID, "BTC")]; !bal.Equal(decimal.NewFromFloat(0.5)) {
		t.Errorf("rejection must not move the balance, got %s", bal)
	}
	if len(store.notifications) != 0 {
		t.Errorf("rejection must not notify, got %d notifications", len(store.notifications))
	}
}

func TestDecideUnknownTransaction(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.Decide(context.Background(), uuid.New(), models.StatusCompleted, "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDecideInvalidTarget(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.Decide(context.Background(), uuid.New(), models.StatusPending, "")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestManualCredit(t *testing.T) {
	engine, store, userID := newTestEngine(t)
	ctx := context.Background()

	tr, err := engine.ManualCredit(ctx, userID, decimal.NewFromFloat(0.05), "monthly interest")
	if err != nil {
		t.Fatalf("ManualCredit failed: %v", err)
	}
	if tr.Status != models.StatusCompleted || tr.Type != models.TxTransfer {
		t.Errorf("unexpected transaction state: %s %s", tr.Type, tr.Status)
	}
	if bal := store.assets[assetKey(userID, "BTC")]; !bal.Equal(decimal.NewFromFloat(0.05)) {
		t.Errorf("expected balance 0.05, got %s", bal)
	}
	if len(store.activities) != 1 || store.activities[0].Kind != "profit" {
		t.Fatalf("expected one profit activity, got %+v", store.activities)
	}
	if len(store.notifications) != 1 {
		t.Fatalf("expected one notification, got %d", len(store.notifications))
	}
}

func TestManualCreditNegativeGuard(t *testing.T) {
	engine, store, userID := newTestEngine(t)
	ctx := context.Background()
	store.assets[assetKey(userID, "BTC")] = decimal.NewFromFloat(0.1)

	_, err := engine.ManualCredit(ctx, userID, decimal.NewFromFloat(-0.5), "clawback")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if bal := store.assets[assetKey(userID, "BTC")]; !bal.Equal(decimal.NewFromFloat(0.1)) {
		t.Errorf("balance should be unchanged, got %s", bal)
	}

	if _, err := engine.ManualCredit(ctx, userID, decimal.NewFromFloat(-0.1), "clawback"); err != nil {
		t.Fatalf("covered negative credit failed: %v", err)
	}
	if bal := store.assets[assetKey(userID, "BTC")]; !bal.IsZero() {
		t.Errorf("expected zero balance, got %s", bal)
	}
}
