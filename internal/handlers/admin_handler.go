package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/user/cryptofolio/internal/bitcoin"
	"github.com/user/cryptofolio/internal/database"
	"github.com/user/cryptofolio/internal/models"
	"github.com/user/cryptofolio/internal/qr"
)

// DecideRequest defines the admin's approve/reject body.
type DecideRequest struct {
	Status string `json:"status"`  // COMPLETED or FAILED
	TxHash string `json:"tx_hash"` // optional on-chain hash
}

// CreditRequest defines the manual-credit body.
type CreditRequest struct {
	UserID uuid.UUID       `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

// RoleRequest defines the role-change body.
type RoleRequest struct {
	Role string `json:"role"`
}

// AddressRequest defines the deposit-address assignment body.
type AddressRequest struct {
	Address string `json:"address"`
}

// ListPendingTransactions lists the admin review queue. An optional status
// query parameter widens the listing.
func ListPendingTransactions(c *fiber.Ctx) error {
	status := strings.ToUpper(c.Query("status", models.StatusPending))

	var (
		transactions []*models.Transaction
		err          error
	)
	if status == "ALL" {
		transactions, err = database.ListTransactions(c.Context())
	} else {
		transactions, err = database.ListTransactionsByStatus(c.Context(), status)
	}
	if err != nil {
		log.Error("failed to list transactions", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "failed to retrieve transactions")
	}
	return ok(c, fiber.StatusOK, fiber.Map{"transactions": transactions})
}

// DecideTransaction approves or rejects a pending transaction.
func DecideTransaction(c *fiber.Ctx) error {
	txID, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid transaction id")
	}

	req := new(DecideRequest)
	if err := c.BodyParser(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "cannot parse request body")
	}

	t, err := engine.Decide(c.Context(), txID, strings.ToUpper(req.Status), req.TxHash)
	if err != nil {
		return failWorkflow(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"transaction": t})
}

// ManualCredit applies an out-of-band profit grant to a user.
func ManualCredit(c *fiber.Ctx) error {
	req := new(CreditRequest)
	if err := c.BodyParser(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "cannot parse request body")
	}
	if req.UserID == uuid.Nil {
		return fail(c, fiber.StatusBadRequest, "user_id is required")
	}

	t, err := engine.ManualCredit(c.Context(), req.UserID, req.Amount, req.Note)
	if err != nil {
		return failWorkflow(c, err)
	}
	return ok(c, fiber.StatusCreated, fiber.Map{"transaction": t})
}

// ListUsers lists all accounts for the admin console.
func ListUsers(c *fiber.Ctx) error {
	users, err := database.ListUsers(c.Context())
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "failed to retrieve users")
	}
	return ok(c, fiber.StatusOK, fiber.Map{"users": users})
}

// UpdateUserRole promotes or demotes an account.
func UpdateUserRole(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid user id")
	}

	req := new(RoleRequest)
	if err := c.BodyParser(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "cannot parse request body")
	}
	role := strings.ToUpper(req.Role)
	if role != models.RoleUser && role != models.RoleAdmin {
		return fail(c, fiber.StatusBadRequest, "role must be USER or ADMIN")
	}

	found, err := database.UpdateUserRole(c.Context(), userID, role)
	if err != nil {
		log.Error("failed to update role", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "failed to update role")
	}
	if !found {
		return fail(c, fiber.StatusNotFound, "user not found")
	}
	return ok(c, fiber.StatusOK, fiber.Map{})
}

// DeleteUser removes an account and its dependent rows.
func DeleteUser(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid user id")
	}

	if callerID, okID := currentUserID(c); okID && callerID == userID {
		return fail(c, fiber.StatusBadRequest, "cannot delete your own account")
	}

	found, err := database.DeleteUser(c.Context(), userID)
	if err != nil {
		log.Error("failed to delete user", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "failed to delete user")
	}
	if !found {
		return fail(c, fiber.StatusNotFound, "user not found")
	}
	return ok(c, fiber.StatusOK, fiber.Map{})
}

// AssignDepositAddress sets a user's BTC deposit address and generates its
// QR code.
func AssignDepositAddress(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid user id")
	}

	req := new(AddressRequest)
	if err := c.BodyParser(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "cannot parse request body")
	}
	if !bitcoin.ValidAddress(req.Address) {
		return fail(c, fiber.StatusBadRequest, "invalid bitcoin address")
	}

	qrURI, err := qr.DataURI(req.Address)
	if err != nil {
		log.Error("failed to generate qr code", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "failed to generate QR code")
	}

	found, err := database.SetDepositAddress(c.Context(), userID, req.Address, qrURI)
	if err != nil {
		log.Error("failed to set deposit address", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "failed to set deposit address")
	}
	if !found {
		return fail(c, fiber.StatusNotFound, "user not found")
	}
	return ok(c, fiber.StatusOK, fiber.Map{"deposit_address": req.Address, "deposit_qr": qrURI})
}

// ListUserActivities lists a user's activity records for the admin console.
func ListUserActivities(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid user id")
	}

	activities, err := database.GetUserActivities(c.Context(), userID)
	if err != nil {
		log.Error("failed to list activities", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "failed to retrieve activities")
	}
	return ok(c, fiber.StatusOK, fiber.Map{"activities": activities})
}
