package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/user/cryptofolio/internal/database"
)

// DepositRequest defines the expected JSON body for a deposit submission.
type DepositRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	CryptoType string          `json:"crypto_type"`
	TxHash     string          `json:"tx_hash"`
}

// WithdrawRequest defines the expected JSON body for a withdrawal submission.
type WithdrawRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	CryptoType string          `json:"crypto_type"`
	Address    string          `json:"address"`
}

// SubmitDeposit creates a pending deposit request for admin review.
func SubmitDeposit(c *fiber.Ctx) error {
	userID, okID := currentUserID(c)
	if !okID {
		return fail(c, fiber.StatusUnauthorized, "invalid user ID in token")
	}

	req := new(DepositRequest)
	if err := c.BodyParser(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "cannot parse request body")
	}

	t, err := engine.SubmitDeposit(c.Context(), userID, req.Amount, req.CryptoType, req.TxHash)
	if err != nil {
		return failWorkflow(c, err)
	}
	return ok(c, fiber.StatusCreated, fiber.Map{"transaction": t})
}

// SubmitWithdrawal creates a pending withdrawal request for admin review.
func SubmitWithdrawal(c *fiber.Ctx) error {
	userID, okID := currentUserID(c)
	if !okID {
		return fail(c, fiber.StatusUnauthorized, "invalid user ID in token")
	}

	req := new(WithdrawRequest)
	if err := c.BodyParser(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "cannot parse request body")
	}

	t, err := engine.SubmitWithdrawal(c.Context(), userID, req.Amount, req.CryptoType, req.Address)
	if err != nil {
		return failWorkflow(c, err)
	}
	return ok(c, fiber.StatusCreated, fiber.Map{"transaction": t})
}

// GetTransactions lists the authenticated user's transactions.
func GetTransactions(c *fiber.Ctx) error {
	userID, okID := currentUserID(c)
	if !okID {
		return fail(c, fiber.StatusUnauthorized, "invalid user ID in token")
	}

	transactions, err := database.GetUserTransactions(c.Context(), userID)
	if err != nil {
		log.Error("failed to fetch transactions", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "failed to retrieve transactions")
	}
	return ok(c, fiber.StatusOK, fiber.Map{"transactions": transactions})
}

// GetNotifications lists the authenticated user's notifications.
func GetNotifications(c *fiber.Ctx) error {
	userID, okID := currentUserID(c)
	if !okID {
		return fail(c, fiber.StatusUnauthorized, "invalid user ID in token")
	}

	notifications, err := database.GetUserNotifications(c.Context(), userID)
	if err != nil {
		log.Error("failed to fetch notifications", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "failed to retrieve notifications")
	}
	return ok(c, fiber.StatusOK, fiber.Map{"notifications": notifications})
}

// MarkNotificationRead flags one of the user's notifications as read.
func MarkNotificationRead(c *fiber.Ctx) error {
	userID, okID := currentUserID(c)
	if !okID {
		return fail(c, fiber.StatusUnauthorized, "invalid user ID in token")
	}

	notificationID, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid notification id")
	}

	found, err := database.MarkNotificationRead(c.Context(), userID, notificationID)
	if err != nil {
		log.Error("failed to mark notification read", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "failed to update notification")
	}
	if !found {
		return fail(c, fiber.StatusNotFound, "notification not found")
	}
	return ok(c, fiber.StatusOK, fiber.Map{})
}
