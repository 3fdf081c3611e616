// Package handlers holds the fiber HTTP handlers. Responses use a uniform
// envelope: {"success": true, ...} on success and
// {"success": false, "message": ...} on failure.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/cryptofolio/internal/pricefeed"
	"github.com/user/cryptofolio/internal/workflow"
)

var (
	engine *workflow.Engine
	prices *pricefeed.Client
	log    *zap.Logger
)

// Init wires the handlers' dependencies. Called once at startup.
func Init(e *workflow.Engine, p *pricefeed.Client, l *zap.Logger) {
	engine = e
	prices = p
	log = l
}

func ok(c *fiber.Ctx, status int, data fiber.Map) error {
	body := fiber.Map{"success": true}
	for k, v := range data {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}

// currentUserID pulls the authenticated user's ID out of the request context.
func currentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, ok := c.Locals("userID").(uuid.UUID)
	return userID, ok
}

func parseIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

// failWorkflow maps workflow sentinel errors onto status codes per the error
// taxonomy: validation 400, not found 404, state conflict 409, the rest 500.
func failWorkflow(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, workflow.ErrInvalidAmount),
		errors.Is(err, workflow.ErrUnsupportedAsset),
		errors.Is(err, workflow.ErrInvalidAddress),
		errors.Is(err, workflow.ErrNoDepositAddress),
		errors.Is(err, workflow.ErrInvalidStatus):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, workflow.ErrNotFound):
		return fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, workflow.ErrNotPending),
		errors.Is(err, workflow.ErrInsufficientBalance):
		return fail(c, fiber.StatusConflict, err.Error())
	default:
		log.Error("workflow operation failed", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "internal error")
	}
}
