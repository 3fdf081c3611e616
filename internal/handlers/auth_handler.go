package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/user/cryptofolio/internal/auth"
	"github.com/user/cryptofolio/internal/config"
	"github.com/user/cryptofolio/internal/database"
)

// SignupRequest defines the expected JSON body for registration.
type SignupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest defines the expected JSON body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles user registration.
func Signup(c *fiber.Ctx) error {
	req := new(SignupRequest)
	if err := c.BodyParser(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "cannot parse request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return fail(c, fiber.StatusBadRequest, "a valid email is required")
	}
	if len(req.Password) < 8 {
		return fail(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	existing, err := database.GetUserByEmail(c.Context(), req.Email)
	if err != nil {
		log.Error("failed to check email", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "database error")
	}
	if existing != nil {
		return fail(c, fiber.StatusConflict, "email already registered")
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "failed to process password")
	}

	user, err := database.CreateUser(c.Context(), req.Email, req.Name, hashed)
	if err != nil {
		log.Error("failed to create user", zap.String("email", req.Email), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "failed to create user")
	}

	token, err := auth.GenerateJWT([]byte(config.App.JWT.Secret), user.ID, user.Email, user.Role)
	if err != nil {
		log.Error("failed to generate token", zap.String("email", req.Email), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "user created, but failed to generate token")
	}

	return ok(c, fiber.StatusCreated, fiber.Map{"token": token, "user": user})
}

// Login handles user authentication.
func Login(c *fiber.Ctx) error {
	req := new(LoginRequest)
	if err := c.BodyParser(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "cannot parse request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, fiber.StatusBadRequest, "email and password are required")
	}

	user, err := database.GetUserByEmail(c.Context(), req.Email)
	if err != nil {
		log.Error("failed to look up user", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "database error")
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.Password) {
		return fail(c, fiber.StatusUnauthorized, "invalid email or password")
	}

	token, err := auth.GenerateJWT([]byte(config.App.JWT.Secret), user.ID, user.Email, user.Role)
	if err != nil {
		log.Error("failed to generate token", zap.String("email", req.Email), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "failed to generate token")
	}

	return ok(c, fiber.StatusOK, fiber.Map{"token": token, "user": user})
}

// Me returns the authenticated user's profile.
func Me(c *fiber.Ctx) error {
	userID, okID := currentUserID(c)
	if !okID {
		return fail(c, fiber.StatusUnauthorized, "invalid user ID in token")
	}

	user, err := database.GetUserByID(c.Context(), userID)
	if err != nil {
		log.Error("failed to fetch user", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "database error")
	}
	if user == nil {
		return fail(c, fiber.StatusNotFound, "user not found")
	}

	return ok(c, fiber.StatusOK, fiber.Map{"user": user})
}
