package controllers

import (
	"strings"
	"time"

	"chessclass/config"
	"chessclass/middleware"
	"chessclass/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AuthController struct{}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks the admin credentials and returns a JWT token
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	username := utils.SanitizeString(req.Username)
	if username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Username is required",
		})
	}

	if !middleware.AuthDisabled() {
		if username != config.AppConfig.AdminUsername ||
			utils.CheckPassword(req.Password, config.AppConfig.AdminPasswordHash) != nil {
			logrus.WithFields(logrus.Fields{"username": username, "ip": c.IP()}).Warn("Failed login attempt")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid credentials",
			})
		}
	} else if username != config.AppConfig.AdminUsername {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	token, err := middleware.GenerateToken(username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	middleware.LogActivity(c, "LOGIN", "auth", username, nil)

	return c.JSON(fiber.Map{
		"message":    "Login successful",
		"token":      token,
		"expires_in": int(config.AppConfig.JWTExpiresIn.Seconds()),
		"username":   username,
	})
}

// Logout blacklists the current JWT in Redis until it expires
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if authHeader == "" || tokenString == authHeader {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing or invalid authorization header"})
	}

	ttl := config.AppConfig.JWTExpiresIn
	if claims, err := middleware.GetCurrentClaims(c); err == nil && claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl > 0 {
		if err := middleware.Revoke(c.UserContext(), tokenString, ttl); err != nil {
			// don't block logout
			middleware.LogActivity(c, "LOGOUT", "auth", "", fiber.Map{"error": err.Error()})
		}
	}

	middleware.LogActivity(c, "LOGOUT", "auth", middleware.CurrentUsername(c), nil)
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// GetProfile returns the authenticated admin
func (ac *AuthController) GetProfile(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"username":      claims.Username,
		"role":          claims.Role,
		"auth_disabled": middleware.AuthDisabled(),
	})
}
