package middleware

import (
	"context"
	"strings"
	"time"

	"chessclass/config"
	"chessclass/database"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

const adminRole = "admin"

// GenerateToken creates a new JWT token for the admin
func GenerateToken(username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		Role:     adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(config.AppConfig.JWTExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ParseToken validates a token string and returns its claims
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	return claims, nil
}

// AuthDisabled reports whether requests pass without a token. Only a development setup
// without an admin password hash runs open.
func AuthDisabled() bool {
	return config.AppConfig.AdminPasswordHash == "" && config.AppConfig.AppEnv != "production"
}

// JWTMiddleware validates JWT tokens
func JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if AuthDisabled() {
			c.Locals("claims", &Claims{Username: config.AppConfig.AdminUsername, Role: adminRole})
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		// "Bearer <token>"
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims, err := ParseToken(tokenString)
		if err != nil || IsRevoked(c.UserContext(), tokenString) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}
		if claims.Username != config.AppConfig.AdminUsername {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unknown user",
			})
		}

		c.Locals("claims", claims)
		return c.Next()
	}
}

const revokedPrefix = "blacklist:jwt:"

// Revoke blacklists a token in Redis until it would have expired anyway. Without Redis
// tokens simply live until expiry.
func Revoke(ctx context.Context, tokenString string, ttl time.Duration) error {
	rc := database.GetRedisClient()
	if rc == nil {
		return nil
	}
	return rc.Set(ctx, revokedPrefix+tokenString, "1", ttl).Err()
}

// IsRevoked reports whether a token was blacklisted by logout.
func IsRevoked(ctx context.Context, tokenString string) bool {
	rc := database.GetRedisClient()
	if rc == nil {
		return false
	}
	n, err := rc.Exists(ctx, revokedPrefix+tokenString).Result()
	return err == nil && n > 0
}

// GetCurrentClaims returns the current JWT claims
func GetCurrentClaims(c *fiber.Ctx) (*Claims, error) {
	claims, ok := c.Locals("claims").(*Claims)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Claims not found in context")
	}
	return claims, nil
}

// CurrentUsername returns the authenticated admin, or "anonymous".
func CurrentUsername(c *fiber.Ctx) string {
	if claims, err := GetCurrentClaims(c); err == nil && claims.Username != "" {
		return claims.Username
	}
	return "anonymous"
}
