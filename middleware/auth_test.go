package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"chessclass/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig = cfg
	t.Cleanup(func() { config.AppConfig = prev })
}

func protectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/secret", JWTMiddleware(), func(c *fiber.Ctx) error {
		return c.SendString(CurrentUsername(c))
	})
	return app
}

func TestJWTMiddleware(t *testing.T) {
	withConfig(t, &config.Config{
		JWTSecret:         "0123456789abcdef",
		JWTExpiresIn:      time.Hour,
		AdminUsername:     "admin",
		AdminPasswordHash: "$2a$10$hash",
		AppEnv:            "production",
	})
	app := protectedApp()

	token, err := GenerateToken("admin")
	require.NoError(t, err)
	stranger, err := GenerateToken("mallory")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"no bearer prefix", token, fiber.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", fiber.StatusUnauthorized},
		{"unknown user", "Bearer " + stranger, fiber.StatusUnauthorized},
		{"valid", "Bearer " + token, fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/secret", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestJWTMiddlewareOpenInDevelopmentWithoutPassword(t *testing.T) {
	withConfig(t, &config.Config{AdminUsername: "admin", AppEnv: "development"})
	assert.True(t, AuthDisabled())

	resp, err := protectedApp().Test(httptest.NewRequest("GET", "/secret", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	withConfig(t, &config.Config{JWTSecret: "0123456789abcdef", JWTExpiresIn: -time.Minute, AdminUsername: "admin"})
	token, err := GenerateToken("admin")
	require.NoError(t, err)
	_, err = ParseToken(token)
	assert.Error(t, err)
}
