package controllers

import (
	"log"

	"chessclass/config"
	"chessclass/middleware"
	"chessclass/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

type WebSocketController struct {
	hub *websocket.Hub
}

func NewWebSocketController(hub *websocket.Hub) *WebSocketController {
	return &WebSocketController{
		hub: hub,
	}
}

// RequireUpgrade rejects plain HTTP requests on the websocket route
func (wsc *WebSocketController) RequireUpgrade(c *fiber.Ctx) error {
	if fiberws.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{
		"error": "Use the WebSocket endpoint: ws://<host>/ws?token=YOUR_JWT",
	})
}

// authenticate resolves the admin behind a ?token= query value
func (wsc *WebSocketController) authenticate(token string) (string, bool) {
	if middleware.AuthDisabled() {
		return config.AppConfig.AdminUsername, true
	}
	if token == "" {
		return "", false
	}
	claims, err := middleware.ParseToken(token)
	if err != nil || claims.Username != config.AppConfig.AdminUsername {
		return "", false
	}
	return claims.Username, true
}

// WebSocketHandler returns a Fiber WebSocket handler that validates the JWT and joins the hub
func (wsc *WebSocketController) WebSocketHandler() fiber.Handler {
	return fiberws.New(func(c *fiberws.Conn) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("WebSocket handler panic: %v", r)
			}
		}()

		username, ok := wsc.authenticate(c.Query("token"))
		if !ok {
			log.Println("WebSocket connection rejected: missing or invalid token")
			c.WriteMessage(fiberws.CloseMessage, fiberws.FormatCloseMessage(fiberws.ClosePolicyViolation, "Invalid token"))
			c.Close()
			return
		}

		log.Printf("WebSocket connection established for %s", username)
		wsc.hub.ServeFiberWS(c, username)
	})
}

// GetWebSocketStats returns WebSocket connection statistics
func (wsc *WebSocketController) GetWebSocketStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"connected_clients": wsc.hub.GetClientCount(),
		"status":            "active",
	})
}
