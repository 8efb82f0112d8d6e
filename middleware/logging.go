package middleware

import (
	"crypto/md5"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LoggerMiddleware logs HTTP requests
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		logrus.WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"duration":   duration.String(),
			"ip":         c.IP(),
			"user_agent": c.Get("User-Agent"),
		}).Info("HTTP Request")

		return err
	}
}

// ActivityEntry is one audited mutation.
type ActivityEntry struct {
	Username   string
	Action     string
	Resource   string
	ResourceID string
	IPAddress  string
	At         time.Time
}

// LogActivity writes an audit line for a mutation made by the current admin.
func LogActivity(c *fiber.Ctx, action, resource, resourceID string, details interface{}) {
	entry := ActivityEntry{
		Username:   CurrentUsername(c),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IPAddress:  c.IP(),
		At:         time.Now().UTC(),
	}

	logrus.WithFields(logrus.Fields{
		"audit":          true,
		"user":           entry.Username,
		"action":         entry.Action,
		"resource":       entry.Resource,
		"resource_id":    entry.ResourceID,
		"ip":             entry.IPAddress,
		"request_id":     c.Get("X-Request-ID", uuid.NewString()),
		"integrity_hash": integrityHash(entry),
		"details":        details,
	}).Info("Activity")
}

// integrityHash lets a reader detect an edited audit line.
func integrityHash(e ActivityEntry) string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s:%s", e.Username, e.Action, e.Resource, e.ResourceID, e.IPAddress, e.At.Format(time.RFC3339))
	return fmt.Sprintf("%x", md5.Sum([]byte(data)))
}

// LogActivityMiddleware audits every successful mutation under /api
func LogActivityMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet || strings.Contains(c.Path(), "/auth/") {
			return c.Next()
		}

		err := c.Next()

		var action string
		switch c.Method() {
		case fiber.MethodPost:
			action = "CREATE"
		case fiber.MethodPut, fiber.MethodPatch:
			action = "UPDATE"
		case fiber.MethodDelete:
			action = "DELETE"
		default:
			return err
		}

		// /api/<resource>/...
		pathParts := strings.Split(strings.Trim(c.Path(), "/"), "/")
		var resource string
		if len(pathParts) >= 2 {
			resource = pathParts[1]
		}

		if err == nil && c.Response().StatusCode() < fiber.StatusBadRequest {
			LogActivity(c, action, resource, c.Params("rut"), nil)
		}
		return err
	}
}
