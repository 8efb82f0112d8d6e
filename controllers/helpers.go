package controllers

import (
	"time"

	"chessclass/models"
	"chessclass/services"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// respondError maps service errors to HTTP statuses.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case services.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrStudentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	case errors.Is(err, services.ErrDuplicateRUT):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	logrus.WithError(err).WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Error(fallback)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   fallback,
		"details": err.Error(),
	})
}

// monthParam reads a month from the named route param or query key; empty means the current month.
func monthParam(raw string) (models.Month, error) {
	if raw == "" {
		return models.CurrentMonth(), nil
	}
	return models.ParseMonth(raw)
}

func filterQuery(c *fiber.Ctx) models.StudentFilter {
	return models.StudentFilter{
		Section: c.Query("section"),
		Course:  c.Query("course"),
	}
}

func parseDay(raw string) (time.Time, error) {
	return time.Parse(models.DateLayout, raw)
}

// optionalDay parses YYYY-MM-DD; blank means no date.
func optionalDay(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := parseDay(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func wantsPDF(c *fiber.Ctx) bool {
	return c.Query("format") == "pdf"
}
