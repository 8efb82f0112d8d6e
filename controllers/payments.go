package controllers

import (
	"time"

	"chessclass/services"

	"github.com/gofiber/fiber/v2"
)

type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

// RecordPaymentsRequest is the body of POST /api/payments
type RecordPaymentsRequest struct {
	Month   string                  `json:"month"`
	PaidOn  string                  `json:"paid_on"`
	Entries []services.PaymentEntry `json:"entries"`
}

// RecordPayments saves a month's payments, replacing what was saved for that month
func (pc *PaymentController) RecordPayments(c *fiber.Ctx) error {
	var req RecordPaymentsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	month, err := monthParam(req.Month)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var paidOn *time.Time
	if req.PaidOn != "" {
		d, err := parseDay(req.PaidOn)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid paid_on, expected YYYY-MM-DD",
			})
		}
		paidOn = &d
	}

	records, err := pc.payments.Record(month, paidOn, req.Entries)
	if err != nil {
		return respondError(c, err, "Failed to record payments")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Payments recorded successfully",
		"month":    month,
		"payments": records,
	})
}

// GetPayments lists the payments saved for a month
func (pc *PaymentController) GetPayments(c *fiber.Ctx) error {
	month, err := monthParam(c.Params("month"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	records, err := pc.payments.ForMonth(month)
	if err != nil {
		return respondError(c, err, "Failed to fetch payments")
	}
	return c.JSON(fiber.Map{"month": month, "payments": records, "total": len(records)})
}
