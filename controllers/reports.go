package controllers

import (
	"chessclass/services"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	reconciler *services.Reconciler
	reports    *services.ReportService
	mailer     *services.StatementMailer
}

func NewReportController(reconciler *services.Reconciler, reports *services.ReportService, mailer *services.StatementMailer) *ReportController {
	return &ReportController{reconciler: reconciler, reports: reports, mailer: mailer}
}

// GetDelinquents lists the students who owe money for the month
func (rc *ReportController) GetDelinquents(c *fiber.Ctx) error {
	month, err := monthParam(c.Query("month"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	rows, err := rc.reconciler.Delinquents(filterQuery(c), month)
	if err != nil {
		return respondError(c, err, "Failed to compute delinquents")
	}
	return c.JSON(fiber.Map{"month": month, "delinquents": rows, "total": len(rows)})
}

// GetSummary returns the monthly summary, or the PDF with ?format=pdf
func (rc *ReportController) GetSummary(c *fiber.Ctx) error {
	month, err := monthParam(c.Query("month"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	summary, err := rc.reconciler.Summary(filterQuery(c), month)
	if err != nil {
		return respondError(c, err, "Failed to compute summary")
	}
	if !wantsPDF(c) {
		return c.JSON(summary)
	}

	report, err := rc.reports.MonthlySummary(summary)
	if err != nil {
		return respondError(c, err, "Failed to generate summary PDF")
	}
	if report.URL != "" {
		c.Set("X-Report-URL", report.URL)
	}
	return c.Download(report.Path, report.FileName)
}

// GetStatement returns one student's payment status, or the PDF with ?format=pdf
func (rc *ReportController) GetStatement(c *fiber.Ctx) error {
	month, err := monthParam(c.Query("month"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	statement, err := rc.reconciler.Statement(c.Params("rut"), month)
	if err != nil {
		return respondError(c, err, "Failed to compute statement")
	}
	if !wantsPDF(c) {
		return c.JSON(statement)
	}

	report, err := rc.reports.IndividualStatement(statement)
	if err != nil {
		return respondError(c, err, "Failed to generate statement PDF")
	}
	if report.URL != "" {
		c.Set("X-Report-URL", report.URL)
	}
	return c.Download(report.Path, report.FileName)
}

// EmailStatement mails the statement PDF to the student's guardian
func (rc *ReportController) EmailStatement(c *fiber.Ctx) error {
	month, err := monthParam(c.Query("month"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	to, report, err := rc.mailer.SendStatement(c.Params("rut"), month)
	if err != nil {
		return respondError(c, err, "Failed to email statement")
	}
	return c.JSON(fiber.Map{
		"message": "Statement sent",
		"to":      to,
		"report":  report,
	})
}
