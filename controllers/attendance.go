package controllers

import (
	"chessclass/services"

	"github.com/gofiber/fiber/v2"
)

type AttendanceController struct {
	attendance *services.AttendanceService
}

func NewAttendanceController(attendance *services.AttendanceService) *AttendanceController {
	return &AttendanceController{attendance: attendance}
}

// RecordAttendanceRequest is the body of POST /api/attendance
type RecordAttendanceRequest struct {
	Date    string                    `json:"date"`
	Entries []services.AttendanceMark `json:"entries"`
}

// RecordAttendance saves the marks for one class date, replacing that date's previous marks
func (ac *AttendanceController) RecordAttendance(c *fiber.Ctx) error {
	var req RecordAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	date, err := parseDay(req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date, expected YYYY-MM-DD",
		})
	}

	records, err := ac.attendance.Record(date, req.Entries)
	if err != nil {
		return respondError(c, err, "Failed to record attendance")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Attendance recorded successfully",
		"date":    req.Date,
		"records": records,
	})
}

// GetHistory returns every recorded class with the student's name
func (ac *AttendanceController) GetHistory(c *fiber.Ctx) error {
	history, err := ac.attendance.History()
	if err != nil {
		return respondError(c, err, "Failed to fetch attendance history")
	}

	resp := fiber.Map{"history": history, "total": len(history)}
	if len(history) == 0 {
		resp["message"] = "No attendance records yet"
	}
	return c.JSON(resp)
}
