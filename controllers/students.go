package controllers

import (
	"chessclass/models"
	"chessclass/services"

	"github.com/gofiber/fiber/v2"
)

// studentRequest accepts dates as YYYY-MM-DD.
type studentRequest struct {
	models.Student
	BirthDate string `json:"birth_date"`
	StartDate string `json:"start_date"`
}

func (r studentRequest) toStudent() (models.Student, error) {
	s := r.Student
	var err error
	if s.BirthDate, err = optionalDay(r.BirthDate); err != nil {
		return s, err
	}
	if s.StartDate, err = optionalDay(r.StartDate); err != nil {
		return s, err
	}
	return s, nil
}

type studentUpdateRequest struct {
	models.StudentUpdate
	BirthDate *string `json:"birth_date"`
	StartDate *string `json:"start_date"`
}

func (r studentUpdateRequest) toUpdate() (models.StudentUpdate, error) {
	u := r.StudentUpdate
	var err error
	if r.BirthDate != nil {
		if u.BirthDate, err = optionalDay(*r.BirthDate); err != nil {
			return u, err
		}
	}
	if r.StartDate != nil {
		if u.StartDate, err = optionalDay(*r.StartDate); err != nil {
			return u, err
		}
	}
	return u, nil
}

type StudentController struct {
	roster *services.RosterService
}

func NewStudentController(roster *services.RosterService) *StudentController {
	return &StudentController{roster: roster}
}

// GetStudents returns the roster, optionally narrowed by section and course
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
	filter := filterQuery(c)
	students, err := sc.roster.List(filter)
	if err != nil {
		return respondError(c, err, "Failed to fetch students")
	}

	return c.JSON(fiber.Map{
		"students": students,
		"total":    len(students),
		"filter":   filter,
	})
}

// GetStudent returns a specific student by RUT
func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	student, err := sc.roster.Get(c.Params("rut"))
	if err != nil {
		return respondError(c, err, "Failed to fetch student")
	}
	return c.JSON(fiber.Map{"student": student})
}

// CreateStudent registers a new student
func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	var req studentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	s, err := req.toStudent()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date, expected YYYY-MM-DD",
		})
	}

	student, err := sc.roster.Create(s)
	if err != nil {
		return respondError(c, err, "Failed to create student")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Student registered successfully",
		"student": student,
	})
}

// UpdateStudent edits the fields present in the body
func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	var req studentUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	u, err := req.toUpdate()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date, expected YYYY-MM-DD",
		})
	}

	student, err := sc.roster.Update(c.Params("rut"), u)
	if err != nil {
		return respondError(c, err, "Failed to update student")
	}

	return c.JSON(fiber.Map{
		"message": "Student updated successfully",
		"student": student,
	})
}

// DeleteStudent removes a student from the roster
func (sc *StudentController) DeleteStudent(c *fiber.Ctx) error {
	if err := sc.roster.Delete(c.Params("rut")); err != nil {
		return respondError(c, err, "Failed to delete student")
	}
	return c.JSON(fiber.Map{"message": "Student deleted successfully"})
}

// GetFilters returns the section and course choices present in the roster
func (sc *StudentController) GetFilters(c *fiber.Ctx) error {
	opts, err := sc.roster.Filters()
	if err != nil {
		return respondError(c, err, "Failed to fetch filters")
	}
	return c.JSON(opts)
}
