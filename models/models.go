package models

import (
	"strings"
	"time"
)

// DateLayout is the on-disk format for every date cell in the workbook.
const DateLayout = "2006-01-02"

// Student is one row of the roster sheet. RUT is the join key for attendance and payments.
type Student struct {
	Name           string     `json:"name"`
	RUT            string     `json:"rut" validate:"required"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	Course         string     `json:"course"`
	School         string     `json:"school"`
	NationalElo    int        `json:"national_elo"`
	FideElo        int        `json:"fide_elo"`
	Section        string     `json:"section"`
	ClassPrice     int64      `json:"class_price"`
	MonthlyPrice   int64      `json:"monthly_price"`
	ClassesPerWeek int        `json:"classes_per_week" validate:"min=0,max=7"`
	Phone          string     `json:"phone"`
	Email          string     `json:"email" validate:"omitempty,email"`
	GuardianEmail  string     `json:"guardian_email" validate:"omitempty,email"`
	StartDate      *time.Time `json:"start_date,omitempty"`
}

// StudentUpdate carries the editable fields of a student. Nil fields are left untouched.
type StudentUpdate struct {
	Name           *string    `json:"name"`
	BirthDate      *time.Time `json:"birth_date"`
	Course         *string    `json:"course"`
	School         *string    `json:"school"`
	NationalElo    *int       `json:"national_elo"`
	FideElo        *int       `json:"fide_elo"`
	Section        *string    `json:"section"`
	ClassPrice     *int64     `json:"class_price"`
	MonthlyPrice   *int64     `json:"monthly_price"`
	ClassesPerWeek *int       `json:"classes_per_week"`
	Phone          *string    `json:"phone"`
	Email          *string    `json:"email"`
	GuardianEmail  *string    `json:"guardian_email"`
	StartDate      *time.Time `json:"start_date"`
}

// Apply copies every non-nil field onto s.
func (u StudentUpdate) Apply(s *Student) {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.BirthDate != nil {
		s.BirthDate = u.BirthDate
	}
	if u.Course != nil {
		s.Course = *u.Course
	}
	if u.School != nil {
		s.School = *u.School
	}
	if u.NationalElo != nil {
		s.NationalElo = *u.NationalElo
	}
	if u.FideElo != nil {
		s.FideElo = *u.FideElo
	}
	if u.Section != nil {
		s.Section = *u.Section
	}
	if u.ClassPrice != nil {
		s.ClassPrice = *u.ClassPrice
	}
	if u.MonthlyPrice != nil {
		s.MonthlyPrice = *u.MonthlyPrice
	}
	if u.ClassesPerWeek != nil {
		s.ClassesPerWeek = *u.ClassesPerWeek
	}
	if u.Phone != nil {
		s.Phone = *u.Phone
	}
	if u.Email != nil {
		s.Email = *u.Email
	}
	if u.GuardianEmail != nil {
		s.GuardianEmail = *u.GuardianEmail
	}
	if u.StartDate != nil {
		s.StartDate = u.StartDate
	}
}

// AllFilter is the sentinel that disables a roster filter.
const AllFilter = "All"

// StudentFilter narrows the roster by exact section and course.
type StudentFilter struct {
	Section string `json:"section" query:"section"`
	Course  string `json:"course" query:"course"`
}

// Match reports whether s passes the filter. Empty values and "All" match everything.
func (f StudentFilter) Match(s Student) bool {
	if f.Section != "" && f.Section != AllFilter && s.Section != f.Section {
		return false
	}
	if f.Course != "" && f.Course != AllFilter && s.Course != f.Course {
		return false
	}
	return true
}

// AttendanceStatus is the outcome recorded for a student on a class date.
type AttendanceStatus string

const (
	StatusPresent   AttendanceStatus = "Present"
	StatusAbsent    AttendanceStatus = "Absent"
	StatusWithdrawn AttendanceStatus = "Withdrawn"
)

// ParseAttendanceStatus accepts the three statuses case-insensitively.
func ParseAttendanceStatus(s string) (AttendanceStatus, bool) {
	for _, st := range []AttendanceStatus{StatusPresent, StatusAbsent, StatusWithdrawn} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

// AttendanceRecord is one row of an attendance sheet. Date comes from the sheet name.
type AttendanceRecord struct {
	RUT    string           `json:"rut"`
	Status AttendanceStatus `json:"status"`
	Note   string           `json:"note"`
	Date   time.Time        `json:"date"`
}

// AttendanceEntry is the history view of an attendance record joined with the roster.
type AttendanceEntry struct {
	Date   string           `json:"date"`
	Name   string           `json:"name"`
	RUT    string           `json:"rut"`
	Status AttendanceStatus `json:"status"`
	Note   string           `json:"note"`
}

// PaymentRecord is one row of a monthly payment sheet.
type PaymentRecord struct {
	RUT    string     `json:"rut"`
	Amount int64      `json:"amount"`
	PaidOn *time.Time `json:"paid_on,omitempty"`
}

// StudentStatement is the reconciliation of one student for one month.
type StudentStatement struct {
	Name           string `json:"name"`
	RUT            string `json:"rut"`
	Course         string `json:"course"`
	Section        string `json:"section"`
	Month          Month  `json:"month"`
	AttendedCount  int    `json:"attended_count"`
	PlanClasses    int    `json:"plan_classes"`
	ClassPrice     int64  `json:"class_price"`
	ExpectedCharge int64  `json:"expected_charge"`
	Paid           int64  `json:"paid"`
	Debt           int64  `json:"debt"`
}

// MonthlySummary aggregates statements across the filtered roster.
type MonthlySummary struct {
	Month     Month              `json:"month"`
	Rows      []StudentStatement `json:"rows"`
	TotalPaid int64              `json:"total_paid"`
	TotalDebt int64              `json:"total_debt"`
}
