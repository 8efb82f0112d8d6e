package database

import (
	"strings"
	"time"

	"chessclass/models"

	"github.com/pkg/errors"
)

// ErrStudentNotFound is returned when no roster row carries the requested RUT.
var ErrStudentNotFound = errors.New("student not found")

// Store persists the roster and the per-period attendance and payment records.
// Replace* methods overwrite everything previously stored for that period.
type Store interface {
	ListStudents() ([]models.Student, error)
	AddStudent(s models.Student) error
	UpdateStudent(rut string, s models.Student) error
	DeleteStudent(rut string) error

	ReplaceAttendance(date time.Time, records []models.AttendanceRecord) error
	ListAttendance() ([]models.AttendanceRecord, error)
	ListAttendanceInMonth(month models.Month) ([]models.AttendanceRecord, error)

	ReplacePayments(month models.Month, records []models.PaymentRecord) error
	ListPayments(month models.Month) ([]models.PaymentRecord, error)

	Close() error
}

const (
	RosterSheet           = "Students"
	AttendanceSheetPrefix = "Attendance_"
	PaymentSheetPrefix    = "Payments_"

	attendanceSheetLayout = "2006_01_02"
)

// RosterHeader is the fixed column order of the roster sheet.
var RosterHeader = []string{
	"Name", "RUT", "Birth Date", "Course", "School/Club",
	"National ELO", "FIDE ELO", "Section", "Class Price", "Monthly Price",
	"Classes Per Week", "Phone", "Email", "Guardian Email", "Start Date",
}

var (
	attendanceHeader = []string{"RUT", "Status", "Note"}
	paymentHeader    = []string{"RUT", "Amount Paid", "Payment Date"}
)

// NormalizeRUT is the form every store matches RUTs in.
func NormalizeRUT(rut string) string {
	return strings.TrimSpace(rut)
}

// AttendanceSheetName returns Attendance_YYYY_MM_DD for the given class date.
func AttendanceSheetName(date time.Time) string {
	return AttendanceSheetPrefix + date.Format(attendanceSheetLayout)
}

// ParseAttendanceSheetName extracts the class date from an attendance sheet name.
func ParseAttendanceSheetName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, AttendanceSheetPrefix) {
		return time.Time{}, false
	}
	t, err := time.Parse(attendanceSheetLayout, strings.TrimPrefix(name, AttendanceSheetPrefix))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// attendanceMonthPrefix is the sheet-name prefix shared by every class date of month.
func attendanceMonthPrefix(month models.Month) string {
	return AttendanceSheetPrefix + time.Date(month.Year, month.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006_01_")
}

// PaymentSheetName returns Payments_MM-YYYY.
func PaymentSheetName(month models.Month) string {
	return PaymentSheetPrefix + month.String()
}
