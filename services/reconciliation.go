package services

import (
	"strings"

	"chessclass/database"
	"chessclass/models"
)

// WeeksPerMonth is the fixed number of weeks a monthly plan is billed for.
const WeeksPerMonth = 4

// PlanClasses is the number of classes the student's plan covers in a month.
func PlanClasses(s models.Student) int {
	return s.ClassesPerWeek * WeeksPerMonth
}

// ExpectedCharge is what the student owes for a month, independent of attendance.
func ExpectedCharge(s models.Student) int64 {
	return int64(PlanClasses(s)) * s.ClassPrice
}

// Paid sums the payments recorded for rut.
func Paid(rut string, payments []models.PaymentRecord) int64 {
	var total int64
	for _, p := range payments {
		if p.RUT == rut {
			total += p.Amount
		}
	}
	return total
}

// AttendedCount counts the Present records for rut.
func AttendedCount(rut string, attendance []models.AttendanceRecord) int {
	n := 0
	for _, a := range attendance {
		if a.RUT == rut && a.Status == models.StatusPresent {
			n++
		}
	}
	return n
}

// Debt is expected minus paid. Overpayment yields a negative debt.
func Debt(expected, paid int64) int64 {
	return expected - paid
}

// BuildStatement reconciles one student against the month's attendance and payments.
func BuildStatement(s models.Student, month models.Month, attendance []models.AttendanceRecord, payments []models.PaymentRecord) models.StudentStatement {
	expected := ExpectedCharge(s)
	paid := Paid(s.RUT, payments)
	return models.StudentStatement{
		Name:           s.Name,
		RUT:            s.RUT,
		Course:         s.Course,
		Section:        s.Section,
		Month:          month,
		AttendedCount:  AttendedCount(s.RUT, attendance),
		PlanClasses:    PlanClasses(s),
		ClassPrice:     s.ClassPrice,
		ExpectedCharge: expected,
		Paid:           paid,
		Debt:           Debt(expected, paid),
	}
}

// BuildSummary reconciles every student in roster order and totals paid and debt.
func BuildSummary(students []models.Student, month models.Month, attendance []models.AttendanceRecord, payments []models.PaymentRecord) models.MonthlySummary {
	present := map[string]int{}
	for _, a := range attendance {
		if a.Status == models.StatusPresent {
			present[a.RUT]++
		}
	}
	paid := map[string]int64{}
	for _, p := range payments {
		paid[p.RUT] += p.Amount
	}

	summary := models.MonthlySummary{Month: month, Rows: make([]models.StudentStatement, 0, len(students))}
	for _, s := range students {
		expected := ExpectedCharge(s)
		row := models.StudentStatement{
			Name:           s.Name,
			RUT:            s.RUT,
			Course:         s.Course,
			Section:        s.Section,
			Month:          month,
			AttendedCount:  present[s.RUT],
			PlanClasses:    PlanClasses(s),
			ClassPrice:     s.ClassPrice,
			ExpectedCharge: expected,
			Paid:           paid[s.RUT],
			Debt:           Debt(expected, paid[s.RUT]),
		}
		summary.Rows = append(summary.Rows, row)
		summary.TotalPaid += row.Paid
		summary.TotalDebt += row.Debt
	}
	return summary
}

// Delinquent keeps the rows with a strictly positive debt.
func Delinquent(rows []models.StudentStatement) []models.StudentStatement {
	out := []models.StudentStatement{}
	for _, r := range rows {
		if r.Debt > 0 {
			out = append(out, r)
		}
	}
	return out
}

// Reconciler loads roster, attendance and payments from the store and reconciles them.
type Reconciler struct {
	store database.Store
}

func NewReconciler(store database.Store) *Reconciler {
	return &Reconciler{store: store}
}

func (r *Reconciler) load(month models.Month) ([]models.Student, []models.AttendanceRecord, []models.PaymentRecord, error) {
	students, err := r.store.ListStudents()
	if err != nil {
		return nil, nil, nil, err
	}
	attendance, err := r.store.ListAttendanceInMonth(month)
	if err != nil {
		return nil, nil, nil, err
	}
	payments, err := r.store.ListPayments(month)
	if err != nil {
		return nil, nil, nil, err
	}
	return students, attendance, payments, nil
}

// Statement reconciles the student with the given RUT for month.
func (r *Reconciler) Statement(rut string, month models.Month) (models.StudentStatement, error) {
	students, attendance, payments, err := r.load(month)
	if err != nil {
		return models.StudentStatement{}, err
	}
	rut = strings.TrimSpace(rut)
	for _, s := range students {
		if s.RUT == rut {
			return BuildStatement(s, month, attendance, payments), nil
		}
	}
	return models.StudentStatement{}, ErrStudentNotFound
}

// Summary reconciles the filtered roster for month.
func (r *Reconciler) Summary(filter models.StudentFilter, month models.Month) (models.MonthlySummary, error) {
	students, attendance, payments, err := r.load(month)
	if err != nil {
		return models.MonthlySummary{}, err
	}
	return BuildSummary(filterStudents(students, filter), month, attendance, payments), nil
}

// Delinquents lists the filtered students whose debt for month is above zero.
func (r *Reconciler) Delinquents(filter models.StudentFilter, month models.Month) ([]models.StudentStatement, error) {
	summary, err := r.Summary(filter, month)
	if err != nil {
		return nil, err
	}
	return Delinquent(summary.Rows), nil
}
