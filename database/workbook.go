package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"chessclass/models"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const lockTimeout = 15 * time.Second

// WorkbookStore keeps everything in one xlsx file: the roster on the first sheet and one
// sheet per attendance date and payment month.
type WorkbookStore struct {
	path   string
	locker Locker
}

var _ Store = (*WorkbookStore)(nil)

// NewWorkbookStore opens path, creating the workbook with an empty roster when it does not exist.
func NewWorkbookStore(path string, locker Locker) (*WorkbookStore, error) {
	if locker == nil {
		locker = NewMutexLocker()
	}
	ws := &WorkbookStore{path: path, locker: locker}
	if err := ws.ensure(); err != nil {
		return nil, err
	}
	return ws, nil
}

// Path returns the location of the backing file.
func (ws *WorkbookStore) Path() string {
	return ws.path
}

func (ws *WorkbookStore) ensure() error {
	if _, err := os.Stat(ws.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "stat workbook %s", ws.path)
	}

	if dir := filepath.Dir(ws.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "create workbook directory")
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), RosterSheet); err != nil {
		return errors.Wrap(err, "name roster sheet")
	}
	if err := writeRow(f, RosterSheet, 1, stringsToCells(RosterHeader)); err != nil {
		return err
	}
	if err := f.SaveAs(ws.path); err != nil {
		return errors.Wrapf(err, "create workbook %s", ws.path)
	}
	logrus.WithField("path", ws.path).Info("Created empty workbook")
	return nil
}

// read opens the workbook for a read-only operation.
func (ws *WorkbookStore) read(fn func(f *excelize.File) error) error {
	f, err := excelize.OpenFile(ws.path)
	if err != nil {
		return errors.Wrapf(err, "open workbook %s", ws.path)
	}
	defer f.Close()
	return fn(f)
}

// write runs fn under the write lock and saves the whole file. The file is written to a
// temporary sibling first and renamed so readers never observe a half-written workbook.
func (ws *WorkbookStore) write(fn func(f *excelize.File) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	unlock, err := ws.locker.Lock(ctx)
	if err != nil {
		return errors.Wrap(err, "acquire workbook lock")
	}
	defer unlock()

	f, err := excelize.OpenFile(ws.path)
	if err != nil {
		return errors.Wrapf(err, "open workbook %s", ws.path)
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return err
	}

	tmp := ws.path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "save workbook %s", ws.path)
	}
	if err := os.Rename(tmp, ws.path); err != nil {
		return errors.Wrapf(err, "replace workbook %s", ws.path)
	}
	return nil
}

// Close is a no-op; the file is opened per operation.
func (ws *WorkbookStore) Close() error {
	return nil
}

// ---- Roster ----

func (ws *WorkbookStore) ListStudents() ([]models.Student, error) {
	var students []models.Student
	err := ws.read(func(f *excelize.File) error {
		var err error
		students, err = readRoster(f)
		return err
	})
	return students, err
}

func (ws *WorkbookStore) AddStudent(s models.Student) error {
	return ws.write(func(f *excelize.File) error {
		students, err := readRoster(f)
		if err != nil {
			return err
		}
		return writeRoster(f, append(students, s))
	})
}

func (ws *WorkbookStore) UpdateStudent(rut string, s models.Student) error {
	return ws.write(func(f *excelize.File) error {
		students, err := readRoster(f)
		if err != nil {
			return err
		}
		idx := indexOfRUT(students, rut)
		if idx < 0 {
			return ErrStudentNotFound
		}
		students[idx] = s
		return writeRoster(f, students)
	})
}

func (ws *WorkbookStore) DeleteStudent(rut string) error {
	return ws.write(func(f *excelize.File) error {
		students, err := readRoster(f)
		if err != nil {
			return err
		}
		idx := indexOfRUT(students, rut)
		if idx < 0 {
			return ErrStudentNotFound
		}
		students = append(students[:idx], students[idx+1:]...)
		return writeRoster(f, students)
	})
}

func indexOfRUT(students []models.Student, rut string) int {
	rut = NormalizeRUT(rut)
	for i, s := range students {
		if NormalizeRUT(s.RUT) == rut {
			return i
		}
	}
	return -1
}

func rosterSheet(f *excelize.File) string {
	if idx, _ := f.GetSheetIndex(RosterSheet); idx >= 0 {
		return RosterSheet
	}
	return f.GetSheetName(0)
}

func readRoster(f *excelize.File) ([]models.Student, error) {
	rows, err := f.GetRows(rosterSheet(f))
	if err != nil {
		return nil, errors.Wrap(err, "read roster sheet")
	}
	if len(rows) == 0 {
		return []models.Student{}, nil
	}

	col := mapHeaderIndexes(rows[0])
	students := make([]models.Student, 0, len(rows)-1)
	for _, r := range rows[1:] {
		get := func(key string) string {
			if idx, ok := col[key]; ok && idx < len(r) {
				return strings.TrimSpace(r[idx])
			}
			return ""
		}
		if isBlankRow(r) {
			continue
		}
		students = append(students, models.Student{
			Name:           get("Name"),
			RUT:            get("RUT"),
			BirthDate:      parseDate(get("Birth Date")),
			Course:         get("Course"),
			School:         get("School/Club"),
			NationalElo:    int(parseInt(get("National ELO"))),
			FideElo:        int(parseInt(get("FIDE ELO"))),
			Section:        get("Section"),
			ClassPrice:     parseInt(get("Class Price")),
			MonthlyPrice:   parseInt(get("Monthly Price")),
			ClassesPerWeek: int(parseInt(get("Classes Per Week"))),
			Phone:          get("Phone"),
			Email:          get("Email"),
			GuardianEmail:  get("Guardian Email"),
			StartDate:      parseDate(get("Start Date")),
		})
	}
	return students, nil
}

// writeRoster rewrites the whole roster sheet and removes rows left over after a delete.
func writeRoster(f *excelize.File, students []models.Student) error {
	sheet := rosterSheet(f)
	existing, err := f.GetRows(sheet)
	if err != nil {
		return errors.Wrap(err, "read roster sheet")
	}
	if err := writeRow(f, sheet, 1, stringsToCells(RosterHeader)); err != nil {
		return err
	}
	for i, s := range students {
		row := []interface{}{
			s.Name, s.RUT, formatDate(s.BirthDate), s.Course, s.School,
			s.NationalElo, s.FideElo, s.Section, s.ClassPrice, s.MonthlyPrice,
			s.ClassesPerWeek, s.Phone, s.Email, s.GuardianEmail, formatDate(s.StartDate),
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	for row := len(existing); row > len(students)+1; row-- {
		if err := f.RemoveRow(sheet, row); err != nil {
			return errors.Wrapf(err, "remove roster row %d", row)
		}
	}
	return nil
}

// ---- Attendance ----

func (ws *WorkbookStore) ReplaceAttendance(date time.Time, records []models.AttendanceRecord) error {
	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, []interface{}{r.RUT, string(r.Status), r.Note})
	}
	return ws.write(func(f *excelize.File) error {
		return replaceSheet(f, AttendanceSheetName(date), attendanceHeader, rows)
	})
}

func (ws *WorkbookStore) ListAttendance() ([]models.AttendanceRecord, error) {
	return ws.listAttendance(AttendanceSheetPrefix)
}

func (ws *WorkbookStore) ListAttendanceInMonth(month models.Month) ([]models.AttendanceRecord, error) {
	return ws.listAttendance(attendanceMonthPrefix(month))
}

func (ws *WorkbookStore) listAttendance(prefix string) ([]models.AttendanceRecord, error) {
	records := []models.AttendanceRecord{}
	err := ws.read(func(f *excelize.File) error {
		for _, name := range f.GetSheetList() {
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			date, ok := ParseAttendanceSheetName(name)
			if !ok {
				logrus.WithField("sheet", name).Warn("Skipping attendance sheet with unparseable date")
				continue
			}
			rows, err := f.GetRows(name)
			if err != nil {
				return errors.Wrapf(err, "read sheet %s", name)
			}
			if len(rows) == 0 {
				continue
			}
			col := mapHeaderIndexes(rows[0])
			for _, r := range rows[1:] {
				if isBlankRow(r) {
					continue
				}
				status, _ := models.ParseAttendanceStatus(cell(r, col, "Status"))
				records = append(records, models.AttendanceRecord{
					RUT:    cell(r, col, "RUT"),
					Status: status,
					Note:   cell(r, col, "Note"),
					Date:   date,
				})
			}
		}
		return nil
	})
	return records, err
}

// ---- Payments ----

func (ws *WorkbookStore) ReplacePayments(month models.Month, records []models.PaymentRecord) error {
	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, []interface{}{r.RUT, r.Amount, formatDate(r.PaidOn)})
	}
	return ws.write(func(f *excelize.File) error {
		return replaceSheet(f, PaymentSheetName(month), paymentHeader, rows)
	})
}

// ListPayments returns the month's payments; a month without a sheet has no payments.
func (ws *WorkbookStore) ListPayments(month models.Month) ([]models.PaymentRecord, error) {
	records := []models.PaymentRecord{}
	err := ws.read(func(f *excelize.File) error {
		name := PaymentSheetName(month)
		if idx, _ := f.GetSheetIndex(name); idx < 0 {
			return nil
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return errors.Wrapf(err, "read sheet %s", name)
		}
		if len(rows) == 0 {
			return nil
		}
		col := mapHeaderIndexes(rows[0])
		for _, r := range rows[1:] {
			if isBlankRow(r) {
				continue
			}
			records = append(records, models.PaymentRecord{
				RUT:    cell(r, col, "RUT"),
				Amount: parseInt(cell(r, col, "Amount Paid")),
				PaidOn: parseDate(cell(r, col, "Payment Date")),
			})
		}
		return nil
	})
	return records, err
}

// ---- Sheet helpers ----

// replaceSheet drops name if present and recreates it with header and rows.
func replaceSheet(f *excelize.File, name string, header []string, rows [][]interface{}) error {
	if idx, _ := f.GetSheetIndex(name); idx >= 0 {
		if err := f.DeleteSheet(name); err != nil {
			return errors.Wrapf(err, "delete sheet %s", name)
		}
	}
	if _, err := f.NewSheet(name); err != nil {
		return errors.Wrapf(err, "create sheet %s", name)
	}
	if err := writeRow(f, name, 1, stringsToCells(header)); err != nil {
		return err
	}
	for i, r := range rows {
		if err := writeRow(f, name, i+2, r); err != nil {
			return err
		}
	}
	if idx, _ := f.GetSheetIndex(rosterSheet(f)); idx >= 0 {
		f.SetActiveSheet(idx)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	axis, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, axis, &values); err != nil {
		return errors.Wrapf(err, "write %s row %d", sheet, row)
	}
	return nil
}

func stringsToCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func mapHeaderIndexes(header []string) map[string]int {
	m := map[string]int{}
	for i, h := range header {
		m[strings.TrimSpace(h)] = i
	}
	return m
}

func cell(r []string, col map[string]int, key string) string {
	if idx, ok := col[key]; ok && idx < len(r) {
		return strings.TrimSpace(r[idx])
	}
	return ""
}

func isBlankRow(r []string) bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	layouts := []string{models.DateLayout, "2006-01-02 15:04:05", "02/01/2006", "01-02-06", time.RFC3339}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return &t
		}
	}
	return nil
}

// parseInt reads whole amounts, tolerating thousands separators and a trailing ".0".
func parseInt(s string) int64 {
	s = strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", ""))
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(v)
	}
	return 0
}

// SheetNames lists the workbook's sheets sorted, roster first.
func (ws *WorkbookStore) SheetNames() ([]string, error) {
	var names []string
	err := ws.read(func(f *excelize.File) error {
		names = f.GetSheetList()
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(names, func(i, j int) bool {
		if names[i] == RosterSheet || names[j] == RosterSheet {
			return names[i] == RosterSheet
		}
		return names[i] < names[j]
	})
	return names, nil
}

func (ws *WorkbookStore) String() string {
	return fmt.Sprintf("workbook(%s)", ws.path)
}
