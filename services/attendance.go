package services

import (
	"sort"
	"strings"
	"time"

	"chessclass/database"
	"chessclass/models"
	"chessclass/utils"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// AttendanceMark is the status and note submitted for one student on a class date.
type AttendanceMark struct {
	RUT    string `json:"rut"`
	Status string `json:"status"`
	Note   string `json:"note"`
}

// AttendanceService records and reads per-date attendance.
type AttendanceService struct {
	store    database.Store
	notifier Notifier
}

func NewAttendanceService(store database.Store, notifier Notifier) *AttendanceService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &AttendanceService{store: store, notifier: notifier}
}

// Record stores the marks for date, replacing whatever was recorded for that date before.
// A RUT submitted twice keeps its last mark.
func (as *AttendanceService) Record(date time.Time, marks []AttendanceMark) ([]models.AttendanceRecord, error) {
	if date.IsZero() {
		return nil, invalidf("date is required")
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	records := make([]models.AttendanceRecord, 0, len(marks))
	index := map[string]int{}
	for _, m := range marks {
		rut := utils.SanitizeString(m.RUT)
		if rut == "" {
			return nil, invalidf("every attendance entry needs a rut")
		}
		status, ok := models.ParseAttendanceStatus(m.Status)
		if !ok {
			return nil, invalidf("unknown attendance status %q for %s (want Present, Absent or Withdrawn)", m.Status, rut)
		}
		rec := models.AttendanceRecord{RUT: rut, Status: status, Note: utils.SanitizeString(m.Note), Date: day}
		if i, seen := index[rut]; seen {
			records[i] = rec
			continue
		}
		index[rut] = len(records)
		records = append(records, rec)
	}

	if err := as.store.ReplaceAttendance(day, records); err != nil {
		return nil, errors.Wrap(err, "save attendance")
	}

	logrus.WithFields(logrus.Fields{"date": day.Format(models.DateLayout), "entries": len(records)}).Info("Attendance recorded")
	as.notifier.Notify(EventAttendanceRecorded, map[string]interface{}{"date": day.Format(models.DateLayout), "entries": len(records)})
	return records, nil
}

// History returns every attendance record joined with the roster name, ordered by date then
// name. Records whose RUT left the roster keep an empty name. No attendance yet means an
// empty slice, not an error.
func (as *AttendanceService) History() ([]models.AttendanceEntry, error) {
	records, err := as.store.ListAttendance()
	if err != nil {
		return nil, err
	}
	entries := []models.AttendanceEntry{}
	if len(records) == 0 {
		return entries, nil
	}

	students, err := as.store.ListStudents()
	if err != nil {
		return nil, err
	}
	names := map[string]string{}
	for _, s := range students {
		if _, ok := names[s.RUT]; !ok {
			names[s.RUT] = s.Name
		}
	}

	for _, r := range records {
		entries = append(entries, models.AttendanceEntry{
			Date:   r.Date.Format(models.DateLayout),
			Name:   names[r.RUT],
			RUT:    r.RUT,
			Status: r.Status,
			Note:   r.Note,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return strings.Compare(entries[i].Name, entries[j].Name) < 0
	})
	return entries, nil
}

// ForMonth returns the attendance records whose class date falls in month.
func (as *AttendanceService) ForMonth(month models.Month) ([]models.AttendanceRecord, error) {
	return as.store.ListAttendanceInMonth(month)
}
