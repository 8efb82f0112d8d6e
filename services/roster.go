package services

import (
	"sort"

	"chessclass/database"
	"chessclass/models"
	"chessclass/utils"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Refresh events pushed to connected clients after a mutation.
const (
	EventRosterUpdated      = "roster_updated"
	EventAttendanceRecorded = "attendance_recorded"
	EventPaymentsRecorded   = "payments_recorded"
)

// Notifier pushes refresh events to connected clients.
type Notifier interface {
	Notify(event string, data interface{})
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, interface{}) {}

// RosterService manages the student roster.
type RosterService struct {
	store    database.Store
	notifier Notifier
}

func NewRosterService(store database.Store, notifier Notifier) *RosterService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &RosterService{store: store, notifier: notifier}
}

// Create appends a student to the roster. Blank fields other than the RUT are accepted; a missing
// RUT, malformed emails, a classes-per-week outside 0..7 and a RUT already in use are rejected.
func (rs *RosterService) Create(s models.Student) (models.Student, error) {
	s = sanitizeStudent(s)
	if err := validateStruct(s); err != nil {
		return models.Student{}, err
	}

	students, err := rs.store.ListStudents()
	if err != nil {
		return models.Student{}, err
	}
	for _, existing := range students {
		if database.NormalizeRUT(existing.RUT) == s.RUT {
			return models.Student{}, ErrDuplicateRUT
		}
	}

	if err := rs.store.AddStudent(s); err != nil {
		return models.Student{}, errors.Wrap(err, "add student")
	}

	logrus.WithFields(logrus.Fields{"rut": s.RUT, "name": s.Name}).Info("Student registered")
	rs.notifier.Notify(EventRosterUpdated, map[string]string{"action": "create", "rut": s.RUT})
	return s, nil
}

// Update applies the non-nil fields of u to the student with the given RUT.
func (rs *RosterService) Update(rut string, u models.StudentUpdate) (models.Student, error) {
	current, err := rs.Get(rut)
	if err != nil {
		return models.Student{}, err
	}

	u.Apply(&current)
	current = sanitizeStudent(current)
	if err := validateStruct(current); err != nil {
		return models.Student{}, err
	}

	if err := rs.store.UpdateStudent(current.RUT, current); err != nil {
		return models.Student{}, err
	}

	logrus.WithField("rut", rut).Info("Student updated")
	rs.notifier.Notify(EventRosterUpdated, map[string]string{"action": "update", "rut": rut})
	return current, nil
}

// Delete removes the student; the remaining rows keep their order.
func (rs *RosterService) Delete(rut string) error {
	if err := rs.store.DeleteStudent(database.NormalizeRUT(rut)); err != nil {
		return err
	}
	logrus.WithField("rut", rut).Warn("Student deleted")
	rs.notifier.Notify(EventRosterUpdated, map[string]string{"action": "delete", "rut": rut})
	return nil
}

// List returns the roster in file order, narrowed by filter.
func (rs *RosterService) List(filter models.StudentFilter) ([]models.Student, error) {
	students, err := rs.store.ListStudents()
	if err != nil {
		return nil, err
	}
	return filterStudents(students, filter), nil
}

// Get returns the first student with the given RUT.
func (rs *RosterService) Get(rut string) (models.Student, error) {
	students, err := rs.store.ListStudents()
	if err != nil {
		return models.Student{}, err
	}
	rut = database.NormalizeRUT(rut)
	for _, s := range students {
		if database.NormalizeRUT(s.RUT) == rut {
			return s, nil
		}
	}
	return models.Student{}, ErrStudentNotFound
}

// FilterOptions lists the distinct non-empty sections and courses, sorted.
type FilterOptions struct {
	Sections []string `json:"sections"`
	Courses  []string `json:"courses"`
}

func (rs *RosterService) Filters() (FilterOptions, error) {
	students, err := rs.store.ListStudents()
	if err != nil {
		return FilterOptions{}, err
	}
	return FilterOptions{
		Sections: distinct(students, func(s models.Student) string { return s.Section }),
		Courses:  distinct(students, func(s models.Student) string { return s.Course }),
	}, nil
}

func filterStudents(students []models.Student, filter models.StudentFilter) []models.Student {
	out := make([]models.Student, 0, len(students))
	for _, s := range students {
		if filter.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

func distinct(students []models.Student, field func(models.Student) string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, s := range students {
		v := field(s)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func sanitizeStudent(s models.Student) models.Student {
	s.Name = utils.SanitizeString(s.Name)
	s.RUT = utils.SanitizeString(s.RUT)
	s.Course = utils.SanitizeString(s.Course)
	s.School = utils.SanitizeString(s.School)
	s.Section = utils.SanitizeString(s.Section)
	s.Phone = utils.SanitizeString(s.Phone)
	s.Email = utils.SanitizeString(s.Email)
	s.GuardianEmail = utils.SanitizeString(s.GuardianEmail)
	return s
}
