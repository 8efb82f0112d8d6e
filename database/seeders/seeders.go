package seeders

import (
	"log"
	"time"

	"chessclass/database"
	"chessclass/models"
)

// SeedAll fills an empty store with a small demo class for the current month.
func SeedAll(store database.Store) error {
	log.Println("Starting demo seeding...")

	seeded, err := SeedStudents(store)
	if err != nil {
		return err
	}
	if !seeded {
		log.Println("Roster already has students, skipping demo data...")
		return nil
	}

	now := time.Now()
	if err := SeedAttendance(store, now); err != nil {
		return err
	}
	if err := SeedPayments(store, now); err != nil {
		return err
	}

	log.Println("Demo seeding completed successfully!")
	return nil
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// DemoStudents is the demo roster.
func DemoStudents() []models.Student {
	return []models.Student{
		{
			Name: "Martina Fuentes", RUT: "21.345.678-9", BirthDate: date(2013, time.April, 2),
			Course: "5A", School: "Club Alfil", NationalElo: 1320, FideElo: 0, Section: "Juniors",
			ClassPrice: 25000, MonthlyPrice: 200000, ClassesPerWeek: 2,
			Phone: "+56 9 8765 4321", GuardianEmail: "fuentes.family@example.com", StartDate: date(2024, time.March, 4),
		},
		{
			Name: "Tomás Araya", RUT: "22.456.789-0", BirthDate: date(2014, time.September, 17),
			Course: "4B", School: "Colegio San Jorge", NationalElo: 1105, Section: "Juniors",
			ClassPrice: 25000, MonthlyPrice: 100000, ClassesPerWeek: 1,
			Email: "tomas.araya@example.com", StartDate: date(2024, time.April, 1),
		},
		{
			Name: "Isidora Muñoz", RUT: "19.876.543-2", BirthDate: date(2009, time.January, 30),
			Course: "1M", School: "Club Alfil", NationalElo: 1710, FideElo: 1650, Section: "Competition",
			ClassPrice: 30000, MonthlyPrice: 360000, ClassesPerWeek: 3,
			Phone: "+56 9 1122 3344", Email: "isidora.munoz@example.com", StartDate: date(2023, time.August, 7),
		},
	}
}

// SeedStudents adds the demo roster when the roster is empty.
func SeedStudents(store database.Store) (bool, error) {
	existing, err := store.ListStudents()
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	for _, s := range DemoStudents() {
		if err := store.AddStudent(s); err != nil {
			return false, err
		}
	}
	log.Printf("Seeded %d students", len(DemoStudents()))
	return true, nil
}

// SeedAttendance records the first class of the month containing now.
func SeedAttendance(store database.Store, now time.Time) error {
	classDay := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	students := DemoStudents()
	records := []models.AttendanceRecord{
		{RUT: students[0].RUT, Status: models.StatusPresent, Date: classDay},
		{RUT: students[1].RUT, Status: models.StatusAbsent, Note: "Dentist", Date: classDay},
		{RUT: students[2].RUT, Status: models.StatusPresent, Date: classDay},
	}
	return store.ReplaceAttendance(classDay, records)
}

// SeedPayments leaves one student fully paid, one partly paid and one without payment.
func SeedPayments(store database.Store, now time.Time) error {
	paidOn := date(now.Year(), now.Month(), 1)
	students := DemoStudents()
	records := []models.PaymentRecord{
		{RUT: students[0].RUT, Amount: 150000, PaidOn: paidOn},
		{RUT: students[2].RUT, Amount: 360000, PaidOn: paidOn},
	}
	return store.ReplacePayments(models.MonthOf(now), records)
}
