package database

import (
	"log"
	"time"

	"chessclass/models"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// studentRow keeps roster order through its auto-increment ID.
type studentRow struct {
	ID             uint       `gorm:"primaryKey"`
	RUT            string     `gorm:"size:20;not null;uniqueIndex"`
	Name           string     `gorm:"size:255"`
	BirthDate      *time.Time `gorm:"type:date"`
	Course         string     `gorm:"size:100;index"`
	School         string     `gorm:"size:255"`
	NationalElo    int
	FideElo        int
	Section        string `gorm:"size:100;index"`
	ClassPrice     int64
	MonthlyPrice   int64
	ClassesPerWeek int
	Phone          string     `gorm:"size:50"`
	Email          string     `gorm:"size:255"`
	GuardianEmail  string     `gorm:"size:255"`
	StartDate      *time.Time `gorm:"type:date"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (studentRow) TableName() string { return "students" }

type attendanceRow struct {
	ID        uint      `gorm:"primaryKey"`
	RUT       string    `gorm:"size:20;not null;uniqueIndex:idx_attendance_rut_date"`
	ClassDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_attendance_rut_date;index"`
	Status    string    `gorm:"size:20;not null"`
	Note      string    `gorm:"size:500"`
	CreatedAt time.Time
}

func (attendanceRow) TableName() string { return "attendance_records" }

type paymentRow struct {
	ID        uint       `gorm:"primaryKey"`
	RUT       string     `gorm:"size:20;not null;uniqueIndex:idx_payment_rut_period"`
	Period    string     `gorm:"size:7;not null;uniqueIndex:idx_payment_rut_period;index"` // MM-YYYY
	Amount    int64      `gorm:"not null"`
	PaidOn    *time.Time `gorm:"type:date"`
	CreatedAt time.Time
}

func (paymentRow) TableName() string { return "payment_records" }

// SQLStore is the relational record store: one table per record kind with an explicit
// period column and a (rut, period) uniqueness constraint instead of per-period sheets.
type SQLStore struct {
	db *gorm.DB
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore connects to MySQL, retrying transient failures, and migrates the schema.
func NewSQLStore(dsn string, debug bool) (*SQLStore, error) {
	gormLogger := logger.Default.LogMode(logger.Silent)
	if debug {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	var (
		db      *gorm.DB
		lastErr error
	)
	for attempt := 1; attempt <= 5; attempt++ {
		var err error
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger})
		if err == nil {
			lastErr = nil
			break
		}
		lastErr = err
		log.Printf("Database connect attempt %d failed: %v", attempt, err)
		time.Sleep(time.Duration(attempt*attempt) * 300 * time.Millisecond)
	}
	if lastErr != nil {
		return nil, errors.Wrap(lastErr, "connect database")
	}

	if err := db.AutoMigrate(&studentRow{}, &attendanceRow{}, &paymentRow{}); err != nil {
		return nil, errors.Wrap(err, "auto migrate")
	}
	return &SQLStore{db: db}, nil
}

// DB exposes the underlying connection for pool statistics.
func (s *SQLStore) DB() *gorm.DB {
	return s.db
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) ListStudents() ([]models.Student, error) {
	var rows []studentRow
	if err := s.db.Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list students")
	}
	out := make([]models.Student, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *SQLStore) AddStudent(st models.Student) error {
	row := studentFromModel(st)
	return errors.Wrap(s.db.Create(&row).Error, "create student")
}

func (s *SQLStore) UpdateStudent(rut string, st models.Student) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var row studentRow
		if err := tx.Where("TRIM(rut) = ?", NormalizeRUT(rut)).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStudentNotFound
			}
			return errors.Wrap(err, "find student")
		}
		updated := studentFromModel(st)
		updated.ID = row.ID
		updated.CreatedAt = row.CreatedAt
		return errors.Wrap(tx.Save(&updated).Error, "update student")
	})
}

func (s *SQLStore) DeleteStudent(rut string) error {
	res := s.db.Where("TRIM(rut) = ?", NormalizeRUT(rut)).Delete(&studentRow{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete student")
	}
	if res.RowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

func (s *SQLStore) ReplaceAttendance(date time.Time, records []models.AttendanceRecord) error {
	day := truncateDay(date)
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("class_date = ?", day).Delete(&attendanceRow{}).Error; err != nil {
			return errors.Wrap(err, "clear attendance")
		}
		if len(records) == 0 {
			return nil
		}
		rows := make([]attendanceRow, 0, len(records))
		for _, r := range records {
			rows = append(rows, attendanceRow{RUT: r.RUT, ClassDate: day, Status: string(r.Status), Note: r.Note})
		}
		return errors.Wrap(tx.Create(&rows).Error, "insert attendance")
	})
}

func (s *SQLStore) ListAttendance() ([]models.AttendanceRecord, error) {
	return s.listAttendance(s.db)
}

func (s *SQLStore) ListAttendanceInMonth(month models.Month) ([]models.AttendanceRecord, error) {
	from := time.Date(month.Year, month.Month, 1, 0, 0, 0, 0, time.UTC)
	return s.listAttendance(s.db.Where("class_date >= ? AND class_date < ?", from, from.AddDate(0, 1, 0)))
}

func (s *SQLStore) listAttendance(q *gorm.DB) ([]models.AttendanceRecord, error) {
	var rows []attendanceRow
	if err := q.Order("class_date, id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list attendance")
	}
	out := make([]models.AttendanceRecord, 0, len(rows))
	for _, r := range rows {
		status, _ := models.ParseAttendanceStatus(r.Status)
		out = append(out, models.AttendanceRecord{RUT: r.RUT, Status: status, Note: r.Note, Date: r.ClassDate})
	}
	return out, nil
}

func (s *SQLStore) ReplacePayments(month models.Month, records []models.PaymentRecord) error {
	period := month.String()
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("period = ?", period).Delete(&paymentRow{}).Error; err != nil {
			return errors.Wrap(err, "clear payments")
		}
		if len(records) == 0 {
			return nil
		}
		rows := make([]paymentRow, 0, len(records))
		for _, r := range records {
			rows = append(rows, paymentRow{RUT: r.RUT, Period: period, Amount: r.Amount, PaidOn: r.PaidOn})
		}
		return errors.Wrap(tx.Create(&rows).Error, "insert payments")
	})
}

func (s *SQLStore) ListPayments(month models.Month) ([]models.PaymentRecord, error) {
	var rows []paymentRow
	if err := s.db.Where("period = ?", month.String()).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list payments")
	}
	out := make([]models.PaymentRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.PaymentRecord{RUT: r.RUT, Amount: r.Amount, PaidOn: r.PaidOn})
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func studentFromModel(s models.Student) studentRow {
	return studentRow{
		RUT:            NormalizeRUT(s.RUT),
		Name:           s.Name,
		BirthDate:      s.BirthDate,
		Course:         s.Course,
		School:         s.School,
		NationalElo:    s.NationalElo,
		FideElo:        s.FideElo,
		Section:        s.Section,
		ClassPrice:     s.ClassPrice,
		MonthlyPrice:   s.MonthlyPrice,
		ClassesPerWeek: s.ClassesPerWeek,
		Phone:          s.Phone,
		Email:          s.Email,
		GuardianEmail:  s.GuardianEmail,
		StartDate:      s.StartDate,
	}
}

func (r studentRow) toModel() models.Student {
	return models.Student{
		Name:           r.Name,
		RUT:            r.RUT,
		BirthDate:      r.BirthDate,
		Course:         r.Course,
		School:         r.School,
		NationalElo:    r.NationalElo,
		FideElo:        r.FideElo,
		Section:        r.Section,
		ClassPrice:     r.ClassPrice,
		MonthlyPrice:   r.MonthlyPrice,
		ClassesPerWeek: r.ClassesPerWeek,
		Phone:          r.Phone,
		Email:          r.Email,
		GuardianEmail:  r.GuardianEmail,
		StartDate:      r.StartDate,
	}
}
