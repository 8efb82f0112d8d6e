package services

import (
	"chessclass/config"
	"chessclass/database"
	"chessclass/services/mail"
)

// Container wires the services the HTTP layer depends on.
type Container struct {
	Store      database.Store
	Roster     *RosterService
	Attendance *AttendanceService
	Payments   *PaymentService
	Reconciler *Reconciler
	Reports    *ReportService
	Mailer     *StatementMailer
	Health     *HealthService
}

// NewContainer builds every service on top of store. notifier and archiver may be nil.
func NewContainer(cfg *config.Config, store database.Store, notifier Notifier, archiver Archiver, sender mail.Sender) *Container {
	roster := NewRosterService(store, notifier)
	reconciler := NewReconciler(store)
	reports := NewReportService(cfg.ReportsDir, cfg.SummaryDir, archiver)
	if sender == nil {
		sender = mail.NewSender(cfg.EmailPassword, "Chess Class", cfg.EmailSender)
	}

	return &Container{
		Store:      store,
		Roster:     roster,
		Attendance: NewAttendanceService(store, notifier),
		Payments:   NewPaymentService(store, notifier),
		Reconciler: reconciler,
		Reports:    reports,
		Mailer:     NewStatementMailer(roster, reconciler, reports, sender, cfg.EmailReceiver),
		Health:     NewHealthService(store, "", ""),
	}
}
