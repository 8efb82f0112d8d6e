package services

import (
	"fmt"

	"chessclass/models"
	"chessclass/services/mail"
	"chessclass/utils"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// StatementMailer emails a student's individual statement PDF.
type StatementMailer struct {
	roster     *RosterService
	reconciler *Reconciler
	reports    *ReportService
	sender     mail.Sender
	fallback   string
}

// NewStatementMailer sends through sender; fallback receives statements for students without
// any email on file.
func NewStatementMailer(roster *RosterService, reconciler *Reconciler, reports *ReportService, sender mail.Sender, fallback string) *StatementMailer {
	return &StatementMailer{roster: roster, reconciler: reconciler, reports: reports, sender: sender, fallback: fallback}
}

// Recipient picks the guardian email, then the student email, then fallback.
func Recipient(s models.Student, fallback string) string {
	switch {
	case s.GuardianEmail != "":
		return s.GuardianEmail
	case s.Email != "":
		return s.Email
	default:
		return fallback
	}
}

// SendStatement renders the statement for rut and month and mails it. It returns the recipient.
func (sm *StatementMailer) SendStatement(rut string, month models.Month) (string, Report, error) {
	student, err := sm.roster.Get(rut)
	if err != nil {
		return "", Report{}, err
	}
	to := Recipient(student, sm.fallback)
	if to == "" {
		return "", Report{}, invalidf("no email address on file for %s and EMAIL_RECEIVER is not set", student.RUT)
	}

	st, err := sm.reconciler.Statement(student.RUT, month)
	if err != nil {
		return "", Report{}, err
	}
	report, err := sm.reports.IndividualStatement(st)
	if err != nil {
		return "", Report{}, err
	}
	at, err := mail.AttachFile(report.Path, "application/pdf")
	if err != nil {
		return "", Report{}, err
	}

	msg := mail.Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Payment status %s - %s", month, student.Name),
		Text: fmt.Sprintf("Attached is the payment status of %s for %s.\nExpected: %s\nPaid: %s\nDebt: %s\n",
			student.Name, month,
			utils.FormatMoney(st.ExpectedCharge), utils.FormatMoney(st.Paid), utils.FormatMoney(st.Debt)),
		Attachments: []mail.Attachment{at},
	}
	if err := sm.sender.Send(msg); err != nil {
		return "", Report{}, errors.Wrap(err, "send statement")
	}

	logrus.WithFields(logrus.Fields{"rut": student.RUT, "month": month.String(), "to": to}).Info("Statement emailed")
	return to, report, nil
}
