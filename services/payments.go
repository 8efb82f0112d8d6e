package services

import (
	"time"

	"chessclass/database"
	"chessclass/models"
	"chessclass/utils"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// PaymentEntry is the amount submitted for one student.
type PaymentEntry struct {
	RUT    string `json:"rut"`
	Amount int64  `json:"amount"`
}

// PaymentService records and reads monthly payments.
type PaymentService struct {
	store    database.Store
	notifier Notifier
	now      func() time.Time
}

func NewPaymentService(store database.Store, notifier Notifier) *PaymentService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &PaymentService{store: store, notifier: notifier, now: time.Now}
}

// Record stores the month's payments, replacing any saved earlier for that month.
// paidOn defaults to today. A RUT submitted twice keeps its last amount.
func (ps *PaymentService) Record(month models.Month, paidOn *time.Time, entries []PaymentEntry) ([]models.PaymentRecord, error) {
	if month.IsZero() {
		return nil, invalidf("month is required")
	}
	if paidOn == nil {
		today := ps.now()
		today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		paidOn = &today
	}

	records := make([]models.PaymentRecord, 0, len(entries))
	index := map[string]int{}
	for _, e := range entries {
		rut := utils.SanitizeString(e.RUT)
		if rut == "" {
			return nil, invalidf("every payment entry needs a rut")
		}
		if e.Amount < 0 {
			return nil, invalidf("payment for %s cannot be negative", rut)
		}
		rec := models.PaymentRecord{RUT: rut, Amount: e.Amount, PaidOn: paidOn}
		if i, seen := index[rut]; seen {
			records[i] = rec
			continue
		}
		index[rut] = len(records)
		records = append(records, rec)
	}

	if err := ps.store.ReplacePayments(month, records); err != nil {
		return nil, errors.Wrap(err, "save payments")
	}

	logrus.WithFields(logrus.Fields{"month": month.String(), "entries": len(records)}).Info("Payments recorded")
	ps.notifier.Notify(EventPaymentsRecorded, map[string]interface{}{"month": month.String(), "entries": len(records)})
	return records, nil
}

// ForMonth returns the month's payments. A month with nothing recorded yields an empty slice.
func (ps *PaymentService) ForMonth(month models.Month) ([]models.PaymentRecord, error) {
	return ps.store.ListPayments(month)
}
