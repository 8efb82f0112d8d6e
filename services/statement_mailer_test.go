package services

import (
	"path/filepath"
	"testing"
	"time"

	"chessclass/models"
	"chessclass/services/mail"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipient(t *testing.T) {
	cases := []struct {
		name    string
		student models.Student
		want    string
	}{
		{"guardian first", models.Student{Email: "kid@example.com", GuardianEmail: "mom@example.com"}, "mom@example.com"},
		{"student email", models.Student{Email: "kid@example.com"}, "kid@example.com"},
		{"fallback", models.Student{}, "office@example.com"},
	}
	for _, tc := range cases {
		if got := Recipient(tc.student, "office@example.com"); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSendStatement(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()
	roster := NewRosterService(store, nil)
	sender := mail.NewConsoleSender("Chess", "club@example.com")
	mailer := NewStatementMailer(roster, NewReconciler(store), NewReportService(filepath.Join(dir, "reports"), dir, nil), sender, "")
	may := models.Month{Year: 2024, Month: time.May}

	_, err := roster.Create(models.Student{Name: "Ana Soto", RUT: "1", GuardianEmail: "mom@example.com", ClassesPerWeek: 2, ClassPrice: 25000})
	require.NoError(t, err)
	_, err = roster.Create(models.Student{Name: "No Mail", RUT: "2"})
	require.NoError(t, err)

	to, report, err := mailer.SendStatement("1", may)
	require.NoError(t, err)
	assert.Equal(t, "mom@example.com", to)
	assert.FileExists(t, report.Path)

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"mom@example.com"}, sent[0].To)
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "Statement_Ana_Soto_05-2024.pdf", sent[0].Attachments[0].Filename)
	assert.Contains(t, sent[0].Text, "$200,000")

	_, _, err = mailer.SendStatement("2", may)
	assert.True(t, IsValidation(err))

	_, _, err = mailer.SendStatement("404", may)
	assert.ErrorIs(t, err, ErrStudentNotFound)
}
