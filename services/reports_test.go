package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chessclass/models"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArchiver struct {
	kinds []string
	err   error
}

func (a *fakeArchiver) UploadReport(path, kind string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.kinds = append(a.kinds, kind)
	return "https://bucket/" + filepath.Base(path), nil
}

func assertPDF(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"), "not a PDF: %s", path)
}

func TestReportFileNames(t *testing.T) {
	may := models.Month{Year: 2024, Month: time.May}
	assert.Equal(t, "Statement_Ana_María_Soto_05-2024.pdf", StatementFileName("Ana María  Soto", may))
	assert.Equal(t, "Statement_ab_05-2024.pdf", StatementFileName("a/b", may))
	assert.Equal(t, "Summary_05-2024.pdf", SummaryFileName(may))
}

func TestIndividualStatementWritesPDF(t *testing.T) {
	dir := t.TempDir()
	archiver := &fakeArchiver{}
	rs := NewReportService(filepath.Join(dir, "reports"), dir, archiver)

	st := models.StudentStatement{
		Name: "José Pérez", RUT: "1", Month: models.Month{Year: 2024, Month: time.May},
		AttendedCount: 6, PlanClasses: 8, ClassPrice: 25000, ExpectedCharge: 200000, Paid: 150000, Debt: 50000,
	}
	report, err := rs.IndividualStatement(st)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reports", "Statement_José_Pérez_05-2024.pdf"), report.Path)
	assert.Equal(t, "https://bucket/Statement_José_Pérez_05-2024.pdf", report.URL)
	assert.Equal(t, []string{"statements"}, archiver.kinds)
	assertPDF(t, report.Path)
}

func TestMonthlySummaryWritesPDF(t *testing.T) {
	dir := t.TempDir()
	rs := NewReportService(dir, dir, &fakeArchiver{err: errors.New("offline")})

	summary := BuildSummary([]models.Student{
		{Name: "A very long student name", RUT: "1", Course: "3A", Section: "A", ClassesPerWeek: 2, ClassPrice: 25000},
		{Name: "Ben", RUT: "2", ClassesPerWeek: 1, ClassPrice: 10000},
	}, models.Month{Year: 2024, Month: time.May}, nil, []models.PaymentRecord{{RUT: "2", Amount: 50000}})

	report, err := rs.MonthlySummary(summary)
	require.NoError(t, err)
	assert.Equal(t, "Summary_05-2024.pdf", report.FileName)
	// archive failures leave the local report usable
	assert.Empty(t, report.URL)
	assertPDF(t, report.Path)

	// regenerating overwrites
	_, err = rs.MonthlySummary(summary)
	require.NoError(t, err)
}

func TestReportWriteFailureIsReturned(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	rs := NewReportService(filepath.Join(blocker, "reports"), dir, nil)
	_, err := rs.IndividualStatement(models.StudentStatement{Name: "Ana", Month: models.Month{Year: 2024, Month: time.May}})
	assert.Error(t, err)
}

func TestSummaryCellsTruncateOnlyName(t *testing.T) {
	row := models.StudentStatement{
		Name:           "Maximiliano Alessandri",
		Course:         "Intermediate Openings",
		Section:        "Saturday Mornings",
		AttendedCount:  3,
		ExpectedCharge: 200000,
		Paid:           150000,
		Debt:           50000,
	}
	assert.Equal(t, []string{
		"Maximiliano ",
		"Intermediate Openings",
		"Saturday Mornings",
		"3",
		"$200,000",
		"$150,000",
		"$50,000",
	}, summaryCells(row))

	row.Debt = -500
	assert.Equal(t, "-", summaryCells(row)[6])
}
