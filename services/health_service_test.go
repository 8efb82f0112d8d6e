package services

import (
	"testing"
	"time"

	"chessclass/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthReportWithWorkbookStore(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddStudent(models.Student{Name: "Ana", RUT: "1"}))
	require.NoError(t, store.ReplaceAttendance(day(2024, time.May, 1), []models.AttendanceRecord{{RUT: "1", Status: models.StatusPresent}}))
	require.NoError(t, store.ReplaceAttendance(day(2024, time.May, 8), nil))
	require.NoError(t, store.ReplacePayments(models.Month{Year: 2024, Month: time.May}, []models.PaymentRecord{{RUT: "1", Amount: 100}}))

	hs := NewHealthService(store, "", "")
	report := hs.GetHealthReport()

	assert.Equal(t, overallStatusOK, report.Status)
	assert.Equal(t, defaultServiceName, report.Service)
	assert.Equal(t, dependencyStatusUp, report.Store.Status)
	assert.Equal(t, 1, report.Store.Students)
	require.NotNil(t, report.Store.Workbook)
	assert.Equal(t, 2, report.Store.Workbook.AttendanceSheets)
	assert.Equal(t, 1, report.Store.Workbook.PaymentSheets)
	assert.Greater(t, report.Store.Workbook.SizeBytes, int64(0))
	assert.Nil(t, report.Store.Pool)
	assert.Equal(t, "in-process", report.Lock.Mode)
	assert.Equal(t, 200, hs.HTTPStatusForOverall(report.Status))
}

func TestHealthReportWithoutStore(t *testing.T) {
	hs := NewHealthService(nil, "svc", "2.0.0")
	report := hs.GetHealthReport()
	assert.Equal(t, overallStatusCritical, report.Status)
	assert.Equal(t, dependencyStatusDown, report.Store.Status)
	assert.Equal(t, 503, hs.HTTPStatusForOverall(report.Status))
}

func TestCombineStatus(t *testing.T) {
	cases := []struct{ current, candidate, want string }{
		{overallStatusOK, overallStatusOK, overallStatusOK},
		{overallStatusOK, overallStatusDegraded, overallStatusDegraded},
		{overallStatusCritical, overallStatusDegraded, overallStatusCritical},
	}
	for _, tc := range cases {
		if got := combineStatus(tc.current, tc.candidate); got != tc.want {
			t.Fatalf("combineStatus(%q, %q) = %q, want %q", tc.current, tc.candidate, got, tc.want)
		}
	}
}
