package services

import (
	"fmt"
	"os"
	"path/filepath"

	"chessclass/models"
	"chessclass/utils"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	summaryColumnWidth = 27.0
	summaryCellLimit   = 12
	reportFont         = "Arial"
)

var summaryHeader = []string{"Name", "Course", "Section", "Attended", "Expected", "Paid", "Debt"}

// Archiver copies a generated report somewhere durable and returns where it went.
type Archiver interface {
	UploadReport(path, kind string) (string, error)
}

// Report points at a generated PDF.
type Report struct {
	Path     string `json:"path"`
	FileName string `json:"file_name"`
	URL      string `json:"url,omitempty"`
}

// ReportService renders statements and summaries as PDF files.
type ReportService struct {
	reportsDir string
	summaryDir string
	archiver   Archiver
}

// NewReportService writes statements to reportsDir and summaries to summaryDir.
// archiver may be nil.
func NewReportService(reportsDir, summaryDir string, archiver Archiver) *ReportService {
	if reportsDir == "" {
		reportsDir = "reports"
	}
	if summaryDir == "" {
		summaryDir = "."
	}
	return &ReportService{reportsDir: reportsDir, summaryDir: summaryDir, archiver: archiver}
}

// StatementFileName is Statement_<Name_With_Underscores>_<MM-YYYY>.pdf.
func StatementFileName(name string, month models.Month) string {
	return fmt.Sprintf("Statement_%s_%s.pdf", utils.FileNamePart(name), month)
}

// SummaryFileName is Summary_<MM-YYYY>.pdf.
func SummaryFileName(month models.Month) string {
	return fmt.Sprintf("Summary_%s.pdf", month)
}

// IndividualStatement renders a one-page payment status for a single student.
func (rs *ReportService) IndividualStatement(st models.StudentStatement) (Report, error) {
	pdf := newDocument()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(reportFont, "B", 14)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Payment Status - %s (%s)", st.Name, st.Month)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(reportFont, "", 12)
	lines := []string{
		fmt.Sprintf("Classes attended: %d", st.AttendedCount),
		fmt.Sprintf("Plan classes: %d", st.PlanClasses),
		fmt.Sprintf("Price per class: %s", utils.FormatMoney(st.ClassPrice)),
		fmt.Sprintf("Expected charge: %s", utils.FormatMoney(st.ExpectedCharge)),
		fmt.Sprintf("Amount paid: %s", utils.FormatMoney(st.Paid)),
		fmt.Sprintf("Debt: %s", utils.FormatMoney(st.Debt)),
	}
	for _, line := range lines {
		pdf.CellFormat(0, 8, tr(line), "", 1, "L", false, 0, "")
	}

	path := filepath.Join(rs.reportsDir, StatementFileName(st.Name, st.Month))
	return rs.save(pdf, path, "statements")
}

// MonthlySummary renders the summary table followed by the collected and owed totals.
func (rs *ReportService) MonthlySummary(summary models.MonthlySummary) (Report, error) {
	pdf := newDocument()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(reportFont, "B", 14)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Monthly Summary - %s", summary.Month)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(reportFont, "B", 10)
	for _, h := range summaryHeader {
		pdf.CellFormat(summaryColumnWidth, 8, utils.Truncate(h, summaryCellLimit), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(reportFont, "", 10)
	for _, row := range summary.Rows {
		for _, c := range summaryCells(row) {
			pdf.CellFormat(summaryColumnWidth, 8, tr(c), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont(reportFont, "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Total Collected: %s", utils.FormatMoney(summary.TotalPaid)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Total Owed: %s", utils.FormatMoney(summary.TotalDebt)), "", 1, "L", false, 0, "")

	path := filepath.Join(rs.summaryDir, SummaryFileName(summary.Month))
	return rs.save(pdf, path, "summaries")
}

// summaryCells renders one summary row. Only the name is cut to fit its column.
func summaryCells(row models.StudentStatement) []string {
	debt := "-"
	if row.Debt > 0 {
		debt = utils.FormatMoney(row.Debt)
	}
	return []string{
		utils.Truncate(row.Name, summaryCellLimit),
		row.Course,
		row.Section,
		fmt.Sprintf("%d", row.AttendedCount),
		utils.FormatMoney(row.ExpectedCharge),
		utils.FormatMoney(row.Paid),
		debt,
	}
}

func newDocument() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Chess class report", true)
	pdf.AddPage()
	return pdf
}

func (rs *ReportService) save(pdf *fpdf.Fpdf, path, kind string) (Report, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Report{}, errors.Wrapf(err, "create report directory %s", filepath.Dir(path))
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		logrus.WithError(err).WithField("path", path).Error("Failed to write report")
		return Report{}, errors.Wrapf(err, "write report %s", path)
	}

	report := Report{Path: path, FileName: filepath.Base(path)}
	logrus.WithFields(logrus.Fields{"path": path, "kind": kind}).Info("Report generated")

	if rs.archiver != nil {
		url, err := rs.archiver.UploadReport(path, kind)
		if err != nil {
			// the local file is still usable
			logrus.WithError(err).WithField("path", path).Warn("Failed to archive report")
		} else {
			report.URL = url
		}
	}
	return report, nil
}
