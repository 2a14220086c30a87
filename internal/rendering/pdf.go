package rendering

import (
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/jonathan/interview-coach/internal/interview"
)

const (
	pdfLineHeight = 6.0
	pdfFont       = "Helvetica"
)

// PDF writes the session report as an A4 PDF document to w.
// All text is reduced to ASCII before drawing.
func PDF(w io.Writer, s *interview.Session) error {
	report, err := BuildReport(s)
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle("Interview Summary", false)
	pdf.SetAuthor(ToASCII(report.UserID), false)
	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 10, "Interview Summary", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(pdfFont, "", 11)
	role := report.Role
	if report.Domain != "" {
		role += " (" + report.Domain + ")"
	}
	header := [][2]string{
		{"User", report.UserID},
		{"Role", role},
		{"Mode", report.Mode},
		{"Question set", report.QuestionSet},
		{"Difficulty", report.Difficulty},
		{"Date", report.Date},
		{"Average score", report.Average},
	}
	for _, kv := range header {
		pdf.MultiCell(0, pdfLineHeight, ToASCII(kv[0]+": "+kv[1]), "", "L", false)
	}

	for _, item := range report.Items {
		pdf.Ln(4)
		pdf.SetFont(pdfFont, "B", 12)
		pdf.MultiCell(0, pdfLineHeight, ToASCII("Question "+strconv.Itoa(item.Number)+": "+item.Question), "", "L", false)

		pdf.SetFont(pdfFont, "", 11)
		if item.Score == "" {
			pdf.MultiCell(0, pdfLineHeight, "(not answered)", "", "L", false)
			continue
		}
		pdf.MultiCell(0, pdfLineHeight, ToASCII("Answer: "+item.Answer), "", "L", false)
		pdf.MultiCell(0, pdfLineHeight, ToASCII("Feedback: "+item.Feedback), "", "L", false)
		pdf.MultiCell(0, pdfLineHeight, "Score: "+item.Score, "", "L", false)
	}

	if report.Summary != "" {
		pdf.Ln(6)
		pdf.SetFont(pdfFont, "B", 13)
		pdf.CellFormat(0, 8, "Overall Feedback", "", 1, "L", false, 0, "")
		pdf.SetFont(pdfFont, "", 11)
		pdf.MultiCell(0, pdfLineHeight, ToASCII(report.Summary), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return &ExportError{Format: FormatPDF, Stage: "output", Err: err}
	}
	return nil
}
