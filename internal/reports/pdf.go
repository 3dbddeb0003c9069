package reports

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin = 10.6
	lineHeight = 6.0
	fontFamily = "DejaVu"
)

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	fontRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	fontBold []byte
)

// Render lays the document out on A4 pages. Missing fields render as
// placeholders. Text is set in an embedded UTF-8 font and kept verbatim.
// Streams are left uncompressed so the text stays searchable.
func Render(doc Document, created time.Time) ([]byte, error) {
	doc = doc.withPlaceholders()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetCompression(false)
	pdf.SetCreationDate(created)
	pdf.SetTitle("Interview Feedback Report", true)
	pdf.SetAuthor("Admin Dashboard Export", true)
	pdf.AddUTF8FontFromBytes(fontFamily, "", fontRegular)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", fontBold)

	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 24)
	pdf.CellFormat(0, 12, "Interview Feedback Report", "", 1, "C", false, 0, "")
	pdf.SetFont(fontFamily, "", 14)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(0, 9, "Admin Dashboard Export", "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	pdf.SetFont(fontFamily, "", 12)
	pdf.CellFormat(0, lineHeight, "Report ID: "+doc.ReportID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, "Date: "+doc.ReportDate, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, item := range [][2]string{
		{"Candidate Name", doc.CandidateName},
		{"Email", doc.CandidateEmail},
		{"Job Role", doc.JobRole},
	} {
		pdf.SetFont(fontFamily, "", 10)
		pdf.SetTextColor(102, 102, 102)
		pdf.CellFormat(0, 5, item[0], "", 1, "L", false, 0, "")
		pdf.SetFont(fontFamily, "B", 12)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(0, lineHeight, item[1], "", 1, "L", false, 0, "")
	}

	heading(pdf, "Overall Feedback")
	pdf.SetFont(fontFamily, "", 12)
	pdf.MultiCell(0, lineHeight, doc.Feedback, "", "L", false)

	heading(pdf, "Questions & Answers")
	if len(doc.AllQuestionData) == 0 {
		pdf.SetFont(fontFamily, "", 12)
		pdf.MultiCell(0, lineHeight, PlaceholderQuestions, "", "L", false)
	}
	for i, qa := range doc.AllQuestionData {
		pdf.SetFont(fontFamily, "B", 12)
		pdf.MultiCell(0, lineHeight, fmt.Sprintf("Q%d: %s", i+1, orDefault(qa.Question, PlaceholderQuestion)), "", "L", false)
		pdf.SetFont(fontFamily, "", 12)
		pdf.MultiCell(0, lineHeight, "A: "+orDefault(qa.Answer, PlaceholderAnswer), "", "L", false)
		pdf.Ln(2)
	}

	heading(pdf, "Resume Analysis")
	pdf.SetFont(fontFamily, "", 12)
	pdf.MultiCell(0, lineHeight, doc.ResumeAnalysis, "", "L", false)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to lay out pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func heading(pdf *fpdf.Fpdf, title string) {
	pdf.Ln(4)
	pdf.SetFont(fontFamily, "B", 16)
	pdf.SetTextColor(37, 99, 235)
	pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}
