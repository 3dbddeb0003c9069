package reports

import (
	"testing"
	"time"

	"github.com/dimitrije/pod-console/internal/models"
	"github.com/stretchr/testify/assert"
)

var exportTime = time.Date(2026, 4, 7, 15, 30, 0, 0, time.UTC)

func TestFeedbackText_AllSections(t *testing.T) {
	r := &models.InterviewReport{
		Strengths:       []string{"Clear answers", "Good posture"},
		Improvements:    []string{"Pace"},
		Tips:            []string{"Practice STAR"},
		OverallFeedback: "Solid.",
	}

	want := "Strengths:\n1. Clear answers\n2. Good posture\n\n" +
		"Areas for Improvement:\n1. Pace\n\n" +
		"Tips:\n1. Practice STAR\n\n" +
		"\nOverall Feedback:\nSolid."

	assert.Equal(t, want, FeedbackText(r))
}

func TestFeedbackText_Empty(t *testing.T) {
	assert.Equal(t, PlaceholderFeedback, FeedbackText(nil))
	assert.Equal(t, PlaceholderFeedback, FeedbackText(&models.InterviewReport{}))
}

func TestResumeAnalysisText(t *testing.T) {
	text := ResumeAnalysisText(&models.ResumeAnalysis{ATSScore: 72, ResumeTips: []string{"Add metrics", "Trim summary"}})

	assert.Equal(t, "ATS Score: 72/100\n\nImprovement Suggestions:\n1. Add metrics\n2. Trim summary", text)
	assert.Equal(t, PlaceholderResume, ResumeAnalysisText(nil))
	assert.Equal(t, PlaceholderResume, ResumeAnalysisText(&models.ResumeAnalysis{}))
}

func TestQuestionData_Placeholders(t *testing.T) {
	qa := QuestionData([]models.QuestionAnswer{
		{Question: "Why us?", Transcript: "Because."},
		{Question: " ", Transcript: ""},
	})

	assert.Equal(t, []QA{
		{Question: "Why us?", Answer: "Because."},
		{Question: PlaceholderQuestion, Answer: PlaceholderAnswer},
	}, qa)
}

func TestReportID(t *testing.T) {
	assert.Equal(t, "ADM-2026-04-007", ReportID(exportTime, 7))
	assert.Equal(t, "ADM-2026-04-234", ReportID(exportTime, 1234))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Interview_Report_Jane_Q_Doe_Backend_Engineer_2026-04-07.pdf",
		FileName("Jane  Q Doe", "Backend\tEngineer", exportTime))
	assert.Equal(t, "Interview_Report_Unknown_General_Interview_2026-04-07.pdf",
		FileName("", " ", exportTime))
}

func TestFileName_UnsafeCharacters(t *testing.T) {
	assert.Equal(t, "Interview_Report__.._etc_passwd_Eng_lead_ops_2026-04-07.pdf",
		FileName("../../etc/passwd", `Eng "lead"\ops`, exportTime))
	assert.Equal(t, "Interview_Report_Łukasz_Ananyā_QA_2026-04-07.pdf",
		FileName("Łukasz Ananyā", "QA\x00", exportTime))
}

func TestFilePart(t *testing.T) {
	assert.Equal(t, "a_b", FilePart(" a:*?<>|b ", "x"))
	assert.Equal(t, "x", FilePart("...", "x"))
	assert.Equal(t, "x", FilePart("/ /", "x"))
	assert.Equal(t, "_", FilePart("", ""))
}

func TestBuildDocument(t *testing.T) {
	iv := &models.Interview{
		Candidate: models.Candidate{Name: "Jane Doe", Email: "jane@x.com"},
		Report:    &models.InterviewReport{OverallFeedback: "Good"},
		Questions: []models.QuestionAnswer{{Question: "Q?", Transcript: "A."}},
	}

	doc := BuildDocument(iv, exportTime, 42)

	assert.Equal(t, "Apr 7, 2026", doc.ReportDate)
	assert.Equal(t, "ADM-2026-04-042", doc.ReportID)
	assert.Equal(t, "Jane Doe", doc.CandidateName)
	assert.Equal(t, "jane@x.com", doc.CandidateEmail)
	assert.Equal(t, PlaceholderJobRole, doc.JobRole)
	assert.Equal(t, "\nOverall Feedback:\nGood", doc.Feedback)
	assert.Equal(t, PlaceholderResume, doc.ResumeAnalysis)
	assert.Len(t, doc.AllQuestionData, 1)
}

func TestDocument_WithPlaceholders(t *testing.T) {
	d := Document{}.withPlaceholders()

	assert.Equal(t, PlaceholderNA, d.CandidateName)
	assert.Equal(t, PlaceholderNA, d.CandidateEmail)
	assert.Equal(t, PlaceholderJobRole, d.JobRole)
	assert.Equal(t, PlaceholderFeedback, d.Feedback)
	assert.Equal(t, PlaceholderResume, d.ResumeAnalysis)
}
