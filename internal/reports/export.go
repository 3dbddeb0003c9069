package reports

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dimitrije/pod-console/internal/models"
)

const (
	PlaceholderNA        = "N/A"
	PlaceholderJobRole   = "General Interview"
	PlaceholderFeedback  = "No feedback available"
	PlaceholderResume    = "No resume analysis available"
	PlaceholderQuestion  = "No question"
	PlaceholderAnswer    = "No answer provided"
	PlaceholderCandidate = "Unknown"
	PlaceholderQuestions = "No questions recorded"
	DefaultFileName      = "Interview_Feedback_Report.pdf"
	reportDateLayout     = "Jan 2, 2006"
	fileDateLayout       = "2006-01-02"
)

type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Document is everything the feedback PDF shows. Its JSON form is the body
// of the generate-pdf endpoint.
type Document struct {
	ReportDate      string `json:"reportDate"`
	ReportID        string `json:"reportId"`
	CandidateName   string `json:"candidateName"`
	CandidateEmail  string `json:"candidateEmail"`
	JobRole         string `json:"jobRole"`
	AllQuestionData []QA   `json:"allQuestionData"`
	Feedback        string `json:"feedback"`
	ResumeAnalysis  string `json:"resumeAnalysis"`
}

func numbered(title string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(title)
	b.WriteString(":")
	for i, item := range items {
		fmt.Fprintf(&b, "\n%d. %s", i+1, item)
	}
	return b.String()
}

// FeedbackText joins the report's feedback lists into numbered sections.
func FeedbackText(r *models.InterviewReport) string {
	if r == nil {
		return PlaceholderFeedback
	}
	var sections []string
	for _, s := range []string{
		numbered("Strengths", r.Strengths),
		numbered("Areas for Improvement", r.Improvements),
		numbered("Tips", r.Tips),
	} {
		if s != "" {
			sections = append(sections, s)
		}
	}
	if r.OverallFeedback != "" {
		sections = append(sections, "\nOverall Feedback:\n"+r.OverallFeedback)
	}
	if len(sections) == 0 {
		return PlaceholderFeedback
	}
	return strings.Join(sections, "\n\n")
}

func ResumeAnalysisText(a *models.ResumeAnalysis) string {
	if a == nil || a.ATSScore == 0 {
		return PlaceholderResume
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ATS Score: %s/100\n\nImprovement Suggestions:", formatScore(a.ATSScore))
	for i, tip := range a.ResumeTips {
		fmt.Fprintf(&b, "\n%d. %s", i+1, tip)
	}
	return b.String()
}

func formatScore(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

func QuestionData(questions []models.QuestionAnswer) []QA {
	out := make([]QA, len(questions))
	for i, q := range questions {
		out[i] = QA{Question: q.Question, Answer: q.Transcript}
		if strings.TrimSpace(out[i].Question) == "" {
			out[i].Question = PlaceholderQuestion
		}
		if strings.TrimSpace(out[i].Answer) == "" {
			out[i].Answer = PlaceholderAnswer
		}
	}
	return out
}

// ReportID formats the admin export id ADM-YYYY-MM-NNN.
func ReportID(now time.Time, n int) string {
	if n < 0 {
		n = -n
	}
	return fmt.Sprintf("ADM-%04d-%02d-%03d", now.Year(), int(now.Month()), n%1000)
}

// separator reports runes that may not appear in a file name part: path
// separators, characters reserved on common filesystems, quotes and controls.
func separator(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune(`/\:*?"<>|`, r)
}

// FilePart turns s into one file name component. Runs of whitespace and
// unsafe characters become a single underscore, and leading dots are dropped
// so the part can never name a parent or hidden file. An empty result falls
// back to fallback.
func FilePart(s, fallback string) string {
	for _, v := range []string{s, fallback} {
		part := strings.TrimLeft(strings.Join(strings.FieldsFunc(v, separator), "_"), ".")
		if part != "" {
			return part
		}
	}
	return "_"
}

// FileName is Interview_Report_<name>_<role>_<YYYY-MM-DD>.pdf with each part
// passed through FilePart.
func FileName(candidateName, jobRole string, exported time.Time) string {
	return fmt.Sprintf("Interview_Report_%s_%s_%s.pdf",
		FilePart(candidateName, PlaceholderCandidate),
		FilePart(jobRole, PlaceholderJobRole),
		exported.Format(fileDateLayout))
}

// BuildDocument assembles the export of one interview. seq feeds the NNN part
// of the report id.
func BuildDocument(iv *models.Interview, now time.Time, seq int) Document {
	name := iv.Candidate.Name
	if strings.TrimSpace(name) == "" {
		name = PlaceholderCandidate
	}
	role := iv.JobRole
	if strings.TrimSpace(role) == "" {
		role = PlaceholderJobRole
	}
	return Document{
		ReportDate:      now.Format(reportDateLayout),
		ReportID:        ReportID(now, seq),
		CandidateName:   name,
		CandidateEmail:  iv.Candidate.Email,
		JobRole:         role,
		AllQuestionData: QuestionData(iv.Questions),
		Feedback:        FeedbackText(iv.Report),
		ResumeAnalysis:  ResumeAnalysisText(iv.Analysis),
	}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// withPlaceholders fills every empty field so nothing is silently omitted
// from the rendered page.
func (d Document) withPlaceholders() Document {
	d.ReportDate = orDefault(d.ReportDate, PlaceholderNA)
	d.ReportID = orDefault(d.ReportID, PlaceholderNA)
	d.CandidateName = orDefault(d.CandidateName, PlaceholderNA)
	d.CandidateEmail = orDefault(d.CandidateEmail, PlaceholderNA)
	d.JobRole = orDefault(d.JobRole, PlaceholderJobRole)
	d.Feedback = orDefault(d.Feedback, PlaceholderFeedback)
	d.ResumeAnalysis = orDefault(d.ResumeAnalysis, PlaceholderResume)
	return d
}
