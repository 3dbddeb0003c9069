package models

import "time"

type InterviewStatus string

const (
	InterviewStarted    InterviewStatus = "started"
	InterviewInProgress InterviewStatus = "in_progress"
	InterviewCompleted  InterviewStatus = "completed"
	InterviewAbandoned  InterviewStatus = "abandoned"
)

func (s InterviewStatus) Valid() bool {
	switch s {
	case InterviewStarted, InterviewInProgress, InterviewCompleted, InterviewAbandoned:
		return true
	}
	return false
}

// Metrics are the five 0-5 ratings of a completed interview.
type Metrics struct {
	Confidence     float64 `json:"confidence"`
	BodyLanguage   float64 `json:"body_language"`
	Knowledge      float64 `json:"knowledge"`
	SkillRelevance float64 `json:"skill_relevance"`
	Fluency        float64 `json:"fluency"`
}

func (m Metrics) Sum() float64 {
	return m.Confidence + m.BodyLanguage + m.Knowledge + m.SkillRelevance + m.Fluency
}

type InterviewReport struct {
	Metrics         *Metrics `json:"metrics,omitempty"`
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
	Tips            []string `json:"tips"`
	OverallFeedback string   `json:"overall_feedback,omitempty"`
}

type QuestionAnswer struct {
	Question   string `json:"question"`
	Transcript string `json:"transcript"`
}

type Candidate struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Profession      string `json:"profession,omitempty"`
	EducationStatus string `json:"education_status,omitempty"`
}

type Resume struct {
	FileName string `json:"file_name,omitempty"`
	Text     string `json:"text,omitempty"`
}

type ResumeAnalysis struct {
	ATSScore   float64  `json:"ats_score"`
	ResumeTips []string `json:"resume_tips"`
}

type Interview struct {
	ID          string           `json:"id"`
	PodID       string           `json:"pod_id,omitempty"`
	Candidate   Candidate        `json:"candidate"`
	JobRole     string           `json:"job_role"`
	Status      InterviewStatus  `json:"status"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Report      *InterviewReport `json:"report,omitempty"`
	Questions   []QuestionAnswer `json:"questions"`
	Resume      *Resume          `json:"resume,omitempty"`
	Analysis    *ResumeAnalysis  `json:"resume_analysis,omitempty"`
}

// Completed reports whether the interview finished with a metrics bundle.
func (i *Interview) Completed() bool {
	return i.Status == InterviewCompleted && i.Report != nil && i.Report.Metrics != nil
}

type InterviewPage struct {
	Interviews []Interview `json:"interviews"`
	Pagination Pagination  `json:"pagination"`
}

type InterviewFilter struct {
	Page   int
	Limit  int
	Status string
	PodID  string
	Search string
}
