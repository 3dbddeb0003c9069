package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dimitrije/pod-console/internal/models"
)

// envelope describes where one endpoint category keeps its payload. The
// upstream is inconsistent between categories (and sometimes within one), so
// every category lists the keys it may use in order of preference.
type envelope struct {
	name string
	keys []string
	bare bool
}

var (
	tokenEnvelope     = envelope{name: "token", keys: []string{"token", "accessToken"}}
	adminEnvelope     = envelope{name: "admin", keys: []string{"admin", "data"}, bare: true}
	adminListEnvelope = envelope{name: "admins", keys: []string{"admins", "data"}, bare: true}
	podEnvelope       = envelope{name: "pod", keys: []string{"pod", "data"}, bare: true}
	podListEnvelope   = envelope{name: "pods", keys: []string{"pods", "data"}, bare: true}
	analyticsEnvelope = envelope{name: "analytics", keys: []string{"analytics", "data"}, bare: true}
	interviewEnvelope = envelope{name: "interview", keys: []string{"interview", "data"}, bare: true}
	statsEnvelope     = envelope{name: "statistics", keys: []string{"statistics", "data"}, bare: true}
	pageEnvelope      = envelope{name: "page", keys: []string{"data"}, bare: true}
)

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// unwrap is the only place upstream envelopes are taken apart. It returns
// the payload under the first present key, or the body itself for
// categories that may answer bare.
func (e envelope) unwrap(body []byte) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, false
	}
	if trimmed[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err == nil {
			for _, key := range e.keys {
				if raw, ok := obj[key]; ok && !isNull(raw) {
					return raw, true
				}
			}
		}
	}
	if e.bare && (trimmed[0] == '{' || trimmed[0] == '[') {
		return json.RawMessage(trimmed), true
	}
	return nil, false
}

func (e envelope) decode(body []byte, v any) error {
	raw, ok := e.unwrap(body)
	if !ok {
		return fmt.Errorf("%w: no %s payload", ErrMalformedReply, e.name)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedReply, e.name, err)
	}
	return nil
}

// ref is an id that the upstream sends either as a string or as a populated
// document.
type ref struct {
	ID   string
	Name string
}

func (r *ref) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		r.ID = id
		return nil
	}
	var doc struct {
		ID    string `json:"_id"`
		AltID string `json:"id"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	r.ID = firstOf(doc.ID, doc.AltID)
	r.Name = doc.Name
	return nil
}

func (r *ref) id() *string {
	if r == nil || r.ID == "" {
		return nil
	}
	id := r.ID
	return &id
}

func firstOf(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type wirePod struct {
	ID                string     `json:"_id"`
	AltID             string     `json:"id"`
	Name              string     `json:"name"`
	Type              string     `json:"type"`
	AssociatedEmail   string     `json:"associatedEmail"`
	Email             string     `json:"email"`
	ParentPodID       *ref       `json:"parentPodId"`
	NestingLevel      int        `json:"nestingLevel"`
	EducationalStatus string     `json:"educationalStatus"`
	OrganizationName  string     `json:"organizationName"`
	InstituteName     string     `json:"instituteName"`
	TotalLicenses     int        `json:"totalLicenses"`
	AssignedLicenses  int        `json:"assignedLicenses"`
	AvailableLicenses int        `json:"availableLicenses"`
	IsDeleted         bool       `json:"isDeleted"`
	DeletedAt         *time.Time `json:"deletedAt"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (w *wirePod) model() models.Pod {
	p := models.Pod{
		ID:                firstOf(w.ID, w.AltID),
		Name:              w.Name,
		Type:              models.PodType(w.Type),
		AssociatedEmail:   firstOf(w.AssociatedEmail, w.Email),
		ParentPodID:       w.ParentPodID.id(),
		NestingLevel:      w.NestingLevel,
		EducationalStatus: w.EducationalStatus,
		OrganizationName:  w.OrganizationName,
		InstituteName:     w.InstituteName,
		TotalLicenses:     w.TotalLicenses,
		AssignedLicenses:  w.AssignedLicenses,
		AvailableLicenses: w.AvailableLicenses,
		IsDeleted:         w.IsDeleted,
		DeletedAt:         w.DeletedAt,
		CreatedAt:         w.CreatedAt,
		UpdatedAt:         w.UpdatedAt,
	}
	if w.ParentPodID != nil {
		p.ParentName = w.ParentPodID.Name
	}
	return p
}

func podsOf(wire []wirePod) []models.Pod {
	pods := make([]models.Pod, 0, len(wire))
	for i := range wire {
		pods = append(pods, wire[i].model())
	}
	return pods
}

type wireUser struct {
	ID            string     `json:"_id"`
	AltID         string     `json:"id"`
	PodID         *ref       `json:"podId"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	UniqueID      string     `json:"uniqueId"`
	Licenses      int        `json:"licenses"`
	Qualification string     `json:"qualification"`
	DOB           string     `json:"dob"`
	Verified      bool       `json:"verified"`
	IsVerified    bool       `json:"isVerified"`
	ProfileLocked bool       `json:"profileLocked"`
	CreatedAt     *time.Time `json:"createdAt"`
}

func (w *wireUser) model() models.PodUser {
	u := models.PodUser{
		ID:            firstOf(w.ID, w.AltID),
		Name:          w.Name,
		Email:         w.Email,
		UniqueID:      w.UniqueID,
		Licenses:      w.Licenses,
		Qualification: w.Qualification,
		DOB:           w.DOB,
		Verified:      w.Verified || w.IsVerified,
		ProfileLocked: w.ProfileLocked,
		CreatedAt:     w.CreatedAt,
	}
	if w.PodID != nil {
		u.PodID = w.PodID.ID
	}
	return u
}

type wirePagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func (w wirePagination) model() models.Pagination {
	return models.Pagination{Page: w.Page, Limit: w.Limit, Total: w.Total, Pages: w.Pages}
}

type wireUserPage struct {
	Users      []wireUser     `json:"users"`
	Pagination wirePagination `json:"pagination"`
}

func (w *wireUserPage) model() *models.UserPage {
	page := &models.UserPage{Users: make([]models.PodUser, 0, len(w.Users)), Pagination: w.Pagination.model()}
	for i := range w.Users {
		page.Users = append(page.Users, w.Users[i].model())
	}
	return page
}

// wireUserOut is a user row sent to bulk-add.
type wireUserOut struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	UniqueID string `json:"uniqueId,omitempty"`
	Licenses int    `json:"licenses"`
}

func usersOut(users []models.PodUser) []wireUserOut {
	out := make([]wireUserOut, 0, len(users))
	for _, u := range users {
		out = append(out, wireUserOut{ID: u.ID, Name: u.Name, Email: u.Email, UniqueID: u.UniqueID, Licenses: u.Licenses})
	}
	return out
}

type wireAdmin struct {
	ID           string          `json:"_id"`
	AltID        string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	IsSuperAdmin bool            `json:"isSuperAdmin"`
	Role         json.RawMessage `json:"role"`
	PodID        *ref            `json:"podId"`
}

// model is the single point where the three super-admin encodings collapse
// into a models.Role.
func (w *wireAdmin) model() models.Admin {
	return models.Admin{
		ID:    firstOf(w.ID, w.AltID),
		Name:  w.Name,
		Email: w.Email,
		Role:  models.NormalizeRole(w.IsSuperAdmin, w.Role),
		PodID: w.PodID.id(),
	}
}

type wireAnalytics struct {
	TotalUsers         int     `json:"totalUsers"`
	VerifiedUsers      int     `json:"verifiedUsers"`
	PendingUsers       int     `json:"pendingUsers"`
	ProfileLockedCount int     `json:"profileLockedCount"`
	ActiveUsers        int     `json:"activeUsers"`
	CompletionRate     float64 `json:"completionRate"`
}

func (w *wireAnalytics) model() *models.PodAnalytics {
	return &models.PodAnalytics{
		TotalUsers:         w.TotalUsers,
		VerifiedUsers:      w.VerifiedUsers,
		PendingUsers:       w.PendingUsers,
		ProfileLockedCount: w.ProfileLockedCount,
		ActiveUsers:        w.ActiveUsers,
		CompletionRate:     w.CompletionRate,
	}
}

type wireMetrics struct {
	Confidence     float64 `json:"avgConfidence"`
	BodyLanguage   float64 `json:"avgBodyLanguage"`
	Knowledge      float64 `json:"avgKnowledge"`
	SkillRelevance float64 `json:"avgSkillRelevance"`
	Fluency        float64 `json:"avgFluency"`
}

type wireReport struct {
	Metrics         *wireMetrics `json:"metrics"`
	Strengths       []string     `json:"strengths"`
	Improvements    []string     `json:"improvements"`
	Tips            []string     `json:"tips"`
	OverallFeedback string       `json:"overallFeedback"`
}

type wireCandidate struct {
	ID              string `json:"_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Profession      string `json:"profession"`
	EducationStatus string `json:"educationStatus"`
}

// candidate accepts both the populated user document and a bare user id.
type candidate struct {
	models.Candidate
}

func (c *candidate) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		c.ID = id
		return nil
	}
	var w wireCandidate
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	c.Candidate = models.Candidate{
		ID:              w.ID,
		Name:            w.Name,
		Email:           w.Email,
		Profession:      w.Profession,
		EducationStatus: w.EducationStatus,
	}
	return nil
}

type wireInterview struct {
	ID          string      `json:"_id"`
	AltID       string      `json:"id"`
	User        candidate   `json:"userId"`
	PodID       *ref        `json:"podId"`
	JobRole     string      `json:"jobRole"`
	Status      string      `json:"status"`
	StartedAt   *time.Time  `json:"startedAt"`
	CompletedAt *time.Time  `json:"completedAt"`
	Report      *wireReport `json:"report"`
	Questions   []struct {
		Question   string `json:"question"`
		Transcript string `json:"transcript"`
	} `json:"questionsData"`
	Resume *struct {
		FileName string `json:"fileName"`
		Text     string `json:"text"`
	} `json:"resume"`
	Metadata *struct {
		ATSScore   float64  `json:"atsScore"`
		ResumeTips []string `json:"resumeTips"`
	} `json:"metadata"`
}

func (w *wireInterview) model() models.Interview {
	iv := models.Interview{
		ID:          firstOf(w.ID, w.AltID),
		Candidate:   w.User.Candidate,
		JobRole:     w.JobRole,
		Status:      models.InterviewStatus(w.Status),
		StartedAt:   w.StartedAt,
		CompletedAt: w.CompletedAt,
		Questions:   make([]models.QuestionAnswer, 0, len(w.Questions)),
	}
	if w.PodID != nil {
		iv.PodID = w.PodID.ID
	}
	if r := w.Report; r != nil {
		iv.Report = &models.InterviewReport{
			Strengths:       r.Strengths,
			Improvements:    r.Improvements,
			Tips:            r.Tips,
			OverallFeedback: r.OverallFeedback,
		}
		if m := r.Metrics; m != nil {
			iv.Report.Metrics = &models.Metrics{
				Confidence:     m.Confidence,
				BodyLanguage:   m.BodyLanguage,
				Knowledge:      m.Knowledge,
				SkillRelevance: m.SkillRelevance,
				Fluency:        m.Fluency,
			}
		}
	}
	for _, q := range w.Questions {
		iv.Questions = append(iv.Questions, models.QuestionAnswer{Question: q.Question, Transcript: q.Transcript})
	}
	if w.Resume != nil {
		iv.Resume = &models.Resume{FileName: w.Resume.FileName, Text: w.Resume.Text}
	}
	if w.Metadata != nil {
		iv.Analysis = &models.ResumeAnalysis{ATSScore: w.Metadata.ATSScore, ResumeTips: w.Metadata.ResumeTips}
	}
	return iv
}

func interviewsOf(wire []wireInterview) []models.Interview {
	out := make([]models.Interview, 0, len(wire))
	for i := range wire {
		out = append(out, wire[i].model())
	}
	return out
}

type messageReply struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func messageOf(body []byte) string {
	var m messageReply
	if err := json.Unmarshal(body, &m); err != nil {
		return ""
	}
	return firstOf(m.Message, m.Error)
}
