package upstream

import (
	"context"
	"net/http"

	"github.com/dimitrije/pod-console/internal/models"
)

type PodReportStats struct {
	TotalInterviews int `json:"totalInterviews"`
	TotalUsers      int `json:"totalUsers"`
}

type PodReports struct {
	Interviews []models.Interview
	Statistics PodReportStats
	Pagination models.Pagination
}

// PodStatistic is one row of the platform-wide per-pod interview summary.
type PodStatistic struct {
	PodID               string  `json:"podId"`
	PodName             string  `json:"podName"`
	TotalInterviews     int     `json:"totalInterviews"`
	CompletedInterviews int     `json:"completedInterviews"`
	TotalUsers          int     `json:"totalUsers"`
	AverageScore        float64 `json:"averageScore"`
}

type wireInterviewPage struct {
	Interviews []wireInterview `json:"interviews"`
	Statistics PodReportStats  `json:"statistics"`
	Pagination wirePagination  `json:"pagination"`
}

func interviewQuery(f models.InterviewFilter) call {
	req := call{method: http.MethodGet}
	req.query = pageQuery(f.Page, f.Limit)
	if f.Status != "" {
		req.query.Set("status", f.Status)
	}
	if f.PodID != "" {
		req.query.Set("podId", f.PodID)
	}
	if f.Search != "" {
		req.query.Set("search", f.Search)
	}
	return req
}

func (a *API) ListInterviews(ctx context.Context, f models.InterviewFilter) (*models.InterviewPage, error) {
	req := interviewQuery(f)
	req.endpoint = "GET /interviews/admin/all-reports"
	req.path = "/interviews/admin/all-reports"

	body, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var w wireInterviewPage
	if err := pageEnvelope.decode(body, &w); err != nil {
		return nil, err
	}
	return &models.InterviewPage{Interviews: interviewsOf(w.Interviews), Pagination: w.Pagination.model()}, nil
}

func (a *API) PodInterviews(ctx context.Context, podID string, f models.InterviewFilter) (*PodReports, error) {
	f.PodID = ""
	req := interviewQuery(f)
	req.endpoint = "GET /interviews/pod/{podId}/reports"
	req.path = "/interviews/pod/" + escape(podID) + "/reports"

	body, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var w wireInterviewPage
	if err := pageEnvelope.decode(body, &w); err != nil {
		return nil, err
	}
	reports := &PodReports{
		Interviews: interviewsOf(w.Interviews),
		Statistics: w.Statistics,
		Pagination: w.Pagination.model(),
	}
	for i := range reports.Interviews {
		if reports.Interviews[i].PodID == "" {
			reports.Interviews[i].PodID = podID
		}
	}
	return reports, nil
}

func (a *API) PodStatistics(ctx context.Context) ([]PodStatistic, error) {
	req, _ := jsonCall("GET /interviews/admin/pod-statistics", http.MethodGet, "/interviews/admin/pod-statistics", nil)
	body, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var stats []PodStatistic
	if err := statsEnvelope.decode(body, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (a *API) GetInterview(ctx context.Context, id string) (*models.Interview, error) {
	req, _ := jsonCall("GET /interviews/{id}", http.MethodGet, "/interviews/"+escape(id), nil)
	body, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var w wireInterview
	if err := interviewEnvelope.decode(body, &w); err != nil {
		return nil, err
	}
	iv := w.model()
	return &iv, nil
}

func (a *API) DeleteInterview(ctx context.Context, id string) error {
	req, _ := jsonCall("DELETE /interviews/{id}", http.MethodDelete, "/interviews/"+escape(id), nil)
	_, err := a.do(ctx, req)
	return err
}
