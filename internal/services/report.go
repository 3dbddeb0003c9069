package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/models"
	"github.com/dimitrije/pod-console/internal/reports"
	"github.com/dimitrije/pod-console/internal/session"
	"github.com/dimitrije/pod-console/internal/sse"
	"github.com/dimitrije/pod-console/internal/upstream"
)

type ReportService struct {
	exporter *reports.Exporter
	notify   Notifier
	logger   *slog.Logger
}

func NewReportService(exporter *reports.Exporter, notify Notifier, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{exporter: exporter, notify: notifierOrNop(notify), logger: logger}
}

func (s *ReportService) List(ctx context.Context, actor session.Actor, filter models.InterviewFilter) (*models.InterviewPage, error) {
	if filter.PodID != "" {
		if err := authorize(ctx, actor, filter.PodID); err != nil {
			return nil, err
		}
	}
	return actor.API().ListInterviews(ctx, filter)
}

func (s *ReportService) Get(ctx context.Context, actor session.Actor, id string) (*models.Interview, error) {
	iv, err := actor.API().GetInterview(ctx, id)
	if err != nil {
		return nil, err
	}
	if iv.PodID != "" {
		if err := authorize(ctx, actor, iv.PodID); err != nil {
			return nil, err
		}
	}
	return iv, nil
}

func (s *ReportService) Delete(ctx context.Context, actor session.Actor, id string) error {
	iv, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := actor.API().DeleteInterview(ctx, id); err != nil {
		return err
	}
	if iv.PodID != "" {
		s.notify.BroadcastPodChange(sse.InterviewDeleted, iv.PodID, actorID(actor))
	}
	s.logger.Info("interview deleted", "interview_id", id, "admin_id", actorID(actor))
	return nil
}

type PodReportView struct {
	Interviews []models.Interview      `json:"interviews"`
	Statistics upstream.PodReportStats `json:"statistics"`
	Pagination models.Pagination       `json:"pagination"`
	Aggregate  reports.Aggregate       `json:"aggregate"`
}

// PodReports lists one page of a pod's interviews. The aggregate covers every
// interview of the pod by users who are still members, whatever the page or
// filter.
func (s *ReportService) PodReports(ctx context.Context, actor session.Actor, podID string, filter models.InterviewFilter) (*PodReportView, error) {
	if err := authorize(ctx, actor, podID); err != nil {
		return nil, err
	}
	page, err := actor.API().PodInterviews(ctx, podID, filter)
	if err != nil {
		return nil, err
	}
	all, err := podInterviews(ctx, actor, podID)
	if err != nil {
		return nil, err
	}
	current, err := members(ctx, actor, podID)
	if err != nil {
		return nil, err
	}
	return &PodReportView{
		Interviews: page.Interviews,
		Statistics: page.Statistics,
		Pagination: page.Pagination,
		Aggregate:  reports.PodAggregate(all, current),
	}, nil
}

func (s *ReportService) PodStatistics(ctx context.Context, actor session.Actor) ([]upstream.PodStatistic, error) {
	stats, err := actor.API().PodStatistics(ctx)
	if err != nil {
		return nil, err
	}
	scope := actor.Admin().ScopePodID()
	if scope == "" {
		return stats, nil
	}
	pods, err := scopedPods(ctx, actor, true)
	if err != nil {
		return nil, err
	}
	in := make(map[string]bool, len(pods))
	for _, p := range pods {
		in[p.ID] = true
	}
	out := make([]upstream.PodStatistic, 0, len(stats))
	for _, st := range stats {
		if in[st.PodID] {
			out = append(out, st)
		}
	}
	return out, nil
}

// ExportPDF renders one interview's report.
func (s *ReportService) ExportPDF(ctx context.Context, actor session.Actor, id string) (*reports.Export, error) {
	iv, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.exporter.Export(iv)
}

// ExportBatch writes a zip of the reports for ids to w, one at a time.
// Interviews that fail are counted and skipped.
func (s *ReportService) ExportBatch(ctx context.Context, actor session.Actor, ids []string, w io.Writer) (*reports.BatchResult, error) {
	if len(ids) == 0 {
		return nil, apperr.Validation("ids", "select at least one report")
	}
	started := time.Now()
	result, err := s.exporter.Batch(ctx, ids, func(ctx context.Context, id string) (*models.Interview, error) {
		return s.Get(ctx, actor, id)
	}, w)
	if result != nil {
		for id, reason := range result.Failures {
			s.logger.Warn("report export failed", "interview_id", id, "reason", reason)
		}
		s.logger.Info("batch export finished",
			"admin_id", actorID(actor),
			"succeeded", result.Succeeded,
			"failed", result.Failed,
			"elapsed", time.Since(started))
	}
	return result, err
}

// RenderDocument renders a report assembled by the caller.
func (s *ReportService) RenderDocument(doc reports.Document) ([]byte, error) {
	return reports.Render(doc, time.Now())
}
