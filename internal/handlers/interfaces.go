package handlers

import (
	"context"
	"io"

	"github.com/dimitrije/pod-console/internal/hierarchy"
	"github.com/dimitrije/pod-console/internal/ledger"
	"github.com/dimitrije/pod-console/internal/lifecycle"
	"github.com/dimitrije/pod-console/internal/models"
	"github.com/dimitrije/pod-console/internal/reports"
	"github.com/dimitrije/pod-console/internal/services"
	"github.com/dimitrije/pod-console/internal/session"
	"github.com/dimitrije/pod-console/internal/sse"
	"github.com/dimitrije/pod-console/internal/upstream"
	"github.com/google/uuid"
)

// AuthServiceInterface defines the methods used by handlers from AuthService
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	Me(ctx context.Context, sessionID uuid.UUID) (*models.Admin, error)
	Refresh(ctx context.Context, sessionID uuid.UUID) (*services.LoginResult, error)
	SetupPassword(ctx context.Context, token, password string) error
}

// PodServiceInterface defines the methods used by handlers from PodService
type PodServiceInterface interface {
	Tree(ctx context.Context, actor session.Actor, search string) ([]hierarchy.Row, error)
	Bin(ctx context.Context, actor session.Actor, search string) ([]lifecycle.BinEntry, error)
	Create(ctx context.Context, actor session.Actor, input services.CreatePodInput) (*models.Pod, error)
	Get(ctx context.Context, actor session.Actor, id string) (*models.Pod, error)
	Children(ctx context.Context, actor session.Actor, id string) ([]models.Pod, error)
	Hierarchy(ctx context.Context, actor session.Actor, id string) (*upstream.Hierarchy, error)
	Analytics(ctx context.Context, actor session.Actor, id string) (*models.PodAnalytics, error)
	AggregatedAnalytics(ctx context.Context, actor session.Actor) (*services.AggregatedAnalytics, error)
	Users(ctx context.Context, actor session.Actor, id string, page, limit int, search string) (*models.UserPage, error)
	AddUser(ctx context.Context, actor session.Actor, podID string, input services.AddUserInput) (*models.Pod, error)
	RemoveUser(ctx context.Context, actor session.Actor, podID, userID string) (*models.Pod, error)
	PreviewUsers(ctx context.Context, actor session.Actor, podID, fileName string, data []byte) (*upstream.BulkUsers, error)
	UploadUsersExcel(ctx context.Context, actor session.Actor, podID, fileName string, data []byte) (*models.Pod, error)
	BulkImport(ctx context.Context, actor session.Actor, podID, fileName string, data []byte, dryRun bool) (*services.BulkImportResult, error)
	SoftDelete(ctx context.Context, actor session.Actor, id string) error
	Restore(ctx context.Context, actor session.Actor, id string) error
	Purge(ctx context.Context, actor session.Actor, id, confirmation string) error
	SetLicenses(ctx context.Context, actor session.Actor, id string, total int) (*models.Pod, error)
	AddLicenses(ctx context.Context, actor session.Actor, id string, amount int) (*models.Pod, error)
}

// MassUploadServiceInterface defines the methods used by handlers from MassUploadService
type MassUploadServiceInterface interface {
	Template() []byte
	Preview(ctx context.Context, actor session.Actor, fileName string, data []byte) (*ledger.Preview, error)
	Upload(ctx context.Context, actor session.Actor, fileName string, data []byte) (*ledger.MassResult, error)
}

// ReportServiceInterface defines the methods used by handlers from ReportService
type ReportServiceInterface interface {
	List(ctx context.Context, actor session.Actor, filter models.InterviewFilter) (*models.InterviewPage, error)
	Get(ctx context.Context, actor session.Actor, id string) (*models.Interview, error)
	Delete(ctx context.Context, actor session.Actor, id string) error
	PodReports(ctx context.Context, actor session.Actor, podID string, filter models.InterviewFilter) (*services.PodReportView, error)
	PodStatistics(ctx context.Context, actor session.Actor) ([]upstream.PodStatistic, error)
	ExportPDF(ctx context.Context, actor session.Actor, id string) (*reports.Export, error)
	ExportBatch(ctx context.Context, actor session.Actor, ids []string, w io.Writer) (*reports.BatchResult, error)
	RenderDocument(doc reports.Document) ([]byte, error)
}

// AdminServiceInterface defines the methods used by handlers from AdminService
type AdminServiceInterface interface {
	List(ctx context.Context, actor session.Actor) ([]models.Admin, error)
	Create(ctx context.Context, actor session.Actor, input services.CreateAdminInput) (*models.Admin, error)
	Delete(ctx context.Context, actor session.Actor, id string) error
	CreateRole(ctx context.Context, actor session.Actor, input services.CreateRoleInput) error
	Users(ctx context.Context, actor session.Actor, q upstream.UserQuery) (*models.UserPage, error)
}

// HubInterface defines the methods used by handlers from the SSE hub
type HubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
	Subscribe(clientID, adminID, podID string) bool
	Unsubscribe(clientID, adminID, podID string) bool
}
