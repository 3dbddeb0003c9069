package testutil

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
	"github.com/stretchr/testify/mock"
)

// MockAuthService mocks the AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LoginResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, sessionID uuid.UUID) (*models.Admin, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Admin), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, sessionID uuid.UUID) (*services.LoginResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LoginResult), args.Error(1)
}

func (m *MockAuthService) SetupPassword(ctx context.Context, token, password string) error {
	args := m.Called(ctx, token, password)
	return args.Error(0)
}

// MockActorResolver mocks the session lookup used by the Session middleware
type MockActorResolver struct {
	mock.Mock
}

func (m *MockActorResolver) Actor(ctx context.Context, sessionID uuid.UUID) (session.Actor, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(session.Actor), args.Error(1)
}

// MockPodService mocks the PodService
type MockPodService struct {
	mock.Mock
}

func (m *MockPodService) Tree(ctx context.Context, actor session.Actor, search string) ([]hierarchy.Row, error) {
	args := m.Called(ctx, actor, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]hierarchy.Row), args.Error(1)
}

func (m *MockPodService) Bin(ctx context.Context, actor session.Actor, search string) ([]lifecycle.BinEntry, error) {
	args := m.Called(ctx, actor, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]lifecycle.BinEntry), args.Error(1)
}

func (m *MockPodService) Create(ctx context.Context, actor session.Actor, input services.CreatePodInput) (*models.Pod, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pod), args.Error(1)
}

func (m *MockPodService) Get(ctx context.Context, actor session.Actor, id string) (*models.Pod, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pod), args.Error(1)
}

func (m *MockPodService) Children(ctx context.Context, actor session.Actor, id string) ([]models.Pod, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Pod), args.Error(1)
}

func (m *MockPodService) Hierarchy(ctx context.Context, actor session.Actor, id string) (*upstream.Hierarchy, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upstream.Hierarchy), args.Error(1)
}

func (m *MockPodService) Analytics(ctx context.Context, actor session.Actor, id string) (*models.PodAnalytics, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PodAnalytics), args.Error(1)
}

func (m *MockPodService) AggregatedAnalytics(ctx context.Context, actor session.Actor) (*services.AggregatedAnalytics, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AggregatedAnalytics), args.Error(1)
}

func (m *MockPodService) Users(ctx context.Context, actor session.Actor, id string, page, limit int, search string) (*models.UserPage, error) {
	args := m.Called(ctx, actor, id, page, limit, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPage), args.Error(1)
}

func (m *MockPodService) AddUser(ctx context.Context, actor session.Actor, podID string, input services.AddUserInput) (*models.Pod, error) {
	args := m.Called(ctx, actor, podID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pod), args.Error(1)
}

func (m *MockPodService) RemoveUser(ctx context.Context, actor session.Actor, podID, userID string) (*models.Pod, error) {
	args := m.Called(ctx, actor, podID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pod), args.Error(1)
}

func (m *MockPodService) PreviewUsers(ctx context.Context, actor session.Actor, podID, fileName string, data []byte) (*upstream.BulkUsers, error) {
	args := m.Called(ctx, actor, podID, fileName, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upstream.BulkUsers), args.Error(1)
}

func (m *MockPodService) UploadUsersExcel(ctx context.Context, actor session.Actor, podID, fileName string, data []byte) (*models.Pod, error) {
	args := m.Called(ctx, actor, podID, fileName, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pod), args.Error(1)
}

func (m *MockPodService) BulkImport(ctx context.Context, actor session.Actor, podID, fileName string, data []byte, dryRun bool) (*services.BulkImportResult, error) {
	args := m.Called(ctx, actor, podID, fileName, data, dryRun)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BulkImportResult), args.Error(1)
}

func (m *MockPodService) SoftDelete(ctx context.Context, actor session.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockPodService) Restore(ctx context.Context, actor session.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockPodService) Purge(ctx context.Context, actor session.Actor, id, confirmation string) error {
	args := m.Called(ctx, actor, id, confirmation)
	return args.Error(0)
}

func (m *MockPodService) SetLicenses(ctx context.Context, actor session.Actor, id string, total int) (*models.Pod, error) {
	args := m.Called(ctx, actor, id, total)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pod), args.Error(1)
}

func (m *MockPodService) AddLicenses(ctx context.Context, actor session.Actor, id string, amount int) (*models.Pod, error) {
	args := m.Called(ctx, actor, id, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pod), args.Error(1)
}

// MockMassUploadService mocks the MassUploadService
type MockMassUploadService struct {
	mock.Mock
}

func (m *MockMassUploadService) Template() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockMassUploadService) Preview(ctx context.Context, actor session.Actor, fileName string, data []byte) (*ledger.Preview, error) {
	args := m.Called(ctx, actor, fileName, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Preview), args.Error(1)
}

func (m *MockMassUploadService) Upload(ctx context.Context, actor session.Actor, fileName string, data []byte) (*ledger.MassResult, error) {
	args := m.Called(ctx, actor, fileName, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.MassResult), args.Error(1)
}

// MockReportService mocks the ReportService
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) List(ctx context.Context, actor session.Actor, filter models.InterviewFilter) (*models.InterviewPage, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InterviewPage), args.Error(1)
}

func (m *MockReportService) Get(ctx context.Context, actor session.Actor, id string) (*models.Interview, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Interview), args.Error(1)
}

func (m *MockReportService) Delete(ctx context.Context, actor session.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockReportService) PodReports(ctx context.Context, actor session.Actor, podID string, filter models.InterviewFilter) (*services.PodReportView, error) {
	args := m.Called(ctx, actor, podID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PodReportView), args.Error(1)
}

func (m *MockReportService) PodStatistics(ctx context.Context, actor session.Actor) ([]upstream.PodStatistic, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]upstream.PodStatistic), args.Error(1)
}

func (m *MockReportService) ExportPDF(ctx context.Context, actor session.Actor, id string) (*reports.Export, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.Export), args.Error(1)
}

// ExportBatch writes the bytes configured as the third return value to w.
func (m *MockReportService) ExportBatch(ctx context.Context, actor session.Actor, ids []string, w io.Writer) (*reports.BatchResult, error) {
	args := m.Called(ctx, actor, ids, w)
	if data, ok := args.Get(2).([]byte); ok {
		_, _ = w.Write(data)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.BatchResult), args.Error(1)
}

func (m *MockReportService) RenderDocument(doc reports.Document) ([]byte, error) {
	args := m.Called(doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockAdminService mocks the AdminService
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) List(ctx context.Context, actor session.Actor) ([]models.Admin, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Admin), args.Error(1)
}

func (m *MockAdminService) Create(ctx context.Context, actor session.Actor, input services.CreateAdminInput) (*models.Admin, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Admin), args.Error(1)
}

func (m *MockAdminService) Delete(ctx context.Context, actor session.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockAdminService) CreateRole(ctx context.Context, actor session.Actor, input services.CreateRoleInput) error {
	args := m.Called(ctx, actor, input)
	return args.Error(0)
}

func (m *MockAdminService) Users(ctx context.Context, actor session.Actor, q upstream.UserQuery) (*models.UserPage, error) {
	args := m.Called(ctx, actor, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPage), args.Error(1)
}

// MockSSEHub mocks the SSE hub
type MockSSEHub struct {
	mock.Mock
}

func (m *MockSSEHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockSSEHub) Unregister(client *sse.Client) {
	m.Called(client)
}

func (m *MockSSEHub) Subscribe(clientID, adminID, podID string) bool {
	args := m.Called(clientID, adminID, podID)
	return args.Bool(0)
}

func (m *MockSSEHub) Unsubscribe(clientID, adminID, podID string) bool {
	args := m.Called(clientID, adminID, podID)
	return args.Bool(0)
}
