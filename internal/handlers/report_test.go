package handlers

import (
	"net/http"
	"testing"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/models"
	"github.com/dimitrije/pod-console/internal/reports"
	"github.com/dimitrije/pod-console/internal/services"
	"github.com/dimitrije/pod-console/pkg/dto"
	"github.com/dimitrije/pod-console/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupReportTest(t *testing.T) (*testutil.MockReportService, *testutil.HTTPTestClient) {
	t.Helper()
	mockReportService := new(testutil.MockReportService)
	handler := NewReportHandler(mockReportService)
	app := newTestApp(testutil.SuperAdminActor(),
		route{http.MethodGet, "/reports", handler.List},
		route{http.MethodGet, "/reports/:id", handler.Get},
		route{http.MethodDelete, "/reports/:id", handler.Delete},
		route{http.MethodGet, "/reports/:id/pdf", handler.ExportPDF},
		route{http.MethodPost, "/report-exports", handler.ExportBatch},
		route{http.MethodGet, "/pods/:id/reports", handler.PodReports},
		route{http.MethodGet, "/pod-statistics", handler.PodStatistics},
		route{http.MethodPost, "/generate-pdf", handler.GeneratePDF},
	)
	return mockReportService, testutil.NewHTTPTestClient(t, app)
}

func TestReportHandler_List_Filter(t *testing.T) {
	mockReportService, client := setupReportTest(t)
	mockReportService.On("List", mock.Anything, mock.Anything, models.InterviewFilter{
		Page: 3, Limit: 20, Status: "completed", PodID: "p1", Search: "ana",
	}).Return(&models.InterviewPage{Interviews: []models.Interview{{ID: "iv-1"}}}, nil)

	rec := client.GET("/reports?page=3&limit=20&status=completed&podId=p1&search=ana", nil)

	testutil.AssertStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), "iv-1")
	mockReportService.AssertExpectations(t)
}

func TestReportHandler_Get_NotFound(t *testing.T) {
	mockReportService, client := setupReportTest(t)
	mockReportService.On("Get", mock.Anything, mock.Anything, "iv-9").Return(nil, apperr.NotFound("interview", "iv-9"))

	rec := client.GET("/reports/iv-9", nil)

	testutil.AssertStatus(t, rec, http.StatusNotFound)
}

func TestReportHandler_Delete(t *testing.T) {
	mockReportService, client := setupReportTest(t)
	mockReportService.On("Delete", mock.Anything, mock.Anything, "iv-1").Return(nil)

	rec := client.DELETE("/reports/iv-1", nil, nil)

	testutil.AssertStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), "report deleted")
}

func TestReportHandler_PodReports_IgnoresPodQuery(t *testing.T) {
	mockReportService, client := setupReportTest(t)
	mockReportService.On("PodReports", mock.Anything, mock.Anything, "p1", models.InterviewFilter{Page: 1, Limit: 10}).
		Return(&services.PodReportView{Aggregate: reports.Aggregate{}}, nil)

	rec := client.GET("/pods/p1/reports?podId=other", nil)

	testutil.AssertStatus(t, rec, http.StatusOK)
	mockReportService.AssertExpectations(t)
}

func TestReportHandler_ExportPDF(t *testing.T) {
	mockReportService, client := setupReportTest(t)
	mockReportService.On("ExportPDF", mock.Anything, mock.Anything, "iv-1").Return(&reports.Export{
		FileName: "Interview_Report_Ana.pdf",
		PDF:      []byte("%PDF-1.3 test"),
	}, nil)

	rec := client.GET("/reports/iv-1/pdf", nil)

	testutil.AssertStatus(t, rec, http.StatusOK)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="Interview_Report_Ana.pdf"`)
	assert.Equal(t, "%PDF-1.3 test", rec.Body.String())
}

func TestReportHandler_ExportPDF_NonASCIIFileName(t *testing.T) {
	mockReportService, client := setupReportTest(t)
	mockReportService.On("ExportPDF", mock.Anything, mock.Anything, "iv-3").Return(&reports.Export{
		FileName: "Interview_Report_Łukasz.pdf",
		PDF:      []byte("%PDF"),
	}, nil)

	rec := client.GET("/reports/iv-3/pdf", nil)

	testutil.AssertStatus(t, rec, http.StatusOK)
	assert.Equal(t,
		`attachment; filename="Interview_Report__ukasz.pdf"; filename*=UTF-8''Interview_Report_%C5%81ukasz.pdf`,
		rec.Header().Get("Content-Disposition"))
}

func TestReportHandler_ExportPDF_NoReport(t *testing.T) {
	mockReportService, client := setupReportTest(t)
	mockReportService.On("ExportPDF", mock.Anything, mock.Anything, "iv-2").
		Return(nil, apperr.Validation("report", "interview iv-2 has no report yet"))

	rec := client.GET("/reports/iv-2/pdf", nil)

	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	assert.Contains(t, rec.Body.String(), "has no report yet")
}

func TestReportHandler_ExportBatch(t *testing.T) {
	mockReportService, client := setupReportTest(t)
	mockReportService.On("ExportBatch", mock.Anything, mock.Anything, []string{"iv-1", "iv-2"}, mock.Anything).
		Return(&reports.BatchResult{Succeeded: 1, Failed: 1}, nil, []byte("PK zip"))

	rec := client.POST("/report-exports", dto.BatchExportRequest{IDs: []string{"iv-1", "iv-2"}}, nil)

	testutil.AssertStatus(t, rec, http.StatusOK)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get("X-Export-Succeeded"))
	assert.Equal(t, "1", rec.Header().Get("X-Export-Failed"))
	assert.Equal(t, "PK zip", rec.Body.String())
}

func TestReportHandler_ExportBatch_Empty(t *testing.T) {
	mockReportService, client := setupReportTest(t)

	rec := client.POST("/report-exports", dto.BatchExportRequest{IDs: []string{}}, nil)

	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	assert.Contains(t, rec.Body.String(), "ids needs at least 1 item(s)")
	mockReportService.AssertNotCalled(t, "ExportBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReportHandler_GeneratePDF(t *testing.T) {
	mockReportService, client := setupReportTest(t)
	doc := reports.Document{ReportID: "R-7", CandidateName: "Ana", JobRole: "Engineer"}
	mockReportService.On("RenderDocument", doc).Return([]byte("%PDF"), nil)

	rec := client.POST("/generate-pdf", doc, nil)

	testutil.AssertStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Interview_Report_R-7.pdf")
}

func TestReportHandler_GeneratePDF_ReportIDCannotEscapeFileName(t *testing.T) {
	mockReportService, client := setupReportTest(t)
	doc := reports.Document{ReportID: `../x"y`}
	mockReportService.On("RenderDocument", doc).Return([]byte("%PDF"), nil)

	rec := client.POST("/generate-pdf", doc, nil)

	testutil.AssertStatus(t, rec, http.StatusOK)
	assert.Equal(t,
		`attachment; filename="Interview_Report__x_y.pdf"; filename*=UTF-8''Interview_Report__x_y.pdf`,
		rec.Header().Get("Content-Disposition"))
}

func TestAttachmentDisposition(t *testing.T) {
	assert.Equal(t,
		`attachment; filename="a b.zip"; filename*=UTF-8''a%20b.zip`,
		attachmentDisposition("a b.zip"))
	assert.Equal(t,
		`attachment; filename="q_u_.pdf"; filename*=UTF-8''q%22u%5C.pdf`,
		attachmentDisposition(`q"u\.pdf`))
}

func TestReportHandler_PodStatistics(t *testing.T) {
	mockReportService, client := setupReportTest(t)
	mockReportService.On("PodStatistics", mock.Anything, mock.Anything).Return(nil, apperr.Integrity("cycle through pod p1"))

	rec := client.GET("/pod-statistics", nil)

	testutil.AssertStatus(t, rec, http.StatusInternalServerError)
}
