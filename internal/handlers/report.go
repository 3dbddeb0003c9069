package handlers

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/dimitrije/pod-console/internal/models"
	"github.com/dimitrije/pod-console/internal/reports"
	"github.com/dimitrije/pod-console/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type ReportHandler struct {
	reportService ReportServiceInterface
}

func NewReportHandler(reportService ReportServiceInterface) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func interviewFilter(c *drift.Context) models.InterviewFilter {
	return models.InterviewFilter{
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 10),
		Status: c.QueryParam("status"),
		PodID:  c.QueryParam("podId"),
		Search: c.QueryParam("search"),
	}
}

func (h *ReportHandler) List(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	page, err := h.reportService.List(c.Request.Context(), a, interviewFilter(c))
	if err != nil {
		respondError(c, err, "failed to list reports")
		return
	}

	_ = c.JSON(200, page)
}

func (h *ReportHandler) Get(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	iv, err := h.reportService.Get(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to load report")
		return
	}

	_ = c.JSON(200, iv)
}

func (h *ReportHandler) Delete(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	if err := h.reportService.Delete(c.Request.Context(), a, c.Param("id")); err != nil {
		respondError(c, err, "failed to delete report")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "report deleted"})
}

func (h *ReportHandler) PodReports(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	filter := interviewFilter(c)
	filter.PodID = ""
	view, err := h.reportService.PodReports(c.Request.Context(), a, c.Param("id"), filter)
	if err != nil {
		respondError(c, err, "failed to load pod reports")
		return
	}

	_ = c.JSON(200, view)
}

func (h *ReportHandler) PodStatistics(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	stats, err := h.reportService.PodStatistics(c.Request.Context(), a)
	if err != nil {
		respondError(c, err, "failed to load pod statistics")
		return
	}

	_ = c.JSON(200, stats)
}

func (h *ReportHandler) ExportPDF(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	export, err := h.reportService.ExportPDF(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to export report")
		return
	}

	writeAttachment(c, "application/pdf", export.FileName, export.PDF)
}

// ExportBatch zips the selected reports. Counts travel in headers because
// the body is the archive.
func (h *ReportHandler) ExportBatch(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req dto.BatchExportRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	var buf bytes.Buffer
	result, err := h.reportService.ExportBatch(c.Request.Context(), a, req.IDs, &buf)
	if err != nil {
		respondError(c, err, "failed to export reports")
		return
	}

	c.Response.Header().Set("X-Export-Succeeded", strconv.Itoa(result.Succeeded))
	c.Response.Header().Set("X-Export-Failed", strconv.Itoa(result.Failed))
	writeAttachment(c, "application/zip", "interview_reports.zip", buf.Bytes())
}

// GeneratePDF renders a report document posted by the dashboard.
func (h *ReportHandler) GeneratePDF(c *drift.Context) {
	var doc reports.Document
	if err := c.BindJSON(&doc); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	data, err := h.reportService.RenderDocument(doc)
	if err != nil {
		respondError(c, err, "failed to generate pdf")
		return
	}

	name := reports.FilePart(doc.ReportID, "report")
	writeAttachment(c, "application/pdf", fmt.Sprintf("Interview_Report_%s.pdf", name), data)
}

func writeAttachment(c *drift.Context, contentType, fileName string, data []byte) {
	c.Response.Header().Set("Content-Type", contentType)
	c.Response.Header().Set("Content-Disposition", attachmentDisposition(fileName))
	c.Response.Header().Set("Content-Length", strconv.Itoa(len(data)))
	c.Response.WriteHeader(200)
	_, _ = c.Response.Write(data)
}

// attachmentDisposition sends fileName twice: as an ASCII quoted-string for
// old clients and as an RFC 5987 UTF-8 ext-value.
func attachmentDisposition(fileName string) string {
	fallback := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, fileName)

	var ext strings.Builder
	for _, b := range []byte(fileName) {
		switch {
		case 'a' <= b && b <= 'z', 'A' <= b && b <= 'Z', '0' <= b && b <= '9',
			strings.IndexByte("!#$&+-.^_`|~", b) >= 0:
			ext.WriteByte(b)
		default:
			fmt.Fprintf(&ext, "%%%02X", b)
		}
	}
	return `attachment; filename="` + fallback + `"; filename*=UTF-8''` + ext.String()
}
