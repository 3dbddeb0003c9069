package handlers

import (
	"strconv"

	"github.com/dimitrije/pod-console/internal/models"
	"github.com/dimitrije/pod-console/internal/services"
	"github.com/dimitrije/pod-console/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type PodHandler struct {
	podService PodServiceInterface
}

func NewPodHandler(podService PodServiceInterface) *PodHandler {
	return &PodHandler{podService: podService}
}

func queryInt(c *drift.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.QueryParam(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func (h *PodHandler) Tree(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	rows, err := h.podService.Tree(c.Request.Context(), a, c.QueryParam("search"))
	if err != nil {
		respondError(c, err, "failed to list pods")
		return
	}

	response := make([]dto.TreeRowResponse, len(rows))
	for i, row := range rows {
		response[i] = dto.TreeRowResponse{
			Pod:          row.Pod,
			DisplayLevel: row.DisplayLevel,
			HasChildren:  row.HasChildren,
		}
	}

	_ = c.JSON(200, response)
}

func (h *PodHandler) Bin(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	entries, err := h.podService.Bin(c.Request.Context(), a, c.QueryParam("search"))
	if err != nil {
		respondError(c, err, "failed to list deleted pods")
		return
	}

	_ = c.JSON(200, entries)
}

func (h *PodHandler) Create(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req dto.CreatePodRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	input := services.CreatePodInput{
		Name:              req.Name,
		Type:              models.PodType(req.Type),
		Email:             req.AssociatedEmail,
		EducationalStatus: req.EducationalStatus,
		OrganizationName:  req.OrganizationName,
		InstituteName:     req.InstituteName,
	}
	if req.ParentPodID != nil {
		input.ParentPodID = *req.ParentPodID
	}

	pod, err := h.podService.Create(c.Request.Context(), a, input)
	if err != nil {
		respondError(c, err, "failed to create pod")
		return
	}

	_ = c.JSON(201, dto.PodResponse{Pod: pod})
}

func (h *PodHandler) Get(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	pod, err := h.podService.Get(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to load pod")
		return
	}

	_ = c.JSON(200, dto.PodResponse{Pod: pod})
}

func (h *PodHandler) Children(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	children, err := h.podService.Children(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to load child pods")
		return
	}

	_ = c.JSON(200, children)
}

func (h *PodHandler) Hierarchy(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	tree, err := h.podService.Hierarchy(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to load pod hierarchy")
		return
	}

	_ = c.JSON(200, tree)
}

func (h *PodHandler) Analytics(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	analytics, err := h.podService.Analytics(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to load analytics")
		return
	}

	_ = c.JSON(200, analytics)
}

func (h *PodHandler) AggregatedAnalytics(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	analytics, err := h.podService.AggregatedAnalytics(c.Request.Context(), a)
	if err != nil {
		respondError(c, err, "failed to load analytics")
		return
	}

	_ = c.JSON(200, analytics)
}

func (h *PodHandler) Users(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	page, err := h.podService.Users(c.Request.Context(), a, c.Param("id"),
		queryInt(c, "page", 1), queryInt(c, "limit", 10), c.QueryParam("search"))
	if err != nil {
		respondError(c, err, "failed to load pod users")
		return
	}

	_ = c.JSON(200, page)
}

func (h *PodHandler) AddUser(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req dto.AddUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	pod, err := h.podService.AddUser(c.Request.Context(), a, c.Param("id"), services.AddUserInput{
		Name:          req.Name,
		Email:         req.Email,
		Qualification: req.Qualification,
		DOB:           req.DOB,
		Licenses:      req.Licenses,
	})
	if err != nil {
		respondError(c, err, "failed to add user")
		return
	}

	_ = c.JSON(201, dto.PodResponse{Pod: pod})
}

func (h *PodHandler) RemoveUser(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	pod, err := h.podService.RemoveUser(c.Request.Context(), a, c.Param("id"), c.Param("userId"))
	if err != nil {
		respondError(c, err, "failed to remove user")
		return
	}

	_ = c.JSON(200, dto.PodResponse{Pod: pod})
}

func (h *PodHandler) PreviewUsers(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	name, data, err := readUpload(c)
	if err != nil {
		c.BadRequest(err.Error())
		return
	}

	preview, err := h.podService.PreviewUsers(c.Request.Context(), a, c.Param("id"), name, data)
	if err != nil {
		respondError(c, err, "failed to preview users")
		return
	}

	_ = c.JSON(200, dto.BulkUsersResponse{
		NewUsers:      preview.NewUsers,
		ExistingUsers: preview.ExistingUsers,
		InvalidEmails: preview.InvalidEmails,
	})
}

func (h *PodHandler) UploadUsersExcel(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	name, data, err := readUpload(c)
	if err != nil {
		c.BadRequest(err.Error())
		return
	}

	pod, err := h.podService.UploadUsersExcel(c.Request.Context(), a, c.Param("id"), name, data)
	if err != nil {
		respondError(c, err, "failed to upload users")
		return
	}

	_ = c.JSON(200, dto.PodResponse{Pod: pod})
}

// BulkAdd plans the uploaded sheet against the pod and applies it unless
// ?dry_run=true. A plan rejected for licenses is returned with the 400 so
// the dashboard can show which rows caused it.
func (h *PodHandler) BulkAdd(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	name, data, err := readUpload(c)
	if err != nil {
		c.BadRequest(err.Error())
		return
	}

	dryRun := c.QueryParam("dry_run") == "true"
	result, err := h.podService.BulkImport(c.Request.Context(), a, c.Param("id"), name, data, dryRun)
	if err != nil {
		if result != nil && result.Import != nil {
			respondRejectedImport(c, err, result)
			return
		}
		respondError(c, err, "failed to import users")
		return
	}

	_ = c.JSON(200, result)
}

func respondRejectedImport(c *drift.Context, err error, result *services.BulkImportResult) {
	status, payload := errorPayload(err)
	if status == 0 {
		respondError(c, err, "failed to import users")
		return
	}
	payload["import"] = result.Import
	_ = c.JSON(status, payload)
}

func (h *PodHandler) Delete(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	if err := h.podService.SoftDelete(c.Request.Context(), a, c.Param("id")); err != nil {
		respondError(c, err, "failed to delete pod")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "pod moved to the bin"})
}

func (h *PodHandler) Restore(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	if err := h.podService.Restore(c.Request.Context(), a, c.Param("id")); err != nil {
		respondError(c, err, "failed to restore pod")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "pod restored"})
}

func (h *PodHandler) Purge(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req dto.PurgeRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	if err := h.podService.Purge(c.Request.Context(), a, c.Param("id"), req.Confirmation); err != nil {
		respondError(c, err, "failed to delete pod permanently")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "pod permanently deleted"})
}

func (h *PodHandler) SetLicenses(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req dto.SetLicensesRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	pod, err := h.podService.SetLicenses(c.Request.Context(), a, c.Param("id"), *req.TotalLicenses)
	if err != nil {
		respondError(c, err, "failed to update licenses")
		return
	}

	_ = c.JSON(200, dto.PodResponse{Pod: pod})
}

func (h *PodHandler) AddLicenses(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req dto.AddLicensesRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	pod, err := h.podService.AddLicenses(c.Request.Context(), a, c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, err, "failed to add licenses")
		return
	}

	_ = c.JSON(200, dto.PodResponse{Pod: pod})
}
