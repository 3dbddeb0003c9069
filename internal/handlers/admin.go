package handlers

import (
	"strconv"

	"github.com/dimitrije/pod-console/internal/services"
	"github.com/dimitrije/pod-console/internal/upstream"
	"github.com/dimitrije/pod-console/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type AdminHandler struct {
	adminService AdminServiceInterface
}

func NewAdminHandler(adminService AdminServiceInterface) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) List(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	admins, err := h.adminService.List(c.Request.Context(), a)
	if err != nil {
		respondError(c, err, "failed to list admins")
		return
	}

	_ = c.JSON(200, admins)
}

func (h *AdminHandler) Create(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req dto.CreateAdminRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	admin, err := h.adminService.Create(c.Request.Context(), a, services.CreateAdminInput{
		Name:   req.Name,
		Email:  req.Email,
		RoleID: req.RoleID,
	})
	if err != nil {
		respondError(c, err, "failed to create admin")
		return
	}

	_ = c.JSON(201, admin)
}

func (h *AdminHandler) Delete(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	if err := h.adminService.Delete(c.Request.Context(), a, c.Param("id")); err != nil {
		respondError(c, err, "failed to delete admin")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "admin deleted"})
}

func (h *AdminHandler) CreateRole(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req dto.CreateRoleRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	err := h.adminService.CreateRole(c.Request.Context(), a, services.CreateRoleInput{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		respondError(c, err, "failed to create role")
		return
	}

	_ = c.JSON(201, dto.MessageResponse{Message: "role created"})
}

func (h *AdminHandler) Users(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	q := upstream.UserQuery{
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 10),
		Search: c.QueryParam("search"),
	}
	if v, err := strconv.ParseBool(c.QueryParam("verified")); err == nil {
		q.Verified = &v
	}

	page, err := h.adminService.Users(c.Request.Context(), a, q)
	if err != nil {
		respondError(c, err, "failed to list users")
		return
	}

	_ = c.JSON(200, page)
}
