package dto

import "github.com/dimitrije/pod-console/internal/models"

type CreateAdminRequest struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	RoleID string `json:"roleId" validate:"required"`
}

type CreateRoleRequest struct {
	Name        string              `json:"name" validate:"required"`
	Description string              `json:"description,omitempty"`
	Permissions []models.Permission `json:"permissions,omitempty" validate:"omitempty,dive"`
}

type BatchExportRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}
