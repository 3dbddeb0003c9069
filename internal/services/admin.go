package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/ledger"
	"github.com/dimitrije/pod-console/internal/models"
	"github.com/dimitrije/pod-console/internal/session"
	"github.com/dimitrije/pod-console/internal/upstream"
)

var errSuperAdminOnly = &apperr.AuthError{Status: 403, Message: "only super admins can manage admins"}

type AdminService struct {
	logger *slog.Logger
}

func NewAdminService(logger *slog.Logger) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{logger: logger}
}

func requireSuperAdmin(actor session.Actor) error {
	if !actor.Admin().IsSuperAdmin() {
		return errSuperAdminOnly
	}
	return nil
}

func (s *AdminService) List(ctx context.Context, actor session.Actor) ([]models.Admin, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	return actor.API().ListAdmins(ctx)
}

type CreateAdminInput struct {
	Name   string
	Email  string
	RoleID string
}

// Create invites an admin. The upstream mails them a password setup link.
func (s *AdminService) Create(ctx context.Context, actor session.Actor, input CreateAdminInput) (*models.Admin, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if input.Name == "" {
		return nil, apperr.Validation("name", "name is required")
	}
	if !ledger.ValidEmail(input.Email) {
		return nil, apperr.Validation("email", "invalid email address %q", input.Email)
	}
	if input.RoleID == "" {
		return nil, apperr.Validation("roleId", "role is required")
	}

	admin, err := actor.API().CreateAdmin(ctx, upstream.CreateAdminInput{
		Name:   input.Name,
		Email:  input.Email,
		RoleID: input.RoleID,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("admin created", "admin_id", admin.ID, "created_by", actorID(actor))
	return admin, nil
}

func (s *AdminService) Delete(ctx context.Context, actor session.Actor, id string) error {
	if err := requireSuperAdmin(actor); err != nil {
		return err
	}
	if id == actorID(actor) {
		return apperr.Precondition("you cannot delete your own account")
	}
	if err := actor.API().DeleteAdmin(ctx, id); err != nil {
		return err
	}
	s.logger.Info("admin deleted", "admin_id", id, "deleted_by", actorID(actor))
	return nil
}

type CreateRoleInput struct {
	Name        string
	Description string
	Permissions []models.Permission
}

func (s *AdminService) CreateRole(ctx context.Context, actor session.Actor, input CreateRoleInput) error {
	if err := requireSuperAdmin(actor); err != nil {
		return err
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return apperr.Validation("name", "name is required")
	}
	if input.Name == models.SuperAdminRoleName {
		return apperr.Validation("name", "%s is reserved", models.SuperAdminRoleName)
	}
	if input.Permissions == nil {
		input.Permissions = []models.Permission{}
	}
	return actor.API().CreateRole(ctx, upstream.CreateRoleInput{
		Name:        input.Name,
		Description: input.Description,
		Permissions: input.Permissions,
	})
}

// Users pages through every platform user.
func (s *AdminService) Users(ctx context.Context, actor session.Actor, q upstream.UserQuery) (*models.UserPage, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	return actor.API().ListUsers(ctx, q)
}
