package upstream

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dimitrije/pod-console/internal/models"
)

type CreateAdminInput struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	RoleID string `json:"roleId"`
}

type CreateRoleInput struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Permissions []models.Permission `json:"permissions"`
}

type UserQuery struct {
	Page     int
	Limit    int
	Search   string
	Verified *bool
}

func (a *API) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	req, _ := jsonCall("GET /admin/", http.MethodGet, "/admin/", nil)
	body, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var wire []wireAdmin
	if err := adminListEnvelope.decode(body, &wire); err != nil {
		return nil, err
	}
	admins := make([]models.Admin, 0, len(wire))
	for i := range wire {
		admins = append(admins, wire[i].model())
	}
	return admins, nil
}

func (a *API) CreateAdmin(ctx context.Context, input CreateAdminInput) (*models.Admin, error) {
	req, err := jsonCall("POST /admin/create-user", http.MethodPost, "/admin/create-user", input)
	if err != nil {
		return nil, err
	}
	body, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var w wireAdmin
	if err := adminEnvelope.decode(body, &w); err != nil {
		return nil, err
	}
	admin := w.model()
	return &admin, nil
}

func (a *API) CreateRole(ctx context.Context, input CreateRoleInput) error {
	req, err := jsonCall("POST /admin/create-role", http.MethodPost, "/admin/create-role", input)
	if err != nil {
		return err
	}
	_, err = a.do(ctx, req)
	return err
}

func (a *API) DeleteAdmin(ctx context.Context, id string) error {
	req, _ := jsonCall("DELETE /admin/{id}", http.MethodDelete, "/admin/"+escape(id), nil)
	_, err := a.do(ctx, req)
	return err
}

// ListUsers pages through every platform user. Super-admin only upstream.
func (a *API) ListUsers(ctx context.Context, q UserQuery) (*models.UserPage, error) {
	req, _ := jsonCall("GET /admin/users", http.MethodGet, "/admin/users", nil)
	req.query = pageQuery(q.Page, q.Limit)
	if q.Search != "" {
		req.query.Set("search", q.Search)
	}
	if q.Verified != nil {
		req.query.Set("verified", strconv.FormatBool(*q.Verified))
	}

	body, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var page wireUserPage
	if err := pageEnvelope.decode(body, &page); err != nil {
		return nil, err
	}
	return page.model(), nil
}
