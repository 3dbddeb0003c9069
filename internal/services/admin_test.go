package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/models"
	"github.com/dimitrije/pod-console/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_RequiresSuperAdmin(t *testing.T) {
	f, _, _ := setupPods(t)
	svc := NewAdminService(discard())
	actor := scopedAdmin(f, "cs")
	ctx := context.Background()

	_, err := svc.List(ctx, actor)
	assert.True(t, apperr.IsAuth(err))
	_, err = svc.Create(ctx, actor, CreateAdminInput{Name: "A", Email: "a@acme.io", RoleID: "r1"})
	assert.True(t, apperr.IsAuth(err))
	assert.True(t, apperr.IsAuth(svc.Delete(ctx, actor, "adm-2")))
	assert.True(t, apperr.IsAuth(svc.CreateRole(ctx, actor, CreateRoleInput{Name: "ops"})))
	_, err = svc.Users(ctx, actor, upstream.UserQuery{})
	assert.True(t, apperr.IsAuth(err))

	assert.Zero(t, f.called("GET /admin"))
	assert.Zero(t, f.called("POST /admin"))
	assert.Zero(t, f.called("DELETE /admin"))
}

func TestAdminService_List(t *testing.T) {
	f, _, _ := setupPods(t)
	f.admins = []json.RawMessage{
		json.RawMessage(`{"_id":"a1","name":"Root","email":"root@acme.io","role":"super-admin"}`),
		json.RawMessage(`{"_id":"a2","name":"Ops","email":"ops@acme.io","role":{"_id":"r1","name":"ops"},"podId":"cs"}`),
	}

	admins, err := NewAdminService(nil).List(context.Background(), superAdmin(f))

	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.True(t, admins[0].IsSuperAdmin())
	assert.Equal(t, "cs", admins[1].ScopePodID())
}

func TestAdminService_Create(t *testing.T) {
	f, _, _ := setupPods(t)
	svc := NewAdminService(discard())

	admin, err := svc.Create(context.Background(), superAdmin(f), CreateAdminInput{Name: " Ann ", Email: "ann@acme.io", RoleID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", admin.Name)

	_, err = svc.Create(context.Background(), superAdmin(f), CreateAdminInput{Name: "Ann", Email: "nope", RoleID: "r1"})
	assert.True(t, apperr.IsValidation(err))
	_, err = svc.Create(context.Background(), superAdmin(f), CreateAdminInput{Name: "Ann", Email: "ann@acme.io"})
	assert.True(t, apperr.IsValidation(err))
}

func TestAdminService_Delete_Self(t *testing.T) {
	f, _, _ := setupPods(t)

	err := NewAdminService(discard()).Delete(context.Background(), superAdmin(f), "adm-root")

	assert.True(t, apperr.IsPrecondition(err))
	assert.Zero(t, f.called("DELETE /admin"))
}

func TestAdminService_CreateRole(t *testing.T) {
	f, _, _ := setupPods(t)
	svc := NewAdminService(discard())

	err := svc.CreateRole(context.Background(), superAdmin(f), CreateRoleInput{
		Name:        "reports",
		Permissions: []models.Permission{{Feature: "reports", Actions: []string{"read"}}},
	})
	require.NoError(t, err)

	err = svc.CreateRole(context.Background(), superAdmin(f), CreateRoleInput{Name: models.SuperAdminRoleName})
	assert.True(t, apperr.IsValidation(err))
}

func TestAdminService_Users(t *testing.T) {
	f, _, _ := setupPods(t)
	verified := true

	page, err := NewAdminService(discard()).Users(context.Background(), superAdmin(f), upstream.UserQuery{Page: 1, Limit: 10, Verified: &verified})

	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, 1, page.Pagination.Total)
}
