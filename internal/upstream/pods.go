package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/dimitrije/pod-console/internal/models"
)

type CreatePodInput struct {
	Name              string  `json:"name"`
	Type              string  `json:"type"`
	Email             string  `json:"email"`
	EducationalStatus string  `json:"educationalStatus,omitempty"`
	OrganizationName  string  `json:"organizationName,omitempty"`
	InstituteName     string  `json:"instituteName,omitempty"`
	ParentPodID       *string `json:"parentPodId,omitempty"`
}

type AddUserInput struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Qualification string `json:"qualification,omitempty"`
	DOB           string `json:"dob,omitempty"`
	Licenses      int    `json:"licenses,omitempty"`
}

// BulkUsers is both the preview-users reply and the bulk-add request body.
type BulkUsers struct {
	NewUsers      []models.PodUser
	ExistingUsers []models.PodUser
	InvalidEmails []string
}

type wireBulkUsers struct {
	NewUsers      []wireUser `json:"newUsers"`
	ExistingUsers []wireUser `json:"existingUsers"`
	InvalidEmails []string   `json:"invalidEmails"`
}

type wireBulkUsersOut struct {
	NewUsers      []wireUserOut `json:"newUsers"`
	ExistingUsers []wireUserOut `json:"existingUsers"`
	InvalidEmails []string      `json:"invalidEmails"`
}

func (w *wireBulkUsers) model() *BulkUsers {
	out := &BulkUsers{InvalidEmails: w.InvalidEmails}
	for i := range w.NewUsers {
		out.NewUsers = append(out.NewUsers, w.NewUsers[i].model())
	}
	for i := range w.ExistingUsers {
		out.ExistingUsers = append(out.ExistingUsers, w.ExistingUsers[i].model())
	}
	if out.InvalidEmails == nil {
		out.InvalidEmails = []string{}
	}
	return out
}

// Hierarchy is a pod with its parent and direct children. Children the
// upstream sent as bare ids are dropped.
type Hierarchy struct {
	Parent   *models.Pod  `json:"parent,omitempty"`
	Pod      models.Pod   `json:"pod"`
	Children []models.Pod `json:"children"`
}

type wireHierarchy struct {
	Pod      *wirePod          `json:"pod"`
	Parent   json.RawMessage   `json:"parent"`
	Children []json.RawMessage `json:"children"`
}

func populated(raw json.RawMessage) (*models.Pod, bool) {
	if isNull(raw) || bytes.TrimSpace(raw)[0] != '{' {
		return nil, false
	}
	var w wirePod
	if err := json.Unmarshal(raw, &w); err != nil || firstOf(w.ID, w.AltID) == "" {
		return nil, false
	}
	p := w.model()
	return &p, true
}

func (a *API) CreatePod(ctx context.Context, input CreatePodInput) (*models.Pod, error) {
	req, err := jsonCall("POST /pods/create", http.MethodPost, "/pods/create", input)
	if err != nil {
		return nil, err
	}
	body, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var w wirePod
	if err := podEnvelope.decode(body, &w); err != nil {
		return nil, err
	}
	pod := w.model()
	return &pod, nil
}

// ListPods returns active pods, or every pod including soft-deleted ones.
func (a *API) ListPods(ctx context.Context, includeDeleted bool) ([]models.Pod, error) {
	req, _ := jsonCall("GET /pods/all", http.MethodGet, "/pods/all", nil)
	if includeDeleted {
		req.query = map[string][]string{"includeDeleted": {"true"}}
	}
	body, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var wire []wirePod
	if err := podListEnvelope.decode(body, &wire); err != nil {
		return nil, err
	}
	return podsOf(wire), nil
}

func (a *API) GetPod(ctx context.Context, id string) (*models.Pod, error) {
	req, _ := jsonCall("GET /pods/{id}", http.MethodGet, "/pods/"+escape(id), nil)
	body, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var w wirePod
	if err := podEnvelope.decode(body, &w); err != nil {
		return nil, err
	}
	pod := w.model()
	return &pod, nil
}

func (a *API) PodsByParent(ctx context.Context, parentID string) ([]models.Pod, error) {
	req, _ := jsonCall("GET /pods/filter/by-parent/{id}", http.MethodGet, "/pods/filter/by-parent/"+escape(parentID), nil)
	body, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var wire []wirePod
	if err := podListEnvelope.decode(body, &wire); err != nil {
		return nil, err
	}
	return podsOf(wire), nil
}

func (a *API) PodUsers(ctx context.Context, podID string, page, limit int, search string) (*models.UserPage, error) {
	req, _ := jsonCall("GET /pods/{id}/users", http.MethodGet, "/pods/"+escape(podID)+"/users", nil)
	req.query = pageQuery(page, limit)
	if search != "" {
		req.query.Set("search", search)
	}
	body, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var w wireUserPage
	if err := pageEnvelope.decode(body, &w); err != nil {
		return nil, err
	}
	out := w.model()
	for i := range out.Users {
		if out.Users[i].PodID == "" {
			out.Users[i].PodID = podID
		}
	}
	return out, nil
}

func (a *API) PodAnalytics(ctx context.Context, podID string) (*models.PodAnalytics, error) {
	req, _ := jsonCall("GET /pods/{id}/analytics", http.MethodGet, "/pods/"+escape(podID)+"/analytics", nil)
	body, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var w wireAnalytics
	if err := analyticsEnvelope.decode(body, &w); err != nil {
		return nil, err
	}
	return w.model(), nil
}

func (a *API) PodHierarchy(ctx context.Context, podID string) (*Hierarchy, error) {
	req, _ := jsonCall("GET /pods/{id}/hierarchy", http.MethodGet, "/pods/"+escape(podID)+"/hierarchy", nil)
	body, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var w wireHierarchy
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("%w: hierarchy: %v", ErrMalformedReply, err)
	}
	if w.Pod == nil {
		return nil, fmt.Errorf("%w: hierarchy without pod", ErrMalformedReply)
	}

	h := &Hierarchy{Pod: w.Pod.model(), Children: []models.Pod{}}
	if parent, ok := populated(w.Parent); ok {
		h.Parent = parent
	}
	for _, raw := range w.Children {
		if child, ok := populated(raw); ok {
			h.Children = append(h.Children, *child)
		}
	}
	return h, nil
}

func (a *API) AddUser(ctx context.Context, podID string, input AddUserInput) error {
	req, err := jsonCall("POST /pods/{id}/add-user", http.MethodPost, "/pods/"+escape(podID)+"/add-user", input)
	if err != nil {
		return err
	}
	_, err = a.do(ctx, req)
	return err
}

func (a *API) RemoveUser(ctx context.Context, podID, userID string) error {
	req, _ := jsonCall("DELETE /pods/{id}/users/{userId}", http.MethodDelete, "/pods/"+escape(podID)+"/users/"+escape(userID), nil)
	_, err := a.do(ctx, req)
	return err
}

func excelCall(endpoint, path, fileName string, data []byte) (call, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("excel", fileName)
	if err != nil {
		return call{}, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return call{}, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return call{}, fmt.Errorf("failed to build upload form: %w", err)
	}
	return call{
		endpoint:    endpoint,
		method:      http.MethodPost,
		path:        path,
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
	}, nil
}

// PreviewUsers asks the upstream to classify a spreadsheet's rows against
// the pod's members without changing anything.
func (a *API) PreviewUsers(ctx context.Context, podID, fileName string, data []byte) (*BulkUsers, error) {
	req, err := excelCall("POST /pods/preview-users/{id}", "/pods/preview-users/"+escape(podID), fileName, data)
	if err != nil {
		return nil, err
	}
	body, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var w wireBulkUsers
	if err := pageEnvelope.decode(body, &w); err != nil {
		return nil, err
	}
	return w.model(), nil
}

// UploadUsersExcel imports a spreadsheet in one upstream step.
func (a *API) UploadUsersExcel(ctx context.Context, podID, fileName string, data []byte) error {
	req, err := excelCall("POST /pods/upload-users-excel/{id}", "/pods/upload-users-excel/"+escape(podID), fileName, data)
	if err != nil {
		return err
	}
	_, err = a.do(ctx, req)
	return err
}

func (a *API) BulkAdd(ctx context.Context, podID string, users BulkUsers) error {
	payload := wireBulkUsersOut{
		NewUsers:      usersOut(users.NewUsers),
		ExistingUsers: usersOut(users.ExistingUsers),
		InvalidEmails: users.InvalidEmails,
	}
	if payload.InvalidEmails == nil {
		payload.InvalidEmails = []string{}
	}
	req, err := jsonCall("POST /pods/{id}/bulk-add", http.MethodPost, "/pods/"+escape(podID)+"/bulk-add", payload)
	if err != nil {
		return err
	}
	_, err = a.do(ctx, req)
	return err
}

func (a *API) SoftDeletePod(ctx context.Context, podID string) error {
	req, _ := jsonCall("DELETE /pods/{id}/soft-delete", http.MethodDelete, "/pods/"+escape(podID)+"/soft-delete", nil)
	_, err := a.do(ctx, req)
	return err
}

func (a *API) RestorePod(ctx context.Context, podID string) error {
	req, _ := jsonCall("PATCH /pods/{id}/restore", http.MethodPatch, "/pods/"+escape(podID)+"/restore", nil)
	_, err := a.do(ctx, req)
	return err
}

func (a *API) PermanentlyDeletePod(ctx context.Context, podID string) error {
	req, _ := jsonCall("DELETE /pods/{id}/permanent-delete", http.MethodDelete, "/pods/"+escape(podID)+"/permanent-delete", nil)
	_, err := a.do(ctx, req)
	return err
}

func (a *API) SetLicenses(ctx context.Context, podID string, total int) error {
	req, err := jsonCall("PUT /pods/{id}/licenses/set", http.MethodPut, "/pods/"+escape(podID)+"/licenses/set", map[string]int{"totalLicenses": total})
	if err != nil {
		return err
	}
	_, err = a.do(ctx, req)
	return err
}

func (a *API) AddLicenses(ctx context.Context, podID string, amount int) error {
	req, err := jsonCall("POST /pods/{id}/licenses/add", http.MethodPost, "/pods/"+escape(podID)+"/licenses/add", map[string]int{"amount": amount})
	if err != nil {
		return err
	}
	_, err = a.do(ctx, req)
	return err
}
