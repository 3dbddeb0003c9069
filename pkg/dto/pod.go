package dto

import "github.com/dimitrije/pod-console/internal/models"

type CreatePodRequest struct {
	Name              string  `json:"name" validate:"required"`
	Type              string  `json:"type" validate:"required,oneof=institution organization"`
	AssociatedEmail   string  `json:"associatedEmail" validate:"required,email"`
	EducationalStatus string  `json:"educationalStatus,omitempty"`
	OrganizationName  string  `json:"organizationName,omitempty"`
	InstituteName     string  `json:"instituteName,omitempty"`
	ParentPodID       *string `json:"parentPodId,omitempty"`
}

type AddUserRequest struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Qualification string `json:"qualification,omitempty"`
	DOB           string `json:"dob,omitempty"`
	Licenses      int    `json:"licenses" validate:"gte=0"`
}

// SetLicensesRequest uses a pointer so an explicit 0 is told apart from a
// missing field.
type SetLicensesRequest struct {
	TotalLicenses *int `json:"totalLicenses" validate:"required,gte=0"`
}

type AddLicensesRequest struct {
	Amount int `json:"amount" validate:"required,min=1"`
}

type PurgeRequest struct {
	Confirmation string `json:"confirmation" validate:"required"`
}

type PodResponse struct {
	Pod *models.Pod `json:"pod"`
}

type TreeRowResponse struct {
	*models.Pod
	DisplayLevel int  `json:"display_level"`
	HasChildren  bool `json:"has_children"`
}

type BulkUsersResponse struct {
	NewUsers      []models.PodUser `json:"new_users"`
	ExistingUsers []models.PodUser `json:"existing_users"`
	InvalidEmails []string         `json:"invalid_emails"`
}
