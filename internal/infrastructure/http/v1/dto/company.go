package dto

import (
	"time"

	"invoicer/internal/domain/company"
)

// ProfileRequest carries the editable company fields.
type ProfileRequest struct {
	Name           string `json:"name" form:"name"`
	Address        string `json:"address" form:"address"`
	TaxID          string `json:"taxId" form:"tax_id"`
	Email          string `json:"email" form:"email"`
	Phone          string `json:"phone" form:"phone"`
	Website        string `json:"website" form:"website"`
	Signatory      string `json:"signatory" form:"signatory"`
	SignatoryTitle string `json:"signatoryTitle" form:"signatory_title"`
	PrefixMode     string `json:"prefixMode" form:"prefix_mode"`
	FixedPrefix    string `json:"fixedPrefix" form:"fixed_prefix"`
}

// ToProfile converts to the domain profile.
func (r ProfileRequest) ToProfile() company.Profile {
	return company.Profile{
		Name:           r.Name,
		Address:        r.Address,
		TaxID:          r.TaxID,
		Email:          r.Email,
		Phone:          r.Phone,
		Website:        r.Website,
		Signatory:      r.Signatory,
		SignatoryTitle: r.SignatoryTitle,
		PrefixMode:     company.PrefixMode(r.PrefixMode),
		FixedPrefix:    r.FixedPrefix,
	}
}

// UpdateProfileRequest adds the expected version to a profile.
type UpdateProfileRequest struct {
	ProfileRequest
	Version int `json:"version" form:"version" binding:"required,min=1"`
}

// RegisterRequest creates a company account.
type RegisterRequest struct {
	ProfileRequest
	LoginEmail string `json:"loginEmail" form:"login_email"`
	Password   string `json:"password" form:"password"`
}

// ToRegistration converts to the domain input.
func (r RegisterRequest) ToRegistration() company.Registration {
	return company.Registration{
		Profile:    r.ToProfile(),
		LoginEmail: r.LoginEmail,
		Password:   r.Password,
	}
}

// LogoRequest carries a base64-encoded image. Empty removes the logo.
type LogoRequest struct {
	Data string `json:"data"`
}

// CompanyResponse represents a company in API responses.
type CompanyResponse struct {
	ID             string     `json:"id"`
	Version        int        `json:"version"`
	Name           string     `json:"name"`
	Address        string     `json:"address"`
	TaxID          string     `json:"taxId"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Website        string     `json:"website"`
	Signatory      string     `json:"signatory"`
	SignatoryTitle string     `json:"signatoryTitle"`
	PrefixMode     string     `json:"prefixMode"`
	FixedPrefix    string     `json:"fixedPrefix,omitempty"`
	NumberPrefix   string     `json:"numberPrefix"`
	LoginEmail     string     `json:"loginEmail"`
	HasLogo        bool       `json:"hasLogo"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// FromCompany creates response from domain company.
func FromCompany(c *company.Company) CompanyResponse {
	return CompanyResponse{
		ID:             c.ID.String(),
		Version:        c.Version,
		Name:           c.Name,
		Address:        c.Address,
		TaxID:          c.TaxID,
		Email:          c.Email,
		Phone:          c.Phone,
		Website:        c.Website,
		Signatory:      c.Signatory,
		SignatoryTitle: c.SignatoryTitle,
		PrefixMode:     string(c.PrefixMode),
		FixedPrefix:    c.FixedPrefix,
		NumberPrefix:   c.NumberPrefix(),
		LoginEmail:     c.LoginEmail,
		HasLogo:        len(c.Logo) > 0,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// --- Departments ---

// DepartmentRequest creates or edits a department. Key is ignored on edit.
type DepartmentRequest struct {
	Key         string `json:"key" form:"key"`
	Code        string `json:"code" form:"code"`
	DisplayName string `json:"displayName" form:"display_name"`
	Version     int    `json:"version" form:"version"`
}

// DepartmentResponse represents a department in API responses.
type DepartmentResponse struct {
	ID          string `json:"id"`
	Version     int    `json:"version"`
	Key         string `json:"key"`
	Code        string `json:"code,omitempty"`
	Scope       string `json:"scope"`
	DisplayName string `json:"displayName,omitempty"`
}

// FromDepartment creates response from domain department.
func FromDepartment(d *company.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:          d.ID.String(),
		Version:     d.Version,
		Key:         d.Key,
		Code:        d.Code,
		Scope:       d.Scope(),
		DisplayName: d.DisplayName,
	}
}
