// Package company provides companies (invoice issuers) and their departments.
package company

import (
	"context"
	"net/mail"
	"strings"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/entity"
	"invoicer/internal/core/id"
	"invoicer/internal/domain/numbering"
)

// PrefixMode selects how the first segment of invoice numbers is derived.
type PrefixMode string

const (
	// PrefixFromName uses the first three letters of the company name.
	PrefixFromName PrefixMode = "name"
	// PrefixFixed uses Company.FixedPrefix verbatim.
	PrefixFixed PrefixMode = "fixed"
)

// Company is the owner of departments and invoices.
type Company struct {
	entity.BaseEntity

	Name    string `db:"name" json:"name"`
	Address string `db:"address" json:"address"`
	TaxID   string `db:"tax_id" json:"taxId"`
	Email   string `db:"email" json:"email"`
	Phone   string `db:"phone" json:"phone"`
	Website string `db:"website" json:"website"`

	// Signatory and SignatoryTitle fill the signature block of documents.
	Signatory      string `db:"signatory" json:"signatory"`
	SignatoryTitle string `db:"signatory_title" json:"signatoryTitle"`

	PrefixMode  PrefixMode `db:"prefix_mode" json:"prefixMode"`
	FixedPrefix string     `db:"fixed_prefix" json:"fixedPrefix,omitempty"`

	// Logo holds raw image bytes. Storage keeps it compressed.
	Logo []byte `db:"-" json:"-"`

	LoginEmail   string `db:"login_email" json:"loginEmail"`
	PasswordHash string `db:"password_hash" json:"-"`
}

// New creates a Company with a generated ID.
func New(name, loginEmail string) *Company {
	return &Company{
		Name:       strings.TrimSpace(name),
		LoginEmail: strings.ToLower(strings.TrimSpace(loginEmail)),
		PrefixMode: PrefixFromName,
	}
}

// NumberPrefix returns the company-level segment of invoice numbers.
func (c *Company) NumberPrefix() string {
	if c.PrefixMode == PrefixFixed && strings.TrimSpace(c.FixedPrefix) != "" {
		return strings.ToUpper(strings.TrimSpace(c.FixedPrefix))
	}
	return numbering.CompanyPrefix(c.Name)
}

// Validate implements entity.Validatable.
func (c *Company) Validate(_ context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("company name is required").WithDetail("field", "name")
	}
	if _, err := mail.ParseAddress(c.LoginEmail); err != nil {
		return apperror.NewValidation("login email is invalid").WithDetail("field", "loginEmail")
	}
	switch c.PrefixMode {
	case PrefixFromName:
		if numbering.CompanyPrefix(c.Name) == "" {
			return apperror.NewValidation("company name yields an empty number prefix").WithDetail("field", "name")
		}
	case PrefixFixed:
		if strings.TrimSpace(c.FixedPrefix) == "" {
			return apperror.NewValidation("fixed prefix is required").WithDetail("field", "fixedPrefix")
		}
		if strings.ContainsAny(c.FixedPrefix, " -") {
			return apperror.NewValidation("fixed prefix must not contain spaces or dashes").WithDetail("field", "fixedPrefix")
		}
	default:
		return apperror.NewValidation("unknown prefix mode").WithDetail("field", "prefixMode")
	}
	return nil
}

// Department groups invoices under one numbering scope.
type Department struct {
	entity.BaseEntity

	CompanyID id.ID `db:"company_id" json:"companyId"`

	// Key is the identifier submitted with invoices, e.g. "robotics".
	Key string `db:"key" json:"key"`

	// Code overrides the built-in scope code table when set.
	Code string `db:"code" json:"code,omitempty"`

	// DisplayName replaces the company name on documents of this department.
	DisplayName string `db:"display_name" json:"displayName,omitempty"`
}

// Scope returns the numbering scope code of the department.
func (d *Department) Scope() string {
	return numbering.ScopeFor(d.Key, d.Code)
}

// Validate implements entity.Validatable.
func (d *Department) Validate(_ context.Context) error {
	if strings.TrimSpace(d.Key) == "" {
		return apperror.NewValidation("department key is required").WithDetail("field", "key")
	}
	if strings.ContainsAny(d.Code, " -") {
		return apperror.NewValidation("department code must not contain spaces or dashes").WithDetail("field", "code")
	}
	return nil
}

// DisplayNameFor resolves the issuer name printed on an invoice: the first
// of the invoice's departments with an override wins, else the company name.
func DisplayNameFor(c *Company, departments []Department, invoiceDepartments []string) string {
	byKey := make(map[string]Department, len(departments))
	for _, d := range departments {
		byKey[d.Key] = d
	}
	for _, key := range invoiceDepartments {
		if d, ok := byKey[key]; ok && strings.TrimSpace(d.DisplayName) != "" {
			return d.DisplayName
		}
	}
	return c.Name
}
