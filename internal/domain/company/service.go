package company

import (
	"context"
	"fmt"
	"strings"
	"time"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/entity"
	"invoicer/internal/core/id"
	"invoicer/internal/core/tx"
	"invoicer/internal/domain"
	"invoicer/pkg/logger"
)

// MaxLogoBytes bounds uploaded logos.
const MaxLogoBytes = 2 << 20

// MinPasswordLength is enforced at registration.
const MinPasswordLength = 8

// PasswordHasher hashes login passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Profile carries the editable company fields.
type Profile struct {
	Name           string
	Address        string
	TaxID          string
	Email          string
	Phone          string
	Website        string
	Signatory      string
	SignatoryTitle string
	PrefixMode     PrefixMode
	FixedPrefix    string
}

func (p Profile) applyTo(c *Company) {
	c.Name = strings.TrimSpace(p.Name)
	c.Address = strings.TrimSpace(p.Address)
	c.TaxID = strings.TrimSpace(p.TaxID)
	c.Email = strings.TrimSpace(p.Email)
	c.Phone = strings.TrimSpace(p.Phone)
	c.Website = strings.TrimSpace(p.Website)
	c.Signatory = strings.TrimSpace(p.Signatory)
	c.SignatoryTitle = strings.TrimSpace(p.SignatoryTitle)
	c.PrefixMode = p.PrefixMode
	if c.PrefixMode == "" {
		c.PrefixMode = PrefixFromName
	}
	c.FixedPrefix = strings.ToUpper(strings.TrimSpace(p.FixedPrefix))
}

// Registration is the input of Register.
type Registration struct {
	Profile
	LoginEmail string
	Password   string
}

// Service manages companies and their departments.
type Service struct {
	companies   Repository
	departments DepartmentRepository
	txManager   tx.Manager
	hasher      PasswordHasher
	now         func() time.Time
}

// NewService creates a new company service.
func NewService(companies Repository, departments DepartmentRepository, txManager tx.Manager, hasher PasswordHasher) *Service {
	return &Service{
		companies:   companies,
		departments: departments,
		txManager:   txManager,
		hasher:      hasher,
		now:         time.Now,
	}
}

// Register creates a company account.
func (s *Service) Register(ctx context.Context, in Registration) (*Company, error) {
	c := New(in.Name, in.LoginEmail)
	in.Profile.applyTo(c)
	c.BaseEntity = entity.NewBaseEntity(s.now())

	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	if len(in.Password) < MinPasswordLength {
		return nil, apperror.NewValidation(fmt.Sprintf("password must be at least %d characters", MinPasswordLength)).
			WithDetail("field", "password")
	}

	if _, err := s.companies.GetByLoginEmail(ctx, c.LoginEmail); err == nil {
		return nil, apperror.NewDuplicate("company", "loginEmail", c.LoginEmail)
	} else if !apperror.IsNotFound(err) {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hash password: %w", err))
	}
	c.PasswordHash = hash

	if err := s.companies.Create(ctx, c); err != nil {
		return nil, err
	}

	logger.Info(ctx, "company registered", "company_id", c.ID, "name", c.Name)
	return c, nil
}

// Get returns a company by ID.
func (s *Service) Get(ctx context.Context, companyID id.ID) (*Company, error) {
	return s.companies.GetByID(ctx, companyID)
}

// List returns companies matching filter.Search on name or login email.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Company], error) {
	return s.companies.List(ctx, filter.Normalize())
}

// UpdateProfile replaces the editable fields of a company.
func (s *Service) UpdateProfile(ctx context.Context, companyID id.ID, version int, p Profile) (*Company, error) {
	c, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	p.applyTo(c)
	c.Version = version
	c.Touch(s.now())

	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.companies.Update(ctx, c); err != nil {
		return nil, err
	}
	c.Version++
	return c, nil
}

// SetLogo stores a new logo image. An empty logo removes it.
func (s *Service) SetLogo(ctx context.Context, companyID id.ID, logo []byte) error {
	if len(logo) > MaxLogoBytes {
		return apperror.NewValidation("logo is too large").WithDetail("maxBytes", MaxLogoBytes)
	}
	if len(logo) == 0 {
		logo = nil
	}
	return s.companies.SetLogo(ctx, companyID, logo)
}

// Delete removes a company together with its departments and invoices.
func (s *Service) Delete(ctx context.Context, companyID id.ID) error {
	if err := s.companies.Delete(ctx, companyID); err != nil {
		return err
	}
	logger.Info(ctx, "company deleted", "company_id", companyID)
	return nil
}

// --- Departments ---

// ListDepartments returns the departments of a company.
func (s *Service) ListDepartments(ctx context.Context, companyID id.ID) ([]Department, error) {
	return s.departments.ListByCompany(ctx, companyID)
}

// CreateDepartment adds a department. Keys are unique per company.
func (s *Service) CreateDepartment(ctx context.Context, d *Department) error {
	d.Key = strings.ToLower(strings.TrimSpace(d.Key))
	d.Code = strings.ToUpper(strings.TrimSpace(d.Code))
	d.BaseEntity = entity.NewBaseEntity(s.now())
	if err := d.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.departments.ListByCompany(ctx, d.CompanyID)
		if err != nil {
			return err
		}
		for _, e := range existing {
			if e.Key == d.Key {
				return apperror.NewDuplicate("department", "key", d.Key)
			}
		}
		return s.departments.Create(ctx, d)
	})
}

// UpdateDepartment replaces code and display name of a department.
// The key is immutable because stored invoices refer to it.
func (s *Service) UpdateDepartment(ctx context.Context, companyID, departmentID id.ID, version int, code, displayName string) (*Department, error) {
	d, err := s.departments.GetByID(ctx, companyID, departmentID)
	if err != nil {
		return nil, err
	}
	d.Code = strings.ToUpper(strings.TrimSpace(code))
	d.DisplayName = strings.TrimSpace(displayName)
	d.Version = version
	d.Touch(s.now())
	if err := d.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.departments.Update(ctx, d); err != nil {
		return nil, err
	}
	d.Version++
	return d, nil
}

// DeleteDepartment removes a department. Existing invoices keep their numbers.
func (s *Service) DeleteDepartment(ctx context.Context, companyID, departmentID id.ID) error {
	return s.departments.Delete(ctx, companyID, departmentID)
}
