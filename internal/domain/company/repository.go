package company

import (
	"context"

	"invoicer/internal/core/id"
	"invoicer/internal/domain"
)

// Repository persists companies.
type Repository interface {
	Create(ctx context.Context, c *Company) error
	GetByID(ctx context.Context, companyID id.ID) (*Company, error)
	GetByLoginEmail(ctx context.Context, email string) (*Company, error)
	// Update writes profile fields with optimistic locking on Version.
	Update(ctx context.Context, c *Company) error
	// SetLogo replaces the stored logo; nil removes it.
	SetLogo(ctx context.Context, companyID id.ID, logo []byte) error
	Delete(ctx context.Context, companyID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Company], error)
}

// DepartmentRepository persists departments. Every call is scoped to a company.
type DepartmentRepository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, companyID, departmentID id.ID) (*Department, error)
	Update(ctx context.Context, d *Department) error
	Delete(ctx context.Context, companyID, departmentID id.ID) error
	ListByCompany(ctx context.Context, companyID id.ID) ([]Department, error)
}
