package company_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/domain/company"
	"invoicer/internal/infrastructure/storage/postgres"
)

const departmentTable = "departments"

// DepartmentRepo implements company.DepartmentRepository.
type DepartmentRepo struct {
	table *postgres.Table[company.Department]
}

var _ company.DepartmentRepository = (*DepartmentRepo)(nil)

// NewDepartmentRepo creates a new department repository.
func NewDepartmentRepo(txm *postgres.TxManager) *DepartmentRepo {
	return &DepartmentRepo{
		table: postgres.NewTable[company.Department](txm, departmentTable, "department", postgres.Columns[company.Department]()),
	}
}

// Create inserts a department. A key already used by the company is a
// Duplicate error.
func (r *DepartmentRepo) Create(ctx context.Context, d *company.Department) error {
	if err := r.table.Insert(ctx, d); err != nil {
		if name, ok := postgres.UniqueViolation(err); ok && name == postgres.ConstraintDepartmentKey {
			return apperror.NewDuplicate("department", "key", d.Key).WithCause(err)
		}
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewNotFound("company", d.CompanyID.String()).WithCause(err)
		}
		return err
	}
	return nil
}

func (r *DepartmentRepo) GetByID(ctx context.Context, companyID, departmentID id.ID) (*company.Department, error) {
	return r.table.Get(ctx, squirrel.Eq{"id": departmentID, "company_id": companyID}, departmentID.String())
}

// Update writes code and display name. The key never changes.
func (r *DepartmentRepo) Update(ctx context.Context, d *company.Department) error {
	return r.table.Update(ctx, d, d.Version, squirrel.Eq{"id": d.ID, "company_id": d.CompanyID},
		"company_id", "key")
}

func (r *DepartmentRepo) Delete(ctx context.Context, companyID, departmentID id.ID) error {
	return r.table.Delete(ctx, squirrel.Eq{"id": departmentID, "company_id": companyID})
}

// ListByCompany returns the departments of a company in creation order,
// which is also the order number scopes are picked in.
func (r *DepartmentRepo) ListByCompany(ctx context.Context, companyID id.ID) ([]company.Department, error) {
	sql, args, err := r.table.Select().
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	out := make([]company.Department, 0)
	if err := pgxscan.Select(ctx, r.table.Querier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return out, nil
}
