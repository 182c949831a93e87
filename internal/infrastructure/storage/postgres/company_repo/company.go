// Package company_repo provides PostgreSQL repositories for companies and
// their departments.
package company_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/domain"
	"invoicer/internal/domain/company"
	"invoicer/internal/infrastructure/storage/postgres"
	"invoicer/pkg/logger"
)

const companyTable = "companies"

// companyRow adds the compressed logo column to the domain struct.
type companyRow struct {
	company.Company
	LogoZst []byte `db:"logo_zst"`
}

// toDomain decodes the logo. An unreadable logo is dropped so documents
// render without it.
func (r *companyRow) toDomain(ctx context.Context) *company.Company {
	c := r.Company
	logo, err := postgres.DecompressBlob(r.LogoZst)
	if err != nil {
		logger.Warn(ctx, "stored logo is unreadable, ignoring it", "company_id", r.ID, "error", err)
		logo = nil
	}
	c.Logo = logo
	return &c
}

// CompanyRepo implements company.Repository.
type CompanyRepo struct {
	table    *postgres.Table[companyRow]
	listCols []string
}

var _ company.Repository = (*CompanyRepo)(nil)

// NewCompanyRepo creates a new company repository.
func NewCompanyRepo(txm *postgres.TxManager) *CompanyRepo {
	return &CompanyRepo{
		table:    postgres.NewTable[companyRow](txm, companyTable, "company", postgres.Columns[companyRow]()),
		listCols: postgres.ColumnsExcept[companyRow]("logo_zst", "password_hash"),
	}
}

// Create inserts a company. A taken login email is a Duplicate error.
func (r *CompanyRepo) Create(ctx context.Context, c *company.Company) error {
	row := &companyRow{Company: *c, LogoZst: postgres.CompressBlob(c.Logo)}
	if err := r.table.Insert(ctx, row); err != nil {
		if name, ok := postgres.UniqueViolation(err); ok && name == postgres.ConstraintCompanyLoginEmail {
			return apperror.NewDuplicate("company", "loginEmail", c.LoginEmail).WithCause(err)
		}
		return err
	}
	return nil
}

// GetByID returns a company with its logo.
func (r *CompanyRepo) GetByID(ctx context.Context, companyID id.ID) (*company.Company, error) {
	row, err := r.table.Get(ctx, squirrel.Eq{"id": companyID}, companyID.String())
	if err != nil {
		return nil, err
	}
	return row.toDomain(ctx), nil
}

// GetByLoginEmail returns the company owning a login.
func (r *CompanyRepo) GetByLoginEmail(ctx context.Context, email string) (*company.Company, error) {
	row, err := r.table.Get(ctx, squirrel.Eq{"login_email": email}, email)
	if err != nil {
		return nil, err
	}
	return row.toDomain(ctx), nil
}

// Update writes the profile fields. Login, password and logo have their
// own operations.
func (r *CompanyRepo) Update(ctx context.Context, c *company.Company) error {
	row := &companyRow{Company: *c}
	return r.table.Update(ctx, row, c.Version, squirrel.Eq{"id": c.ID},
		"login_email", "password_hash", "logo_zst")
}

// SetLogo replaces the stored logo; nil removes it.
func (r *CompanyRepo) SetLogo(ctx context.Context, companyID id.ID, logo []byte) error {
	sql, args, err := postgres.Builder().
		Update(companyTable).
		Set("logo_zst", postgres.CompressBlob(logo)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": companyID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set logo: %w", err)
	}
	tag, err := r.table.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set logo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("company", companyID.String())
	}
	return nil
}

// Delete removes a company. Departments, invoices and sequences cascade.
func (r *CompanyRepo) Delete(ctx context.Context, companyID id.ID) error {
	return r.table.Delete(ctx, squirrel.Eq{"id": companyID})
}

// List returns companies matching the search on name or login email.
// Logos and password hashes are not loaded.
func (r *CompanyRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*company.Company], error) {
	q := postgres.Builder().Select(r.listCols...).From(companyTable)
	rows, err := r.table.List(ctx, q, filter, "name ASC, id ASC", "name", "login_email")
	if err != nil {
		return domain.ListResult[*company.Company]{}, err
	}

	out := domain.ListResult[*company.Company]{
		Items:      make([]*company.Company, 0, len(rows.Items)),
		TotalCount: rows.TotalCount,
		Limit:      rows.Limit,
		Offset:     rows.Offset,
	}
	for _, row := range rows.Items {
		c := row.Company
		out.Items = append(out.Items, &c)
	}
	return out, nil
}
