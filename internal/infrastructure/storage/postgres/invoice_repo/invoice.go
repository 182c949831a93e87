// Package invoice_repo provides the PostgreSQL repository of invoices and
// their line items.
package invoice_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/domain"
	"invoicer/internal/domain/invoice"
	"invoicer/internal/infrastructure/storage/postgres"
)

const (
	invoiceTable = "invoices"
	linesTable   = "invoice_lines"
)

var lineColumns = []string{"invoice_id", "line_no", "name", "quantity", "unit_price", "total"}

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	txm   *postgres.TxManager
	table *postgres.Table[invoice.Invoice]
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		txm:   txm,
		table: postgres.NewTable[invoice.Invoice](txm, invoiceTable, "invoice", postgres.Columns[invoice.Invoice]()),
	}
}

// Create inserts the header. Losing a number race surfaces as
// AllocationConflict so the caller can resubmit; a company deleted
// meanwhile as NotFound.
func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := r.table.Insert(ctx, inv); err != nil {
		if name, ok := postgres.UniqueViolation(err); ok && name == postgres.ConstraintInvoiceNumber {
			return apperror.NewAllocationConflict(inv.Number).WithCause(err)
		}
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewNotFound("company", inv.CompanyID.String()).WithCause(err)
		}
		return err
	}
	return nil
}

func (r *InvoiceRepo) GetByID(ctx context.Context, companyID, invoiceID id.ID) (*invoice.Invoice, error) {
	return r.table.Get(ctx, squirrel.Eq{"id": invoiceID, "company_id": companyID}, invoiceID.String())
}

// Update replaces the header. Number, owner and creator are fixed at creation.
func (r *InvoiceRepo) Update(ctx context.Context, inv *invoice.Invoice) error {
	return r.table.Update(ctx, inv, inv.Version, squirrel.Eq{"id": inv.ID, "company_id": inv.CompanyID},
		"company_id", "number", "scope_key", "serial", "created_by")
}

// Delete removes an invoice; its lines cascade.
func (r *InvoiceRepo) Delete(ctx context.Context, companyID, invoiceID id.ID) error {
	return r.table.Delete(ctx, squirrel.Eq{"id": invoiceID, "company_id": companyID})
}

// List returns a company's invoices, newest first, matching the search on
// client name or number.
func (r *InvoiceRepo) List(ctx context.Context, companyID id.ID, filter domain.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	q := r.table.Select().Where(squirrel.Eq{"company_id": companyID})
	return r.table.List(ctx, q, filter, "invoice_date DESC, number DESC", "client_name", "number")
}

func (r *InvoiceRepo) GetLines(ctx context.Context, invoiceID id.ID) ([]invoice.LineItem, error) {
	sql, args, err := postgres.Builder().
		Select(lineColumns[1:]...).
		From(linesTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	lines := make([]invoice.LineItem, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get invoice lines: %w", err)
	}
	return lines, nil
}

// SaveLines replaces all lines of an invoice. It must run in a transaction.
func (r *InvoiceRepo) SaveLines(ctx context.Context, invoiceID id.ID, lines []invoice.LineItem) error {
	sql, args, err := postgres.Builder().
		Delete(linesTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete lines: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete invoice lines: %w", err)
	}

	rows := make([][]any, 0, len(lines))
	for _, li := range lines {
		rows = append(rows, []any{invoiceID, li.LineNo, li.Name, li.Quantity, li.UnitPrice, li.Total})
	}
	_, err = r.txm.CopyRows(ctx, linesTable, lineColumns, rows)
	return err
}

// ListNumbers returns the company's numbers of the form stem-NNN.
func (r *InvoiceRepo) ListNumbers(ctx context.Context, companyID, stem string) ([]string, error) {
	owner, err := id.Parse(companyID)
	if err != nil {
		return nil, fmt.Errorf("company id %q: %w", companyID, err)
	}

	sql, args, err := postgres.Builder().
		Select("number").
		From(invoiceTable).
		Where(squirrel.Eq{"company_id": owner}).
		Where(squirrel.Like{"number": postgres.EscapeLike(stem) + "-%"}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	numbers := make([]string, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &numbers, sql, args...); err != nil {
		return nil, fmt.Errorf("list numbers: %w", err)
	}
	return numbers, nil
}
