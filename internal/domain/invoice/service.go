package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/entity"
	"invoicer/internal/core/id"
	"invoicer/internal/core/numerator"
	"invoicer/internal/core/tx"
	"invoicer/internal/domain"
	"invoicer/internal/domain/audit"
	"invoicer/internal/domain/company"
	"invoicer/internal/domain/numbering"
	"invoicer/pkg/logger"
)

// DefaultDueDays is the gap between invoice date and default due date.
const DefaultDueDays = 7

// CompanyDirectory resolves the issuing company of an invoice.
type CompanyDirectory interface {
	Get(ctx context.Context, companyID id.ID) (*company.Company, error)
	ListDepartments(ctx context.Context, companyID id.ID) ([]company.Department, error)
}

// Config holds the tunable business rules of the service.
type Config struct {
	Tax     TaxEngine
	Policy  Policy
	DueDays int
}

// DefaultConfig returns 18% combined GST, strict rows and a 7 day due date.
func DefaultConfig() Config {
	return Config{Tax: DefaultTaxEngine(), Policy: PolicyStrict, DueDays: DefaultDueDays}
}

// DeleteOutcome reports the result of Delete. A storage failure is not
// an error: Deleted is false and Reason tells the caller what happened.
type DeleteOutcome struct {
	Deleted bool
	Reason  string
}

// Service provides business operations for invoices.
type Service struct {
	repo       Repository
	companies  CompanyDirectory
	allocator  *numbering.Allocator
	renderer   Renderer
	events     EventPublisher
	txManager  tx.Manager
	tax        TaxEngine
	normalizer Normalizer
	dueDays    int
	hooks      *domain.HookRegistry[*Invoice]
	now        func() time.Time
}

// Deps groups the collaborators of Service.
type Deps struct {
	Repo      Repository
	Companies CompanyDirectory
	Allocator *numbering.Allocator
	Renderer  Renderer
	Events    EventPublisher
	TxManager tx.Manager
}

// NewService creates a new invoice service.
func NewService(d Deps, cfg Config) *Service {
	if cfg.DueDays < 0 {
		cfg.DueDays = DefaultDueDays
	}
	return &Service{
		repo:       d.Repo,
		companies:  d.Companies,
		allocator:  d.Allocator,
		renderer:   d.Renderer,
		events:     d.Events,
		txManager:  d.TxManager,
		tax:        cfg.Tax,
		normalizer: NewNormalizer(cfg.Policy),
		dueDays:    cfg.DueDays,
		hooks:      domain.NewHookRegistry[*Invoice](),
		now:        time.Now,
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Invoice] {
	return s.hooks
}

// build turns a submission into invoice content: client, dates, departments,
// normalized lines and totals. Identity and numbering are left untouched.
func (s *Service) build(ctx context.Context, inv *Invoice, sub Submission) error {
	date, due, err := sub.dates(s.now(), s.dueDays)
	if err != nil {
		return err
	}

	norm, err := s.normalizer.Normalize(sub.Lines)
	if err != nil {
		return err
	}
	if len(norm.Skipped) > 0 {
		logger.Warn(ctx, "skipped malformed line items", "rows", norm.Skipped)
	}

	inv.Client = Client{
		Name:          strings.TrimSpace(sub.ClientName),
		Email:         strings.TrimSpace(sub.ClientEmail),
		Phone:         strings.TrimSpace(sub.ClientPhone),
		Address:       strings.TrimSpace(sub.ClientAddress),
		PurchaseOrder: strings.TrimSpace(sub.PurchaseOrder),
	}
	inv.Description = strings.TrimSpace(sub.Description)
	inv.Date = date
	inv.DueDate = due
	inv.Departments = sub.departments()
	inv.TaxSelection = sub.Tax
	inv.LineItems = norm.Items
	inv.ApplyTotals(s.tax.Compute(norm.Subtotal, sub.Tax))

	return inv.Validate(ctx)
}

// numberKey derives the numbering key from the first department of the invoice.
func (s *Service) numberKey(ctx context.Context, companyID id.ID, departments []string) (numerator.Key, error) {
	c, err := s.companies.Get(ctx, companyID)
	if err != nil {
		return numerator.Key{}, err
	}
	depts, err := s.companies.ListDepartments(ctx, companyID)
	if err != nil {
		return numerator.Key{}, fmt.Errorf("list departments: %w", err)
	}

	first := ""
	if len(departments) > 0 {
		first = departments[0]
	}
	scope := numbering.ScopeFor(first, "")
	for _, d := range depts {
		if d.Key == first {
			scope = d.Scope()
			break
		}
	}
	return numerator.Key{OwnerID: companyID.String(), Prefix: c.NumberPrefix(), Scope: scope}, nil
}

// Create validates a submission, allocates the next number in the scope of
// its first department and stores the invoice.
func (s *Service) Create(ctx context.Context, companyID id.ID, sub Submission) (*Invoice, error) {
	inv := &Invoice{BaseEntity: entity.NewBaseEntity(s.now()), CompanyID: companyID}
	if err := s.build(ctx, inv, sub); err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.BeforeCreate, inv); err != nil {
		return nil, err
	}
	audit.EnrichCreatedBy(ctx, &inv.CreatedBy, &inv.UpdatedBy)

	key, err := s.numberKey(ctx, companyID, inv.Departments)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		alloc, err := s.allocator.Next(ctx, key)
		if err != nil {
			return err
		}
		inv.Number = alloc.Number
		inv.ScopeKey = key.Stem()
		inv.Serial = alloc.Serial

		if err := s.repo.Create(ctx, inv); err != nil {
			return err
		}
		if err := s.repo.SaveLines(ctx, inv.ID, inv.LineItems); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.publish(ctx, EventCreated, inv)
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, inv); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "invoice created",
		"id", inv.ID,
		"number", inv.Number,
		"final_total", inv.FinalTotal.StringFixed(2))

	return inv, nil
}

// Get returns an invoice with its lines.
func (s *Service) Get(ctx context.Context, companyID, invoiceID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLines(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	inv.LineItems = lines
	return inv, nil
}

// List returns invoice headers; filter.Search matches client name or number.
func (s *Service) List(ctx context.Context, companyID id.ID, filter domain.ListFilter) (domain.ListResult[*Invoice], error) {
	return s.repo.List(ctx, companyID, filter.Normalize())
}

// Update replaces the content of an invoice. Number, scope and creation
// data are kept even when the departments change.
func (s *Service) Update(ctx context.Context, companyID, invoiceID id.ID, version int, sub Submission) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	inv.Version = version
	inv.Touch(s.now())

	if err := s.build(ctx, inv, sub); err != nil {
		return nil, err
	}
	if err := s.hooks.Run(ctx, domain.BeforeUpdate, inv); err != nil {
		return nil, err
	}
	audit.EnrichUpdatedBy(ctx, &inv.UpdatedBy)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, inv); err != nil {
			return err
		}
		if err := s.repo.SaveLines(ctx, inv.ID, inv.LineItems); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.publish(ctx, EventUpdated, inv)
	})
	if err != nil {
		return nil, err
	}
	inv.Version++

	if err := s.hooks.Run(ctx, domain.AfterUpdate, inv); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}

	logger.Info(ctx, "invoice updated", "id", inv.ID, "number", inv.Number)
	return inv, nil
}

// Delete removes an invoice. A missing invoice is a NotFound error; a
// storage failure while deleting is reported through DeleteOutcome.
func (s *Service) Delete(ctx context.Context, companyID, invoiceID id.ID) (DeleteOutcome, error) {
	inv, err := s.repo.GetByID(ctx, companyID, invoiceID)
	if err != nil {
		return DeleteOutcome{}, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, companyID, invoiceID); err != nil {
			return err
		}
		return s.publish(ctx, EventDeleted, inv)
	})
	if err != nil {
		logger.Error(ctx, "invoice delete failed", "id", invoiceID, "error", err)
		return DeleteOutcome{Deleted: false, Reason: fmt.Sprintf("invoice %s could not be deleted", inv.Number)}, nil
	}

	if err := s.hooks.Run(ctx, domain.AfterDelete, inv); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "error", err)
	}

	logger.Info(ctx, "invoice deleted", "id", invoiceID, "number", inv.Number)
	return DeleteOutcome{Deleted: true}, nil
}

// Issuer resolves the company data printed on inv.
func (s *Service) Issuer(ctx context.Context, inv *Invoice) (Issuer, error) {
	c, err := s.companies.Get(ctx, inv.CompanyID)
	if err != nil {
		return Issuer{}, err
	}
	depts, err := s.companies.ListDepartments(ctx, inv.CompanyID)
	if err != nil {
		return Issuer{}, fmt.Errorf("list departments: %w", err)
	}
	return Issuer{
		DisplayName:    company.DisplayNameFor(c, depts, inv.Departments),
		Address:        c.Address,
		Email:          c.Email,
		Phone:          c.Phone,
		Website:        c.Website,
		TaxID:          c.TaxID,
		Signatory:      c.Signatory,
		SignatoryTitle: c.SignatoryTitle,
		Logo:           c.Logo,
	}, nil
}

// Render produces the PDF of an invoice.
func (s *Service) Render(ctx context.Context, companyID, invoiceID id.ID) (*Document, error) {
	inv, err := s.Get(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	issuer, err := s.Issuer(ctx, inv)
	if err != nil {
		return nil, err
	}

	doc, err := s.renderer.Render(ctx, inv, issuer)
	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.NewRendering(err)
	}
	return doc, nil
}

// PreviewNumber returns the number the next invoice for departments would
// most likely receive. Nothing is reserved.
func (s *Service) PreviewNumber(ctx context.Context, companyID id.ID, departments []string) (string, error) {
	key, err := s.numberKey(ctx, companyID, Submission{Departments: departments}.departments())
	if err != nil {
		return "", err
	}
	alloc, err := s.allocator.Preview(ctx, key)
	if err != nil {
		return "", err
	}
	return alloc.Number, nil
}

func (s *Service) publish(ctx context.Context, eventType string, inv *Invoice) error {
	if s.events == nil {
		return nil
	}
	e := Event{
		Type:       eventType,
		InvoiceID:  inv.ID,
		CompanyID:  inv.CompanyID,
		Number:     inv.Number,
		OccurredAt: s.now().UTC(),
	}
	if eventType != EventDeleted {
		e.FinalTotal = inv.FinalTotal.StringFixed(2)
	}
	if err := s.events.Publish(ctx, e); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}
