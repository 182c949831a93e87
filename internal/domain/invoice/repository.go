package invoice

import (
	"context"
	"time"

	"invoicer/internal/core/id"
	"invoicer/internal/domain"
)

// Repository persists invoices. Every call is scoped to the owning company,
// so an invoice of another company is reported as not found.
type Repository interface {
	// Create inserts the invoice header. A duplicate number is reported as
	// apperror.CodeAllocationConflict.
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, companyID, invoiceID id.ID) (*Invoice, error)
	// Update replaces the header with optimistic locking on Version.
	Update(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, companyID, invoiceID id.ID) error
	List(ctx context.Context, companyID id.ID, filter domain.ListFilter) (domain.ListResult[*Invoice], error)

	GetLines(ctx context.Context, invoiceID id.ID) ([]LineItem, error)
	// SaveLines replaces all lines of an invoice.
	SaveLines(ctx context.Context, invoiceID id.ID, lines []LineItem) error

	// ListNumbers returns all numbers of a company that start with stem.
	ListNumbers(ctx context.Context, companyID, stem string) ([]string, error)
}

// Event types published for invoice changes.
const (
	EventCreated = "invoice.created"
	EventUpdated = "invoice.updated"
	EventDeleted = "invoice.deleted"
)

// Event describes a committed invoice change.
type Event struct {
	Type       string    `json:"type"`
	InvoiceID  id.ID     `json:"invoiceId"`
	CompanyID  id.ID     `json:"companyId"`
	Number     string    `json:"number"`
	FinalTotal string    `json:"finalTotal,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// EventPublisher records events in the same transaction as the change.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

// Issuer is the resolved company data printed on a document.
type Issuer struct {
	DisplayName    string
	Address        string
	Email          string
	Phone          string
	Website        string
	TaxID          string
	Signatory      string
	SignatoryTitle string
	// Logo holds raw image bytes, nil when the company has none.
	Logo []byte
}

// Document is a rendered invoice.
type Document struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Renderer lays out an invoice as a downloadable document.
type Renderer interface {
	Render(ctx context.Context, inv *Invoice, issuer Issuer) (*Document, error)
}
