// Package invoice provides invoices: line item normalization, GST
// computation, numbering and the create/edit/delete/render operations.
package invoice

import (
	"context"
	"strings"
	"time"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/entity"
	"invoicer/internal/core/id"
	"invoicer/internal/core/money"
)

// DateLayout is the wire and display format of invoice dates.
const DateLayout = "2006-01-02"

// LineItem is one billed row. UnitPrice is held at 2 places and Total is
// Quantity*UnitPrice rounded to 2 places.
type LineItem struct {
	LineNo    int         `db:"line_no" json:"lineNo"`
	Name      string      `db:"name" json:"name"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	UnitPrice money.Money `db:"unit_price" json:"unitPrice"`
	Total     money.Money `db:"total" json:"total"`
}

// Client is the billed party.
type Client struct {
	Name          string `db:"client_name" json:"name"`
	Email         string `db:"client_email" json:"email"`
	Phone         string `db:"client_phone" json:"phone"`
	Address       string `db:"client_address" json:"address"`
	PurchaseOrder string `db:"purchase_order" json:"purchaseOrder,omitempty"`
}

// TaxSelection holds the two equal-rate GST components.
type TaxSelection struct {
	CGST bool `db:"cgst" json:"cgst"`
	SGST bool `db:"sgst" json:"sgst"`
}

// Invoice is a billed document owned by one company.
type Invoice struct {
	entity.BaseEntity

	CompanyID id.ID `db:"company_id" json:"companyId"`

	// Number is PREFIX-SCOPE-NNN, unique per company.
	Number   string `db:"number" json:"number"`
	ScopeKey string `db:"scope_key" json:"scopeKey"`
	Serial   int64  `db:"serial" json:"serial"`

	Date    time.Time `db:"invoice_date" json:"date"`
	DueDate time.Time `db:"due_date" json:"dueDate"`

	Client
	Description string   `db:"description" json:"description,omitempty"`
	Departments []string `db:"departments" json:"departments"`

	TaxSelection

	Subtotal   money.Money `db:"subtotal" json:"subtotal"`
	TaxRate    money.Money `db:"tax_rate" json:"taxRate"`
	TaxAmount  money.Money `db:"tax_amount" json:"taxAmount"`
	FinalTotal money.Money `db:"final_total" json:"finalTotal"`

	CreatedBy string `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string `db:"updated_by" json:"updatedBy,omitempty"`

	LineItems []LineItem `db:"-" json:"lineItems"`
}

// ApplyTotals stores the result of a tax computation.
func (inv *Invoice) ApplyTotals(t Totals) {
	inv.Subtotal = t.Subtotal
	inv.TaxRate = t.TaxRate
	inv.TaxAmount = t.TaxAmount
	inv.FinalTotal = t.FinalTotal
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(_ context.Context) error {
	if strings.TrimSpace(inv.Client.Name) == "" {
		return apperror.NewValidation("client name is required").WithDetail("field", "clientName")
	}
	if len(inv.Departments) == 0 {
		return apperror.NewValidation("select at least one department").WithDetail("field", "departments")
	}
	if len(inv.LineItems) == 0 {
		return apperror.NewValidation("at least one line item is required").WithDetail("field", "lineItems")
	}
	if inv.DueDate.Before(inv.Date) {
		return apperror.NewValidation("due date is before invoice date").WithDetail("field", "dueDate")
	}
	sum := money.Zero()
	for _, li := range inv.LineItems {
		sum = sum.Add(li.Total)
	}
	if !sum.Equal(inv.Subtotal) {
		return apperror.NewValidation("subtotal does not match line items")
	}
	return nil
}

// Filename is the suggested download name of the rendered document.
func (inv *Invoice) Filename() string {
	return inv.Number + ".pdf"
}
