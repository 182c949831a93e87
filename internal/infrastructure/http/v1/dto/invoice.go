package dto

import (
	"encoding/json"
	"strings"
	"time"

	"invoicer/internal/domain/invoice"
)

// Checkbox decodes HTML checkbox values ("on", "true", "1", "yes") from
// forms and plain booleans from JSON.
type Checkbox bool

// UnmarshalParam implements gin's binding.BindUnmarshaler.
func (b *Checkbox) UnmarshalParam(v string) error {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		*b = true
	default:
		*b = false
	}
	return nil
}

// UnmarshalJSON accepts booleans and checkbox strings.
func (b *Checkbox) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = Checkbox(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return b.UnmarshalParam(s)
}

// LineRequest is one JSON line item. Values stay raw so the configured
// line item policy decides what is malformed.
type LineRequest struct {
	Name      string      `json:"name"`
	Quantity  json.Number `json:"quantity"`
	UnitPrice json.Number `json:"unitPrice"`
}

// InvoiceRequest is the create/edit input. Forms send line items as the
// parallel arrays service_name[], quantity[] and amount[]; JSON clients
// send lineItems.
type InvoiceRequest struct {
	ClientName    string `json:"clientName" form:"client_name"`
	ClientEmail   string `json:"clientEmail" form:"client_email"`
	ClientPhone   string `json:"clientPhone" form:"client_phone"`
	ClientAddress string `json:"clientAddress" form:"client_address"`
	PurchaseOrder string `json:"purchaseOrder" form:"purchase_order"`
	Description   string `json:"description" form:"description"`
	InvoiceDate   string `json:"invoiceDate" form:"invoice_date"`
	DueDate       string `json:"dueDate" form:"due_date"`

	Departments []string `json:"departments" form:"departments"`
	CGST        Checkbox `json:"cgst" form:"cgst"`
	SGST        Checkbox `json:"sgst" form:"sgst"`

	LineItems    []LineRequest `json:"lineItems" form:"-"`
	ServiceNames []string      `json:"-" form:"service_name[]"`
	Quantities   []string      `json:"-" form:"quantity[]"`
	Amounts      []string      `json:"-" form:"amount[]"`

	// Version is required on edit.
	Version int `json:"version" form:"version"`
}

// ToSubmission converts to the domain input.
func (r InvoiceRequest) ToSubmission() invoice.Submission {
	lines := invoice.RawLines{
		Names:      r.ServiceNames,
		Quantities: r.Quantities,
		Prices:     r.Amounts,
	}
	if len(r.LineItems) > 0 {
		lines = invoice.RawLines{}
		for _, li := range r.LineItems {
			lines.Names = append(lines.Names, li.Name)
			lines.Quantities = append(lines.Quantities, li.Quantity.String())
			lines.Prices = append(lines.Prices, li.UnitPrice.String())
		}
	}

	return invoice.Submission{
		ClientName:    r.ClientName,
		ClientEmail:   r.ClientEmail,
		ClientPhone:   r.ClientPhone,
		ClientAddress: r.ClientAddress,
		PurchaseOrder: r.PurchaseOrder,
		Description:   r.Description,
		InvoiceDate:   r.InvoiceDate,
		DueDate:       r.DueDate,
		Departments:   splitDepartments(r.Departments),
		Tax:           invoice.TaxSelection{CGST: bool(r.CGST), SGST: bool(r.SGST)},
		Lines:         lines,
	}
}

// splitDepartments accepts repeated values as well as one comma list.
func splitDepartments(in []string) []string {
	var out []string
	for _, v := range in {
		for _, d := range strings.Split(v, ",") {
			if d = strings.TrimSpace(d); d != "" {
				out = append(out, d)
			}
		}
	}
	return out
}

// LineResponse is one line item of an invoice.
type LineResponse struct {
	LineNo    int    `json:"lineNo"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Total     string `json:"total"`
}

// InvoiceResponse represents an invoice in API responses.
type InvoiceResponse struct {
	ID            string         `json:"id"`
	Version       int            `json:"version"`
	Number        string         `json:"number"`
	Date          string         `json:"date"`
	DueDate       string         `json:"dueDate"`
	ClientName    string         `json:"clientName"`
	ClientEmail   string         `json:"clientEmail,omitempty"`
	ClientPhone   string         `json:"clientPhone,omitempty"`
	ClientAddress string         `json:"clientAddress,omitempty"`
	PurchaseOrder string         `json:"purchaseOrder,omitempty"`
	Description   string         `json:"description,omitempty"`
	Departments   []string       `json:"departments"`
	CGST          bool           `json:"cgst"`
	SGST          bool           `json:"sgst"`
	TaxLabel      string         `json:"taxLabel"`
	Subtotal      string         `json:"subtotal"`
	TaxRate       string         `json:"taxRate"`
	TaxAmount     string         `json:"taxAmount"`
	FinalTotal    string         `json:"finalTotal"`
	LineItems     []LineResponse `json:"lineItems,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     *time.Time     `json:"updatedAt,omitempty"`
}

// FromInvoice creates response from domain invoice.
func FromInvoice(inv *invoice.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            inv.ID.String(),
		Version:       inv.Version,
		Number:        inv.Number,
		Date:          inv.Date.Format(invoice.DateLayout),
		DueDate:       inv.DueDate.Format(invoice.DateLayout),
		ClientName:    inv.Client.Name,
		ClientEmail:   inv.Client.Email,
		ClientPhone:   inv.Client.Phone,
		ClientAddress: inv.Client.Address,
		PurchaseOrder: inv.Client.PurchaseOrder,
		Description:   inv.Description,
		Departments:   inv.Departments,
		CGST:          inv.CGST,
		SGST:          inv.SGST,
		TaxLabel:      inv.TaxSelection.Label(),
		Subtotal:      inv.Subtotal.StringFixed(2),
		TaxRate:       inv.TaxRate.String(),
		TaxAmount:     inv.TaxAmount.StringFixed(2),
		FinalTotal:    inv.FinalTotal.StringFixed(2),
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	for _, li := range inv.LineItems {
		resp.LineItems = append(resp.LineItems, LineResponse{
			LineNo:    li.LineNo,
			Name:      li.Name,
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice.StringFixed(2),
			Total:     li.Total.StringFixed(2),
		})
	}
	return resp
}

// DeleteResponse reports the outcome of a delete. A failed delete is a
// normal response with deleted=false and a reason.
type DeleteResponse struct {
	Deleted bool   `json:"deleted"`
	Reason  string `json:"reason,omitempty"`
}

// NextNumberResponse previews the next number for a department list.
type NextNumberResponse struct {
	Number string `json:"number"`
}
