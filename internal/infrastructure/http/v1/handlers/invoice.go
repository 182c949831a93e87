package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/domain"
	"invoicer/internal/domain/invoice"
	"invoicer/internal/infrastructure/http/v1/dto"
)

// InvoiceService is implemented by invoice.Service.
type InvoiceService interface {
	Create(ctx context.Context, companyID id.ID, sub invoice.Submission) (*invoice.Invoice, error)
	Get(ctx context.Context, companyID, invoiceID id.ID) (*invoice.Invoice, error)
	List(ctx context.Context, companyID id.ID, filter domain.ListFilter) (domain.ListResult[*invoice.Invoice], error)
	Update(ctx context.Context, companyID, invoiceID id.ID, version int, sub invoice.Submission) (*invoice.Invoice, error)
	Delete(ctx context.Context, companyID, invoiceID id.ID) (invoice.DeleteOutcome, error)
	Render(ctx context.Context, companyID, invoiceID id.ID) (*invoice.Document, error)
	PreviewNumber(ctx context.Context, companyID id.ID, departments []string) (string, error)
}

// InvoiceHandler serves the caller's invoices.
type InvoiceHandler struct {
	*BaseHandler
	service InvoiceService
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service}
}

// List handles GET /invoices?search=
func (h *InvoiceHandler) List(c *gin.Context) {
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	res, err := h.service.List(c.Request.Context(), companyID, q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.MapList(res, dto.FromInvoice))
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}
	var req dto.InvoiceRequest
	if !h.Bind(c, &req) {
		return
	}
	inv, err := h.service.Create(c.Request.Context(), companyID, req.ToSubmission())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.Header("Location", "/api/v1/invoices/"+inv.ID.String())
	h.Created(c, dto.FromInvoice(inv))
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	companyID, invoiceID, ok := h.ids(c)
	if !ok {
		return
	}
	inv, err := h.service.Get(c.Request.Context(), companyID, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}

// Update handles PUT /invoices/:id
func (h *InvoiceHandler) Update(c *gin.Context) {
	companyID, invoiceID, ok := h.ids(c)
	if !ok {
		return
	}
	var req dto.InvoiceRequest
	if !h.Bind(c, &req) {
		return
	}
	if req.Version < 1 {
		h.Error(c, apperror.NewValidation("version is required").WithDetail("field", "version"))
		return
	}
	inv, err := h.service.Update(c.Request.Context(), companyID, invoiceID, req.Version, req.ToSubmission())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}

// Delete handles DELETE /invoices/:id. A delete the store refused is
// reported in the body, not as an error status.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	companyID, invoiceID, ok := h.ids(c)
	if !ok {
		return
	}
	out, err := h.service.Delete(c.Request.Context(), companyID, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.DeleteResponse{Deleted: out.Deleted, Reason: out.Reason})
}

// PDF handles GET /invoices/:id/pdf. ?inline=1 displays instead of
// downloading.
func (h *InvoiceHandler) PDF(c *gin.Context) {
	companyID, invoiceID, ok := h.ids(c)
	if !ok {
		return
	}
	doc, err := h.service.Render(c.Request.Context(), companyID, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	disposition := "attachment"
	if c.Query("inline") == "1" {
		disposition = "inline"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, doc.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}

// NextNumber handles GET /invoices/next-number?departments=a,b
func (h *InvoiceHandler) NextNumber(c *gin.Context) {
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}
	req := dto.InvoiceRequest{Departments: c.QueryArray("departments")}
	number, err := h.service.PreviewNumber(c.Request.Context(), companyID, req.ToSubmission().Departments)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NextNumberResponse{Number: number})
}

func (h *InvoiceHandler) ids(c *gin.Context) (id.ID, id.ID, bool) {
	companyID, ok := h.CompanyID(c)
	if !ok {
		return id.ID{}, id.ID{}, false
	}
	invoiceID, ok := h.ParamID(c, "id")
	if !ok {
		return id.ID{}, id.ID{}, false
	}
	return companyID, invoiceID, true
}
