package handlers

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/domain"
	"invoicer/internal/domain/company"
	"invoicer/internal/infrastructure/http/v1/dto"
)

// CompanyService is implemented by company.Service.
type CompanyService interface {
	Register(ctx context.Context, in company.Registration) (*company.Company, error)
	Get(ctx context.Context, companyID id.ID) (*company.Company, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*company.Company], error)
	UpdateProfile(ctx context.Context, companyID id.ID, version int, p company.Profile) (*company.Company, error)
	SetLogo(ctx context.Context, companyID id.ID, logo []byte) error
	Delete(ctx context.Context, companyID id.ID) error
}

// CompanyHandler serves registration, the admin company list and the
// company user's own profile.
type CompanyHandler struct {
	*BaseHandler
	service CompanyService
}

// NewCompanyHandler creates a new company handler.
func NewCompanyHandler(base *BaseHandler, service CompanyService) *CompanyHandler {
	return &CompanyHandler{BaseHandler: base, service: service}
}

// Register handles POST /auth/register
func (h *CompanyHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.Bind(c, &req) {
		return
	}
	co, err := h.service.Register(c.Request.Context(), req.ToRegistration())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromCompany(co))
}

// --- Admin ---

// List handles GET /admin/companies
func (h *CompanyHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	res, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.MapList(res, dto.FromCompany))
}

// Get handles GET /admin/companies/:id
func (h *CompanyHandler) Get(c *gin.Context) {
	companyID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	co, err := h.service.Get(c.Request.Context(), companyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCompany(co))
}

// Delete handles DELETE /admin/companies/:id
func (h *CompanyHandler) Delete(c *gin.Context) {
	companyID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), companyID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// --- Own profile ---

// Profile handles GET /profile
func (h *CompanyHandler) Profile(c *gin.Context) {
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}
	co, err := h.service.Get(c.Request.Context(), companyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCompany(co))
}

// UpdateProfile handles PUT /profile
func (h *CompanyHandler) UpdateProfile(c *gin.Context) {
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if !h.Bind(c, &req) {
		return
	}
	co, err := h.service.UpdateProfile(c.Request.Context(), companyID, req.Version, req.ToProfile())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCompany(co))
}

// SetLogo handles PUT /profile/logo with a base64 image, optionally as a
// data URL.
func (h *CompanyHandler) SetLogo(c *gin.Context) {
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}
	var req dto.LogoRequest
	if !h.BindJSON(c, &req) {
		return
	}

	data := strings.TrimSpace(req.Data)
	if _, after, found := strings.Cut(data, ";base64,"); found {
		data = after
	}
	logo, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		h.Error(c, apperror.NewValidation("logo must be base64").WithDetail("field", "data"))
		return
	}

	if err := h.service.SetLogo(c.Request.Context(), companyID, logo); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Logo handles GET /profile/logo
func (h *CompanyHandler) Logo(c *gin.Context) {
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}
	co, err := h.service.Get(c.Request.Context(), companyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if len(co.Logo) == 0 {
		h.Error(c, apperror.NewNotFound("logo", companyID.String()))
		return
	}
	c.Data(http.StatusOK, mimetype.Detect(co.Logo).String(), co.Logo)
}
