package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"invoicer/internal/core/id"
	"invoicer/internal/domain/company"
	"invoicer/internal/infrastructure/http/v1/dto"
)

// DepartmentService is implemented by company.Service.
type DepartmentService interface {
	ListDepartments(ctx context.Context, companyID id.ID) ([]company.Department, error)
	CreateDepartment(ctx context.Context, d *company.Department) error
	UpdateDepartment(ctx context.Context, companyID, departmentID id.ID, version int, code, displayName string) (*company.Department, error)
	DeleteDepartment(ctx context.Context, companyID, departmentID id.ID) error
}

// DepartmentHandler manages the caller's departments.
type DepartmentHandler struct {
	*BaseHandler
	service DepartmentService
}

// NewDepartmentHandler creates a new department handler.
func NewDepartmentHandler(base *BaseHandler, service DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{BaseHandler: base, service: service}
}

// List handles GET /departments
func (h *DepartmentHandler) List(c *gin.Context) {
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}
	deps, err := h.service.ListDepartments(c.Request.Context(), companyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	out := make([]dto.DepartmentResponse, 0, len(deps))
	for i := range deps {
		out = append(out, dto.FromDepartment(&deps[i]))
	}
	h.OK(c, dto.ListResponse[dto.DepartmentResponse]{Items: out, TotalCount: int64(len(out)), Limit: len(out)})
}

// Create handles POST /departments
func (h *DepartmentHandler) Create(c *gin.Context) {
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}
	var req dto.DepartmentRequest
	if !h.Bind(c, &req) {
		return
	}
	d := &company.Department{
		CompanyID:   companyID,
		Key:         req.Key,
		Code:        req.Code,
		DisplayName: req.DisplayName,
	}
	if err := h.service.CreateDepartment(c.Request.Context(), d); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromDepartment(d))
}

// Update handles PUT /departments/:id
func (h *DepartmentHandler) Update(c *gin.Context) {
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}
	departmentID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.DepartmentRequest
	if !h.Bind(c, &req) {
		return
	}
	d, err := h.service.UpdateDepartment(c.Request.Context(), companyID, departmentID, req.Version, req.Code, req.DisplayName)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromDepartment(d))
}

// Delete handles DELETE /departments/:id
func (h *DepartmentHandler) Delete(c *gin.Context) {
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}
	departmentID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteDepartment(c.Request.Context(), companyID, departmentID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
