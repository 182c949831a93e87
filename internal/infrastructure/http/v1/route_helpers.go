package v1

import (
	"github.com/gin-gonic/gin"
)

// ResourceRouteHandler defines the CRUD surface shared by company-scoped
// resources.
type ResourceRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// ResourceGetter is an optional interface for resources readable by ID.
type ResourceGetter interface {
	Get(c *gin.Context)
}

// RegisterResourceRoutes registers standard CRUD routes on group. Extra
// middleware (idempotency) guards creation only.
//
//	RegisterResourceRoutes(protected.Group("/departments"), departmentHandler)
func RegisterResourceRoutes(group *gin.RouterGroup, handler ResourceRouteHandler, onCreate ...gin.HandlerFunc) {
	group.GET("", handler.List)
	group.POST("", append(onCreate, handler.Create)...)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)

	if getter, ok := handler.(ResourceGetter); ok {
		group.GET("/:id", getter.Get)
	}
}
