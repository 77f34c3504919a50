package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/coltrade/backend/internal/application/compras"
	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/interfaces/http/middleware"
	"github.com/coltrade/backend/internal/interfaces/http/router"
)

// ComprasHandler serves the purchase suggestion list
type ComprasHandler struct {
	BaseHandler
	service *compras.Service
}

// NewComprasHandler creates a new purchases handler
func NewComprasHandler(service *compras.Service) *ComprasHandler {
	return &ComprasHandler{service: service}
}

// List handles GET /api/compras/items
func (h *ComprasHandler) List(c *gin.Context) {
	lines, err := h.service.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if lines == nil {
		lines = []shared.Record{}
	}
	h.Success(c, lines)
}

// Import handles POST /api/compras/import
func (h *ComprasHandler) Import(c *gin.Context) {
	up, ok := h.FormFile(c, "file")
	if !ok {
		return
	}
	result, err := h.service.Import(c.Request.Context(), up.Name, up.Data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Update handles POST /api/compras/update
func (h *ComprasHandler) Update(c *gin.Context) {
	var req compras.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	material, err := h.service.UpdateItem(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"Material": material})
}

// Export handles GET /api/compras/export
func (h *ComprasHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SendFile(c, file)
}

// Routes returns the /compras group
func (h *ComprasHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("compras", "/compras").
		GET("/items", h.List).
		POST("/import", h.Import).
		POST("/update", h.Update).
		GET("/export", h.Export)
}
