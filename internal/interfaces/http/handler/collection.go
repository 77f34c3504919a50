package handler

import (
	"github.com/gin-gonic/gin"

	app "github.com/coltrade/backend/internal/application/collection"
	"github.com/coltrade/backend/internal/domain/collection"
	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/interfaces/http/middleware"
	"github.com/coltrade/backend/internal/interfaces/http/router"
)

// DeleteAllRequest carries the confirmation count of a bulk delete
type DeleteAllRequest struct {
	Confirmaciones int `json:"confirmaciones" binding:"gte=0"`
}

// DeleteFilteredRequest bounds a date range delete. At least one bound is
// required.
type DeleteFilteredRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// CollectionHandler serves the maintenance routes of one collection file
type CollectionHandler struct {
	BaseHandler
	name    string
	schema  collection.Schema
	service *app.Service
}

// NewCollectionHandlers creates a handler per registered collection.
// Purchases have their own handler.
func NewCollectionHandlers(service *app.Service) []*CollectionHandler {
	var handlers []*CollectionHandler
	for _, name := range collection.Names() {
		if name == collection.Compras {
			continue
		}
		handlers = append(handlers, &CollectionHandler{
			name:    name,
			schema:  collection.MustLookup(name),
			service: service,
		})
	}
	return handlers
}

// List handles GET /api/<name>/items
func (h *CollectionHandler) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context(), h.name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if records == nil {
		records = []shared.Record{}
	}
	h.Success(c, records)
}

// Create handles POST /api/<name>/items
func (h *CollectionHandler) Create(c *gin.Context) {
	var payload shared.Record
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.BadRequest(c, "JSON inválido")
		return
	}
	result, err := h.service.Create(c.Request.Context(), h.name, payload)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Update handles PUT /api/<name>/items/:key
func (h *CollectionHandler) Update(c *gin.Context) {
	var payload shared.Record
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.BadRequest(c, "JSON inválido")
		return
	}
	result, err := h.service.Update(c.Request.Context(), h.name, c.Param("key"), payload)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Delete handles DELETE /api/<name>/items/:key
func (h *CollectionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), h.name, c.Param("key")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"deleted": c.Param("key")})
}

// DeleteAll handles POST /api/<name>/delete_all
func (h *CollectionHandler) DeleteAll(c *gin.Context) {
	var req DeleteAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if err := h.service.DeleteAll(c.Request.Context(), h.name, req.Confirmaciones); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"deleted_all": true})
}

// Export handles GET /api/<name>/export?format=excel|json
func (h *CollectionHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), h.name, c.DefaultQuery("format", "excel"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SendFile(c, file)
}

// Import handles POST /api/<name>/import with a multipart "file"
func (h *CollectionHandler) Import(c *gin.Context) {
	up, ok := h.FormFile(c, "file")
	if !ok {
		return
	}
	result, err := h.service.Import(c.Request.Context(), h.name, up.Name, up.Data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Pending handles GET /api/<name>/pending
func (h *CollectionHandler) Pending(c *gin.Context) {
	result, err := h.service.Pending(c.Request.Context(), h.name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Months handles GET /api/<name>/months
func (h *CollectionHandler) Months(c *gin.Context) {
	months, err := h.service.Months(c.Request.Context(), h.name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, months)
}

// DeleteFiltered handles POST /api/<name>/delete_filtered
func (h *CollectionHandler) DeleteFiltered(c *gin.Context) {
	var req DeleteFilteredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "JSON inválido")
		return
	}
	result, err := h.service.DeleteFiltered(c.Request.Context(), h.name, req.StartDate, req.EndDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Routes returns the /api/<name> group. pending, months and
// delete_filtered exist only where the schema supports them.
func (h *CollectionHandler) Routes() *router.DomainGroup {
	dg := router.NewDomainGroup(h.name, "/"+h.name).
		GET("/items", h.List).
		POST("/items", h.Create).
		PUT("/items/:key", h.Update).
		DELETE("/items/:key", h.Delete).
		POST("/delete_all", h.DeleteAll).
		GET("/export", h.Export).
		POST("/import", h.Import)
	if h.schema.Pending {
		dg.GET("/pending", h.Pending)
	}
	if h.schema.Dated {
		dg.GET("/months", h.Months).POST("/delete_filtered", h.DeleteFiltered)
	}
	return dg
}
