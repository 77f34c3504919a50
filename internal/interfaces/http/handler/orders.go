package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coltrade/backend/internal/application/orders"
	"github.com/coltrade/backend/internal/interfaces/http/router"
)

// OrdersHandler serves confirmed Odoo order lines
type OrdersHandler struct {
	BaseHandler
	service *orders.Service
}

// NewOrdersHandler creates a new orders handler
func NewOrdersHandler(service *orders.Service) *OrdersHandler {
	return &OrdersHandler{service: service}
}

// List handles GET /api/justintime?page&per_page
func (h *OrdersHandler) List(c *gin.Context) {
	page, perPage := orders.ParsePaging(c.Query("page"), c.Query("per_page"))
	result, err := h.service.List(c.Request.Context(), page, perPage)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Routes returns the /justintime group
func (h *OrdersHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("justintime", "/justintime").GET("", h.List)
}
