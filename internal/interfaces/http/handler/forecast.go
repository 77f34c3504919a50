package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coltrade/backend/internal/application/reconciliation"
	domain "github.com/coltrade/backend/internal/domain/reconciliation"
	"github.com/coltrade/backend/internal/interfaces/http/router"
)

// ForecastHandler serves the supply forecast and the cross reference
// report. Successful replies keep the bare shapes the dashboard reads.
type ForecastHandler struct {
	BaseHandler
	service *reconciliation.Service
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(service *reconciliation.Service) *ForecastHandler {
	return &ForecastHandler{service: service}
}

func filterParams(c *gin.Context) domain.FilterParams {
	return domain.FilterParams{
		Centro:   c.Query("centro"),
		Punto:    c.Query("punto"),
		Material: c.Query("material"),
		Producto: c.Query("producto"),
		Marca:    c.Query("marca"),
		Canal:    c.Query("canal"),
	}
}

// Data handles GET /forecast/data?page&page_size&centro&punto&material&producto&marca&canal
func (h *ForecastHandler) Data(c *gin.Context) {
	page := domain.ParsePageRequest(c.Query("page"), c.Query("page_size"))
	result, err := h.service.Forecast(c.Request.Context(), filterParams(c), page)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Options handles GET /forecast/options with the same filters as Data
func (h *ForecastHandler) Options(c *gin.Context) {
	options, err := h.service.Options(c.Request.Context(), filterParams(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

// CrossData handles GET /cruzar/api/data
func (h *ForecastHandler) CrossData(c *gin.Context) {
	rows, err := h.service.CrossReference(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if rows == nil {
		rows = []domain.CrossRow{}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": rows})
}

// CrossExport handles GET /cruzar/api/export
func (h *ForecastHandler) CrossExport(c *gin.Context) {
	file, err := h.service.ExportCrossReference(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SendFile(c, file)
}

// Routes returns the forecast and cross reference groups
func (h *ForecastHandler) Routes() []*router.DomainGroup {
	return []*router.DomainGroup{
		router.NewDomainGroup("forecast", "/forecast").
			GET("/data", h.Data).
			GET("/options", h.Options),
		router.NewDomainGroup("cruzar", "/cruzar/api").
			GET("/data", h.CrossData).
			GET("/export", h.CrossExport),
	}
}
