package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/coltrade/backend/internal/application/merge"
	"github.com/coltrade/backend/internal/application/serial"
	domain "github.com/coltrade/backend/internal/domain/serial"
	"github.com/coltrade/backend/internal/interfaces/http/router"
)

// ToolsHandler serves the stateless spreadsheet tools: file merge and
// serial assignment
type ToolsHandler struct {
	BaseHandler
	merge  *merge.Service
	serial *serial.Service
}

// NewToolsHandler creates a new tools handler
func NewToolsHandler(mergeService *merge.Service, serialService *serial.Service) *ToolsHandler {
	return &ToolsHandler{merge: mergeService, serial: serialService}
}

func (h *ToolsHandler) uploads(c *gin.Context) ([]merge.Upload, bool) {
	files, err := h.FormFiles(c, "files", "files[]")
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	uploads := make([]merge.Upload, 0, len(files))
	for _, f := range files {
		uploads = append(uploads, merge.Upload{Name: f.Name, Data: f.Data})
	}
	return uploads, true
}

// MergePreview handles POST /api/unir/preview
func (h *ToolsHandler) MergePreview(c *gin.Context) {
	uploads, ok := h.uploads(c)
	if !ok {
		return
	}
	preview, err := h.merge.Preview(c.Request.Context(), uploads)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}

// Merge handles POST /api/unir/merge
func (h *ToolsHandler) Merge(c *gin.Context) {
	uploads, ok := h.uploads(c)
	if !ok {
		return
	}
	file, err := h.merge.Merge(c.Request.Context(), uploads)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SendFile(c, file)
}

// SerialPreview handles POST /api/serializar/preview
func (h *ToolsHandler) SerialPreview(c *gin.Context) {
	up, ok := h.FormFile(c, "file")
	if !ok {
		return
	}
	brands, err := h.serial.Preview(c.Request.Context(), up.Name, up.Data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"marcas": brands})
}

// SerialProcess handles POST /api/serializar/process. Seeds come from the
// serial_<brand> and otros_serial form fields.
func (h *ToolsHandler) SerialProcess(c *gin.Context) {
	up, ok := h.FormFile(c, "file")
	if !ok {
		return
	}
	file, err := h.serial.Process(c.Request.Context(), up.Name, up.Data, domain.NewSeeds(c.PostForm))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SendFile(c, file)
}

// Routes returns the /unir and /serializar groups
func (h *ToolsHandler) Routes() []*router.DomainGroup {
	return []*router.DomainGroup{
		router.NewDomainGroup("unir", "/unir").
			POST("/preview", h.MergePreview).
			POST("/merge", h.Merge),
		router.NewDomainGroup("serializar", "/serializar").
			POST("/preview", h.SerialPreview).
			POST("/process", h.SerialProcess),
	}
}
