package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coltrade/backend/internal/infrastructure/cache"
	"github.com/coltrade/backend/internal/interfaces/http/router"
)

// DataDir is the collection directory checked by /health
type DataDir interface {
	Dir() string
	Readable() error
}

// SystemHandler reports process health
type SystemHandler struct {
	BaseHandler
	data      DataDir
	cooldown  cache.CooldownGate
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(data DataDir, cooldown cache.CooldownGate) *SystemHandler {
	return &SystemHandler{data: data, cooldown: cooldown, startTime: time.Now()}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status        string `json:"status"`
	DataDir       string `json:"data_dir"`
	DataReadable  bool   `json:"data_readable"`
	DataError     string `json:"data_error,omitempty"`
	ImportBackend string `json:"import_cooldown_backend"`
	GoVersion     string `json:"go_version"`
	Uptime        string `json:"uptime"`
}

// Health handles GET /health. An unreadable data dir answers 503.
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:       "ok",
		DataDir:      h.data.Dir(),
		DataReadable: true,
		GoVersion:    runtime.Version(),
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.cooldown != nil {
		resp.ImportBackend = h.cooldown.Backend()
	}

	status := http.StatusOK
	if err := h.data.Readable(); err != nil {
		resp.Status = "degraded"
		resp.DataReadable = false
		resp.DataError = err.Error()
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// Routes returns the unauthenticated /health route
func (h *SystemHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("system", "").GET("/health", h.Health)
}
