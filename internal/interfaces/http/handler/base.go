// Package handler holds the gin handlers of the dashboard API.
package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/application/export"
	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/infrastructure/logger"
	"github.com/coltrade/backend/internal/interfaces/http/dto"
)

// ArchiveURLHeader carries the archived copy of a download when object
// storage is configured
const ArchiveURLHeader = "X-Archive-URL"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts domain errors to their HTTP status. Anything else
// is logged and answered with a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	logger.FromContext(c.Request.Context()).Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	h.InternalError(c, "Ocurrió un error inesperado")
}

// SendFile writes a generated file as an attachment
func (h *BaseHandler) SendFile(c *gin.Context, file *export.File) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`,
		file.Name, url.PathEscape(file.Name)))
	if file.ArchiveURL != "" {
		c.Header(ArchiveURLHeader, file.ArchiveURL)
	}
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// Upload is one file read from a multipart form
type Upload struct {
	Name string
	Data []byte
}

// FormFile reads the upload of field, answering 400 itself when it is
// missing. ok is false when a response was already written.
func (h *BaseHandler) FormFile(c *gin.Context, field string) (Upload, bool) {
	fh, err := c.FormFile(field)
	if err != nil || fh.Filename == "" {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "No se envió ningún archivo")
		return Upload{}, false
	}
	up, err := readUpload(fh)
	if err != nil {
		h.HandleError(c, err)
		return Upload{}, false
	}
	return up, true
}

// FormFiles reads every upload of the given fields in order
func (h *BaseHandler) FormFiles(c *gin.Context, fields ...string) ([]Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Formulario inválido: %v", err))
	}
	var uploads []Upload
	for _, field := range fields {
		for _, fh := range form.File[field] {
			up, err := readUpload(fh)
			if err != nil {
				return nil, err
			}
			uploads = append(uploads, up)
		}
	}
	return uploads, nil
}

func readUpload(fh *multipart.FileHeader) (Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return Upload{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return Upload{}, shared.NewDomainError("REQUEST_TOO_LARGE", "El archivo excede el tamaño permitido")
		}
		return Upload{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return Upload{Name: fh.Filename, Data: data}, nil
}
