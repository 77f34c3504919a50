package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coltrade/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects requests declaring more than maxBytes and caps the
// bytes read from chunked bodies.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeTooLarge,
				"El cuerpo de la solicitud excede el tamaño permitido",
				c.GetString("request_id"),
			))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
