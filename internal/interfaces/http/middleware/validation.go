package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/interfaces/http/dto"
)

// SetupValidator reports JSON field names in errors and registers the
// "material" tag, which accepts values with a non-empty canonical code.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	_ = v.RegisterValidation("material", func(fl validator.FieldLevel) bool {
		return shared.CanonicalMaterial(fl.Field().Interface()) != ""
	})
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: getValidationMessage(e),
			})
		}
	}

	return dto.NewValidationErrorResponse("Solicitud inválida", requestID, details)
}

// HandleValidationError writes a 400 validation error response
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, c.GetString("request_id")))
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Campo requerido"
	case "material":
		return "Material inválido"
	case "email":
		return "Formato de correo inválido"
	case "min":
		return "Debe ser al menos " + e.Param()
	case "max":
		return "Debe ser como máximo " + e.Param()
	case "oneof":
		return "Debe ser uno de: " + e.Param()
	case "gte":
		return "Debe ser mayor o igual a " + e.Param()
	case "lte":
		return "Debe ser menor o igual a " + e.Param()
	default:
		return "Valor inválido"
	}
}
