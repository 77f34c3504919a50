package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/application/compras"
	"github.com/coltrade/backend/internal/application/export"
	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/infrastructure/spreadsheet"
	"github.com/coltrade/backend/internal/interfaces/http/dto"
	"github.com/coltrade/backend/internal/interfaces/http/middleware"
	"github.com/coltrade/backend/internal/interfaces/http/router"
)

func newComprasEngine(t *testing.T, files map[string]string) *gin.Engine {
	t.Helper()
	middleware.SetupValidator()
	svc := compras.NewService(newStore(t, files), export.NewPublisher(nil, nil), zap.NewNop())
	return newEngine(router.NewDomainGroup("api", "/api").Add(NewComprasHandler(svc).Routes()))
}

func TestComprasHandler_ImportAndList(t *testing.T) {
	engine := newComprasEngine(t, nil)

	w := doMultipart(t, engine, "/api/compras/import", nil, formFile{
		field: "file", name: "compras.csv", data: []byte("Material;Producto;Sugerido\n100;Router;2\n100;;1,5\n"),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result compras.ImportResult
	envelope(t, w, &result)
	assert.Equal(t, compras.ImportResult{Added: 1, TotalAfter: 1}, result)

	w = doJSON(engine, http.MethodGet, "/api/compras/items", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var lines []shared.Record
	envelope(t, w, &lines)
	require.Len(t, lines, 1)
	assert.Equal(t, 3.5, lines[0][shared.FieldSugerido])
	assert.Equal(t, false, lines[0][shared.FieldConfirmar])
}

func TestComprasHandler_Update(t *testing.T) {
	engine := newComprasEngine(t, map[string]string{
		"data_compras.json": `[{"Material": "100", "Producto": "Router", "Sugerido": 1}]`,
	})

	w := doJSON(engine, http.MethodPost, "/api/compras/update", map[string]any{"Material": "100.0", "Confirmar": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body map[string]string
	envelope(t, w, &body)
	assert.Equal(t, "100", body["Material"])

	w = doJSON(engine, http.MethodPost, "/api/compras/update", map[string]any{"Material": "555"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(engine, http.MethodPost, "/api/compras/update", map[string]any{"Confirmar": true})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := envelope(t, w, nil)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.NotEmpty(t, resp.Error.Details)
	assert.Equal(t, "Material", resp.Error.Details[0].Field)
}

func TestComprasHandler_Export(t *testing.T) {
	engine := newComprasEngine(t, map[string]string{
		"data_compras.json": `[{"Material": "100", "Producto": "Router", "Sugerido": 1, "Confirmar": true}]`,
	})

	w := doJSON(engine, http.MethodGet, "/api/compras/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), compras.ExportName)

	table, err := spreadsheet.ReadXLSX(w.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, compras.EstadoAprobado, table.Rows[0][compras.ColEstado])
}
