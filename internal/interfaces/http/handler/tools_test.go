package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/application/export"
	"github.com/coltrade/backend/internal/application/merge"
	"github.com/coltrade/backend/internal/application/serial"
	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/infrastructure/spreadsheet"
	"github.com/coltrade/backend/internal/interfaces/http/dto"
	"github.com/coltrade/backend/internal/interfaces/http/router"
)

func newToolsEngine() *gin.Engine {
	exports := export.NewPublisher(nil, nil)
	serialService := serial.NewService(exports, zap.NewNop()).
		WithClock(func() time.Time { return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) })
	h := NewToolsHandler(merge.NewService(exports, zap.NewNop()), serialService)
	return newEngine(router.NewDomainGroup("api", "/api").Add(h.Routes()...))
}

func TestToolsHandler_MergePreview(t *testing.T) {
	engine := newToolsEngine()

	w := doMultipart(t, engine, "/api/unir/preview", nil,
		formFile{field: "files", name: "a.csv", data: []byte("Centro Costos,Material,Sugerido\nC1,0012,3\n")},
		formFile{field: "files[]", name: "b.csv", data: []byte("Punto de Venta,Material,Inventario\nTienda,99,4.5\n")},
	)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var preview merge.Preview
	envelope(t, w, &preview)
	assert.Equal(t, merge.Columns, preview.Columns)
	require.Len(t, preview.Rows, 2)
	assert.Equal(t, "0012", preview.Rows[0][2])
	assert.Equal(t, "Tienda", preview.Rows[1][1])
}

func TestToolsHandler_MergeWithoutFiles(t *testing.T) {
	engine := newToolsEngine()

	w := doMultipart(t, engine, "/api/unir/merge", map[string]string{"x": "1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, envelope(t, w, nil).Error.Code)

	w = doJSON(engine, http.MethodPost, "/api/unir/merge", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToolsHandler_Merge(t *testing.T) {
	engine := newToolsEngine()

	w := doMultipart(t, engine, "/api/unir/merge", nil,
		formFile{field: "files", name: "a.csv", data: []byte("Material,Sugerido\n1,2\n")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), merge.OutputName)

	table, err := spreadsheet.ReadXLSX(w.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)
}

const suggestionCSV = "Centro Costos,Punto de Venta,Material,Producto,Marca,Sugerido Final\n" +
	"C1,Tienda,100,Audifonos,Aiwa,2\n" +
	"C1,Tienda,200,Cable,Generica,1\n" +
	"C2,Otra,300,Nada,Zte,0\n"

func TestToolsHandler_SerialPreview(t *testing.T) {
	engine := newToolsEngine()

	w := doMultipart(t, engine, "/api/serializar/preview", nil,
		formFile{field: "file", name: "sugerido.csv", data: []byte(suggestionCSV)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Marcas []string `json:"marcas"`
	}
	envelope(t, w, &body)
	assert.Equal(t, []string{"Aiwa", "Generica"}, body.Marcas)
}

func TestToolsHandler_SerialProcess(t *testing.T) {
	engine := newToolsEngine()

	w := doMultipart(t, engine, "/api/serializar/process",
		map[string]string{"serial_aiwa": "AW-9", "otros_serial": "X1"},
		formFile{field: "file", name: "sugerido.csv", data: []byte(suggestionCSV)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), serial.OutputName)

	table, err := spreadsheet.ReadXLSX(w.Body.Bytes())
	require.NoError(t, err)
	var serials []string
	for _, r := range table.Rows {
		if s := r.Text("Serial"); s != "" {
			serials = append(serials, s)
		}
	}
	assert.Equal(t, []string{"AW-9", "AW-10", "X1"}, serials)
	assert.Equal(t, "2025-06-15", table.Rows[0].Text("Fecha Actual"))
	assert.Equal(t, "Aiwa", table.Rows[0].Text(shared.FieldMarca))
}

func TestToolsHandler_SerialMissingFile(t *testing.T) {
	engine := newToolsEngine()

	w := doMultipart(t, engine, "/api/serializar/process", map[string]string{"serial_aiwa": "1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No se envió ningún archivo", envelope(t, w, nil).Error.Message)
}
