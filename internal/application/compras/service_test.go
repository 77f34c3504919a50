package compras

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/application/export"
	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/infrastructure/jsonstore"
	"github.com/coltrade/backend/internal/infrastructure/spreadsheet"
)

func newTestService(t *testing.T, existing ...shared.Record) *Service {
	t.Helper()
	store, err := jsonstore.New(jsonstore.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	svc := NewService(store, export.NewPublisher(nil, nil), zap.NewNop())
	if len(existing) > 0 {
		require.NoError(t, store.Save(context.Background(), svc.schema.File, existing))
	}
	return svc
}

func TestService_ImportGroupsAndMerges(t *testing.T) {
	svc := newTestService(t, shared.Record{
		"Material": "100", "Producto": "", "Marca": "Zte", "Sugerido": 2, "Confirmar": true, "Observacion": "ok",
	})

	csv := "Material;Descripcion;Marca;Sugerido\n100.0;Router;Otra;1,5\n100;;;3\n8,40081E+11;Cable;Aiwa;4\n;Nada;;9\n"
	res, err := svc.Import(context.Background(), "compras.csv", []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 2, res.TotalAfter)

	lines, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, lines, 2)

	first := lines[0]
	assert.Equal(t, "100", first[shared.FieldMaterial])
	assert.Equal(t, 6.5, first[shared.FieldSugerido])
	assert.Equal(t, "Router", first[shared.FieldProducto], "blank producto is filled")
	assert.Equal(t, "Zte", first[shared.FieldMarca], "existing marca is kept")
	assert.Equal(t, true, first[shared.FieldConfirmar])
	assert.Equal(t, "ok", first[shared.FieldObservacion])

	second := lines[1]
	assert.Equal(t, "840081000000", second[shared.FieldMaterial])
	assert.Equal(t, int64(4), second[shared.FieldSugerido])
	assert.Equal(t, false, second[shared.FieldConfirmar])
}

func TestService_ImportRequiresMaterialColumn(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Import(context.Background(), "compras.csv", []byte("Producto,Sugerido\nA,1\n"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestService_UpdateItem(t *testing.T) {
	svc := newTestService(t, shared.Record{"Material": "100", "Producto": "Router", "Sugerido": 1})
	ctx := context.Background()

	yes := true
	note := "revisar"
	blank := " "
	material, err := svc.UpdateItem(ctx, UpdateInput{Material: "100.0", Confirmar: &yes, Observacion: &note, Producto: &blank})
	require.NoError(t, err)
	assert.Equal(t, "100", material)

	lines, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, lines[0][shared.FieldConfirmar])
	assert.Equal(t, "revisar", lines[0][shared.FieldObservacion])
	assert.Equal(t, "Router", lines[0][shared.FieldProducto])

	_, err = svc.UpdateItem(ctx, UpdateInput{Material: "555"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.UpdateItem(ctx, UpdateInput{Material: "  "})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestService_Export(t *testing.T) {
	svc := newTestService(t,
		shared.Record{"Material": "1", "Producto": "A", "Sugerido": 2, "Confirmar": true},
		shared.Record{"Material": "2", "Producto": "B", "Sugerido": 1.5})

	file, err := svc.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExportName, file.Name)

	table, err := spreadsheet.ReadXLSX(file.Data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Material", "Producto", "Marca", "Sugerido", "Estado", "Observacion"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, EstadoAprobado, table.Rows[0][ColEstado])
	assert.Equal(t, EstadoNoAprobado, table.Rows[1][ColEstado])
	assert.Equal(t, "1.5", table.Rows[1][shared.FieldSugerido])
}
