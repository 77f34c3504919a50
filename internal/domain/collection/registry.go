package collection

import (
	"sort"

	"github.com/coltrade/backend/internal/domain/shared"
)

// Collection names.
const (
	Productos  = "productos"
	Puntos     = "puntos"
	Inventario = "inventario"
	Transitos  = "transitos"
	Ventas     = "ventas"
	Metas      = "metas"
	Claro      = "claro"
	Coltrade   = "coltrade"
	Compras    = "compras"
)

var registry = map[string]Schema{
	Productos: {
		Name:  Productos,
		File:  "productos_claro.json",
		Sheet: "Productos",
		Fields: []Field{
			{Name: shared.FieldMaterial, Kind: KindMaterial, Required: true},
			{Name: shared.FieldProducto},
			{Name: shared.FieldMarca},
		},
		Key:      KeyByField,
		KeyField: shared.FieldMaterial,
	},
	Puntos: {
		Name:  Puntos,
		File:  "puntos_venta_claro.json",
		Sheet: "Puntos",
		Fields: []Field{
			{Name: shared.FieldCentro, Kind: KindCentro, Required: true},
			{Name: shared.FieldPunto},
			{Name: shared.FieldCanal},
		},
		Key:      KeyByField,
		KeyField: shared.FieldCentro,
	},
	Inventario: {
		Name:  Inventario,
		File:  "inventario_claro.json",
		Sheet: "Inventario",
		Fields: []Field{
			{Name: shared.FieldCentro, Kind: KindCentro},
			{Name: shared.FieldMaterial, Kind: KindMaterial, Required: true},
			{Name: shared.FieldInventario, Kind: KindNumber},
		},
		Pending: true,
	},
	Transitos: {
		Name:  Transitos,
		File:  "transitos.json",
		Sheet: "Transitos",
		Fields: []Field{
			{Name: shared.FieldCentro, Kind: KindCentro},
			{Name: shared.FieldMaterial, Kind: KindMaterial, Required: true},
			{Name: shared.FieldTransitos, Kind: KindNumber},
		},
		Pending: true,
	},
	Ventas: {
		Name:  Ventas,
		File:  "ventas_claro.json",
		Sheet: "Ventas",
		Fields: []Field{
			{Name: shared.FieldCentro, Kind: KindCentro, Required: true},
			{Name: shared.FieldMaterial, Kind: KindMaterial, Required: true},
			{Name: shared.FieldFecha, Kind: KindDate},
			{Name: shared.FieldCantidad, Kind: KindNumber},
		},
		Cooldown: true,
		Pending:  true,
		Dated:    true,
	},
	Metas: {
		Name:  Metas,
		File:  "metas.json",
		Sheet: "Metas",
		Fields: []Field{
			{Name: shared.FieldCentro, Kind: KindCentro},
			{Name: shared.FieldMaterial, Kind: KindMaterial, Required: true},
			{Name: shared.FieldMeta, Kind: KindNumber},
		},
	},
	Claro: {
		Name:  Claro,
		File:  "data_claro.json",
		Sheet: "Data Claro",
		Fields: []Field{
			{Name: shared.FieldMaterial, Kind: KindMaterial, Required: true},
			{Name: shared.FieldProducto},
			{Name: shared.FieldCentro, Kind: KindCentro},
			{Name: shared.FieldNombrePunto},
			{Name: shared.FieldInventarioClaro, Kind: KindNumber},
			{Name: shared.FieldTransitoClaro, Kind: KindNumber},
			{Name: shared.FieldVentasPasadasClaro, Kind: KindNumber},
			{Name: shared.FieldVentasActualClaro, Kind: KindNumber},
			{Name: shared.FieldSugeridoClaro, Kind: KindNumber},
		},
		Key: KeyByID,
		aliasOver: map[string]shared.Aliases{
			shared.FieldNombrePunto: {shared.FieldNombrePunto, shared.FieldPunto},
		},
	},
	Coltrade: {
		Name:  Coltrade,
		File:  "data_coltrade.json",
		Sheet: "Data Coltrade",
		Fields: []Field{
			{Name: shared.FieldMaterial, Kind: KindMaterial, Required: true},
			{Name: shared.FieldProducto},
			{Name: shared.FieldCentro, Kind: KindCentro},
			{Name: shared.FieldNombrePunto},
			{Name: shared.FieldSugeridoColtrade, Kind: KindNumber},
			{Name: shared.FieldPromedio3Meses, Kind: KindNumber},
		},
		Key: KeyByID,
		aliasOver: map[string]shared.Aliases{
			shared.FieldNombrePunto: {shared.FieldNombrePunto, shared.FieldPunto},
		},
	},
	Compras: {
		Name:  Compras,
		File:  "data_compras.json",
		Sheet: "Compras",
		Fields: []Field{
			{Name: shared.FieldMaterial, Kind: KindMaterial, Required: true},
			{Name: shared.FieldProducto},
			{Name: shared.FieldMarca},
			{Name: shared.FieldSugerido, Kind: KindNumber},
			{Name: shared.FieldConfirmar, Kind: KindBool},
			{Name: shared.FieldObservacion},
		},
		Key:      KeyByField,
		KeyField: shared.FieldMaterial,
	},
}

// Lookup returns the schema registered under name.
func Lookup(name string) (Schema, bool) {
	s, ok := registry[name]
	return s, ok
}

// MustLookup returns the schema registered under name or panics.
func MustLookup(name string) Schema {
	s, ok := registry[name]
	if !ok {
		panic("collection: unknown schema " + name)
	}
	return s
}

// Names lists the registered collections in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
