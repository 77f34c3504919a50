package shared

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical attribute names used across every collection file.
const (
	FieldID                 = "id"
	FieldCentro             = "Centro Costos"
	FieldMaterial           = "Material"
	FieldProducto           = "Producto"
	FieldMarca              = "Marca"
	FieldPunto              = "Punto de Venta"
	FieldCanal              = "Canal o Regional"
	FieldInventario         = "Inventario"
	FieldTransitos          = "Transitos"
	FieldFecha              = "Fecha Venta"
	FieldCantidad           = "Cantidad"
	FieldMeta               = "Meta Cantidad"
	FieldSugerido           = "Sugerido"
	FieldConfirmar          = "Confirmar"
	FieldObservacion        = "Observacion"
	FieldNombrePunto        = "Nombre del Punto"
	FieldInventarioClaro    = "Inventario Claro"
	FieldTransitoClaro      = "Transito Claro"
	FieldVentasPasadasClaro = "Ventas Pasadas Claro"
	FieldVentasActualClaro  = "Ventas Actuales Claro"
	FieldSugeridoClaro      = "Sugerido Claro"
	FieldSugeridoColtrade   = "Sugerido Coltrade"
	FieldPromedio3Meses     = "Promedio 3 Meses"
	FieldSugeridoFinal      = "Sugerido Final"
)

// Aliases lists the accepted spellings of one field, canonical name first.
type Aliases []string

// aliasTable is resolved once at ingestion; readers never probe ad hoc keys.
var aliasTable = map[string]Aliases{
	FieldCentro:     {FieldCentro, "centro costos", "Centro_Costos", "centro_costos", "Centro", "centro"},
	FieldMaterial:   {FieldMaterial, "material", "MATERIAL", "Sku", "sku", "Mat"},
	FieldProducto:   {FieldProducto, "producto", "PRODUCTO", "Descripcion", "descripcion"},
	FieldMarca:      {FieldMarca, "marca", "MARCA", "Brand", "brand"},
	FieldPunto:      {FieldPunto, "punto de venta", "Punto_de_Venta", "Punto"},
	FieldCanal:      {FieldCanal, "canal o regional", "Canal", "canal", "Regional"},
	FieldInventario: {FieldInventario, "inventario", FieldCantidad, "cantidad", "Qty", "qty"},
	FieldTransitos:  {FieldTransitos, "transitos", "Tránsitos", FieldCantidad, "cantidad"},
	FieldFecha:      {FieldFecha, "Fecha_Venta", "FechaVenta", "fecha venta", "fecha_venta", "fecha", "date"},
	FieldCantidad:   {FieldCantidad, "cantidad", "CANTIDAD", "Qty", "qty", "quantity"},
	FieldMeta:       {FieldMeta, "meta cantidad", "Meta", "meta"},
	FieldSugerido:   {FieldSugerido, "sugerido", "SUGERIDO"},
}

// AliasesFor returns the alias list of field, or the field name alone when
// the field has no alternative spellings.
func AliasesFor(field string) Aliases {
	if a, ok := aliasTable[field]; ok {
		return a
	}
	return Aliases{field}
}

// Lookup returns the value of the first alias present in r with a non-empty value.
func (a Aliases) Lookup(r Record) (any, bool) {
	for _, name := range a {
		v, ok := r[name]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// Column returns the index of the first header matching an alias, compared
// case and accent insensitively, or -1.
func (a Aliases) Column(headers []string) int {
	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = HeaderKey(h)
	}
	for _, name := range a {
		want := HeaderKey(name)
		for i, h := range folded {
			if h == want {
				return i
			}
		}
	}
	return -1
}

// HeaderKey folds a column header for comparison: trimmed, lower case,
// without diacritics.
func HeaderKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		folded = strings.TrimSpace(s)
	}
	return strings.ToLower(folded)
}
