// Package reconciliation joins the inventory, transit, sales and catalog
// collections on the (location, item) key and derives the replenishment
// report rows served by the forecast and cross-reference screens.
package reconciliation

import "github.com/coltrade/backend/internal/domain/shared"

// ItemInfo is the display data of a catalog item.
type ItemInfo struct {
	Name  string
	Brand string
}

// LocationInfo is the display data of a point of sale.
type LocationInfo struct {
	Name    string
	Channel string
}

// Catalog holds the enrichment maps keyed by canonical codes.
type Catalog struct {
	items     map[string]ItemInfo
	locations map[string]LocationInfo
}

// BuildCatalog indexes products by material and points of sale by cost
// center. Duplicate keys resolve to the last record.
func BuildCatalog(productos, puntos []shared.Record) *Catalog {
	c := &Catalog{
		items:     make(map[string]ItemInfo, len(productos)),
		locations: make(map[string]LocationInfo, len(puntos)),
	}
	for _, p := range productos {
		key := shared.CanonicalMaterial(p[shared.FieldMaterial])
		if key == "" {
			continue
		}
		c.items[key] = ItemInfo{
			Name:  p.Text(shared.FieldProducto),
			Brand: p.Text(shared.FieldMarca),
		}
	}
	for _, p := range puntos {
		key := shared.CanonicalCentro(p[shared.FieldCentro])
		if key == "" {
			continue
		}
		c.locations[key] = LocationInfo{
			Name:    p.Text(shared.FieldPunto),
			Channel: p.Text(shared.FieldCanal),
		}
	}
	return c
}

// Item returns the catalog entry for material.
func (c *Catalog) Item(material string) (ItemInfo, bool) {
	info, ok := c.items[shared.CanonicalMaterial(material)]
	return info, ok
}

// Location returns the point of sale registered for centro.
func (c *Catalog) Location(centro string) (LocationInfo, bool) {
	info, ok := c.locations[shared.CanonicalCentro(centro)]
	return info, ok
}

// HasItem reports whether material is catalogued.
func (c *Catalog) HasItem(material string) bool {
	_, ok := c.Item(material)
	return ok
}

// keyOf reads the composite key of a location x item record.
func keyOf(r shared.Record) shared.CompositeKey {
	return shared.NewCompositeKey(r[shared.FieldCentro], r[shared.FieldMaterial])
}

// StockIndex sums a quantity field per composite key.
type StockIndex map[shared.CompositeKey]float64

// BuildStockIndex sums field over records sharing a key. Records without a
// material are ignored.
func BuildStockIndex(records []shared.Record, field string) StockIndex {
	idx := make(StockIndex, len(records))
	for _, r := range records {
		k := keyOf(r)
		if k.Material == "" {
			continue
		}
		idx[k] += r.Float(field)
	}
	return idx
}

// latestIndex keeps the last quantity seen per key.
func latestIndex(records []shared.Record, field string) StockIndex {
	idx := make(StockIndex, len(records))
	for _, r := range records {
		k := keyOf(r)
		if k.Material == "" || k.Centro == "" {
			continue
		}
		idx[k] = r.Float(field)
	}
	return idx
}
