package odoo

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/domain/shared"
)

// OrderLine is one confirmed sale order line joined with its product and order
type OrderLine struct {
	RefInterna    string  `json:"ref_interna"`
	PriceUnit     float64 `json:"price_unit"`
	NombreCorto   string  `json:"nombre_corto"`
	QtyDelivered  float64 `json:"qty_delivered"`
	Cantidad      float64 `json:"cantidad"`
	State         string  `json:"state"`
	CreateDate    string  `json:"create_date"`
	EffectiveDate string  `json:"effective_date"`
	Canal         string  `json:"canal"`
	Fuente        string  `json:"fuente"`
	Marca         string  `json:"marca"`
	OrdenFuente   string  `json:"orden_fuente"`
	Referencia    string  `json:"referencia"`
	Vendedor      string  `json:"vendedor"`
}

var (
	lineFields    = []interface{}{"id", "order_id", "product_id", "product_uom_qty", "qty_delivered", "price_unit", "name_short", "create_date"}
	productFields = []interface{}{"id", "default_code", "x_studio_marca"}
	orderFields   = []interface{}{"id", "state", "create_date", "effective_date", "x_studio_canal", "x_studio_fuente_1", "x_studio_orden_fuente", "name", "user_id"}
)

// FetchOrderLines returns the lines created during year whose order is in
// state "sale". Product and order reads are best effort: a failed batch
// leaves the joined fields empty.
func (c *Client) FetchOrderLines(ctx context.Context, year int) ([]OrderLine, error) {
	domain := []interface{}{
		[]interface{}{"create_date", ">=", fmt.Sprintf("%04d-01-01", year)},
		[]interface{}{"create_date", "<", fmt.Sprintf("%04d-01-01", year+1)},
		[]interface{}{"state", "=", "sale"},
	}
	lines, err := c.ExecuteKW(ctx, "sale.order.line", "search_read",
		[]interface{}{domain},
		map[string]interface{}{"fields": lineFields, "order": "create_date DESC"})
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return []OrderLine{}, nil
	}

	productIDs := make(map[int64]struct{})
	orderIDs := make(map[int64]struct{})
	for _, l := range lines {
		if id, ok := extractID(l["product_id"]); ok {
			productIDs[id] = struct{}{}
		}
		if id, ok := extractID(l["order_id"]); ok {
			orderIDs[id] = struct{}{}
		}
	}

	products := c.readByID(ctx, "product.product", productIDs, productFields)
	orders := c.readByID(ctx, "sale.order", orderIDs, orderFields)

	out := make([]OrderLine, 0, len(lines))
	for _, l := range lines {
		var prod, order map[string]interface{}
		if id, ok := extractID(l["product_id"]); ok {
			prod = products[id]
		}
		if id, ok := extractID(l["order_id"]); ok {
			order = orders[id]
		}

		createDate := text(order["create_date"])
		if createDate == "" {
			createDate = text(l["create_date"])
		}

		out = append(out, OrderLine{
			RefInterna:    text(prod["default_code"]),
			PriceUnit:     number(l["price_unit"]),
			NombreCorto:   text(l["name_short"]),
			QtyDelivered:  number(l["qty_delivered"]),
			Cantidad:      number(l["product_uom_qty"]),
			State:         text(order["state"]),
			CreateDate:    createDate,
			EffectiveDate: text(order["effective_date"]),
			Canal:         text(order["x_studio_canal"]),
			Fuente:        text(order["x_studio_fuente_1"]),
			Marca:         text(prod["x_studio_marca"]),
			OrdenFuente:   text(order["x_studio_orden_fuente"]),
			Referencia:    text(order["name"]),
			Vendedor:      relationName(order["user_id"]),
		})
	}

	c.logger.Info("odoo order lines fetched", zap.Int("year", year), zap.Int("lines", len(out)))
	return out, nil
}

func (c *Client) readByID(ctx context.Context, model string, ids map[int64]struct{}, fields []interface{}) map[int64]map[string]interface{} {
	out := make(map[int64]map[string]interface{}, len(ids))
	if len(ids) == 0 {
		return out
	}
	list := make([]int64, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	idArgs := make([]interface{}, len(list))
	for i, id := range list {
		idArgs[i] = id
	}

	records, err := c.ExecuteKW(ctx, model, "read", []interface{}{idArgs}, map[string]interface{}{"fields": fields})
	if err != nil {
		c.logger.Warn("odoo batch read failed", zap.String("model", model), zap.Int("ids", len(list)), zap.Error(err))
		return out
	}
	for _, r := range records {
		if id, ok := extractID(r["id"]); ok {
			out[id] = r
		}
	}
	return out
}

// extractID reads a many2one value ([id, name]) or a plain id. Odoo sends
// false for empty relations.
func extractID(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case []interface{}:
		if len(t) == 0 {
			return 0, false
		}
		return extractID(t[0])
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	}
	return 0, false
}

// relationName returns the display name of a many2one value
func relationName(v interface{}) string {
	if t, ok := v.([]interface{}); ok {
		if len(t) > 1 {
			return text(t[1])
		}
		return ""
	}
	return text(v)
}

// text maps Odoo's false placeholder to ""
func text(v interface{}) string {
	if b, ok := v.(bool); ok && !b {
		return ""
	}
	return shared.Text(v)
}

func number(v interface{}) float64 {
	if _, ok := v.(bool); ok {
		return 0
	}
	return shared.Float(v)
}
