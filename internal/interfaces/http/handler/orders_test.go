package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/application/orders"
	"github.com/coltrade/backend/internal/infrastructure/odoo"
	"github.com/coltrade/backend/internal/interfaces/http/dto"
	"github.com/coltrade/backend/internal/interfaces/http/router"
)

type stubLineSource struct {
	lines []odoo.OrderLine
	err   error
}

func (s stubLineSource) FetchOrderLines(context.Context, int) ([]odoo.OrderLine, error) {
	return s.lines, s.err
}

func newOrdersEngine(source orders.LineSource) http.Handler {
	h := NewOrdersHandler(orders.NewService(source, 2025, zap.NewNop()))
	return newEngine(router.NewDomainGroup("api", "/api").Add(h.Routes()))
}

func TestOrdersHandler_List(t *testing.T) {
	engine := newOrdersEngine(stubLineSource{lines: []odoo.OrderLine{
		{Referencia: "S1", State: "sale", CreateDate: "2025-01-02 10:00:00"},
		{Referencia: "S2", State: "sale", CreateDate: "2025-03-02 10:00:00"},
		{Referencia: "S3", State: "draft", CreateDate: "2025-03-05 10:00:00"},
		{Referencia: "S4", State: "sale", CreateDate: "2024-12-31 10:00:00"},
	}})

	w := doJSON(engine, http.MethodGet, "/api/justintime?page=1&per_page=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page orders.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.True(t, page.Success)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 1, page.PerPage)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "S2", page.Data[0].Referencia)
}

func TestOrdersHandler_Unavailable(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		w := doJSON(newOrdersEngine(nil), http.MethodGet, "/api/justintime", nil)
		require.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, dto.ErrCodeUpstream, envelope(t, w, nil).Error.Code)
	})

	t.Run("fetch failure", func(t *testing.T) {
		w := doJSON(newOrdersEngine(stubLineSource{err: errors.New("connection refused")}),
			http.MethodGet, "/api/justintime", nil)
		require.Equal(t, http.StatusBadGateway, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}
