// Package orders pages through the confirmed sale order lines of the ERP.
package orders

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/infrastructure/odoo"
	"github.com/coltrade/backend/internal/infrastructure/telemetry"
)

// Paging defaults
const (
	DefaultPerPage = 25
	MaxPerPage     = 100
	StateSale      = "sale"
)

// LineSource fetches the order lines created in one year
type LineSource interface {
	FetchOrderLines(ctx context.Context, year int) ([]odoo.OrderLine, error)
}

// Page is one page of order lines
type Page struct {
	Success    bool             `json:"success"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
	Data       []odoo.OrderLine `json:"data"`
}

// Service lists order lines. A nil source means the ERP is not configured.
type Service struct {
	source LineSource
	year   int
	logger *zap.Logger
}

// NewService creates an order service reading lines of year
func NewService(source LineSource, year int, logger *zap.Logger) *Service {
	return &Service{source: source, year: year, logger: logger}
}

// ParsePaging reads page and per_page query values. Unreadable values fall
// back to the defaults; per_page is capped at MaxPerPage.
func ParsePaging(page, perPage string) (int, int) {
	p, err := strconv.Atoi(strings.TrimSpace(page))
	if err != nil || p < 1 {
		p = 1
	}
	pp, err := strconv.Atoi(strings.TrimSpace(perPage))
	if err != nil || pp < 1 {
		pp = DefaultPerPage
	}
	if pp > MaxPerPage {
		pp = MaxPerPage
	}
	return p, pp
}

// List returns the page of sale lines of the configured year, newest first
func (s *Service) List(ctx context.Context, page, perPage int) (*Page, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "orders", "list", telemetry.SpanAttrPage, page)
	defer span.End()

	if s.source == nil {
		return nil, shared.NewDomainError("UPSTREAM_ERROR", "La conexión con Odoo no está configurada")
	}
	lines, err := s.source.FetchOrderLines(ctx, s.year)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("failed to fetch order lines", zap.Int("year", s.year), zap.Error(err))
		return nil, shared.NewDomainError("UPSTREAM_ERROR", "Error interno del servidor")
	}

	prefix := fmt.Sprintf("%04d", s.year)
	sale := make([]odoo.OrderLine, 0, len(lines))
	for _, l := range lines {
		if !strings.HasPrefix(l.CreateDate, prefix) || !strings.EqualFold(l.State, StateSale) {
			continue
		}
		sale = append(sale, l)
	}
	sort.SliceStable(sale, func(i, j int) bool { return sale[i].CreateDate > sale[j].CreateDate })

	result := &Page{Success: true, Page: page, PerPage: perPage, Total: len(sale), Data: []odoo.OrderLine{}}
	result.TotalPages = (result.Total + perPage - 1) / perPage
	if page >= 1 && page <= result.TotalPages {
		start := (page - 1) * perPage
		result.Data = sale[start:min(start+perPage, len(sale))]
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrRecords, result.Total)
	return result, nil
}
