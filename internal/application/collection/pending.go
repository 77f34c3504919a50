package collection

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/domain/collection"
	"github.com/coltrade/backend/internal/domain/shared"
)

// catalogKeys holds every spelling of the materials in productos and the
// centros in puntos.
type catalogKeys struct {
	materials map[string]struct{}
	centros   map[string]struct{}
}

func (s *Service) loadCatalogKeys(ctx context.Context) (*catalogKeys, error) {
	keys := &catalogKeys{
		materials: make(map[string]struct{}),
		centros:   make(map[string]struct{}),
	}
	productos, err := s.repo.Load(ctx, collection.MustLookup(collection.Productos).File)
	if err != nil {
		return nil, err
	}
	puntos, err := s.repo.Load(ctx, collection.MustLookup(collection.Puntos).File)
	if err != nil {
		return nil, err
	}
	for _, p := range productos {
		v, _ := shared.AliasesFor(shared.FieldMaterial).Lookup(p)
		for variant := range shared.MaterialVariants(v) {
			keys.materials[variant] = struct{}{}
		}
	}
	for _, p := range puntos {
		v, _ := shared.AliasesFor(shared.FieldCentro).Lookup(p)
		for variant := range shared.CentroVariants(v) {
			keys.centros[variant] = struct{}{}
		}
	}
	return keys, nil
}

// missing lists, sorted and distinct, the raw codes of records that match
// no catalog spelling.
func (k *catalogKeys) missing(records []shared.Record) PendingResult {
	materials, centros := make(map[string]struct{}), make(map[string]struct{})
	for _, r := range records {
		if m := r.Text(shared.FieldMaterial); m != "" && !shared.Intersects(shared.MaterialVariants(m), k.materials) {
			materials[m] = struct{}{}
		}
		if c := r.Text(shared.FieldCentro); c != "" && !shared.Intersects(shared.CentroVariants(c), k.centros) {
			centros[c] = struct{}{}
		}
	}
	return PendingResult{Materials: sortedKeys(materials), Centros: sortedKeys(centros)}
}

// missingFor reports the catalog gaps introduced by records. Failures to
// read the catalogs are logged and yield nothing.
func (s *Service) missingFor(ctx context.Context, schema collection.Schema, records ...shared.Record) MissingKeys {
	if !schema.Pending || len(records) == 0 {
		return MissingKeys{}
	}
	keys, err := s.loadCatalogKeys(ctx)
	if err != nil {
		s.logger.Warn("catalog check skipped", zap.String("collection", schema.Name), zap.Error(err))
		return MissingKeys{}
	}
	p := keys.missing(records)
	return MissingKeys{Materials: p.Materials, Centros: p.Centros}
}

// Pending scans the whole collection for materials and centros absent
// from the catalogs.
func (s *Service) Pending(ctx context.Context, name string) (*PendingResult, error) {
	schema, err := s.Schema(name)
	if err != nil {
		return nil, err
	}
	if !schema.Pending {
		return nil, shared.NewDomainError("INVALID_INPUT", "La colección no se valida contra el catálogo")
	}
	records, err := s.List(ctx, name)
	if err != nil {
		return nil, err
	}
	keys, err := s.loadCatalogKeys(ctx)
	if err != nil {
		return nil, err
	}
	result := keys.missing(records)
	return &result, nil
}

// Months lists the distinct sale months as "Mes - Año", oldest first.
func (s *Service) Months(ctx context.Context, name string) ([]string, error) {
	schema, err := s.datedSchema(name)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.Load(ctx, schema.File)
	if err != nil {
		return nil, err
	}

	seen := make(map[shared.YearMonth]struct{})
	for _, r := range records {
		v, _ := schema.Aliases(shared.FieldFecha).Lookup(r)
		if t, ok := shared.ParseDate(v); ok {
			seen[shared.YearMonthOf(t)] = struct{}{}
		}
	}
	months := make([]shared.YearMonth, 0, len(seen))
	for ym := range seen {
		months = append(months, ym)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	labels := make([]string, 0, len(months))
	for _, ym := range months {
		labels = append(labels, ym.SpanishLabel())
	}
	return labels, nil
}

// DeleteFiltered removes the records dated inside [start, end]. Either
// bound may be empty but not both. Records without a readable date are
// kept.
func (s *Service) DeleteFiltered(ctx context.Context, name, start, end string) (*DeleteFilteredResult, error) {
	schema, err := s.datedSchema(name)
	if err != nil {
		return nil, err
	}
	from, hasFrom := shared.ParseDate(start)
	to, hasTo := shared.ParseDate(end)
	if !hasFrom && !hasTo {
		return nil, shared.NewDomainError("INVALID_INPUT",
			"Se requiere al menos start_date o end_date en formato ISO (YYYY-MM-DD)")
	}

	result := &DeleteFilteredResult{}
	kept, err := s.repo.Update(ctx, schema.File, func(records []shared.Record) ([]shared.Record, error) {
		out := make([]shared.Record, 0, len(records))
		for _, r := range records {
			v, _ := schema.Aliases(shared.FieldFecha).Lookup(r)
			t, ok := shared.ParseDate(v)
			if ok && (!hasFrom || !t.Before(from)) && (!hasTo || !t.After(to)) {
				result.Deleted++
				continue
			}
			out = append(out, r)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	result.Remaining = len(kept)

	s.logger.Info("dated records deleted",
		zap.String("collection", name),
		zap.String("start", start),
		zap.String("end", end),
		zap.Int("deleted", result.Deleted))
	return result, nil
}

func (s *Service) datedSchema(name string) (collection.Schema, error) {
	schema, err := s.Schema(name)
	if err != nil {
		return schema, err
	}
	if !schema.Dated {
		return schema, shared.NewDomainError("INVALID_INPUT", "La colección no tiene fechas")
	}
	return schema, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
