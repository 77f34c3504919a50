// Package collection implements the maintenance screens of every collection
// file: CRUD, bulk delete, import, export and catalog reconciliation.
package collection

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/application/export"
	"github.com/coltrade/backend/internal/domain/collection"
	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/infrastructure/cache"
)

// RequiredConfirmations guards DeleteAll
const RequiredConfirmations = 3

// ServiceConfig contains configuration for the collection service
type ServiceConfig struct {
	// ImportCooldown is the minimum time between two imports of a
	// collection that asks for it.
	ImportCooldown time.Duration
}

// DefaultServiceConfig returns default configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{ImportCooldown: 30 * time.Second}
}

// Service handles collection maintenance
type Service struct {
	repo     collection.Repository
	cooldown cache.CooldownGate
	exports  *export.Publisher
	config   ServiceConfig
	clock    func() time.Time
	newID    func() string
	logger   *zap.Logger
}

// NewService creates a new collection service
func NewService(
	repo collection.Repository,
	cooldown cache.CooldownGate,
	exports *export.Publisher,
	config ServiceConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:     repo,
		cooldown: cooldown,
		exports:  exports,
		config:   config,
		clock:    time.Now,
		newID:    func() string { return uuid.New().String() },
		logger:   logger,
	}
}

// Schema returns the layout of a collection
func (s *Service) Schema(name string) (collection.Schema, error) {
	schema, ok := collection.Lookup(name)
	if !ok {
		return collection.Schema{}, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Colección desconocida: %s", name))
	}
	return schema, nil
}

// List returns every record in file order. Records that no longer satisfy
// the schema are returned as stored so positions stay stable.
func (s *Service) List(ctx context.Context, name string) ([]shared.Record, error) {
	schema, err := s.Schema(name)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.Load(ctx, schema.File)
	if err != nil {
		return nil, err
	}
	out := make([]shared.Record, 0, len(records))
	for _, r := range records {
		out = append(out, present(schema, r))
	}
	return out, nil
}

// Create appends a record. Unique collections reject a duplicate key.
func (s *Service) Create(ctx context.Context, name string, payload shared.Record) (*MutationResult, error) {
	schema, err := s.Schema(name)
	if err != nil {
		return nil, err
	}
	record, err := normalizeInput(schema, payload)
	if err != nil {
		return nil, err
	}
	if schema.Key == collection.KeyByID {
		record[shared.FieldID] = s.newID()
	}

	_, err = s.repo.Update(ctx, schema.File, func(records []shared.Record) ([]shared.Record, error) {
		if schema.Key == collection.KeyByField && indexByKey(schema, records, schema.CanonicalKey(record)) >= 0 {
			return nil, shared.NewDomainError("ALREADY_EXISTS",
				fmt.Sprintf("Ya existe un registro con ese %s", schema.KeyField))
		}
		return append(records, record), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("record created", zap.String("collection", name))
	return &MutationResult{Record: record, MissingKeys: s.missingFor(ctx, schema, record)}, nil
}

// Update merges payload into the record addressed by ref
func (s *Service) Update(ctx context.Context, name, ref string, payload shared.Record) (*MutationResult, error) {
	schema, err := s.Schema(name)
	if err != nil {
		return nil, err
	}

	var updated shared.Record
	_, err = s.repo.Update(ctx, schema.File, func(records []shared.Record) ([]shared.Record, error) {
		i, err := locate(schema, records, ref)
		if err != nil {
			return nil, err
		}
		merged, ok := schema.Merge(records[i], payload)
		if !ok {
			return nil, requiredError(schema.Missing(mergedInput(schema, records[i], payload)))
		}
		if schema.Key == collection.KeyByField {
			if j := indexByKey(schema, records, schema.CanonicalKey(merged)); j >= 0 && j != i {
				return nil, shared.NewDomainError("ALREADY_EXISTS",
					fmt.Sprintf("No se puede cambiar %s, ya existe otro registro con ese valor", schema.KeyField))
			}
		}
		records[i] = merged
		updated = merged
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	return &MutationResult{Record: updated, MissingKeys: s.missingFor(ctx, schema, updated)}, nil
}

// Delete removes the record addressed by ref
func (s *Service) Delete(ctx context.Context, name, ref string) error {
	schema, err := s.Schema(name)
	if err != nil {
		return err
	}
	_, err = s.repo.Update(ctx, schema.File, func(records []shared.Record) ([]shared.Record, error) {
		i, err := locate(schema, records, ref)
		if err != nil {
			return nil, err
		}
		return append(records[:i], records[i+1:]...), nil
	})
	return err
}

// DeleteAll empties the collection once the user confirmed enough times
func (s *Service) DeleteAll(ctx context.Context, name string, confirmations int) error {
	schema, err := s.Schema(name)
	if err != nil {
		return err
	}
	if confirmations < RequiredConfirmations {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf(
			"Se requieren %d confirmaciones para eliminar todos los datos (recibidas: %d)",
			RequiredConfirmations, confirmations))
	}
	if err := s.repo.Save(ctx, schema.File, []shared.Record{}); err != nil {
		return err
	}
	s.logger.Warn("collection emptied", zap.String("collection", name))
	return nil
}

// locate finds the record addressed by ref: a position for index keyed
// collections, the natural key or the generated id otherwise.
func locate(schema collection.Schema, records []shared.Record, ref string) (int, error) {
	notFound := shared.NewDomainError("NOT_FOUND", "Registro no encontrado")
	switch schema.Key {
	case collection.KeyByIndex:
		i, err := strconv.Atoi(ref)
		if err != nil || i < 0 || i >= len(records) {
			return -1, notFound
		}
		return i, nil
	case collection.KeyByField:
		key := schema.CanonicalKey(shared.Record{schema.KeyField: ref})
		if i := indexByKey(schema, records, key); i >= 0 {
			return i, nil
		}
	case collection.KeyByID:
		for i, r := range records {
			if ref != "" && r.Text(shared.FieldID) == ref {
				return i, nil
			}
		}
	}
	return -1, notFound
}

func indexByKey(schema collection.Schema, records []shared.Record, key string) int {
	if key == "" {
		return -1
	}
	for i, r := range records {
		if schema.CanonicalKey(r) == key {
			return i
		}
	}
	return -1
}

func normalizeInput(schema collection.Schema, payload shared.Record) (shared.Record, error) {
	if len(payload) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Cuerpo inválido")
	}
	record, ok := schema.Normalize(payload)
	if !ok {
		return nil, requiredError(schema.Missing(payload))
	}
	return record, nil
}

func mergedInput(schema collection.Schema, base, patch shared.Record) shared.Record {
	merged := base.Clone()
	for _, f := range schema.Fields {
		if v, ok := schema.Aliases(f.Name).Lookup(patch); ok {
			merged[f.Name] = v
		}
	}
	return merged
}

func requiredError(fields []string) error {
	field := "requerido"
	if len(fields) > 0 {
		field = fields[0]
	}
	return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("El campo '%s' es obligatorio", field))
}

// present returns the normalized form of a stored record, keeping its id
func present(schema collection.Schema, r shared.Record) shared.Record {
	n, ok := schema.Normalize(r)
	if !ok {
		return r.Clone()
	}
	return n
}
