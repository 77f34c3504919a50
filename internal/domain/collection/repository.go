package collection

import (
	"context"

	"github.com/coltrade/backend/internal/domain/shared"
)

// Repository reads and writes whole collection files.
type Repository interface {
	Load(ctx context.Context, file string) ([]shared.Record, error)
	Save(ctx context.Context, file string, records []shared.Record) error
	// Update runs fn on the current records and stores its result. Writers
	// of the same file are serialized.
	Update(ctx context.Context, file string, fn func([]shared.Record) ([]shared.Record, error)) ([]shared.Record, error)
}

// LoadNormalized reads the collection of s and projects every record onto
// its fields. Records missing a required field are left out.
func LoadNormalized(ctx context.Context, repo Repository, s Schema) ([]shared.Record, error) {
	raw, err := repo.Load(ctx, s.File)
	if err != nil {
		return nil, err
	}
	out := make([]shared.Record, 0, len(raw))
	for _, r := range raw {
		if n, ok := s.Normalize(r); ok {
			out = append(out, n)
		}
	}
	return out, nil
}
