// Package jsonstore persists collections as JSON files in a data directory.
package jsonstore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/domain/shared"
)

// Config configures a Store
type Config struct {
	// Dir holds one file per collection. Created when missing.
	Dir    string
	Logger *zap.Logger
}

// Store reads and writes collection files. Writes to one file are
// serialized; reads take no lock and see either the old or the new file.
type Store struct {
	dir    string
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Store rooted at cfg.Dir
func New(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("jsonstore: data directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("jsonstore: create data directory: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		dir:    cfg.Dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// Dir returns the data directory
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute location of file inside the data directory
func (s *Store) Path(file string) string {
	return filepath.Join(s.dir, filepath.Base(file))
}

// Load reads every record of file. A missing or empty file is an empty
// collection. Other read failures return shared.ErrLoadFailed.
func (s *Store) Load(ctx context.Context, file string) ([]shared.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(file))
	if errors.Is(err, fs.ErrNotExist) {
		return []shared.Record{}, nil
	}
	if err != nil {
		s.logger.Error("collection load failed", zap.String("file", file), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrLoadFailed, file, err)
	}
	records, skipped := Decode(data)
	if skipped > 0 {
		s.logger.Warn("collection has unreadable lines",
			zap.String("file", file),
			zap.Int("skipped", skipped),
			zap.Int("records", len(records)))
	}
	return records, nil
}

// Save replaces the content of file
func (s *Store) Save(ctx context.Context, file string, records []shared.Record) error {
	lock := s.lockFor(file)
	lock.Lock()
	defer lock.Unlock()
	return s.write(ctx, file, records)
}

// Update runs a read-modify-write cycle on file under its write lock. The
// records returned by fn are persisted unless fn fails.
func (s *Store) Update(ctx context.Context, file string, fn func([]shared.Record) ([]shared.Record, error)) ([]shared.Record, error) {
	lock := s.lockFor(file)
	lock.Lock()
	defer lock.Unlock()

	current, err := s.Load(ctx, file)
	if err != nil {
		return nil, err
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if err := s.write(ctx, file, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Readable reports whether the data directory can be listed
func (s *Store) Readable() error {
	_, err := os.ReadDir(s.dir)
	return err
}

func (s *Store) lockFor(file string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := filepath.Base(file)
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func (s *Store) write(ctx context.Context, file string, records []shared.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []shared.Record{}
	}
	data, err := Encode(records)
	if err != nil {
		return fmt.Errorf("jsonstore: encode %s: %w", file, err)
	}

	tmp, err := os.CreateTemp(s.dir, filepath.Base(file)+".*.tmp")
	if err != nil {
		return fmt.Errorf("jsonstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("jsonstore: write %s: %w", file, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("jsonstore: close %s: %w", file, err)
	}
	if err := os.Rename(tmpName, s.Path(file)); err != nil {
		return fmt.Errorf("jsonstore: replace %s: %w", file, err)
	}
	s.logger.Debug("collection saved", zap.String("file", file), zap.Int("records", len(records)))
	return nil
}

// Encode renders records as an indented JSON array without HTML escaping.
func Encode(records []shared.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a JSON array, a single JSON object or newline delimited
// objects. Lines that fail to parse are counted in skipped.
func Decode(data []byte) (records []shared.Record, skipped int) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []shared.Record{}, 0
	}

	switch trimmed[0] {
	case '[':
		var arr []json.RawMessage
		if err := unmarshal(trimmed, &arr); err == nil {
			records = make([]shared.Record, 0, len(arr))
			for _, raw := range arr {
				var r shared.Record
				if err := unmarshal(raw, &r); err != nil || r == nil {
					skipped++
					continue
				}
				records = append(records, r)
			}
			return records, skipped
		}
	case '{':
		var r shared.Record
		if err := unmarshal(trimmed, &r); err == nil {
			return []shared.Record{r}, 0
		}
	}
	return decodeLines(trimmed)
}

func decodeLines(data []byte) ([]shared.Record, int) {
	records := []shared.Record{}
	skipped := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		line = bytes.TrimSuffix(line, []byte(","))
		if len(line) == 0 || bytes.Equal(line, []byte("[")) || bytes.Equal(line, []byte("]")) {
			continue
		}
		var r shared.Record
		if err := unmarshal(line, &r); err != nil || r == nil {
			skipped++
			continue
		}
		records = append(records, r)
	}
	return records, skipped
}

var errTrailingData = errors.New("jsonstore: data after the first value")

// unmarshal decodes exactly one value. Numbers keep their text.
func unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}
