package feedstock

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedSource is returned for dataset paths whose format cannot be inferred.
var ErrUnsupportedSource = errors.New("unsupported dataset source")

// Source locates a reference dataset: a CSV/TSV file, a SQLite database or a Postgres URL.
// Table selects the SQL table and defaults to DefaultSourceTable.
type Source struct {
	Path  string `yaml:"path" json:"path"`
	Table string `yaml:"table,omitempty" json:"table,omitempty"`
}

// String is used in log lines.
func (s Source) String() string {
	if s.Table == "" {
		return s.Path
	}
	return s.Path + "#" + s.Table
}

func (s Source) table() string {
	if strings.TrimSpace(s.Table) == "" {
		return DefaultSourceTable
	}
	return s.Table
}

// ReadSource reads the raw table behind a source without normalising it.
func ReadSource(ctx context.Context, src Source) (*Table, error) {
	path := strings.TrimSpace(src.Path)
	lower := strings.ToLower(path)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return readSQLTable(ctx, "postgres", path, src.table())
	case strings.HasPrefix(lower, "sqlite://"):
		return readSQLTable(ctx, "sqlite", sqlitePath(path), src.table())
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return ReadTable(path)
	case ".db", ".sqlite", ".sqlite3":
		return readSQLTable(ctx, "sqlite", path, src.table())
	}
	return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedSource)
}

func sqlitePath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.TrimPrefix(raw, "sqlite://")
	}
	return u.Host + u.Path
}

// LoadDataset reads a source and builds its indices.
func LoadDataset(ctx context.Context, name string, src Source) (*Dataset, error) {
	t, err := ReadSource(ctx, src)
	if err != nil {
		return nil, err
	}
	return NewDataset(name, t)
}

// LoadReferences loads the primary and fallback datasets concurrently. A tier that is not
// configured or fails to load is logged and left nil; loading never fails as a whole.
func LoadReferences(ctx context.Context, primary, fallback Source, logger *zap.Logger) *References {
	if logger == nil {
		logger = zap.NewNop()
	}
	refs := &References{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		refs.Primary = loadTier(gctx, "primary", primary, logger)
		return nil
	})
	g.Go(func() error {
		refs.Fallback = loadTier(gctx, "fallback", fallback, logger)
		return nil
	})
	_ = g.Wait()
	return refs
}

func loadTier(ctx context.Context, name string, src Source, logger *zap.Logger) *Dataset {
	if strings.TrimSpace(src.Path) == "" {
		logger.Warn("dataset not configured", zap.String("tier", name))
		return nil
	}
	d, err := LoadDataset(ctx, name, src)
	if err != nil {
		logger.Warn("could not load dataset",
			zap.String("tier", name),
			zap.Stringer("source", src),
			zap.Error(err))
		return nil
	}
	logger.Info("loaded dataset",
		zap.String("tier", name),
		zap.Stringer("source", src),
		zap.Int("rows", d.Len()),
		zap.Int("feedstocks", len(d.Types())))
	return d
}
