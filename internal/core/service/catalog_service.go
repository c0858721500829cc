package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/warequery/warequery/internal/core/domain"
	"github.com/warequery/warequery/internal/core/port"
	"github.com/warequery/warequery/internal/dictionary"
)

// CatalogService owns the schema catalog snapshot. Extraction builds a
// complete new catalog and swaps it in atomically; readers always see either
// the previous snapshot or the finished new one, never a half-built catalog.
type CatalogService struct {
	introspector port.SchemaIntrospector
	dict         *dictionary.Dictionary
	logger       *slog.Logger
	snapshot     atomic.Pointer[domain.Catalog]
}

func NewCatalogService(introspector port.SchemaIntrospector, dict *dictionary.Dictionary, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		introspector: introspector,
		dict:         dict,
		logger:       logger,
	}
}

// Extract introspects every table, categorizes it, builds the relationship
// graph, and publishes the new snapshot. It is administrative and
// long-running; concurrent queries keep using the previous snapshot until the
// swap.
func (s *CatalogService) Extract(ctx context.Context, includeSamples bool, sampleSize int) (*domain.Catalog, error) {
	start := time.Now()

	refs, err := s.introspector.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	if !includeSamples {
		sampleSize = 0
	}

	tables := make([]*domain.TableSchema, 0, len(refs))
	for _, ref := range refs {
		t, err := s.introspector.DescribeTable(ctx, ref, sampleSize)
		if err != nil {
			return nil, fmt.Errorf("describing table %s.%s: %w", ref.Schema, ref.Name, err)
		}
		t.Category = domain.CategorizeTable(t.Name)
		s.dict.Merge(t)
		tables = append(tables, t)
	}

	catalog := domain.NewCatalog(tables)
	s.snapshot.Store(catalog)

	s.logger.InfoContext(ctx, "schema catalog extracted",
		slog.Int("tables", catalog.Len()),
		slog.Bool("samples", includeSamples),
		slog.Duration("took", time.Since(start)),
	)
	return catalog, nil
}

// Snapshot returns the current catalog, or ErrCatalogNotReady before the
// first successful extraction.
func (s *CatalogService) Snapshot() (*domain.Catalog, error) {
	if c := s.snapshot.Load(); c != nil {
		return c, nil
	}
	return nil, domain.ErrCatalogNotReady
}

// TableSchema looks one table up in the current snapshot.
func (s *CatalogService) TableSchema(name string) (*domain.TableSchema, error) {
	c, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	t, ok := c.Table(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTableNotFound, name)
	}
	return t, nil
}

// TablesByCategory returns the snapshot's tables for one functional area.
func (s *CatalogService) TablesByCategory(cat domain.Category) ([]*domain.TableSchema, error) {
	c, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return c.TablesByCategory(cat), nil
}
