package catalog

import (
	"context"
	"fmt"
	"time"

	"packhouse/internal"
	"packhouse/internal/config"
	"packhouse/internal/storage"
)

// Service resolves the configured master source and keeps the last good
// snapshot in the store so runs can work offline.
type Service struct {
	db  *storage.DB
	cfg config.Config
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

// Load fetches the table from the configured source, projects it, and
// refreshes the stored snapshot. Source "cache" skips the network entirely.
func (s *Service) Load(ctx context.Context) ([]internal.CatalogRow, error) {
	if s.cfg.CatalogSource == "cache" {
		return s.Cached()
	}

	table, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := ProjectRows(table)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("master table has no usable rows")
	}

	if s.db != nil {
		if err := s.db.ReplaceCatalogRows(rows); err != nil {
			return nil, fmt.Errorf("store catalog snapshot: %w", err)
		}
		if err := s.db.SetMetadata("catalog_synced_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func (s *Service) fetch(ctx context.Context) (Table, error) {
	switch s.cfg.CatalogSource {
	case "sheets":
		client, err := NewSheetClient(s.cfg)
		if err != nil {
			return Table{}, err
		}
		return client.Fetch(ctx)
	case "csv":
		return NewCSVClient(s.cfg).Fetch(ctx)
	case "xlsx":
		return LoadXLSX(s.cfg.CatalogXLSXPath)
	default:
		return Table{}, fmt.Errorf("unknown catalog source: %s", s.cfg.CatalogSource)
	}
}

// Cached returns the stored snapshot from the last successful Load.
func (s *Service) Cached() ([]internal.CatalogRow, error) {
	if s.db == nil {
		return nil, fmt.Errorf("no store configured for cached catalog")
	}
	rows, err := s.db.ListCatalogRows()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("catalog snapshot is empty; run catalog:sync first")
	}
	return rows, nil
}
