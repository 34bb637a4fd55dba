// Package storage maintains the Badger-backed index of generated reports and
// the retention sweep that expires old ones.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/services/report"
)

// ReportRecord is one indexed report.
type ReportRecord struct {
	ID          string `badgerhold:"key"`
	CompanyName string
	Ticker      string
	FilePath    string
	Partial     bool
	Phase1Chars int
	Phase2Chars int
	TotalChars  int
	CreatedAt   time.Time `badgerholdIndex:"CreatedAt"`
}

// ReportStore persists report records in a badgerhold store.
type ReportStore struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

// NewReportStore opens (or creates) the report index database.
func NewReportStore(config *common.StorageConfig, logger arbor.ILogger) (*ReportStore, error) {
	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = config.Path
	options.ValueDir = config.Path
	options.Logger = nil // Disable default badger logger to use arbor

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open report index: %w", err)
	}

	if logger != nil {
		logger.Debug().Str("path", config.Path).Msg("Report index initialized")
	}

	return &ReportStore{
		store:  store,
		logger: logger,
	}, nil
}

// SaveReport indexes an assembled report.
func (s *ReportStore) SaveReport(ctx context.Context, r *report.AssembledReport) error {
	if r.ID == "" {
		return fmt.Errorf("report ID is required")
	}

	record := &ReportRecord{
		ID:          r.ID,
		CompanyName: r.CompanyName,
		Ticker:      r.Ticker,
		FilePath:    r.FilePath,
		Partial:     r.Partial,
		Phase1Chars: r.Phase1Chars,
		Phase2Chars: r.Phase2Chars,
		TotalChars:  len(r.HTML),
		CreatedAt:   r.GeneratedAt,
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if err := s.store.Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to index report: %w", err)
	}
	return nil
}

// GetReport returns one record by id.
func (s *ReportStore) GetReport(ctx context.Context, id string) (*ReportRecord, error) {
	var record ReportRecord
	if err := s.store.Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("report not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &record, nil
}

// ListReports returns records newest first, capped at limit (0 = all).
func (s *ReportStore) ListReports(ctx context.Context, limit int) ([]*ReportRecord, error) {
	var records []ReportRecord
	query := badgerhold.Where("CreatedAt").Ge(time.Time{}).SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.store.Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	result := make([]*ReportRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

// DeleteReport removes a record and its report file.
func (s *ReportStore) DeleteReport(ctx context.Context, id string) error {
	record, err := s.GetReport(ctx, id)
	if err != nil {
		return err
	}

	if record.FilePath != "" {
		if err := os.Remove(record.FilePath); err != nil && !os.IsNotExist(err) {
			if s.logger != nil {
				s.logger.Warn().Err(err).Str("path", record.FilePath).Msg("Failed to remove report file")
			}
		}
	}

	if err := s.store.Delete(id, &ReportRecord{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *ReportStore) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
