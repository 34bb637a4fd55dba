package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/robfig/cron/v3"
	"github.com/timshannon/badgerhold/v4"
)

// Sweep deletes records (and their report files) older than the retention
// window. Returns the number of reports removed. A zero or negative
// retentionDays keeps everything.
func (s *ReportStore) Sweep(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	var expired []ReportRecord
	if err := s.store.Find(&expired, badgerhold.Where("CreatedAt").Lt(cutoff)); err != nil {
		return 0, fmt.Errorf("failed to find expired reports: %w", err)
	}

	removed := 0
	for i := range expired {
		if err := s.DeleteReport(ctx, expired[i].ID); err != nil {
			if s.logger != nil {
				s.logger.Warn().Err(err).Str("report_id", expired[i].ID).Msg("Retention sweep skip")
			}
			continue
		}
		removed++
	}

	if removed > 0 {
		if s.logger != nil {
			s.logger.Info().
				Int("removed", removed).
				Str("cutoff", cutoff.Format("2006-01-02")).
				Msg("Retention sweep complete")
		}
		s.runValueLogGC()
	}
	return removed, nil
}

// runValueLogGC reclaims value log space freed by deleted records. Badger
// rewrites at most one log file per call, so loop until nothing is rewritten.
func (s *ReportStore) runValueLogGC() {
	for {
		err := s.store.Badger().RunValueLogGC(0.5)
		if err != nil {
			if err != badger.ErrNoRewrite && s.logger != nil {
				s.logger.Warn().Err(err).Msg("Value log GC failed")
			}
			return
		}
	}
}

// StartSweeper schedules retention sweeps on the given cron expression and
// returns the running scheduler. The caller stops it on shutdown.
func (s *ReportStore) StartSweeper(schedule string, retentionDays int) (*cron.Cron, error) {
	scheduler := cron.New()
	_, err := scheduler.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background(), retentionDays); err != nil && s.logger != nil {
			s.logger.Warn().Err(err).Msg("Retention sweep failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	scheduler.Start()
	return scheduler, nil
}
