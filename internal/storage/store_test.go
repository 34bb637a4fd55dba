package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/services/report"
)

func testStore(t *testing.T) *ReportStore {
	t.Helper()
	config := &common.StorageConfig{
		Path: filepath.Join(t.TempDir(), "reports.db"),
	}
	store, err := NewReportStore(config, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testReport(id, ticker string, generatedAt time.Time) *report.AssembledReport {
	return &report.AssembledReport{
		ID:          id,
		CompanyName: "Acme Corp",
		Ticker:      ticker,
		HTML:        "<html><body>report</body></html>",
		Phase1Chars: 12000,
		Phase2Chars: 9000,
		GeneratedAt: generatedAt,
	}
}

func TestReportStore_SaveAndGet(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReport(ctx, testReport("rpt_1", "ACME", time.Now())))

	record, err := store.GetReport(ctx, "rpt_1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", record.CompanyName)
	assert.Equal(t, "ACME", record.Ticker)
	assert.Equal(t, 12000, record.Phase1Chars)
	assert.Equal(t, len("<html><body>report</body></html>"), record.TotalChars)
}

func TestReportStore_RequiresID(t *testing.T) {
	store := testStore(t)
	err := store.SaveReport(context.Background(), &report.AssembledReport{})
	require.Error(t, err)
}

func TestReportStore_GetMissing(t *testing.T) {
	store := testStore(t)
	_, err := store.GetReport(context.Background(), "rpt_missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReportStore_ListNewestFirst(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	require.NoError(t, store.SaveReport(ctx, testReport("rpt_old", "AAA", base)))
	require.NoError(t, store.SaveReport(ctx, testReport("rpt_mid", "BBB", base.Add(10*time.Minute))))
	require.NoError(t, store.SaveReport(ctx, testReport("rpt_new", "CCC", base.Add(20*time.Minute))))

	records, err := store.ListReports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "rpt_new", records[0].ID)
	assert.Equal(t, "rpt_old", records[2].ID)

	limited, err := store.ListReports(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "rpt_new", limited[0].ID)
}

func TestReportStore_DeleteRemovesFile(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	reportPath := filepath.Join(t.TempDir(), "Acme_Corp_ACME_report.html")
	require.NoError(t, os.WriteFile(reportPath, []byte("<html></html>"), 0644))

	r := testReport("rpt_file", "ACME", time.Now())
	r.FilePath = reportPath
	require.NoError(t, store.SaveReport(ctx, r))

	require.NoError(t, store.DeleteReport(ctx, "rpt_file"))

	_, err := store.GetReport(ctx, "rpt_file")
	require.Error(t, err)
	_, err = os.Stat(reportPath)
	assert.True(t, os.IsNotExist(err))
}

func TestReportStore_Sweep(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReport(ctx, testReport("rpt_stale", "OLD", time.Now().AddDate(0, 0, -45))))
	require.NoError(t, store.SaveReport(ctx, testReport("rpt_fresh", "NEW", time.Now())))

	removed, err := store.Sweep(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.GetReport(ctx, "rpt_stale")
	require.Error(t, err)
	_, err = store.GetReport(ctx, "rpt_fresh")
	require.NoError(t, err)
}

func TestReportStore_SweepDisabled(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReport(ctx, testReport("rpt_stale", "OLD", time.Now().AddDate(0, 0, -365))))

	removed, err := store.Sweep(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = store.GetReport(ctx, "rpt_stale")
	require.NoError(t, err)
}

func TestReportStore_SweeperRejectsBadSchedule(t *testing.T) {
	store := testStore(t)
	_, err := store.StartSweeper("not a schedule", 30)
	require.Error(t, err)
}
