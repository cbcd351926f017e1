package telemetry

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/rnboctl/internal/control"
	"codeberg.org/mutker/rnboctl/internal/errors"
	"codeberg.org/mutker/rnboctl/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.DBPath = filepath.Join(t.TempDir(), "telemetry.db")
	cfg.BatchTimeout = time.Hour

	return cfg
}

func countRows(t *testing.T, path string) int {
	t.Helper()

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM cycles").Scan(&n))

	return n
}

func record(ratio float64) *CycleRecord {
	return &CycleRecord{
		Timestamp: time.Now(),
		Path:      "/rnbo/inst/0/messages/out/output1",
		Outcome:   "actuated",
		Raw:       "[50]",
		Percent:   ratio * 100,
		Ratio:     ratio,
	}
}

func TestRepositoryBatches(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 3

	repo, err := newRepository(cfg, logger.Nop())
	require.NoError(t, err)

	require.NoError(t, repo.Record(record(0.1)))
	require.NoError(t, repo.Record(record(0.2)))
	assert.Zero(t, countRows(t, cfg.DBPath), "below batch size nothing is written")

	require.NoError(t, repo.Record(record(0.3)))
	assert.Equal(t, 3, countRows(t, cfg.DBPath))

	require.NoError(t, repo.Record(record(0.4)))
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close())
	assert.Equal(t, 4, countRows(t, cfg.DBPath), "close flushes the remainder")
}

func TestRepositoryTimedFlush(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 100
	cfg.BatchTimeout = 10 * time.Millisecond

	repo, err := newRepository(cfg, logger.Nop())
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.Record(record(0.5)))
	assert.Eventually(t, func() bool {
		return countRows(t, cfg.DBPath) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSchemaMigrationBacksUp(t *testing.T) {
	cfg := testConfig(t)

	db, err := sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE schema_versions (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL);
		INSERT INTO schema_versions VALUES (99, datetime('now'));`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	repo, err := newRepository(cfg, logger.Nop())
	require.NoError(t, err)
	defer repo.Close()

	version, err := GetSchemaVersion(repo.db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	backups, err := os.ReadDir(cfg.backupDir())
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Contains(t, backups[0].Name(), "telemetry_v99_")
}

func TestServiceDisabledIsNoop(t *testing.T) {
	c, err := NewService(DefaultConfig(), logger.Nop())
	require.NoError(t, err)

	assert.IsType(t, &noopCollector{}, c)
	assert.NoError(t, c.Record(context.Background(), record(1)))
	assert.NoError(t, c.Close())
}

func TestServiceRejectsNilAndCancelled(t *testing.T) {
	c, err := NewService(testConfig(t), logger.Nop())
	require.NoError(t, err)
	defer c.Close()

	assert.True(t, errors.HasCode(c.Record(context.Background(), nil), ErrInvalidRecord))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, errors.HasCode(c.Record(ctx, record(1)), ErrOperationTimeout))
}

func TestObserverStoresCycles(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 1

	c, err := NewService(cfg, logger.Nop())
	require.NoError(t, err)

	obs := NewObserver(c, logger.Nop())
	obs.ObserveCycle(control.CycleResult{Time: time.Now(), Outcome: control.Actuated, Ratio: 0.25, Percent: 25, Raw: "[25]"})
	obs.ObserveCycle(control.CycleResult{Time: time.Now(), Outcome: control.Skipped, Reason: errors.ErrUnreachable})
	require.NoError(t, c.Close())

	db, err := sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	defer db.Close()

	var outcome, reason string
	require.NoError(t, db.QueryRow("SELECT outcome, reason FROM cycles ORDER BY id DESC LIMIT 1").Scan(&outcome, &reason))
	assert.Equal(t, "skipped", outcome)
	assert.Equal(t, string(errors.ErrUnreachable), reason)
	assert.Equal(t, 2, countRows(t, cfg.DBPath))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.DBPath = ""
	assert.True(t, errors.HasCode(cfg.Validate(), ErrInvalidDBPath))
}
