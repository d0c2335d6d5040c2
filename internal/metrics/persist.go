package metrics

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	. "github.com/roelfdiedericks/notionvox/internal/logging"
	"github.com/roelfdiedericks/notionvox/internal/paths"
)

const (
	defaultSaveInterval = 5 * time.Minute
	pruneMaxAge         = 30 * 24 * time.Hour
	dbFileName          = "metrics.db"
	dbOpenOptions       = "?_busy_timeout=5000"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS metrics (
	path       TEXT NOT NULL,
	type       TEXT NOT NULL,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (path, type)
)`

// PersistConfig controls sqlite persistence of the metric snapshot.
type PersistConfig struct {
	Persist             bool   `json:"persist"`
	DBPath              string `json:"dbPath"`              // default ~/.notionvox/metrics.db
	SaveIntervalSeconds int    `json:"saveIntervalSeconds"` // default 300
}

// OpenStore attaches sqlite persistence to the global manager: loads persisted
// data, prunes stale entries and starts a background save ticker. A no-op when
// persistence is disabled. Serverless deployments leave it off.
func OpenStore(cfg PersistConfig) error {
	if !cfg.Persist {
		return nil
	}
	return GetInstance().openDB(cfg)
}

// CloseStore flushes and closes the global manager's database, if any.
func CloseStore() error {
	return GetInstance().Close()
}

func (m *MetricsManager) openDB(cfg PersistConfig) error {
	dbPath := cfg.DBPath
	if dbPath == "" {
		p, err := paths.DataPath(dbFileName)
		if err != nil {
			return fmt.Errorf("metrics: resolve data path: %w", err)
		}
		dbPath = p
	}
	dbPath, err := paths.ExpandTilde(dbPath)
	if err != nil {
		return err
	}
	if err := paths.EnsureParentDir(dbPath); err != nil {
		return err
	}

	db, err := sql.Open("sqlite3", dbPath+dbOpenOptions)
	if err != nil {
		return fmt.Errorf("metrics: open database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return fmt.Errorf("metrics: create schema: %w", err)
	}

	m.mu.Lock()
	m.db = db
	m.stopSave = make(chan struct{})
	m.mu.Unlock()

	loaded, err := m.load()
	if err != nil {
		L_warn("metrics: failed to load persisted data", "error", err)
	} else if loaded > 0 {
		L_info("metrics: loaded persisted data", "count", loaded)
	}

	if pruned, err := m.prune(); err != nil {
		L_warn("metrics: failed to prune stale data", "error", err)
	} else if pruned > 0 {
		L_debug("metrics: pruned stale metrics", "count", pruned)
	}

	interval := defaultSaveInterval
	if cfg.SaveIntervalSeconds > 0 {
		interval = time.Duration(cfg.SaveIntervalSeconds) * time.Second
	}
	go m.saveLoop(interval, m.stopSave)

	L_info("metrics: persistence enabled", "path", dbPath, "interval", interval)
	return nil
}

// saveLoop runs periodic saves until stop is closed.
func (m *MetricsManager) saveLoop(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.save(); err != nil {
				L_warn("metrics: periodic save failed", "error", err)
			}
		case <-stop:
			return
		}
	}
}

// Close stops the background save ticker, performs a final save, and closes the DB.
// Safe to call even if persistence was never initialized.
func (m *MetricsManager) Close() error {
	m.mu.Lock()
	db := m.db
	stop := m.stopSave
	m.stopSave = nil
	m.mu.Unlock()

	if db == nil {
		return nil
	}
	if stop != nil {
		close(stop)
	}
	if err := m.save(); err != nil {
		L_warn("metrics: final save failed", "error", err)
	}

	m.mu.Lock()
	m.db = nil
	m.mu.Unlock()
	return db.Close()
}

// save writes all metrics to the database in a single transaction.
func (m *MetricsManager) save() error {
	m.mu.RLock()
	db := m.db
	m.mu.RUnlock()
	if db == nil {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`INSERT INTO metrics (path, type, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path, type) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := saveMapEntries(stmt, now, m.timings, TypeTiming); err != nil {
		return err
	}
	if err := saveMapEntries(stmt, now, m.counters, TypeCounter); err != nil {
		return err
	}
	if err := saveMapEntries(stmt, now, m.successFail, TypeSuccessFail); err != nil {
		return err
	}
	if err := saveMapEntries(stmt, now, m.outcomes, TypeOutcome); err != nil {
		return err
	}

	return tx.Commit()
}

type lockable interface {
	RLock()
	RUnlock()
}

func (t *TimingMetric) RLock()        { t.mu.RLock() }
func (t *TimingMetric) RUnlock()      { t.mu.RUnlock() }
func (c *CounterMetric) RLock()       { c.mu.RLock() }
func (c *CounterMetric) RUnlock()     { c.mu.RUnlock() }
func (s *SuccessFailMetric) RLock()   { s.mu.RLock() }
func (s *SuccessFailMetric) RUnlock() { s.mu.RUnlock() }
func (o *OutcomeMetric) RLock()       { o.mu.RLock() }
func (o *OutcomeMetric) RUnlock()     { o.mu.RUnlock() }

// saveMapEntries serializes all entries in a metric map and upserts them.
func saveMapEntries[T lockable](stmt *sql.Stmt, now int64, metrics map[string]T, metricType MetricType) error {
	for path, metric := range metrics {
		metric.RLock()
		data, err := json.Marshal(metric)
		metric.RUnlock()
		if err != nil {
			L_warn("metrics: failed to marshal metric", "path", path, "type", metricType, "error", err)
			continue
		}
		if _, err := stmt.Exec(path, string(metricType), data, now); err != nil {
			return err
		}
	}
	return nil
}

// load reads all persisted metrics from the database and restores them in memory.
func (m *MetricsManager) load() (int, error) {
	rows, err := m.db.Query("SELECT path, type, data FROM metrics")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for rows.Next() {
		var path, metricType string
		var data []byte
		if err := rows.Scan(&path, &metricType, &data); err != nil {
			L_warn("metrics: failed to scan row", "error", err)
			continue
		}
		if err := m.restoreMetric(path, MetricType(metricType), data); err != nil {
			L_warn("metrics: failed to restore metric", "path", path, "type", metricType, "error", err)
			continue
		}
		count++
	}

	return count, rows.Err()
}

// prune deletes metrics not updated within the retention period.
func (m *MetricsManager) prune() (int, error) {
	cutoff := time.Now().Add(-pruneMaxAge).Unix()
	result, err := m.db.Exec("DELETE FROM metrics WHERE updated_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// restoreMetric deserializes a metric into the matching map.
// Must be called with m.mu held.
func (m *MetricsManager) restoreMetric(path string, metricType MetricType, data []byte) error {
	switch metricType {
	case TypeTiming:
		var t TimingMetric
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		m.timings[path] = &t
	case TypeCounter:
		var c CounterMetric
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		m.counters[path] = &c
	case TypeSuccessFail:
		s := SuccessFailMetric{FailureReasons: make(map[string]int64)}
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s.FailureReasons == nil {
			s.FailureReasons = make(map[string]int64)
		}
		m.successFail[path] = &s
	case TypeOutcome:
		o := OutcomeMetric{Outcomes: make(map[string]int64)}
		if err := json.Unmarshal(data, &o); err != nil {
			return err
		}
		if o.Outcomes == nil {
			o.Outcomes = make(map[string]int64)
		}
		m.outcomes[path] = &o
	default:
		return fmt.Errorf("unknown metric type %q", metricType)
	}
	return nil
}
