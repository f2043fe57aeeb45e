package feature

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Stats reports how much of the backlog passes. Percentage is rounded to one
// decimal place and is 0.0 for an empty backlog.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1), COALESCE(SUM(passes), 0) FROM features`,
	)
	var stats Stats
	if err := row.Scan(&stats.Total, &stats.Passing); err != nil {
		return Stats{}, fmt.Errorf("feature stats: %w", err)
	}
	if stats.Total > 0 {
		stats.Percentage = math.Round(float64(stats.Passing)/float64(stats.Total)*1000) / 10
	}
	return stats, nil
}

// Count returns the number of features in the backlog.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM features`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count features: %w", err)
	}
	return count, nil
}

// CheckHealth returns diagnostic information about the feature database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{
		DBPath: s.path,
	}

	if s.path == "" {
		return health, errors.New("feature database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat feature database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("feature database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("feature database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping feature database: %w", err)
	}
	health.DatabaseReadable = true

	var version int
	if err := s.db.QueryRowContext(connCtx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err == nil {
		health.SchemaVersion = strconv.Itoa(version)
	}

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'features'")
	if err := row.Scan(&tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			health.TableExists = false
		} else {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		colsRows, err := s.db.QueryContext(connCtx, "PRAGMA table_info(features)")
		if err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("table info: %w", err)
		}
		defer colsRows.Close()

		var columns []string
		for colsRows.Next() {
			var (
				cid     int
				name    string
				typeStr string
				notNull int
				dflt    any
				pk      int
			)
			if err := colsRows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
				health.Error = err.Error()
				return health, fmt.Errorf("scan table info: %w", err)
			}
			columns = append(columns, name)
		}
		if err := colsRows.Err(); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("iterate table info: %w", err)
		}
		health.ColumnsPresent = append(health.ColumnsPresent, columns...)

		expected := []string{"id", "priority", "category", "name", "description", "steps_json", "passes", "created_at", "updated_at"}
		missingMap := make(map[string]struct{}, len(expected))
		for _, col := range expected {
			missingMap[col] = struct{}{}
		}
		for _, col := range columns {
			delete(missingMap, col)
		}
		for col := range missingMap {
			health.MissingColumns = append(health.MissingColumns, col)
		}

		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM features")
		if err := row.Scan(&health.TotalFeatures); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count features: %w", err)
		}
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}
