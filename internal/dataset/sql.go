package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	_ "github.com/lib/pq"                // PostgreSQL driver
	_ "github.com/snowflakedb/gosnowflake" // Snowflake driver
)

// SQLLoader reads the event log and budget-change log from a relational
// source. Both the postgres and snowflake drivers register with
// database/sql, so one loader covers the warehouse and the app database.
type SQLLoader struct {
	db *sql.DB
}

// OpenSQL opens a database handle for the given driver ("postgres" or
// "snowflake") and DSN and verifies connectivity.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLLoader, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &SQLLoader{db: db}, nil
}

// NewSQLLoader wraps an existing handle (used by tests with sqlmock).
func NewSQLLoader(db *sql.DB) *SQLLoader {
	return &SQLLoader{db: db}
}

// Close releases the underlying handle.
func (l *SQLLoader) Close() error {
	return l.db.Close()
}

// LoadEvents reads the per-job daily event log.
func (l *SQLLoader) LoadEvents(ctx context.Context) ([]EventRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT main_ref_number, event_publisher_date, cdspend, apply_start FROM job_events`)
	if err != nil {
		return nil, fmt.Errorf("query job_events: %w", err)
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var rec EventRecord
		if err := rows.Scan(&rec.JobRef, &rec.Date, &rec.Spend, &rec.ApplyStarts); err != nil {
			return nil, fmt.Errorf("scan job_events row: %w", err)
		}
		rec.Date = rec.Date.UTC().Truncate(24 * time.Hour)
		events = append(events, rec)
	}
	return events, rows.Err()
}

// LoadRegimes reads the budget-change log, sorted by start date ascending.
func (l *SQLLoader) LoadRegimes(ctx context.Context) ([]BudgetRegime, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT effective_date, budget, duration_weeks FROM budget_changes ORDER BY effective_date`)
	if err != nil {
		return nil, fmt.Errorf("query budget_changes: %w", err)
	}
	defer rows.Close()

	var regimes []BudgetRegime
	for rows.Next() {
		var reg BudgetRegime
		if err := rows.Scan(&reg.StartDate, &reg.Budget, &reg.DurationWeeks); err != nil {
			return nil, fmt.Errorf("scan budget_changes row: %w", err)
		}
		reg.StartDate = reg.StartDate.UTC().Truncate(24 * time.Hour)
		regimes = append(regimes, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(regimes, func(i, j int) bool {
		return regimes[i].StartDate.Before(regimes[j].StartDate)
	})
	return regimes, nil
}
