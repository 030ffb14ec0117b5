package store

import (
	"fmt"
	"os"
	"time"

	"github.com/blackwell-systems/apptraffic/internal/model"
)

// timeFormat is the stored timestamp layout. Fixed-width UTC so that both
// SQLite's datetime functions and plain string comparison order rows
// correctly.
const timeFormat = "2006-01-02 15:04:05"

// Record appends one row per application with nonzero activity, all within
// a single transaction so a concurrent reader never observes half of one
// tick. An empty or all-idle map is a no-op. Returns ErrReadOnly when the
// store was opened without write access.
func (s *Store) Record(tick time.Time, usage map[string]model.Usage) error {
	if s.readOnly {
		return fmt.Errorf("recording to %s: %w", s.path, ErrReadOnly)
	}

	active := 0
	for _, u := range usage {
		if u.Active() {
			active++
		}
	}
	if active == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning record transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO network_stats (timestamp, app_name, bytes_sent, bytes_recv, connections)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing record statement: %w", err)
	}
	defer stmt.Close()

	ts := tick.UTC().Format(timeFormat)
	for app, u := range usage {
		if !u.Active() {
			continue
		}
		if _, err := stmt.Exec(ts, app, int64(u.Sent), int64(u.Recv), u.Connections); err != nil {
			return fmt.Errorf("inserting stats for %s: %w", app, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing record transaction: %w", err)
	}
	return nil
}

// StatsSince aggregates all rows at or after start: summed bytes and the
// maximum connection count per application. Ordering by total traffic is
// left to the presentation layer.
func (s *Store) StatsSince(start time.Time) (map[string]model.Totals, error) {
	rows, err := s.db.Query(`
		SELECT app_name,
		       SUM(bytes_sent)  AS total_sent,
		       SUM(bytes_recv)  AS total_recv,
		       MAX(connections) AS max_connections
		FROM network_stats
		WHERE timestamp >= ?
		GROUP BY app_name
	`, start.UTC().Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("querying stats since %s: %w", start.Format(time.RFC3339), err)
	}
	defer rows.Close()

	totals := make(map[string]model.Totals)
	for rows.Next() {
		var app string
		var t model.Totals
		if err := rows.Scan(&app, &t.Sent, &t.Recv, &t.Connections); err != nil {
			return nil, fmt.Errorf("scanning stats row: %w", err)
		}
		totals[app] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stats rows: %w", err)
	}
	return totals, nil
}

// TodayStats aggregates since local midnight.
func (s *Store) TodayStats() (map[string]model.Totals, error) {
	return s.StatsSince(startOfDay(time.Now()))
}

// WeekStats aggregates since Monday local midnight.
func (s *Store) WeekStats() (map[string]model.Totals, error) {
	now := time.Now()
	// time.Weekday counts Sunday as 0; fold it to the end of the week.
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	return s.StatsSince(startOfDay(now.AddDate(0, 0, -daysSinceMonday)))
}

// MonthStats aggregates since the first of the month, local midnight.
func (s *Store) MonthStats() (map[string]model.Totals, error) {
	now := time.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return s.StatsSince(first)
}

// Cleanup deletes rows strictly older than now-retention and returns the
// number removed. Rows exactly at the boundary are retained. Safe to call
// while Record is running; both go through the same single-connection
// pool.
func (s *Store) Cleanup(retention time.Duration) (int64, error) {
	return s.deleteBefore(time.Now().Add(-retention))
}

// deleteBefore removes rows strictly older than the cutoff instant.
func (s *Store) deleteBefore(t time.Time) (int64, error) {
	if s.readOnly {
		return 0, fmt.Errorf("cleaning up %s: %w", s.path, ErrReadOnly)
	}

	cutoff := t.UTC().Format(timeFormat)
	res, err := s.db.Exec(`DELETE FROM network_stats WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting rows older than %s: %w", cutoff, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted rows: %w", err)
	}
	return n, nil
}

// RowCount returns the total number of usage rows, for status reporting.
func (s *Store) RowCount() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM network_stats`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	return n, nil
}

// OldestRecord returns the timestamp of the earliest row, or the zero time
// when the store is empty.
func (s *Store) OldestRecord() (time.Time, error) {
	var ts *string
	if err := s.db.QueryRow(`SELECT MIN(timestamp) FROM network_stats`).Scan(&ts); err != nil {
		return time.Time{}, fmt.Errorf("querying oldest record: %w", err)
	}
	if ts == nil {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(timeFormat, *ts, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing oldest timestamp %q: %w", *ts, err)
	}
	return t, nil
}

// Size reports the on-disk footprint of the store in bytes. An in-memory
// store reports zero.
func (s *Store) Size() int64 {
	fi, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
