package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/worklens/worklens/zapctx"
)

// Database is the append-only interval store. Observations are inserted
// once and never mutated; every reclassification happens at read time.
type Database struct {
	conn driver.Conn
}

func New(host string, port int, database, username, password string) (*Database, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", host, port)},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Database{conn: conn}, nil
}

// EnsureSchema creates the interval table if missing. Runs on every startup.
func (db *Database) EnsureSchema(ctx context.Context) error {
	createTableSQL := `
CREATE TABLE IF NOT EXISTS activity_intervals (
    company_id String,
    user_id String,
    session_id String,
    timestamp DateTime64(3),
    interval_start DateTime64(3),
    interval_end DateTime64(3),
    duration UInt32,
    keyboard_events UInt32,
    mouse_events UInt32,
    mouse_distance Float64,
    activity_score Float64,
    idle Bool,
    window_title String,
    app_name String,
    url String,
    category String
) ENGINE = MergeTree
ORDER BY (company_id, user_id, interval_start)
SETTINGS index_granularity = 8192`

	if err := db.conn.Exec(ctx, createTableSQL); err != nil {
		zapctx.Error(ctx, "Failed to create activity_intervals table", zap.Error(err))
		return err
	}
	return nil
}

// InsertIntervalBatch persists one validated ingest batch as a single
// insert. The batch was validated up front, so a failure here leaves
// nothing partially persisted.
func (db *Database) InsertIntervalBatch(ctx context.Context, intervals []ActivityInterval) error {
	batch, err := db.conn.PrepareBatch(ctx, `
		INSERT INTO activity_intervals
			(company_id, user_id, session_id, timestamp, interval_start, interval_end,
			 duration, keyboard_events, mouse_events, mouse_distance, activity_score,
			 idle, window_title, app_name, url, category)`)
	if err != nil {
		return fmt.Errorf("failed to prepare interval batch: %w", err)
	}

	for _, iv := range intervals {
		err := batch.Append(
			iv.CompanyID, iv.UserID, iv.SessionID,
			iv.Timestamp, iv.IntervalStart, iv.IntervalEnd,
			iv.Duration, iv.KeyboardEvents, iv.MouseEvents, iv.MouseDistance,
			iv.ActivityScore, iv.Idle,
			iv.Window.Title, iv.Window.AppName, iv.Window.URL, iv.Window.Category,
		)
		if err != nil {
			return fmt.Errorf("failed to append interval: %w", err)
		}
	}

	start := time.Now()
	if err := batch.Send(); err != nil {
		zapctx.Error(ctx, "Failed to insert interval batch",
			zap.Error(err),
			zap.Int("batch_size", len(intervals)),
		)
		return err
	}

	if duration := time.Since(start); duration > 100*time.Millisecond {
		zapctx.Warn(ctx, "Slow INSERT query detected",
			zap.Duration("duration", duration),
			zap.String("table", "activity_intervals"),
			zap.Int("batch_size", len(intervals)),
		)
	}

	return nil
}

const intervalColumns = `company_id, user_id, session_id, timestamp, interval_start, interval_end,
	duration, keyboard_events, mouse_events, mouse_distance, activity_score, idle,
	window_title, app_name, url, category`

// IntervalsByUser returns one user's observations in [from, to),
// chronologically sorted for the timeline fold.
func (db *Database) IntervalsByUser(ctx context.Context, companyID, userID string, from, to time.Time) ([]ActivityInterval, error) {
	query := `
		SELECT ` + intervalColumns + `
		FROM activity_intervals
		WHERE company_id = ? AND user_id = ? AND interval_start >= ? AND interval_start < ?
		ORDER BY interval_start ASC
		LIMIT 100000`

	rows, err := db.conn.Query(ctx, query, companyID, userID, from, to)
	if err != nil {
		zapctx.Error(ctx, "Failed to query intervals", zap.Error(err), zap.String("user_id", userID))
		return nil, err
	}
	defer rows.Close()

	return collectIntervals(rows)
}

// IntervalsByCompany returns all tenant observations in [from, to) sorted by
// user then time, for multi-user attendance reports.
func (db *Database) IntervalsByCompany(ctx context.Context, companyID string, from, to time.Time) ([]ActivityInterval, error) {
	query := `
		SELECT ` + intervalColumns + `
		FROM activity_intervals
		WHERE company_id = ? AND interval_start >= ? AND interval_start < ?
		ORDER BY user_id ASC, interval_start ASC
		LIMIT 500000`

	start := time.Now()
	rows, err := db.conn.Query(ctx, query, companyID, from, to)
	if err != nil {
		zapctx.Error(ctx, "Failed to query company intervals", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	intervals, err := collectIntervals(rows)
	if err != nil {
		return nil, err
	}

	if duration := time.Since(start); duration > 200*time.Millisecond {
		zapctx.Warn(ctx, "Slow SELECT query detected",
			zap.Duration("duration", duration),
			zap.String("table", "activity_intervals"),
			zap.Int("result_count", len(intervals)),
		)
	}

	return intervals, nil
}

// SessionPresences returns the most recent observation state per session,
// for the live-status join.
func (db *Database) SessionPresences(ctx context.Context, companyID string, sessionIDs []string) (map[string]SessionPresence, error) {
	if len(sessionIDs) == 0 {
		return map[string]SessionPresence{}, nil
	}

	query := `
		SELECT session_id, argMax(idle, timestamp) AS idle, max(timestamp) AS last_seen
		FROM activity_intervals
		WHERE company_id = ? AND session_id IN (?)
		GROUP BY session_id`

	rows, err := db.conn.Query(ctx, query, companyID, sessionIDs)
	if err != nil {
		zapctx.Error(ctx, "Failed to query session presences", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	presences := make(map[string]SessionPresence, len(sessionIDs))
	for rows.Next() {
		var sessionID string
		var p SessionPresence
		if err := rows.Scan(&sessionID, &p.Idle, &p.LastSeen); err != nil {
			return nil, err
		}
		presences[sessionID] = p
	}
	return presences, rows.Err()
}

// ActivityTotals sums durations over a window, company-wide or per user.
func (db *Database) ActivityTotals(ctx context.Context, companyID, userID string, from, to time.Time) (*ActivityTotals, error) {
	query := `
		SELECT
			sum(duration) AS total,
			sumIf(duration, idle = false) AS active,
			sumIf(duration, idle = true) AS idle_total,
			uniqExact(user_id) AS users
		FROM activity_intervals
		WHERE company_id = ? AND interval_start >= ? AND interval_start < ?`
	args := []interface{}{companyID, from, to}

	if userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	var totals ActivityTotals
	if err := db.conn.QueryRow(ctx, query, args...).Scan(
		&totals.TotalSeconds, &totals.ActiveSeconds, &totals.IdleSeconds, &totals.Users); err != nil {
		zapctx.Error(ctx, "Failed to query activity totals", zap.Error(err))
		return nil, err
	}
	return &totals, nil
}

// UserActivityRows returns one summed row per user over a window, most
// active first.
func (db *Database) UserActivityRows(ctx context.Context, companyID string, from, to time.Time) ([]UserActivity, error) {
	query := `
		SELECT
			user_id,
			sum(duration) AS total,
			sumIf(duration, idle = false) AS active,
			sumIf(duration, idle = true) AS idle_total,
			max(timestamp) AS last_seen
		FROM activity_intervals
		WHERE company_id = ? AND interval_start >= ? AND interval_start < ?
		GROUP BY user_id
		ORDER BY total DESC`

	rows, err := db.conn.Query(ctx, query, companyID, from, to)
	if err != nil {
		zapctx.Error(ctx, "Failed to query user activity", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	users := make([]UserActivity, 0)
	for rows.Next() {
		var u UserActivity
		if err := rows.Scan(&u.UserID, &u.TotalSeconds, &u.ActiveSeconds, &u.IdleSeconds, &u.LastSeen); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func collectIntervals(rows driver.Rows) ([]ActivityInterval, error) {
	intervals := make([]ActivityInterval, 0)
	for rows.Next() {
		var iv ActivityInterval
		if err := rows.Scan(
			&iv.CompanyID, &iv.UserID, &iv.SessionID,
			&iv.Timestamp, &iv.IntervalStart, &iv.IntervalEnd,
			&iv.Duration, &iv.KeyboardEvents, &iv.MouseEvents, &iv.MouseDistance,
			&iv.ActivityScore, &iv.Idle,
			&iv.Window.Title, &iv.Window.AppName, &iv.Window.URL, &iv.Window.Category,
		); err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}
	return intervals, rows.Err()
}

// Ping reports interval store liveness.
func (db *Database) Ping(ctx context.Context) error {
	return db.conn.Ping(ctx)
}

func (db *Database) Close() error {
	return db.conn.Close()
}
