package database

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/worklens/worklens/zapctx"
)

// topURLsPerApp caps how many URL groups are attached under each app.
const topURLsPerApp = 10

// AppUsageReport groups intervals by app and by (app, url) and merges the
// two into per-app entries with their top URL groups. Both SQL orderings are
// seconds-descending; ClickHouse ORDER BY is stable for equal keys, so ties
// keep aggregation order and the Go merge only preserves what it reads.
func (db *Database) AppUsageReport(ctx context.Context, companyID, userID string, from, to time.Time) ([]AppUsage, error) {
	appQuery := `
		SELECT
			app_name,
			sum(duration) AS seconds,
			uniqExact(user_id) AS users,
			anyIf(category, category != '') AS category
		FROM activity_intervals
		WHERE company_id = ? AND interval_start >= ? AND interval_start < ?`
	urlQuery := `
		SELECT
			app_name,
			url,
			sum(duration) AS seconds,
			count() AS visits
		FROM activity_intervals
		WHERE company_id = ? AND interval_start >= ? AND interval_start < ? AND url != ''`

	args := []interface{}{companyID, from, to}
	if userID != "" {
		appQuery += " AND user_id = ?"
		urlQuery += " AND user_id = ?"
		args = append(args, userID)
	}
	appQuery += " GROUP BY app_name ORDER BY seconds DESC LIMIT 200"
	urlQuery += " GROUP BY app_name, url ORDER BY seconds DESC LIMIT 2000"

	start := time.Now()

	rows, err := db.conn.Query(ctx, appQuery, args...)
	if err != nil {
		zapctx.Error(ctx, "Failed to query app usage", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	apps := make([]AppUsage, 0)
	for rows.Next() {
		var app AppUsage
		if err := rows.Scan(&app.AppName, &app.Seconds, &app.Users, &app.Category); err != nil {
			return nil, err
		}
		app.URLs = make([]URLUsage, 0)
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	urlRows, err := db.conn.Query(ctx, urlQuery, args...)
	if err != nil {
		zapctx.Error(ctx, "Failed to query url usage", zap.Error(err))
		return nil, err
	}
	defer urlRows.Close()

	urls := make([]appURLRow, 0)
	for urlRows.Next() {
		var row appURLRow
		if err := urlRows.Scan(&row.AppName, &row.URL, &row.Seconds, &row.Visits); err != nil {
			return nil, err
		}
		urls = append(urls, row)
	}
	if err := urlRows.Err(); err != nil {
		return nil, err
	}

	if duration := time.Since(start); duration > 200*time.Millisecond {
		zapctx.Warn(ctx, "Slow SELECT query detected",
			zap.Duration("duration", duration),
			zap.String("table", "activity_intervals"),
			zap.Int("result_count", len(apps)),
		)
	}

	return mergeUsage(apps, urls), nil
}

type appURLRow struct {
	AppName string
	URL     string
	Seconds uint64
	Visits  uint64
}

// mergeUsage attaches each URL group under the app whose name matches
// exactly, keeping at most topURLsPerApp per app. Input orderings are
// preserved; nothing is re-sorted here.
func mergeUsage(apps []AppUsage, urls []appURLRow) []AppUsage {
	index := make(map[string]int, len(apps))
	for i := range apps {
		index[apps[i].AppName] = i
	}

	for _, row := range urls {
		i, ok := index[row.AppName]
		if !ok || len(apps[i].URLs) >= topURLsPerApp {
			continue
		}
		apps[i].URLs = append(apps[i].URLs, URLUsage{
			URL:     row.URL,
			Seconds: row.Seconds,
			Visits:  row.Visits,
		})
	}

	return apps
}

// CategoryUsageReport sums durations per caller-supplied category.
// Observations without a category count as neutral.
func (db *Database) CategoryUsageReport(ctx context.Context, companyID, userID string, from, to time.Time) ([]CategoryUsage, error) {
	query := `
		SELECT
			if(category = '', 'neutral', category) AS cat,
			sum(duration) AS seconds
		FROM activity_intervals
		WHERE company_id = ? AND interval_start >= ? AND interval_start < ?`
	args := []interface{}{companyID, from, to}

	if userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	query += " GROUP BY cat ORDER BY seconds DESC"

	rows, err := db.conn.Query(ctx, query, args...)
	if err != nil {
		zapctx.Error(ctx, "Failed to query category usage", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	categories := make([]CategoryUsage, 0)
	for rows.Next() {
		var c CategoryUsage
		if err := rows.Scan(&c.Category, &c.Seconds); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
