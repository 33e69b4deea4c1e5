package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/worklens/worklens/server/session"
)

// StartSession creates a new active session for the caller, or returns the
// already-running one unchanged. The partial unique index on
// (user_id, company_id) WHERE status IN ('active','paused') makes the upsert
// race-free: of two concurrent starts exactly one row wins.
func (st *Store) StartSession(ctx context.Context, userID, companyID, deviceID string, ts time.Time) (*session.Session, bool, error) {
	s := session.Start(userID, companyID, deviceID, ts)
	events, err := json.Marshal(s.Events)
	if err != nil {
		return nil, false, err
	}

	tag, err := st.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, company_id, device_id, start_time, status, events)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, company_id) WHERE status IN ('active', 'paused') DO NOTHING`,
		s.ID, s.UserID, s.CompanyID, s.DeviceID, s.StartTime, string(s.Status), events)
	if err != nil {
		return nil, false, fmt.Errorf("failed to start session: %w", err)
	}

	if tag.RowsAffected() == 0 {
		existing, err := st.RunningSession(ctx, userID, companyID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return s, true, nil
}

// Transition fires a pause/resume/end event against the session. Ownership
// mismatches are fatal. Firing end on an ended session is a successful no-op;
// any other state mismatch is a conflict.
func (st *Store) Transition(ctx context.Context, id uuid.UUID, userID, companyID string, ev session.EventType, ts time.Time) (*session.Session, error) {
	rule, ok := session.RuleFor(ev)
	if !ok {
		return nil, fmt.Errorf("%w: unknown event %q", ErrValidation, ev)
	}

	cur, err := st.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cur.OwnedBy(userID, companyID) {
		return nil, ErrOwnership
	}
	if rule.Idempotent && cur.Status == rule.To {
		return cur, nil
	}

	event, err := json.Marshal([]session.Event{{Type: ev, Timestamp: ts}})
	if err != nil {
		return nil, err
	}
	from := make([]string, len(rule.From))
	for i, s := range rule.From {
		from[i] = string(s)
	}

	// The status guard keeps the update atomic: a concurrent transition
	// that got there first leaves zero rows affected here.
	tag, err := st.pool.Exec(ctx, `
		UPDATE sessions
		SET status = $1,
		    events = events || $2::jsonb,
		    end_time = CASE WHEN $3 THEN $4::timestamptz ELSE end_time END
		WHERE id = $5 AND status = ANY($6)`,
		string(rule.To), event, ev == session.EventEnd, ts, id, from)
	if err != nil {
		return nil, fmt.Errorf("failed to transition session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrConflict
	}

	return st.GetSession(ctx, id)
}

// ApplyBatchSummary folds one ingested batch into the session summary as a
// single update of atomic increments. The weighted average is never stored,
// so concurrent batches cannot lose each other's contribution.
func (st *Store) ApplyBatchSummary(ctx context.Context, id uuid.UUID, userID, companyID string, sum BatchSummary) error {
	tag, err := st.pool.Exec(ctx, `
		UPDATE sessions
		SET total_duration = total_duration + $1,
		    active_duration = active_duration + $2,
		    idle_duration = idle_duration + $3,
		    sum_weighted_score = sum_weighted_score + $4
		WHERE id = $5 AND user_id = $6 AND company_id = $7`,
		sum.TotalDur, sum.ActiveDur, sum.IdleDur, sum.WeightedScoreSum,
		id, userID, companyID)
	if err != nil {
		return fmt.Errorf("failed to update session summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := st.GetSession(ctx, id); err != nil {
			return err
		}
		return ErrOwnership
	}
	return nil
}

const sessionColumns = `id, user_id, company_id, device_id, start_time, end_time, status, events,
	total_duration, active_duration, idle_duration, sum_weighted_score, screenshots_count`

// GetSession loads one session by id.
func (st *Store) GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	row := st.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

// RunningSession returns the caller's active-or-paused session, if any.
func (st *Store) RunningSession(ctx context.Context, userID, companyID string) (*session.Session, error) {
	row := st.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE user_id = $1 AND company_id = $2 AND status IN ('active', 'paused')
		ORDER BY start_time DESC
		LIMIT 1`, userID, companyID)
	return scanSession(row)
}

// RunningSessions returns every active-or-paused session in the tenant,
// for the admin live-status view.
func (st *Store) RunningSessions(ctx context.Context, companyID string) ([]session.Session, error) {
	rows, err := st.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE company_id = $1 AND status IN ('active', 'paused')
		ORDER BY start_time ASC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

// ListSessions returns the tenant's session history, newest first,
// optionally filtered by user and start-time range.
func (st *Store) ListSessions(ctx context.Context, companyID, userID string, from, to *time.Time) ([]session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE company_id = $1`
	args := []interface{}{companyID}

	if userID != "" {
		args = append(args, userID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND start_time >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND start_time < $%d", len(args))
	}
	query += " ORDER BY start_time DESC LIMIT 1000"

	rows, err := st.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

func collectSessions(rows pgx.Rows) ([]session.Session, error) {
	sessions := make([]session.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func scanSession(row pgx.Row) (*session.Session, error) {
	var s session.Session
	var status string
	var events []byte
	err := row.Scan(&s.ID, &s.UserID, &s.CompanyID, &s.DeviceID, &s.StartTime, &s.EndTime,
		&status, &events, &s.TotalDuration, &s.ActiveDuration, &s.IdleDuration,
		&s.SumWeightedScore, &s.ScreenshotsCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.Status = session.Status(status)
	if err := json.Unmarshal(events, &s.Events); err != nil {
		return nil, fmt.Errorf("failed to decode session events: %w", err)
	}
	return &s, nil
}
