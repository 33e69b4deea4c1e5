package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

// CreateClaim stores a new pending time claim. Duration is derived from the
// HH:MM bounds and must be positive.
func (st *Store) CreateClaim(ctx context.Context, c *TimeClaim) error {
	if !ValidClaimType(c.Type) {
		return fmt.Errorf("%w: unknown claim type %q", ErrValidation, c.Type)
	}
	startMin, err := ClaimMinutes(c.StartTime)
	if err != nil {
		return err
	}
	endMin, err := ClaimMinutes(c.EndTime)
	if err != nil {
		return err
	}
	if endMin <= startMin {
		return fmt.Errorf("%w: claim must end after it starts", ErrValidation)
	}

	c.ID = uuid.New()
	c.DurationMinutes = endMin - startMin
	c.Status = ClaimPending

	_, err = st.pool.Exec(ctx, `
		INSERT INTO time_claims
			(id, user_id, company_id, claim_date, start_time, end_time, claim_type, reason, duration_minutes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.UserID, c.CompanyID, c.Date, c.StartTime, c.EndTime,
		string(c.Type), c.Reason, c.DurationMinutes, string(c.Status))
	if err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}
	return nil
}

// ResolveClaim moves a pending claim to approved or rejected. The pending
// guard makes the transition happen exactly once; a second resolve is a
// conflict, never a silent reclassification.
func (st *Store) ResolveClaim(ctx context.Context, id uuid.UUID, companyID string, status ClaimStatus, rejectionReason string) (*TimeClaim, error) {
	if status != ClaimApproved && status != ClaimRejected {
		return nil, fmt.Errorf("%w: claims resolve to approved or rejected only", ErrValidation)
	}

	tag, err := st.pool.Exec(ctx, `
		UPDATE time_claims
		SET status = $1, rejection_reason = $2
		WHERE id = $3 AND company_id = $4 AND status = 'pending'`,
		string(status), rejectionReason, id, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := st.getClaim(ctx, id, companyID); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}

	return st.getClaim(ctx, id, companyID)
}

const claimColumns = `id, user_id, company_id, claim_date, start_time, end_time, claim_type,
	reason, duration_minutes, status, rejection_reason, created_at`

func (st *Store) getClaim(ctx context.Context, id uuid.UUID, companyID string) (*TimeClaim, error) {
	row := st.pool.QueryRow(ctx,
		`SELECT `+claimColumns+` FROM time_claims WHERE id = $1 AND company_id = $2`, id, companyID)
	c, err := scanClaim(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListClaims returns the tenant's claims, newest first, optionally filtered
// by user and status.
func (st *Store) ListClaims(ctx context.Context, companyID, userID string, status ClaimStatus) ([]TimeClaim, error) {
	query := `SELECT ` + claimColumns + ` FROM time_claims WHERE company_id = $1`
	args := []interface{}{companyID}

	if userID != "" {
		args = append(args, userID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if status != "" {
		args = append(args, string(status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC LIMIT 1000"

	rows, err := st.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claims := make([]TimeClaim, 0)
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

// ApprovedClaims returns the user's approved claims whose date falls in
// [from, to]. Pending and rejected claims never reach the overlay.
func (st *Store) ApprovedClaims(ctx context.Context, companyID, userID string, from, to time.Time) ([]TimeClaim, error) {
	rows, err := st.pool.Query(ctx, `
		SELECT `+claimColumns+`
		FROM time_claims
		WHERE company_id = $1 AND user_id = $2 AND status = 'approved'
		  AND claim_date >= $3 AND claim_date <= $4
		ORDER BY claim_date ASC, start_time ASC`,
		companyID, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claims := make([]TimeClaim, 0)
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

func scanClaim(row pgx.Row) (*TimeClaim, error) {
	var c TimeClaim
	var claimType, status string
	err := row.Scan(&c.ID, &c.UserID, &c.CompanyID, &c.Date, &c.StartTime, &c.EndTime,
		&claimType, &c.Reason, &c.DurationMinutes, &status, &c.RejectionReason, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Type = ClaimType(claimType)
	c.Status = ClaimStatus(status)
	return &c, nil
}
