package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActiveWindow is the foreground window captured with an observation.
// Category is supplied by the collecting agent; the server never
// recomputes it.
type ActiveWindow struct {
	Title    string `json:"title"`
	AppName  string `json:"app_name"`
	URL      string `json:"url,omitempty"`
	Category string `json:"category,omitempty"`
}

// ActivityInterval is one immutable activity observation spanning
// [interval_start, interval_end). Duration is the clamped second count
// computed once at ingest; it is the only duration used in aggregation.
//
// Claimed is a presentation flag set by the time-claim overlay at read
// time. The stored record never carries it.
type ActivityInterval struct {
	UserID         string       `json:"user_id"`
	CompanyID      string       `json:"company_id"`
	SessionID      string       `json:"session_id"`
	Timestamp      time.Time    `json:"timestamp"`
	IntervalStart  time.Time    `json:"interval_start"`
	IntervalEnd    time.Time    `json:"interval_end"`
	Duration       uint32       `json:"duration"`
	KeyboardEvents uint32       `json:"keyboard_events"`
	MouseEvents    uint32       `json:"mouse_events"`
	MouseDistance  float64      `json:"mouse_distance"`
	ActivityScore  float64      `json:"activity_score"`
	Idle           bool         `json:"idle"`
	Claimed        bool         `json:"claimed,omitempty"`
	Window         ActiveWindow `json:"active_window"`
}

// ClampedDuration returns max(0, floor(interval_end - interval_start))
// in whole seconds. Inverted intervals contribute zero, never negative.
func (iv ActivityInterval) ClampedDuration() uint32 {
	d := iv.IntervalEnd.Sub(iv.IntervalStart)
	if d <= 0 {
		return 0
	}
	return uint32(d / time.Second)
}

// BatchSummary accumulates one ingested batch for the session summary
// update. WeightedScoreSum is Σ(score·duration); dividing it by the
// total duration yields the duration-weighted activity score.
type BatchSummary struct {
	TotalDur         int64
	ActiveDur        int64
	IdleDur          int64
	WeightedScoreSum float64
}

// SummarizeBatch folds a batch of intervals into the sums the session
// summary update applies as atomic increments.
func SummarizeBatch(intervals []ActivityInterval) BatchSummary {
	var sum BatchSummary
	for _, iv := range intervals {
		dur := int64(iv.Duration)
		sum.TotalDur += dur
		if iv.Idle {
			sum.IdleDur += dur
		} else {
			sum.ActiveDur += dur
		}
		sum.WeightedScoreSum += iv.ActivityScore * float64(dur)
	}
	return sum
}

type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
)

type ClaimType string

const (
	ClaimMeeting ClaimType = "Meeting"
	ClaimCall    ClaimType = "Call"
	ClaimBreak   ClaimType = "Break"
	ClaimOther   ClaimType = "Other"
)

// ValidClaimType reports whether t is one of the accepted claim types.
func ValidClaimType(t ClaimType) bool {
	switch t {
	case ClaimMeeting, ClaimCall, ClaimBreak, ClaimOther:
		return true
	}
	return false
}

// TimeClaim is an employee-submitted request to reclassify an idle
// period as work. StartTime/EndTime are local times of day ("HH:MM")
// on Date; only approved claims participate in the overlay.
type TimeClaim struct {
	ID              uuid.UUID   `json:"id"`
	UserID          string      `json:"user_id"`
	CompanyID       string      `json:"company_id"`
	Date            time.Time   `json:"date"`
	StartTime       string      `json:"start_time"`
	EndTime         string      `json:"end_time"`
	Type            ClaimType   `json:"type"`
	Reason          string      `json:"reason"`
	DurationMinutes int         `json:"duration_minutes"`
	Status          ClaimStatus `json:"status"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Bounds resolves the claim to absolute instants in loc:
// Date's midnight plus the HH:MM times of day.
func (c TimeClaim) Bounds(loc *time.Location) (time.Time, time.Time, error) {
	start, err := claimInstant(c.Date, c.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := claimInstant(c.Date, c.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func claimInstant(date time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad time of day %q", ErrValidation, hhmm)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// ClaimMinutes converts an "HH:MM" time of day to minutes since midnight.
func ClaimMinutes(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("%w: bad time of day %q", ErrValidation, hhmm)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// URLUsage is one (app_name, url) aggregation row.
type URLUsage struct {
	URL     string `json:"url"`
	Seconds uint64 `json:"seconds"`
	Visits  uint64 `json:"visits"`
}

// AppUsage is one app_name aggregation row with its top URL groups.
type AppUsage struct {
	AppName  string     `json:"app_name"`
	Seconds  uint64     `json:"seconds"`
	Users    uint64     `json:"users"`
	Category string     `json:"category,omitempty"`
	URLs     []URLUsage `json:"urls"`
}

// CategoryUsage is seconds spent per caller-supplied category.
type CategoryUsage struct {
	Category string `json:"category"`
	Seconds  uint64 `json:"seconds"`
}

// ActivityTotals are summed durations over a window.
type ActivityTotals struct {
	TotalSeconds  uint64 `json:"total_seconds"`
	ActiveSeconds uint64 `json:"active_seconds"`
	IdleSeconds   uint64 `json:"idle_seconds"`
	Users         uint64 `json:"users"`
}

// UserActivity is one per-user report row.
type UserActivity struct {
	UserID        string    `json:"user_id"`
	TotalSeconds  uint64    `json:"total_seconds"`
	ActiveSeconds uint64    `json:"active_seconds"`
	IdleSeconds   uint64    `json:"idle_seconds"`
	LastSeen      time.Time `json:"last_seen"`
}

// SessionPresence is the most recent observation state for a session,
// used by the admin live-status view.
type SessionPresence struct {
	Idle     bool      `json:"idle"`
	LastSeen time.Time `json:"last_seen"`
}
