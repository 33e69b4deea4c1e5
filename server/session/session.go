// Package session models a tracked work period as a closed state machine:
// active -> paused -> active ... -> ended, with an append-only event log.
// It is storage-free; persistence lives in server/database.
package session

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusEnded  Status = "ended"
)

type EventType string

const (
	EventStart  EventType = "start"
	EventPause  EventType = "pause"
	EventResume EventType = "resume"
	EventEnd    EventType = "end"
)

// Event is one entry of a session's append-only event log.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Rule describes which statuses an event may fire from and where it lands.
// End is idempotent: firing it on an ended session is a successful no-op.
type Rule struct {
	From       []Status
	To         Status
	Idempotent bool
}

// RuleFor returns the transition rule for ev. Start has no rule here;
// it creates sessions instead of transitioning them.
func RuleFor(ev EventType) (Rule, bool) {
	switch ev {
	case EventPause:
		return Rule{From: []Status{StatusActive}, To: StatusPaused}, true
	case EventResume:
		return Rule{From: []Status{StatusPaused}, To: StatusActive}, true
	case EventEnd:
		return Rule{From: []Status{StatusActive, StatusPaused}, To: StatusEnded, Idempotent: true}, true
	}
	return Rule{}, false
}

// Session is one continuous tracked work period.
//
// TotalDuration, ActiveDuration and IdleDuration are second counters kept by
// atomic increments at ingest time. SumWeightedScore is the raw Σ(score·dur)
// behind the duration-weighted activity score; the average itself is derived
// on read so concurrent batches never race on it.
type Session struct {
	ID               uuid.UUID  `json:"id"`
	UserID           string     `json:"user_id"`
	CompanyID        string     `json:"company_id"`
	DeviceID         string     `json:"device_id"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	Status           Status     `json:"status"`
	Events           []Event    `json:"events"`
	TotalDuration    int64      `json:"-"`
	ActiveDuration   int64      `json:"-"`
	IdleDuration     int64      `json:"-"`
	SumWeightedScore float64    `json:"-"`
	ScreenshotsCount int        `json:"-"`
}

// Summary is the derived per-session statistics block.
type Summary struct {
	TotalDuration    int64   `json:"total_duration"`
	ActiveDuration   int64   `json:"active_duration"`
	IdleDuration     int64   `json:"idle_duration"`
	PauseDuration    int64   `json:"pause_duration"`
	ScreenshotsCount int     `json:"screenshots_count"`
	ActivityScore    float64 `json:"activity_score"`
}

// Start creates a new active session with its start event.
func Start(userID, companyID, deviceID string, ts time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		CompanyID: companyID,
		DeviceID:  deviceID,
		StartTime: ts,
		Status:    StatusActive,
		Events:    []Event{{Type: EventStart, Timestamp: ts}},
	}
}

// OwnedBy reports whether the session belongs to the given caller.
func (s *Session) OwnedBy(userID, companyID string) bool {
	return s.UserID == userID && s.CompanyID == companyID
}

// ActivityScore derives the duration-weighted average score from the raw
// sums. Weighting is by duration, never by observation count.
func (s *Session) ActivityScore() float64 {
	if s.TotalDuration <= 0 {
		return 0
	}
	return s.SumWeightedScore / float64(s.TotalDuration)
}

// PauseDuration walks the event log and sums pause->resume spans.
// An unterminated pause is closed by the end event, or left open for a
// still-paused session and counted up to now.
func (s *Session) PauseDuration(now time.Time) time.Duration {
	var total time.Duration
	var pausedAt *time.Time
	for i := range s.Events {
		ev := s.Events[i]
		switch ev.Type {
		case EventPause:
			t := ev.Timestamp
			pausedAt = &t
		case EventResume, EventEnd:
			if pausedAt != nil {
				total += ev.Timestamp.Sub(*pausedAt)
				pausedAt = nil
			}
		}
	}
	if pausedAt != nil && now.After(*pausedAt) {
		total += now.Sub(*pausedAt)
	}
	return total
}

// Summarize builds the summary block as of now.
func (s *Session) Summarize(now time.Time) Summary {
	return Summary{
		TotalDuration:    s.TotalDuration,
		ActiveDuration:   s.ActiveDuration,
		IdleDuration:     s.IdleDuration,
		PauseDuration:    int64(s.PauseDuration(now).Seconds()),
		ScreenshotsCount: s.ScreenshotsCount,
		ActivityScore:    s.ActivityScore(),
	}
}
